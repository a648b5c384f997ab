package fraud

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Video{},
		&models.Share{},
		&models.BlacklistedGroup{},
	))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		MinImageSize:   500,
		GroupReuseDays: 7,
		Platforms: map[string]config.PlatformLimits{
			"telegram": {Name: "Telegram", MaxSharesADay: 10},
			"whatsapp": {Name: "WhatsApp", MaxSharesADay: 10},
		},
	}
}

func newDetector(t *testing.T, db *gorm.DB) *Detector {
	t.Helper()
	return NewDetector(db, newTestConfig(), zap.NewNop().Sugar())
}

// pngBytes renders a size×size image; seed varies one pixel so two images of
// the same size hash differently.
func pngBytes(t *testing.T, size int, seed uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	img.Set(0, 0, color.RGBA{R: seed, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64) *models.User {
	t.Helper()
	user := &models.User{TelegramID: telegramID, ReferralCode: fmt.Sprintf("FRAUD%03d", telegramID)}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedShare(t *testing.T, db *gorm.DB, userID uint, hash, link string, platform models.Platform, status models.ShareStatus) *models.Share {
	t.Helper()

	video := &models.Video{Title: "v", Caption: "c", URL: "https://example.com/v.mp4", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, db.Create(video).Error)

	share := &models.Share{
		UserID:         userID,
		VideoID:        video.ID,
		Platform:       platform,
		ProofImageHash: hash,
		GroupLink:      link,
		Status:         status,
	}
	require.NoError(t, db.Create(share).Error)
	return share
}

func TestEvaluateRejectsInvalidImage(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	user := seedUser(t, db, 1)

	res, err := d.Evaluate(context.Background(), []byte("pas une image"), user.ID, "", models.PlatformTelegram)
	require.NoError(t, err)
	assert.False(t, res.Admissible)
	assert.Contains(t, res.Reason, "invalide")
}

func TestEvaluateRejectsSmallImage(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	user := seedUser(t, db, 2)

	res, err := d.Evaluate(context.Background(), pngBytes(t, 100, 1), user.ID, "", models.PlatformTelegram)
	require.NoError(t, err)
	assert.False(t, res.Admissible)
	assert.Contains(t, res.Reason, "trop petite")
}

func TestEvaluateAcceptsValidProof(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	user := seedUser(t, db, 3)

	data := pngBytes(t, 600, 1)
	res, err := d.Evaluate(context.Background(), data, user.ID, "https://t.me/groupe", models.PlatformTelegram)
	require.NoError(t, err)
	assert.True(t, res.Admissible)
	assert.Equal(t, HashImage(data), res.Hash)
	assert.Equal(t, 50, res.Score, "new users start at the neutral band")
}

func TestEvaluateRejectsDuplicateProof(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	user := seedUser(t, db, 4)

	data := pngBytes(t, 600, 2)
	seedShare(t, db, user.ID, HashImage(data), "https://t.me/a", models.PlatformTelegram, models.ShareStatusPending)

	res, err := d.Evaluate(context.Background(), data, user.ID, "", models.PlatformTelegram)
	require.NoError(t, err)
	assert.False(t, res.Admissible)
	assert.Contains(t, res.Reason, "déjà été soumise")
}

func TestEvaluateEnforcesDailyCapPerPlatform(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	user := seedUser(t, db, 5)

	for i := 0; i < 10; i++ {
		seedShare(t, db, user.ID, fmt.Sprintf("cap-hash-%d", i), "https://t.me/x", models.PlatformTelegram, models.ShareStatusPending)
	}

	res, err := d.Evaluate(context.Background(), pngBytes(t, 600, 3), user.ID, "", models.PlatformTelegram)
	require.NoError(t, err)
	assert.False(t, res.Admissible)
	assert.Contains(t, res.Reason, "Limite atteinte")

	// The cap is per platform; whatsapp is still open.
	res, err = d.Evaluate(context.Background(), pngBytes(t, 600, 4), user.ID, "", models.PlatformWhatsapp)
	require.NoError(t, err)
	assert.True(t, res.Admissible)
}

func TestCheckGroupBlacklist(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	user := seedUser(t, db, 6)

	require.NoError(t, db.Create(&models.BlacklistedGroup{GroupIdentifier: "https://t.me/interdit"}).Error)

	ok, reason, err := d.CheckGroup(context.Background(), user.ID, "t.me/interdit")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "liste noire")
}

func TestCheckGroupReuseWindow(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	user := seedUser(t, db, 7)

	seedShare(t, db, user.ID, "reuse-hash", "https://t.me/mongroupe", models.PlatformTelegram, models.ShareStatusApproved)

	ctx := context.Background()

	ok, reason, err := d.CheckGroup(ctx, user.ID, "@mongroupe")
	require.NoError(t, err)
	assert.False(t, ok, "normalized variants must collide in the reuse check")
	assert.Contains(t, reason, "derniers jours")

	// Another user may use the same group.
	other := seedUser(t, db, 8)
	ok, _, err = d.CheckGroup(ctx, other.ID, "https://t.me/mongroupe")
	require.NoError(t, err)
	assert.True(t, ok)

	// Past the window the group opens up again.
	d.now = func() time.Time { return time.Now().AddDate(0, 0, 8) }
	ok, _, err = d.CheckGroup(ctx, user.ID, "https://t.me/mongroupe")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidationRate(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	user := seedUser(t, db, 9)
	ctx := context.Background()

	rate, err := d.ValidationRate(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, rate)

	seedShare(t, db, user.ID, "vr-1", "https://t.me/a", models.PlatformTelegram, models.ShareStatusApproved)
	seedShare(t, db, user.ID, "vr-2", "https://t.me/b", models.PlatformTelegram, models.ShareStatusApproved)
	seedShare(t, db, user.ID, "vr-3", "https://t.me/c", models.PlatformTelegram, models.ShareStatusRejected)
	seedShare(t, db, user.ID, "vr-4", "https://t.me/d", models.PlatformTelegram, models.ShareStatusPending)

	rate, err = d.ValidationRate(ctx, user.ID)
	require.NoError(t, err)
	assert.InDelta(t, 66.6, rate, 0.1, "pending shares are not resolved")
}

func TestScoreFromRate(t *testing.T) {
	cases := []struct {
		rate float64
		want int
	}{
		{95, 95},
		{90, 95},
		{75, 80},
		{55, 60},
		{20, 40},
		{0, 50},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, scoreFromRate(tc.rate), "rate %.0f", tc.rate)
	}
}
