package service

import (
	"fmt"
	"testing"
	"time"

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
		&models.Withdrawal{},
		&models.TestimonialMessage{},
		&models.BlacklistedGroup{},
		&models.HelpVideo{},
	))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		RewardPerShare: 100,
		ReferralBonus:  50,
		MinWithdrawal:  500,
		DailyBudget:    50000,
		MinImageSize:   500,
		GroupReuseDays: 7,
		VideoValidity:  48 * time.Hour,
		PaymentMethods: map[string]config.PaymentMethod{
			"orange_money": {Name: "Orange Money", Emoji: "🟠"},
			"mtn_money":    {Name: "MTN Money", Emoji: "🟡"},
		},
		Platforms: map[string]config.PlatformLimits{
			"telegram": {Name: "Telegram", MinMembers: 250, MaxSharesADay: 10},
			"whatsapp": {Name: "WhatsApp", MinMembers: 200, MaxSharesADay: 10},
		},
	}
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func createTestUser(t *testing.T, db *gorm.DB, telegramID int64, opts ...func(*models.User)) *models.User {
	t.Helper()

	user := &models.User{
		TelegramID:   telegramID,
		FirstName:    fmt.Sprintf("User%d", telegramID),
		ReferralCode: fmt.Sprintf("CODE%04d", telegramID),
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestVideo(t *testing.T, db *gorm.DB) *models.Video {
	t.Helper()

	video := &models.Video{
		Title:     "Promo",
		Caption:   "Partagez cette vidéo",
		URL:       "https://example.com/video.mp4",
		ExpiresAt: time.Now().Add(48 * time.Hour),
		IsActive:  true,
	}
	require.NoError(t, db.Create(video).Error)
	return video
}

func createPendingShare(t *testing.T, db *gorm.DB, userID, videoID uint, hash string) *models.Share {
	t.Helper()

	share := &models.Share{
		UserID:         userID,
		VideoID:        videoID,
		Platform:       models.PlatformTelegram,
		ProofImageHash: hash,
		GroupName:      "Groupe test",
		GroupLink:      "https://t.me/groupetest",
		Status:         models.ShareStatusPending,
	}
	require.NoError(t, db.Create(share).Error)
	return share
}
