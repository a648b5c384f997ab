package fraud

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Youmto/SHAREMONEY/internal/models"
)

func agedUser(t *testing.T, d *Detector, telegramID int64, age time.Duration) *models.User {
	t.Helper()
	user := seedUser(t, d.db, telegramID)
	require.NoError(t, d.db.Model(&models.User{}).Where("id = ?", user.ID).
		UpdateColumn("created_at", time.Now().Add(-age)).Error)
	return user
}

func TestAnalyzeCleanSubmission(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	a := NewAnalyzer(d)

	user := agedUser(t, d, 100, 72*time.Hour)

	analysis, err := a.Analyze(context.Background(), user.ID, "https://t.me/propre", models.PlatformTelegram)
	require.NoError(t, err)
	assert.Equal(t, RiskLow, analysis.RiskLevel)
	assert.Zero(t, analysis.RiskScore)
	assert.Empty(t, analysis.Flags)
	assert.Equal(t, RecommendAutoApprove, analysis.Recommendation)
}

func TestAnalyzeNewAccount(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	a := NewAnalyzer(d)

	user := seedUser(t, db, 101)

	analysis, err := a.Analyze(context.Background(), user.ID, "https://t.me/groupe", models.PlatformTelegram)
	require.NoError(t, err)
	assert.Equal(t, 15, analysis.RiskScore)
	assert.Equal(t, RiskMedium, analysis.RiskLevel)
	assert.Equal(t, RecommendManualReview, analysis.Recommendation)
}

func TestAnalyzeLowValidationRate(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	a := NewAnalyzer(d)

	user := agedUser(t, d, 102, 72*time.Hour)
	seedShare(t, db, user.ID, "low-1", "https://t.me/a", models.PlatformTelegram, models.ShareStatusApproved)
	for i := 0; i < 9; i++ {
		share := seedShare(t, db, user.ID, fmt.Sprintf("low-r-%d", i), "https://t.me/b", models.PlatformTelegram, models.ShareStatusRejected)
		// Resolved shares in the past keep the "shares today" counter quiet.
		require.NoError(t, db.Model(&models.Share{}).Where("id = ?", share.ID).
			UpdateColumn("created_at", time.Now().Add(-48*time.Hour)).Error)
	}
	require.NoError(t, db.Model(&models.Share{}).Where("proof_image_hash = ?", "low-1").
		UpdateColumn("created_at", time.Now().Add(-48*time.Hour)).Error)

	analysis, err := a.Analyze(context.Background(), user.ID, "https://t.me/nouveau", models.PlatformTelegram)
	require.NoError(t, err)
	assert.Equal(t, 30, analysis.RiskScore)
	assert.Equal(t, RiskMedium, analysis.RiskLevel)
	assert.InDelta(t, 10.0, analysis.ValidationRate, 0.1)
}

func TestAnalyzeOverusedGroup(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	a := NewAnalyzer(d)

	user := agedUser(t, d, 103, 72*time.Hour)
	for i := 0; i < 11; i++ {
		other := seedUser(t, db, int64(200+i))
		share := seedShare(t, db, other.ID, fmt.Sprintf("grp-%d", i), "https://t.me/spam", models.PlatformTelegram, models.ShareStatusPending)
		require.NoError(t, db.Model(&models.Share{}).Where("id = ?", share.ID).
			UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)
	}

	analysis, err := a.Analyze(context.Background(), user.ID, "t.me/spam", models.PlatformTelegram)
	require.NoError(t, err)
	assert.Equal(t, 20, analysis.RiskScore, "link normalization must hit the stored form")
}

func TestAnalyzeStackedSignalsGoHigh(t *testing.T) {
	db := newTestDB(t)
	d := newDetector(t, db)
	a := NewAnalyzer(d)

	// New account with a bad history and heavy activity today.
	user := seedUser(t, db, 104)
	seedShare(t, db, user.ID, "hi-1", "https://t.me/a", models.PlatformTelegram, models.ShareStatusApproved)
	for i := 0; i < 9; i++ {
		seedShare(t, db, user.ID, fmt.Sprintf("hi-r-%d", i), "https://t.me/b", models.PlatformTelegram, models.ShareStatusRejected)
	}

	analysis, err := a.Analyze(context.Background(), user.ID, "https://t.me/c", models.PlatformTelegram)
	require.NoError(t, err)
	// 30 (low rate) + 10 (volume today) + 15 (new account).
	assert.Equal(t, 55, analysis.RiskScore)
	assert.Equal(t, RiskHigh, analysis.RiskLevel)
	assert.Equal(t, RecommendManualReview, analysis.Recommendation)
	assert.Len(t, analysis.Flags, 3)
}

func TestBucketRisk(t *testing.T) {
	cases := []struct {
		score int
		level string
		rec   string
	}{
		{0, RiskLow, RecommendAutoApprove},
		{10, RiskLow, RecommendAutoApprove},
		{11, RiskMedium, RecommendManualReview},
		{40, RiskMedium, RecommendManualReview},
		{41, RiskHigh, RecommendManualReview},
	}
	for _, tc := range cases {
		level, rec := bucketRisk(tc.score)
		assert.Equal(t, tc.level, level, "score %d", tc.score)
		assert.Equal(t, tc.rec, rec, "score %d", tc.score)
	}
}
