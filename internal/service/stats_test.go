package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Youmto/SHAREMONEY/internal/models"
)

func TestDailyStats(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	stats := NewStats(db, cfg)
	shares := NewShares(db, cfg, testLogger(), NopNotifier{})
	ctx := context.Background()

	user := createTestUser(t, db, 8000)
	video := createTestVideo(t, db)

	approvedShare := createPendingShare(t, db, user.ID, video.ID, "stats-1")
	createPendingShare(t, db, user.ID, video.ID, "stats-2")
	rejectedShare := createPendingShare(t, db, user.ID, video.ID, "stats-3")

	applied, err := shares.Approve(ctx, approvedShare.ID, 99)
	require.NoError(t, err)
	require.True(t, applied)
	applied, err = shares.Reject(ctx, rejectedShare.ID, 99, "raison")
	require.NoError(t, err)
	require.True(t, applied)

	st, err := stats.Daily(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), st.NewUsers)
	assert.Equal(t, int64(3), st.SharesToday)
	assert.Equal(t, int64(1), st.ApprovedToday)
	assert.Equal(t, int64(1), st.RejectedToday)
	assert.Equal(t, int64(1), st.PendingShares)
	assert.Equal(t, cfg.RewardPerShare, st.RewardsToday)
	assert.Equal(t, cfg.RewardPerShare, st.BudgetUsed)
	assert.Equal(t, cfg.RewardPerShare, st.OutstandingDue)
	assert.Equal(t, int64(1), st.TotalUsers)
	assert.Equal(t, int64(3), st.TotalShares)
	assert.Zero(t, st.TotalPaidOut)
}

func TestBudgetUsedIncludesReferralBonus(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	stats := NewStats(db, cfg)
	shares := NewShares(db, cfg, testLogger(), NopNotifier{})
	ctx := context.Background()

	referrer := createTestUser(t, db, 8001)
	referee := createTestUser(t, db, 8002, func(u *models.User) { u.ReferredBy = &referrer.ID })
	video := createTestVideo(t, db)

	share := createPendingShare(t, db, referee.ID, video.ID, "stats-ref")
	applied, err := shares.Approve(ctx, share.ID, 99)
	require.NoError(t, err)
	require.True(t, applied)

	st, err := stats.Daily(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.RewardPerShare+cfg.ReferralBonus, st.BudgetUsed)
}

func TestBudgetUsedIgnoresStaleReferralCredit(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	stats := NewStats(db, cfg)
	shares := NewShares(db, cfg, testLogger(), NopNotifier{})
	users := NewUsers(db, cfg, testLogger())
	ctx := context.Background()

	referrer := createTestUser(t, db, 8004)
	referee := createTestUser(t, db, 8005, func(u *models.User) { u.ReferredBy = &referrer.ID })
	video := createTestVideo(t, db)

	share := createPendingShare(t, db, referee.ID, video.ID, "stats-stale")
	applied, err := shares.Approve(ctx, share.ID, 99)
	require.NoError(t, err)
	require.True(t, applied)

	// Backdate the credit, then touch the user so updated_at bumps today.
	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", referee.ID).
		Update("referral_credited_at", yesterday).Error)
	require.NoError(t, users.UpdatePhone(ctx, referee.ID, "+237691234567"))

	st, err := stats.Daily(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.RewardPerShare, st.BudgetUsed)
}

func TestBudgetExceeded(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.DailyBudget = 100
	stats := NewStats(db, cfg)
	shares := NewShares(db, cfg, testLogger(), NopNotifier{})
	ctx := context.Background()

	exceeded, used, err := stats.BudgetExceeded(ctx)
	require.NoError(t, err)
	assert.False(t, exceeded)
	assert.Zero(t, used)

	user := createTestUser(t, db, 8003)
	video := createTestVideo(t, db)
	share := createPendingShare(t, db, user.ID, video.ID, "stats-budget")

	applied, err := shares.Approve(ctx, share.ID, 99)
	require.NoError(t, err)
	require.True(t, applied)

	exceeded, used, err = stats.BudgetExceeded(ctx)
	require.NoError(t, err)
	assert.True(t, exceeded)
	assert.Equal(t, cfg.RewardPerShare, used)

	// Advisory only: approvals keep working past the budget.
	second := createPendingShare(t, db, user.ID, video.ID, "stats-budget-2")
	applied, err = shares.Approve(ctx, second.ID, 99)
	require.NoError(t, err)
	assert.True(t, applied)
}
