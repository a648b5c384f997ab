package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Youmto/SHAREMONEY/internal/models"
)

func TestCreateWithdrawalDebitsBalance(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	wds := NewWithdrawals(db, cfg, testLogger(), NopNotifier{})

	user := createTestUser(t, db, 5000, func(u *models.User) {
		u.Balance = 1000
		u.TotalEarned = 1000
	})

	wd, err := wds.Create(context.Background(), user.ID, 600, "orange_money", "691234567")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPending, wd.Status)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, int64(400), reloaded.Balance)
	assert.Equal(t, int64(1000), reloaded.TotalEarned, "total earned is never debited")
}

func TestCreateWithdrawalValidation(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	wds := NewWithdrawals(db, cfg, testLogger(), NopNotifier{})

	user := createTestUser(t, db, 5001, func(u *models.User) { u.Balance = 1000 })
	ctx := context.Background()

	_, err := wds.Create(ctx, user.ID, 400, "orange_money", "691234567")
	assert.ErrorIs(t, err, ErrAmountBelowMinimum)

	_, err = wds.Create(ctx, user.ID, 600, "paypal", "someone@example.com")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = wds.Create(ctx, user.ID, 2000, "orange_money", "691234567")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Validation failures must not touch the balance.
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, int64(1000), reloaded.Balance)
}

func TestCreateWithdrawalCannotOverdraw(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	wds := NewWithdrawals(db, cfg, testLogger(), NopNotifier{})

	user := createTestUser(t, db, 5002, func(u *models.User) { u.Balance = 900 })
	ctx := context.Background()

	_, err := wds.Create(ctx, user.ID, 600, "orange_money", "691234567")
	require.NoError(t, err)

	// The remaining 300 cannot cover a second 600 request.
	_, err = wds.Create(ctx, user.ID, 600, "orange_money", "691234567")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, int64(300), reloaded.Balance)
}

func TestCompleteWithdrawalExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	wds := NewWithdrawals(db, cfg, testLogger(), NopNotifier{})

	user := createTestUser(t, db, 5003, func(u *models.User) { u.Balance = 1000 })
	ctx := context.Background()

	wd, err := wds.Create(ctx, user.ID, 600, "mtn_money", "671234567")
	require.NoError(t, err)

	applied, err := wds.Complete(ctx, wd.ID, 99)
	require.NoError(t, err)
	assert.True(t, applied)

	var reloaded models.Withdrawal
	require.NoError(t, db.First(&reloaded, wd.ID).Error)
	assert.Equal(t, models.WithdrawalStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.ProcessedBy)
	assert.Equal(t, int64(99), *reloaded.ProcessedBy)

	// The debit stays; completing pays out of the already-debited amount.
	var owner models.User
	require.NoError(t, db.First(&owner, user.ID).Error)
	assert.Equal(t, int64(400), owner.Balance)

	applied, err = wds.Complete(ctx, wd.ID, 98)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestRejectWithdrawalCreditsBack(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	wds := NewWithdrawals(db, cfg, testLogger(), NopNotifier{})

	user := createTestUser(t, db, 5004, func(u *models.User) { u.Balance = 1000 })
	ctx := context.Background()

	wd, err := wds.Create(ctx, user.ID, 600, "orange_money", "691234567")
	require.NoError(t, err)

	applied, err := wds.Reject(ctx, wd.ID, 99, "Numéro invalide")
	require.NoError(t, err)
	assert.True(t, applied)

	var owner models.User
	require.NoError(t, db.First(&owner, user.ID).Error)
	assert.Equal(t, int64(1000), owner.Balance, "rejection returns the debited amount")

	var reloaded models.Withdrawal
	require.NoError(t, db.First(&reloaded, wd.ID).Error)
	assert.Equal(t, models.WithdrawalStatusRejected, reloaded.Status)
	assert.Equal(t, "Numéro invalide", reloaded.RejectionReason)

	// Rejecting again must not credit twice.
	applied, err = wds.Reject(ctx, wd.ID, 98, "autre")
	require.NoError(t, err)
	assert.False(t, applied)

	require.NoError(t, db.First(&owner, user.ID).Error)
	assert.Equal(t, int64(1000), owner.Balance)
}

func TestRejectAfterCompleteIsNoOp(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	wds := NewWithdrawals(db, cfg, testLogger(), NopNotifier{})

	user := createTestUser(t, db, 5005, func(u *models.User) { u.Balance = 1000 })
	ctx := context.Background()

	wd, err := wds.Create(ctx, user.ID, 600, "orange_money", "691234567")
	require.NoError(t, err)

	applied, err := wds.Complete(ctx, wd.ID, 99)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = wds.Reject(ctx, wd.ID, 98, "trop tard")
	require.NoError(t, err)
	assert.False(t, applied)

	var owner models.User
	require.NoError(t, db.First(&owner, user.ID).Error)
	assert.Equal(t, int64(400), owner.Balance)
}
