package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/models"
)

func TestRegisterNewUser(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, newTestConfig(), testLogger())

	user, created, err := users.Register(context.Background(), 7000, "alice", "Alice", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, user.ReferralCode, 8)
	assert.Nil(t, user.ReferredBy)
	assert.False(t, user.ReferralCredited)
}

func TestRegisterIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, newTestConfig(), testLogger())
	ctx := context.Background()

	first, created, err := users.Register(ctx, 7001, "bob", "Bob", "")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := users.Register(ctx, 7001, "bob", "Bob", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ReferralCode, second.ReferralCode)
}

func TestRegisterLinksReferrer(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, newTestConfig(), testLogger())
	ctx := context.Background()

	referrer, _, err := users.Register(ctx, 7002, "carol", "Carol", "")
	require.NoError(t, err)

	referee, created, err := users.Register(ctx, 7003, "dave", "Dave", referrer.ReferralCode)
	require.NoError(t, err)
	require.True(t, created)
	require.NotNil(t, referee.ReferredBy)
	assert.Equal(t, referrer.ID, *referee.ReferredBy)
	assert.False(t, referee.ReferralCredited, "bonus is only granted at first approval")
}

func TestRegisterIgnoresUnknownReferralCode(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, newTestConfig(), testLogger())

	user, _, err := users.Register(context.Background(), 7004, "erin", "Erin", "NOSUCH00")
	require.NoError(t, err)
	assert.Nil(t, user.ReferredBy)
}

func TestRegisterReferralDoesNotRelink(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, newTestConfig(), testLogger())
	ctx := context.Background()

	referrer, _, err := users.Register(ctx, 7005, "frank", "Frank", "")
	require.NoError(t, err)

	// Existing user hitting a referral link keeps their original record.
	existing, _, err := users.Register(ctx, 7006, "grace", "Grace", "")
	require.NoError(t, err)
	require.Nil(t, existing.ReferredBy)

	again, created, err := users.Register(ctx, 7006, "grace", "Grace", referrer.ReferralCode)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, again.ReferredBy)
}

func TestReferralsCountsCredited(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, newTestConfig(), testLogger())

	referrer := createTestUser(t, db, 7100)
	createTestUser(t, db, 7101, func(u *models.User) { u.ReferredBy = &referrer.ID })
	createTestUser(t, db, 7102, func(u *models.User) {
		u.ReferredBy = &referrer.ID
		u.ReferralCredited = true
	})

	referred, credited, err := users.Referrals(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.Len(t, referred, 2)
	assert.Equal(t, int64(1), credited)
}

func TestSetBlocked(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, newTestConfig(), testLogger())
	ctx := context.Background()

	user := createTestUser(t, db, 7200)

	require.NoError(t, users.SetBlocked(ctx, user.TelegramID, true))

	reloaded, err := users.ByTelegramID(ctx, user.TelegramID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsBlocked)

	err = users.SetBlocked(ctx, 999999, true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAllTelegramIDsSkipsBlocked(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, newTestConfig(), testLogger())

	createTestUser(t, db, 7300)
	createTestUser(t, db, 7301, func(u *models.User) { u.IsBlocked = true })

	ids, err := users.AllTelegramIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{7300}, ids)
}
