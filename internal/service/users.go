package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/models"
)

const referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Users handles registration, lookups and the referral graph.
type Users struct {
	db  *gorm.DB
	cfg *config.Config
	log *zap.SugaredLogger
}

func NewUsers(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *Users {
	return &Users{db: db, cfg: cfg, log: log}
}

// Register creates the user on first contact or returns the existing row.
// The referral link is recorded at signup; the referrer's bonus is only paid
// when the new user's first share is approved. Self-referral and referral of
// an already-known user are silently ignored.
func (u *Users) Register(ctx context.Context, telegramID int64, username, firstName, referralCode string) (*models.User, bool, error) {
	var existing models.User
	err := u.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("user lookup: %w", err)
	}

	var referredBy *uint
	if referralCode != "" {
		var referrer models.User
		err := u.db.WithContext(ctx).Where("referral_code = ?", referralCode).First(&referrer).Error
		switch {
		case err == nil && referrer.TelegramID != telegramID:
			referredBy = &referrer.ID
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, false, fmt.Errorf("referrer lookup: %w", err)
		}
	}

	user := &models.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		ReferredBy: referredBy,
		LastActive: time.Now(),
	}

	// Retry on the rare referral-code collision; the uniqueIndex is the guard.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, false, err
		}
		user.ReferralCode = code

		err = u.db.WithContext(ctx).Create(user).Error
		if err == nil {
			u.log.Infow("user registered",
				"user_id", user.ID, "telegram_id", telegramID, "referred", referredBy != nil)
			return user, true, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, fmt.Errorf("create user: %w", err)
		}

		// The duplicate may also be a concurrent registration of the same
		// telegram id; return that row instead of spinning on codes.
		var raced models.User
		if lookErr := u.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&raced).Error; lookErr == nil {
			return &raced, false, nil
		}
	}
	return nil, false, errors.New("could not allocate a unique referral code")
}

func (u *Users) ByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *Users) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *Users) UpdatePhone(ctx context.Context, userID uint, phone string) error {
	return u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("phone", phone).Error
}

// Touch refreshes last_active; called from every inbound update.
func (u *Users) Touch(ctx context.Context, telegramID int64) {
	err := u.db.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumn("last_active", time.Now()).Error
	if err != nil {
		u.log.Warnw("touch user", "telegram_id", telegramID, "error", err)
	}
}

// SetBlocked toggles the block flag; blocked users are rejected at the top of
// every user-bot flow.
func (u *Users) SetBlocked(ctx context.Context, telegramID int64, blocked bool) error {
	res := u.db.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		Update("is_blocked", blocked)
	if res.Error != nil {
		return fmt.Errorf("set blocked: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	u.log.Infow("user block toggled", "telegram_id", telegramID, "blocked", blocked)
	return nil
}

// Referrals returns the users referred by userID and how many of them have
// generated the one-time bonus.
func (u *Users) Referrals(ctx context.Context, userID uint) ([]models.User, int64, error) {
	var referred []models.User
	err := u.db.WithContext(ctx).
		Where("referred_by = ?", userID).
		Order("created_at DESC").
		Find(&referred).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list referrals: %w", err)
	}

	var credited int64
	err = u.db.WithContext(ctx).Model(&models.User{}).
		Where("referred_by = ? AND referral_credited = ?", userID, true).
		Count(&credited).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count credited referrals: %w", err)
	}
	return referred, credited, nil
}

// List pages through all users, newest first, for admin browsing and
// broadcasts.
func (u *Users) List(ctx context.Context, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := u.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// AllTelegramIDs returns the recipient list for broadcasts, skipping blocked
// users.
func (u *Users) AllTelegramIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := u.db.WithContext(ctx).Model(&models.User{}).
		Where("is_blocked = ?", false).
		Pluck("telegram_id", &ids).Error
	return ids, err
}

func (u *Users) Count(ctx context.Context) (int64, error) {
	var n int64
	err := u.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

func generateReferralCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate referral code: %w", err)
	}
	for i, b := range buf {
		buf[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(buf), nil
}
