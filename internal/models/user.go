package models

import (
	"time"
)

// User balances are integer FCFA. Balance is only ever mutated by the share
// and withdrawal lifecycle managers, which preserve balance <= total_earned.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	TelegramID   int64  `gorm:"uniqueIndex;not null"`
	Username     string `gorm:"size:255"`
	FirstName    string `gorm:"size:255"`
	Phone        string `gorm:"size:32"`
	Balance      int64  `gorm:"not null;default:0"`
	TotalEarned  int64  `gorm:"not null;default:0"`
	ReferralCode string `gorm:"size:16;uniqueIndex;not null"`
	ReferredBy   *uint  `gorm:"index"`
	// ReferralCredited flips to true exactly once, when this user's first
	// share is approved and the referrer gets their bonus.
	// ReferralCreditedAt is set in the same update; daily budget reporting
	// counts on it, since updated_at bumps on any user edit.
	ReferralCredited   bool       `gorm:"not null;default:false"`
	ReferralCreditedAt *time.Time
	IsBlocked          bool       `gorm:"not null;default:false"`
	LastActive         time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
