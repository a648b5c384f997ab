package models

import (
	"time"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// Withdrawal debits the user's balance when created (optimistic debit).
// Rejecting credits the amount back; completing leaves the debit permanent.
type Withdrawal struct {
	ID              uint             `gorm:"primaryKey"`
	UserID          uint             `gorm:"not null;index"`
	User            User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Amount          int64            `gorm:"not null"`
	PaymentMethod   string           `gorm:"size:32;not null"`
	PaymentDetails  string           `gorm:"size:255;not null"`
	Status          WithdrawalStatus `gorm:"size:16;not null;default:'pending';index"`
	RejectionReason string           `gorm:"type:text"`
	ProcessedBy     *int64
	ProcessedAt     *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}
