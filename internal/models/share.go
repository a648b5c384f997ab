package models

import (
	"time"
)

type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformWhatsapp Platform = "whatsapp"
)

type ShareStatus string

const (
	ShareStatusPending  ShareStatus = "pending"
	ShareStatusApproved ShareStatus = "approved"
	ShareStatusRejected ShareStatus = "rejected"
)

// Share is a user's proof that they posted the active video into a group.
// ProofImageHash is the global dedup key: the unique index is the
// authoritative guard against two shares referencing the same screenshot.
// A share leaves pending exactly once.
type Share struct {
	ID                 uint     `gorm:"primaryKey"`
	UserID             uint     `gorm:"not null;index"`
	User               User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	VideoID            uint     `gorm:"not null;index"`
	Video              Video    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Platform           Platform `gorm:"size:16;not null"`
	ProofImageFileID   string   `gorm:"size:255"`
	ProofImageHash     string   `gorm:"size:64;uniqueIndex;not null"`
	ProofImageURL      string   `gorm:"size:512"`
	ProofCloudPublicID string   `gorm:"size:255"`
	GroupName          string   `gorm:"size:255"`
	GroupLink          string   `gorm:"size:512;index"`
	GroupMemberCount   *int
	TestimonialID      *uint
	CustomTestimonial  string      `gorm:"type:text"`
	Status             ShareStatus `gorm:"size:16;not null;default:'pending';index"`
	RejectionReason    string      `gorm:"type:text"`
	AutoScore          *int
	ValidatedBy        *int64
	ValidatedAt        *time.Time
	CreatedAt          time.Time `gorm:"index"`
}
