package models

import (
	"time"
)

// Video is the promotional content users share. At most one video is active
// at a time; Videos.Create and Videos.Toggle enforce this inside one
// transaction.
type Video struct {
	ID            uint   `gorm:"primaryKey"`
	Title         string `gorm:"size:255;not null"`
	Caption       string `gorm:"type:text"`
	CloudURL      string `gorm:"size:512"`
	CloudPublicID string `gorm:"size:255"`
	URL           string `gorm:"size:512"`
	FileID        string `gorm:"size:255"`
	FileSize      int64
	Duration      int
	Width         int
	Height        int
	ExpiresAt     time.Time
	IsActive      bool `gorm:"not null;default:false;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Eligible reports whether the video can be served to users: active, not
// expired, and carrying both playable content and a caption.
func (v *Video) Eligible(now time.Time) bool {
	return v.IsActive &&
		v.ExpiresAt.After(now) &&
		(v.CloudURL != "" || v.URL != "") &&
		v.Caption != ""
}
