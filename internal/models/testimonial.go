package models

import (
	"time"
)

// TestimonialMessage is a reusable marketing text attached to shares for
// provenance; usage_count tracks how often users picked it.
type TestimonialMessage struct {
	ID         uint   `gorm:"primaryKey"`
	Message    string `gorm:"type:text;not null"`
	UsageCount int    `gorm:"not null;default:0"`
	IsActive   bool   `gorm:"not null;default:true"`
	CreatedAt  time.Time
}
