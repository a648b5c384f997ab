package models

import (
	"time"
)

// BlacklistedGroup vetoes submissions targeting the group before any share
// is persisted.
type BlacklistedGroup struct {
	ID              uint   `gorm:"primaryKey"`
	GroupIdentifier string `gorm:"size:512;uniqueIndex;not null"`
	Reason          string `gorm:"type:text"`
	CreatedAt       time.Time
}
