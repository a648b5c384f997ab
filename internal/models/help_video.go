package models

import (
	"time"
)

type HelpVideo struct {
	ID            uint   `gorm:"primaryKey"`
	Title         string `gorm:"size:255;not null"`
	Description   string `gorm:"type:text"`
	VideoURL      string `gorm:"size:512"`
	VideoFileID   string `gorm:"size:255"`
	CloudURL      string `gorm:"size:512"`
	CloudPublicID string `gorm:"size:255"`
	ThumbnailURL  string `gorm:"size:512"`
	Duration      int
	DisplayOrder  int  `gorm:"not null;default:0"`
	ViewsCount    int  `gorm:"not null;default:0"`
	IsActive      bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
