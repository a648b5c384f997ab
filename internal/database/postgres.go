package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/models"
)

func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Connected to PostgreSQL")

	// Auto Migrate
	err = db.AutoMigrate(
		&models.User{},
		&models.Video{},
		&models.Share{},
		&models.Withdrawal{},
		&models.TestimonialMessage{},
		&models.BlacklistedGroup{},
		&models.HelpVideo{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// WithRetry runs fn once, and once more after a short pause if the first
// attempt failed. Balance-affecting callers must not use it: a retried write
// could double-apply; it exists for read paths and idempotent writes hit by
// transient connection drops.
func WithRetry(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	time.Sleep(500 * time.Millisecond)
	return fn()
}
