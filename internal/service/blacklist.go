package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/fraud"
	"github.com/Youmto/SHAREMONEY/internal/models"
)

// Blacklist manages the group veto list consulted by the fraud detector.
// Identifiers are stored normalized so lookups and inserts agree on the key.
type Blacklist struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewBlacklist(db *gorm.DB, log *zap.SugaredLogger) *Blacklist {
	return &Blacklist{db: db, log: log}
}

// Add records a group veto. Adding an already-listed group is a no-op.
func (b *Blacklist) Add(ctx context.Context, groupIdentifier, reason string) error {
	entry := &models.BlacklistedGroup{
		GroupIdentifier: fraud.NormalizeLink(groupIdentifier),
		Reason:          reason,
	}
	err := b.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("blacklist group: %w", err)
	}
	b.log.Infow("group blacklisted", "group", entry.GroupIdentifier)
	return nil
}

// Remove lifts a veto. Removing an unknown group returns ErrRecordNotFound.
func (b *Blacklist) Remove(ctx context.Context, groupIdentifier string) error {
	res := b.db.WithContext(ctx).
		Where("group_identifier = ?", fraud.NormalizeLink(groupIdentifier)).
		Delete(&models.BlacklistedGroup{})
	if res.Error != nil {
		return fmt.Errorf("unblacklist group: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	b.log.Infow("group unblacklisted", "group", groupIdentifier)
	return nil
}

func (b *Blacklist) List(ctx context.Context) ([]models.BlacklistedGroup, error) {
	var entries []models.BlacklistedGroup
	err := b.db.WithContext(ctx).Order("created_at DESC").Find(&entries).Error
	return entries, err
}
