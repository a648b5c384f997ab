package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/database"
	"github.com/Youmto/SHAREMONEY/internal/fraud"
	"github.com/Youmto/SHAREMONEY/internal/models"
)

// Shares owns the pending→approved/rejected transition and its balance side
// effects. The "is it still pending" check and the status write are one
// conditional UPDATE whose affected-row count is the sole exactly-once guard
// against concurrent admins.
type Shares struct {
	db       *gorm.DB
	cfg      *config.Config
	log      *zap.SugaredLogger
	notifier Notifier
}

func NewShares(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger, notifier Notifier) *Shares {
	return &Shares{db: db, cfg: cfg, log: log, notifier: notifier}
}

// SubmitShareInput carries an already-admitted submission. Submit trusts
// that the fraud detector ran; it does not re-evaluate.
type SubmitShareInput struct {
	UserID            uint
	VideoID           uint
	Platform          models.Platform
	ProofFileID       string
	ProofHash         string
	ProofURL          string
	ProofPublicID     string
	GroupName         string
	GroupLink         string
	GroupMemberCount  *int
	TestimonialID     *uint
	CustomTestimonial string
	AutoScore         *int
}

// Submit persists a pending share. The unique index on proof_image_hash is
// the authoritative duplicate guard: a racing insert of the same image loses
// cleanly with ErrDuplicateProof.
func (s *Shares) Submit(ctx context.Context, in SubmitShareInput) (*models.Share, error) {
	share := &models.Share{
		UserID:             in.UserID,
		VideoID:            in.VideoID,
		Platform:           in.Platform,
		ProofImageFileID:   in.ProofFileID,
		ProofImageHash:     in.ProofHash,
		ProofImageURL:      in.ProofURL,
		ProofCloudPublicID: in.ProofPublicID,
		GroupName:          in.GroupName,
		GroupLink:          fraud.NormalizeLink(in.GroupLink),
		GroupMemberCount:   in.GroupMemberCount,
		TestimonialID:      in.TestimonialID,
		CustomTestimonial:  in.CustomTestimonial,
		Status:             models.ShareStatusPending,
		AutoScore:          in.AutoScore,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(share).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateProof
			}
			return fmt.Errorf("create share: %w", err)
		}

		if in.TestimonialID != nil {
			err := tx.Model(&models.TestimonialMessage{}).
				Where("id = ?", *in.TestimonialID).
				UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
			if err != nil {
				return fmt.Errorf("increment testimonial usage: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("share submitted",
		"share_id", share.ID, "user_id", in.UserID, "platform", in.Platform)
	return share, nil
}

// Approve resolves a pending share, credits the owner, and grants the
// referrer's one-time bonus when this is the owner's first approval. Returns
// false without error when another admin already resolved the share.
func (s *Shares) Approve(ctx context.Context, shareID uint, adminID int64) (bool, error) {
	var (
		owner        models.User
		referrer     models.User
		referralPaid bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var share models.Share
		if err := tx.First(&share, shareID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlreadyResolved
			}
			return fmt.Errorf("load share: %w", err)
		}

		now := time.Now()
		res := tx.Model(&models.Share{}).
			Where("id = ? AND status = ?", shareID, models.ShareStatusPending).
			Updates(map[string]interface{}{
				"status":       models.ShareStatusApproved,
				"validated_by": adminID,
				"validated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("transition share: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyResolved
		}

		credit := tx.Model(&models.User{}).
			Where("id = ?", share.UserID).
			Updates(map[string]interface{}{
				"balance":      gorm.Expr("balance + ?", s.cfg.RewardPerShare),
				"total_earned": gorm.Expr("total_earned + ?", s.cfg.RewardPerShare),
			})
		if credit.Error != nil {
			return fmt.Errorf("credit owner: %w", credit.Error)
		}
		if credit.RowsAffected == 0 {
			return fmt.Errorf("%w: share %d references missing user %d",
				ErrInconsistentState, shareID, share.UserID)
		}

		// One-time referral bonus: the conditional flip of
		// referral_credited decides "first approval" race-safely; a
		// count-after-credit would admit double grants under concurrent
		// approvals of the same user's shares.
		flip := tx.Model(&models.User{}).
			Where("id = ? AND referred_by IS NOT NULL AND referral_credited = ?", share.UserID, false).
			Updates(map[string]interface{}{
				"referral_credited":    true,
				"referral_credited_at": now,
			})
		if flip.Error != nil {
			return fmt.Errorf("mark referral credited: %w", flip.Error)
		}

		if err := tx.First(&owner, share.UserID).Error; err != nil {
			return fmt.Errorf("reload owner: %w", err)
		}

		if flip.RowsAffected == 1 {
			if owner.ReferredBy == nil {
				return fmt.Errorf("%w: referral flag flipped without referrer on user %d",
					ErrInconsistentState, owner.ID)
			}
			bonus := tx.Model(&models.User{}).
				Where("id = ?", *owner.ReferredBy).
				Updates(map[string]interface{}{
					"balance":      gorm.Expr("balance + ?", s.cfg.ReferralBonus),
					"total_earned": gorm.Expr("total_earned + ?", s.cfg.ReferralBonus),
				})
			if bonus.Error != nil {
				return fmt.Errorf("credit referrer: %w", bonus.Error)
			}
			if bonus.RowsAffected == 0 {
				return fmt.Errorf("%w: user %d references missing referrer %d",
					ErrInconsistentState, owner.ID, *owner.ReferredBy)
			}
			if err := tx.First(&referrer, *owner.ReferredBy).Error; err != nil {
				return fmt.Errorf("reload referrer: %w", err)
			}
			referralPaid = true
		}
		return nil
	})

	if errors.Is(err, ErrAlreadyResolved) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.log.Infow("share approved",
		"share_id", shareID, "admin_id", adminID,
		"user_id", owner.ID, "referral_bonus", referralPaid)

	go s.notifier.NotifyShareApproved(owner.TelegramID, s.cfg.RewardPerShare, owner.Balance)
	if referralPaid {
		go s.notifier.NotifyReferralBonus(referrer.TelegramID, s.cfg.ReferralBonus, displayName(&owner))
	}
	return true, nil
}

// Reject resolves a pending share with a reason and no balance effect.
// Returns false without error when the share was already resolved.
func (s *Shares) Reject(ctx context.Context, shareID uint, adminID int64, reason string) (bool, error) {
	var owner models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var share models.Share
		if err := tx.First(&share, shareID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlreadyResolved
			}
			return fmt.Errorf("load share: %w", err)
		}

		res := tx.Model(&models.Share{}).
			Where("id = ? AND status = ?", shareID, models.ShareStatusPending).
			Updates(map[string]interface{}{
				"status":           models.ShareStatusRejected,
				"validated_by":     adminID,
				"validated_at":     time.Now(),
				"rejection_reason": reason,
			})
		if res.Error != nil {
			return fmt.Errorf("transition share: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyResolved
		}

		return tx.First(&owner, share.UserID).Error
	})

	if errors.Is(err, ErrAlreadyResolved) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.log.Infow("share rejected", "share_id", shareID, "admin_id", adminID, "reason", reason)
	go s.notifier.NotifyShareRejected(owner.TelegramID, reason)
	return true, nil
}

// Pending serves the admin review queue: oldest submissions first, with the
// owning user and video preloaded for display. Read-only, so a transient
// connection drop gets one retry.
func (s *Shares) Pending(ctx context.Context, limit int) ([]models.Share, error) {
	var shares []models.Share
	err := database.WithRetry(func() error {
		shares = shares[:0]
		return s.db.WithContext(ctx).
			Preload("User").
			Preload("Video").
			Where("status = ?", models.ShareStatusPending).
			Order("created_at ASC").
			Limit(limit).
			Find(&shares).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list pending shares: %w", err)
	}
	return shares, nil
}

func (s *Shares) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Share{}).
		Where("status = ?", models.ShareStatusPending).
		Count(&n).Error
	return n, err
}

func (s *Shares) ByID(ctx context.Context, shareID uint) (*models.Share, error) {
	var share models.Share
	err := s.db.WithContext(ctx).Preload("User").Preload("Video").First(&share, shareID).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

// UserHistory lists a user's submissions, newest first.
func (s *Shares) UserHistory(ctx context.Context, userID uint, limit int) ([]models.Share, error) {
	var shares []models.Share
	err := s.db.WithContext(ctx).
		Preload("Video").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&shares).Error
	return shares, err
}

// UserCounters returns approved and resolved counts for the review UI.
func (s *Shares) UserCounters(ctx context.Context, userID uint) (approved, resolved int64, err error) {
	err = s.db.WithContext(ctx).Model(&models.Share{}).
		Where("user_id = ? AND status = ?", userID, models.ShareStatusApproved).
		Count(&approved).Error
	if err != nil {
		return 0, 0, err
	}
	err = s.db.WithContext(ctx).Model(&models.Share{}).
		Where("user_id = ? AND status <> ?", userID, models.ShareStatusPending).
		Count(&resolved).Error
	return approved, resolved, err
}

func displayName(u *models.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("Utilisateur #%d", u.TelegramID)
}
