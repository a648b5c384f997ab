package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/models"
)

// MediaRemover deletes stored media objects by public id. Satisfied by the
// storage client; a nil remover disables cloud cleanup.
type MediaRemover interface {
	Delete(ctx context.Context, publicID string) error
	Configured() bool
}

// Videos manages the promotional catalog. The single-active-video rule is
// enforced transactionally: activating one video deactivates all others in
// the same transaction.
type Videos struct {
	db    *gorm.DB
	cfg   *config.Config
	log   *zap.SugaredLogger
	media MediaRemover
}

func NewVideos(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger, media MediaRemover) *Videos {
	return &Videos{db: db, cfg: cfg, log: log, media: media}
}

// CreateVideoInput carries the new video's content references; either a cloud
// URL or a telegram file id must be usable for playback.
type CreateVideoInput struct {
	Title         string
	Caption       string
	CloudURL      string
	CloudPublicID string
	URL           string
	FileID        string
	FileSize      int64
	Duration      int
	Width         int
	Height        int
}

// Create inserts the video as the new active one, expiring after the
// configured validity window.
func (v *Videos) Create(ctx context.Context, in CreateVideoInput) (*models.Video, error) {
	video := &models.Video{
		Title:         in.Title,
		Caption:       in.Caption,
		CloudURL:      in.CloudURL,
		CloudPublicID: in.CloudPublicID,
		URL:           in.URL,
		FileID:        in.FileID,
		FileSize:      in.FileSize,
		Duration:      in.Duration,
		Width:         in.Width,
		Height:        in.Height,
		ExpiresAt:     time.Now().Add(v.cfg.VideoValidity),
		IsActive:      true,
	}

	err := v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Video{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error
		if err != nil {
			return fmt.Errorf("deactivate previous videos: %w", err)
		}
		if err := tx.Create(video).Error; err != nil {
			return fmt.Errorf("create video: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	v.log.Infow("video created", "video_id", video.ID, "title", in.Title, "expires_at", video.ExpiresAt)
	return video, nil
}

// Active returns the current eligible video or ErrNoActiveVideo.
func (v *Videos) Active(ctx context.Context) (*models.Video, error) {
	var video models.Video
	err := v.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&video).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveVideo
		}
		return nil, fmt.Errorf("load active video: %w", err)
	}
	if !video.Eligible(time.Now()) {
		return nil, ErrNoActiveVideo
	}
	return &video, nil
}

// Toggle flips a video's active flag. Activating deactivates every other
// video first.
func (v *Videos) Toggle(ctx context.Context, videoID uint) (*models.Video, error) {
	var video models.Video

	err := v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&video, videoID).Error; err != nil {
			return err
		}

		if !video.IsActive {
			err := tx.Model(&models.Video{}).
				Where("is_active = ?", true).
				Update("is_active", false).Error
			if err != nil {
				return fmt.Errorf("deactivate previous videos: %w", err)
			}
		}

		video.IsActive = !video.IsActive
		return tx.Model(&models.Video{}).
			Where("id = ?", videoID).
			Update("is_active", video.IsActive).Error
	})
	if err != nil {
		return nil, err
	}

	v.log.Infow("video toggled", "video_id", videoID, "active", video.IsActive)
	return &video, nil
}

// ExtendValidity pushes the expiry forward from now by the given duration and
// reactivates the video.
func (v *Videos) ExtendValidity(ctx context.Context, videoID uint, d time.Duration) error {
	res := v.db.WithContext(ctx).Model(&models.Video{}).
		Where("id = ?", videoID).
		Updates(map[string]interface{}{
			"expires_at": time.Now().Add(d),
			"is_active":  true,
		})
	if res.Error != nil {
		return fmt.Errorf("extend validity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the video row and its cloud media. Cloud cleanup failures
// are logged, not fatal: the row is gone either way.
func (v *Videos) Delete(ctx context.Context, videoID uint) error {
	var video models.Video
	if err := v.db.WithContext(ctx).First(&video, videoID).Error; err != nil {
		return err
	}

	if err := v.db.WithContext(ctx).Delete(&models.Video{}, videoID).Error; err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if video.CloudPublicID != "" && v.media != nil && v.media.Configured() {
		if err := v.media.Delete(ctx, video.CloudPublicID); err != nil {
			v.log.Warnw("delete cloud media", "video_id", videoID, "public_id", video.CloudPublicID, "error", err)
		}
	}

	v.log.Infow("video deleted", "video_id", videoID)
	return nil
}

// List pages through the catalog, newest first.
func (v *Videos) List(ctx context.Context, offset, limit int) ([]models.Video, error) {
	var videos []models.Video
	err := v.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&videos).Error
	return videos, err
}

func (v *Videos) ByID(ctx context.Context, videoID uint) (*models.Video, error) {
	var video models.Video
	err := v.db.WithContext(ctx).First(&video, videoID).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// DeactivateExpired flips off every active video past its expiry; the hourly
// sweep calls this. Returns the number deactivated.
func (v *Videos) DeactivateExpired(ctx context.Context) (int64, error) {
	res := v.db.WithContext(ctx).Model(&models.Video{}).
		Where("is_active = ? AND expires_at <= ?", true, time.Now()).
		Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate expired videos: %w", res.Error)
	}
	return res.RowsAffected, nil
}
