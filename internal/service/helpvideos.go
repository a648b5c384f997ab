package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/models"
)

// HelpVideos manages the tutorial catalog shown from the help menu.
type HelpVideos struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	media MediaRemover
}

func NewHelpVideos(db *gorm.DB, log *zap.SugaredLogger, media MediaRemover) *HelpVideos {
	return &HelpVideos{db: db, log: log, media: media}
}

type CreateHelpVideoInput struct {
	Title         string
	Description   string
	VideoURL      string
	VideoFileID   string
	CloudURL      string
	CloudPublicID string
	ThumbnailURL  string
	Duration      int
	DisplayOrder  int
}

func (h *HelpVideos) Create(ctx context.Context, in CreateHelpVideoInput) (*models.HelpVideo, error) {
	hv := &models.HelpVideo{
		Title:         in.Title,
		Description:   in.Description,
		VideoURL:      in.VideoURL,
		VideoFileID:   in.VideoFileID,
		CloudURL:      in.CloudURL,
		CloudPublicID: in.CloudPublicID,
		ThumbnailURL:  in.ThumbnailURL,
		Duration:      in.Duration,
		DisplayOrder:  in.DisplayOrder,
		IsActive:      true,
	}
	if err := h.db.WithContext(ctx).Create(hv).Error; err != nil {
		return nil, fmt.Errorf("create help video: %w", err)
	}
	h.log.Infow("help video created", "help_video_id", hv.ID, "title", in.Title)
	return hv, nil
}

// Active lists tutorials in display order for the help menu.
func (h *HelpVideos) Active(ctx context.Context) ([]models.HelpVideo, error) {
	var hvs []models.HelpVideo
	err := h.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC, created_at ASC").
		Find(&hvs).Error
	return hvs, err
}

func (h *HelpVideos) All(ctx context.Context) ([]models.HelpVideo, error) {
	var hvs []models.HelpVideo
	err := h.db.WithContext(ctx).Order("display_order ASC, created_at ASC").Find(&hvs).Error
	return hvs, err
}

func (h *HelpVideos) ByID(ctx context.Context, id uint) (*models.HelpVideo, error) {
	var hv models.HelpVideo
	if err := h.db.WithContext(ctx).First(&hv, id).Error; err != nil {
		return nil, err
	}
	return &hv, nil
}

// RecordView bumps the view counter; failures only get logged.
func (h *HelpVideos) RecordView(ctx context.Context, id uint) {
	err := h.db.WithContext(ctx).Model(&models.HelpVideo{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
	if err != nil {
		h.log.Warnw("record help video view", "help_video_id", id, "error", err)
	}
}

func (h *HelpVideos) Toggle(ctx context.Context, id uint) error {
	res := h.db.WithContext(ctx).Model(&models.HelpVideo{}).
		Where("id = ?", id).
		Update("is_active", gorm.Expr("NOT is_active"))
	if res.Error != nil {
		return fmt.Errorf("toggle help video: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (h *HelpVideos) Delete(ctx context.Context, id uint) error {
	var hv models.HelpVideo
	if err := h.db.WithContext(ctx).First(&hv, id).Error; err != nil {
		return err
	}

	if err := h.db.WithContext(ctx).Delete(&models.HelpVideo{}, id).Error; err != nil {
		return fmt.Errorf("delete help video: %w", err)
	}

	if hv.CloudPublicID != "" && h.media != nil && h.media.Configured() {
		if err := h.media.Delete(ctx, hv.CloudPublicID); err != nil {
			h.log.Warnw("delete cloud media", "help_video_id", id, "public_id", hv.CloudPublicID, "error", err)
		}
	}
	return nil
}
