package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/models"
)

// Testimonials manages the reusable marketing texts offered during the share
// flow.
type Testimonials struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewTestimonials(db *gorm.DB, log *zap.SugaredLogger) *Testimonials {
	return &Testimonials{db: db, log: log}
}

func (t *Testimonials) Create(ctx context.Context, message string) (*models.TestimonialMessage, error) {
	tm := &models.TestimonialMessage{Message: message, IsActive: true}
	if err := t.db.WithContext(ctx).Create(tm).Error; err != nil {
		return nil, fmt.Errorf("create testimonial: %w", err)
	}
	t.log.Infow("testimonial created", "testimonial_id", tm.ID)
	return tm, nil
}

// Active lists the testimonials offered to users, least used first so picks
// spread out.
func (t *Testimonials) Active(ctx context.Context) ([]models.TestimonialMessage, error) {
	var tms []models.TestimonialMessage
	err := t.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("usage_count ASC").
		Find(&tms).Error
	return tms, err
}

func (t *Testimonials) All(ctx context.Context) ([]models.TestimonialMessage, error) {
	var tms []models.TestimonialMessage
	err := t.db.WithContext(ctx).Order("created_at DESC").Find(&tms).Error
	return tms, err
}

func (t *Testimonials) ByID(ctx context.Context, id uint) (*models.TestimonialMessage, error) {
	var tm models.TestimonialMessage
	if err := t.db.WithContext(ctx).First(&tm, id).Error; err != nil {
		return nil, err
	}
	return &tm, nil
}

func (t *Testimonials) Toggle(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).Model(&models.TestimonialMessage{}).
		Where("id = ?", id).
		Update("is_active", gorm.Expr("NOT is_active"))
	if res.Error != nil {
		return fmt.Errorf("toggle testimonial: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (t *Testimonials) Delete(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).Delete(&models.TestimonialMessage{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete testimonial: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	t.log.Infow("testimonial deleted", "testimonial_id", id)
	return nil
}
