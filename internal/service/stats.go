package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/models"
)

// DailyStats is the admin dashboard snapshot for the current day plus the
// all-time totals.
type DailyStats struct {
	Date time.Time

	NewUsers       int64
	SharesToday    int64
	ApprovedToday  int64
	RejectedToday  int64
	PendingShares  int64
	PendingPayouts int64

	// RewardsToday is what share approvals paid out today; BudgetUsed adds
	// referral bonuses on top and is what gets compared to the daily budget.
	RewardsToday int64
	BudgetUsed   int64

	TotalUsers     int64
	TotalShares    int64
	TotalPaidOut   int64
	OutstandingDue int64
}

// Stats aggregates reporting queries for the admin dashboard.
type Stats struct {
	db  *gorm.DB
	cfg *config.Config
	now func() time.Time
}

func NewStats(db *gorm.DB, cfg *config.Config) *Stats {
	return &Stats{db: db, cfg: cfg, now: time.Now}
}

// Daily computes the dashboard snapshot. Days roll over at local midnight,
// matching the fraud detector's per-day counters.
func (s *Stats) Daily(ctx context.Context) (*DailyStats, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	st := &DailyStats{Date: midnight}
	db := s.db.WithContext(ctx)

	type countQuery struct {
		dst   *int64
		model interface{}
		query string
		args  []interface{}
	}
	counts := []countQuery{
		{&st.NewUsers, &models.User{}, "created_at >= ?", []interface{}{midnight}},
		{&st.SharesToday, &models.Share{}, "created_at >= ?", []interface{}{midnight}},
		{&st.ApprovedToday, &models.Share{}, "status = ? AND validated_at >= ?", []interface{}{models.ShareStatusApproved, midnight}},
		{&st.RejectedToday, &models.Share{}, "status = ? AND validated_at >= ?", []interface{}{models.ShareStatusRejected, midnight}},
		{&st.PendingShares, &models.Share{}, "status = ?", []interface{}{models.ShareStatusPending}},
		{&st.PendingPayouts, &models.Withdrawal{}, "status = ?", []interface{}{models.WithdrawalStatusPending}},
		{&st.TotalUsers, &models.User{}, "", nil},
		{&st.TotalShares, &models.Share{}, "", nil},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.query != "" {
			q = q.Where(c.query, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("daily stats count: %w", err)
		}
	}

	st.RewardsToday = st.ApprovedToday * s.cfg.RewardPerShare

	// referral_credited_at marks the credit moment; updated_at would also
	// catch users merely edited today.
	var bonusesToday int64
	err := db.Model(&models.User{}).
		Where("referral_credited_at >= ?", midnight).
		Count(&bonusesToday).Error
	if err != nil {
		return nil, fmt.Errorf("daily stats bonuses: %w", err)
	}
	st.BudgetUsed = st.RewardsToday + bonusesToday*s.cfg.ReferralBonus

	err = db.Model(&models.Withdrawal{}).
		Where("status = ?", models.WithdrawalStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&st.TotalPaidOut).Error
	if err != nil {
		return nil, fmt.Errorf("daily stats paid out: %w", err)
	}

	err = db.Model(&models.User{}).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&st.OutstandingDue).Error
	if err != nil {
		return nil, fmt.Errorf("daily stats outstanding: %w", err)
	}

	return st, nil
}

// BudgetExceeded reports whether today's spend crossed the configured daily
// budget. Advisory: it surfaces a warning, it never blocks approvals.
func (s *Stats) BudgetExceeded(ctx context.Context) (bool, int64, error) {
	st, err := s.Daily(ctx)
	if err != nil {
		return false, 0, err
	}
	return st.BudgetUsed >= s.cfg.DailyBudget, st.BudgetUsed, nil
}
