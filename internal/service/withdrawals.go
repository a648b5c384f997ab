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
	"github.com/Youmto/SHAREMONEY/internal/models"
)

// Withdrawals implements the optimistic-debit payout flow: the balance is
// debited when the request is created, credited back on rejection, and left
// debited on completion. The debit itself is a conditional UPDATE guarded by
// balance >= amount, so concurrent requests can never overdraw.
type Withdrawals struct {
	db       *gorm.DB
	cfg      *config.Config
	log      *zap.SugaredLogger
	notifier Notifier
}

func NewWithdrawals(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger, notifier Notifier) *Withdrawals {
	return &Withdrawals{db: db, cfg: cfg, log: log, notifier: notifier}
}

// Create validates the request and debits the user's balance atomically with
// the insert of the pending withdrawal row.
func (w *Withdrawals) Create(ctx context.Context, userID uint, amount int64, method, details string) (*models.Withdrawal, error) {
	if amount < w.cfg.MinWithdrawal {
		return nil, ErrAmountBelowMinimum
	}
	if _, ok := w.cfg.PaymentMethods[method]; !ok {
		return nil, ErrUnknownMethod
	}

	wd := &models.Withdrawal{
		UserID:         userID,
		Amount:         amount,
		PaymentMethod:  method,
		PaymentDetails: details,
		Status:         models.WithdrawalStatusPending,
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		debit := tx.Model(&models.User{}).
			Where("id = ? AND balance >= ?", userID, amount).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount))
		if debit.Error != nil {
			return fmt.Errorf("debit balance: %w", debit.Error)
		}
		if debit.RowsAffected == 0 {
			// Distinguish a missing user from a short balance.
			var n int64
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
				return fmt.Errorf("user lookup: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("%w: withdrawal for missing user %d", ErrInconsistentState, userID)
			}
			return ErrInsufficientBalance
		}

		if err := tx.Create(wd).Error; err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.log.Infow("withdrawal requested",
		"withdrawal_id", wd.ID, "user_id", userID, "amount", amount, "method", method)
	return wd, nil
}

// Complete marks a pending withdrawal as paid out. Returns false without
// error when another admin already resolved it.
func (w *Withdrawals) Complete(ctx context.Context, withdrawalID uint, adminID int64) (bool, error) {
	var (
		wd    models.Withdrawal
		owner models.User
	)

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&wd, withdrawalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlreadyResolved
			}
			return fmt.Errorf("load withdrawal: %w", err)
		}

		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", withdrawalID, models.WithdrawalStatusPending).
			Updates(map[string]interface{}{
				"status":       models.WithdrawalStatusCompleted,
				"processed_by": adminID,
				"processed_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("transition withdrawal: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyResolved
		}

		return tx.First(&owner, wd.UserID).Error
	})

	if errors.Is(err, ErrAlreadyResolved) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	w.log.Infow("withdrawal completed",
		"withdrawal_id", withdrawalID, "admin_id", adminID, "amount", wd.Amount)
	go w.notifier.NotifyWithdrawalCompleted(owner.TelegramID, wd.Amount, wd.PaymentMethod, wd.PaymentDetails)
	return true, nil
}

// Reject resolves a pending withdrawal and credits the amount back. If the
// credit-back cannot land the whole transaction rolls back; money is never
// destroyed by a half-applied rejection.
func (w *Withdrawals) Reject(ctx context.Context, withdrawalID uint, adminID int64, reason string) (bool, error) {
	var (
		wd    models.Withdrawal
		owner models.User
	)

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&wd, withdrawalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlreadyResolved
			}
			return fmt.Errorf("load withdrawal: %w", err)
		}

		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", withdrawalID, models.WithdrawalStatusPending).
			Updates(map[string]interface{}{
				"status":           models.WithdrawalStatusRejected,
				"processed_by":     adminID,
				"processed_at":     time.Now(),
				"rejection_reason": reason,
			})
		if res.Error != nil {
			return fmt.Errorf("transition withdrawal: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyResolved
		}

		credit := tx.Model(&models.User{}).
			Where("id = ?", wd.UserID).
			UpdateColumn("balance", gorm.Expr("balance + ?", wd.Amount))
		if credit.Error != nil {
			return fmt.Errorf("credit back: %w", credit.Error)
		}
		if credit.RowsAffected == 0 {
			return fmt.Errorf("%w: withdrawal %d references missing user %d",
				ErrInconsistentState, withdrawalID, wd.UserID)
		}

		return tx.First(&owner, wd.UserID).Error
	})

	if errors.Is(err, ErrAlreadyResolved) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	w.log.Infow("withdrawal rejected",
		"withdrawal_id", withdrawalID, "admin_id", adminID, "amount", wd.Amount, "reason", reason)
	go w.notifier.NotifyWithdrawalRejected(owner.TelegramID, wd.Amount, reason)
	return true, nil
}

// Pending serves the admin payout queue, oldest first. Read-only, so a
// transient connection drop gets one retry.
func (w *Withdrawals) Pending(ctx context.Context, limit int) ([]models.Withdrawal, error) {
	var wds []models.Withdrawal
	err := database.WithRetry(func() error {
		wds = wds[:0]
		return w.db.WithContext(ctx).
			Preload("User").
			Where("status = ?", models.WithdrawalStatusPending).
			Order("created_at ASC").
			Limit(limit).
			Find(&wds).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}
	return wds, nil
}

func (w *Withdrawals) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := w.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("status = ?", models.WithdrawalStatusPending).
		Count(&n).Error
	return n, err
}

func (w *Withdrawals) ByID(ctx context.Context, withdrawalID uint) (*models.Withdrawal, error) {
	var wd models.Withdrawal
	err := w.db.WithContext(ctx).Preload("User").First(&wd, withdrawalID).Error
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

// UserHistory lists a user's withdrawal requests, newest first.
func (w *Withdrawals) UserHistory(ctx context.Context, userID uint, limit int) ([]models.Withdrawal, error) {
	var wds []models.Withdrawal
	err := w.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&wds).Error
	return wds, err
}
