package service

// Notifier is the outbound notification sink. Every call is best-effort:
// implementations log failures and never return them, and the lifecycle
// managers invoke the sink only after their transaction committed.
type Notifier interface {
	NotifyShareApproved(telegramID int64, amount, newBalance int64)
	NotifyShareRejected(telegramID int64, reason string)
	NotifyReferralBonus(telegramID int64, amount int64, referralName string)
	NotifyWithdrawalCompleted(telegramID int64, amount int64, method, details string)
	NotifyWithdrawalRejected(telegramID int64, amount int64, reason string)
	NotifyNewVideo(telegramID int64, title string)
}

// NopNotifier satisfies Notifier and drops everything; used in tests and as
// a safe default before the bots are wired.
type NopNotifier struct{}

func (NopNotifier) NotifyShareApproved(int64, int64, int64)                {}
func (NopNotifier) NotifyShareRejected(int64, string)                      {}
func (NopNotifier) NotifyReferralBonus(int64, int64, string)               {}
func (NopNotifier) NotifyWithdrawalCompleted(int64, int64, string, string) {}
func (NopNotifier) NotifyWithdrawalRejected(int64, int64, string)          {}
func (NopNotifier) NotifyNewVideo(int64, string)                           {}
