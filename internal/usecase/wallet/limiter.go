package wallet

import (
	"fmt"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
)

// Limits holds the withdrawal rules
type Limits struct {
	DailyCap     int64
	Minimum      int64
	ResetHourUTC int
}

// WindowStart returns the most recent reset boundary at or before now.
// The window is fixed to a wall-clock hour in UTC, not sliding.
func WindowStart(now time.Time, resetHourUTC int) time.Time {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), resetHourUTC, 0, 0, 0, time.UTC)
	if now.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// Remaining is what is left of the cap once used has been withdrawn
func (l Limits) Remaining(used int64) int64 {
	if remaining := l.DailyCap - used; remaining > 0 {
		return remaining
	}
	return 0
}

// Check applies the withdrawal rules in order: positive amount, minimum,
// daily cap, then balance.
func (l Limits) Check(amount, used, balance int64) error {
	if amount <= 0 {
		return domain.NewBusinessError(domain.ErrCodeInvalidAmount, "Withdrawal amount must be positive")
	}
	if amount < l.Minimum {
		return domain.NewBusinessError(domain.ErrCodeBelowMinimum,
			fmt.Sprintf("Minimum withdrawal is %d coins", l.Minimum))
	}
	if remaining := l.Remaining(used); amount > remaining {
		return domain.NewBusinessError(domain.ErrCodeDailyLimitExceeded,
			fmt.Sprintf("Daily withdrawal limit reached, %d coins remaining today", remaining))
	}
	if amount > balance {
		return domain.NewBusinessError(domain.ErrCodeInsufficientFunds,
			fmt.Sprintf("Cannot withdraw %d coins from a balance of %d", amount, balance))
	}
	return nil
}
