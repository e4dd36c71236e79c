package domain

import (
	"context"
	"time"
)

// Notification event names
const (
	NotificationTournamentJoined    = "tournament.joined"
	NotificationTournamentCancelled = "tournament.cancelled"
	NotificationTournamentCompleted = "tournament.completed"
	NotificationWithdrawalRequested = "withdrawal.requested"
	NotificationTransactionReviewed = "transaction.reviewed"
)

// Notification is a fire-and-forget message for the notification system
type Notification struct {
	ID        string                 `json:"id"`
	Event     string                 `json:"event"`
	AccountID int64                  `json:"account_id,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Notifier delivers notifications. Delivery failures never roll back ledger writes.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Close() error
}
