package domain

import (
	"context"
	"time"
)

// WithdrawalLimit describes the current daily window of an account
type WithdrawalLimit struct {
	AccountID   int64     `json:"account_id"`
	DailyCap    int64     `json:"daily_cap"`
	Used        int64     `json:"used"`
	Remaining   int64     `json:"remaining"`
	Minimum     int64     `json:"minimum"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// ReviewDecision is the outcome chosen by the approval workflow
type ReviewDecision string

const (
	ReviewApprove ReviewDecision = "approve"
	ReviewReject  ReviewDecision = "reject"
)

// WalletUseCase handles withdrawal and deposit requests and their review
type WalletUseCase interface {
	Withdraw(ctx context.Context, accountID int64, amount int64, idempotencyKey string) (*Transaction, error)
	RequestDeposit(ctx context.Context, accountID int64, amount int64, note string, idempotencyKey string) (*Transaction, error)
	Review(ctx context.Context, transactionID int64, decision ReviewDecision, reason string, actorID int64) (*Transaction, error)
	DailyLimit(ctx context.Context, accountID int64) (*WithdrawalLimit, error)
}

// IdempotencyStore remembers the transaction created for a client supplied key
type IdempotencyStore interface {
	// Reserve claims key. It returns the transaction id stored for the key
	// when an earlier request already completed, and ok=false when another
	// request holds the key without having finished.
	Reserve(ctx context.Context, key string) (existingID int64, ok bool, err error)
	Complete(ctx context.Context, key string, transactionID int64) error
	Release(ctx context.Context, key string) error
}
