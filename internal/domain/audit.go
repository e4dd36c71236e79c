package domain

import (
	"context"
	"time"
)

// AuditFlag is a finding attached to an audit report
type AuditFlag string

const (
	AuditFlagBalanceDesync               AuditFlag = "balance_desync"
	AuditFlagExceedsExplainableMaximum   AuditFlag = "balance_exceeds_explainable_maximum"
	AuditFlagAdjustmentDirectionInferred AuditFlag = "adjustment_direction_inferred"
)

// AuditEntry is one line of the replayed ledger
type AuditEntry struct {
	TransactionID  int64             `json:"transaction_id,omitempty"`
	Kind           TransactionKind   `json:"kind"`
	Status         TransactionStatus `json:"status"`
	Amount         int64             `json:"amount"`
	Signed         int64             `json:"signed"`
	RunningBalance int64             `json:"running_balance"`
	Description    string            `json:"description"`
	CreatedAt      time.Time         `json:"created_at"`
	Synthetic      bool              `json:"synthetic,omitempty"`
	Inferred       bool              `json:"direction_inferred,omitempty"`
}

// AuditReport is the reconciliation of a stored balance against its history
type AuditReport struct {
	AccountID       int64        `json:"account_id"`
	StoredBalance   int64        `json:"stored_balance"`
	DerivedBalance  int64        `json:"derived_balance"`
	Discrepancy     int64        `json:"discrepancy"`
	Tolerance       int64        `json:"tolerance"`
	TotalDeposits   int64        `json:"total_deposits"`
	TotalWinnings   int64        `json:"total_winnings"`
	Entries         []AuditEntry `json:"entries"`
	Correction      *AuditEntry  `json:"correction,omitempty"`
	Flags           []AuditFlag  `json:"flags"`
	InferredEntries int          `json:"inferred_entries"`
}

// HasFlag reports whether the report carries flag.
func (r *AuditReport) HasFlag(flag AuditFlag) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AuditUseCase reconciles stored balances against the transaction log
type AuditUseCase interface {
	AuditAccount(ctx context.Context, accountID int64) (*AuditReport, error)
	SweepAll(ctx context.Context) (flagged int, err error)
}
