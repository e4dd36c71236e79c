package domain

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// TransactionKind represents the business event behind a transaction
type TransactionKind string

const (
	TransactionKindDeposit         TransactionKind = "deposit"
	TransactionKindWithdrawal      TransactionKind = "withdrawal"
	TransactionKindEntryFee        TransactionKind = "entry_fee"
	TransactionKindPrizeWinnings   TransactionKind = "prize_winnings"
	TransactionKindRefund          TransactionKind = "refund"
	TransactionKindShopPurchase    TransactionKind = "shop_purchase"
	TransactionKindSpinWin         TransactionKind = "spin_win"
	TransactionKindAdminAdjustment TransactionKind = "admin_adjustment"

	// TransactionKindManualAdjustment is only produced by the ledger auditor and never stored.
	TransactionKindManualAdjustment TransactionKind = "manual_adjustment"
)

// TransactionStatus represents the status of a transaction
type TransactionStatus string

const (
	// TransactionStatusPending awaits an external approval decision
	TransactionStatusPending TransactionStatus = "pending"

	// TransactionStatusApproved is realized and part of the balance
	TransactionStatusApproved TransactionStatus = "approved"

	// TransactionStatusRejected was declined by the approval workflow
	TransactionStatusRejected TransactionStatus = "rejected"

	// TransactionStatusFailed only appears in imported history
	TransactionStatusFailed TransactionStatus = "failed"

	// TransactionStatusCancelled only appears in imported history
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// ParseTransactionStatus normalizes the casing of a stored status value.
func ParseTransactionStatus(raw string) (TransactionStatus, error) {
	status := TransactionStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case TransactionStatusPending, TransactionStatusApproved, TransactionStatusRejected,
		TransactionStatusFailed, TransactionStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("unknown transaction status %q", raw)
}

// Voided reports whether a transaction in this status never moved money.
func (s TransactionStatus) Voided() bool {
	return s == TransactionStatusRejected || s == TransactionStatusFailed || s == TransactionStatusCancelled
}

// Direction is the sign of a balance movement
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// ParseDirection accepts any casing of credit/debit.
func ParseDirection(raw string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(raw)))
	if d != DirectionCredit && d != DirectionDebit {
		return "", fmt.Errorf("unknown direction %q", raw)
	}
	return d, nil
}

// DirectionForKind returns the fixed direction implied by kind. The second
// value is false for kinds whose direction is chosen per transaction.
func DirectionForKind(kind TransactionKind) (Direction, bool) {
	switch kind {
	case TransactionKindDeposit, TransactionKindPrizeWinnings, TransactionKindSpinWin, TransactionKindRefund:
		return DirectionCredit, true
	case TransactionKindWithdrawal, TransactionKindEntryFee, TransactionKindShopPurchase:
		return DirectionDebit, true
	}
	return "", false
}

// Transaction represents an immutable balance-affecting event
type Transaction struct {
	ID              int64             `json:"transaction_id" gorm:"primaryKey;column:id;autoIncrement"`
	AccountID       int64             `json:"account_id" gorm:"not null;index;uniqueIndex:idx_transactions_settlement_ref,priority:1"`
	Amount          int64             `json:"amount" gorm:"not null"`
	Kind            TransactionKind   `json:"kind" gorm:"type:varchar(32);not null;uniqueIndex:idx_transactions_settlement_ref,priority:2"`
	Direction       Direction         `json:"direction" gorm:"type:varchar(8)"`
	Status          TransactionStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	Description     string            `json:"description" gorm:"type:varchar(255)"`
	Reference       *string           `json:"reference,omitempty" gorm:"type:varchar(64);uniqueIndex:idx_transactions_settlement_ref,priority:3"`
	RejectionReason *string           `json:"rejection_reason,omitempty" gorm:"type:varchar(255)"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null;index"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for Transaction
func (t Transaction) TableName() string {
	return "transactions"
}

// EffectiveDirection returns the direction used for balance arithmetic.
// Adjustments stored before the direction column existed have none and are
// read as debits; inferred is true in that case.
func (t *Transaction) EffectiveDirection() (dir Direction, inferred bool) {
	if fixed, ok := DirectionForKind(t.Kind); ok {
		return fixed, false
	}
	switch t.Direction {
	case DirectionCredit, DirectionDebit:
		return t.Direction, false
	}
	return DirectionDebit, true
}

// SignedAmount is the contribution of this transaction to the account balance.
func (t *Transaction) SignedAmount() int64 {
	if t.Status.Voided() {
		return 0
	}
	if t.Kind == TransactionKindDeposit && t.Status == TransactionStatusPending {
		return 0
	}
	dir, _ := t.EffectiveDirection()
	if dir == DirectionCredit {
		return t.Amount
	}
	return -t.Amount
}

// TournamentReference builds the reference stored on settlement transactions.
func TournamentReference(tournamentID int64) *string {
	ref := fmt.Sprintf("tournament:%d", tournamentID)
	return &ref
}

// TransactionRepository is the append-only transaction log
type TransactionRepository interface {
	Create(transaction *Transaction) error
	GetByID(id int64) (*Transaction, error)
	GetByIDForUpdate(id int64) (*Transaction, error)
	ListByAccount(accountID int64) ([]*Transaction, error)
	FindByReference(accountID int64, kind TransactionKind, reference string) (*Transaction, error)
	SumWithdrawalsSince(accountID int64, since time.Time) (int64, error)
	TransitionStatus(id int64, from, to TransactionStatus, rejectionReason *string) error
	WithTransaction(tx *gorm.DB) TransactionRepository
}
