package repository

import (
	"errors"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository implements domain.TransactionRepository
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) domain.TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTransaction returns a repository bound to tx
func (r *TransactionRepository) WithTransaction(tx *gorm.DB) domain.TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Create appends a transaction. Directions are filled in from the kind when fixed.
func (r *TransactionRepository) Create(transaction *domain.Transaction) error {
	if dir, ok := domain.DirectionForKind(transaction.Kind); ok {
		transaction.Direction = dir
	}
	if transaction.Direction == "" {
		return errors.New("transaction direction is required")
	}
	now := time.Now().UTC()
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = now
	}
	transaction.UpdatedAt = now
	if err := r.db.Create(transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	result := r.db.Where("id = ?", id).First(&transaction)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &transaction, nil
}

// GetByIDForUpdate reads a transaction and row-locks it until the surrounding transaction ends
func (r *TransactionRepository) GetByIDForUpdate(id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	result := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&transaction)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &transaction, nil
}

// ListByAccount returns the full history of an account, oldest first
func (r *TransactionRepository) ListByAccount(accountID int64) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	result := r.db.Where("account_id = ?", accountID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&transactions)
	if result.Error != nil {
		return nil, result.Error
	}
	return transactions, nil
}

// FindByReference finds the settlement transaction written for a causing entity
func (r *TransactionRepository) FindByReference(accountID int64, kind domain.TransactionKind, reference string) (*domain.Transaction, error) {
	var transaction domain.Transaction
	result := r.db.Where("account_id = ? AND kind = ? AND reference = ?", accountID, kind, reference).First(&transaction)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &transaction, nil
}

// SumWithdrawalsSince totals approved and pending withdrawals created at or after since
func (r *TransactionRepository) SumWithdrawalsSince(accountID int64, since time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&domain.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("account_id = ? AND kind = ? AND status IN ? AND created_at >= ?",
			accountID,
			domain.TransactionKindWithdrawal,
			[]domain.TransactionStatus{domain.TransactionStatusPending, domain.TransactionStatusApproved},
			since.UTC(),
		).
		Scan(&total).Error
	return total, err
}

// TransitionStatus moves a transaction out of from. It is the only update the log allows.
func (r *TransactionRepository) TransitionStatus(id int64, from, to domain.TransactionStatus, rejectionReason *string) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if rejectionReason != nil {
		updates["rejection_reason"] = *rejectionReason
	}

	result := r.db.Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidStatus
	}
	return nil
}
