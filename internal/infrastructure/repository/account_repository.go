package repository

import (
	"errors"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository implements domain.AccountRepository
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &AccountRepository{db: db}
}

// WithTransaction returns a repository bound to tx
func (r *AccountRepository) WithTransaction(tx *gorm.DB) domain.AccountRepository {
	return &AccountRepository{db: tx}
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(id int64) (*domain.Account, error) {
	var account domain.Account
	result := r.db.Where("id = ?", id).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &account, nil
}

// GetByIDForUpdate reads an account and row-locks it until the surrounding transaction ends
func (r *AccountRepository) GetByIDForUpdate(id int64) (*domain.Account, error) {
	var account domain.Account
	result := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &account, nil
}

// GetByUsername retrieves an account by username
func (r *AccountRepository) GetByUsername(username string) (*domain.Account, error) {
	var account domain.Account
	result := r.db.Where("username = ?", username).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &account, nil
}

// Create creates a new account
func (r *AccountRepository) Create(account *domain.Account) error {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	if account.Role == "" {
		account.Role = domain.RolePlayer
	}
	if err := r.db.Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

// Credit adds amount to the balance
func (r *AccountRepository) Credit(id int64, amount int64) error {
	if amount <= 0 {
		return errors.New("credit amount must be positive")
	}
	result := r.db.Model(&domain.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Debit subtracts amount only when the balance covers it
func (r *AccountRepository) Debit(id int64, amount int64) error {
	if amount <= 0 {
		return errors.New("debit amount must be positive")
	}
	result := r.db.Model(&domain.Account{}).
		Where("id = ? AND balance >= ?", id, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&domain.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrInsufficientFunds
	}
	return nil
}

// RecordWin bumps the win counter and net earnings
func (r *AccountRepository) RecordWin(id int64, prize int64) error {
	result := r.db.Model(&domain.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_wins":   gorm.Expr("total_wins + 1"),
			"net_earnings": gorm.Expr("net_earnings + ?", prize),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListIDs pages through account ids in ascending order
func (r *AccountRepository) ListIDs(afterID int64, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&domain.Account{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
