package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Role is the access level carried in an account's token
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// Account is a player's wallet
type Account struct {
	ID          int64     `json:"account_id" gorm:"primaryKey;column:id;autoIncrement"`
	Username    string    `json:"username" gorm:"uniqueIndex;not null;type:varchar(64)"`
	Password    string    `json:"-" gorm:"not null;type:varchar(128)"`
	Role        Role      `json:"role" gorm:"type:varchar(16);not null;default:'player'"`
	Balance     int64     `json:"balance" gorm:"not null;default:0;check:balance >= 0"`
	TotalWins   int64     `json:"total_wins" gorm:"not null;default:0"`
	NetEarnings int64     `json:"net_earnings" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for Account
func (a Account) TableName() string {
	return "accounts"
}

// AccountRepository owns account balances. Credit and Debit are single
// conditional statements; Debit never lets a balance drop below zero.
type AccountRepository interface {
	GetByID(id int64) (*Account, error)
	GetByIDForUpdate(id int64) (*Account, error)
	GetByUsername(username string) (*Account, error)
	Create(account *Account) error
	Credit(id int64, amount int64) error
	Debit(id int64, amount int64) error
	RecordWin(id int64, prize int64) error
	ListIDs(afterID int64, limit int) ([]int64, error)
	WithTransaction(tx *gorm.DB) AccountRepository
}

// AccountUseCase covers login and profile lookups
type AccountUseCase interface {
	Authenticate(ctx context.Context, username, password string) (string, *Account, error)
	GetAccount(ctx context.Context, accountID int64) (*Account, error)
}
