// Package testdb opens throwaway in-memory databases for repository and use case tests.
package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New returns a migrated in-memory database private to t.
// The pool holds a single connection, so code under test must only use
// transaction-bound repositories while a transaction is open.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Account{},
		&domain.Transaction{},
		&domain.Tournament{},
		&domain.Participant{},
		&domain.OutboxEvent{},
	))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}
