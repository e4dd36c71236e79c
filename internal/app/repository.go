package app

import (
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/infrastructure/repository"
	"gorm.io/gorm"
)

func (a *application) InitRepository(db *gorm.DB) (
	domain.AccountRepository,
	domain.TransactionRepository,
	domain.TournamentRepository,
	domain.OutboxRepository,
) {
	return repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewTournamentRepository(db),
		repository.NewOutboxRepository(db)
}

func (a *application) InitLockManager(log *logger.Logger) *lock.Manager {
	return lock.NewManager(a.config.Ledger.LockTimeout, log.Named("lock"))
}
