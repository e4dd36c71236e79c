package app

import (
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/auth"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/usecase/account"
	"github.com/saradorri/tournamentledger/internal/usecase/audit"
	"github.com/saradorri/tournamentledger/internal/usecase/settlement"
	"github.com/saradorri/tournamentledger/internal/usecase/wallet"
	"gorm.io/gorm"
)

func (a *application) InitAccountUseCase(ar domain.AccountRepository, jwt auth.JWTService, log *logger.Logger) domain.AccountUseCase {
	return account.NewUseCase(ar, jwt, log)
}

func (a *application) InitSettlementUseCase(
	db *gorm.DB,
	ar domain.AccountRepository,
	tr domain.TransactionRepository,
	tor domain.TournamentRepository,
	or domain.OutboxRepository,
	locks *lock.Manager,
	log *logger.Logger,
) domain.SettlementUseCase {
	return settlement.NewUseCase(db, ar, tr, tor, or, locks, log, a.config.Ledger.MaxRetries)
}

func (a *application) InitWalletUseCase(
	db *gorm.DB,
	ar domain.AccountRepository,
	tr domain.TransactionRepository,
	or domain.OutboxRepository,
	store domain.IdempotencyStore,
	locks *lock.Manager,
	log *logger.Logger,
) domain.WalletUseCase {
	w := a.config.Ledger.Withdrawal
	return wallet.NewUseCase(db, ar, tr, or, store, locks, log, wallet.Limits{
		DailyCap:     w.DailyCap,
		Minimum:      w.Minimum,
		ResetHourUTC: w.ResetHourUTC,
	})
}

func (a *application) InitAuditUseCase(ar domain.AccountRepository, tr domain.TransactionRepository, log *logger.Logger) domain.AuditUseCase {
	return audit.NewUseCase(ar, tr, log, a.config.Audit.Tolerance, a.config.Audit.SweepPageSize)
}
