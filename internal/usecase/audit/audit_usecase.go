package audit

import (
	"context"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// UseCase implements domain.AuditUseCase. It only reads.
type UseCase struct {
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	logger          *logger.Logger
	tolerance       int64
	pageSize        int
}

// NewUseCase creates a new audit use case
func NewUseCase(
	accountRepo domain.AccountRepository,
	transactionRepo domain.TransactionRepository,
	logger *logger.Logger,
	tolerance int64,
	pageSize int,
) *UseCase {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &UseCase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		logger:          logger.Named("audit"),
		tolerance:       tolerance,
		pageSize:        pageSize,
	}
}

var _ domain.AuditUseCase = (*UseCase)(nil)

// AuditAccount reconciles one account against its transaction log
func (uc *UseCase) AuditAccount(ctx context.Context, accountID int64) (*domain.AuditReport, error) {
	log := uc.logger.WithContext(ctx)

	account, err := uc.accountRepo.GetByID(accountID)
	if err != nil {
		log.Error("Failed to get account", zap.Int64("accountID", accountID), zap.Error(err))
		return nil, domain.NewUnavailableError("get account", err)
	}
	if account == nil {
		return nil, domain.NewNotFoundError(domain.ErrCodeAccountNotFound, "Account")
	}

	history, err := uc.transactionRepo.ListByAccount(accountID)
	if err != nil {
		log.Error("Failed to list transactions", zap.Int64("accountID", accountID), zap.Error(err))
		return nil, domain.NewUnavailableError("list transactions", err)
	}

	report := Reconcile(account, history, uc.tolerance)
	if len(report.Flags) > 0 {
		flags := make([]string, len(report.Flags))
		for i, f := range report.Flags {
			flags[i] = string(f)
		}
		log.Warn("Ledger audit findings",
			zap.Int64("accountID", accountID),
			zap.Int64("storedBalance", report.StoredBalance),
			zap.Int64("derivedBalance", report.DerivedBalance),
			zap.Int64("discrepancy", report.Discrepancy),
			zap.Strings("flags", flags))
	}
	return report, nil
}

// SweepAll audits every account page by page and returns how many carry a finding.
// A failing account is logged and skipped.
func (uc *UseCase) SweepAll(ctx context.Context) (int, error) {
	log := uc.logger.WithContext(ctx)
	log.Info("Starting ledger sweep")

	var afterID int64
	flagged, audited := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return flagged, err
		}

		ids, err := uc.accountRepo.ListIDs(afterID, uc.pageSize)
		if err != nil {
			log.Error("Failed to list accounts", zap.Int64("afterID", afterID), zap.Error(err))
			return flagged, domain.NewUnavailableError("list accounts", err)
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			report, err := uc.AuditAccount(ctx, id)
			if err != nil {
				log.Warn("Skipping account in sweep", zap.Int64("accountID", id), zap.Error(err))
				continue
			}
			audited++
			if len(report.Flags) > 0 {
				flagged++
			}
		}
		afterID = ids[len(ids)-1]
	}

	log.Info("Ledger sweep finished", zap.Int("audited", audited), zap.Int("flagged", flagged))
	return flagged, nil
}
