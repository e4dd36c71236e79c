package settlement

import (
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"gorm.io/gorm"
)

// UseCase implements domain.SettlementUseCase
type UseCase struct {
	db              *gorm.DB
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	tournamentRepo  domain.TournamentRepository
	outboxRepo      domain.OutboxRepository
	locks           *lock.Manager
	logger          *logger.Logger
	maxRetries      int
}

// NewUseCase creates a new settlement use case
func NewUseCase(
	db *gorm.DB,
	accountRepo domain.AccountRepository,
	transactionRepo domain.TransactionRepository,
	tournamentRepo domain.TournamentRepository,
	outboxRepo domain.OutboxRepository,
	locks *lock.Manager,
	logger *logger.Logger,
	maxRetries int,
) *UseCase {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	logger.Info("SettlementUseCase initialized successfully")
	return &UseCase{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		tournamentRepo:  tournamentRepo,
		outboxRepo:      outboxRepo,
		locks:           locks,
		logger:          logger.Named("settlement"),
		maxRetries:      maxRetries,
	}
}

var _ domain.SettlementUseCase = (*UseCase)(nil)
