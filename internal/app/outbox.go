package app

import (
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/infrastructure/outbox"
)

func (a *application) InitOutboxProcessor(
	outboxRepo domain.OutboxRepository,
	notifier domain.Notifier,
	settlementUC domain.SettlementUseCase,
	logger *logger.Logger,
) *outbox.Processor {
	return outbox.NewProcessor(outboxRepo, notifier, settlementUC, logger, outbox.Options{
		Interval:   a.config.Outbox.Interval,
		BatchSize:  a.config.Outbox.BatchSize,
		MaxRetries: a.config.Outbox.MaxRetries,
	})
}
