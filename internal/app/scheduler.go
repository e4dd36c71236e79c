package app

import (
	"context"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/infrastructure/scheduler"
)

// InitScheduler registers the periodic audit sweep and the stalled
// cancellation sweep
func (a *application) InitScheduler(
	auditUC domain.AuditUseCase,
	settlementUC domain.SettlementUseCase,
	log *logger.Logger,
) (*scheduler.Scheduler, error) {
	return scheduler.New(log,
		scheduler.Job{
			Name:     "audit-sweep",
			Interval: a.config.Audit.SweepInterval,
			Run: func(ctx context.Context) error {
				_, err := auditUC.SweepAll(ctx)
				return err
			},
		},
		scheduler.Job{
			Name:     "cancellation-sweep",
			Interval: a.config.Ledger.ResumeInterval,
			Run: func(ctx context.Context) error {
				_, err := settlementUC.ResumeStalledCancellations(ctx)
				return err
			},
		},
	)
}
