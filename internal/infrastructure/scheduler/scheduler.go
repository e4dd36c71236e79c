package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Job is a periodic maintenance task
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs maintenance jobs such as the audit sweep
type Scheduler struct {
	sched  gocron.Scheduler
	logger *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New registers jobs on a fresh gocron scheduler. Jobs never overlap with
// themselves and first run right after Start.
func New(log *logger.Logger, jobs ...Job) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sched:  sched,
		logger: log.Named("scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}

	for _, job := range jobs {
		if job.Interval <= 0 {
			s.logger.Warn("Job disabled", zap.String("job", job.Name))
			continue
		}
		_, err := sched.NewJob(
			gocron.DurationJob(job.Interval),
			gocron.NewTask(s.wrap(job)),
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("register job %s: %w", job.Name, err)
		}
	}
	return s, nil
}

func (s *Scheduler) wrap(job Job) func() {
	return func() {
		start := time.Now()
		if err := job.Run(s.ctx); err != nil {
			s.logger.Error("Job failed", zap.String("job", job.Name), zap.Error(err))
			return
		}
		s.logger.Debug("Job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
	}
}

// Start begins running the registered jobs
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.sched.Jobs())))
	s.sched.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() error {
	s.cancel()
	return s.sched.Shutdown()
}
