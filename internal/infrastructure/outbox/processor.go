package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CancellationResumer finishes a cancellation sweep that left refunds outstanding
type CancellationResumer interface {
	ResumeCancellation(ctx context.Context, tournamentID int64) (*domain.CancelResult, error)
}

// Options tunes the processor loop
type Options struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// Processor implements domain.OutboxProcessor
type Processor struct {
	outboxRepo domain.OutboxRepository
	notifier   domain.Notifier
	resumer    CancellationResumer
	logger     *logger.Logger
	opts       Options

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
}

// NewProcessor creates a new outbox processor
func NewProcessor(
	outboxRepo domain.OutboxRepository,
	notifier domain.Notifier,
	resumer CancellationResumer,
	logger *logger.Logger,
	opts Options,
) *Processor {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		outboxRepo: outboxRepo,
		notifier:   notifier,
		resumer:    resumer,
		logger:     logger.Named("outbox"),
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ProcessEvents processes one batch of pending events
func (p *Processor) ProcessEvents(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	events, err := p.outboxRepo.GetPendingEvents(p.opts.BatchSize)
	if err != nil {
		p.logger.Error("Failed to get pending events", zap.Error(err))
		return err
	}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("processor cancelled: %w", err)
		}

		if err := p.ProcessEvent(ctx, event); err != nil {
			p.logger.Error("Failed to process event",
				zap.String("eventID", event.ID),
				zap.String("eventType", event.Type),
				zap.Int("retryCount", event.RetryCount),
				zap.Error(err))

			if event.RetryCount < p.opts.MaxRetries {
				if retryErr := p.outboxRepo.IncrementRetryCount(event.ID); retryErr != nil {
					p.logger.Error("Failed to increment retry count", zap.Error(retryErr))
				}
			} else {
				if failErr := p.outboxRepo.MarkAsFailed(event.ID, err.Error()); failErr != nil {
					p.logger.Error("Failed to mark event as failed", zap.Error(failErr))
				}
			}
			continue
		}

		if err := p.outboxRepo.MarkAsProcessed(event.ID); err != nil {
			p.logger.Error("Failed to mark event as processed", zap.String("eventID", event.ID), zap.Error(err))
		}
	}

	return nil
}

// ProcessEvent handles a single outbox event
func (p *Processor) ProcessEvent(ctx context.Context, event *domain.OutboxEvent) error {
	p.logger.Debug("Processing outbox event",
		zap.String("eventID", event.ID),
		zap.String("eventType", event.Type))

	switch event.Type {
	case domain.EventTypeNotify:
		return p.handleNotify(ctx, event)
	case domain.EventTypeCancelResume:
		return p.handleCancelResume(ctx, event)
	}

	p.logger.Warn("Unknown event type",
		zap.String("eventID", event.ID),
		zap.String("eventType", event.Type))
	return fmt.Errorf("unknown event type: %s", event.Type)
}

func (p *Processor) handleNotify(ctx context.Context, event *domain.OutboxEvent) error {
	n, err := domain.NotificationFromEvent(event)
	if err != nil {
		return fmt.Errorf("invalid notification payload: %w", err)
	}
	if err := p.notifier.Notify(ctx, n); err != nil {
		return fmt.Errorf("deliver %s: %w", n.Event, err)
	}
	return nil
}

func (p *Processor) handleCancelResume(ctx context.Context, event *domain.OutboxEvent) error {
	raw, ok := event.Data["tournament_id"].(float64)
	if !ok {
		return fmt.Errorf("invalid tournament_id in event data")
	}
	tournamentID := int64(raw)

	result, err := p.resumer.ResumeCancellation(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("resume cancellation of tournament %d: %w", tournamentID, err)
	}

	p.logger.Info("Cancellation resumed",
		zap.Int64("tournamentID", tournamentID),
		zap.Int("refunded", result.Refunded),
		zap.String("status", string(result.Status)))
	return nil
}

// StartBackgroundProcessing starts the background processing loop
func (p *Processor) StartBackgroundProcessing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		p.logger.Warn("Outbox processor is already running")
		return
	}

	p.isRunning = true
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.opts.Interval)
		defer ticker.Stop()

		p.logger.Info("Outbox background processing started", zap.Duration("interval", p.opts.Interval))

		for {
			select {
			case <-p.ctx.Done():
				return
			case <-ticker.C:
				if err := p.ProcessEvents(p.ctx); err != nil && p.ctx.Err() == nil {
					p.logger.Error("Background processing failed", zap.Error(err))
				}
			}
		}
	}()
}

// StopBackgroundProcessing stops the background processing loop
func (p *Processor) StopBackgroundProcessing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		p.logger.Warn("Outbox processor is not running")
		return
	}

	p.logger.Info("Stopping outbox background processing...")
	p.cancel()
	p.wg.Wait()
	p.isRunning = false
	p.logger.Info("Outbox background processing stopped")
}
