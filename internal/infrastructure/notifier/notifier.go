package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Provider names accepted by New
const (
	ProviderLog     = "log"
	ProviderNATS    = "nats"
	ProviderWebhook = "webhook"
)

// Config selects and configures a backend
type Config struct {
	Provider      string
	NATSURL       string
	SubjectPrefix string
	WebhookURL    string
	Timeout       time.Duration
	MaxRetries    int
}

// New builds the notifier named by cfg.Provider
func New(cfg Config, log *logger.Logger) (domain.Notifier, error) {
	switch cfg.Provider {
	case "", ProviderLog:
		return NewLogNotifier(log), nil
	case ProviderNATS:
		nc, err := connectNats(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		if nc == nil {
			log.Warn("NATS url not configured, falling back to log notifier")
			return NewLogNotifier(log), nil
		}
		return NewNATSNotifier(nc, cfg.SubjectPrefix, log), nil
	case ProviderWebhook:
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("notifier webhook url is required")
		}
		return NewWebhookNotifier(cfg.WebhookURL, cfg.Timeout, cfg.MaxRetries, log), nil
	}
	return nil, fmt.Errorf("unknown notifier provider %q", cfg.Provider)
}

func connectNats(url string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}

	nc, err := nats.Connect(url, nats.Name("tournament-ledger"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// LogNotifier writes notifications to the service log
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.Named("notifier")}
}

// Notify logs n
func (l *LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	l.logger.Info("Notification",
		zap.String("id", n.ID),
		zap.String("event", n.Event),
		zap.Int64("accountID", n.AccountID),
		zap.Any("payload", n.Payload))
	return nil
}

// Close is a no-op
func (l *LogNotifier) Close() error {
	return nil
}
