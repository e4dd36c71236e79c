package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// publisher is the slice of *nats.Conn the notifier needs
type publisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSNotifier publishes each notification on <prefix>.<event>
type NATSNotifier struct {
	nc     publisher
	prefix string
	logger *logger.Logger
}

// NewNATSNotifier creates a notifier over an open connection
func NewNATSNotifier(nc *nats.Conn, prefix string, log *logger.Logger) *NATSNotifier {
	return newNATSNotifier(nc, prefix, log)
}

func newNATSNotifier(nc publisher, prefix string, log *logger.Logger) *NATSNotifier {
	if prefix == "" {
		prefix = "tourney"
	}
	return &NATSNotifier{nc: nc, prefix: prefix, logger: log.Named("notifier.nats")}
}

// Subject returns the subject an event is published on
func (n *NATSNotifier) Subject(event string) string {
	return fmt.Sprintf("%s.%s", n.prefix, event)
}

// Notify publishes the JSON encoded notification
func (n *NATSNotifier) Notify(_ context.Context, msg domain.Notification) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	subject := n.Subject(msg.Event)
	if err := n.nc.Publish(subject, data); err != nil {
		n.logger.Error("Failed to publish notification", zap.String("subject", subject), zap.Error(err))
		return err
	}
	n.logger.Debug("Notification published", zap.String("subject", subject), zap.String("id", msg.ID))
	return nil
}

// Close drains the connection
func (n *NATSNotifier) Close() error {
	return n.nc.Drain()
}
