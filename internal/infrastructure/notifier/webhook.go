package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// WebhookNotifier POSTs notifications to an HTTP endpoint with retries
type WebhookNotifier struct {
	url    string
	client *retryablehttp.Client
	logger *logger.Logger
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(url string, timeout time.Duration, maxRetries int, log *logger.Logger) *WebhookNotifier {
	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return &WebhookNotifier{
		url:    url,
		client: client,
		logger: log.Named("notifier.webhook"),
	}
}

// Notify delivers n and fails on any non-2xx response
func (w *WebhookNotifier) Notify(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", n.ID)

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("Webhook delivery failed", zap.String("event", n.Event), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	w.logger.Debug("Webhook delivered", zap.String("event", n.Event), zap.Int("status", resp.StatusCode))
	return nil
}

// Close releases idle connections
func (w *WebhookNotifier) Close() error {
	w.client.HTTPClient.CloseIdleConnections()
	return nil
}
