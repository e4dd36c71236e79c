package app

import (
	"context"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/infrastructure/notifier"
	"go.uber.org/fx"
)

func (a *application) InitNotifier(lc fx.Lifecycle, log *logger.Logger) (domain.Notifier, error) {
	n, err := notifier.New(notifier.Config{
		Provider:      a.config.Notifier.Provider,
		NATSURL:       a.config.NATS.URL,
		SubjectPrefix: a.config.NATS.SubjectPrefix,
		WebhookURL:    a.config.Notifier.WebhookURL,
		Timeout:       a.config.Notifier.Timeout,
		MaxRetries:    a.config.Notifier.MaxRetries,
	}, log.Named("notifier"))
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return n.Close()
		},
	})
	return n, nil
}
