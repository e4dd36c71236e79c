package app

import (
	"context"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/idempotency"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// InitIdempotencyStore connects the redis backed store. Without a configured
// address withdrawals run without replay protection.
func (a *application) InitIdempotencyStore(lc fx.Lifecycle, log *logger.Logger) (domain.IdempotencyStore, error) {
	cfg := a.config.Redis
	rdb, err := idempotency.Connect(a.ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	if rdb == nil {
		log.Warn("Redis address not configured, idempotency keys are not enforced")
		return idempotency.NoopStore{}, nil
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return rdb.Close()
		},
	})
	log.Info("Idempotency store connected", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.KeyTTL))
	return idempotency.NewRedisStore(rdb, cfg.KeyTTL), nil
}
