package app

import (
	"context"

	httpserver "github.com/saradorri/tournamentledger/internal/http"
	"github.com/saradorri/tournamentledger/internal/http/middleware"
	"github.com/saradorri/tournamentledger/internal/infrastructure/auth"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/infrastructure/outbox"
	"github.com/saradorri/tournamentledger/internal/infrastructure/scheduler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// InitHTTPServer initializes the HTTP server with all dependencies
func (a *application) InitHTTPServer(
	h httpserver.Handlers,
	jwtService auth.JWTService,
	errorHandler *middleware.ErrorHandler,
	log *logger.Logger,
) *httpserver.Server {
	return httpserver.NewServer(jwtService, h, errorHandler, log, a.config.GetServerAddress(), a.config.Server.RequestTimeout)
}

// registerLifecycle starts the background workers before the listener and
// stops them after it has drained
func (a *application) registerLifecycle(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	server *httpserver.Server,
	processor *outbox.Processor,
	sched *scheduler.Scheduler,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			processor.StartBackgroundProcessing()
			sched.Start()
			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := server.Shutdown(ctx)
			if serr := sched.Stop(); serr != nil {
				log.Warn("Scheduler shutdown failed", zap.Error(serr))
			}
			processor.StopBackgroundProcessing()
			_ = log.Sync()
			return err
		},
	})
}
