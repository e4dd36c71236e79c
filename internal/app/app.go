package app

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/saradorri/tournamentledger/internal/config"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// Application provides application level setup
type Application interface {
	Setup()
	GetContext() context.Context
}

// application represents context and configure file
type application struct {
	ctx    context.Context
	config *config.Config
}

// NewApplication creates a new application
func NewApplication(ctx context.Context) Application {
	return &application{ctx: ctx}
}

// GetContext returns application context
func (a *application) GetContext() context.Context {
	return a.ctx
}

// Setup creates a new fx application with all modules
func (a *application) Setup() {
	fmt.Println("[x] Starting Tournament Ledger Service...")

	path := flag.String("e", "./config", "env file directory")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("[x] No .env file found, reading environment variables directly")
	}

	err := a.setupViper(*path)
	if err != nil {
		log.Panic(err.Error())
	}

	app := fx.New(
		fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Zap().Named("fx")}
		}),
		fx.Provide(
			a.InitLogger,
			a.InitDatabase,
			a.InitRepository,
			a.InitLockManager,
			a.InitIdempotencyStore,
			a.InitNotifier,
			a.InitJWTService,
			a.InitAccountUseCase,
			a.InitSettlementUseCase,
			a.InitWalletUseCase,
			a.InitAuditUseCase,
			a.InitHandlers,
			a.InitErrorHandler,
			a.InitOutboxProcessor,
			a.InitScheduler,
			a.InitHTTPServer,
		),
		fx.Invoke(a.registerLifecycle),
	)

	app.Run()
}
