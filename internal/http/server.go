package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saradorri/tournamentledger/internal/http/handlers"
	"github.com/saradorri/tournamentledger/internal/http/middleware"
	"github.com/saradorri/tournamentledger/internal/infrastructure/auth"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers groups the route handlers mounted by the server
type Handlers struct {
	Account    *handlers.AccountHandler
	Tournament *handlers.TournamentHandler
	Wallet     *handlers.WalletHandler
	Audit      *handlers.AuditHandler
}

// Server represents the HTTP server
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	jwtService   auth.JWTService
	handlers     Handlers
	errorHandler *middleware.ErrorHandler
	logger       *logger.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	jwtService auth.JWTService,
	h Handlers,
	errorHandler *middleware.ErrorHandler,
	log *logger.Logger,
	addr string,
	requestTimeout time.Duration,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(errorHandler.RequestIDMiddleware())
	router.Use(errorHandler.TimeoutMiddleware(requestTimeout))
	router.Use(errorHandler.ErrorHandlerMiddleware())
	router.Use(middleware.LoggerMiddleware(log.Named("access")))

	server := &Server{
		router:       router,
		jwtService:   jwtService,
		handlers:     h,
		errorHandler: errorHandler,
		logger:       log.Named("server"),
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	server.setupRoutes()
	return server
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.router.Group("/api/v1")
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/login", s.handlers.Account.Login)
		}

		protected := v1.Group("/")
		protected.Use(middleware.JWTMiddleware(s.jwtService))
		{
			protected.GET("/accounts/me", s.handlers.Account.Me)

			tournamentRoutes := protected.Group("/tournaments")
			{
				tournamentRoutes.GET("/:id", s.handlers.Tournament.Get)
				tournamentRoutes.POST("/:id/join", s.handlers.Tournament.Join)
			}

			walletRoutes := protected.Group("/wallet")
			{
				walletRoutes.POST("/withdrawals", s.handlers.Wallet.Withdraw)
				walletRoutes.GET("/withdrawals/limit", s.handlers.Wallet.Limit)
				walletRoutes.POST("/deposits", s.handlers.Wallet.Deposit)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.POST("/tournaments", s.handlers.Tournament.Create)
				admin.POST("/tournaments/:id/live", s.handlers.Tournament.GoLive)
				admin.POST("/tournaments/:id/cancel", s.handlers.Tournament.Cancel)
				admin.POST("/tournaments/:id/payout", s.handlers.Tournament.Payout)
				admin.POST("/transactions/:id/review", s.handlers.Wallet.Review)
				admin.POST("/accounts/:id/adjustments", s.handlers.Wallet.Adjust)
				admin.GET("/accounts/:id/audit", s.handlers.Audit.AuditAccount)
			}
		}
	}
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
