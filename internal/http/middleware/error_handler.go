package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Context keys set on the gin context
const (
	RequestIDKey = "request_id"
	AccountIDKey = "account_id"
	UsernameKey  = "username"
	RoleKey      = "role"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger *logger.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *logger.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.Named("http"),
	}
}

// ErrorHandlerMiddleware recovers panics into a 500 error response
func (h *ErrorHandler) ErrorHandlerMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		h.handlePanic(c, recovered)
	})
}

func (h *ErrorHandler) handlePanic(c *gin.Context, recovered interface{}) {
	h.logger.WithContext(c.Request.Context()).Error("Panic recovered",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Any("error", recovered),
		zap.String("stack", string(debug.Stack())))

	RespondError(c, domain.NewInternalError("Internal server error", fmt.Errorf("panic: %v", recovered)))
	c.Abort()
}

// RequestIDMiddleware adds a unique request ID to each request
func (h *ErrorHandler) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID))
		c.Next()
	}
}

// TimeoutMiddleware bounds the request context. Use cases see the deadline
// through their ctx and fail with a retryable error once it passes.
func (h *ErrorHandler) TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			h.logger.WithContext(ctx).Warn("Request timed out",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			RespondError(c, domain.NewAppError(domain.ErrCodeTimeout, "Request timeout", http.StatusGatewayTimeout, ctx.Err()))
		}
	}
}

// RespondError writes err as the standard error envelope
func RespondError(c *gin.Context, err error) {
	appErr, ok := domain.IsAppError(err)
	if !ok {
		appErr = domain.NewInternalError("", err)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	appErr.Path = c.Request.URL.Path
	appErr.Method = c.Request.Method
	if requestID, exists := c.Get(RequestIDKey); exists {
		appErr.RequestID, _ = requestID.(string)
	}
	if accountID, exists := c.Get(AccountIDKey); exists {
		appErr.AccountID = fmt.Sprint(accountID)
	}
	if appErr.Retryable() {
		c.Header("Retry-After", "1")
	}

	c.JSON(status, domain.NewErrorResponse(appErr))
}

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
