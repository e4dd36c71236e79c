package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/auth"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
)

// JWTMiddleware creates JWT authentication middleware
func JWTMiddleware(jwtService auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, domain.ErrCodeTokenMissing, "Authorization header required", nil)
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, domain.ErrCodeTokenInvalid, "Invalid authorization header format", nil)
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			unauthorized(c, domain.ErrCodeTokenInvalid, "Invalid token", err)
			return
		}

		c.Set(AccountIDKey, claims.AccountID)
		c.Set(UsernameKey, claims.Username)
		c.Set(RoleKey, claims.Role)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(),
			logger.AccountIDKey, strconv.FormatInt(claims.AccountID, 10)))
		c.Next()
	}
}

// AdminMiddleware only lets admin tokens through. It must run after JWTMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(RoleKey)
		if r, ok := role.(domain.Role); !ok || r != domain.RoleAdmin {
			RespondError(c, domain.NewForbiddenError("Administrator role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// AccountID returns the authenticated account id
func AccountID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(AccountIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok && id > 0
}

func unauthorized(c *gin.Context, code, message string, err error) {
	appErr := domain.NewUnauthorizedError(message)
	appErr.Code = code
	appErr.Err = err
	RespondError(c, appErr)
	c.Abort()
}
