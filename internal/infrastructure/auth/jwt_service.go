package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saradorri/tournamentledger/internal/config"
	"github.com/saradorri/tournamentledger/internal/domain"
)

const issuer = "tournament-ledger"

// Claims represents the JWT claims
type Claims struct {
	AccountID int64       `json:"account_id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token grants administrative routes.
func (c *Claims) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// JWTService defines the interface for the JWT service
type JWTService interface {
	GenerateToken(account *domain.Account) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type jwtService struct {
	config *config.JWTConfig
	now    func() time.Time
}

func NewJWTService(config *config.JWTConfig) JWTService {
	return &jwtService{config: config, now: time.Now}
}

// GenerateToken creates a signed JWT token for an account
func (j *jwtService) GenerateToken(account *domain.Account) (string, error) {
	if account == nil {
		return "", errors.New("account is required")
	}
	now := j.now()
	claims := &Claims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(account.ID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.Secret))
}

// ValidateToken parses and validates a JWT token
func (j *jwtService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(j.config.Secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("could not parse claims")
	}

	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.AccountID <= 0 {
		return nil, errors.New("token carries no account")
	}

	return claims, nil
}
