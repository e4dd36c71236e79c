package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saradorri/tournamentledger/internal/config"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(&config.JWTConfig{Secret: "s3cret", Expiry: time.Hour})

	token, err := svc.GenerateToken(&domain.Account{ID: 42, Username: "admin", Role: domain.RoleAdmin})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AccountID)
	assert.Equal(t, "admin", claims.Username)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "42", claims.Subject)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(&config.JWTConfig{Secret: "s3cret", Expiry: time.Hour})
	other := NewJWTService(&config.JWTConfig{Secret: "other", Expiry: time.Hour})

	foreign, err := other.GenerateToken(&domain.Account{ID: 1, Username: "p", Role: domain.RolePlayer})
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err)

	expired := &jwtService{
		config: &config.JWTConfig{Secret: "s3cret", Expiry: time.Minute},
		now:    func() time.Time { return time.Now().Add(-time.Hour) },
	}
	stale, err := expired.GenerateToken(&domain.Account{ID: 1, Username: "p"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(stale)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	_, err = svc.GenerateToken(nil)
	assert.Error(t, err)
}
