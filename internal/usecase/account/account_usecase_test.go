package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/saradorri/tournamentledger/internal/config"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/domain/mocks"
	"github.com/saradorri/tournamentledger/internal/infrastructure/auth"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestAccount() *domain.Account {
	return &domain.Account{
		ID:        7,
		Username:  "player_one",
		Password:  auth.HashPassword("password123"),
		Role:      domain.RolePlayer,
		Balance:   100,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := auth.NewJWTService(&config.JWTConfig{Secret: "test", Expiry: time.Hour})

	tests := []struct {
		name     string
		username string
		password string
		setup    func(repo *mocks.MockAccountRepository)
		code     string
	}{
		{
			name:     "valid credentials",
			username: "player_one",
			password: "password123",
			setup: func(repo *mocks.MockAccountRepository) {
				repo.EXPECT().GetByUsername("player_one").Return(createTestAccount(), nil)
			},
		},
		{
			name:     "wrong password",
			username: "player_one",
			password: "nope",
			setup: func(repo *mocks.MockAccountRepository) {
				repo.EXPECT().GetByUsername("player_one").Return(createTestAccount(), nil)
			},
			code: domain.ErrCodeInvalidCredentials,
		},
		{
			name:     "unknown account",
			username: "ghost",
			password: "password123",
			setup: func(repo *mocks.MockAccountRepository) {
				repo.EXPECT().GetByUsername("ghost").Return(nil, nil)
			},
			code: domain.ErrCodeInvalidCredentials,
		},
		{
			name:     "empty credentials",
			username: "",
			password: "",
			setup:    func(repo *mocks.MockAccountRepository) {},
			code:     domain.ErrCodeInvalidCredentials,
		},
		{
			name:     "storage failure",
			username: "player_one",
			password: "password123",
			setup: func(repo *mocks.MockAccountRepository) {
				repo.EXPECT().GetByUsername("player_one").Return(nil, errors.New("connection refused"))
			},
			code: domain.ErrCodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockAccountRepository(ctrl)
			tt.setup(repo)
			uc := NewUseCase(repo, jwtSvc, logger.NewNop())

			token, account, err := uc.Authenticate(context.Background(), tt.username, tt.password)
			if tt.code != "" {
				assert.True(t, domain.HasCode(err, tt.code), "got %v", err)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), account.ID)

			claims, err := jwtSvc.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, int64(7), claims.AccountID)
			assert.Equal(t, domain.RolePlayer, claims.Role)
		})
	}
}

func TestGetAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAccountRepository(ctrl)
	uc := NewUseCase(repo, nil, logger.NewNop())

	repo.EXPECT().GetByID(int64(7)).Return(createTestAccount(), nil)
	account, err := uc.GetAccount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Balance)

	repo.EXPECT().GetByID(int64(8)).Return(nil, nil)
	_, err = uc.GetAccount(context.Background(), 8)
	assert.True(t, domain.HasCode(err, domain.ErrCodeAccountNotFound))

	_, err = uc.GetAccount(context.Background(), 0)
	assert.True(t, domain.HasCode(err, domain.ErrCodeValidation))
}
