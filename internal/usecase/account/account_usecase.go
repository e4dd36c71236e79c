package account

import (
	"context"
	"strings"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/auth"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// UseCase implements domain.AccountUseCase
type UseCase struct {
	accountRepo domain.AccountRepository
	jwtSvc      auth.JWTService
	logger      *logger.Logger
}

// NewUseCase creates a new account use case
func NewUseCase(accountRepo domain.AccountRepository, jwtSvc auth.JWTService, logger *logger.Logger) *UseCase {
	return &UseCase{
		accountRepo: accountRepo,
		jwtSvc:      jwtSvc,
		logger:      logger.Named("account"),
	}
}

var _ domain.AccountUseCase = (*UseCase)(nil)

// Authenticate validates credentials and returns a JWT token
func (uc *UseCase) Authenticate(ctx context.Context, username, password string) (string, *domain.Account, error) {
	log := uc.logger.WithContext(ctx)
	username = strings.TrimSpace(username)
	log.Info("Starting account authentication", zap.String("username", username))

	invalid := domain.NewUnauthorizedError("Invalid credentials")
	invalid.Code = domain.ErrCodeInvalidCredentials

	if username == "" || password == "" {
		log.Warn("Authentication attempt with empty credentials",
			zap.String("username", username),
			zap.Bool("has_password", password != ""))
		return "", nil, invalid
	}

	account, err := uc.accountRepo.GetByUsername(username)
	if err != nil {
		log.Error("Failed to get account during authentication", zap.String("username", username), zap.Error(err))
		return "", nil, domain.NewUnavailableError("get account", err)
	}
	if account == nil {
		log.Warn("Authentication failed - account not found", zap.String("username", username))
		return "", nil, invalid
	}

	if !auth.VerifyPassword(password, account.Password) {
		log.Warn("Authentication failed - invalid password", zap.Int64("accountID", account.ID))
		return "", nil, invalid
	}

	token, err := uc.jwtSvc.GenerateToken(account)
	if err != nil {
		log.Error("Failed to generate JWT token", zap.Int64("accountID", account.ID), zap.Error(err))
		return "", nil, domain.NewInternalError("Token generation failed", err)
	}

	log.Info("Account authentication successful", zap.Int64("accountID", account.ID), zap.String("role", string(account.Role)))
	return token, account, nil
}

// GetAccount retrieves an account by ID
func (uc *UseCase) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	if accountID <= 0 {
		return nil, domain.NewValidationError("account_id", "must be positive")
	}

	account, err := uc.accountRepo.GetByID(accountID)
	if err != nil {
		uc.logger.WithContext(ctx).Error("Failed to get account", zap.Int64("accountID", accountID), zap.Error(err))
		return nil, domain.NewUnavailableError("get account", err)
	}
	if account == nil {
		return nil, domain.NewNotFoundError(domain.ErrCodeAccountNotFound, "Account")
	}
	return account, nil
}
