package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"go.uber.org/zap"
)

// Adjust applies an administrative credit or debit. The transaction always
// carries its direction.
func (uc *UseCase) Adjust(ctx context.Context, req domain.AdjustmentRequest) (*domain.Transaction, error) {
	log := uc.logger.WithContext(ctx)

	if req.Amount <= 0 {
		return nil, domain.NewBusinessError(domain.ErrCodeInvalidAmount, "Adjustment amount must be positive")
	}
	direction, err := domain.ParseDirection(string(req.Direction))
	if err != nil {
		return nil, domain.NewBusinessError(domain.ErrCodeInvalidDirection, "Direction must be credit or debit")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "is required")
	}

	if err := uc.locks.Lock(ctx, lock.AccountKey(req.AccountID)); err != nil {
		return nil, domain.NewUnavailableError("acquire account lock", err)
	}
	defer uc.locks.Unlock(lock.AccountKey(req.AccountID))

	var adjustment *domain.Transaction
	err = uc.inTx(func(r repos) error {
		account, err := r.accounts.GetByIDForUpdate(req.AccountID)
		if err != nil {
			return storageError("get account", err)
		}
		if account == nil {
			return domain.NewNotFoundError(domain.ErrCodeAccountNotFound, "Account")
		}

		if direction == domain.DirectionCredit {
			err = r.accounts.Credit(account.ID, req.Amount)
		} else {
			err = r.accounts.Debit(account.ID, req.Amount)
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return domain.NewBusinessError(domain.ErrCodeInsufficientFunds,
				fmt.Sprintf("Cannot debit %d coins from a balance of %d", req.Amount, account.Balance))
		}
		if err != nil {
			return storageError("apply adjustment", err)
		}

		adjustment = &domain.Transaction{
			AccountID:   account.ID,
			Amount:      req.Amount,
			Kind:        domain.TransactionKindAdminAdjustment,
			Direction:   direction,
			Status:      domain.TransactionStatusApproved,
			Description: fmt.Sprintf("Admin adjustment by %d: %s", req.ActorID, reason),
		}
		if err := r.transactions.Create(adjustment); err != nil {
			return storageError("record adjustment", err)
		}
		return nil
	})
	if err != nil {
		log.Warn("Adjustment rejected", zap.Int64("accountID", req.AccountID), zap.Error(err))
		return nil, err
	}

	log.Info("Adjustment applied",
		zap.Int64("accountID", req.AccountID),
		zap.Int64("actorID", req.ActorID),
		zap.String("direction", string(direction)),
		zap.Int64("amount", req.Amount))
	return adjustment, nil
}
