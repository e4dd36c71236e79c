package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UseCase implements domain.WalletUseCase
type UseCase struct {
	db              *gorm.DB
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	outboxRepo      domain.OutboxRepository
	idempotency     domain.IdempotencyStore
	locks           *lock.Manager
	logger          *logger.Logger
	limits          Limits
	now             func() time.Time
}

// NewUseCase creates a new wallet use case
func NewUseCase(
	db *gorm.DB,
	accountRepo domain.AccountRepository,
	transactionRepo domain.TransactionRepository,
	outboxRepo domain.OutboxRepository,
	idempotency domain.IdempotencyStore,
	locks *lock.Manager,
	logger *logger.Logger,
	limits Limits,
) *UseCase {
	logger.Info("WalletUseCase initialized successfully",
		zap.Int64("dailyCap", limits.DailyCap),
		zap.Int64("minimum", limits.Minimum),
		zap.Int("resetHourUTC", limits.ResetHourUTC))
	return &UseCase{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		idempotency:     idempotency,
		locks:           locks,
		logger:          logger.Named("wallet"),
		limits:          limits,
		now:             time.Now,
	}
}

var _ domain.WalletUseCase = (*UseCase)(nil)

type repos struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	outbox       domain.OutboxRepository
}

func (uc *UseCase) inTx(fn func(r repos) error) error {
	tx := uc.db.Begin()
	if tx.Error != nil {
		uc.logger.Error("Failed to start database transaction", zap.Error(tx.Error))
		return domain.NewUnavailableError("start transaction", tx.Error)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(repos{
		accounts:     uc.accountRepo.WithTransaction(tx),
		transactions: uc.transactionRepo.WithTransaction(tx),
		outbox:       uc.outboxRepo.WithTransaction(tx),
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		uc.logger.Error("Failed to commit database transaction", zap.Error(err))
		return domain.NewUnavailableError("commit transaction", err)
	}
	committed = true
	return nil
}

func storageError(operation string, err error) error {
	if _, ok := domain.IsAppError(err); ok {
		return err
	}
	return domain.NewUnavailableError(operation, err)
}

func enqueue(outbox domain.OutboxRepository, n domain.Notification) error {
	event, err := domain.NewNotificationEvent(n)
	if err != nil {
		return err
	}
	return outbox.Save(event)
}

// *****  Idempotency

// claim reserves a client key. A request that already completed under the
// same key returns its transaction instead.
func (uc *UseCase) claim(ctx context.Context, scope string, accountID int64, key string) (string, *domain.Transaction, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, nil
	}
	scoped := fmt.Sprintf("%s:%d:%s", scope, accountID, key)

	existingID, ok, err := uc.idempotency.Reserve(ctx, scoped)
	if err != nil {
		uc.logger.Error("Failed to reserve idempotency key", zap.String("key", scoped), zap.Error(err))
		return "", nil, domain.NewUnavailableError("reserve idempotency key", err)
	}
	if !ok {
		return "", nil, domain.NewConflictError(domain.ErrCodeRequestInProgress, "A request with this idempotency key is still in progress")
	}
	if existingID == 0 {
		return scoped, nil, nil
	}

	existing, err := uc.transactionRepo.GetByID(existingID)
	if err != nil {
		return "", nil, storageError("get transaction", err)
	}
	if existing == nil || existing.AccountID != accountID {
		return "", nil, domain.NewNotFoundError(domain.ErrCodeTransactionNotFound, "Transaction")
	}
	uc.logger.Info("Replaying idempotent request", zap.String("key", scoped), zap.Int64("transactionID", existingID))
	return "", existing, nil
}

func (uc *UseCase) settle(ctx context.Context, scoped string, tx *domain.Transaction, err error) {
	if scoped == "" {
		return
	}
	if err != nil || tx == nil {
		if relErr := uc.idempotency.Release(ctx, scoped); relErr != nil {
			uc.logger.Warn("Failed to release idempotency key", zap.String("key", scoped), zap.Error(relErr))
		}
		return
	}
	if doneErr := uc.idempotency.Complete(ctx, scoped, tx.ID); doneErr != nil {
		uc.logger.Warn("Failed to complete idempotency key", zap.String("key", scoped), zap.Error(doneErr))
	}
}

// *****  Withdrawals

// Withdraw locks the funds immediately and records a pending withdrawal
func (uc *UseCase) Withdraw(ctx context.Context, accountID int64, amount int64, idempotencyKey string) (result *domain.Transaction, err error) {
	log := uc.logger.WithContext(ctx)
	log.Info("Withdrawal requested", zap.Int64("accountID", accountID), zap.Int64("amount", amount))

	scoped, existing, err := uc.claim(ctx, "withdraw", accountID, idempotencyKey)
	if err != nil || existing != nil {
		return existing, err
	}
	defer func() { uc.settle(ctx, scoped, result, err) }()

	if err := uc.locks.Lock(ctx, lock.AccountKey(accountID)); err != nil {
		return nil, domain.NewUnavailableError("acquire account lock", err)
	}
	defer uc.locks.Unlock(lock.AccountKey(accountID))

	windowStart := WindowStart(uc.now(), uc.limits.ResetHourUTC)
	var withdrawal *domain.Transaction
	err = uc.inTx(func(r repos) error {
		// the row lock holds other instances off the window until commit
		account, err := r.accounts.GetByIDForUpdate(accountID)
		if err != nil {
			return storageError("get account", err)
		}
		if account == nil {
			return domain.NewNotFoundError(domain.ErrCodeAccountNotFound, "Account")
		}

		used, err := r.transactions.SumWithdrawalsSince(accountID, windowStart)
		if err != nil {
			return storageError("sum withdrawals", err)
		}
		if err := uc.limits.Check(amount, used, account.Balance); err != nil {
			return err
		}

		if err := r.accounts.Debit(accountID, amount); err != nil {
			if errors.Is(err, domain.ErrInsufficientFunds) {
				return domain.NewBusinessError(domain.ErrCodeInsufficientFunds, "Balance changed before the withdrawal could be taken")
			}
			return storageError("debit withdrawal", err)
		}
		withdrawal = &domain.Transaction{
			AccountID:   accountID,
			Amount:      amount,
			Kind:        domain.TransactionKindWithdrawal,
			Status:      domain.TransactionStatusPending,
			Description: fmt.Sprintf("Withdrawal of %d coins", amount),
			CreatedAt:   uc.now().UTC(),
		}
		if err := r.transactions.Create(withdrawal); err != nil {
			return storageError("record withdrawal", err)
		}
		return enqueue(r.outbox, domain.Notification{
			Event:     domain.NotificationWithdrawalRequested,
			AccountID: accountID,
			Payload: map[string]interface{}{
				"transaction_id": withdrawal.ID,
				"amount":         amount,
			},
		})
	})
	if err != nil {
		log.Warn("Withdrawal rejected", zap.Int64("accountID", accountID), zap.Int64("amount", amount), zap.Error(err))
		return nil, err
	}

	log.Info("Withdrawal pending approval", zap.Int64("accountID", accountID), zap.Int64("transactionID", withdrawal.ID))
	return withdrawal, nil
}

// DailyLimit reports the current withdrawal window of an account
func (uc *UseCase) DailyLimit(ctx context.Context, accountID int64) (*domain.WithdrawalLimit, error) {
	account, err := uc.accountRepo.GetByID(accountID)
	if err != nil {
		return nil, storageError("get account", err)
	}
	if account == nil {
		return nil, domain.NewNotFoundError(domain.ErrCodeAccountNotFound, "Account")
	}

	start := WindowStart(uc.now(), uc.limits.ResetHourUTC)
	used, err := uc.transactionRepo.SumWithdrawalsSince(accountID, start)
	if err != nil {
		uc.logger.WithContext(ctx).Error("Failed to sum withdrawals", zap.Int64("accountID", accountID), zap.Error(err))
		return nil, storageError("sum withdrawals", err)
	}

	return &domain.WithdrawalLimit{
		AccountID:   accountID,
		DailyCap:    uc.limits.DailyCap,
		Used:        used,
		Remaining:   uc.limits.Remaining(used),
		Minimum:     uc.limits.Minimum,
		WindowStart: start,
		WindowEnd:   start.Add(24 * time.Hour),
	}, nil
}

// *****  Deposits

// RequestDeposit records a pending deposit. The balance only moves on approval.
func (uc *UseCase) RequestDeposit(ctx context.Context, accountID int64, amount int64, note string, idempotencyKey string) (result *domain.Transaction, err error) {
	if amount <= 0 {
		return nil, domain.NewBusinessError(domain.ErrCodeInvalidAmount, "Deposit amount must be positive")
	}

	scoped, existing, err := uc.claim(ctx, "deposit", accountID, idempotencyKey)
	if err != nil || existing != nil {
		return existing, err
	}
	defer func() { uc.settle(ctx, scoped, result, err) }()

	account, err := uc.accountRepo.GetByID(accountID)
	if err != nil {
		return nil, storageError("get account", err)
	}
	if account == nil {
		return nil, domain.NewNotFoundError(domain.ErrCodeAccountNotFound, "Account")
	}

	description := strings.TrimSpace(note)
	if description == "" {
		description = fmt.Sprintf("Deposit of %d coins", amount)
	}
	deposit := &domain.Transaction{
		AccountID:   accountID,
		Amount:      amount,
		Kind:        domain.TransactionKindDeposit,
		Status:      domain.TransactionStatusPending,
		Description: description,
		CreatedAt:   uc.now().UTC(),
	}
	if err := uc.transactionRepo.Create(deposit); err != nil {
		uc.logger.WithContext(ctx).Error("Failed to record deposit", zap.Int64("accountID", accountID), zap.Error(err))
		return nil, storageError("record deposit", err)
	}

	uc.logger.WithContext(ctx).Info("Deposit pending approval", zap.Int64("accountID", accountID), zap.Int64("transactionID", deposit.ID))
	return deposit, nil
}

// *****  Review

// Review applies the approval decision to a pending deposit or withdrawal.
// A rejected withdrawal credits the locked funds back; an approved deposit
// credits the amount.
func (uc *UseCase) Review(ctx context.Context, transactionID int64, decision domain.ReviewDecision, reason string, actorID int64) (*domain.Transaction, error) {
	log := uc.logger.WithContext(ctx)

	var target domain.TransactionStatus
	switch decision {
	case domain.ReviewApprove:
		target = domain.TransactionStatusApproved
	case domain.ReviewReject:
		target = domain.TransactionStatusRejected
	default:
		return nil, domain.NewValidationError("decision", "must be approve or reject")
	}

	pending, err := uc.transactionRepo.GetByID(transactionID)
	if err != nil {
		return nil, storageError("get transaction", err)
	}
	if pending == nil {
		return nil, domain.NewNotFoundError(domain.ErrCodeTransactionNotFound, "Transaction")
	}
	if pending.Kind != domain.TransactionKindWithdrawal && pending.Kind != domain.TransactionKindDeposit {
		return nil, domain.NewConflictError(domain.ErrCodeTransactionInvalidStatus,
			fmt.Sprintf("%s transactions are not reviewed", pending.Kind))
	}

	if err := uc.locks.Lock(ctx, lock.AccountKey(pending.AccountID)); err != nil {
		return nil, domain.NewUnavailableError("acquire account lock", err)
	}
	defer uc.locks.Unlock(lock.AccountKey(pending.AccountID))

	var rejection *string
	if target == domain.TransactionStatusRejected {
		if r := strings.TrimSpace(reason); r != "" {
			rejection = &r
		}
	}

	var reviewed *domain.Transaction
	err = uc.inTx(func(r repos) error {
		locked, err := r.transactions.GetByIDForUpdate(pending.ID)
		if err != nil {
			return storageError("lock transaction", err)
		}
		if locked == nil || locked.Status != domain.TransactionStatusPending {
			return domain.NewConflictError(domain.ErrCodeTransactionInvalidStatus, "Transaction has already been reviewed")
		}

		if err := r.transactions.TransitionStatus(pending.ID, domain.TransactionStatusPending, target, rejection); err != nil {
			if errors.Is(err, domain.ErrInvalidStatus) {
				return domain.NewConflictError(domain.ErrCodeTransactionInvalidStatus, "Transaction has already been reviewed")
			}
			return storageError("transition transaction", err)
		}

		refund := pending.Kind == domain.TransactionKindWithdrawal && target == domain.TransactionStatusRejected
		credit := pending.Kind == domain.TransactionKindDeposit && target == domain.TransactionStatusApproved
		if refund || credit {
			if err := r.accounts.Credit(pending.AccountID, pending.Amount); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.NewNotFoundError(domain.ErrCodeAccountNotFound, "Account")
				}
				return storageError("credit account", err)
			}
		}

		reviewed, err = r.transactions.GetByID(pending.ID)
		if err != nil {
			return storageError("get transaction", err)
		}
		return enqueue(r.outbox, domain.Notification{
			Event:     domain.NotificationTransactionReviewed,
			AccountID: pending.AccountID,
			Payload: map[string]interface{}{
				"transaction_id": pending.ID,
				"kind":           pending.Kind,
				"status":         target,
				"amount":         pending.Amount,
			},
		})
	})
	if err != nil {
		log.Warn("Review failed", zap.Int64("transactionID", transactionID), zap.Error(err))
		return nil, err
	}

	log.Info("Transaction reviewed",
		zap.Int64("transactionID", transactionID),
		zap.Int64("actorID", actorID),
		zap.String("kind", string(pending.Kind)),
		zap.String("status", string(target)))
	return reviewed, nil
}
