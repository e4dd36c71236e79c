package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
	"go.uber.org/zap"
)

// repos groups repositories bound to one database transaction
type repos struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	tournaments  domain.TournamentRepository
	outbox       domain.OutboxRepository
}

// *****  Database Transaction Management

// inTx runs fn inside a database transaction. fn must only use the repositories it receives.
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

	err := fn(repos{
		accounts:     uc.accountRepo.WithTransaction(tx),
		transactions: uc.transactionRepo.WithTransaction(tx),
		tournaments:  uc.tournamentRepo.WithTransaction(tx),
		outbox:       uc.outboxRepo.WithTransaction(tx),
	})
	if err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		uc.logger.Error("Failed to commit database transaction", zap.Error(err))
		return domain.NewUnavailableError("commit transaction", err)
	}
	committed = true
	return nil
}

// storageError maps an unexpected repository failure to a retryable error
func storageError(operation string, err error) error {
	if _, ok := domain.IsAppError(err); ok {
		return err
	}
	return domain.NewUnavailableError(operation, err)
}

// backoff waits a little longer on every attempt
func backoff(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(attempt*10) * time.Millisecond):
		return nil
	}
}

// *****  Tournament checks

func (uc *UseCase) loadTournament(repo domain.TournamentRepository, tournamentID int64) (*domain.Tournament, error) {
	t, err := repo.GetByID(tournamentID)
	if err != nil {
		uc.logger.Error("Failed to get tournament", zap.Int64("tournamentID", tournamentID), zap.Error(err))
		return nil, storageError("get tournament", err)
	}
	if t == nil {
		return nil, domain.NewNotFoundError(domain.ErrCodeTournamentNotFound, "Tournament")
	}
	return t, nil
}

func checkJoinable(t *domain.Tournament) error {
	if !t.Joinable() {
		return domain.NewBusinessError(domain.ErrCodeTournamentNotJoinable,
			fmt.Sprintf("Tournament %q is not accepting entries", t.Title))
	}
	if t.Full() {
		return domain.NewConflictError(domain.ErrCodeTournamentFull,
			fmt.Sprintf("Tournament %q is full", t.Title))
	}
	return nil
}

// *****  Notifications

// enqueue writes a notification into the outbox of the current transaction
func enqueue(outbox domain.OutboxRepository, n domain.Notification) error {
	event, err := domain.NewNotificationEvent(n)
	if err != nil {
		return err
	}
	return outbox.Save(event)
}

var errUnresolvableAccount = errors.New("participant account cannot be resolved")
