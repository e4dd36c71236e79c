package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"go.uber.org/zap"
)

var errAlreadyRefunded = errors.New("participant already refunded")

// Cancel refunds every participant and then marks the tournament cancelled.
// Refunds commit one participant at a time; the status only flips once none
// are outstanding.
func (uc *UseCase) Cancel(ctx context.Context, tournamentID int64, actorID int64) (*domain.CancelResult, error) {
	log := uc.logger.WithContext(ctx)
	log.Info("Cancellation requested", zap.Int64("tournamentID", tournamentID), zap.Int64("actorID", actorID))

	if err := uc.locks.Lock(ctx, lock.TournamentKey(tournamentID)); err != nil {
		return nil, domain.NewUnavailableError("acquire tournament lock", err)
	}
	defer uc.locks.Unlock(lock.TournamentKey(tournamentID))

	t, err := uc.loadTournament(uc.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	notCancellable := domain.NewBusinessError(domain.ErrCodeTournamentNotCancellable,
		fmt.Sprintf("Tournament %q cannot be cancelled in status %s", t.Title, t.Status))
	if t.Status != domain.TournamentStatusOpen && t.Status != domain.TournamentStatusLive {
		return nil, notCancellable
	}
	if t.Settlement == domain.SettlementPayingOut {
		return nil, notCancellable
	}

	if err := uc.tournamentRepo.BeginSettlement(t.ID, domain.SettlementCancelling); err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			return nil, notCancellable
		}
		return nil, storageError("begin cancellation", err)
	}
	t.Settlement = domain.SettlementCancelling

	result, err := uc.sweepRefunds(ctx, t)
	if err != nil && result != nil && result.Outstanding > 0 {
		event := domain.NewOutboxEvent(domain.EventTypeCancelResume, domain.JSONB{"tournament_id": t.ID})
		if saveErr := uc.outboxRepo.Save(event); saveErr != nil {
			log.Error("Failed to schedule cancellation resume", zap.Int64("tournamentID", t.ID), zap.Error(saveErr))
		}
	}
	return result, err
}

// ResumeCancellation finishes a cancellation that left refunds outstanding.
// It schedules nothing itself; the resume event that called it stays pending
// on failure and the stalled sweep picks up anything else.
func (uc *UseCase) ResumeCancellation(ctx context.Context, tournamentID int64) (*domain.CancelResult, error) {
	if err := uc.locks.Lock(ctx, lock.TournamentKey(tournamentID)); err != nil {
		return nil, domain.NewUnavailableError("acquire tournament lock", err)
	}
	defer uc.locks.Unlock(lock.TournamentKey(tournamentID))

	return uc.resumeLocked(ctx, tournamentID)
}

// resumeLocked runs a resume with the tournament lock already held
func (uc *UseCase) resumeLocked(ctx context.Context, tournamentID int64) (*domain.CancelResult, error) {
	t, err := uc.loadTournament(uc.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.TournamentStatusCancelled {
		return &domain.CancelResult{TournamentID: t.ID, Status: t.Status}, nil
	}
	if t.Settlement != domain.SettlementCancelling {
		return nil, domain.NewBusinessError(domain.ErrCodeTournamentNotCancellable, "Tournament has no cancellation in progress")
	}

	uc.logger.WithContext(ctx).Info("Resuming cancellation", zap.Int64("tournamentID", t.ID))
	return uc.sweepRefunds(ctx, t)
}

// ResumeStalledCancellations retries every cancellation left in the cancelling
// phase. It backs up the outbox resume events when those were lost.
// Tournaments whose lock is held are skipped until the next run.
func (uc *UseCase) ResumeStalledCancellations(ctx context.Context) (int, error) {
	log := uc.logger.WithContext(ctx)

	stalled, err := uc.tournamentRepo.ListInSettlement(domain.SettlementCancelling)
	if err != nil {
		log.Error("Failed to list stalled cancellations", zap.Error(err))
		return 0, storageError("list stalled cancellations", err)
	}

	var completed int
	for _, t := range stalled {
		key := lock.TournamentKey(t.ID)
		if !uc.locks.TryLock(key) {
			log.Debug("Cancellation busy, skipping", zap.Int64("tournamentID", t.ID))
			continue
		}
		result, err := uc.resumeLocked(ctx, t.ID)
		uc.locks.Unlock(key)
		if err != nil {
			log.Warn("Stalled cancellation still outstanding", zap.Int64("tournamentID", t.ID), zap.Error(err))
			continue
		}
		if result.Status == domain.TournamentStatusCancelled {
			completed++
		}
	}

	if len(stalled) > 0 {
		log.Info("Stalled cancellations swept", zap.Int("found", len(stalled)), zap.Int("completed", completed))
	}
	return completed, nil
}

func (uc *UseCase) sweepRefunds(ctx context.Context, t *domain.Tournament) (*domain.CancelResult, error) {
	log := uc.logger.WithContext(ctx)

	participants, err := uc.tournamentRepo.ListParticipants(t.ID)
	if err != nil {
		log.Error("Failed to list participants", zap.Int64("tournamentID", t.ID), zap.Error(err))
		return nil, storageError("list participants", err)
	}

	result := &domain.CancelResult{TournamentID: t.ID, Status: t.Status}
	for _, p := range participants {
		if p.RefundedAt != nil || p.EntryFeePaid == 0 {
			continue
		}

		err := uc.refundWithRetry(ctx, t, p)
		switch {
		case err == nil:
			result.Refunded++
			result.TotalRefunded += p.EntryFeePaid
		case errors.Is(err, errAlreadyRefunded):
		case errors.Is(err, errUnresolvableAccount):
			result.Skipped++
			log.Warn("Skipping refund for unresolvable account",
				zap.Int64("tournamentID", t.ID), zap.Int64("accountID", p.AccountID))
		default:
			result.Outstanding++
			log.Error("Refund failed after retries",
				zap.Int64("tournamentID", t.ID), zap.Int64("accountID", p.AccountID), zap.Error(err))
		}
	}

	if result.Outstanding > 0 {
		return result, domain.NewUnavailableError(
			fmt.Sprintf("%d refunds outstanding for tournament %d", result.Outstanding, t.ID), nil)
	}

	if err := uc.tournamentRepo.Finish(t.ID, domain.TournamentStatusCancelled, nil); err != nil {
		log.Error("Failed to finish cancellation", zap.Int64("tournamentID", t.ID), zap.Error(err))
		return result, storageError("finish cancellation", err)
	}

	result.Status = domain.TournamentStatusCancelled
	log.Info("Tournament cancelled",
		zap.Int64("tournamentID", t.ID),
		zap.Int("refunded", result.Refunded),
		zap.Int("skipped", result.Skipped),
		zap.Int64("totalRefunded", result.TotalRefunded))
	return result, nil
}

func (uc *UseCase) refundWithRetry(ctx context.Context, t *domain.Tournament, p *domain.Participant) error {
	var err error
	for attempt := 1; attempt <= uc.maxRetries; attempt++ {
		err = uc.refundParticipant(ctx, t, p)
		if err == nil || errors.Is(err, errAlreadyRefunded) || errors.Is(err, errUnresolvableAccount) {
			return err
		}
		uc.logger.Warn("Refund attempt failed",
			zap.Int64("tournamentID", t.ID), zap.Int64("accountID", p.AccountID),
			zap.Int("attempt", attempt), zap.Error(err))
		if attempt < uc.maxRetries {
			if waitErr := backoff(ctx, attempt); waitErr != nil {
				return waitErr
			}
		}
	}
	return err
}

// refundParticipant credits one entry fee back and notifies the player as
// one unit
func (uc *UseCase) refundParticipant(ctx context.Context, t *domain.Tournament, p *domain.Participant) error {
	if err := uc.locks.Lock(ctx, lock.AccountKey(p.AccountID)); err != nil {
		return domain.NewUnavailableError("acquire account lock", err)
	}
	defer uc.locks.Unlock(lock.AccountKey(p.AccountID))

	return uc.inTx(func(r repos) error {
		account, err := r.accounts.GetByID(p.AccountID)
		if err != nil {
			return storageError("get account", err)
		}
		if account == nil {
			return errUnresolvableAccount
		}

		if err := r.tournaments.MarkRefunded(p.ID); err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				return errAlreadyRefunded
			}
			return storageError("mark refunded", err)
		}
		if err := r.accounts.Credit(account.ID, p.EntryFeePaid); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errUnresolvableAccount
			}
			return storageError("credit refund", err)
		}
		refund := &domain.Transaction{
			AccountID:   account.ID,
			Amount:      p.EntryFeePaid,
			Kind:        domain.TransactionKindRefund,
			Status:      domain.TransactionStatusApproved,
			Description: fmt.Sprintf("Refund for cancelled tournament %s", t.Title),
			Reference:   domain.TournamentReference(t.ID),
		}
		if err := r.transactions.Create(refund); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return errAlreadyRefunded
			}
			return storageError("record refund", err)
		}
		return enqueue(r.outbox, domain.Notification{
			Event:     domain.NotificationTournamentCancelled,
			AccountID: account.ID,
			Payload: map[string]interface{}{
				"tournament_id": t.ID,
				"title":         t.Title,
				"refund":        p.EntryFeePaid,
			},
		})
	})
}
