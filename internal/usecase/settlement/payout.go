package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"go.uber.org/zap"
)

var (
	errAlreadyPaid   = errors.New("prize already paid")
	errPrizeMismatch = errors.New("recorded prize differs from rank prize")
)

func validateWinners(rankedWinners []int64) error {
	seen := make(map[int64]struct{}, len(rankedWinners))
	for i, id := range rankedWinners {
		if id <= 0 {
			return domain.NewValidationError("winners", fmt.Sprintf("rank %d has an invalid account id", i+1))
		}
		if _, dup := seen[id]; dup {
			return domain.NewValidationError("winners", fmt.Sprintf("account %d is ranked more than once", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// beginPayout enters the paying_out phase with rankedWinners. A payout that
// stalled may be re-entered, but only with the ranking it started with.
func (uc *UseCase) beginPayout(t *domain.Tournament, rankedWinners []int64) error {
	notPayable := func(status domain.TournamentStatus) error {
		return domain.NewBusinessError(domain.ErrCodeTournamentNotPayable,
			fmt.Sprintf("Tournament %q cannot be paid out in status %s", t.Title, status))
	}
	resume := func(current *domain.Tournament) error {
		if current.Settlement != domain.SettlementPayingOut {
			return notPayable(current.Status)
		}
		if !current.PayoutRanking.Equal(rankedWinners) {
			return domain.NewConflictError(domain.ErrCodePayoutRankingMismatch,
				fmt.Sprintf("Payout of tournament %d is in progress with a different ranking", t.ID))
		}
		return nil
	}

	if t.Settlement != domain.SettlementNone {
		return resume(t)
	}
	err := uc.tournamentRepo.BeginPayout(t.ID, domain.Ranking(rankedWinners))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrInvalidStatus) {
		return storageError("begin payout", err)
	}

	current, err := uc.loadTournament(uc.tournamentRepo, t.ID)
	if err != nil {
		return err
	}
	return resume(current)
}

// Payout credits the prize of each rank to its winner and completes the
// tournament. rankedWinners[0] is first place. Winners that did not take
// part, whose account is gone, or whose rank carries no prize are reported
// as ineligible and their rank stays unpaid.
func (uc *UseCase) Payout(ctx context.Context, tournamentID int64, rankedWinners []int64) (*domain.PayoutResult, error) {
	log := uc.logger.WithContext(ctx)
	log.Info("Payout requested", zap.Int64("tournamentID", tournamentID), zap.Int("winners", len(rankedWinners)))

	if err := validateWinners(rankedWinners); err != nil {
		return nil, err
	}

	if err := uc.locks.Lock(ctx, lock.TournamentKey(tournamentID)); err != nil {
		return nil, domain.NewUnavailableError("acquire tournament lock", err)
	}
	defer uc.locks.Unlock(lock.TournamentKey(tournamentID))

	t, err := uc.loadTournament(uc.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := uc.beginPayout(t, rankedWinners); err != nil {
		return nil, err
	}

	participants, err := uc.tournamentRepo.ListParticipants(t.ID)
	if err != nil {
		return nil, storageError("list participants", err)
	}
	joined := make(map[int64]struct{}, len(participants))
	for _, p := range participants {
		joined[p.AccountID] = struct{}{}
	}

	result := &domain.PayoutResult{TournamentID: t.ID, Status: t.Status, Awarded: []domain.PayoutAward{}}
	winners := domain.Winners{}
	for i, accountID := range rankedWinners {
		rank := i + 1
		if _, ok := joined[accountID]; !ok {
			log.Warn("Winner did not take part in tournament", zap.Int64("tournamentID", t.ID), zap.Int64("accountID", accountID))
			result.Ineligible = append(result.Ineligible, accountID)
			continue
		}

		prize := t.PrizeDistribution.PrizeForRank(rank)
		if prize <= 0 {
			log.Warn("Rank has no prize", zap.Int64("tournamentID", t.ID), zap.Int64("accountID", accountID), zap.Int("rank", rank))
			result.Ineligible = append(result.Ineligible, accountID)
			continue
		}

		award := domain.PayoutAward{Rank: rank, AccountID: accountID, Prize: prize}
		err := uc.awardWithRetry(ctx, t, award)
		switch {
		case err == nil, errors.Is(err, errAlreadyPaid):
		case errors.Is(err, errUnresolvableAccount):
			log.Warn("Skipping prize for unresolvable account", zap.Int64("tournamentID", t.ID), zap.Int64("accountID", accountID))
			result.Ineligible = append(result.Ineligible, accountID)
			continue
		case errors.Is(err, errPrizeMismatch):
			log.Error("Recorded prize does not match rank",
				zap.Int64("tournamentID", t.ID), zap.Int64("accountID", accountID), zap.Int("rank", rank), zap.Int64("prize", prize))
			return result, domain.NewConflictError(domain.ErrCodePayoutRankingMismatch,
				fmt.Sprintf("Account %d already holds a different prize for tournament %d", accountID, t.ID))
		default:
			log.Error("Prize award failed, payout left in progress",
				zap.Int64("tournamentID", t.ID), zap.Int64("accountID", accountID), zap.Int("rank", rank), zap.Error(err))
			return result, domain.NewUnavailableError(fmt.Sprintf("award rank %d of tournament %d", rank, t.ID), err)
		}

		winners.Set(rank, accountID)
		result.Awarded = append(result.Awarded, award)
		result.TotalPaid += award.Prize
	}

	err = uc.inTx(func(r repos) error {
		if err := r.tournaments.Finish(t.ID, domain.TournamentStatusCompleted, winners); err != nil {
			return storageError("finish payout", err)
		}
		for _, award := range result.Awarded {
			if err := enqueue(r.outbox, domain.Notification{
				Event:     domain.NotificationTournamentCompleted,
				AccountID: award.AccountID,
				Payload: map[string]interface{}{
					"tournament_id": t.ID,
					"title":         t.Title,
					"rank":          award.Rank,
					"prize":         award.Prize,
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Status = domain.TournamentStatusCompleted
	log.Info("Tournament completed",
		zap.Int64("tournamentID", t.ID),
		zap.Int("awarded", len(result.Awarded)),
		zap.Int("ineligible", len(result.Ineligible)),
		zap.Int64("totalPaid", result.TotalPaid))
	return result, nil
}

func (uc *UseCase) awardWithRetry(ctx context.Context, t *domain.Tournament, award domain.PayoutAward) error {
	var err error
	for attempt := 1; attempt <= uc.maxRetries; attempt++ {
		err = uc.awardPrize(ctx, t, award)
		if err == nil || errors.Is(err, errAlreadyPaid) || errors.Is(err, errUnresolvableAccount) || errors.Is(err, errPrizeMismatch) {
			return err
		}
		if _, ok := domain.IsAppError(err); ok && !domain.IsRetryable(err) {
			return err
		}
		if attempt < uc.maxRetries {
			if waitErr := backoff(ctx, attempt); waitErr != nil {
				return waitErr
			}
		}
	}
	return err
}

// awardPrize credits one winner as its own unit. The prize_winnings row is
// unique per account and tournament, so a repeated award is detected rather
// than paid twice.
func (uc *UseCase) awardPrize(ctx context.Context, t *domain.Tournament, award domain.PayoutAward) error {
	if err := uc.locks.Lock(ctx, lock.AccountKey(award.AccountID)); err != nil {
		return domain.NewUnavailableError("acquire account lock", err)
	}
	defer uc.locks.Unlock(lock.AccountKey(award.AccountID))

	reference := domain.TournamentReference(t.ID)
	return uc.inTx(func(r repos) error {
		account, err := r.accounts.GetByID(award.AccountID)
		if err != nil {
			return storageError("get account", err)
		}
		if account == nil {
			return errUnresolvableAccount
		}

		paid, err := r.transactions.FindByReference(account.ID, domain.TransactionKindPrizeWinnings, *reference)
		if err != nil {
			return storageError("find prize", err)
		}
		if paid != nil {
			if paid.Amount != award.Prize {
				return errPrizeMismatch
			}
			return errAlreadyPaid
		}

		if err := r.accounts.Credit(account.ID, award.Prize); err != nil {
			return storageError("credit prize", err)
		}
		if err := r.accounts.RecordWin(account.ID, award.Prize); err != nil {
			return storageError("record win", err)
		}

		prize := &domain.Transaction{
			AccountID:   account.ID,
			Amount:      award.Prize,
			Kind:        domain.TransactionKindPrizeWinnings,
			Status:      domain.TransactionStatusApproved,
			Description: fmt.Sprintf("Prize for rank %d in %s", award.Rank, t.Title),
			Reference:   reference,
		}
		if err := r.transactions.Create(prize); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return errAlreadyPaid
			}
			return storageError("record prize", err)
		}
		return nil
	})
}
