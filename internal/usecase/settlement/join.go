package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"go.uber.org/zap"
)

func validateJoin(req domain.JoinRequest) error {
	if req.AccountID <= 0 {
		return domain.NewValidationError("account_id", "must be positive")
	}
	if req.TournamentID <= 0 {
		return domain.NewValidationError("tournament_id", "must be positive")
	}
	if strings.TrimSpace(req.InGameName) == "" {
		return domain.NewValidationError("in_game_name", "is required")
	}
	if strings.TrimSpace(req.InGameUID) == "" {
		return domain.NewValidationError("in_game_uid", "is required")
	}
	for i, member := range req.Team {
		if strings.TrimSpace(member.Name) == "" || strings.TrimSpace(member.UID) == "" {
			return domain.NewValidationError("team", fmt.Sprintf("member %d needs a name and uid", i+1))
		}
	}
	return nil
}

func validateRoster(t *domain.Tournament, team domain.Team) error {
	size := t.Format.TeamSize()
	if size == 0 {
		if len(team) > 0 {
			return domain.NewValidationError("team", "solo tournaments take no roster")
		}
		return nil
	}
	if len(team) != size {
		return domain.NewValidationError("team", fmt.Sprintf("%s tournaments need exactly %d members", t.Format, size))
	}
	return nil
}

// Join debits the entry fee, takes a slot and records the participant as one unit
func (uc *UseCase) Join(ctx context.Context, req domain.JoinRequest) (*domain.Participant, error) {
	log := uc.logger.WithContext(ctx)
	log.Info("Join requested", zap.Int64("accountID", req.AccountID), zap.Int64("tournamentID", req.TournamentID))

	if err := validateJoin(req); err != nil {
		return nil, err
	}

	release, err := uc.locks.LockAll(ctx, lock.TournamentKey(req.TournamentID), lock.AccountKey(req.AccountID))
	if err != nil {
		return nil, domain.NewUnavailableError("acquire join locks", err)
	}
	defer release()

	var participant *domain.Participant
	err = uc.inTx(func(r repos) error {
		t, err := uc.loadTournament(r.tournaments, req.TournamentID)
		if err != nil {
			if domain.HasCode(err, domain.ErrCodeTournamentNotFound) {
				return domain.NewBusinessError(domain.ErrCodeTournamentNotJoinable, "Tournament does not exist")
			}
			return err
		}
		if err := checkJoinable(t); err != nil {
			return err
		}
		if err := validateRoster(t, req.Team); err != nil {
			return err
		}

		existing, err := r.tournaments.GetParticipant(t.ID, req.AccountID)
		if err != nil {
			return storageError("get participant", err)
		}
		if existing != nil {
			return domain.NewConflictError(domain.ErrCodeAlreadyJoined, "Account already joined this tournament")
		}

		account, err := r.accounts.GetByID(req.AccountID)
		if err != nil {
			return storageError("get account", err)
		}
		if account == nil {
			return domain.NewNotFoundError(domain.ErrCodeAccountNotFound, "Account")
		}
		if account.Balance < t.EntryFee {
			return domain.NewBusinessError(domain.ErrCodeInsufficientFunds,
				fmt.Sprintf("Entry fee is %d coins, balance is %d", t.EntryFee, account.Balance))
		}

		if t, err = uc.reserveSlot(r, t); err != nil {
			return err
		}

		participant = &domain.Participant{
			TournamentID: t.ID,
			AccountID:    account.ID,
			InGameName:   strings.TrimSpace(req.InGameName),
			InGameUID:    strings.TrimSpace(req.InGameUID),
			Team:         req.Team,
			EntryFeePaid: t.EntryFee,
			JoinedAt:     time.Now().UTC(),
		}
		if err := r.tournaments.AddParticipant(participant); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.NewConflictError(domain.ErrCodeAlreadyJoined, "Account already joined this tournament")
			}
			return storageError("add participant", err)
		}

		if t.EntryFee > 0 {
			if err := r.accounts.Debit(account.ID, t.EntryFee); err != nil {
				if errors.Is(err, domain.ErrInsufficientFunds) {
					return domain.NewBusinessError(domain.ErrCodeInsufficientFunds, "Balance changed before the entry fee could be taken")
				}
				return storageError("debit entry fee", err)
			}
			fee := &domain.Transaction{
				AccountID:   account.ID,
				Amount:      t.EntryFee,
				Kind:        domain.TransactionKindEntryFee,
				Status:      domain.TransactionStatusApproved,
				Description: fmt.Sprintf("Entry fee for %s", t.Title),
				Reference:   domain.TournamentReference(t.ID),
			}
			if err := r.transactions.Create(fee); err != nil {
				if errors.Is(err, domain.ErrDuplicate) {
					return domain.NewConflictError(domain.ErrCodeAlreadyJoined, "Entry fee already recorded for this tournament")
				}
				return storageError("record entry fee", err)
			}
		}

		return enqueue(r.outbox, domain.Notification{
			Event:     domain.NotificationTournamentJoined,
			AccountID: account.ID,
			Payload: map[string]interface{}{
				"tournament_id": t.ID,
				"title":         t.Title,
				"entry_fee":     t.EntryFee,
			},
		})
	})
	if err != nil {
		log.Warn("Join rejected", zap.Int64("accountID", req.AccountID), zap.Int64("tournamentID", req.TournamentID), zap.Error(err))
		return nil, err
	}

	log.Info("Join completed", zap.Int64("accountID", req.AccountID), zap.Int64("tournamentID", req.TournamentID), zap.Int64("participantID", participant.ID))
	return participant, nil
}

// reserveSlot takes a slot with the tournament's version as guard, re-reading
// and re-checking after every lost race.
func (uc *UseCase) reserveSlot(r repos, t *domain.Tournament) (*domain.Tournament, error) {
	for attempt := 1; ; attempt++ {
		err := r.tournaments.ReserveSlot(t.ID, t.Version)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return nil, storageError("reserve slot", err)
		}
		if attempt >= uc.maxRetries {
			uc.logger.Warn("Slot reservation kept conflicting", zap.Int64("tournamentID", t.ID), zap.Int("attempts", attempt))
			return nil, domain.NewUnavailableError("reserve slot", err)
		}

		uc.logger.Debug("Slot reservation conflicted, retrying", zap.Int64("tournamentID", t.ID), zap.Int("attempt", attempt))
		if t, err = uc.loadTournament(r.tournaments, t.ID); err != nil {
			return nil, err
		}
		if err := checkJoinable(t); err != nil {
			return nil, err
		}
	}
}
