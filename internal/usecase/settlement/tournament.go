package settlement

import (
	"context"
	"errors"
	"strings"

	"github.com/saradorri/tournamentledger/internal/domain"
	"go.uber.org/zap"
)

// CreateTournament opens a new tournament
func (uc *UseCase) CreateTournament(ctx context.Context, req domain.NewTournament) (*domain.Tournament, error) {
	log := uc.logger.WithContext(ctx)

	if strings.TrimSpace(req.Title) == "" {
		return nil, domain.NewValidationError("title", "is required")
	}
	if req.MaxSlots <= 0 {
		return nil, domain.NewValidationError("max_slots", "must be positive")
	}
	if req.EntryFee < 0 {
		return nil, domain.NewValidationError("entry_fee", "must not be negative")
	}
	for _, prize := range req.PrizeDistribution {
		if prize < 0 {
			return nil, domain.NewValidationError("prize_distribution", "prizes must not be negative")
		}
	}
	switch req.Format {
	case "", domain.TournamentFormatSolo, domain.TournamentFormatDuo, domain.TournamentFormatSquad:
	default:
		return nil, domain.NewValidationError("format", "must be solo, duo or squad")
	}

	t := &domain.Tournament{
		Title:             strings.TrimSpace(req.Title),
		Format:            req.Format,
		MaxSlots:          req.MaxSlots,
		EntryFee:          req.EntryFee,
		PrizeDistribution: req.PrizeDistribution,
		StartTime:         req.StartTime.UTC(),
	}
	if err := uc.tournamentRepo.Create(t); err != nil {
		log.Error("Failed to create tournament", zap.String("title", req.Title), zap.Error(err))
		return nil, storageError("create tournament", err)
	}

	log.Info("Tournament created", zap.Int64("tournamentID", t.ID), zap.Int("maxSlots", t.MaxSlots), zap.Int64("entryFee", t.EntryFee))
	return t, nil
}

// GetTournament returns a tournament with its participants
func (uc *UseCase) GetTournament(ctx context.Context, tournamentID int64) (*domain.Tournament, []*domain.Participant, error) {
	t, err := uc.loadTournament(uc.tournamentRepo, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	participants, err := uc.tournamentRepo.ListParticipants(tournamentID)
	if err != nil {
		uc.logger.WithContext(ctx).Error("Failed to list participants", zap.Int64("tournamentID", tournamentID), zap.Error(err))
		return nil, nil, storageError("list participants", err)
	}
	return t, participants, nil
}

// GoLive moves an open tournament to live. Joins stay allowed.
func (uc *UseCase) GoLive(ctx context.Context, tournamentID int64) (*domain.Tournament, error) {
	err := uc.tournamentRepo.TransitionStatus(tournamentID, domain.TournamentStatusOpen, domain.TournamentStatusLive)
	if errors.Is(err, domain.ErrInvalidStatus) {
		if _, loadErr := uc.loadTournament(uc.tournamentRepo, tournamentID); loadErr != nil {
			return nil, loadErr
		}
		return nil, domain.NewConflictError(domain.ErrCodeTournamentInvalidStatus, "Only open tournaments can go live")
	}
	if err != nil {
		return nil, storageError("transition tournament", err)
	}

	uc.logger.WithContext(ctx).Info("Tournament is live", zap.Int64("tournamentID", tournamentID))
	return uc.loadTournament(uc.tournamentRepo, tournamentID)
}
