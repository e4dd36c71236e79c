package repository

import (
	"errors"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
	"gorm.io/gorm"
)

var activeStatuses = []domain.TournamentStatus{domain.TournamentStatusOpen, domain.TournamentStatusLive}

// TournamentRepository implements domain.TournamentRepository
type TournamentRepository struct {
	db *gorm.DB
}

// NewTournamentRepository creates a new tournament repository
func NewTournamentRepository(db *gorm.DB) domain.TournamentRepository {
	return &TournamentRepository{db: db}
}

// WithTransaction returns a repository bound to tx
func (r *TournamentRepository) WithTransaction(tx *gorm.DB) domain.TournamentRepository {
	return &TournamentRepository{db: tx}
}

// GetByID retrieves a tournament by ID
func (r *TournamentRepository) GetByID(id int64) (*domain.Tournament, error) {
	var tournament domain.Tournament
	result := r.db.Where("id = ?", id).First(&tournament)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &tournament, nil
}

// Create creates a new open tournament
func (r *TournamentRepository) Create(tournament *domain.Tournament) error {
	now := time.Now().UTC()
	tournament.CreatedAt = now
	tournament.UpdatedAt = now
	if tournament.Status == "" {
		tournament.Status = domain.TournamentStatusOpen
	}
	if tournament.Format == "" {
		tournament.Format = domain.TournamentFormatSolo
	}
	if tournament.PrizeDistribution == nil {
		tournament.PrizeDistribution = domain.PrizeDistribution{}
	}
	return r.db.Create(tournament).Error
}

// ReserveSlot takes one slot if the tournament is still at expectedVersion,
// joinable and not full. Any other state yields ErrConcurrentModification.
func (r *TournamentRepository) ReserveSlot(id int64, expectedVersion int64) error {
	result := r.db.Model(&domain.Tournament{}).
		Where("id = ? AND version = ? AND joined_count < max_slots AND status IN ? AND settlement = ?",
			id, expectedVersion, activeStatuses, domain.SettlementNone).
		Updates(map[string]interface{}{
			"joined_count": gorm.Expr("joined_count + 1"),
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// AddParticipant inserts an entry; a second entry for the same account yields ErrDuplicate
func (r *TournamentRepository) AddParticipant(participant *domain.Participant) error {
	if participant.JoinedAt.IsZero() {
		participant.JoinedAt = time.Now().UTC()
	}
	if err := r.db.Create(participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetParticipant finds the entry of an account
func (r *TournamentRepository) GetParticipant(tournamentID, accountID int64) (*domain.Participant, error) {
	var participant domain.Participant
	result := r.db.Where("tournament_id = ? AND account_id = ?", tournamentID, accountID).First(&participant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &participant, nil
}

// ListParticipants returns entries in join order
func (r *TournamentRepository) ListParticipants(tournamentID int64) ([]*domain.Participant, error) {
	var participants []*domain.Participant
	result := r.db.Where("tournament_id = ?", tournamentID).
		Order("joined_at ASC").
		Order("id ASC").
		Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}
	return participants, nil
}

// MarkRefunded stamps a participant as refunded exactly once
func (r *TournamentRepository) MarkRefunded(participantID int64) error {
	now := time.Now().UTC()
	result := r.db.Model(&domain.Participant{}).
		Where("id = ? AND refunded_at IS NULL", participantID).
		Update("refunded_at", &now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// TransitionStatus moves an unsettled tournament between non-terminal statuses
func (r *TournamentRepository) TransitionStatus(id int64, from, to domain.TournamentStatus) error {
	result := r.db.Model(&domain.Tournament{}).
		Where("id = ? AND status = ? AND settlement = ?", id, from, domain.SettlementNone).
		Updates(map[string]interface{}{
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidStatus
	}
	return nil
}

// BeginSettlement marks an active tournament as settling. Re-entering the
// same phase is allowed so an interrupted sweep can resume.
func (r *TournamentRepository) BeginSettlement(id int64, phase domain.SettlementPhase) error {
	result := r.db.Model(&domain.Tournament{}).
		Where("id = ? AND status IN ? AND settlement IN ?",
			id, activeStatuses, []domain.SettlementPhase{domain.SettlementNone, phase}).
		Updates(map[string]interface{}{
			"settlement": phase,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidStatus
	}
	return nil
}

// BeginPayout moves an unsettled active tournament into paying_out and stores
// the ranking the payout runs against. A tournament already settling yields
// ErrInvalidStatus.
func (r *TournamentRepository) BeginPayout(id int64, ranking domain.Ranking) error {
	if ranking == nil {
		ranking = domain.Ranking{}
	}
	result := r.db.Model(&domain.Tournament{}).
		Where("id = ? AND status IN ? AND settlement = ?", id, activeStatuses, domain.SettlementNone).
		Updates(map[string]interface{}{
			"settlement":     domain.SettlementPayingOut,
			"payout_ranking": ranking,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidStatus
	}
	return nil
}

// Finish sets the terminal status and clears the settlement phase
func (r *TournamentRepository) Finish(id int64, status domain.TournamentStatus, winners domain.Winners) error {
	updates := map[string]interface{}{
		"status":     status,
		"settlement": domain.SettlementNone,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now().UTC(),
	}
	if winners != nil {
		updates["winners"] = winners
	}

	result := r.db.Model(&domain.Tournament{}).
		Where("id = ? AND status IN ?", id, activeStatuses).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidStatus
	}
	return nil
}

// ListInSettlement returns active tournaments stuck in phase
func (r *TournamentRepository) ListInSettlement(phase domain.SettlementPhase) ([]*domain.Tournament, error) {
	var tournaments []*domain.Tournament
	result := r.db.Where("status IN ? AND settlement = ?", activeStatuses, phase).
		Order("id ASC").
		Find(&tournaments)
	if result.Error != nil {
		return nil, result.Error
	}
	return tournaments, nil
}
