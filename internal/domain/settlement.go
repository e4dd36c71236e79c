package domain

import (
	"context"
	"time"
)

// JoinRequest is the payload of a tournament entry
type JoinRequest struct {
	AccountID    int64
	TournamentID int64
	InGameName   string
	InGameUID    string
	Team         Team
}

// CancelResult summarizes a cancellation sweep
type CancelResult struct {
	TournamentID  int64            `json:"tournament_id"`
	Status        TournamentStatus `json:"status"`
	Refunded      int              `json:"refunded"`
	Skipped       int              `json:"skipped"`
	Outstanding   int              `json:"outstanding"`
	TotalRefunded int64            `json:"total_refunded"`
}

// PayoutAward is the prize credited to one ranked winner
type PayoutAward struct {
	Rank      int   `json:"rank"`
	AccountID int64 `json:"account_id"`
	Prize     int64 `json:"prize"`
}

// PayoutResult summarizes a payout
type PayoutResult struct {
	TournamentID int64            `json:"tournament_id"`
	Status       TournamentStatus `json:"status"`
	Awarded      []PayoutAward    `json:"awarded"`
	Ineligible   []int64          `json:"ineligible,omitempty"`
	TotalPaid    int64            `json:"total_paid"`
}

// AdjustmentRequest is an administrative balance correction
type AdjustmentRequest struct {
	AccountID int64
	Amount    int64
	Direction Direction
	Reason    string
	ActorID   int64
}

// NewTournament is the admin payload creating a tournament
type NewTournament struct {
	Title             string
	Format            TournamentFormat
	MaxSlots          int
	EntryFee          int64
	PrizeDistribution PrizeDistribution
	StartTime         time.Time
}

// SettlementUseCase moves coins between balances and tournament lifecycles
type SettlementUseCase interface {
	CreateTournament(ctx context.Context, req NewTournament) (*Tournament, error)
	GetTournament(ctx context.Context, tournamentID int64) (*Tournament, []*Participant, error)
	GoLive(ctx context.Context, tournamentID int64) (*Tournament, error)
	Join(ctx context.Context, req JoinRequest) (*Participant, error)
	Cancel(ctx context.Context, tournamentID int64, actorID int64) (*CancelResult, error)
	ResumeCancellation(ctx context.Context, tournamentID int64) (*CancelResult, error)
	ResumeStalledCancellations(ctx context.Context) (int, error)
	Payout(ctx context.Context, tournamentID int64, rankedWinners []int64) (*PayoutResult, error)
	Adjust(ctx context.Context, req AdjustmentRequest) (*Transaction, error)
}
