package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// TournamentStatus represents the lifecycle of a tournament
type TournamentStatus string

const (
	TournamentStatusOpen      TournamentStatus = "open"
	TournamentStatusLive      TournamentStatus = "live"
	TournamentStatusCompleted TournamentStatus = "completed"
	TournamentStatusCancelled TournamentStatus = "cancelled"
)

// SettlementPhase marks a tournament whose terminal settlement has started
// but not finished. Joins are refused while a phase is set.
type SettlementPhase string

const (
	SettlementNone       SettlementPhase = ""
	SettlementCancelling SettlementPhase = "cancelling"
	SettlementPayingOut  SettlementPhase = "paying_out"
)

// TournamentFormat decides the roster size of each entry
type TournamentFormat string

const (
	TournamentFormatSolo  TournamentFormat = "solo"
	TournamentFormatDuo   TournamentFormat = "duo"
	TournamentFormatSquad TournamentFormat = "squad"
)

// TeamSize returns the number of roster members each entry must list.
func (f TournamentFormat) TeamSize() int {
	switch f {
	case TournamentFormatDuo:
		return 2
	case TournamentFormatSquad:
		return 4
	}
	return 0
}

// PrizeDistribution holds the prize per rank, index 0 being first place
type PrizeDistribution []int64

// Scan implements the sql.Scanner interface
func (p *PrizeDistribution) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// Value implements the driver.Valuer interface
func (p PrizeDistribution) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	return string(b), err
}

// PrizeForRank returns the prize for a 1-based rank, zero when unpaid.
func (p PrizeDistribution) PrizeForRank(rank int) int64 {
	if rank < 1 || rank > len(p) {
		return 0
	}
	return p[rank-1]
}

// Winners maps a 1-based rank to the winning account id
type Winners map[string]int64

// Scan implements the sql.Scanner interface
func (w *Winners) Scan(value interface{}) error {
	return scanJSON(value, w)
}

// Value implements the driver.Valuer interface
func (w Winners) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	b, err := json.Marshal(w)
	return string(b), err
}

// Set records the winner of a rank.
func (w Winners) Set(rank int, accountID int64) {
	w[strconv.Itoa(rank)] = accountID
}

// Ranking is the ordered list of winner account ids a payout was started with
type Ranking []int64

// Scan implements the sql.Scanner interface
func (r *Ranking) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// Value implements the driver.Valuer interface
func (r Ranking) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	return string(b), err
}

// Equal reports whether both rankings name the same accounts in the same order.
func (r Ranking) Equal(other []int64) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// TeamMember is one roster entry of a team join
type TeamMember struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
}

// Team is a JSON-encoded roster
type Team []TeamMember

// Scan implements the sql.Scanner interface
func (t *Team) Scan(value interface{}) error {
	return scanJSON(value, t)
}

// Value implements the driver.Valuer interface
func (t Team) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	b, err := json.Marshal(t)
	return string(b), err
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	}
	return fmt.Errorf("failed to unmarshal JSON value: %v", value)
}

// Tournament is a bounded competition with an entry fee held against prizes
type Tournament struct {
	ID                int64             `json:"tournament_id" gorm:"primaryKey;column:id;autoIncrement"`
	Title             string            `json:"title" gorm:"type:varchar(128);not null"`
	Format            TournamentFormat  `json:"format" gorm:"type:varchar(16);not null;default:'solo'"`
	MaxSlots          int               `json:"max_slots" gorm:"not null"`
	JoinedCount       int               `json:"joined_count" gorm:"not null;default:0"`
	EntryFee          int64             `json:"entry_fee" gorm:"not null;default:0"`
	PrizeDistribution PrizeDistribution `json:"prize_distribution" gorm:"type:jsonb;not null"`
	Status            TournamentStatus  `json:"status" gorm:"type:varchar(16);not null;default:'open';index"`
	Settlement        SettlementPhase   `json:"settlement,omitempty" gorm:"type:varchar(16);not null;default:''"`
	Winners           Winners           `json:"winners,omitempty" gorm:"type:jsonb"`
	PayoutRanking     Ranking           `json:"payout_ranking,omitempty" gorm:"type:jsonb"`
	Version           int64             `json:"-" gorm:"not null;default:0"`
	StartTime         time.Time         `json:"start_time" gorm:"not null"`
	CreatedAt         time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time         `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for Tournament
func (t Tournament) TableName() string {
	return "tournaments"
}

// Joinable reports whether new entries are accepted.
func (t *Tournament) Joinable() bool {
	return (t.Status == TournamentStatusOpen || t.Status == TournamentStatusLive) && t.Settlement == SettlementNone
}

// Full reports whether every slot is taken.
func (t *Tournament) Full() bool {
	return t.JoinedCount >= t.MaxSlots
}

// Participant is one entry in a tournament
type Participant struct {
	ID           int64      `json:"participant_id" gorm:"primaryKey;column:id;autoIncrement"`
	TournamentID int64      `json:"tournament_id" gorm:"not null;uniqueIndex:idx_participants_tournament_account,priority:1"`
	AccountID    int64      `json:"account_id" gorm:"not null;uniqueIndex:idx_participants_tournament_account,priority:2;index"`
	InGameName   string     `json:"in_game_name" gorm:"type:varchar(64);not null"`
	InGameUID    string     `json:"in_game_uid" gorm:"type:varchar(64);not null"`
	Team         Team       `json:"team,omitempty" gorm:"type:jsonb"`
	EntryFeePaid int64      `json:"entry_fee_paid" gorm:"not null;default:0"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
	JoinedAt     time.Time  `json:"joined_at" gorm:"not null"`
}

// TableName specifies the table name for Participant
func (p Participant) TableName() string {
	return "tournament_participants"
}

// TournamentRepository owns slot state, participants and lifecycle status
type TournamentRepository interface {
	GetByID(id int64) (*Tournament, error)
	Create(tournament *Tournament) error
	ReserveSlot(id int64, expectedVersion int64) error
	AddParticipant(participant *Participant) error
	GetParticipant(tournamentID, accountID int64) (*Participant, error)
	ListParticipants(tournamentID int64) ([]*Participant, error)
	MarkRefunded(participantID int64) error
	TransitionStatus(id int64, from, to TournamentStatus) error
	BeginSettlement(id int64, phase SettlementPhase) error
	BeginPayout(id int64, ranking Ranking) error
	Finish(id int64, status TournamentStatus, winners Winners) error
	ListInSettlement(phase SettlementPhase) ([]*Tournament, error)
	WithTransaction(tx *gorm.DB) TournamentRepository
}
