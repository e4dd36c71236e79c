package seeder

import (
	"fmt"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/auth"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/infrastructure/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedAccount is an account created by the seeder with its opening deposit
type SeedAccount struct {
	Username string
	Password string
	Role     domain.Role
	Opening  int64
}

// DefaultAccounts are the development accounts. Every player starts with an
// approved deposit so that a fresh database audits clean.
var DefaultAccounts = []SeedAccount{
	{Username: "admin", Password: "admin123", Role: domain.RoleAdmin},
	{Username: "player1", Password: "password123", Role: domain.RolePlayer, Opening: 500},
	{Username: "player2", Password: "password123", Role: domain.RolePlayer, Opening: 500},
	{Username: "player3", Password: "password123", Role: domain.RolePlayer, Opening: 250},
	{Username: "player4", Password: "password123", Role: domain.RolePlayer, Opening: 100},
}

// Seeder handles database seeding operations
type Seeder struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *logger.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: log.Named("seeder"),
	}
}

// SeedAccounts creates missing accounts. Existing usernames are left untouched.
func (s *Seeder) SeedAccounts(accounts []SeedAccount) (int, error) {
	s.logger.Info("Seeding accounts", zap.Int("count", len(accounts)))

	var created int
	for _, a := range accounts {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			accountRepo := repository.NewAccountRepository(tx)
			transactionRepo := repository.NewTransactionRepository(tx)

			existing, err := accountRepo.GetByUsername(a.Username)
			if err != nil {
				return err
			}
			if existing != nil {
				s.logger.Debug("Account already exists, skipping", zap.String("username", a.Username))
				return nil
			}

			account := &domain.Account{
				Username: a.Username,
				Password: auth.HashPassword(a.Password),
				Role:     a.Role,
			}
			if err := accountRepo.Create(account); err != nil {
				return err
			}
			created++

			if a.Opening <= 0 {
				return nil
			}
			if err := accountRepo.Credit(account.ID, a.Opening); err != nil {
				return err
			}
			return transactionRepo.Create(&domain.Transaction{
				AccountID:   account.ID,
				Amount:      a.Opening,
				Kind:        domain.TransactionKindDeposit,
				Direction:   domain.DirectionCredit,
				Status:      domain.TransactionStatusApproved,
				Description: "Opening balance",
			})
		})
		if err != nil {
			s.logger.Error("Failed to seed account", zap.String("username", a.Username), zap.Error(err))
			return created, fmt.Errorf("seed account %s: %w", a.Username, err)
		}
	}

	s.logger.Info("Account seeding completed", zap.Int("created", created))
	return created, nil
}

// SeedTournaments opens a few tournaments when none exist yet
func (s *Seeder) SeedTournaments(now time.Time) (int, error) {
	var count int64
	if err := s.db.Model(&domain.Tournament{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("Tournaments already present, skipping", zap.Int64("count", count))
		return 0, nil
	}

	tournamentRepo := repository.NewTournamentRepository(s.db)
	tournaments := []*domain.Tournament{
		{Title: "Friday Night Solo", Format: domain.TournamentFormatSolo, MaxSlots: 48, EntryFee: 10,
			PrizeDistribution: domain.PrizeDistribution{250, 120, 60}, StartTime: now.Add(24 * time.Hour)},
		{Title: "Duo Showdown", Format: domain.TournamentFormatDuo, MaxSlots: 24, EntryFee: 20,
			PrizeDistribution: domain.PrizeDistribution{300, 100}, StartTime: now.Add(48 * time.Hour)},
		{Title: "Free Squad Scrim", Format: domain.TournamentFormatSquad, MaxSlots: 12,
			PrizeDistribution: domain.PrizeDistribution{50}, StartTime: now.Add(72 * time.Hour)},
	}
	for _, t := range tournaments {
		if err := tournamentRepo.Create(t); err != nil {
			return 0, fmt.Errorf("seed tournament %s: %w", t.Title, err)
		}
	}

	s.logger.Info("Tournament seeding completed", zap.Int("created", len(tournaments)))
	return len(tournaments), nil
}
