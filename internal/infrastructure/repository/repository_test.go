package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/infrastructure/database/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createAccount(t *testing.T, repo domain.AccountRepository, username string, balance int64) *domain.Account {
	t.Helper()
	account := &domain.Account{Username: username, Password: "x", Balance: balance}
	require.NoError(t, repo.Create(account))
	return account
}

func TestAccountRepository_CreditDebit(t *testing.T) {
	db := testdb.New(t)
	repo := NewAccountRepository(db)
	account := createAccount(t, repo, "alice", 100)

	tests := []struct {
		name    string
		op      func() error
		wantErr error
		balance int64
	}{
		{"credit", func() error { return repo.Credit(account.ID, 50) }, nil, 150},
		{"debit within balance", func() error { return repo.Debit(account.ID, 150) }, nil, 0},
		{"debit over balance", func() error { return repo.Debit(account.ID, 1) }, domain.ErrInsufficientFunds, 0},
		{"debit unknown account", func() error { return repo.Debit(account.ID+100, 1) }, domain.ErrNotFound, 0},
		{"credit unknown account", func() error { return repo.Credit(account.ID+100, 1) }, domain.ErrNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			got, err := repo.GetByID(account.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.balance, got.Balance)
		})
	}

	assert.Error(t, repo.Credit(account.ID, 0))
	assert.Error(t, repo.Debit(account.ID, -5))
}

func TestAccountRepository_ConcurrentDebitsNeverGoNegative(t *testing.T) {
	db := testdb.New(t)
	repo := NewAccountRepository(db)
	account := createAccount(t, repo, "bob", 100)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Debit(account.ID, 10); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, int64(0), got.Balance)
}

func TestAccountRepository_RecordWinAndListIDs(t *testing.T) {
	db := testdb.New(t)
	repo := NewAccountRepository(db)
	a := createAccount(t, repo, "a", 0)
	b := createAccount(t, repo, "b", 0)
	createAccount(t, repo, "c", 0)

	require.NoError(t, repo.RecordWin(a.ID, 75))
	require.NoError(t, repo.RecordWin(a.ID, 25))
	got, err := repo.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalWins)
	assert.Equal(t, int64(100), got.NetEarnings)

	ids, err := repo.ListIDs(a.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids)

	assert.ErrorIs(t, repo.Create(&domain.Account{Username: "a", Password: "x"}), domain.ErrDuplicate)

	missing, err := repo.GetByUsername("nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTransactionRepository_AppendAndTransition(t *testing.T) {
	db := testdb.New(t)
	accounts := NewAccountRepository(db)
	repo := NewTransactionRepository(db)
	account := createAccount(t, accounts, "carol", 0)

	w := &domain.Transaction{AccountID: account.ID, Amount: 100, Kind: domain.TransactionKindWithdrawal, Status: domain.TransactionStatusPending}
	require.NoError(t, repo.Create(w))
	assert.Equal(t, domain.DirectionDebit, w.Direction)

	reason := "documents missing"
	require.NoError(t, repo.TransitionStatus(w.ID, domain.TransactionStatusPending, domain.TransactionStatusRejected, &reason))
	assert.ErrorIs(t, repo.TransitionStatus(w.ID, domain.TransactionStatusPending, domain.TransactionStatusApproved, nil), domain.ErrInvalidStatus)

	got, err := repo.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, reason, *got.RejectionReason)

	adj := &domain.Transaction{AccountID: account.ID, Amount: 5, Kind: domain.TransactionKindAdminAdjustment, Status: domain.TransactionStatusApproved}
	assert.Error(t, repo.Create(adj), "adjustments must carry a direction")
}

func TestTransactionRepository_SettlementReferenceIsUnique(t *testing.T) {
	db := testdb.New(t)
	accounts := NewAccountRepository(db)
	repo := NewTransactionRepository(db)
	account := createAccount(t, accounts, "dave", 0)

	ref := domain.TournamentReference(9)
	first := &domain.Transaction{AccountID: account.ID, Amount: 20, Kind: domain.TransactionKindRefund, Status: domain.TransactionStatusApproved, Reference: ref}
	require.NoError(t, repo.Create(first))

	dup := &domain.Transaction{AccountID: account.ID, Amount: 20, Kind: domain.TransactionKindRefund, Status: domain.TransactionStatusApproved, Reference: ref}
	assert.ErrorIs(t, repo.Create(dup), domain.ErrDuplicate)

	found, err := repo.FindByReference(account.ID, domain.TransactionKindRefund, *ref)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	none, err := repo.FindByReference(account.ID, domain.TransactionKindPrizeWinnings, *ref)
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestTransactionRepository_SumWithdrawalsSince(t *testing.T) {
	db := testdb.New(t)
	accounts := NewAccountRepository(db)
	repo := NewTransactionRepository(db)
	account := createAccount(t, accounts, "erin", 0)

	windowStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := []struct {
		amount    int64
		kind      domain.TransactionKind
		status    domain.TransactionStatus
		createdAt time.Time
	}{
		{100, domain.TransactionKindWithdrawal, domain.TransactionStatusApproved, windowStart.Add(-time.Minute)},
		{200, domain.TransactionKindWithdrawal, domain.TransactionStatusApproved, windowStart},
		{300, domain.TransactionKindWithdrawal, domain.TransactionStatusPending, windowStart.Add(3 * time.Hour)},
		{400, domain.TransactionKindWithdrawal, domain.TransactionStatusRejected, windowStart.Add(4 * time.Hour)},
		{500, domain.TransactionKindDeposit, domain.TransactionStatusApproved, windowStart.Add(5 * time.Hour)},
	}
	for _, row := range rows {
		require.NoError(t, repo.Create(&domain.Transaction{
			AccountID: account.ID, Amount: row.amount, Kind: row.kind, Status: row.status, CreatedAt: row.createdAt,
		}))
	}

	total, err := repo.SumWithdrawalsSince(account.ID, windowStart)
	require.NoError(t, err)
	assert.Equal(t, int64(500), total)

	history, err := repo.ListByAccount(account.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, int64(100), history[0].Amount)
	assert.Equal(t, int64(500), history[4].Amount)
}

func TestTournamentRepository_ReserveSlot(t *testing.T) {
	db := testdb.New(t)
	repo := NewTournamentRepository(db)

	tournament := &domain.Tournament{Title: "Cup", MaxSlots: 1, EntryFee: 20, StartTime: time.Now()}
	require.NoError(t, repo.Create(tournament))
	assert.Equal(t, domain.TournamentStatusOpen, tournament.Status)

	assert.ErrorIs(t, repo.ReserveSlot(tournament.ID, tournament.Version+1), domain.ErrConcurrentModification, "stale version")
	require.NoError(t, repo.ReserveSlot(tournament.ID, tournament.Version))

	got, err := repo.GetByID(tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.JoinedCount)
	assert.Equal(t, tournament.Version+1, got.Version)

	assert.ErrorIs(t, repo.ReserveSlot(tournament.ID, got.Version), domain.ErrConcurrentModification, "full")
}

func TestTournamentRepository_ParticipantsAndSettlement(t *testing.T) {
	db := testdb.New(t)
	repo := NewTournamentRepository(db)

	tournament := &domain.Tournament{Title: "Cup", MaxSlots: 4, EntryFee: 20, StartTime: time.Now()}
	require.NoError(t, repo.Create(tournament))

	p := &domain.Participant{TournamentID: tournament.ID, AccountID: 1, InGameName: "one", InGameUID: "u1", EntryFeePaid: 20}
	require.NoError(t, repo.AddParticipant(p))
	assert.ErrorIs(t, repo.AddParticipant(&domain.Participant{TournamentID: tournament.ID, AccountID: 1, InGameName: "x", InGameUID: "y"}), domain.ErrDuplicate)

	require.NoError(t, repo.MarkRefunded(p.ID))
	assert.ErrorIs(t, repo.MarkRefunded(p.ID), domain.ErrConcurrentModification)

	require.NoError(t, repo.BeginSettlement(tournament.ID, domain.SettlementCancelling))
	require.NoError(t, repo.BeginSettlement(tournament.ID, domain.SettlementCancelling), "resume re-enters the same phase")
	assert.ErrorIs(t, repo.BeginSettlement(tournament.ID, domain.SettlementPayingOut), domain.ErrInvalidStatus)

	pending, err := repo.ListInSettlement(domain.SettlementCancelling)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	current, err := repo.GetByID(tournament.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.ReserveSlot(tournament.ID, current.Version), domain.ErrConcurrentModification, "no joins while settling")

	require.NoError(t, repo.Finish(tournament.ID, domain.TournamentStatusCancelled, nil))
	assert.ErrorIs(t, repo.Finish(tournament.ID, domain.TournamentStatusCompleted, nil), domain.ErrInvalidStatus)

	final, err := repo.GetByID(tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TournamentStatusCancelled, final.Status)
	assert.Equal(t, domain.SettlementNone, final.Settlement)
}

func TestTournamentRepository_BeginPayoutStoresRanking(t *testing.T) {
	db := testdb.New(t)
	repo := NewTournamentRepository(db)

	tournament := &domain.Tournament{Title: "Cup", MaxSlots: 4, StartTime: time.Now()}
	require.NoError(t, repo.Create(tournament))

	require.NoError(t, repo.BeginPayout(tournament.ID, domain.Ranking{7, 3}))
	assert.ErrorIs(t, repo.BeginPayout(tournament.ID, domain.Ranking{3, 7}), domain.ErrInvalidStatus, "ranking is fixed once paying out")
	assert.ErrorIs(t, repo.BeginSettlement(tournament.ID, domain.SettlementCancelling), domain.ErrInvalidStatus)

	got, err := repo.GetByID(tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementPayingOut, got.Settlement)
	assert.True(t, got.PayoutRanking.Equal([]int64{7, 3}))
	assert.False(t, got.PayoutRanking.Equal([]int64{3, 7}))

	empty := &domain.Tournament{Title: "Empty", MaxSlots: 2, StartTime: time.Now()}
	require.NoError(t, repo.Create(empty))
	require.NoError(t, repo.BeginPayout(empty.ID, nil))
	got, err = repo.GetByID(empty.ID)
	require.NoError(t, err)
	assert.True(t, got.PayoutRanking.Equal(nil))
}

func TestTournamentRepository_FinishPersistsWinners(t *testing.T) {
	db := testdb.New(t)
	repo := NewTournamentRepository(db)

	tournament := &domain.Tournament{
		Title: "Cup", MaxSlots: 4, StartTime: time.Now(),
		PrizeDistribution: domain.PrizeDistribution{100, 50},
	}
	require.NoError(t, repo.Create(tournament))
	require.NoError(t, repo.TransitionStatus(tournament.ID, domain.TournamentStatusOpen, domain.TournamentStatusLive))

	winners := domain.Winners{}
	winners.Set(1, 42)
	require.NoError(t, repo.Finish(tournament.ID, domain.TournamentStatusCompleted, winners))

	got, err := repo.GetByID(tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TournamentStatusCompleted, got.Status)
	assert.Equal(t, int64(42), got.Winners["1"])
	assert.Equal(t, domain.PrizeDistribution{100, 50}, got.PrizeDistribution)
}

func TestRepositories_GetByIDForUpdateInsideTransaction(t *testing.T) {
	db := testdb.New(t)
	accounts := NewAccountRepository(db)
	transactions := NewTransactionRepository(db)
	account := createAccount(t, accounts, "erin", 40)
	tx := &domain.Transaction{AccountID: account.ID, Amount: 40, Kind: domain.TransactionKindDeposit, Status: domain.TransactionStatusPending}
	require.NoError(t, transactions.Create(tx))

	err := db.Transaction(func(gtx *gorm.DB) error {
		locked, err := accounts.WithTransaction(gtx).GetByIDForUpdate(account.ID)
		require.NoError(t, err)
		require.NotNil(t, locked)
		assert.Equal(t, int64(40), locked.Balance)

		lockedTx, err := transactions.WithTransaction(gtx).GetByIDForUpdate(tx.ID)
		require.NoError(t, err)
		require.NotNil(t, lockedTx)
		assert.Equal(t, domain.TransactionStatusPending, lockedTx.Status)

		missing, err := transactions.WithTransaction(gtx).GetByIDForUpdate(tx.ID + 100)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}
