package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/domain/mocks"
	"github.com/saradorri/tournamentledger/internal/infrastructure/database/testdb"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/infrastructure/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// lockRecorder notes which accounts were read with a row lock
type lockRecorder struct {
	domain.AccountRepository
	locked *[]int64
}

func (l *lockRecorder) WithTransaction(tx *gorm.DB) domain.AccountRepository {
	return &lockRecorder{AccountRepository: l.AccountRepository.WithTransaction(tx), locked: l.locked}
}

func (l *lockRecorder) GetByIDForUpdate(id int64) (*domain.Account, error) {
	*l.locked = append(*l.locked, id)
	return l.AccountRepository.GetByIDForUpdate(id)
}

type fixture struct {
	uc           *UseCase
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	store        *mocks.MockIdempotencyStore
	recorder     *lockRecorder
	clock        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	db := testdb.New(t)
	log := logger.NewNop()

	f := &fixture{
		accounts:     repository.NewAccountRepository(db),
		transactions: repository.NewTransactionRepository(db),
		store:        mocks.NewMockIdempotencyStore(ctrl),
		clock:        time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
	f.recorder = &lockRecorder{AccountRepository: f.accounts, locked: &[]int64{}}
	f.uc = NewUseCase(db, f.recorder, f.transactions, repository.NewOutboxRepository(db), f.store,
		lock.NewManager(time.Second, log), log, Limits{DailyCap: 1000, Minimum: 50, ResetHourUTC: 0})
	f.uc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) account(t *testing.T, balance int64) *domain.Account {
	t.Helper()
	account := &domain.Account{Username: fmt.Sprintf("user-%d", balance), Password: "x", Balance: balance}
	require.NoError(t, f.accounts.Create(account))
	return account
}

func (f *fixture) balance(t *testing.T, accountID int64) int64 {
	t.Helper()
	account, err := f.accounts.GetByID(accountID)
	require.NoError(t, err)
	return account.Balance
}

func TestWindowStart(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		resetHour int
		want      time.Time
	}{
		{"midnight reset", time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), 0, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
		{"before reset hour", time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC), 6, time.Date(2026, 10, 14, 6, 0, 0, 0, time.UTC)},
		{"exactly on reset", time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC), 6, time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC)},
		{"non utc input", time.Date(2026, 10, 15, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)), 0, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WindowStart(tt.now, tt.resetHour))
		})
	}
}

func TestLimits_CheckOrder(t *testing.T) {
	limits := Limits{DailyCap: 1000, Minimum: 50}

	tests := []struct {
		name    string
		amount  int64
		used    int64
		balance int64
		code    string
	}{
		{"ok", 100, 0, 100, ""},
		{"zero amount", 0, 0, 100, domain.ErrCodeInvalidAmount},
		{"below minimum beats limit", 10, 1000, 0, domain.ErrCodeBelowMinimum},
		{"limit beats balance", 600, 500, 0, domain.ErrCodeDailyLimitExceeded},
		{"exactly remaining", 500, 500, 500, ""},
		{"insufficient funds", 200, 0, 100, domain.ErrCodeInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limits.Check(tt.amount, tt.used, tt.balance)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, domain.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestWithdraw_DailyCapResetsAtBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.account(t, 5000)

	_, err := f.uc.Withdraw(ctx, account.ID, 600, "")
	require.NoError(t, err)
	_, err = f.uc.Withdraw(ctx, account.ID, 400, "")
	require.NoError(t, err)

	_, err = f.uc.Withdraw(ctx, account.ID, 50, "")
	assert.True(t, domain.HasCode(err, domain.ErrCodeDailyLimitExceeded))
	assert.Equal(t, int64(4000), f.balance(t, account.ID))

	limit, err := f.uc.DailyLimit(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), limit.Used)
	assert.Equal(t, int64(0), limit.Remaining)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), limit.WindowEnd)

	f.clock = f.clock.Add(12 * time.Hour)
	withdrawal, err := f.uc.Withdraw(ctx, account.ID, 100, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, withdrawal.Status)
	assert.Equal(t, int64(3900), f.balance(t, account.ID))
}

func TestWithdraw_LocksAccountRow(t *testing.T) {
	f := newFixture(t)
	account := f.account(t, 500)

	_, err := f.uc.Withdraw(context.Background(), account.ID, 100, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{account.ID}, *f.recorder.locked)

	_, err = f.uc.Withdraw(context.Background(), account.ID, 10, "")
	assert.True(t, domain.HasCode(err, domain.ErrCodeBelowMinimum))
	assert.Equal(t, []int64{account.ID, account.ID}, *f.recorder.locked)
}

func TestWithdraw_RejectedWithdrawalRefundsAndFreesLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.account(t, 1500)

	withdrawal, err := f.uc.Withdraw(ctx, account.ID, 1000, "")
	require.NoError(t, err)
	assert.Equal(t, int64(500), f.balance(t, account.ID))

	reviewed, err := f.uc.Review(ctx, withdrawal.ID, domain.ReviewReject, "card expired", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusRejected, reviewed.Status)
	require.NotNil(t, reviewed.RejectionReason)
	assert.Equal(t, "card expired", *reviewed.RejectionReason)
	assert.Equal(t, int64(1500), f.balance(t, account.ID))

	_, err = f.uc.Review(ctx, withdrawal.ID, domain.ReviewApprove, "", 1)
	assert.True(t, domain.HasCode(err, domain.ErrCodeTransactionInvalidStatus))
	assert.Equal(t, int64(1500), f.balance(t, account.ID))

	limit, err := f.uc.DailyLimit(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), limit.Remaining)
}

func TestWithdraw_ApprovalKeepsFundsLocked(t *testing.T) {
	f := newFixture(t)
	account := f.account(t, 300)

	withdrawal, err := f.uc.Withdraw(context.Background(), account.ID, 300, "")
	require.NoError(t, err)
	reviewed, err := f.uc.Review(context.Background(), withdrawal.ID, domain.ReviewApprove, "", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusApproved, reviewed.Status)
	assert.Equal(t, int64(0), f.balance(t, account.ID))
}

func TestWithdraw_Idempotency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.account(t, 1000)
	key := fmt.Sprintf("withdraw:%d:abc", account.ID)

	var completed int64
	f.store.EXPECT().Reserve(gomock.Any(), key).Return(int64(0), true, nil)
	f.store.EXPECT().Complete(gomock.Any(), key, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, id int64) error {
			completed = id
			return nil
		})

	first, err := f.uc.Withdraw(ctx, account.ID, 200, "abc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, completed)

	f.store.EXPECT().Reserve(gomock.Any(), key).Return(first.ID, true, nil)
	replay, err := f.uc.Withdraw(ctx, account.ID, 200, "abc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)
	assert.Equal(t, int64(800), f.balance(t, account.ID))

	f.store.EXPECT().Reserve(gomock.Any(), key).Return(int64(0), false, nil)
	_, err = f.uc.Withdraw(ctx, account.ID, 200, "abc")
	assert.True(t, domain.HasCode(err, domain.ErrCodeRequestInProgress))
}

func TestWithdraw_FailureReleasesKey(t *testing.T) {
	f := newFixture(t)
	account := f.account(t, 1000)
	key := fmt.Sprintf("withdraw:%d:small", account.ID)

	gomock.InOrder(
		f.store.EXPECT().Reserve(gomock.Any(), key).Return(int64(0), true, nil),
		f.store.EXPECT().Release(gomock.Any(), key).Return(nil),
	)

	_, err := f.uc.Withdraw(context.Background(), account.ID, 10, "small")
	assert.True(t, domain.HasCode(err, domain.ErrCodeBelowMinimum))
	assert.Equal(t, int64(1000), f.balance(t, account.ID))
}

func TestWithdraw_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	account := f.account(t, 1000)

	f.store.EXPECT().Reserve(gomock.Any(), gomock.Any()).Return(int64(0), false, errors.New("dial tcp: connection refused"))

	_, err := f.uc.Withdraw(context.Background(), account.ID, 100, "k")
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, int64(1000), f.balance(t, account.ID))
}

func TestDeposit_Review(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.account(t, 0)

	_, err := f.uc.RequestDeposit(ctx, account.ID, 0, "", "")
	assert.True(t, domain.HasCode(err, domain.ErrCodeInvalidAmount))

	approved, err := f.uc.RequestDeposit(ctx, account.ID, 250, "bank transfer", "")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, approved.Status)
	assert.Equal(t, int64(0), f.balance(t, account.ID))

	rejected, err := f.uc.RequestDeposit(ctx, account.ID, 400, "", "")
	require.NoError(t, err)

	_, err = f.uc.Review(ctx, approved.ID, domain.ReviewApprove, "", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(250), f.balance(t, account.ID))

	reviewed, err := f.uc.Review(ctx, rejected.ID, domain.ReviewReject, "", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusRejected, reviewed.Status)
	assert.Nil(t, reviewed.RejectionReason)
	assert.Equal(t, int64(250), f.balance(t, account.ID))

	_, err = f.uc.Review(ctx, 9999, domain.ReviewApprove, "", 1)
	assert.True(t, domain.HasCode(err, domain.ErrCodeTransactionNotFound))

	_, err = f.uc.Review(ctx, approved.ID, "maybe", "", 1)
	assert.True(t, domain.HasCode(err, domain.ErrCodeValidation))
}

func TestReview_RefusesSettlementTransactions(t *testing.T) {
	f := newFixture(t)
	account := f.account(t, 100)
	fee := &domain.Transaction{
		AccountID: account.ID,
		Amount:    10,
		Kind:      domain.TransactionKindEntryFee,
		Status:    domain.TransactionStatusApproved,
	}
	require.NoError(t, f.transactions.Create(fee))

	_, err := f.uc.Review(context.Background(), fee.ID, domain.ReviewReject, "no", 1)
	assert.True(t, domain.HasCode(err, domain.ErrCodeTransactionInvalidStatus))
}
