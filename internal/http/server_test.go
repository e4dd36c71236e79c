package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saradorri/tournamentledger/internal/config"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/http/handlers"
	"github.com/saradorri/tournamentledger/internal/http/middleware"
	"github.com/saradorri/tournamentledger/internal/infrastructure/auth"
	"github.com/saradorri/tournamentledger/internal/infrastructure/database/testdb"
	"github.com/saradorri/tournamentledger/internal/infrastructure/idempotency"
	"github.com/saradorri/tournamentledger/internal/infrastructure/lock"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/infrastructure/repository"
	"github.com/saradorri/tournamentledger/internal/infrastructure/seeder"
	"github.com/saradorri/tournamentledger/internal/usecase/account"
	"github.com/saradorri/tournamentledger/internal/usecase/audit"
	"github.com/saradorri/tournamentledger/internal/usecase/settlement"
	"github.com/saradorri/tournamentledger/internal/usecase/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testdb.New(t)
	log := logger.NewNop()

	_, err := seeder.NewSeeder(db, log).SeedAccounts(seeder.DefaultAccounts)
	require.NoError(t, err)

	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)
	tournaments := repository.NewTournamentRepository(db)
	outbox := repository.NewOutboxRepository(db)
	locks := lock.NewManager(5*time.Second, log)
	jwtService := auth.NewJWTService(&config.JWTConfig{Secret: "test-secret", Expiry: time.Hour})

	settlementUC := settlement.NewUseCase(db, accounts, transactions, tournaments, outbox, locks, log, 2)
	walletUC := wallet.NewUseCase(db, accounts, transactions, outbox, idempotency.NoopStore{}, locks, log,
		wallet.Limits{DailyCap: 1000, Minimum: 50})

	server := NewServer(jwtService, Handlers{
		Account:    handlers.NewAccountHandler(account.NewUseCase(accounts, jwtService, log)),
		Tournament: handlers.NewTournamentHandler(settlementUC),
		Wallet:     handlers.NewWalletHandler(walletUC, settlementUC),
		Audit:      handlers.NewAuditHandler(audit.NewUseCase(accounts, transactions, log, 0, 50)),
	}, middleware.NewErrorHandler(log), log, ":0", 5*time.Second)

	return &testServer{router: server.Router()}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username, password string) (string, int64) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.Account.ID
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error.Code
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_Authentication(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{Username: "player1", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.ErrCodeInvalidCredentials, errorCode(t, w))

	w = s.do(t, http.MethodGet, "/api/v1/accounts/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.ErrCodeTokenMissing, errorCode(t, w))

	w = s.do(t, http.MethodGet, "/api/v1/accounts/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.ErrCodeTokenInvalid, errorCode(t, w))

	token, id := s.login(t, "player1", "password123")
	w = s.do(t, http.MethodGet, "/api/v1/accounts/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me handlers.AccountInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, id, me.ID)
	assert.Equal(t, int64(500), me.Balance)

	w = s.do(t, http.MethodPost, "/api/v1/admin/tournaments", token, handlers.CreateTournamentRequest{Title: "x", MaxSlots: 2})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domain.ErrCodeForbidden, errorCode(t, w))
}

func TestServer_TournamentAndWalletFlow(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login(t, "admin", "admin123")
	playerToken, playerID := s.login(t, "player1", "password123")

	w := s.do(t, http.MethodPost, "/api/v1/admin/tournaments", adminToken, handlers.CreateTournamentRequest{
		Title: "Friday Night Solo", Format: "solo", MaxSlots: 2, EntryFee: 10,
		PrizeDistribution: []int64{15, 5}, StartTime: time.Now().Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cup domain.Tournament
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cup))

	joinPath := fmt.Sprintf("/api/v1/tournaments/%d/join", cup.ID)
	w = s.do(t, http.MethodPost, joinPath, playerToken, handlers.JoinRequest{InGameName: "Sniper", InGameUID: "5123987"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, joinPath, playerToken, handlers.JoinRequest{InGameName: "Sniper", InGameUID: "5123987"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.ErrCodeAlreadyJoined, errorCode(t, w))

	w = s.do(t, http.MethodPost, "/api/v1/wallet/withdrawals", playerToken, handlers.WithdrawRequest{Amount: 20})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.ErrCodeBelowMinimum, errorCode(t, w))

	w = s.do(t, http.MethodPost, "/api/v1/wallet/withdrawals", playerToken, handlers.WithdrawRequest{Amount: 60})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var withdrawal handlers.TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &withdrawal))
	assert.Equal(t, string(domain.TransactionStatusPending), withdrawal.Status)
	assert.Equal(t, int64(60), withdrawal.Amount)

	w = s.do(t, http.MethodGet, "/api/v1/wallet/withdrawals/limit", playerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var limit domain.WithdrawalLimit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &limit))
	assert.Equal(t, int64(940), limit.Remaining)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/tournaments/%d/payout", cup.ID), adminToken,
		handlers.PayoutRequest{Winners: []int64{playerID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var payout domain.PayoutResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payout))
	assert.Equal(t, domain.TournamentStatusCompleted, payout.Status)
	assert.Equal(t, int64(15), payout.TotalPaid)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/accounts/%d/audit", playerID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report domain.AuditReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, int64(445), report.StoredBalance)
	assert.Zero(t, report.Discrepancy)
	assert.Empty(t, report.Flags)
}

func TestServer_AdminAdjustAndReview(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login(t, "admin", "admin123")
	playerToken, playerID := s.login(t, "player4", "password123")

	adjustPath := fmt.Sprintf("/api/v1/admin/accounts/%d/adjustments", playerID)
	w := s.do(t, http.MethodPost, adjustPath, adminToken, handlers.AdjustRequest{Amount: 30, Direction: "sideways", Reason: "typo"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.ErrCodeInvalidDirection, errorCode(t, w))

	w = s.do(t, http.MethodPost, adjustPath, adminToken, handlers.AdjustRequest{Amount: 30, Direction: "credit", Reason: "outage compensation"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/wallet/deposits", playerToken, handlers.DepositRequest{Amount: 200, Note: "bank transfer"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var deposit handlers.TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deposit))

	reviewPath := fmt.Sprintf("/api/v1/admin/transactions/%d/review", deposit.TransactionID)
	w = s.do(t, http.MethodPost, reviewPath, adminToken, handlers.ReviewRequest{Decision: "approve"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, reviewPath, adminToken, handlers.ReviewRequest{Decision: "reject"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/accounts/me", playerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me handlers.AccountInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, int64(330), me.Balance)
}

func TestServer_RejectsMalformedPathIDs(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "player1", "password123")

	w := s.do(t, http.MethodGet, "/api/v1/tournaments/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrCodeInvalidFormat, errorCode(t, w))

	w = s.do(t, http.MethodGet, "/api/v1/tournaments/999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.ErrCodeTournamentNotFound, errorCode(t, w))
}
