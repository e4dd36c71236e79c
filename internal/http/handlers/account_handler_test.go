package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/domain/mocks"
	"github.com/saradorri/tournamentledger/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *AccountHandler, accountID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", h.Login)
	r.GET("/me", func(c *gin.Context) {
		if accountID > 0 {
			c.Set(middleware.AccountIDKey, accountID)
		}
		c.Next()
	}, h.Me)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *domain.AppError {
	t.Helper()
	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestAccountHandler_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := mocks.NewMockAccountUseCase(ctrl)
	router := newRouter(NewAccountHandler(uc), 0)

	uc.EXPECT().Authenticate(gomock.Any(), "player1", "password123").
		Return("signed-token", &domain.Account{ID: 7, Username: "player1", Role: domain.RolePlayer, Balance: 120}, nil)

	body, _ := json.Marshal(LoginRequest{Username: "player1", Password: "password123"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "signed-token", resp.Token)
	assert.Equal(t, int64(7), resp.Account.ID)
	assert.Equal(t, int64(120), resp.Account.Balance)
}

func TestAccountHandler_LoginRejectsMissingFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := newRouter(NewAccountHandler(mocks.NewMockAccountUseCase(ctrl)), 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte(`{"username":"player1"}`))))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrCodeInvalidFormat, decodeError(t, w).Code)
}

func TestAccountHandler_MeMapsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := mocks.NewMockAccountUseCase(ctrl)
	router := newRouter(NewAccountHandler(uc), 7)

	uc.EXPECT().GetAccount(gomock.Any(), int64(7)).
		Return(nil, domain.NewUnavailableError("get account", errors.New("connection refused")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	appErr := decodeError(t, w)
	assert.Equal(t, domain.ErrCodeUnavailable, appErr.Code)
	assert.Equal(t, "/me", appErr.Path)
	assert.Equal(t, "7", appErr.AccountID)
}

func TestAccountHandler_MeRequiresAuthentication(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := newRouter(NewAccountHandler(mocks.NewMockAccountUseCase(ctrl)), 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.ErrCodeUnauthorized, decodeError(t, w).Code)
}
