package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/http/middleware"
)

// AccountHandler handles HTTP requests for login and the caller's account
type AccountHandler struct {
	accountUseCase domain.AccountUseCase
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountUseCase domain.AccountUseCase) *AccountHandler {
	return &AccountHandler{accountUseCase: accountUseCase}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"player1"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse represents the login response body
type LoginResponse struct {
	Token   string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Account AccountInfo `json:"account"`
}

// AccountInfo represents account information
type AccountInfo struct {
	ID          int64  `json:"id" example:"7"`
	Username    string `json:"username" example:"player1"`
	Role        string `json:"role" example:"player"`
	Balance     int64  `json:"balance" example:"100"`
	TotalWins   int64  `json:"total_wins" example:"2"`
	NetEarnings int64  `json:"net_earnings" example:"150"`
}

func newAccountInfo(a *domain.Account) AccountInfo {
	return AccountInfo{
		ID:          a.ID,
		Username:    a.Username,
		Role:        string(a.Role),
		Balance:     a.Balance,
		TotalWins:   a.TotalWins,
		NetEarnings: a.NetEarnings,
	}
}

// Login handles account authentication
// @Summary Account login
// @Description Authenticate an account and return a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Router /auth/login [post]
func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, account, err := h.accountUseCase.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, Account: newAccountInfo(account)})
}

// Me returns the authenticated account
// @Summary Get account information
// @Description Get the balance and statistics of the authenticated account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AccountInfo
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /accounts/me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	accountID, ok := authenticatedAccount(c)
	if !ok {
		return
	}

	account, err := h.accountUseCase.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAccountInfo(account))
}
