package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/http/middleware"
)

// WalletHandler handles withdrawals, deposits and their review
type WalletHandler struct {
	walletUseCase     domain.WalletUseCase
	settlementUseCase domain.SettlementUseCase
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletUseCase domain.WalletUseCase, settlementUseCase domain.SettlementUseCase) *WalletHandler {
	return &WalletHandler{
		walletUseCase:     walletUseCase,
		settlementUseCase: settlementUseCase,
	}
}

// WithdrawRequest represents the withdrawal request body
type WithdrawRequest struct {
	Amount int64 `json:"amount" example:"100"`
}

// DepositRequest represents the deposit request body
type DepositRequest struct {
	Amount int64  `json:"amount" example:"500"`
	Note   string `json:"note" example:"bank transfer 2231"`
}

// ReviewRequest represents the admin review body
type ReviewRequest struct {
	Decision string `json:"decision" binding:"required" example:"approve"`
	Reason   string `json:"reason" example:"payment details do not match"`
}

// AdjustRequest represents the admin adjustment body
type AdjustRequest struct {
	Amount    int64  `json:"amount" example:"50"`
	Direction string `json:"direction" example:"credit"`
	Reason    string `json:"reason" example:"compensation for server outage"`
}

// Withdraw debits the authenticated account into a pending withdrawal
// @Summary Request withdrawal
// @Description Debits the balance immediately. Retries with the same Idempotency-Key return the original transaction.
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client retry key"
// @Param request body WithdrawRequest true "Withdrawal"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse
// @Router /wallet/withdrawals [post]
func (h *WalletHandler) Withdraw(c *gin.Context) {
	accountID, ok := authenticatedAccount(c)
	if !ok {
		return
	}
	var req WithdrawRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.walletUseCase.Withdraw(c.Request.Context(), accountID, req.Amount, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTransactionResponse(tx))
}

// Deposit records a pending deposit awaiting review
// @Summary Request deposit
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client retry key"
// @Param request body DepositRequest true "Deposit"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Router /wallet/deposits [post]
func (h *WalletHandler) Deposit(c *gin.Context) {
	accountID, ok := authenticatedAccount(c)
	if !ok {
		return
	}
	var req DepositRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.walletUseCase.RequestDeposit(c.Request.Context(), accountID, req.Amount, req.Note, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTransactionResponse(tx))
}

// Limit returns the daily withdrawal window of the authenticated account
// @Summary Withdrawal limit
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.WithdrawalLimit
// @Failure 401 {object} domain.ErrorResponse
// @Router /wallet/withdrawals/limit [get]
func (h *WalletHandler) Limit(c *gin.Context) {
	accountID, ok := authenticatedAccount(c)
	if !ok {
		return
	}

	limit, err := h.walletUseCase.DailyLimit(c.Request.Context(), accountID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, limit)
}

// Review approves or rejects a pending withdrawal or deposit
// @Summary Review transaction
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param request body ReviewRequest true "Decision"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Router /admin/transactions/{id}/review [post]
func (h *WalletHandler) Review(c *gin.Context) {
	actorID, ok := authenticatedAccount(c)
	if !ok {
		return
	}
	transactionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.walletUseCase.Review(c.Request.Context(), transactionID, domain.ReviewDecision(req.Decision), req.Reason, actorID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTransactionResponse(tx))
}

// Adjust applies an administrative credit or debit
// @Summary Adjust balance
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param request body AdjustRequest true "Adjustment"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Router /admin/accounts/{id}/adjustments [post]
func (h *WalletHandler) Adjust(c *gin.Context) {
	actorID, ok := authenticatedAccount(c)
	if !ok {
		return
	}
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AdjustRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.settlementUseCase.Adjust(c.Request.Context(), domain.AdjustmentRequest{
		AccountID: accountID,
		Amount:    req.Amount,
		Direction: domain.Direction(req.Direction),
		Reason:    req.Reason,
		ActorID:   actorID,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTransactionResponse(tx))
}
