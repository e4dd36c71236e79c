package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/http/middleware"
)

// IdempotencyKeyHeader carries the client key of a retried money movement
const IdempotencyKeyHeader = "Idempotency-Key"

// pathID parses a positive integer path parameter, writing the error response on failure
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondError(c, domain.NewAppError(domain.ErrCodeInvalidFormat, "Invalid "+name, 400, err))
		return 0, false
	}
	return id, true
}

// authenticatedAccount returns the caller's account id, writing the error response on failure
func authenticatedAccount(c *gin.Context) (int64, bool) {
	id, ok := middleware.AccountID(c)
	if !ok {
		middleware.RespondError(c, domain.NewUnauthorizedError("Account not authenticated"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondError(c, domain.NewAppError(domain.ErrCodeInvalidFormat, "Invalid request body", 400, err))
		return false
	}
	return true
}

// TransactionResponse is a ledger entry as returned by the API
type TransactionResponse struct {
	TransactionID   int64   `json:"transaction_id" example:"1"`
	AccountID       int64   `json:"account_id" example:"7"`
	Kind            string  `json:"kind" example:"withdrawal"`
	Direction       string  `json:"direction" example:"debit"`
	Status          string  `json:"status" example:"pending"`
	Amount          int64   `json:"amount" example:"100"`
	Description     string  `json:"description" example:"Withdrawal of 100 coins"`
	Reference       *string `json:"reference,omitempty" example:"tournament:3"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt       string  `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

func newTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   tx.ID,
		AccountID:       tx.AccountID,
		Kind:            string(tx.Kind),
		Direction:       string(tx.Direction),
		Status:          string(tx.Status),
		Amount:          tx.Amount,
		Description:     tx.Description,
		Reference:       tx.Reference,
		RejectionReason: tx.RejectionReason,
		CreatedAt:       tx.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:       tx.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
