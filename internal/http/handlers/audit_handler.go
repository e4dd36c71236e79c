package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/http/middleware"
)

// AuditHandler exposes balance reconciliation
type AuditHandler struct {
	auditUseCase domain.AuditUseCase
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditUseCase domain.AuditUseCase) *AuditHandler {
	return &AuditHandler{auditUseCase: auditUseCase}
}

// AuditAccount replays the ledger of an account against its stored balance
// @Summary Audit account
// @Description Read-only. A desynchronized balance is reported with a synthetic correction entry.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} domain.AuditReport
// @Failure 404 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse
// @Router /admin/accounts/{id}/audit [get]
func (h *AuditHandler) AuditAccount(c *gin.Context) {
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	report, err := h.auditUseCase.AuditAccount(c.Request.Context(), accountID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
