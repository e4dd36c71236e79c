package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saradorri/tournamentledger/internal/domain"
	"github.com/saradorri/tournamentledger/internal/http/middleware"
)

// TournamentHandler handles tournament entry and settlement requests
type TournamentHandler struct {
	settlementUseCase domain.SettlementUseCase
}

// NewTournamentHandler creates a new tournament handler
func NewTournamentHandler(settlementUseCase domain.SettlementUseCase) *TournamentHandler {
	return &TournamentHandler{settlementUseCase: settlementUseCase}
}

// JoinRequest represents the tournament entry body
type JoinRequest struct {
	InGameName string              `json:"in_game_name" binding:"required" example:"Sniper"`
	InGameUID  string              `json:"in_game_uid" binding:"required" example:"5123987"`
	Team       []domain.TeamMember `json:"team,omitempty"`
}

// CreateTournamentRequest represents the tournament creation body
type CreateTournamentRequest struct {
	Title             string    `json:"title" binding:"required" example:"Friday Night Solo"`
	Format            string    `json:"format" example:"solo"`
	MaxSlots          int       `json:"max_slots" binding:"required" example:"48"`
	EntryFee          int64     `json:"entry_fee" example:"10"`
	PrizeDistribution []int64   `json:"prize_distribution" example:"300,150,50"`
	StartTime         time.Time `json:"start_time" example:"2024-01-15T18:00:00Z"`
}

// PayoutRequest lists winners by rank, first place first
type PayoutRequest struct {
	Winners []int64 `json:"winners" example:"7,12,3"`
}

// TournamentResponse is a tournament with its participants
type TournamentResponse struct {
	Tournament   *domain.Tournament    `json:"tournament"`
	Participants []*domain.Participant `json:"participants"`
}

// Join enters the authenticated account into a tournament
// @Summary Join tournament
// @Description Debit the entry fee and reserve a slot
// @Tags tournaments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tournament ID"
// @Param request body JoinRequest true "Entry details"
// @Success 201 {object} domain.Participant
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse
// @Router /tournaments/{id}/join [post]
func (h *TournamentHandler) Join(c *gin.Context) {
	accountID, ok := authenticatedAccount(c)
	if !ok {
		return
	}
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req JoinRequest
	if !bindJSON(c, &req) {
		return
	}

	participant, err := h.settlementUseCase.Join(c.Request.Context(), domain.JoinRequest{
		AccountID:    accountID,
		TournamentID: tournamentID,
		InGameName:   req.InGameName,
		InGameUID:    req.InGameUID,
		Team:         req.Team,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, participant)
}

// Get returns a tournament
// @Summary Get tournament
// @Tags tournaments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tournament ID"
// @Success 200 {object} TournamentResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /tournaments/{id} [get]
func (h *TournamentHandler) Get(c *gin.Context) {
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	t, participants, err := h.settlementUseCase.GetTournament(c.Request.Context(), tournamentID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TournamentResponse{Tournament: t, Participants: participants})
}

// Create opens a tournament
// @Summary Create tournament
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTournamentRequest true "Tournament"
// @Success 201 {object} domain.Tournament
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /admin/tournaments [post]
func (h *TournamentHandler) Create(c *gin.Context) {
	var req CreateTournamentRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.settlementUseCase.CreateTournament(c.Request.Context(), domain.NewTournament{
		Title:             req.Title,
		Format:            domain.TournamentFormat(req.Format),
		MaxSlots:          req.MaxSlots,
		EntryFee:          req.EntryFee,
		PrizeDistribution: req.PrizeDistribution,
		StartTime:         req.StartTime,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, t)
}

// GoLive marks an open tournament as live
// @Summary Start tournament
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tournament ID"
// @Success 200 {object} domain.Tournament
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Router /admin/tournaments/{id}/live [post]
func (h *TournamentHandler) GoLive(c *gin.Context) {
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.settlementUseCase.GoLive(c.Request.Context(), tournamentID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

// Cancel cancels a tournament and refunds every entry fee
// @Summary Cancel tournament
// @Description Refunds are resumed in the background when some of them fail
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tournament ID"
// @Success 200 {object} domain.CancelResult
// @Failure 404 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse
// @Router /admin/tournaments/{id}/cancel [post]
func (h *TournamentHandler) Cancel(c *gin.Context) {
	actorID, ok := authenticatedAccount(c)
	if !ok {
		return
	}
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.settlementUseCase.Cancel(c.Request.Context(), tournamentID, actorID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Payout distributes prizes to ranked winners
// @Summary Pay out tournament
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tournament ID"
// @Param request body PayoutRequest true "Winners by rank"
// @Success 200 {object} domain.PayoutResult
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse
// @Router /admin/tournaments/{id}/payout [post]
func (h *TournamentHandler) Payout(c *gin.Context) {
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req PayoutRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.settlementUseCase.Payout(c.Request.Context(), tournamentID, req.Winners)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
