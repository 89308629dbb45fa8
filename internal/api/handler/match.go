package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/mobaserver/internal/api/middleware"
	"github.com/mcoot/mobaserver/internal/api/request"
	"github.com/mcoot/mobaserver/internal/api/response"
	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/services/game"
)

// defaultHistoryLimit caps the history listing when no limit is given
const defaultHistoryLimit = 20

// MatchHandler handles match endpoints
type MatchHandler struct {
	controller *game.Controller
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(controller *game.Controller) *MatchHandler {
	return &MatchHandler{
		controller: controller,
	}
}

// List handles GET /api/v1/matches
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	matches := h.controller.ListAvailableMatches(r.Context(), id)

	response.JSON(w, http.StatusOK, response.MatchList{Matches: matches})
}

// History handles GET /api/v1/matches/history
func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	summaries, err := h.controller.MatchHistory(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchHistory{Matches: summaries})
}

// Create handles POST /api/v1/matches
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	view, err := h.controller.CreateAndJoinMatch(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, view)
}

// Get handles GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.controller.GetMatch(matchID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, view)
}

// Join handles POST /api/v1/matches/{id}/join
func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	view, err := h.controller.JoinMatch(r.Context(), id, matchID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, view)
}

// Leave handles POST /api/v1/matches/{id}/leave
func (h *MatchHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	if err := h.controller.LeaveMatch(r.Context(), id, matchID(r)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Move handles POST /api/v1/matches/{id}/move
func (h *MatchHandler) Move(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	var req request.MoveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.X == nil || req.Y == nil {
		WriteError(w, NewInvalidRequestError("x and y are required"))
		return
	}

	if err := h.controller.MovePlayer(r.Context(), id, matchID(r), model.Position{X: *req.X, Y: *req.Y}); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// UseAbility handles POST /api/v1/matches/{id}/abilities
func (h *MatchHandler) UseAbility(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	var req request.AbilityRequest
	if !decode(w, r, &req) {
		return
	}

	outcome, err := h.controller.UseAbility(r.Context(), id, matchID(r), model.AbilityID(req.AbilityID), model.Position{X: req.X, Y: req.Y})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AbilityResultFromOutcome(outcome))
}

// Attack handles POST /api/v1/matches/{id}/attack
func (h *MatchHandler) Attack(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	var req request.AttackRequest
	if !decode(w, r, &req) {
		return
	}
	if req.TargetID == "" {
		WriteError(w, NewInvalidRequestError("target_id is required"))
		return
	}

	outcome, err := h.controller.AttackPlayer(r.Context(), id, matchID(r), model.ConnectionID(req.TargetID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AttackResultFromOutcome(outcome))
}

// Chat handles POST /api/v1/matches/{id}/chat
func (h *MatchHandler) Chat(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	var req request.ChatRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.controller.SendChat(r.Context(), id, matchID(r), req.Message, req.TeamOnly); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
