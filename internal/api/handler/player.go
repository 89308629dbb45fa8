package handler

import (
	"net/http"

	"github.com/mcoot/mobaserver/internal/api/middleware"
	"github.com/mcoot/mobaserver/internal/api/request"
	"github.com/mcoot/mobaserver/internal/api/response"
	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/services/game"
)

// PlayerHandler handles registration and the hero catalog
type PlayerHandler struct {
	controller *game.Controller
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(controller *game.Controller) *PlayerHandler {
	return &PlayerHandler{
		controller: controller,
	}
}

// Register handles POST /api/v1/players
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	var req request.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	view, err := h.controller.Register(r.Context(), id, req.Username, model.HeroID(req.HeroID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, view)
}

// Heroes handles GET /api/v1/heroes
func (h *PlayerHandler) Heroes(w http.ResponseWriter, r *http.Request) {
	heroes := model.Heroes()
	resp := response.HeroList{Heroes: make([]response.Hero, len(heroes))}
	for i, hero := range heroes {
		resp.Heroes[i] = response.HeroFromModel(hero)
	}

	response.JSON(w, http.StatusOK, resp)
}
