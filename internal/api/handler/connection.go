package handler

import (
	"net/http"

	"github.com/mcoot/mobaserver/internal/api/middleware"
	"github.com/mcoot/mobaserver/internal/api/response"
	"github.com/mcoot/mobaserver/internal/services/connection"
	"github.com/mcoot/mobaserver/internal/services/game"
	"github.com/mcoot/mobaserver/internal/web/hub"
	"github.com/mcoot/mobaserver/internal/web/sse"
)

// ConnectionHandler handles connection lifecycle and the event stream
type ConnectionHandler struct {
	connections *connection.Service
	controller  *game.Controller
	hub         *hub.Hub
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connections *connection.Service, controller *game.Controller, h *hub.Hub) *ConnectionHandler {
	return &ConnectionHandler{
		connections: connections,
		controller:  controller,
		hub:         h,
	}
}

// Open handles POST /api/v1/connections
func (h *ConnectionHandler) Open(w http.ResponseWriter, r *http.Request) {
	conn, err := h.connections.Open()
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ConnectionFromService(conn))
}

// Close handles DELETE /api/v1/connections/me
func (h *ConnectionHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	h.controller.Disconnect(r.Context(), id)

	response.NoContent(w)
}

// Events handles GET /api/v1/events
func (h *ConnectionHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetConnectionID(r.Context())

	sse.ServeSSE(w, r, h.hub, id)
}
