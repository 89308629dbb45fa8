package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/mobaserver/internal/api/handler"
	"github.com/mcoot/mobaserver/internal/api/middleware"
	"github.com/mcoot/mobaserver/internal/api/response"
	"github.com/mcoot/mobaserver/internal/dependencies/clock"
	"github.com/mcoot/mobaserver/internal/services/connection"
	"github.com/mcoot/mobaserver/internal/services/game"
	"github.com/mcoot/mobaserver/internal/web/hub"
	"github.com/mcoot/mobaserver/internal/web/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	Clock             clock.Clock
	ConnectionService *connection.Service
	GameController    *game.Controller
	Hub               *hub.Hub
	// AllowedOrigins are extra host patterns accepted on /ws
	AllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	connectionHandler := handler.NewConnectionHandler(cfg.ConnectionService, cfg.GameController, cfg.Hub)
	playerHandler := handler.NewPlayerHandler(cfg.GameController)
	matchHandler := handler.NewMatchHandler(cfg.GameController)
	wsHandler := ws.NewHandler(cfg.GameController, cfg.Hub, cfg.ConnectionService, cfg.Clock, cfg.AllowedOrigins, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.ConnectionService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes
	api.HandleFunc("/connections", connectionHandler.Open).Methods(http.MethodPost)
	api.HandleFunc("/heroes", playerHandler.Heroes).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Everything else acts as the token's connection
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/connections/me", connectionHandler.Close).Methods(http.MethodDelete)
	protected.HandleFunc("/events", connectionHandler.Events).Methods(http.MethodGet)
	protected.HandleFunc("/players", playerHandler.Register).Methods(http.MethodPost)

	// Match routes; /history is registered before /{id} so it is not read as a match id
	protected.HandleFunc("/matches", matchHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/matches", matchHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/matches/history", matchHandler.History).Methods(http.MethodGet)
	protected.HandleFunc("/matches/{id}", matchHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/matches/{id}/join", matchHandler.Join).Methods(http.MethodPost)
	protected.HandleFunc("/matches/{id}/leave", matchHandler.Leave).Methods(http.MethodPost)
	protected.HandleFunc("/matches/{id}/move", matchHandler.Move).Methods(http.MethodPost)
	protected.HandleFunc("/matches/{id}/abilities", matchHandler.UseAbility).Methods(http.MethodPost)
	protected.HandleFunc("/matches/{id}/attack", matchHandler.Attack).Methods(http.MethodPost)
	protected.HandleFunc("/matches/{id}/chat", matchHandler.Chat).Methods(http.MethodPost)

	// The socket is its own identity, so it bypasses token auth
	r.Handle("/ws", recoveryMiddleware(loggingMiddleware(wsHandler)))

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
