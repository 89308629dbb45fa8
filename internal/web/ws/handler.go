package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/mobaserver/internal/dependencies/clock"
	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/services/combat"
	"github.com/mcoot/mobaserver/internal/web/hub"
)

// Time allowed to write a frame to the peer
const writeWait = 10 * time.Second

// errUnknownCommand is reported to a client that sends a frame it cannot act on
var errUnknownCommand = errors.New("unknown command")

// Commands is the game surface a socket drives
type Commands interface {
	Register(ctx context.Context, caller model.ConnectionID, username string, heroID model.HeroID) (*model.PlayerView, error)
	CreateAndJoinMatch(ctx context.Context, caller model.ConnectionID) (*model.MatchView, error)
	JoinMatch(ctx context.Context, caller model.ConnectionID, matchID model.MatchID) (*model.MatchView, error)
	LeaveMatch(ctx context.Context, caller model.ConnectionID, matchID model.MatchID) error
	ListAvailableMatches(ctx context.Context, caller model.ConnectionID) []model.MatchListing
	MovePlayer(ctx context.Context, caller model.ConnectionID, matchID model.MatchID, to model.Position) error
	UseAbility(ctx context.Context, caller model.ConnectionID, matchID model.MatchID, abilityID model.AbilityID, target model.Position) (*combat.AbilityOutcome, error)
	AttackPlayer(ctx context.Context, caller model.ConnectionID, matchID model.MatchID, target model.ConnectionID) (*combat.AttackOutcome, error)
	SendChat(ctx context.Context, caller model.ConnectionID, matchID model.MatchID, message string, teamOnly bool) error
	Disconnect(ctx context.Context, caller model.ConnectionID)
}

// IDSource allocates connection ids for new sockets
type IDSource interface {
	NewID() model.ConnectionID
}

// Handler accepts WebSocket connections. Each socket is one connection: the
// server assigns its id, and closing the socket disconnects it.
type Handler struct {
	commands Commands
	hub      *hub.Hub
	ids      IDSource
	clock    clock.Clock
	// originPatterns are cross-origin hosts browsers may connect from
	originPatterns []string
	logger         *slog.Logger
}

// NewHandler creates a new WebSocket Handler. Browsers on the server's own
// host, and clients that send no Origin header, are always accepted;
// originPatterns admits further hosts.
func NewHandler(commands Commands, h *hub.Hub, ids IDSource, clock clock.Clock, originPatterns []string, logger *slog.Logger) *Handler {
	return &Handler{
		commands:       commands,
		hub:            h,
		ids:            ids,
		clock:          clock,
		originPatterns: originPatterns,
		logger:         logger.With(slog.String("component", "ws")),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("failed to accept",
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("error", err.Error()))
		return
	}

	id := h.ids.NewID()
	logger := h.logger.With(slog.String("connection_id", string(id)))
	client := h.hub.Connect(id)
	logger.Debug("accepted new connection")

	defer func() {
		h.hub.Disconnect(client)
		// The request context is already cancelled once the socket is gone
		h.commands.Disconnect(context.WithoutCancel(r.Context()), id)
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	hello, _ := json.Marshal(map[string]model.ConnectionID{"connection_id": id})
	if err := writeFrame(r.Context(), conn, Frame{Event: "connected", Data: hello}); err != nil {
		logger.Debug("failed to send greeting", slog.String("error", err.Error()))
		return
	}

	eg, ctx := errgroup.WithContext(r.Context())
	eg.Go(func() error {
		return h.readLoop(ctx, conn, id)
	})
	eg.Go(func() error {
		return writeLoop(ctx, conn, client)
	})

	if err := eg.Wait(); err != nil && !isClosure(err) {
		logger.Warn("connection ended with error", slog.String("error", err.Error()))
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, id model.ConnectionID) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.reply(ctx, id, fmt.Errorf("malformed command: %w", err))
			continue
		}
		if err := h.dispatch(ctx, id, cmd); errors.Is(err, errUnknownCommand) {
			h.reply(ctx, id, fmt.Errorf("%w %q", errUnknownCommand, cmd.Type))
		}
	}
}

// dispatch runs one command. Rejections are already reported to the caller by
// the game layer, so only unknown commands surface here.
func (h *Handler) dispatch(ctx context.Context, id model.ConnectionID, cmd Command) error {
	switch cmd.Type {
	case CommandRegister:
		_, _ = h.commands.Register(ctx, id, cmd.Username, cmd.HeroID)
	case CommandCreateMatch:
		_, _ = h.commands.CreateAndJoinMatch(ctx, id)
	case CommandJoinMatch:
		_, _ = h.commands.JoinMatch(ctx, id, cmd.MatchID)
	case CommandLeaveMatch:
		_ = h.commands.LeaveMatch(ctx, id, cmd.MatchID)
	case CommandListMatches:
		h.commands.ListAvailableMatches(ctx, id)
	case CommandMove:
		_ = h.commands.MovePlayer(ctx, id, cmd.MatchID, model.Position{X: cmd.X, Y: cmd.Y})
	case CommandUseAbility:
		_, _ = h.commands.UseAbility(ctx, id, cmd.MatchID, cmd.AbilityID, model.Position{X: cmd.X, Y: cmd.Y})
	case CommandAttack:
		_, _ = h.commands.AttackPlayer(ctx, id, cmd.MatchID, cmd.TargetID)
	case CommandChat:
		_ = h.commands.SendChat(ctx, id, cmd.MatchID, cmd.Message, cmd.TeamOnly)
	default:
		return errUnknownCommand
	}
	return nil
}

func (h *Handler) reply(ctx context.Context, id model.ConnectionID, err error) {
	h.hub.Publish(ctx, model.CallerEvent(id, model.EventError, model.ErrorPayload{Message: err.Error()}, h.clock.Now()))
}

func writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-client.Messages():
			if !ok {
				// Hub stopped
				return conn.Close(websocket.StatusGoingAway, "server shutting down")
			}
			if err := writeFrame(ctx, conn, Frame{Event: msg.Event, Data: msg.Data}); err != nil {
				return err
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

// isClosure reports whether err is an ordinary end of the connection
func isClosure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway, websocket.StatusNoStatusRcvd:
		return true
	}
	return false
}
