package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/mobaserver/internal/dependencies/clock"
	"github.com/mcoot/mobaserver/internal/model"
)

const (
	// Buffer size for outgoing messages per client
	sendBufferSize = 256

	// Buffer size for events waiting to be fanned out
	publishBufferSize = 1024
)

// Message is one encoded event ready to be written by a transport
type Message struct {
	Event string
	Data  json.RawMessage
}

// Client is one live event stream belonging to a connection
type Client struct {
	id          model.ConnectionID
	send        chan Message
	connectedAt time.Time
}

// ID returns the connection the client streams for
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// Messages returns the client's outgoing messages. The channel is closed when
// the client is disconnected or the hub stops.
func (c *Client) Messages() <-chan Message {
	return c.send
}

// delivery is a queued event with its recipients resolved at publish time
type delivery struct {
	event   model.Event
	targets []model.ConnectionID
}

// Hub fans events out to connected clients. It implements model.Publisher:
// Publish never blocks, and an event is dropped with a warning when either the
// hub or a client buffer is full.
type Hub struct {
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[model.ConnectionID]map[*Client]bool
	groups  map[model.MatchID]map[model.ConnectionID]bool

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	publish    chan delivery
	done       chan struct{}
	closeOnce  sync.Once
}

var _ model.Publisher = (*Hub)(nil)

// New creates a new Hub. Run must be started before clients connect.
func New(clock clock.Clock, logger *slog.Logger) *Hub {
	return &Hub{
		clock:      clock,
		logger:     logger.With(slog.String("component", "hub")),
		clients:    make(map[model.ConnectionID]map[*Client]bool),
		groups:     make(map[model.MatchID]map[model.ConnectionID]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan delivery, publishBufferSize),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled or Close is called.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("hub started")
	defer h.shutdown()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.id] == nil {
				h.clients[client.id] = make(map[*Client]bool)
			}
			h.clients[client.id][client] = true
			clientCount := h.countLocked()
			h.mu.Unlock()
			h.logger.Info("client registered",
				slog.String("connection_id", string(client.id)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id][client]; ok {
				delete(h.clients[client.id], client)
				if len(h.clients[client.id]) == 0 {
					delete(h.clients, client.id)
				}
				close(client.send)
				clientCount := h.countLocked()
				h.mu.Unlock()
				h.logger.Info("client unregistered",
					slog.String("connection_id", string(client.id)),
					slog.Duration("connection_duration", h.clock.Now().Sub(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case d := <-h.publish:
			h.deliver(d)

		case <-ctx.Done():
			return nil

		case <-h.done:
			return nil
		}
	}
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
	h.mu.Lock()
	clientCount := 0
	for id, set := range h.clients {
		for client := range set {
			close(client.send)
			clientCount++
		}
		delete(h.clients, id)
	}
	h.mu.Unlock()
	h.logger.Info("hub stopped", slog.Int("disconnected_clients", clientCount))
}

// deliver encodes an event and hands it to every live stream of its recipients
func (h *Hub) deliver(d delivery) {
	event := d.event
	data, err := json.Marshal(event.Payload)
	if err != nil {
		h.logger.Error("event encoding failed",
			slog.String("event", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}
	msg := Message{Event: string(event.Type), Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sentCount := 0
	droppedCount := 0
	for _, id := range d.targets {
		for client := range h.clients[id] {
			select {
			case client.send <- msg:
				sentCount++
			default:
				droppedCount++
				h.logger.Warn("message dropped - client buffer full",
					slog.String("connection_id", string(id)),
					slog.String("event", msg.Event))
			}
		}
	}
	if droppedCount > 0 {
		h.logger.Warn("broadcast partial failure",
			slog.String("event", msg.Event),
			slog.Int("sent", sentCount),
			slog.Int("dropped", droppedCount))
	}
}

func (h *Hub) newClient(id model.ConnectionID) *Client {
	return &Client{
		id:          id,
		send:        make(chan Message, sendBufferSize),
		connectedAt: h.clock.Now(),
	}
}

// Connect registers a new stream for a connection
func (h *Hub) Connect(id model.ConnectionID) *Client {
	client := h.newClient(id)
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
	return client
}

// Disconnect removes a stream. Safe to call after the hub has stopped.
func (h *Hub) Disconnect(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for delivery without blocking. Group recipients are
// the members at the time of the call, so a connection joining afterwards
// does not receive it and one leaving afterwards still does.
func (h *Hub) Publish(_ context.Context, event model.Event) {
	d := delivery{event: event, targets: h.recipients(event)}
	select {
	case h.publish <- d:
	default:
		h.logger.Warn("event dropped - hub buffer full",
			slog.String("event", string(event.Type)))
	}
}

func (h *Hub) recipients(event model.Event) []model.ConnectionID {
	if event.Scope != model.ScopeGroup {
		return []model.ConnectionID{event.Target}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	targets := make([]model.ConnectionID, 0, len(h.groups[event.MatchID]))
	for id := range h.groups[event.MatchID] {
		targets = append(targets, id)
	}
	return targets
}

// JoinGroup adds a connection to a match's broadcast group
func (h *Hub) JoinGroup(matchID model.MatchID, id model.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[matchID] == nil {
		h.groups[matchID] = make(map[model.ConnectionID]bool)
	}
	h.groups[matchID][id] = true
}

// LeaveGroup removes a connection from a match's broadcast group
func (h *Hub) LeaveGroup(matchID model.MatchID, id model.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups[matchID], id)
	if len(h.groups[matchID]) == 0 {
		delete(h.groups, matchID)
	}
}

// Close stops the hub and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected streams
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

// GroupSize returns the number of connections in a match group
func (h *Hub) GroupSize(matchID model.MatchID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[matchID])
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
