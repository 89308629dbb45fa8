package respawn

import (
	"container/heap"
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/mcoot/mobaserver/internal/dependencies/clock"
	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/services/combat"
)

const (
	// DefaultDelay is the time a dead player waits before respawning
	DefaultDelay = 10 * time.Second
	// DefaultInterval is how often the scheduler drains due respawns
	DefaultInterval = time.Second
)

// Config holds scheduler timing settings
type Config struct {
	Delay    time.Duration
	Interval time.Duration
}

// DefaultConfig returns the standard respawn timing
func DefaultConfig() Config {
	return Config{
		Delay:    DefaultDelay,
		Interval: DefaultInterval,
	}
}

// Matches gives the scheduler exclusive access to a match
type Matches interface {
	Update(matchID model.MatchID, fn func(m *model.Match) error) error
}

// Scheduler holds pending respawns and fires them when due.
// At most one respawn is pending per (match, player); scheduling again
// replaces the pending one.
type Scheduler struct {
	mu      sync.Mutex
	queue   eventQueue
	pending map[key]*event
	seq     uint64

	matches   Matches
	publisher model.Publisher
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger
}

// New creates a Scheduler
func New(matches Matches, publisher model.Publisher, clock clock.Clock, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pending:   make(map[key]*event),
		matches:   matches,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "respawn")),
	}
}

// Delay returns the configured respawn delay
func (s *Scheduler) Delay() time.Duration {
	return s.cfg.Delay
}

// Schedule queues a respawn for playerID due delay from now, replacing any
// respawn already pending for that player in that match. Returns the due time.
func (s *Scheduler) Schedule(playerID model.ConnectionID, matchID model.MatchID, delay time.Duration) time.Time {
	now := s.clock.Now()
	due := now.Add(delay)
	k := key{matchID: matchID, playerID: playerID}

	s.mu.Lock()
	s.seq++
	if ev, ok := s.pending[k]; ok {
		ev.due = due
		ev.scheduledAt = now
		ev.seq = s.seq
		heap.Fix(&s.queue, ev.index)
	} else {
		ev := &event{key: k, due: due, scheduledAt: now, seq: s.seq}
		heap.Push(&s.queue, ev)
		s.pending[k] = ev
	}
	queued := len(s.queue)
	s.mu.Unlock()

	s.logger.Debug("respawn scheduled",
		slog.String("match_id", string(matchID)),
		slog.String("player_id", string(playerID)),
		slog.Time("due", due),
		slog.Int("queued", queued))
	return due
}

// Cancel drops any pending respawn for the player. Returns true if one existed.
func (s *Scheduler) Cancel(matchID model.MatchID, playerID model.ConnectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.pending[key{matchID: matchID, playerID: playerID}]
	if !ok {
		return false
	}
	heap.Remove(&s.queue, ev.index)
	delete(s.pending, ev.key)
	return true
}

// IsPending reports whether a respawn is queued for the player
func (s *Scheduler) IsPending(matchID model.MatchID, playerID model.ConnectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key{matchID: matchID, playerID: playerID}]
	return ok
}

// Len returns the number of pending respawns
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// ProcessDue fires every respawn whose due time has passed, earliest first.
// Returns the number of players revived.
func (s *Scheduler) ProcessDue(ctx context.Context) int {
	now := s.clock.Now()

	s.mu.Lock()
	var due []*event
	for {
		ev := s.queue.peek()
		if ev == nil || ev.due.After(now) {
			break
		}
		heap.Pop(&s.queue)
		delete(s.pending, ev.key)
		due = append(due, ev)
	}
	s.mu.Unlock()

	revived := 0
	for _, ev := range due {
		if s.fire(ctx, ev, now) {
			revived++
		}
	}
	return revived
}

// Run drains due respawns on a fixed cadence until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("respawn scheduler started",
		slog.Duration("delay", s.cfg.Delay),
		slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("respawn scheduler stopped", slog.Int("pending", s.Len()))
			return nil
		case <-ticker.C:
			s.ProcessDue(ctx)
		}
	}
}

// fire applies one respawn. A panic is contained to the event that caused it.
func (s *Scheduler) fire(ctx context.Context, ev *event, now time.Time) (revived bool) {
	logger := s.logger.With(
		slog.String("match_id", string(ev.matchID)),
		slog.String("player_id", string(ev.playerID)))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("respawn panicked",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())))
			revived = false
		}
	}()

	var view model.PlayerView
	err := s.matches.Update(ev.matchID, func(m *model.Match) error {
		p := m.GetPlayer(ev.playerID)
		if p == nil {
			return model.ErrPlayerNotFound
		}
		// A newer death carries its own respawn
		if p.LastDeathTime.After(ev.scheduledAt) {
			return nil
		}
		if combat.Revive(p, now) {
			revived = true
			view = p.View()
		}
		return nil
	})
	if err != nil {
		logger.Info("respawn skipped", slog.String("reason", err.Error()))
		return false
	}
	if !revived {
		return false
	}

	s.publisher.Publish(ctx, model.GroupEvent(ev.matchID, model.EventPlayerRespawned, view, now))
	logger.Info("player respawned", slog.Duration("late_by", now.Sub(ev.due)))
	return true
}
