package tick

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/mcoot/mobaserver/internal/dependencies/clock"
	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/services/combat"
)

// DefaultTickRate is the number of ticks per second
const DefaultTickRate = 20

// Config tunes the tick loop
type Config struct {
	TickRate int
}

// DefaultConfig returns the standard tick rate
func DefaultConfig() Config {
	return Config{TickRate: DefaultTickRate}
}

// Rate returns the effective ticks per second
func (c Config) Rate() int {
	if c.TickRate <= 0 {
		return DefaultTickRate
	}
	return c.TickRate
}

// Interval returns the time between ticks
func (c Config) Interval() time.Duration {
	return time.Second / time.Duration(c.Rate())
}

// Matches is the registry surface the driver sweeps
type Matches interface {
	MatchIDs() []model.MatchID
	Update(matchID model.MatchID, fn func(m *model.Match) error) error
}

// Respawns is the scheduler surface the driver consults before reviving
type Respawns interface {
	IsPending(matchID model.MatchID, playerID model.ConnectionID) bool
	Delay() time.Duration
}

// Driver sweeps every active match at a fixed rate. It regenerates living
// players and revives dead players the scheduler has lost track of.
type Driver struct {
	matches   Matches
	respawns  Respawns
	publisher model.Publisher
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger
}

// New creates a Driver
func New(matches Matches, respawns Respawns, publisher model.Publisher, clock clock.Clock, cfg Config, logger *slog.Logger) *Driver {
	return &Driver{
		matches:   matches,
		respawns:  respawns,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "tick")),
	}
}

// Rate returns the driver's ticks per second
func (d *Driver) Rate() int {
	return d.cfg.Rate()
}

// Run ticks until ctx is cancelled
func (d *Driver) Run(ctx context.Context) error {
	interval := d.cfg.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("tick driver started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("tick driver stopped")
			return nil
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick performs one sweep over every match. Returns the number of players
// revived by the fallback.
func (d *Driver) Tick(ctx context.Context) int {
	now := d.clock.Now()
	elapsed := d.cfg.Interval()

	revived := 0
	for _, id := range d.matches.MatchIDs() {
		revived += d.tickMatch(ctx, id, now, elapsed)
	}
	return revived
}

// tickMatch sweeps one match. A failure in one match never stops the others.
func (d *Driver) tickMatch(ctx context.Context, matchID model.MatchID, now time.Time, elapsed time.Duration) (revived int) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tick panicked",
				slog.String("match_id", string(matchID)),
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())))
			revived = 0
		}
	}()

	var views []model.PlayerView
	err := d.matches.Update(matchID, func(m *model.Match) error {
		if !m.IsActive {
			return nil
		}
		for _, p := range m.Players {
			if p.IsAlive {
				p.Regenerate(elapsed)
				continue
			}
			if !d.overdue(m.ID, p, now) {
				continue
			}
			if combat.Revive(p, now) {
				views = append(views, p.View())
			}
		}
		return nil
	})
	if err != nil {
		// The match emptied between listing and locking
		if !errors.Is(err, model.ErrMatchNotFound) {
			d.logger.Warn("tick failed", slog.String("match_id", string(matchID)), slog.Any("error", err))
		}
		return 0
	}

	for _, view := range views {
		d.logger.Warn("player revived by tick fallback",
			slog.String("match_id", string(matchID)),
			slog.String("player_id", string(view.ConnectionID)))
		d.publisher.Publish(ctx, model.GroupEvent(matchID, model.EventPlayerRespawned, view, now))
	}
	return len(views)
}

// overdue reports whether a dead player has waited out the respawn delay
// with nothing queued in the scheduler
func (d *Driver) overdue(matchID model.MatchID, p *model.Player, now time.Time) bool {
	if d.respawns.IsPending(matchID, p.ConnectionID) {
		return false
	}
	return !p.LastDeathTime.Add(d.respawns.Delay()).After(now)
}
