package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/mcoot/mobaserver/internal/dependencies/clock"
	"github.com/mcoot/mobaserver/internal/dependencies/random"
	"github.com/mcoot/mobaserver/internal/model"
)

const (
	DefaultMaxPlayersPerMatch = 10
	DefaultMaxPlayersPerTeam  = 5
	DefaultMinPlayersPerTeam  = 2
)

// Config holds match capacity settings
type Config struct {
	MaxPlayersPerMatch int
	MaxPlayersPerTeam  int
	// MinPlayersPerTeam is the headcount both teams need before a match starts
	MinPlayersPerTeam int
}

// DefaultConfig returns the standard 5v5 capacity settings
func DefaultConfig() Config {
	return Config{
		MaxPlayersPerMatch: DefaultMaxPlayersPerMatch,
		MaxPlayersPerTeam:  DefaultMaxPlayersPerTeam,
		MinPlayersPerTeam:  DefaultMinPlayersPerTeam,
	}
}

// entry guards a single match. Its mutex serializes every mutation of the
// match and its players. removed is set under the same mutex when the match
// leaves the registry so late arrivals never write into an orphan.
type entry struct {
	mu      sync.Mutex
	match   *model.Match
	removed bool
}

// Registry owns all live matches.
//
// Lock order: r.mu and an entry's mu are never held at the same time. Code
// that needs both takes one, releases it, then takes the other.
type Registry struct {
	mu      sync.RWMutex
	matches map[model.MatchID]*entry
	members map[model.ConnectionID]model.MatchID

	cfg    Config
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// New creates an empty Registry
func New(cfg Config, clock clock.Clock, random random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		matches: make(map[model.MatchID]*entry),
		members: make(map[model.ConnectionID]model.MatchID),
		cfg:     cfg,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// Config returns the registry's capacity settings
func (r *Registry) Config() Config {
	return r.cfg
}

// CreateMatch allocates a new empty match in the waiting state
func (r *Registry) CreateMatch() *model.Match {
	r.mu.Lock()
	id := r.newMatchIDLocked()
	m := model.NewMatch(id, r.clock.Now())
	r.matches[id] = &entry{match: m}
	total := len(r.matches)
	snapshot := m.Clone()
	r.mu.Unlock()

	r.logger.Info("match created",
		slog.String("match_id", string(id)),
		slog.Int("total_matches", total))
	return snapshot
}

// CreateMatchWith creates a match with player already seated in it. The
// match only becomes visible once the player is in, so a failed create
// never leaves an empty match behind.
func (r *Registry) CreateMatchWith(player *model.Player) (*model.Match, error) {
	connID := player.ConnectionID

	// e is unreachable until it is published below, so filling it in needs
	// only its own lock
	e := &entry{match: model.NewMatch("", r.clock.Now())}
	if _, _, err := r.insert(e, player); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, inMatch := r.members[connID]; inMatch {
		r.mu.Unlock()
		return nil, model.ErrAlreadyInMatch
	}
	id := r.newMatchIDLocked()
	e.match.ID = id
	r.matches[id] = e
	r.members[connID] = id
	total := len(r.matches)
	r.mu.Unlock()

	// Other goroutines may reach e from here on
	e.mu.Lock()
	snapshot := e.match.Clone()
	e.mu.Unlock()

	r.logger.Info("match created",
		slog.String("match_id", string(id)),
		slog.String("connection_id", string(connID)),
		slog.Int("total_matches", total))
	return snapshot, nil
}

// newMatchIDLocked draws ids until one is unused. r.mu must be held.
func (r *Registry) newMatchIDLocked() model.MatchID {
	for {
		id := model.MatchID(r.random.UUID())
		if _, exists := r.matches[id]; !exists {
			return id
		}
	}
}

// GetMatch returns a snapshot of a match
func (r *Registry) GetMatch(id model.MatchID) (*model.Match, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, model.ErrMatchNotFound
	}
	return e.match.Clone(), nil
}

// ListJoinable returns snapshots of matches that still have room, oldest first
func (r *Registry) ListJoinable() []*model.Match {
	return r.collect(func(m *model.Match) bool {
		return len(m.Players) < r.cfg.MaxPlayersPerMatch && m.State != model.MatchStateFinished
	})
}

// ListAll returns snapshots of every live match, oldest first
func (r *Registry) ListAll() []*model.Match {
	return r.collect(func(*model.Match) bool { return true })
}

// MatchIDs returns the ids of every live match
func (r *Registry) MatchIDs() []model.MatchID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]model.MatchID, 0, len(r.matches))
	for id := range r.matches {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live matches
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

// FindByConnection returns the match a connection currently belongs to
func (r *Registry) FindByConnection(id model.ConnectionID) (model.MatchID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matchID, ok := r.members[id]
	if !ok {
		return "", model.ErrNotInMatch
	}
	return matchID, nil
}

// AddPlayer assigns the player to the smaller team (ties go to team 1) and
// inserts it into the match. The registry takes ownership of a copy of player.
// Returns a snapshot of the match after the join.
func (r *Registry) AddPlayer(matchID model.MatchID, player *model.Player) (*model.Match, error) {
	connID := player.ConnectionID

	// Reserve the connection's membership first so a connection can never
	// end up in two matches at once.
	r.mu.Lock()
	e, ok := r.matches[matchID]
	if !ok {
		r.mu.Unlock()
		return nil, model.ErrMatchNotFound
	}
	if _, inMatch := r.members[connID]; inMatch {
		r.mu.Unlock()
		return nil, model.ErrAlreadyInMatch
	}
	r.members[connID] = matchID
	r.mu.Unlock()

	snapshot, team, err := r.insert(e, player)
	if err != nil {
		r.mu.Lock()
		if r.members[connID] == matchID {
			delete(r.members, connID)
		}
		r.mu.Unlock()
		return nil, err
	}

	r.logger.Info("player joined match",
		slog.String("match_id", string(matchID)),
		slog.String("connection_id", string(connID)),
		slog.Int("team", int(team)),
		slog.Int("player_count", len(snapshot.Players)),
		slog.String("state", string(snapshot.State)))
	return snapshot, nil
}

func (r *Registry) insert(e *entry, player *model.Player) (*model.Match, model.TeamID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil, model.TeamNone, model.ErrMatchNotFound
	}
	m := e.match
	if m.State == model.MatchStateFinished {
		return nil, model.TeamNone, model.ErrMatchFinished
	}
	if _, exists := m.Players[player.ConnectionID]; exists {
		return nil, model.TeamNone, model.ErrAlreadyInMatch
	}
	if len(m.Players) >= r.cfg.MaxPlayersPerMatch {
		return nil, model.TeamNone, model.ErrMatchFull
	}

	team1, team2 := m.TeamCount(model.Team1), m.TeamCount(model.Team2)
	if team1 >= r.cfg.MaxPlayersPerTeam && team2 >= r.cfg.MaxPlayersPerTeam {
		return nil, model.TeamNone, model.ErrBothTeamsFull
	}

	team := model.Team1
	if team1 > team2 {
		team = model.Team2
	}

	p := player.Clone()
	p.TeamID = team
	p.Position = model.SpawnPoint(team)
	p.LastUpdateTime = r.clock.Now()
	m.Players[p.ConnectionID] = p

	if team == model.Team1 {
		team1++
	} else {
		team2++
	}
	if m.State == model.MatchStateWaiting &&
		team1 >= r.cfg.MinPlayersPerTeam && team2 >= r.cfg.MinPlayersPerTeam {
		m.State = model.MatchStateInProgress
		r.logger.Info("match started", slog.String("match_id", string(m.ID)))
	}

	return m.Clone(), team, nil
}

// RemoveResult describes the outcome of RemovePlayer
type RemoveResult struct {
	// Player is the final state of the removed player
	Player *model.Player
	// Match is a snapshot of the match after removal
	Match *model.Match
	// MatchDeleted is true when the removal emptied the match
	MatchDeleted bool
}

// RemovePlayer removes a player from a match. A match left empty is deleted
// from the registry as part of the same call.
func (r *Registry) RemovePlayer(matchID model.MatchID, connID model.ConnectionID) (*RemoveResult, error) {
	e, err := r.lookup(matchID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil, model.ErrMatchNotFound
	}
	m := e.match
	p, ok := m.Players[connID]
	if !ok {
		e.mu.Unlock()
		return nil, model.ErrPlayerNotFound
	}
	delete(m.Players, connID)
	m.Departed = append(m.Departed, model.SummarizePlayer(p))
	empty := len(m.Players) == 0
	if empty {
		e.removed = true
		m.IsActive = false
	}
	result := &RemoveResult{Player: p.Clone(), Match: m.Clone(), MatchDeleted: empty}
	e.mu.Unlock()

	r.mu.Lock()
	if r.members[connID] == matchID {
		delete(r.members, connID)
	}
	if empty && r.matches[matchID] == e {
		delete(r.matches, matchID)
	}
	r.mu.Unlock()

	r.logger.Info("player left match",
		slog.String("match_id", string(matchID)),
		slog.String("connection_id", string(connID)),
		slog.Bool("match_deleted", empty))
	return result, nil
}

// Update runs fn with exclusive access to a match. fn must not retain the
// match or call back into the registry.
func (r *Registry) Update(matchID model.MatchID, fn func(m *model.Match) error) error {
	e, err := r.lookup(matchID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return model.ErrMatchNotFound
	}
	return fn(e.match)
}

// CleanupAll marks every match inactive and empties the registry.
// Returns snapshots of the matches that were live.
func (r *Registry) CleanupAll() []*model.Match {
	r.mu.Lock()
	entries := r.matches
	r.matches = make(map[model.MatchID]*entry)
	r.members = make(map[model.ConnectionID]model.MatchID)
	r.mu.Unlock()

	snapshots := make([]*model.Match, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			e.removed = true
			e.match.IsActive = false
			snapshots = append(snapshots, e.match.Clone())
		}
		e.mu.Unlock()
	}

	r.logger.Info("all matches cleaned up", slog.Int("matches", len(snapshots)))
	return snapshots
}

func (r *Registry) lookup(id model.MatchID) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return e, nil
}

func (r *Registry) collect(keep func(*model.Match) bool) []*model.Match {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.matches))
	for _, e := range r.matches {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var matches []*model.Match
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed && keep(e.match) {
			matches = append(matches, e.match.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].StartTime.Equal(matches[j].StartTime) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].StartTime.Before(matches[j].StartTime)
	})
	return matches
}
