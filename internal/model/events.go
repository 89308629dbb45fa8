package model

import (
	"context"
	"sort"
	"time"
)

// EventType identifies the type of event
type EventType string

const (
	// Connection events
	EventRegistrationConfirmed EventType = "registration_confirmed"
	EventAvailableMatches      EventType = "available_matches"
	EventError                 EventType = "error"

	// Match membership events
	EventMatchState   EventType = "match_state"
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"

	// Gameplay events
	EventPlayerMoved     EventType = "player_moved"
	EventAbilityUsed     EventType = "ability_used"
	EventPlayerAttacked  EventType = "player_attacked"
	EventPlayerDied      EventType = "player_died"
	EventPlayerRespawned EventType = "player_respawned"

	// Chat events
	EventChatMessage     EventType = "chat_message"
	EventTeamChatMessage EventType = "team_chat_message"
)

// Scope says who an event is delivered to
type Scope int

const (
	ScopeCaller     Scope = iota // the connection that issued the command
	ScopeGroup                   // every connection in the match group
	ScopeConnection              // one other connection
)

// Event is an outbound state change for the transport to fan out
type Event struct {
	Type      EventType
	Scope     Scope
	Target    ConnectionID // set for ScopeCaller and ScopeConnection
	MatchID   MatchID      // set for ScopeGroup
	Timestamp time.Time
	Payload   any
}

// CallerEvent builds an event addressed to the calling connection
func CallerEvent(caller ConnectionID, t EventType, payload any, now time.Time) Event {
	return Event{Type: t, Scope: ScopeCaller, Target: caller, Timestamp: now, Payload: payload}
}

// GroupEvent builds an event addressed to every connection in a match
func GroupEvent(matchID MatchID, t EventType, payload any, now time.Time) Event {
	return Event{Type: t, Scope: ScopeGroup, MatchID: matchID, Timestamp: now, Payload: payload}
}

// ConnectionEvent builds an event addressed to one specific connection
func ConnectionEvent(target ConnectionID, t EventType, payload any, now time.Time) Event {
	return Event{Type: t, Scope: ScopeConnection, Target: target, Timestamp: now, Payload: payload}
}

// Publisher is the outbound boundary. Implementations must not block.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	JoinGroup(matchID MatchID, id ConnectionID)
	LeaveGroup(matchID MatchID, id ConnectionID)
}

// Wire payloads

// PlayerView is the snapshot of a player sent to clients
type PlayerView struct {
	ConnectionID ConnectionID `json:"connection_id"`
	Username     string       `json:"username"`
	HeroID       HeroID       `json:"hero_id"`
	TeamID       TeamID       `json:"team_id"`
	Health       float64      `json:"health"`
	MaxHealth    float64      `json:"max_health"`
	Mana         float64      `json:"mana"`
	MaxMana      float64      `json:"max_mana"`
	IsAlive      bool         `json:"is_alive"`
	Position     Position     `json:"position"`
	Level        int          `json:"level"`
	Kills        int          `json:"kills"`
	Deaths       int          `json:"deaths"`
}

// View converts a player to its wire snapshot
func (p *Player) View() PlayerView {
	return PlayerView{
		ConnectionID: p.ConnectionID,
		Username:     p.Username,
		HeroID:       p.HeroID,
		TeamID:       p.TeamID,
		Health:       p.Health,
		MaxHealth:    p.MaxHealth(),
		Mana:         p.Mana,
		MaxMana:      p.MaxMana(),
		IsAlive:      p.IsAlive,
		Position:     p.Position,
		Level:        p.Level,
		Kills:        p.Kills,
		Deaths:       p.Deaths,
	}
}

// MatchView is the full snapshot of a match sent to clients
type MatchView struct {
	MatchID    MatchID      `json:"match_id"`
	State      MatchState   `json:"state"`
	IsActive   bool         `json:"is_active"`
	StartTime  time.Time    `json:"start_time"`
	Team1Score int          `json:"team1_score"`
	Team2Score int          `json:"team2_score"`
	Players    []PlayerView `json:"players"`
}

// View converts a match to its wire snapshot, players sorted by team then id
func (m *Match) View() MatchView {
	players := make([]PlayerView, 0, len(m.Players))
	for _, p := range m.Players {
		players = append(players, p.View())
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].TeamID != players[j].TeamID {
			return players[i].TeamID < players[j].TeamID
		}
		return players[i].ConnectionID < players[j].ConnectionID
	})
	return MatchView{
		MatchID:    m.ID,
		State:      m.State,
		IsActive:   m.IsActive,
		StartTime:  m.StartTime,
		Team1Score: m.Team1Score,
		Team2Score: m.Team2Score,
		Players:    players,
	}
}

// MatchListing is the short form of a match used in lobby listings
type MatchListing struct {
	MatchID     MatchID    `json:"match_id"`
	State       MatchState `json:"state"`
	PlayerCount int        `json:"player_count"`
	Team1Count  int        `json:"team1_count"`
	Team2Count  int        `json:"team2_count"`
}

// Listing converts a match to its lobby listing
func (m *Match) Listing() MatchListing {
	return MatchListing{
		MatchID:     m.ID,
		State:       m.State,
		PlayerCount: len(m.Players),
		Team1Count:  m.TeamCount(Team1),
		Team2Count:  m.TeamCount(Team2),
	}
}

// AvailableMatchesPayload lists joinable matches
type AvailableMatchesPayload struct {
	Matches []MatchListing `json:"matches"`
}

// PlayerJoinedPayload announces a new player in a match
type PlayerJoinedPayload struct {
	Player PlayerView `json:"player"`
}

// PlayerLeftPayload announces a player leaving a match
type PlayerLeftPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
}

// PlayerMovedPayload announces a position update
type PlayerMovedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	X            float64      `json:"x"`
	Y            float64      `json:"y"`
}

// AbilityUsedPayload describes a resolved ability
type AbilityUsedPayload struct {
	CasterID       ConnectionID    `json:"caster_id"`
	AbilityID      AbilityID       `json:"ability_id"`
	Name           string          `json:"name"`
	Category       AbilityCategory `json:"category"`
	Damage         float64         `json:"damage"`
	Range          float64         `json:"range"`
	AreaRadius     float64         `json:"area_radius"`
	BuffDurationMs int64           `json:"buff_duration_ms"`
	Target         Position        `json:"target"`
	ManaRemaining  float64         `json:"mana_remaining"`
}

// PlayerAttackedPayload announces a basic attack hit
type PlayerAttackedPayload struct {
	AttackerID ConnectionID `json:"attacker_id"`
	TargetID   ConnectionID `json:"target_id"`
	Damage     float64      `json:"damage"`
	NewHealth  float64      `json:"new_health"`
}

// PlayerDiedPayload announces a death
type PlayerDiedPayload struct {
	TargetID ConnectionID `json:"target_id"`
	KillerID ConnectionID `json:"killer_id"`
}

// ChatMessagePayload carries a chat line
type ChatMessagePayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	Username     string       `json:"username"`
	TeamID       TeamID       `json:"team_id"`
	Message      string       `json:"message"`
}

// ErrorPayload carries a rejection reason back to the caller
type ErrorPayload struct {
	Message string `json:"message"`
}
