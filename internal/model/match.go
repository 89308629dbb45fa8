package model

import (
	"sort"
	"time"
)

// MatchID uniquely identifies a match
type MatchID string

// MatchState represents the lifecycle state of a match
type MatchState string

const (
	MatchStateWaiting    MatchState = "waiting"     // Not enough players on both teams
	MatchStateInProgress MatchState = "in_progress" // Both teams reached the minimum
	MatchStateFinished   MatchState = "finished"    // Terminal, currently never entered
)

// Match is one isolated game session
type Match struct {
	ID         MatchID
	StartTime  time.Time
	State      MatchState
	IsActive   bool
	Players    map[ConnectionID]*Player
	Team1Score int
	Team2Score int

	// Departed holds the final stats of players who have left
	Departed []PlayerSummary
}

// NewMatch creates an empty, waiting match
func NewMatch(id MatchID, now time.Time) *Match {
	return &Match{
		ID:        id,
		StartTime: now,
		State:     MatchStateWaiting,
		IsActive:  true,
		Players:   make(map[ConnectionID]*Player),
	}
}

// GetPlayer returns the player with the given connection, or nil
func (m *Match) GetPlayer(id ConnectionID) *Player {
	return m.Players[id]
}

// TeamCount returns the number of players on a team
func (m *Match) TeamCount(team TeamID) int {
	count := 0
	for _, p := range m.Players {
		if p.TeamID == team {
			count++
		}
	}
	return count
}

// Teammates returns the players on the given team, sorted by connection id
func (m *Match) Teammates(team TeamID) []*Player {
	var players []*Player
	for _, p := range m.Players {
		if p.TeamID == team {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].ConnectionID < players[j].ConnectionID
	})
	return players
}

// CreditKill adds a point to the given team's score
func (m *Match) CreditKill(team TeamID) {
	switch team {
	case Team1:
		m.Team1Score++
	case Team2:
		m.Team2Score++
	}
}

// Clone returns a deep copy of the match, safe to read without locks
func (m *Match) Clone() *Match {
	c := *m
	c.Players = make(map[ConnectionID]*Player, len(m.Players))
	for id, p := range m.Players {
		c.Players[id] = p.Clone()
	}
	c.Departed = append([]PlayerSummary(nil), m.Departed...)
	return &c
}

// Summary builds the archived record of the match
func (m *Match) Summary(endTime time.Time) MatchSummary {
	players := append([]PlayerSummary(nil), m.Departed...)
	for _, p := range m.Players {
		players = append(players, SummarizePlayer(p))
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].ConnectionID < players[j].ConnectionID
	})
	return MatchSummary{
		MatchID:    m.ID,
		StartTime:  m.StartTime,
		EndTime:    endTime,
		Team1Score: m.Team1Score,
		Team2Score: m.Team2Score,
		Players:    players,
	}
}

// PlayerSummary is a player's final line in a match summary
type PlayerSummary struct {
	ConnectionID ConnectionID `json:"connection_id"`
	Username     string       `json:"username"`
	HeroID       HeroID       `json:"hero_id"`
	TeamID       TeamID       `json:"team_id"`
	Level        int          `json:"level"`
	Kills        int          `json:"kills"`
	Deaths       int          `json:"deaths"`
}

// SummarizePlayer captures a player's stats for the match record
func SummarizePlayer(p *Player) PlayerSummary {
	return PlayerSummary{
		ConnectionID: p.ConnectionID,
		Username:     p.Username,
		HeroID:       p.HeroID,
		TeamID:       p.TeamID,
		Level:        p.Level,
		Kills:        p.Kills,
		Deaths:       p.Deaths,
	}
}

// MatchSummary is the archived record of a match that has been torn down
type MatchSummary struct {
	MatchID    MatchID         `json:"match_id"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	Team1Score int             `json:"team1_score"`
	Team2Score int             `json:"team2_score"`
	Players    []PlayerSummary `json:"players"`
}
