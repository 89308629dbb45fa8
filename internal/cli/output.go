package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case ConnectionResult:
		o.printConnection(v)
	case PlayerView:
		o.printPlayer(v)
	case HeroList:
		o.printHeroes(v)
	case MatchView:
		o.printMatch(v)
	case MatchList:
		o.printMatchList(v)
	case MatchHistory:
		o.printHistory(v)
	case AttackResult:
		o.printAttack(v)
	case AbilityResult:
		o.printAbility(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// ConnectionResult response type
type ConnectionResult struct {
	ConnectionID string    `json:"connection_id"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Position response type
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerView response type
type PlayerView struct {
	ConnectionID string   `json:"connection_id"`
	Username     string   `json:"username"`
	HeroID       int      `json:"hero_id"`
	TeamID       int      `json:"team_id"`
	Position     Position `json:"position"`
	Health       float64  `json:"health"`
	MaxHealth    float64  `json:"max_health"`
	Mana         float64  `json:"mana"`
	MaxMana      float64  `json:"max_mana"`
	Level        int      `json:"level"`
	IsAlive      bool     `json:"is_alive"`
	Kills        int      `json:"kills"`
	Deaths       int      `json:"deaths"`
}

// Ability response type
type Ability struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Damage   float64 `json:"damage"`
	Range    float64 `json:"range"`
	ManaCost float64 `json:"mana_cost"`
}

// Hero response type
type Hero struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	MaxHealth    float64   `json:"max_health"`
	MaxMana      float64   `json:"max_mana"`
	AttackDamage float64   `json:"attack_damage"`
	AttackRange  float64   `json:"attack_range"`
	Abilities    []Ability `json:"abilities"`
}

// HeroList response type
type HeroList struct {
	Heroes []Hero `json:"heroes"`
}

// MatchView response type
type MatchView struct {
	MatchID    string       `json:"match_id"`
	State      string       `json:"state"`
	IsActive   bool         `json:"is_active"`
	Team1Score int          `json:"team1_score"`
	Team2Score int          `json:"team2_score"`
	Players    []PlayerView `json:"players"`
}

// MatchListing response type
type MatchListing struct {
	MatchID     string `json:"match_id"`
	State       string `json:"state"`
	PlayerCount int    `json:"player_count"`
	Team1Count  int    `json:"team1_count"`
	Team2Count  int    `json:"team2_count"`
}

// MatchList response type
type MatchList struct {
	Matches []MatchListing `json:"matches"`
}

// MatchSummary response type
type MatchSummary struct {
	MatchID    string    `json:"match_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Team1Score int       `json:"team1_score"`
	Team2Score int       `json:"team2_score"`
}

// MatchHistory response type
type MatchHistory struct {
	Matches []MatchSummary `json:"matches"`
}

// AttackResult response type
type AttackResult struct {
	TargetID  string  `json:"target_id"`
	Damage    float64 `json:"damage"`
	NewHealth float64 `json:"new_health"`
	Killed    bool    `json:"killed"`
}

// AbilityResult response type
type AbilityResult struct {
	AbilityID     int      `json:"ability_id"`
	Name          string   `json:"name"`
	Damage        float64  `json:"damage"`
	Target        Position `json:"target"`
	ManaRemaining float64  `json:"mana_remaining"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printConnection(c ConnectionResult) {
	fmt.Fprintf(o.w, "Connection: %s\n", c.ConnectionID)
	fmt.Fprintf(o.w, "Expires: %s\n", c.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printPlayer(p PlayerView) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Username, p.ConnectionID)
	fmt.Fprintf(o.w, "Hero: %d  Level: %d\n", p.HeroID, p.Level)
	fmt.Fprintf(o.w, "Health: %.0f/%.0f  Mana: %.0f/%.0f\n", p.Health, p.MaxHealth, p.Mana, p.MaxMana)
}

func (o *Output) printHeroes(h HeroList) {
	for _, hero := range h.Heroes {
		fmt.Fprintf(o.w, "%d. %s  hp %.0f  mana %.0f  atk %.0f (range %.0f)\n",
			hero.ID, hero.Name, hero.MaxHealth, hero.MaxMana, hero.AttackDamage, hero.AttackRange)
		for _, a := range hero.Abilities {
			fmt.Fprintf(o.w, "   [%d] %s (%s) dmg %.0f, cost %.0f\n", a.ID, a.Name, a.Category, a.Damage, a.ManaCost)
		}
	}
}

func (o *Output) printMatch(m MatchView) {
	fmt.Fprintf(o.w, "Match: %s\n", m.MatchID)
	fmt.Fprintf(o.w, "State: %s\n", m.State)
	fmt.Fprintf(o.w, "Score: %d - %d\n", m.Team1Score, m.Team2Score)
	fmt.Fprintf(o.w, "Players (%d):\n", len(m.Players))
	for _, p := range m.Players {
		status := ""
		if !p.IsAlive {
			status = " [dead]"
		}
		fmt.Fprintf(o.w, "  - team %d: %s (%s) %.0f/%.0f hp, %d/%d K/D%s\n",
			p.TeamID, p.Username, p.ConnectionID, p.Health, p.MaxHealth, p.Kills, p.Deaths, status)
	}
}

func (o *Output) printMatchList(l MatchList) {
	if len(l.Matches) == 0 {
		fmt.Fprintln(o.w, "No joinable matches")
		return
	}
	for _, m := range l.Matches {
		fmt.Fprintf(o.w, "%s  %s  %d players (%d v %d)\n", m.MatchID, m.State, m.PlayerCount, m.Team1Count, m.Team2Count)
	}
}

func (o *Output) printHistory(h MatchHistory) {
	if len(h.Matches) == 0 {
		fmt.Fprintln(o.w, "No finished matches")
		return
	}
	for _, m := range h.Matches {
		fmt.Fprintf(o.w, "%s  %d - %d  ended %s (%s)\n",
			m.MatchID, m.Team1Score, m.Team2Score, m.EndTime.Format(time.RFC3339), m.EndTime.Sub(m.StartTime).Round(time.Second))
	}
}

func (o *Output) printAttack(a AttackResult) {
	fmt.Fprintf(o.w, "Hit %s for %.0f, %.0f health left\n", a.TargetID, a.Damage, a.NewHealth)
	if a.Killed {
		fmt.Fprintln(o.w, "Target killed!")
	}
}

func (o *Output) printAbility(a AbilityResult) {
	fmt.Fprintf(o.w, "Cast %s at (%s) for %.0f damage, %.0f mana left\n",
		a.Name, formatPosition(a.Target), a.Damage, a.ManaRemaining)
}

func formatPosition(p Position) string {
	return fmt.Sprintf("%g, %g", p.X, p.Y)
}
