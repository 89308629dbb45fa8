package response

import (
	"time"

	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/services/combat"
	"github.com/mcoot/mobaserver/internal/services/connection"
)

// Connection is the response for opening a connection
type Connection struct {
	ConnectionID string    `json:"connection_id"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ConnectionFromService converts an opened connection to a response
func ConnectionFromService(c *connection.Connection) Connection {
	return Connection{
		ConnectionID: string(c.ID),
		Token:        c.Token,
		ExpiresAt:    c.ExpiresAt,
	}
}

// Ability represents an ability in the hero catalog
type Ability struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Damage         float64 `json:"damage"`
	DamagePerLevel float64 `json:"damage_per_level,omitempty"`
	Range          float64 `json:"range"`
	AreaRadius     float64 `json:"area_radius,omitempty"`
	BuffDurationMs int64   `json:"buff_duration_ms,omitempty"`
	ManaCost       float64 `json:"mana_cost"`
}

// Hero represents a hero in the catalog
type Hero struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	MaxHealth    float64   `json:"max_health"`
	MaxMana      float64   `json:"max_mana"`
	AttackDamage float64   `json:"attack_damage"`
	AttackRange  float64   `json:"attack_range"`
	MoveSpeed    float64   `json:"move_speed"`
	HealthRegen  float64   `json:"health_regen"`
	ManaRegen    float64   `json:"mana_regen"`
	Armor        int       `json:"armor"`
	MagicResist  int       `json:"magic_resist"`
	Abilities    []Ability `json:"abilities"`
}

// HeroFromModel converts a model.Hero to a response Hero
func HeroFromModel(h model.Hero) Hero {
	abilities := make([]Ability, len(h.Abilities))
	for i, a := range h.Abilities {
		abilities[i] = Ability{
			ID:             int(a.ID),
			Name:           a.Name,
			Category:       string(a.Category),
			Damage:         a.Damage,
			DamagePerLevel: a.DamagePerLevel,
			Range:          a.Range,
			AreaRadius:     a.AreaRadius,
			BuffDurationMs: a.BuffDuration.Milliseconds(),
			ManaCost:       a.ManaCost,
		}
	}
	return Hero{
		ID:           int(h.ID),
		Name:         h.Name,
		MaxHealth:    h.MaxHealth,
		MaxMana:      h.MaxMana,
		AttackDamage: h.AttackDamage,
		AttackRange:  h.AttackRange,
		MoveSpeed:    h.MoveSpeed,
		HealthRegen:  h.HealthRegen,
		ManaRegen:    h.ManaRegen,
		Armor:        h.Armor,
		MagicResist:  h.MagicResist,
		Abilities:    abilities,
	}
}

// HeroList is the response for the hero catalog
type HeroList struct {
	Heroes []Hero `json:"heroes"`
}

// MatchList is the response for listing joinable matches
type MatchList struct {
	Matches []model.MatchListing `json:"matches"`
}

// MatchHistory is the response for archived match summaries
type MatchHistory struct {
	Matches []*model.MatchSummary `json:"matches"`
}

// AbilityResult is the response for a resolved ability
type AbilityResult struct {
	AbilityID     int            `json:"ability_id"`
	Name          string         `json:"name"`
	Damage        float64        `json:"damage"`
	Target        model.Position `json:"target"`
	ManaRemaining float64        `json:"mana_remaining"`
}

// AbilityResultFromOutcome converts a resolved ability to a response
func AbilityResultFromOutcome(o *combat.AbilityOutcome) AbilityResult {
	return AbilityResult{
		AbilityID:     int(o.Ability.ID),
		Name:          o.Ability.Name,
		Damage:        o.Damage,
		Target:        o.Target,
		ManaRemaining: o.ManaRemaining,
	}
}

// AttackResult is the response for a resolved basic attack
type AttackResult struct {
	TargetID  string  `json:"target_id"`
	Damage    float64 `json:"damage"`
	NewHealth float64 `json:"new_health"`
	Killed    bool    `json:"killed"`
}

// AttackResultFromOutcome converts a resolved attack to a response
func AttackResultFromOutcome(o *combat.AttackOutcome) AttackResult {
	return AttackResult{
		TargetID:  string(o.TargetID),
		Damage:    o.Damage,
		NewHealth: o.NewHealth,
		Killed:    o.Death != nil,
	}
}
