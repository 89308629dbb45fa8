package model

import (
	"math"
	"time"
)

// ConnectionID identifies a player's live connection.
// It is the player's identity for the lifetime of the session.
type ConnectionID string

// TeamID is the side a player fights for
type TeamID int

const (
	TeamNone TeamID = 0
	Team1    TeamID = 1
	Team2    TeamID = 2
)

// Position is a point on the map
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Player is a participant in a match
type Player struct {
	ConnectionID   ConnectionID
	Username       string
	HeroID         HeroID
	TeamID         TeamID // assigned on join
	Health         float64
	Mana           float64
	IsAlive        bool
	Position       Position
	LastDeathTime  time.Time
	LastUpdateTime time.Time

	Level      int
	Experience int
	Kills      int
	Deaths     int
}

// NewPlayer creates a living player at full resources with no team
func NewPlayer(id ConnectionID, username string, heroID HeroID, now time.Time) *Player {
	p := &Player{
		ConnectionID:   id,
		Username:       username,
		HeroID:         heroID,
		IsAlive:        true,
		LastUpdateTime: now,
		Level:          1,
	}
	p.Health = p.MaxHealth()
	p.Mana = p.MaxMana()
	return p
}

// Hero returns the player's hero template, falling back to base stats
func (p *Player) Hero() Hero {
	if h, ok := LookupHero(p.HeroID); ok {
		return h
	}
	return baseHero()
}

// HasHero reports whether a real hero template is assigned
func (p *Player) HasHero() bool {
	if p.HeroID == HeroNone {
		return false
	}
	_, ok := LookupHero(p.HeroID)
	return ok
}

// MaxHealth returns the player's health cap at their current level
func (p *Player) MaxHealth() float64 {
	return p.Hero().MaxHealth + GrowthAt(p.Level).MaxHealth
}

// MaxMana returns the player's mana cap at their current level
func (p *Player) MaxMana() float64 {
	return p.Hero().MaxMana + GrowthAt(p.Level).MaxMana
}

// AttackDamage returns the damage of a basic attack
func (p *Player) AttackDamage() float64 {
	return p.Hero().AttackDamage + GrowthAt(p.Level).AttackDamage
}

// HealthRegen returns health restored per second
func (p *Player) HealthRegen() float64 {
	return p.Hero().HealthRegen + GrowthAt(p.Level).HealthRegen
}

// ManaRegen returns mana restored per second
func (p *Player) ManaRegen() float64 {
	return p.Hero().ManaRegen + GrowthAt(p.Level).ManaRegen
}

// Regenerate restores health and mana for an elapsed interval, clamped to max.
// Dead players do not regenerate.
func (p *Player) Regenerate(elapsed time.Duration) {
	if !p.IsAlive || elapsed <= 0 {
		return
	}
	secs := elapsed.Seconds()
	p.Health = math.Min(p.MaxHealth(), p.Health+p.HealthRegen()*secs)
	p.Mana = math.Min(p.MaxMana(), p.Mana+p.ManaRegen()*secs)
}

// GainExperience adds experience and applies any level ups.
// Each level raises the caps and grants the added health and mana immediately.
// Returns true if the player's level changed.
func (p *Player) GainExperience(amount int) bool {
	if amount <= 0 {
		return false
	}
	start := p.Level
	p.Experience += amount
	for p.Level < MaxLevel {
		required := ExperienceForNextLevel(p.Level)
		if p.Experience < required {
			break
		}
		p.Experience -= required
		p.Level++
	}
	if p.Level == start {
		return false
	}
	before, after := GrowthAt(start), GrowthAt(p.Level)
	if p.IsAlive {
		p.Health = math.Min(p.MaxHealth(), p.Health+after.MaxHealth-before.MaxHealth)
		p.Mana = math.Min(p.MaxMana(), p.Mana+after.MaxMana-before.MaxMana)
	}
	return true
}

// Clone returns a deep copy of the player
func (p *Player) Clone() *Player {
	c := *p
	return &c
}

// Registration records the identity a connection registered with
type Registration struct {
	ConnectionID ConnectionID `json:"connection_id"`
	Username     string       `json:"username"`
	HeroID       HeroID       `json:"hero_id"`
	RegisteredAt time.Time    `json:"registered_at"`
}
