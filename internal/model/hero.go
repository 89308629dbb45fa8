package model

import "time"

// HeroID selects a hero template. Zero means no hero is assigned.
type HeroID int

const (
	HeroNone      HeroID = 0
	HeroSukuna    HeroID = 1
	HeroAyaseMomo HeroID = 2
	HeroDenji     HeroID = 3
)

// Base stats for players without a hero template
const (
	BaseMaxHealth    = 100.0
	BaseMaxMana      = 100.0
	BaseAttackDamage = 10.0
	BaseAttackRange  = 50.0
	BaseMoveSpeed    = 1.0
)

// AbilityID identifies one of a hero's abilities (1..3)
type AbilityID int

// AbilityCategory describes what kind of effect an ability has
type AbilityCategory string

const (
	AbilityDamage     AbilityCategory = "damage"
	AbilityBuff       AbilityCategory = "buff"
	AbilityMovement   AbilityCategory = "movement"
	AbilityAreaEffect AbilityCategory = "area_effect"
)

// Ability is an immutable ability descriptor
type Ability struct {
	ID             AbilityID
	Name           string
	Category       AbilityCategory
	Damage         float64
	DamagePerLevel float64 // added once per caster level
	Range          float64
	AreaRadius     float64
	BuffDuration   time.Duration
	ManaCost       float64
}

// DamageAt returns the ability damage for a caster of the given level
func (a Ability) DamageAt(level int) float64 {
	return a.Damage + a.DamagePerLevel*float64(level)
}

// Hero is an immutable stat and ability table
type Hero struct {
	ID           HeroID
	Name         string
	MaxHealth    float64
	MaxMana      float64
	AttackDamage float64
	AttackRange  float64
	MoveSpeed    float64
	HealthRegen  float64 // per second
	ManaRegen    float64 // per second
	Armor        int
	MagicResist  int
	Abilities    []Ability
}

// Ability returns the ability with the given id
func (h Hero) Ability(id AbilityID) (Ability, bool) {
	for _, a := range h.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return Ability{}, false
}

// LookupHero returns the template for a hero id.
// HeroNone resolves to the base template, which has no abilities.
func LookupHero(id HeroID) (Hero, bool) {
	switch id {
	case HeroNone:
		return baseHero(), true
	case HeroSukuna:
		return Hero{
			ID:           HeroSukuna,
			Name:         "Sukuna",
			MaxHealth:    550,
			MaxMana:      250,
			AttackDamage: 35,
			AttackRange:  50,
			MoveSpeed:    1,
			HealthRegen:  0.5,
			ManaRegen:    1,
			Armor:        10,
			MagicResist:  15,
			Abilities: []Ability{
				{ID: 1, Name: "Kokusen", Category: AbilityBuff, Damage: 50, DamagePerLevel: 10, BuffDuration: 5 * time.Second, ManaCost: 40},
				{ID: 2, Name: "KamiHi", Category: AbilityDamage, Damage: 80, Range: 250, ManaCost: 60},
				{ID: 3, Name: "FukumaMizushi", Category: AbilityAreaEffect, Damage: 120, Range: 200, AreaRadius: 150, ManaCost: 100},
			},
		}, true
	case HeroAyaseMomo:
		return Hero{
			ID:           HeroAyaseMomo,
			Name:         "AyaseMomo",
			MaxHealth:    350,
			MaxMana:      200,
			AttackDamage: 25,
			AttackRange:  300,
			MoveSpeed:    1,
			HealthRegen:  1,
			ManaRegen:    1,
			Armor:        20,
			MagicResist:  20,
			Abilities: []Ability{
				{ID: 1, Name: "ORakendasu", Category: AbilityBuff, Range: 400, BuffDuration: 4 * time.Second, ManaCost: 30},
				{ID: 2, Name: "Omouchikara", Category: AbilityMovement, Damage: 20, Range: 350, ManaCost: 50},
				{ID: 3, Name: "MoeTriBeam", Category: AbilityDamage, Damage: 90, DamagePerLevel: 5, Range: 500, ManaCost: 70},
			},
		}, true
	case HeroDenji:
		return Hero{
			ID:           HeroDenji,
			Name:         "Denji",
			MaxHealth:    450,
			MaxMana:      150,
			AttackDamage: 30,
			AttackRange:  50,
			MoveSpeed:    1,
			HealthRegen:  0.75,
			ManaRegen:    0.5,
			Armor:        15,
			MagicResist:  10,
			Abilities: []Ability{
				{ID: 1, Name: "PikaPika", Category: AbilityDamage, Damage: 45, Range: 75, ManaCost: 20},
				{ID: 2, Name: "PikaPikaPika", Category: AbilityMovement, Range: 300, ManaCost: 35},
				{ID: 3, Name: "PikaPikaPikaPika", Category: AbilityAreaEffect, Damage: 100, Range: 100, AreaRadius: 120, ManaCost: 80},
			},
		}, true
	default:
		return Hero{}, false
	}
}

// Heroes returns every selectable hero, in id order
func Heroes() []Hero {
	ids := []HeroID{HeroSukuna, HeroAyaseMomo, HeroDenji}
	heroes := make([]Hero, 0, len(ids))
	for _, id := range ids {
		h, _ := LookupHero(id)
		heroes = append(heroes, h)
	}
	return heroes
}

func baseHero() Hero {
	return Hero{
		ID:           HeroNone,
		Name:         "None",
		MaxHealth:    BaseMaxHealth,
		MaxMana:      BaseMaxMana,
		AttackDamage: BaseAttackDamage,
		AttackRange:  BaseAttackRange,
		MoveSpeed:    BaseMoveSpeed,
	}
}

// Experience and levelling

const (
	// MaxLevel caps player level
	MaxLevel = 18
	// KillExperience is granted to the attacker for each kill
	KillExperience = 250
)

// ExperienceForNextLevel returns the total experience needed to advance past level
func ExperienceForNextLevel(level int) int {
	d := level - 2
	return 10*d*d + 468
}

// Stat growth applied on reaching each level past the first
const (
	HealthPerLevel      = 50.0 // plus HealthPerLevelStep times the new level
	HealthPerLevelStep  = 5.0
	HealthRegenPerLevel = 0.1
	ManaPerLevel        = 20.0
	ManaRegenPerLevel   = 0.05
	DamagePerLevel      = 5.0 // plus half the new level, rounded down
)

// LevelGrowth is the stat bonus accumulated by levelling up
type LevelGrowth struct {
	MaxHealth    float64
	MaxMana      float64
	AttackDamage float64
	HealthRegen  float64
	ManaRegen    float64
}

// GrowthAt returns the total bonus a player at level has over level 1
func GrowthAt(level int) LevelGrowth {
	var g LevelGrowth
	for l := 2; l <= min(level, MaxLevel); l++ {
		g.MaxHealth += HealthPerLevel + HealthPerLevelStep*float64(l)
		g.MaxMana += ManaPerLevel
		g.AttackDamage += DamagePerLevel + float64(l/2)
		g.HealthRegen += HealthRegenPerLevel
		g.ManaRegen += ManaRegenPerLevel
	}
	return g
}
