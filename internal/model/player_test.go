package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestGrowthAtLevelOneIsZero(t *testing.T) {
	assert.Equal(t, LevelGrowth{}, GrowthAt(1))
}

func TestGrowthAccumulatesPerLevel(t *testing.T) {
	g := GrowthAt(3)
	assert.Equal(t, 125.0, g.MaxHealth)
	assert.Equal(t, 40.0, g.MaxMana)
	assert.Equal(t, 12.0, g.AttackDamage)
	assert.InDelta(t, 0.2, g.HealthRegen, 1e-9)
	assert.InDelta(t, 0.1, g.ManaRegen, 1e-9)
}

func TestGrowthStopsAtMaxLevel(t *testing.T) {
	assert.Equal(t, GrowthAt(MaxLevel), GrowthAt(MaxLevel+5))
}

func TestLevelUpRaisesStats(t *testing.T) {
	p := NewPlayer("a", "alice", HeroNone, testNow)
	p.Health = 70

	require.True(t, p.GainExperience(ExperienceForNextLevel(1)))

	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 0, p.Experience)
	assert.Equal(t, BaseMaxHealth+60, p.MaxHealth())
	assert.Equal(t, 130.0, p.Health)
	assert.Equal(t, BaseMaxMana+20, p.MaxMana())
	assert.Equal(t, p.MaxMana(), p.Mana)
	assert.Equal(t, BaseAttackDamage+6, p.AttackDamage())
}

func TestHeroStatsGrowFromTemplate(t *testing.T) {
	p := NewPlayer("s", "sukuna", HeroSukuna, testNow)
	base := p.Hero()

	p.GainExperience(ExperienceForNextLevel(1) + ExperienceForNextLevel(2))

	assert.Equal(t, 3, p.Level)
	assert.Equal(t, base.MaxHealth+125, p.MaxHealth())
	assert.Equal(t, base.AttackDamage+12, p.AttackDamage())
	assert.InDelta(t, base.HealthRegen+0.2, p.HealthRegen(), 1e-9)
}

func TestDeadPlayerLevelsWithoutHealing(t *testing.T) {
	p := NewPlayer("a", "alice", HeroNone, testNow)
	p.IsAlive = false
	p.Health = 0

	require.True(t, p.GainExperience(ExperienceForNextLevel(1)))

	assert.Equal(t, 0.0, p.Health)
	assert.Equal(t, BaseMaxHealth+60, p.MaxHealth())
}

func TestExperienceBelowThresholdKeepsStats(t *testing.T) {
	p := NewPlayer("a", "alice", HeroNone, testNow)

	assert.False(t, p.GainExperience(ExperienceForNextLevel(1)-1))
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, BaseMaxHealth, p.MaxHealth())
	assert.Equal(t, BaseAttackDamage, p.AttackDamage())
}

func TestRegenerateUsesLevelRegen(t *testing.T) {
	p := NewPlayer("a", "alice", HeroNone, testNow)
	p.GainExperience(ExperienceForNextLevel(1))
	p.Health = 50

	p.Regenerate(10 * time.Second)

	assert.InDelta(t, 51.0, p.Health, 1e-9)
	assert.Equal(t, p.MaxMana(), p.Mana)
}
