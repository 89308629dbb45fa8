package combat

import (
	"math"
	"time"

	"github.com/mcoot/mobaserver/internal/model"
)

// Every function in this package mutates the match it is handed and must be
// called with exclusive access to that match (registry.Update).

// DeathOccurred reports a single alive-to-dead transition. The caller forwards
// it to the respawn scheduler.
type DeathOccurred struct {
	MatchID  model.MatchID
	TargetID model.ConnectionID
	KillerID model.ConnectionID
	At       time.Time
}

// AttackOutcome is the result of a successful basic attack
type AttackOutcome struct {
	AttackerID model.ConnectionID
	TargetID   model.ConnectionID
	Damage     float64
	NewHealth  float64
	// Death is non-nil exactly when this attack killed the target
	Death *DeathOccurred
	// AttackerLeveledUp is set when kill experience raised the attacker's level
	AttackerLeveledUp bool
}

// ResolveAttack applies a basic attack from attacker to target.
//
// Preconditions are checked in order and the first failure is returned with
// no mutation: both players exist, attacker is not the target, attacker is
// alive, target is alive, players are on different teams.
func ResolveAttack(m *model.Match, attackerID, targetID model.ConnectionID, now time.Time) (*AttackOutcome, error) {
	attacker := m.GetPlayer(attackerID)
	target := m.GetPlayer(targetID)
	if attacker == nil || target == nil {
		return nil, model.ErrPlayerNotFound
	}
	if attackerID == targetID {
		return nil, model.ErrSelfAttack
	}
	if !attacker.IsAlive {
		return nil, model.ErrAttackerDead
	}
	if !target.IsAlive {
		return nil, model.ErrTargetDead
	}
	if attacker.TeamID == target.TeamID {
		return nil, model.ErrFriendlyFire
	}

	damage := attacker.AttackDamage()
	target.Health = math.Max(0, target.Health-damage)
	target.LastUpdateTime = now

	outcome := &AttackOutcome{
		AttackerID: attackerID,
		TargetID:   targetID,
		Damage:     damage,
		NewHealth:  target.Health,
	}

	if target.Health == 0 {
		kill(target, now)
		attacker.Kills++
		m.CreditKill(attacker.TeamID)
		outcome.AttackerLeveledUp = attacker.GainExperience(model.KillExperience)
		outcome.Death = &DeathOccurred{
			MatchID:  m.ID,
			TargetID: targetID,
			KillerID: attackerID,
			At:       now,
		}
	}

	return outcome, nil
}

// kill performs the alive-to-dead transition. The caller has already checked
// the target was alive, so this runs at most once per death.
func kill(target *model.Player, now time.Time) {
	target.IsAlive = false
	target.LastDeathTime = now
	target.Deaths++
	target.Position = model.SpawnPoint(target.TeamID)
}

// AbilityOutcome describes a resolved ability. It is declarative: resolving
// an ability never changes another player's health.
type AbilityOutcome struct {
	CasterID      model.ConnectionID
	Ability       model.Ability
	Damage        float64
	Target        model.Position
	ManaRemaining float64
}

// ResolveAbility resolves an ability cast against the caster's hero table and
// deducts its mana cost.
func ResolveAbility(m *model.Match, casterID model.ConnectionID, abilityID model.AbilityID, target model.Position, now time.Time) (*AbilityOutcome, error) {
	caster := m.GetPlayer(casterID)
	if caster == nil {
		return nil, model.ErrPlayerNotFound
	}
	if !caster.HasHero() {
		return nil, model.ErrNoHero
	}
	ability, ok := caster.Hero().Ability(abilityID)
	if !ok {
		return nil, model.ErrUnknownAbility
	}
	if !caster.IsAlive {
		return nil, model.ErrCasterDead
	}
	if caster.Mana < ability.ManaCost {
		return nil, model.ErrInsufficientMana
	}

	caster.Mana -= ability.ManaCost
	caster.LastUpdateTime = now

	return &AbilityOutcome{
		CasterID:      casterID,
		Ability:       ability,
		Damage:        ability.DamageAt(caster.Level),
		Target:        target,
		ManaRemaining: caster.Mana,
	}, nil
}

// Move records a player's reported position
func Move(m *model.Match, id model.ConnectionID, to model.Position, now time.Time) error {
	p := m.GetPlayer(id)
	if p == nil {
		return model.ErrPlayerNotFound
	}
	if !p.IsAlive {
		return model.ErrMoveWhileDead
	}
	p.Position = to
	p.LastUpdateTime = now
	return nil
}

// Revive restores a dead player to full health and mana at its team spawn.
// Reviving a living player is a no-op and returns false.
func Revive(p *model.Player, now time.Time) bool {
	if p.IsAlive {
		return false
	}
	p.IsAlive = true
	p.Health = p.MaxHealth()
	p.Mana = p.MaxMana()
	p.Position = model.SpawnPoint(p.TeamID)
	p.LastUpdateTime = now
	return true
}
