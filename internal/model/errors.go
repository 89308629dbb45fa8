package model

import "errors"

// Error categories. Every specific error below wraps exactly one of these so
// callers can branch on errors.Is(err, ErrNotFound) and friends.
var (
	ErrNotFound      = errors.New("not found")
	ErrFull          = errors.New("capacity exceeded")
	ErrInvalidAction = errors.New("invalid action")
	ErrStateMismatch = errors.New("state mismatch")
)

// categorizedError carries a human readable message and unwraps to its category
type categorizedError struct {
	msg      string
	category error
}

func (e *categorizedError) Error() string { return e.msg }

func (e *categorizedError) Unwrap() error { return e.category }

func newError(category error, msg string) error {
	return &categorizedError{msg: msg, category: category}
}

// Common errors used across the application
var (
	// Lookup errors
	ErrMatchNotFound        = newError(ErrNotFound, "match not found")
	ErrPlayerNotFound       = newError(ErrNotFound, "player not found")
	ErrHeroNotFound         = newError(ErrNotFound, "hero not found")
	ErrRegistrationNotFound = newError(ErrNotFound, "player is not registered")
	ErrNotInMatch           = newError(ErrNotFound, "player is not in this match")

	// Capacity errors
	ErrMatchFull     = newError(ErrFull, "match is full")
	ErrBothTeamsFull = newError(ErrFull, "both teams are full")

	// Combat errors
	ErrSelfAttack   = newError(ErrInvalidAction, "cannot attack yourself")
	ErrFriendlyFire = newError(ErrInvalidAction, "cannot attack a teammate")
	ErrAttackerDead = newError(ErrInvalidAction, "attacker is dead")
	ErrTargetDead   = newError(ErrInvalidAction, "target is already dead")

	// Ability and action errors
	ErrNoHero           = newError(ErrInvalidAction, "no hero assigned")
	ErrUnknownAbility   = newError(ErrInvalidAction, "unknown ability")
	ErrCasterDead       = newError(ErrInvalidAction, "caster is dead")
	ErrInsufficientMana = newError(ErrInvalidAction, "not enough mana")
	ErrMoveWhileDead    = newError(ErrInvalidAction, "cannot move while dead")
	ErrAlreadyInMatch   = newError(ErrInvalidAction, "player is already in a match")
	ErrInvalidUsername  = newError(ErrInvalidAction, "username must be 1 to 32 characters")
	ErrEmptyChatMessage = newError(ErrInvalidAction, "message must not be empty")

	// Lifecycle errors
	ErrMatchFinished = newError(ErrStateMismatch, "match has finished")
)
