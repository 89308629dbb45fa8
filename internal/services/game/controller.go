package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/mobaserver/internal/dependencies/clock"
	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/services/combat"
	"github.com/mcoot/mobaserver/internal/services/registry"
	"github.com/mcoot/mobaserver/internal/services/respawn"
	"github.com/mcoot/mobaserver/internal/storage"
)

const (
	// MaxUsernameLength is the longest username accepted at registration
	MaxUsernameLength = 32
	// MaxChatLength is the longest chat message relayed
	MaxChatLength = 500
)

// Controller applies inbound player commands to the match engine and emits
// the resulting events. Every command is issued on behalf of a caller
// connection; a rejected command is reported to that caller as an error event
// and also returned.
type Controller struct {
	registry  *registry.Registry
	scheduler *respawn.Scheduler
	storage   storage.Storage
	publisher model.Publisher
	clock     clock.Clock
	logger    *slog.Logger
}

// NewController creates a new Controller
func NewController(
	registry *registry.Registry,
	scheduler *respawn.Scheduler,
	storage storage.Storage,
	publisher model.Publisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		registry:  registry,
		scheduler: scheduler,
		storage:   storage,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With(slog.String("component", "game")),
	}
}

// Register records the username and hero a connection will play with
func (c *Controller) Register(ctx context.Context, caller model.ConnectionID, username string, heroID model.HeroID) (*model.PlayerView, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, c.reject(ctx, caller, "register", model.ErrInvalidUsername)
	}
	if _, ok := model.LookupHero(heroID); !ok {
		return nil, c.reject(ctx, caller, "register", model.ErrHeroNotFound)
	}

	now := c.clock.Now()
	reg := &model.Registration{
		ConnectionID: caller,
		Username:     username,
		HeroID:       heroID,
		RegisteredAt: now,
	}
	if err := c.storage.SaveRegistration(ctx, reg); err != nil {
		c.logger.Error("failed to save registration",
			slog.String("connection_id", string(caller)),
			slog.String("error", err.Error()),
		)
		return nil, c.reject(ctx, caller, "register", err)
	}

	view := model.NewPlayer(caller, username, heroID, now).View()
	c.publisher.Publish(ctx, model.CallerEvent(caller, model.EventRegistrationConfirmed, view, now))

	c.logger.Info("player registered",
		slog.String("connection_id", string(caller)),
		slog.String("username", username),
		slog.Int("hero_id", int(heroID)),
	)
	return &view, nil
}

// CreateAndJoinMatch creates a new match and puts the caller in it
func (c *Controller) CreateAndJoinMatch(ctx context.Context, caller model.ConnectionID) (*model.MatchView, error) {
	player, err := c.newPlayer(ctx, caller)
	if err != nil {
		return nil, c.reject(ctx, caller, "create_match", err)
	}

	snapshot, err := c.registry.CreateMatchWith(player)
	if err != nil {
		return nil, c.reject(ctx, caller, "create_match", err)
	}
	return c.joined(ctx, caller, snapshot), nil
}

// JoinMatch adds the caller to a match. Registered connections play as their
// registered hero; others get a default player.
func (c *Controller) JoinMatch(ctx context.Context, caller model.ConnectionID, matchID model.MatchID) (*model.MatchView, error) {
	player, err := c.newPlayer(ctx, caller)
	if err != nil {
		return nil, c.reject(ctx, caller, "join_match", err)
	}

	snapshot, err := c.registry.AddPlayer(matchID, player)
	if err != nil {
		return nil, c.reject(ctx, caller, "join_match", err)
	}
	return c.joined(ctx, caller, snapshot), nil
}

// joined subscribes the caller to its match and announces the join
func (c *Controller) joined(ctx context.Context, caller model.ConnectionID, snapshot *model.Match) *model.MatchView {
	now := c.clock.Now()
	joined := snapshot.GetPlayer(caller)
	view := snapshot.View()

	c.publisher.JoinGroup(snapshot.ID, caller)
	c.publisher.Publish(ctx, model.GroupEvent(snapshot.ID, model.EventPlayerJoined, model.PlayerJoinedPayload{Player: joined.View()}, now))
	c.publisher.Publish(ctx, model.CallerEvent(caller, model.EventMatchState, view, now))

	c.logger.Info("player joined match",
		slog.String("match_id", string(snapshot.ID)),
		slog.String("connection_id", string(caller)),
		slog.String("username", joined.Username),
		slog.Int("team", int(joined.TeamID)),
	)
	return &view
}

func (c *Controller) newPlayer(ctx context.Context, caller model.ConnectionID) (*model.Player, error) {
	now := c.clock.Now()
	reg, err := c.storage.GetRegistration(ctx, caller)
	if err != nil {
		if !errors.Is(err, model.ErrRegistrationNotFound) {
			return nil, err
		}
		return model.NewPlayer(caller, DefaultUsername(caller), model.HeroNone, now), nil
	}
	return model.NewPlayer(caller, reg.Username, reg.HeroID, now), nil
}

// DefaultUsername is the name given to a player who never registered
func DefaultUsername(id model.ConnectionID) string {
	s := string(id)
	if len(s) > 5 {
		s = s[:5]
	}
	return "Player_" + s
}

// LeaveMatch removes the caller from a match. Leaving the last seat deletes
// the match and archives its summary.
func (c *Controller) LeaveMatch(ctx context.Context, caller model.ConnectionID, matchID model.MatchID) error {
	if err := c.leave(ctx, caller, matchID); err != nil {
		return c.reject(ctx, caller, "leave_match", err)
	}
	return nil
}

func (c *Controller) leave(ctx context.Context, caller model.ConnectionID, matchID model.MatchID) error {
	result, err := c.registry.RemovePlayer(matchID, caller)
	if err != nil {
		return notInMatch(err)
	}
	c.scheduler.Cancel(matchID, caller)

	now := c.clock.Now()
	c.publisher.LeaveGroup(matchID, caller)
	c.publisher.Publish(ctx, model.GroupEvent(matchID, model.EventPlayerLeft, model.PlayerLeftPayload{ConnectionID: caller}, now))

	c.logger.Info("player left match",
		slog.String("match_id", string(matchID)),
		slog.String("connection_id", string(caller)),
		slog.Bool("match_deleted", result.MatchDeleted),
	)

	if result.MatchDeleted {
		c.archive(ctx, result.Match)
	}
	return nil
}

// archive stores the summary of a match that has left the registry.
// Failure is logged and never fails the command that ended the match.
func (c *Controller) archive(ctx context.Context, m *model.Match) {
	summary := m.Summary(c.clock.Now())
	if err := c.storage.SaveMatchSummary(ctx, &summary); err != nil {
		c.logger.Error("failed to archive match",
			slog.String("match_id", string(m.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	c.logger.Info("match archived",
		slog.String("match_id", string(m.ID)),
		slog.Int("team1_score", summary.Team1Score),
		slog.Int("team2_score", summary.Team2Score),
		slog.Int("players", len(summary.Players)),
	)
}

// MovePlayer records the caller's reported position
func (c *Controller) MovePlayer(ctx context.Context, caller model.ConnectionID, matchID model.MatchID, to model.Position) error {
	now := c.clock.Now()
	err := c.registry.Update(matchID, func(m *model.Match) error {
		return combat.Move(m, caller, to, now)
	})
	if err != nil {
		return c.reject(ctx, caller, "move", notInMatch(err))
	}

	c.publisher.Publish(ctx, model.GroupEvent(matchID, model.EventPlayerMoved, model.PlayerMovedPayload{
		ConnectionID: caller,
		X:            to.X,
		Y:            to.Y,
	}, now))
	return nil
}

// UseAbility resolves one of the caller's hero abilities
func (c *Controller) UseAbility(ctx context.Context, caller model.ConnectionID, matchID model.MatchID, abilityID model.AbilityID, target model.Position) (*combat.AbilityOutcome, error) {
	now := c.clock.Now()
	var outcome *combat.AbilityOutcome
	err := c.registry.Update(matchID, func(m *model.Match) error {
		var err error
		outcome, err = combat.ResolveAbility(m, caller, abilityID, target, now)
		return err
	})
	if err != nil {
		return nil, c.reject(ctx, caller, "use_ability", notInMatch(err))
	}

	a := outcome.Ability
	c.publisher.Publish(ctx, model.GroupEvent(matchID, model.EventAbilityUsed, model.AbilityUsedPayload{
		CasterID:       caller,
		AbilityID:      a.ID,
		Name:           a.Name,
		Category:       a.Category,
		Damage:         outcome.Damage,
		Range:          a.Range,
		AreaRadius:     a.AreaRadius,
		BuffDurationMs: a.BuffDuration.Milliseconds(),
		Target:         outcome.Target,
		ManaRemaining:  outcome.ManaRemaining,
	}, now))

	c.logger.Info("ability used",
		slog.String("match_id", string(matchID)),
		slog.String("connection_id", string(caller)),
		slog.String("ability", a.Name),
	)
	return outcome, nil
}

// AttackPlayer resolves a basic attack from the caller on target. A killing
// blow schedules the target's respawn.
func (c *Controller) AttackPlayer(ctx context.Context, caller model.ConnectionID, matchID model.MatchID, target model.ConnectionID) (*combat.AttackOutcome, error) {
	now := c.clock.Now()
	var outcome *combat.AttackOutcome
	err := c.registry.Update(matchID, func(m *model.Match) error {
		if m.GetPlayer(caller) == nil {
			return model.ErrNotInMatch
		}
		var err error
		outcome, err = combat.ResolveAttack(m, caller, target, now)
		if err != nil {
			return err
		}
		if outcome.Death != nil {
			c.scheduler.Schedule(outcome.Death.TargetID, outcome.Death.MatchID, c.scheduler.Delay())
		}
		return nil
	})
	if err != nil {
		return nil, c.reject(ctx, caller, "attack", err)
	}

	c.publisher.Publish(ctx, model.GroupEvent(matchID, model.EventPlayerAttacked, model.PlayerAttackedPayload{
		AttackerID: caller,
		TargetID:   target,
		Damage:     outcome.Damage,
		NewHealth:  outcome.NewHealth,
	}, now))

	if outcome.Death != nil {
		c.publisher.Publish(ctx, model.GroupEvent(matchID, model.EventPlayerDied, model.PlayerDiedPayload{
			TargetID: target,
			KillerID: caller,
		}, now))
		c.logger.Info("player died",
			slog.String("match_id", string(matchID)),
			slog.String("target_id", string(target)),
			slog.String("killer_id", string(caller)),
			slog.Bool("killer_leveled_up", outcome.AttackerLeveledUp),
		)
	}
	return outcome, nil
}

// ListAvailableMatches returns the matches that still have room
func (c *Controller) ListAvailableMatches(ctx context.Context, caller model.ConnectionID) []model.MatchListing {
	matches := c.registry.ListJoinable()
	listings := make([]model.MatchListing, 0, len(matches))
	for _, m := range matches {
		listings = append(listings, m.Listing())
	}
	c.publisher.Publish(ctx, model.CallerEvent(caller, model.EventAvailableMatches, model.AvailableMatchesPayload{Matches: listings}, c.clock.Now()))
	return listings
}

// GetMatch returns a snapshot of a match
func (c *Controller) GetMatch(matchID model.MatchID) (*model.MatchView, error) {
	m, err := c.registry.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	view := m.View()
	return &view, nil
}

// MatchHistory returns archived match summaries, most recent first
func (c *Controller) MatchHistory(ctx context.Context, limit int) ([]*model.MatchSummary, error) {
	return c.storage.ListMatchSummaries(ctx, limit)
}

// SendChat relays a chat line to the caller's match. A team message goes
// only to the caller's teammates.
func (c *Controller) SendChat(ctx context.Context, caller model.ConnectionID, matchID model.MatchID, message string, teamOnly bool) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return c.reject(ctx, caller, "chat", model.ErrEmptyChatMessage)
	}
	if utf8.RuneCountInString(message) > MaxChatLength {
		message = string([]rune(message)[:MaxChatLength])
	}

	m, err := c.registry.GetMatch(matchID)
	if err != nil {
		return c.reject(ctx, caller, "chat", err)
	}
	sender := m.GetPlayer(caller)
	if sender == nil {
		return c.reject(ctx, caller, "chat", model.ErrNotInMatch)
	}

	now := c.clock.Now()
	payload := model.ChatMessagePayload{
		ConnectionID: caller,
		Username:     sender.Username,
		TeamID:       sender.TeamID,
		Message:      message,
	}
	if !teamOnly {
		c.publisher.Publish(ctx, model.GroupEvent(matchID, model.EventChatMessage, payload, now))
		return nil
	}
	for _, mate := range m.Teammates(sender.TeamID) {
		c.publisher.Publish(ctx, model.ConnectionEvent(mate.ConnectionID, model.EventTeamChatMessage, payload, now))
	}
	return nil
}

// Disconnect tears down everything a connection owns: its seat in a match,
// any pending respawn and its registration.
func (c *Controller) Disconnect(ctx context.Context, caller model.ConnectionID) {
	if matchID, err := c.registry.FindByConnection(caller); err == nil {
		if err := c.leave(ctx, caller, matchID); err != nil {
			c.logger.Warn("implicit leave failed",
				slog.String("match_id", string(matchID)),
				slog.String("connection_id", string(caller)),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := c.storage.DeleteRegistration(ctx, caller); err != nil {
		c.logger.Error("failed to delete registration",
			slog.String("connection_id", string(caller)),
			slog.String("error", err.Error()),
		)
	}
	c.logger.Info("connection closed", slog.String("connection_id", string(caller)))
}

// Shutdown ends every live match and archives their summaries
func (c *Controller) Shutdown(ctx context.Context) {
	matches := c.registry.CleanupAll()
	for _, m := range matches {
		for id := range m.Players {
			c.scheduler.Cancel(m.ID, id)
		}
		if len(m.Players) > 0 || len(m.Departed) > 0 {
			c.archive(ctx, m)
		}
	}
	c.logger.Info("game shutdown complete", slog.Int("matches", len(matches)))
}

// reject reports a failed command to the caller and returns err
func (c *Controller) reject(ctx context.Context, caller model.ConnectionID, op string, err error) error {
	c.logger.Debug("command rejected",
		slog.String("op", op),
		slog.String("connection_id", string(caller)),
		slog.String("error", err.Error()),
	)
	c.publisher.Publish(ctx, model.CallerEvent(caller, model.EventError, model.ErrorPayload{Message: err.Error()}, c.clock.Now()))
	return fmt.Errorf("%s: %w", op, err)
}

// notInMatch reports a missing player in a match as the caller not being in it
func notInMatch(err error) error {
	if errors.Is(err, model.ErrPlayerNotFound) {
		return model.ErrNotInMatch
	}
	return err
}
