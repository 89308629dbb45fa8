package ws

import (
	"encoding/json"

	"github.com/mcoot/mobaserver/internal/model"
)

// Command types a client may send
const (
	CommandRegister    = "register"
	CommandCreateMatch = "create_match"
	CommandJoinMatch   = "join_match"
	CommandLeaveMatch  = "leave_match"
	CommandListMatches = "list_matches"
	CommandMove        = "move"
	CommandUseAbility  = "use_ability"
	CommandAttack      = "attack"
	CommandChat        = "chat"
)

// Command is an inbound client frame. Only the fields its type needs are read.
type Command struct {
	Type      string             `json:"type"`
	MatchID   model.MatchID      `json:"match_id,omitempty"`
	Username  string             `json:"username,omitempty"`
	HeroID    model.HeroID       `json:"hero_id,omitempty"`
	AbilityID model.AbilityID    `json:"ability_id,omitempty"`
	X         float64            `json:"x,omitempty"`
	Y         float64            `json:"y,omitempty"`
	TargetID  model.ConnectionID `json:"target_id,omitempty"`
	Message   string             `json:"message,omitempty"`
	TeamOnly  bool               `json:"team_only,omitempty"`
}

// Frame is an outbound server frame
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
