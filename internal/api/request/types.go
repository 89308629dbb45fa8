package request

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username string `json:"username"`
	HeroID   int    `json:"hero_id"`
}

// MoveRequest is the request body for moving within a match
type MoveRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// AbilityRequest is the request body for casting an ability
type AbilityRequest struct {
	AbilityID int     `json:"ability_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// AttackRequest is the request body for a basic attack
type AttackRequest struct {
	TargetID string `json:"target_id"`
}

// ChatRequest is the request body for sending a chat message
type ChatRequest struct {
	Message  string `json:"message"`
	TeamOnly bool   `json:"team_only"`
}
