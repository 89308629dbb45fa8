package model

// Team spawn coordinates
var (
	Team1Spawn = Position{X: -104.2, Y: -97.6}
	Team2Spawn = Position{X: 80.8, Y: 91.3}
)

// SpawnPoint returns the deterministic spawn position for a team
func SpawnPoint(team TeamID) Position {
	switch team {
	case Team1:
		return Team1Spawn
	case Team2:
		return Team2Spawn
	default:
		return Position{}
	}
}
