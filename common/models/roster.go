package models

// Roster is a season-scoped team slot. Identity is always the triple
// (LeagueID, Season, RosterID); the same numeric roster id denotes different
// teams in different seasons. OwnerID is nil for unclaimed teams.
type Roster struct {
	LeagueID string  `json:"league_id"`
	Season   int     `json:"season"`
	RosterID int     `json:"roster_id"`
	OwnerID  *string `json:"owner_id,omitempty"`
}

// User is a global league member identity, not season-scoped
type User struct {
	UserID      string  `json:"user_id"`
	DisplayName *string `json:"display_name,omitempty"`
	Username    *string `json:"username,omitempty"`
}

// Player is an entry from the host's player directory
type Player struct {
	PlayerID string  `json:"player_id"`
	FullName string  `json:"full_name"`
	Position *string `json:"position,omitempty"`
	Team     *string `json:"team,omitempty"`
}

// Matchup is one roster's side of a weekly pairing
type Matchup struct {
	LeagueID  string  `json:"league_id"`
	Season    int     `json:"season"`
	Week      int     `json:"week"`
	RosterID  int     `json:"roster_id"`
	MatchupID int     `json:"matchup_id"`
	Points    float64 `json:"points"`
}
