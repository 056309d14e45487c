package models

import "time"

// LeagueSeason is one node of a league's season chain: a single year's
// snapshot under the host-assigned league id. PreviousLeagueID points to the
// prior year's node.
type LeagueSeason struct {
	LeagueID         string    `json:"league_id"`
	Season           int       `json:"season"`
	Name             string    `json:"name"`
	PreviousLeagueID *string   `json:"previous_league_id,omitempty"`
	FinalWeek        int       `json:"final_week"`
	SyncedAt         time.Time `json:"synced_at"`
}
