package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncReport summarizes one league-season sync
type SyncReport struct {
	RunID          uuid.UUID     `json:"run_id"`
	LeagueID       string        `json:"league_id"`
	Season         int           `json:"season"`
	Users          int           `json:"users"`
	Rosters        int           `json:"rosters"`
	Matchups       int           `json:"matchups"`
	Transactions   int           `json:"transactions"`
	Assets         int           `json:"assets"`
	WeeksCompleted int           `json:"weeks_completed"`
	Duration       time.Duration `json:"duration_ms"`
}

// ChainSyncReport summarizes a full-chain sync. A chain sync stops at the
// first failing season but reports everything already committed so an
// operator can resume.
type ChainSyncReport struct {
	RunID         uuid.UUID     `json:"run_id"`
	StartLeagueID string        `json:"start_league_id"`
	Chain         []string      `json:"chain"`
	Completed     []*SyncReport `json:"completed"`
	FailedLeague  *string       `json:"failed_league,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// PlayerSyncReport summarizes a player directory sync
type PlayerSyncReport struct {
	RunID    uuid.UUID     `json:"run_id"`
	Players  int           `json:"players"`
	Chunks   int           `json:"chunks"`
	Duration time.Duration `json:"duration_ms"`
}
