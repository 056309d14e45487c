package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/leaguevault/leaguevault/common/db"
	"github.com/leaguevault/leaguevault/common/models"
)

// MatchupRepository handles database operations for weekly matchups
type MatchupRepository struct {
	db *db.DB
}

// NewMatchupRepository creates a new matchup repository
func NewMatchupRepository(database *db.DB) *MatchupRepository {
	return &MatchupRepository{db: database}
}

// UpsertWeek inserts or updates one week's matchup rows
func (r *MatchupRepository) UpsertWeek(ctx context.Context, matchups []models.Matchup) error {
	if len(matchups) == 0 {
		return nil
	}

	query := `
		INSERT INTO matchup (league_id, season, week, roster_id, matchup_id, points)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (league_id, season, week, roster_id) DO UPDATE SET
			matchup_id = EXCLUDED.matchup_id,
			points = EXCLUDED.points
	`

	batch := &pgx.Batch{}
	for _, m := range matchups {
		batch.Queue(query, m.LeagueID, m.Season, m.Week, m.RosterID, m.MatchupID, m.Points)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert matchups: %w", err)
	}

	return nil
}
