package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/leaguevault/leaguevault/common/db"
	"github.com/leaguevault/leaguevault/common/errs"
	"github.com/leaguevault/leaguevault/common/models"
)

// LeagueSeasonRepository handles database operations for season chain nodes
type LeagueSeasonRepository struct {
	db *db.DB
}

// NewLeagueSeasonRepository creates a new league season repository
func NewLeagueSeasonRepository(database *db.DB) *LeagueSeasonRepository {
	return &LeagueSeasonRepository{db: database}
}

// Upsert inserts or updates a chain node by league id
func (r *LeagueSeasonRepository) Upsert(ctx context.Context, ls *models.LeagueSeason) error {
	query := `
		INSERT INTO league_season (league_id, season, name, previous_league_id, final_week, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (league_id) DO UPDATE SET
			season = EXCLUDED.season,
			name = EXCLUDED.name,
			previous_league_id = EXCLUDED.previous_league_id,
			final_week = EXCLUDED.final_week,
			synced_at = EXCLUDED.synced_at
	`

	_, err := r.db.Exec(
		ctx,
		query,
		ls.LeagueID,
		ls.Season,
		ls.Name,
		ls.PreviousLeagueID,
		ls.FinalWeek,
		ls.SyncedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert league season: %w", err)
	}

	return nil
}

// Get retrieves a chain node by league id
func (r *LeagueSeasonRepository) Get(ctx context.Context, leagueID string) (*models.LeagueSeason, error) {
	query := `
		SELECT league_id, season, name, previous_league_id, final_week, synced_at
		FROM league_season
		WHERE league_id = $1
	`

	ls := &models.LeagueSeason{}
	err := r.db.QueryRow(ctx, query, leagueID).Scan(
		&ls.LeagueID,
		&ls.Season,
		&ls.Name,
		&ls.PreviousLeagueID,
		&ls.FinalWeek,
		&ls.SyncedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("league season %s: %w", leagueID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league season: %w", err)
	}

	return ls, nil
}
