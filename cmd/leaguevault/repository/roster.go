package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/leaguevault/leaguevault/common/db"
	"github.com/leaguevault/leaguevault/common/models"
)

// RosterRepository handles database operations for season-scoped team slots
type RosterRepository struct {
	db *db.DB
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(database *db.DB) *RosterRepository {
	return &RosterRepository{db: database}
}

// UpsertBatch inserts or updates rosters in one batched round-trip
func (r *RosterRepository) UpsertBatch(ctx context.Context, rosters []models.Roster) error {
	if len(rosters) == 0 {
		return nil
	}

	query := `
		INSERT INTO roster (league_id, season, roster_id, owner_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (league_id, season, roster_id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id
	`

	batch := &pgx.Batch{}
	for _, ro := range rosters {
		batch.Queue(query, ro.LeagueID, ro.Season, ro.RosterID, ro.OwnerID)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert rosters: %w", err)
	}

	return nil
}

// ListByLeagueIDs retrieves every roster belonging to a set of league-seasons
func (r *RosterRepository) ListByLeagueIDs(ctx context.Context, leagueIDs []string) ([]models.Roster, error) {
	if len(leagueIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT league_id, season, roster_id, owner_id
		FROM roster
		WHERE league_id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, leagueIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list rosters: %w", err)
	}
	defer rows.Close()

	var rosters []models.Roster
	for rows.Next() {
		var ro models.Roster
		if err := rows.Scan(&ro.LeagueID, &ro.Season, &ro.RosterID, &ro.OwnerID); err != nil {
			return nil, fmt.Errorf("failed to scan roster: %w", err)
		}
		rosters = append(rosters, ro)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rosters: %w", err)
	}

	return rosters, nil
}
