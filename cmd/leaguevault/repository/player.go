package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/leaguevault/leaguevault/common/db"
	"github.com/leaguevault/leaguevault/common/models"
)

// PlayerRepository handles database operations for the player directory
type PlayerRepository struct {
	db *db.DB
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(database *db.DB) *PlayerRepository {
	return &PlayerRepository{db: database}
}

// UpsertBatch inserts or updates one chunk of the player directory.
// Callers bound chunk size so no single write grows unbounded.
func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []models.Player) error {
	if len(players) == 0 {
		return nil
	}

	query := `
		INSERT INTO player (player_id, full_name, position, team)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			position = EXCLUDED.position,
			team = EXCLUDED.team
	`

	batch := &pgx.Batch{}
	for _, p := range players {
		batch.Queue(query, p.PlayerID, p.FullName, p.Position, p.Team)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert players: %w", err)
	}

	return nil
}

// GetByIDs retrieves players for a set of ids, keyed by player id
func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) (map[string]models.Player, error) {
	result := make(map[string]models.Player, len(playerIDs))
	if len(playerIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT player_id, full_name, position, team
		FROM player
		WHERE player_id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.PlayerID, &p.FullName, &p.Position, &p.Team); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		result[p.PlayerID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return result, nil
}
