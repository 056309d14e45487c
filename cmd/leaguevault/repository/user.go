package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/leaguevault/leaguevault/common/db"
	"github.com/leaguevault/leaguevault/common/models"
)

// UserRepository handles database operations for league members
type UserRepository struct {
	db *db.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.DB) *UserRepository {
	return &UserRepository{db: database}
}

// UpsertBatch inserts or updates users in one batched round-trip
func (r *UserRepository) UpsertBatch(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}

	query := `
		INSERT INTO league_user (user_id, display_name, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			username = EXCLUDED.username
	`

	batch := &pgx.Batch{}
	for _, u := range users {
		batch.Queue(query, u.UserID, u.DisplayName, u.Username)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert users: %w", err)
	}

	return nil
}

// GetByIDs retrieves users for a set of ids, keyed by user id
func (r *UserRepository) GetByIDs(ctx context.Context, userIDs []string) (map[string]models.User, error) {
	result := make(map[string]models.User, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT user_id, display_name, username
		FROM league_user
		WHERE user_id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UserID, &u.DisplayName, &u.Username); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result[u.UserID] = u
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return result, nil
}
