package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/leaguevault/leaguevault/common/db"
	"github.com/leaguevault/leaguevault/common/models"
)

// TransactionFilter narrows a ledger query. LeagueIDs scopes the query to a
// resolved season chain; the remaining fields are optional facet filters.
type TransactionFilter struct {
	LeagueIDs []string
	Seasons   []int
	Types     []string
	RosterIDs []int
	PlayerID  string
	Page      int
	PageSize  int
}

// TransactionRepository handles database operations for the transaction ledger
type TransactionRepository struct {
	db *db.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(database *db.DB) *TransactionRepository {
	return &TransactionRepository{db: database}
}

// Upsert inserts or updates a transaction by its host-assigned id
func (r *TransactionRepository) Upsert(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transaction (id, league_id, season, week, type, status, created_at, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			league_id = EXCLUDED.league_id,
			season = EXCLUDED.season,
			week = EXCLUDED.week,
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at,
			raw_payload = EXCLUDED.raw_payload
	`

	_, err := r.db.Exec(
		ctx,
		query,
		tx.ID,
		tx.LeagueID,
		tx.Season,
		tx.Week,
		tx.Type,
		tx.Status,
		tx.CreatedAt,
		tx.RawPayload,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}

	return nil
}

// ReplaceAssets regenerates a transaction's asset rows inside one database
// transaction: delete everything for the id, then insert the fresh set.
// Wholesale regeneration is what makes re-sync self-correcting when the host
// edits a transaction after the fact.
func (r *TransactionRepository) ReplaceAssets(ctx context.Context, transactionID string, assets []models.TransactionAsset) error {
	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin asset replace: %w", err)
	}
	defer dbTx.Rollback(ctx)

	if _, err := dbTx.Exec(ctx, `DELETE FROM transaction_asset WHERE transaction_id = $1`, transactionID); err != nil {
		return fmt.Errorf("failed to delete assets: %w", err)
	}

	if len(assets) > 0 {
		query := `
			INSERT INTO transaction_asset (transaction_id, kind, player_id, from_roster_id, to_roster_id, pick_season, pick_round, faab_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		batch := &pgx.Batch{}
		for _, a := range assets {
			batch.Queue(query, transactionID, a.Kind, a.PlayerID, a.FromRosterID, a.ToRosterID, a.PickSeason, a.PickRound, a.FAABAmount)
		}
		if err := dbTx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert assets: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit asset replace: %w", err)
	}

	return nil
}

// Query returns one page of transactions matching the filter, newest first,
// plus the total match count
func (r *TransactionRepository) Query(ctx context.Context, filter TransactionFilter) ([]models.Transaction, int, error) {
	where, args := buildWhere(filter)

	countQuery := `SELECT count(*) FROM transaction t ` + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	limit := filter.PageSize
	offset := (filter.Page - 1) * filter.PageSize
	pageQuery := fmt.Sprintf(`
		SELECT t.id, t.league_id, t.season, t.week, t.type, t.status, t.created_at, t.raw_payload
		FROM transaction t
		%s
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, pageQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.LeagueID,
			&tx.Season,
			&tx.Week,
			&tx.Type,
			&tx.Status,
			&tx.CreatedAt,
			&tx.RawPayload,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, total, nil
}

// ListAssets retrieves the assets of a set of transactions, keyed by
// transaction id, in one round-trip
func (r *TransactionRepository) ListAssets(ctx context.Context, transactionIDs []string) (map[string][]models.TransactionAsset, error) {
	result := make(map[string][]models.TransactionAsset, len(transactionIDs))
	if len(transactionIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT transaction_id, kind, player_id, from_roster_id, to_roster_id, pick_season, pick_round, faab_amount
		FROM transaction_asset
		WHERE transaction_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, transactionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.TransactionAsset
		err := rows.Scan(
			&a.TransactionID,
			&a.Kind,
			&a.PlayerID,
			&a.FromRosterID,
			&a.ToRosterID,
			&a.PickSeason,
			&a.PickRound,
			&a.FAABAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		result[a.TransactionID] = append(result[a.TransactionID], a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return result, nil
}

// FacetRow is a distinct (season, roster) pair present in a filtered corpus
type FacetRow struct {
	Season   int
	RosterID int
}

// Facets computes distinct seasons, types, and participating rosters across
// everything the filter matches (ignoring pagination)
func (r *TransactionRepository) Facets(ctx context.Context, filter TransactionFilter) ([]int, []string, []FacetRow, error) {
	where, args := buildWhere(filter)

	var seasons []int
	seasonQuery := `SELECT DISTINCT t.season FROM transaction t ` + where + ` ORDER BY t.season DESC`
	rows, err := r.db.Query(ctx, seasonQuery, args...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to query season facets: %w", err)
	}
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return nil, nil, nil, fmt.Errorf("failed to scan season facet: %w", err)
		}
		seasons = append(seasons, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("error iterating season facets: %w", err)
	}

	var types []string
	typeQuery := `SELECT DISTINCT t.type FROM transaction t ` + where + ` ORDER BY t.type`
	rows, err = r.db.Query(ctx, typeQuery, args...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to query type facets: %w", err)
	}
	for rows.Next() {
		var ty string
		if err := rows.Scan(&ty); err != nil {
			rows.Close()
			return nil, nil, nil, fmt.Errorf("failed to scan type facet: %w", err)
		}
		types = append(types, ty)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("error iterating type facets: %w", err)
	}

	var rosters []FacetRow
	rosterQuery := `
		SELECT DISTINCT t.season, r.roster_id FROM transaction t
		JOIN transaction_asset a ON a.transaction_id = t.id
		CROSS JOIN LATERAL (VALUES (a.from_roster_id), (a.to_roster_id)) AS r(roster_id)
		` + where + `
		AND r.roster_id IS NOT NULL
		ORDER BY t.season DESC, r.roster_id
	`
	rows, err = r.db.Query(ctx, rosterQuery, args...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to query roster facets: %w", err)
	}
	for rows.Next() {
		var fr FacetRow
		if err := rows.Scan(&fr.Season, &fr.RosterID); err != nil {
			rows.Close()
			return nil, nil, nil, fmt.Errorf("failed to scan roster facet: %w", err)
		}
		rosters = append(rosters, fr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("error iterating roster facets: %w", err)
	}

	return seasons, types, rosters, nil
}

// buildWhere assembles the WHERE clause shared by page, count, and facet
// queries. Filters over assets use EXISTS so a transaction appears once no
// matter how many of its assets match.
func buildWhere(filter TransactionFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.LeagueIDs) > 0 {
		conds = append(conds, fmt.Sprintf("t.league_id = ANY(%s)", arg(filter.LeagueIDs)))
	}
	if len(filter.Seasons) > 0 {
		conds = append(conds, fmt.Sprintf("t.season = ANY(%s)", arg(filter.Seasons)))
	}
	if len(filter.Types) > 0 {
		conds = append(conds, fmt.Sprintf("t.type = ANY(%s)", arg(filter.Types)))
	}
	if len(filter.RosterIDs) > 0 {
		p := arg(filter.RosterIDs)
		conds = append(conds, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM transaction_asset fa
			WHERE fa.transaction_id = t.id
			AND (fa.from_roster_id = ANY(%s) OR fa.to_roster_id = ANY(%s))
		)`, p, p))
	}
	if filter.PlayerID != "" {
		conds = append(conds, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM transaction_asset pa
			WHERE pa.transaction_id = t.id AND pa.player_id = %s
		)`, arg(filter.PlayerID)))
	}

	if len(conds) == 0 {
		return "WHERE true", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
