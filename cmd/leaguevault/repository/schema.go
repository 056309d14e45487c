package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/leaguevault/leaguevault/common/db"
)

// schema is the full ledger DDL. Every statement is idempotent so the init
// hook can run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS league_season (
    league_id          TEXT PRIMARY KEY,
    season             INT NOT NULL,
    name               TEXT NOT NULL DEFAULT '',
    previous_league_id TEXT,
    final_week         INT NOT NULL DEFAULT 17,
    synced_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS league_season_season_idx ON league_season (season);

CREATE TABLE IF NOT EXISTS league_user (
    user_id      TEXT PRIMARY KEY,
    display_name TEXT,
    username     TEXT
);

CREATE TABLE IF NOT EXISTS roster (
    league_id TEXT NOT NULL,
    season    INT NOT NULL,
    roster_id INT NOT NULL,
    owner_id  TEXT,
    PRIMARY KEY (league_id, season, roster_id)
);

CREATE TABLE IF NOT EXISTS player (
    player_id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL DEFAULT '',
    position  TEXT,
    team      TEXT
);

CREATE TABLE IF NOT EXISTS matchup (
    league_id  TEXT NOT NULL,
    season     INT NOT NULL,
    week       INT NOT NULL,
    roster_id  INT NOT NULL,
    matchup_id INT NOT NULL DEFAULT 0,
    points     DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (league_id, season, week, roster_id)
);

CREATE TABLE IF NOT EXISTS transaction (
    id          TEXT PRIMARY KEY,
    league_id   TEXT NOT NULL,
    season      INT NOT NULL,
    week        INT NOT NULL,
    type        TEXT NOT NULL,
    status      TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    raw_payload JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS transaction_league_season_idx ON transaction (league_id, season);
CREATE INDEX IF NOT EXISTS transaction_season_type_idx ON transaction (season, type);
CREATE INDEX IF NOT EXISTS transaction_created_idx ON transaction (created_at DESC);

CREATE TABLE IF NOT EXISTS transaction_asset (
    id             BIGSERIAL PRIMARY KEY,
    transaction_id TEXT NOT NULL REFERENCES transaction (id) ON DELETE CASCADE,
    kind           TEXT NOT NULL,
    player_id      TEXT,
    from_roster_id INT,
    to_roster_id   INT,
    pick_season    INT,
    pick_round     INT,
    faab_amount    INT
);
CREATE INDEX IF NOT EXISTS transaction_asset_tx_idx ON transaction_asset (transaction_id);
CREATE INDEX IF NOT EXISTS transaction_asset_player_idx ON transaction_asset (player_id);
`

// InitSchema applies the ledger schema. Wire it through the bootstrap DB
// init hook.
func InitSchema(database *db.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := database.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}

	return nil
}
