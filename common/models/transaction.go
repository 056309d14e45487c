package models

import "time"

// AssetKind discriminates what a transaction asset row describes
type AssetKind string

const (
	AssetPlayer AssetKind = "player"
	AssetPick   AssetKind = "pick"
	AssetFAAB   AssetKind = "faab"
)

// Transaction types as reported by the host
const (
	TransactionTrade     = "trade"
	TransactionWaiver    = "waiver"
	TransactionFreeAgent = "free_agent"
)

// Transaction is one ledger row for a league move. ID is the host's globally
// unique transaction id and the natural key for upsert. RawPayload keeps the
// host's full JSON for read-time derivation.
type Transaction struct {
	ID         string    `json:"id"`
	LeagueID   string    `json:"league_id"`
	Season     int       `json:"season"`
	Week       int       `json:"week"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	RawPayload []byte    `json:"-"`
}

// TransactionAsset is one normalized asset movement inside a transaction:
// a player, a draft pick, or a FAAB amount changing hands. Exactly one kind
// per row; fields outside that kind's schema stay nil. Asset rows are
// regenerated wholesale on every sync of their transaction, which is what
// makes re-sync idempotent and self-correcting against upstream edits.
type TransactionAsset struct {
	TransactionID string    `json:"transaction_id"`
	Kind          AssetKind `json:"kind"`
	PlayerID      *string   `json:"player_id,omitempty"`
	FromRosterID  *int      `json:"from_roster_id,omitempty"`
	ToRosterID    *int      `json:"to_roster_id,omitempty"`
	PickSeason    *int      `json:"pick_season,omitempty"`
	PickRound     *int      `json:"pick_round,omitempty"`
	FAABAmount    *int      `json:"faab_amount,omitempty"`
}
