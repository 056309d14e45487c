package models

import "time"

// MoveItem is one labelled asset inside a rendered transaction
type MoveItem struct {
	Kind     AssetKind `json:"kind"`
	Label    string    `json:"label"`
	PlayerID *string   `json:"player_id,omitempty"`
	FAAB     *int      `json:"faab,omitempty"`
}

// TeamMoves groups a roster's side of a transaction under its resolved label
type TeamMoves struct {
	RosterID int        `json:"roster_id"`
	Team     string     `json:"team"`
	Items    []MoveItem `json:"items"`
}

// TransactionView is the read-side view-model for one transaction. Trades
// fill Received and Sent; waivers and free-agent moves fill Added and
// Dropped. Team labels are resolved against the transaction's own season.
type TransactionView struct {
	TransactionID string      `json:"transaction_id"`
	Season        int         `json:"season"`
	Week          int         `json:"week"`
	Type          string      `json:"type"`
	TypeLabel     string      `json:"type_label"`
	Status        string      `json:"status"`
	Date          time.Time   `json:"date"`
	Teams         []string    `json:"teams"`
	Received      []TeamMoves `json:"received,omitempty"`
	Sent          []TeamMoves `json:"sent,omitempty"`
	Added         []TeamMoves `json:"added,omitempty"`
	Dropped       []TeamMoves `json:"dropped,omitempty"`
}

// TeamFacet is a distinct participating roster within the filtered corpus
type TeamFacet struct {
	Season   int    `json:"season"`
	RosterID int    `json:"roster_id"`
	Team     string `json:"team"`
}

// Facets are the distinct-value lists that populate filter controls. They
// describe the whole filtered corpus, not just the returned page.
type Facets struct {
	Seasons []int       `json:"seasons"`
	Types   []string    `json:"types"`
	Teams   []TeamFacet `json:"teams"`
}

// TransactionPage is one page of rendered transactions plus facets
type TransactionPage struct {
	Items    []TransactionView `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Facets   Facets            `json:"facets"`
}
