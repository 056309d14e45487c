package clients

// Payload types for the Sleeper-style league host API. Field sets follow the
// host's JSON; only fields the service consumes are modelled.

// League is the host's league-season object. The host assigns a fresh
// league_id each year and links years with previous_league_id.
type League struct {
	LeagueID         string         `json:"league_id"`
	Name             string         `json:"name"`
	Season           string         `json:"season"`
	PreviousLeagueID string         `json:"previous_league_id"`
	Status           string         `json:"status"`
	Settings         LeagueSettings `json:"settings"`
}

// LeagueSettings carries the subset of league settings the sync needs
type LeagueSettings struct {
	// LastScheduledLeg is the final scheduled week; 0 when the host omits it.
	LastScheduledLeg int `json:"last_scheduled_leg"`
	PlayoffWeekStart int `json:"playoff_week_start"`
	WaiverBudget     int `json:"waiver_budget"`
}

// LeagueUser is a member of a league. Identity is global, not season-scoped.
type LeagueUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
}

// Roster is a season-scoped team slot. OwnerID is empty for unclaimed teams.
type Roster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
}

// Matchup is one roster's side of a weekly head-to-head pairing
type Matchup struct {
	RosterID  int     `json:"roster_id"`
	MatchupID int     `json:"matchup_id"`
	Points    float64 `json:"points"`
}

// Transaction is a raw league move: trade, waiver claim, or free-agent
// add/drop. Adds and Drops map player id to roster id.
type Transaction struct {
	TransactionID string                 `json:"transaction_id"`
	Type          string                 `json:"type"`
	Status        string                 `json:"status"`
	Leg           int                    `json:"leg"`
	Created       int64                  `json:"created"` // unix millis
	RosterIDs     []int                  `json:"roster_ids"`
	Adds          map[string]int         `json:"adds"`
	Drops         map[string]int         `json:"drops"`
	DraftPicks    []TransactionPick      `json:"draft_picks"`
	WaiverBudget  []WaiverBudgetTransfer `json:"waiver_budget"`
	Settings      *TransactionSettings   `json:"settings"`
}

// TransactionPick is a traded future draft pick inside a transaction.
// RosterID names the pick's original owner; PreviousOwnerID and OwnerID are
// the rosters the pick moved between in this transaction.
type TransactionPick struct {
	Season          string `json:"season"`
	Round           int    `json:"round"`
	RosterID        int    `json:"roster_id"`
	PreviousOwnerID int    `json:"previous_owner_id"`
	OwnerID         int    `json:"owner_id"`
}

// WaiverBudgetTransfer is a FAAB amount moved between rosters in a trade
type WaiverBudgetTransfer struct {
	Sender   int `json:"sender"`
	Receiver int `json:"receiver"`
	Amount   int `json:"amount"`
}

// TransactionSettings holds per-transaction figures such as a winning
// waiver bid
type TransactionSettings struct {
	WaiverBid int `json:"waiver_bid"`
}

// Draft is one of a league-season's drafts
type Draft struct {
	DraftID  string            `json:"draft_id"`
	Type     string            `json:"type"`
	Status   string            `json:"status"`
	Season   string            `json:"season"`
	Metadata map[string]string `json:"metadata"`
}

// DraftPick is a completed selection inside a draft. RosterID is the slot
// that made the pick.
type DraftPick struct {
	Round    int    `json:"round"`
	PickNo   int    `json:"pick_no"`
	RosterID int    `json:"roster_id"`
	PlayerID string `json:"player_id"`
	DraftID  string `json:"draft_id"`
}

// Player is an entry in the host's full player directory
type Player struct {
	PlayerID  string `json:"player_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Position  string `json:"position"`
	Team      string `json:"team"`
}

// Name returns the best display name for a player
func (p Player) Name() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.FirstName != "" || p.LastName != "" {
		if p.FirstName == "" {
			return p.LastName
		}
		if p.LastName == "" {
			return p.FirstName
		}
		return p.FirstName + " " + p.LastName
	}
	return p.PlayerID
}
