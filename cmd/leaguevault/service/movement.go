package service

import (
	"sort"
	"strconv"

	"github.com/leaguevault/leaguevault/common/clients"
	"github.com/leaguevault/leaguevault/common/models"
)

// DeriveMovements normalizes one raw transaction payload into canonical
// asset movements. It is a pure function and never fails: a payload with no
// qualifying fields (a lost waiver claim, a commissioner note) derives an
// empty list.
func DeriveMovements(tx *clients.Transaction) []models.TransactionAsset {
	var assets []models.TransactionAsset

	assets = append(assets, derivePlayerMovements(tx)...)
	assets = append(assets, derivePickMovements(tx)...)
	assets = append(assets, deriveFAABMovements(tx)...)

	return assets
}

// derivePlayerMovements walks the union of the adds and drops maps. A player
// appearing in both maps moved between rosters in this one transaction and
// derives a single from-to movement, never two independent ones.
func derivePlayerMovements(tx *clients.Transaction) []models.TransactionAsset {
	if len(tx.Adds) == 0 && len(tx.Drops) == 0 {
		return nil
	}

	playerIDs := make(map[string]bool, len(tx.Adds)+len(tx.Drops))
	for id := range tx.Adds {
		playerIDs[id] = true
	}
	for id := range tx.Drops {
		playerIDs[id] = true
	}

	// Deterministic order keeps regenerated asset rows stable across syncs
	ordered := make([]string, 0, len(playerIDs))
	for id := range playerIDs {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	assets := make([]models.TransactionAsset, 0, len(ordered))
	for _, id := range ordered {
		playerID := id
		asset := models.TransactionAsset{
			Kind:     models.AssetPlayer,
			PlayerID: &playerID,
		}
		if to, ok := tx.Adds[id]; ok {
			toRoster := to
			asset.ToRosterID = &toRoster
		}
		if from, ok := tx.Drops[id]; ok {
			fromRoster := from
			asset.FromRosterID = &fromRoster
		}
		assets = append(assets, asset)
	}

	return assets
}

// derivePickMovements emits one movement per traded draft pick. The pick
// moved from previous_owner_id to owner_id; roster_id (the original owner)
// is the fallback when either side is absent.
func derivePickMovements(tx *clients.Transaction) []models.TransactionAsset {
	if len(tx.DraftPicks) == 0 {
		return nil
	}

	assets := make([]models.TransactionAsset, 0, len(tx.DraftPicks))
	for _, pick := range tx.DraftPicks {
		season, err := strconv.Atoi(pick.Season)
		if err != nil {
			continue
		}

		pickSeason := season
		pickRound := pick.Round

		from := pick.PreviousOwnerID
		if from == 0 {
			from = pick.RosterID
		}
		to := pick.OwnerID
		if to == 0 {
			to = pick.RosterID
		}

		asset := models.TransactionAsset{
			Kind:       models.AssetPick,
			PickSeason: &pickSeason,
			PickRound:  &pickRound,
		}
		if from != 0 {
			fromRoster := from
			asset.FromRosterID = &fromRoster
		}
		if to != 0 {
			toRoster := to
			asset.ToRosterID = &toRoster
		}
		assets = append(assets, asset)
	}

	return assets
}

// deriveFAABMovements emits structured budget transfers when the payload has
// them. Otherwise a winning waiver bid derives a single unattached amount,
// interpreted at read time as spent by the adding roster.
func deriveFAABMovements(tx *clients.Transaction) []models.TransactionAsset {
	if len(tx.WaiverBudget) > 0 {
		assets := make([]models.TransactionAsset, 0, len(tx.WaiverBudget))
		for _, transfer := range tx.WaiverBudget {
			amount := transfer.Amount
			from := transfer.Sender
			to := transfer.Receiver
			assets = append(assets, models.TransactionAsset{
				Kind:         models.AssetFAAB,
				FromRosterID: &from,
				ToRosterID:   &to,
				FAABAmount:   &amount,
			})
		}
		return assets
	}

	if tx.Settings != nil && tx.Settings.WaiverBid > 0 {
		amount := tx.Settings.WaiverBid
		return []models.TransactionAsset{{
			Kind:       models.AssetFAAB,
			FAABAmount: &amount,
		}}
	}

	return nil
}
