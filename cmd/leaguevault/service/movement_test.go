package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguevault/leaguevault/common/clients"
	"github.com/leaguevault/leaguevault/common/models"
)

func TestDeriveMovements_TradePairsAddsAndDrops(t *testing.T) {
	tx := &clients.Transaction{
		TransactionID: "tx-1",
		Type:          "trade",
		Adds:          map[string]int{"4046": 2},
		Drops:         map[string]int{"4046": 1},
	}

	assets := DeriveMovements(tx)
	require.Len(t, assets, 1, "a player in both adds and drops is one movement, not two")

	a := assets[0]
	assert.Equal(t, models.AssetPlayer, a.Kind)
	require.NotNil(t, a.PlayerID)
	assert.Equal(t, "4046", *a.PlayerID)
	require.NotNil(t, a.FromRosterID)
	require.NotNil(t, a.ToRosterID)
	assert.Equal(t, 1, *a.FromRosterID)
	assert.Equal(t, 2, *a.ToRosterID)
}

func TestDeriveMovements_WaiverClaimWithBid(t *testing.T) {
	tx := &clients.Transaction{
		TransactionID: "tx-2",
		Type:          "waiver",
		Adds:          map[string]int{"7564": 3},
		Drops:         map[string]int{"1234": 3},
		Settings:      &clients.TransactionSettings{WaiverBid: 17},
	}

	assets := DeriveMovements(tx)
	require.Len(t, assets, 3)

	var players, faab []models.TransactionAsset
	for _, a := range assets {
		switch a.Kind {
		case models.AssetPlayer:
			players = append(players, a)
		case models.AssetFAAB:
			faab = append(faab, a)
		}
	}

	require.Len(t, players, 2)
	// Deterministic ordering: player ids sorted lexicographically
	assert.Equal(t, "1234", *players[0].PlayerID)
	assert.Nil(t, players[0].ToRosterID, "dropped player has no destination")
	assert.Equal(t, "7564", *players[1].PlayerID)
	assert.Nil(t, players[1].FromRosterID, "claimed player has no source")

	require.Len(t, faab, 1)
	assert.Nil(t, faab[0].FromRosterID)
	assert.Nil(t, faab[0].ToRosterID)
	require.NotNil(t, faab[0].FAABAmount)
	assert.Equal(t, 17, *faab[0].FAABAmount)
}

func TestDeriveMovements_DraftPicks(t *testing.T) {
	tx := &clients.Transaction{
		TransactionID: "tx-3",
		Type:          "trade",
		DraftPicks: []clients.TransactionPick{
			{Season: "2024", Round: 2, RosterID: 2, PreviousOwnerID: 2, OwnerID: 5},
			{Season: "2025", Round: 1, RosterID: 7, OwnerID: 3}, // no previous owner
			{Season: "garbage", Round: 4, RosterID: 1, OwnerID: 2},
		},
	}

	assets := DeriveMovements(tx)
	require.Len(t, assets, 2, "a pick with an unparseable season is skipped")

	first := assets[0]
	assert.Equal(t, models.AssetPick, first.Kind)
	assert.Equal(t, 2024, *first.PickSeason)
	assert.Equal(t, 2, *first.PickRound)
	assert.Equal(t, 2, *first.FromRosterID)
	assert.Equal(t, 5, *first.ToRosterID)

	second := assets[1]
	assert.Equal(t, 2025, *second.PickSeason)
	assert.Equal(t, 7, *second.FromRosterID, "original owner stands in for a missing previous owner")
	assert.Equal(t, 3, *second.ToRosterID)
}

func TestDeriveMovements_FAABTransfersWinOverBid(t *testing.T) {
	tx := &clients.Transaction{
		TransactionID: "tx-4",
		Type:          "trade",
		WaiverBudget: []clients.WaiverBudgetTransfer{
			{Sender: 1, Receiver: 2, Amount: 25},
			{Sender: 2, Receiver: 3, Amount: 5},
		},
		Settings: &clients.TransactionSettings{WaiverBid: 99},
	}

	assets := DeriveMovements(tx)
	require.Len(t, assets, 2, "structured transfers suppress the bare bid amount")

	assert.Equal(t, 1, *assets[0].FromRosterID)
	assert.Equal(t, 2, *assets[0].ToRosterID)
	assert.Equal(t, 25, *assets[0].FAABAmount)
	assert.Equal(t, 5, *assets[1].FAABAmount)
}

func TestDeriveMovements_EmptyPayload(t *testing.T) {
	// A failed waiver claim carries no adds, drops, picks, or budget figures
	tx := &clients.Transaction{
		TransactionID: "tx-5",
		Type:          "waiver",
		Status:        "failed",
	}

	assert.Empty(t, DeriveMovements(tx))
}

func TestDeriveMovements_Deterministic(t *testing.T) {
	tx := &clients.Transaction{
		TransactionID: "tx-6",
		Type:          "trade",
		Adds:          map[string]int{"9999": 1, "1111": 2, "5555": 3},
		Drops:         map[string]int{"5555": 1, "1111": 3},
	}

	first := DeriveMovements(tx)
	second := DeriveMovements(tx)
	assert.Equal(t, first, second, "regenerated rows must not churn on re-sync")
}
