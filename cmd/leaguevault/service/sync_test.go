package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguevault/leaguevault/common/cache"
	"github.com/leaguevault/leaguevault/common/clients"
	"github.com/leaguevault/leaguevault/common/config"
	"github.com/leaguevault/leaguevault/common/errs"
	"github.com/leaguevault/leaguevault/common/models"
)

type fakeLeagueAPI struct {
	leagues      map[string]*clients.League
	users        map[string][]clients.LeagueUser
	rosters      map[string][]clients.Roster
	matchups     map[string]map[int][]clients.Matchup
	transactions map[string]map[int][]clients.Transaction
	drafts       map[string][]clients.Draft
	draftPicks   map[string][]clients.DraftPick
	allPlayers   map[string]clients.Player

	usersErr map[string]error

	matchupWeeks []int
	txWeeks      []int
}

func (f *fakeLeagueAPI) League(ctx context.Context, leagueID string) (*clients.League, error) {
	league, ok := f.leagues[leagueID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return league, nil
}

func (f *fakeLeagueAPI) Users(ctx context.Context, leagueID string) ([]clients.LeagueUser, error) {
	if err := f.usersErr[leagueID]; err != nil {
		return nil, err
	}
	return f.users[leagueID], nil
}

func (f *fakeLeagueAPI) Rosters(ctx context.Context, leagueID string) ([]clients.Roster, error) {
	return f.rosters[leagueID], nil
}

func (f *fakeLeagueAPI) Matchups(ctx context.Context, leagueID string, week int) ([]clients.Matchup, error) {
	f.matchupWeeks = append(f.matchupWeeks, week)
	return f.matchups[leagueID][week], nil
}

func (f *fakeLeagueAPI) Transactions(ctx context.Context, leagueID string, week int) ([]clients.Transaction, error) {
	f.txWeeks = append(f.txWeeks, week)
	return f.transactions[leagueID][week], nil
}

func (f *fakeLeagueAPI) LeagueDrafts(ctx context.Context, leagueID string) ([]clients.Draft, error) {
	return f.drafts[leagueID], nil
}

func (f *fakeLeagueAPI) DraftPicks(ctx context.Context, draftID string) ([]clients.DraftPick, error) {
	return f.draftPicks[draftID], nil
}

func (f *fakeLeagueAPI) AllPlayers(ctx context.Context, sport string) (map[string]clients.Player, error) {
	return f.allPlayers, nil
}

type fakeStore struct {
	leagues       map[string]models.LeagueSeason
	users         map[string]models.User
	rosters       map[string]models.Roster
	playerBatches [][]models.Player
	matchupRows   []models.Matchup
	txs           map[string]models.Transaction
	assets        map[string][]models.TransactionAsset
	replaceCalls  map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leagues:      make(map[string]models.LeagueSeason),
		users:        make(map[string]models.User),
		rosters:      make(map[string]models.Roster),
		txs:          make(map[string]models.Transaction),
		assets:       make(map[string][]models.TransactionAsset),
		replaceCalls: make(map[string]int),
	}
}

// Typed adapters around fakeStore so one fake backs every writer interface

type fakeLeagueWriter struct{ store *fakeStore }

func (w *fakeLeagueWriter) Upsert(ctx context.Context, ls *models.LeagueSeason) error {
	w.store.leagues[ls.LeagueID] = *ls
	return nil
}

type fakeUserWriter struct{ store *fakeStore }

func (w *fakeUserWriter) UpsertBatch(ctx context.Context, users []models.User) error {
	for _, u := range users {
		w.store.users[u.UserID] = u
	}
	return nil
}

type fakeRosterWriter struct{ store *fakeStore }

func (w *fakeRosterWriter) UpsertBatch(ctx context.Context, rosters []models.Roster) error {
	for _, r := range rosters {
		key := fmt.Sprintf("%s/%d/%d", r.LeagueID, r.Season, r.RosterID)
		w.store.rosters[key] = r
	}
	return nil
}

type fakePlayerWriter struct{ store *fakeStore }

func (w *fakePlayerWriter) UpsertBatch(ctx context.Context, players []models.Player) error {
	batch := make([]models.Player, len(players))
	copy(batch, players)
	w.store.playerBatches = append(w.store.playerBatches, batch)
	return nil
}

type fakeMatchupWriter struct{ store *fakeStore }

func (w *fakeMatchupWriter) UpsertWeek(ctx context.Context, matchups []models.Matchup) error {
	w.store.matchupRows = append(w.store.matchupRows, matchups...)
	return nil
}

type fakeTransactionWriter struct{ store *fakeStore }

func (w *fakeTransactionWriter) Upsert(ctx context.Context, tx *models.Transaction) error {
	w.store.txs[tx.ID] = *tx
	return nil
}

func (w *fakeTransactionWriter) ReplaceAssets(ctx context.Context, transactionID string, assets []models.TransactionAsset) error {
	w.store.replaceCalls[transactionID]++
	w.store.assets[transactionID] = assets
	return nil
}

type fakeLease struct{ released *bool }

func (l *fakeLease) Release(ctx context.Context) error {
	*l.released = true
	return nil
}

type fakeLocker struct {
	held     map[string]bool
	acquired []string
	released bool
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	if l.held[key] {
		return nil, false, nil
	}
	l.acquired = append(l.acquired, key)
	return &fakeLease{released: &l.released}, true, nil
}

func newTestSyncService(api *fakeLeagueAPI, store *fakeStore, locks Locker, cfg config.SyncConfig) *SyncService {
	resolver := NewChainResolver(api, nil, cache.NewMemoryCache(testLogger()), cfg, config.CacheConfig{}, testLogger())
	return NewSyncService(
		api,
		resolver,
		&fakeLeagueWriter{store},
		&fakeUserWriter{store},
		&fakeRosterWriter{store},
		&fakePlayerWriter{store},
		&fakeMatchupWriter{store},
		&fakeTransactionWriter{store},
		locks,
		cfg,
		"nfl",
		testLogger(),
	)
}

func oneSeasonAPI() *fakeLeagueAPI {
	return &fakeLeagueAPI{
		leagues: map[string]*clients.League{
			"L2023": {
				LeagueID: "L2023",
				Name:     "Dynasty League",
				Season:   "2023",
				Settings: clients.LeagueSettings{LastScheduledLeg: 2},
			},
		},
		users: map[string][]clients.LeagueUser{
			"L2023": {
				{UserID: "u1", DisplayName: "Alpha"},
				{UserID: "u2", Username: "beta"},
			},
		},
		rosters: map[string][]clients.Roster{
			"L2023": {
				{RosterID: 1, OwnerID: "u1"},
				{RosterID: 2, OwnerID: "u2"},
			},
		},
		matchups: map[string]map[int][]clients.Matchup{
			"L2023": {
				1: {{RosterID: 1, MatchupID: 1, Points: 101.5}, {RosterID: 2, MatchupID: 1, Points: 98.2}},
				2: {{RosterID: 1, MatchupID: 1, Points: 88.0}, {RosterID: 2, MatchupID: 1, Points: 120.4}},
			},
		},
		transactions: map[string]map[int][]clients.Transaction{
			"L2023": {
				0: {{
					TransactionID: "pre-1",
					Type:          "free_agent",
					Status:        "complete",
					Created:       1693526400000,
					Adds:          map[string]int{"4046": 1},
				}},
				2: {{
					TransactionID: "trade-1",
					Type:          "trade",
					Status:        "complete",
					Created:       1694736000000,
					RosterIDs:     []int{1, 2},
					Adds:          map[string]int{"7564": 1},
					Drops:         map[string]int{"7564": 2},
				}},
			},
		},
	}
}

func TestSyncLeague_FullSeason(t *testing.T) {
	api := oneSeasonAPI()
	store := newFakeStore()
	locker := &fakeLocker{}

	report, err := newTestSyncService(api, store, locker, testSyncConfig()).SyncLeague(context.Background(), "L2023")
	require.NoError(t, err)

	assert.Equal(t, 2023, report.Season)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 2, report.Rosters)
	assert.Equal(t, 4, report.Matchups)
	assert.Equal(t, 2, report.Transactions)
	assert.Equal(t, 2, report.Assets)

	ls, ok := store.leagues["L2023"]
	require.True(t, ok)
	assert.Equal(t, "Dynasty League", ls.Name)
	assert.Equal(t, 2, ls.FinalWeek, "final week comes from the league settings")
	assert.Nil(t, ls.PreviousLeagueID)

	trade, ok := store.txs["trade-1"]
	require.True(t, ok)
	assert.Equal(t, 2023, trade.Season)
	assert.Equal(t, 2, trade.Week)
	assert.Equal(t, time.UnixMilli(1694736000000).UTC(), trade.CreatedAt)
	assert.NotEmpty(t, trade.RawPayload)

	assets := store.assets["trade-1"]
	require.Len(t, assets, 1)
	assert.Equal(t, "trade-1", assets[0].TransactionID)
	assert.Equal(t, 2, *assets[0].FromRosterID)
	assert.Equal(t, 1, *assets[0].ToRosterID)

	assert.True(t, locker.released, "lease released after sync")
	assert.Equal(t, []string{"sync:league:L2023"}, locker.acquired)
}

func TestSyncLeague_WeekRangesDiffer(t *testing.T) {
	api := oneSeasonAPI()
	store := newFakeStore()

	_, err := newTestSyncService(api, store, &fakeLocker{}, testSyncConfig()).SyncLeague(context.Background(), "L2023")
	require.NoError(t, err)

	// Matchups never have a week 0; pre-season transactions do
	assert.Equal(t, []int{1, 2}, api.matchupWeeks)
	assert.Equal(t, []int{0, 1, 2}, api.txWeeks)
}

func TestSyncLeague_Idempotent(t *testing.T) {
	api := oneSeasonAPI()
	store := newFakeStore()
	svc := newTestSyncService(api, store, &fakeLocker{}, testSyncConfig())

	first, err := svc.SyncLeague(context.Background(), "L2023")
	require.NoError(t, err)
	second, err := svc.SyncLeague(context.Background(), "L2023")
	require.NoError(t, err)

	assert.Equal(t, first.Transactions, second.Transactions)
	assert.Len(t, store.txs, 2, "re-sync rewrites rows, never duplicates them")
	assert.Equal(t, 2, store.replaceCalls["trade-1"], "assets regenerated on every sync")
	require.Len(t, store.assets["trade-1"], 1)
}

func TestSyncLeague_RefusedWhileLeaseHeld(t *testing.T) {
	api := oneSeasonAPI()
	locker := &fakeLocker{held: map[string]bool{"sync:league:L2023": true}}

	_, err := newTestSyncService(api, newFakeStore(), locker, testSyncConfig()).SyncLeague(context.Background(), "L2023")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSyncInProgress)
}

func TestSyncLeague_UnknownLeague(t *testing.T) {
	api := oneSeasonAPI()

	_, err := newTestSyncService(api, newFakeStore(), &fakeLocker{}, testSyncConfig()).SyncLeague(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func twoSeasonAPI() *fakeLeagueAPI {
	api := oneSeasonAPI()
	api.leagues["L2023"].PreviousLeagueID = "L2022"
	api.leagues["L2022"] = &clients.League{
		LeagueID: "L2022",
		Name:     "Dynasty League",
		Season:   "2022",
		Settings: clients.LeagueSettings{LastScheduledLeg: 1},
	}
	api.users["L2022"] = []clients.LeagueUser{{UserID: "u1", DisplayName: "Alpha"}}
	api.rosters["L2022"] = []clients.Roster{{RosterID: 1, OwnerID: "u1"}}
	return api
}

func TestSyncChain_SyncsEveryReachableSeason(t *testing.T) {
	api := twoSeasonAPI()
	store := newFakeStore()

	report, err := newTestSyncService(api, store, &fakeLocker{}, testSyncConfig()).SyncChain(context.Background(), "L2023")
	require.NoError(t, err)

	assert.Equal(t, []string{"L2023", "L2022"}, report.Chain)
	require.Len(t, report.Completed, 2)
	assert.Nil(t, report.FailedLeague)

	prev := store.leagues["L2023"].PreviousLeagueID
	require.NotNil(t, prev)
	assert.Equal(t, "L2022", *prev)
	assert.Contains(t, store.leagues, "L2022")
}

func TestSyncChain_StopsAtFirstFailure(t *testing.T) {
	api := twoSeasonAPI()
	api.usersErr = map[string]error{"L2022": &errs.ExternalAPIError{Endpoint: "/league/L2022/users", StatusCode: 503}}
	store := newFakeStore()

	report, err := newTestSyncService(api, store, &fakeLocker{}, testSyncConfig()).SyncChain(context.Background(), "L2023")
	require.Error(t, err)
	assert.True(t, errs.IsExternalAPI(err))

	require.Len(t, report.Completed, 1, "the newest season committed before the failure")
	require.NotNil(t, report.FailedLeague)
	assert.Equal(t, "L2022", *report.FailedLeague)
	assert.NotEmpty(t, report.Error)
}

func TestSyncChain_NoStartConfigured(t *testing.T) {
	api := oneSeasonAPI()

	_, err := newTestSyncService(api, newFakeStore(), &fakeLocker{}, testSyncConfig()).SyncChain(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestSyncPlayers_Chunked(t *testing.T) {
	api := oneSeasonAPI()
	api.allPlayers = map[string]clients.Player{
		"1": {PlayerID: "1", FirstName: "Aa", LastName: "Aa"},
		"2": {PlayerID: "2", FirstName: "Bb", LastName: "Bb"},
		"3": {PlayerID: "3", FirstName: "Cc", LastName: "Cc"},
		"4": {PlayerID: "4", FirstName: "Dd", LastName: "Dd"},
		"5": {PlayerID: "5", FirstName: "Ee", LastName: "Ee"},
	}
	store := newFakeStore()

	cfg := testSyncConfig()
	cfg.PlayerChunkSize = 2

	report, err := newTestSyncService(api, store, &fakeLocker{}, cfg).SyncPlayers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Players)
	assert.Equal(t, 3, report.Chunks)
	require.Len(t, store.playerBatches, 3)
	assert.Len(t, store.playerBatches[0], 2)
	assert.Len(t, store.playerBatches[2], 1)
}
