package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguevault/leaguevault/cmd/leaguevault/repository"
	"github.com/leaguevault/leaguevault/common/errs"
	"github.com/leaguevault/leaguevault/common/models"
)

type fakeChainSource struct {
	chain Chain
	err   error
}

func (f *fakeChainSource) ResolveCached(ctx context.Context, startID string) (Chain, error) {
	return f.chain, f.err
}

type fakeLedger struct {
	txs     []models.Transaction
	total   int
	assets  map[string][]models.TransactionAsset
	seasons []int
	types   []string
	rows    []repository.FacetRow

	queryFilter repository.TransactionFilter
	facetFilter repository.TransactionFilter
}

func (f *fakeLedger) Query(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, int, error) {
	f.queryFilter = filter
	return f.txs, f.total, nil
}

func (f *fakeLedger) ListAssets(ctx context.Context, ids []string) (map[string][]models.TransactionAsset, error) {
	return f.assets, nil
}

func (f *fakeLedger) Facets(ctx context.Context, filter repository.TransactionFilter) ([]int, []string, []repository.FacetRow, error) {
	f.facetFilter = filter
	return f.seasons, f.types, f.rows, nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(ctx context.Context, chain Chain, txs []models.Transaction, assets map[string][]models.TransactionAsset) ([]models.TransactionView, error) {
	views := make([]models.TransactionView, len(txs))
	for i := range txs {
		views[i] = models.TransactionView{TransactionID: txs[i].ID, Season: txs[i].Season, Type: txs[i].Type}
	}
	return views, nil
}

func (fakeRenderer) LabelTeams(ctx context.Context, chain Chain, facets []models.TeamFacet) []models.TeamFacet {
	for i := range facets {
		facets[i].Team = "Team"
	}
	return facets
}

func TestQueryTransactions_ScopesToChain(t *testing.T) {
	chains := &fakeChainSource{chain: Chain{Nodes: []ChainNode{
		{LeagueID: "L2023", Season: 2023},
		{LeagueID: "L2022", Season: 2022},
	}}}
	ledger := &fakeLedger{
		txs:     []models.Transaction{{ID: "t1", Season: 2023}},
		total:   41,
		assets:  map[string][]models.TransactionAsset{},
		seasons: []int{2023, 2022},
		types:   []string{"trade", "waiver"},
		rows:    []repository.FacetRow{{Season: 2023, RosterID: 1}},
	}

	svc := NewQueryService(chains, ledger, fakeRenderer{}, testLogger())
	page, err := svc.Transactions(context.Background(), "L2022", QueryParams{
		Types: []string{"trade"},
		Page:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"L2023", "L2022"}, ledger.queryFilter.LeagueIDs,
		"any chain node widens the query to the whole chain")
	assert.Equal(t, []string{"trade"}, ledger.queryFilter.Types)
	assert.Equal(t, 2, ledger.queryFilter.Page)
	assert.Equal(t, defaultPageSize, ledger.queryFilter.PageSize)
	assert.Equal(t, ledger.queryFilter, ledger.facetFilter, "facets describe the same filtered corpus")

	assert.Equal(t, 41, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "t1", page.Items[0].TransactionID)
	assert.Equal(t, []int{2023, 2022}, page.Facets.Seasons)
	require.Len(t, page.Facets.Teams, 1)
	assert.Equal(t, "Team", page.Facets.Teams[0].Team)
}

func TestQueryTransactions_NormalizesPagination(t *testing.T) {
	chains := &fakeChainSource{chain: Chain{Nodes: []ChainNode{{LeagueID: "L", Season: 2023}}}}
	ledger := &fakeLedger{assets: map[string][]models.TransactionAsset{}}
	svc := NewQueryService(chains, ledger, fakeRenderer{}, testLogger())

	_, err := svc.Transactions(context.Background(), "L", QueryParams{Page: -4, PageSize: 10000})
	require.NoError(t, err)

	assert.Equal(t, 1, ledger.queryFilter.Page)
	assert.Equal(t, maxPageSize, ledger.queryFilter.PageSize)
}

// corpusLedger filters, sorts, and pages an in-memory corpus the way the
// Postgres repository does, so page totals and facets can be checked
// against each other
type corpusLedger struct {
	txs     []models.Transaction
	rosters map[string][]repository.FacetRow
}

func (f *corpusLedger) filtered(filter repository.TransactionFilter) []models.Transaction {
	var out []models.Transaction
	for _, tx := range f.txs {
		if !containsString(filter.LeagueIDs, tx.LeagueID) {
			continue
		}
		if len(filter.Seasons) > 0 && !containsInt(filter.Seasons, tx.Season) {
			continue
		}
		if len(filter.Types) > 0 && !containsString(filter.Types, tx.Type) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *corpusLedger) Query(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, int, error) {
	matched := f.filtered(filter)
	total := len(matched)

	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *corpusLedger) ListAssets(ctx context.Context, ids []string) (map[string][]models.TransactionAsset, error) {
	return map[string][]models.TransactionAsset{}, nil
}

func (f *corpusLedger) Facets(ctx context.Context, filter repository.TransactionFilter) ([]int, []string, []repository.FacetRow, error) {
	seasonSet := make(map[int]bool)
	typeSet := make(map[string]bool)
	rowSet := make(map[repository.FacetRow]bool)
	for _, tx := range f.filtered(filter) {
		seasonSet[tx.Season] = true
		typeSet[tx.Type] = true
		for _, row := range f.rosters[tx.ID] {
			rowSet[row] = true
		}
	}

	seasons := make([]int, 0, len(seasonSet))
	for s := range seasonSet {
		seasons = append(seasons, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(seasons)))

	types := make([]string, 0, len(typeSet))
	for ty := range typeSet {
		types = append(types, ty)
	}
	sort.Strings(types)

	rows := make([]repository.FacetRow, 0, len(rowSet))
	for row := range rowSet {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Season != rows[j].Season {
			return rows[i].Season > rows[j].Season
		}
		return rows[i].RosterID < rows[j].RosterID
	})

	return seasons, types, rows, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func twoSeasonCorpus() *corpusLedger {
	at := func(offset int) time.Time {
		return time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Hour)
	}
	return &corpusLedger{
		txs: []models.Transaction{
			{ID: "t1", LeagueID: "L2023", Season: 2023, Type: "trade", CreatedAt: at(7)},
			{ID: "t2", LeagueID: "L2023", Season: 2023, Type: "waiver", CreatedAt: at(6)},
			{ID: "t3", LeagueID: "L2023", Season: 2023, Type: "trade", CreatedAt: at(5)},
			{ID: "t4", LeagueID: "L2023", Season: 2023, Type: "free_agent", CreatedAt: at(4)},
			{ID: "t5", LeagueID: "L2022", Season: 2022, Type: "trade", CreatedAt: at(3)},
			{ID: "t6", LeagueID: "L2022", Season: 2022, Type: "waiver", CreatedAt: at(2)},
			{ID: "t7", LeagueID: "L2022", Season: 2022, Type: "waiver", CreatedAt: at(1)},
		},
		rosters: map[string][]repository.FacetRow{
			"t1": {{Season: 2023, RosterID: 1}, {Season: 2023, RosterID: 2}},
			"t2": {{Season: 2023, RosterID: 3}},
			"t3": {{Season: 2023, RosterID: 1}, {Season: 2023, RosterID: 3}},
			"t4": {{Season: 2023, RosterID: 2}},
			"t5": {{Season: 2022, RosterID: 1}, {Season: 2022, RosterID: 4}},
			"t6": {{Season: 2022, RosterID: 2}},
			"t7": {{Season: 2022, RosterID: 4}},
		},
	}
}

func TestQueryTransactions_FacetsCoverEveryPage(t *testing.T) {
	chains := &fakeChainSource{chain: Chain{Nodes: []ChainNode{
		{LeagueID: "L2023", Season: 2023},
		{LeagueID: "L2022", Season: 2022},
	}}}
	svc := NewQueryService(chains, twoSeasonCorpus(), fakeRenderer{}, testLogger())

	seen := 0
	for pageNum := 1; pageNum <= 3; pageNum++ {
		page, err := svc.Transactions(context.Background(), "L2023", QueryParams{Page: pageNum, PageSize: 3})
		require.NoError(t, err)

		assert.Equal(t, 7, page.Total, "total spans the whole corpus, not the page")
		seen += len(page.Items)

		for _, item := range page.Items {
			assert.Contains(t, page.Facets.Seasons, item.Season)
			assert.Contains(t, page.Facets.Types, item.Type)
		}
		assert.Equal(t, []int{2023, 2022}, page.Facets.Seasons)
		assert.Equal(t, []string{"free_agent", "trade", "waiver"}, page.Facets.Types)
	}
	assert.Equal(t, 7, seen, "page sizes sum to the reported total")

	empty, err := svc.Transactions(context.Background(), "L2023", QueryParams{Page: 4, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, empty.Items, "pages past the corpus are empty, not an error")
	assert.Equal(t, 7, empty.Total)
}

func TestQueryTransactions_FacetsFollowTheFilter(t *testing.T) {
	chains := &fakeChainSource{chain: Chain{Nodes: []ChainNode{
		{LeagueID: "L2023", Season: 2023},
		{LeagueID: "L2022", Season: 2022},
	}}}
	svc := NewQueryService(chains, twoSeasonCorpus(), fakeRenderer{}, testLogger())

	page, err := svc.Transactions(context.Background(), "L2023", QueryParams{Types: []string{"waiver"}})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 3)
	for _, item := range page.Items {
		assert.Equal(t, "waiver", item.Type)
	}

	assert.Equal(t, []int{2023, 2022}, page.Facets.Seasons)
	assert.Equal(t, []string{"waiver"}, page.Facets.Types)

	// Only rosters that took part in a waiver claim remain as team facets
	require.Len(t, page.Facets.Teams, 3)
	assert.Equal(t, models.TeamFacet{Season: 2023, RosterID: 3, Team: "Team"}, page.Facets.Teams[0])
	assert.Equal(t, models.TeamFacet{Season: 2022, RosterID: 2, Team: "Team"}, page.Facets.Teams[1])
	assert.Equal(t, models.TeamFacet{Season: 2022, RosterID: 4, Team: "Team"}, page.Facets.Teams[2])
}

func TestQueryTransactions_UnknownLeague(t *testing.T) {
	chains := &fakeChainSource{err: errs.ErrNotFound}
	svc := NewQueryService(chains, &fakeLedger{}, fakeRenderer{}, testLogger())

	_, err := svc.Transactions(context.Background(), "ghost", QueryParams{})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}
