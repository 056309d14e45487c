package service

import (
	"context"
	"fmt"

	"github.com/leaguevault/leaguevault/cmd/leaguevault/repository"
	"github.com/leaguevault/leaguevault/common/logger"
	"github.com/leaguevault/leaguevault/common/models"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

type chainSource interface {
	ResolveCached(ctx context.Context, startID string) (Chain, error)
}

type ledgerReader interface {
	Query(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, int, error)
	ListAssets(ctx context.Context, transactionIDs []string) (map[string][]models.TransactionAsset, error)
	Facets(ctx context.Context, filter repository.TransactionFilter) ([]int, []string, []repository.FacetRow, error)
}

type viewRenderer interface {
	Render(ctx context.Context, chain Chain, txs []models.Transaction, assets map[string][]models.TransactionAsset) ([]models.TransactionView, error)
	LabelTeams(ctx context.Context, chain Chain, facets []models.TeamFacet) []models.TeamFacet
}

// QueryParams are the caller-facing filters for a ledger page
type QueryParams struct {
	Seasons   []int
	Types     []string
	RosterIDs []int
	PlayerID  string
	Page      int
	PageSize  int
}

// QueryService serves the read side of the ledger: it scopes a request to
// the league's season chain, pages the matching transactions, and renders
// them into labelled view-models with facets.
type QueryService struct {
	chains chainSource
	ledger ledgerReader
	labels viewRenderer
	log    *logger.Logger
}

// NewQueryService creates a new query service
func NewQueryService(chains chainSource, ledger ledgerReader, labels viewRenderer, log *logger.Logger) *QueryService {
	return &QueryService{
		chains: chains,
		ledger: ledger,
		labels: labels,
		log:    log,
	}
}

// Transactions returns one rendered page of a league's cross-season ledger.
// The league id may be any node of the chain; the query spans every season
// reachable from it.
func (s *QueryService) Transactions(ctx context.Context, leagueID string, params QueryParams) (*models.TransactionPage, error) {
	chain, err := s.chains.ResolveCached(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("resolve chain for %s: %w", leagueID, err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	size := params.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	filter := repository.TransactionFilter{
		LeagueIDs: chain.LeagueIDs(),
		Seasons:   params.Seasons,
		Types:     params.Types,
		RosterIDs: params.RosterIDs,
		PlayerID:  params.PlayerID,
		Page:      page,
		PageSize:  size,
	}

	txs, total, err := s.ledger.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(txs))
	for i := range txs {
		ids[i] = txs[i].ID
	}
	assets, err := s.ledger.ListAssets(ctx, ids)
	if err != nil {
		return nil, err
	}

	views, err := s.labels.Render(ctx, chain, txs, assets)
	if err != nil {
		return nil, err
	}

	seasons, types, rosterRows, err := s.ledger.Facets(ctx, filter)
	if err != nil {
		return nil, err
	}

	teams := make([]models.TeamFacet, len(rosterRows))
	for i, row := range rosterRows {
		teams[i] = models.TeamFacet{Season: row.Season, RosterID: row.RosterID}
	}
	teams = s.labels.LabelTeams(ctx, chain, teams)

	return &models.TransactionPage{
		Items:    views,
		Total:    total,
		Page:     page,
		PageSize: size,
		Facets: models.Facets{
			Seasons: seasons,
			Types:   types,
			Teams:   teams,
		},
	}, nil
}
