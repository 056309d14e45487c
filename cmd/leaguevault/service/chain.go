package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/leaguevault/leaguevault/common/cache"
	"github.com/leaguevault/leaguevault/common/clients"
	"github.com/leaguevault/leaguevault/common/config"
	"github.com/leaguevault/leaguevault/common/logger"
	"github.com/leaguevault/leaguevault/common/models"
)

// LeagueFetcher is the slice of the host API the chain resolver needs
type LeagueFetcher interface {
	League(ctx context.Context, leagueID string) (*clients.League, error)
}

// chainStore reads previously synced chain nodes so resolution can fall
// back to the ledger when the host is unreachable
type chainStore interface {
	Get(ctx context.Context, leagueID string) (*models.LeagueSeason, error)
}

// ChainNode is one season of a league chain
type ChainNode struct {
	LeagueID string `json:"league_id"`
	Season   int    `json:"season"`
}

// Chain is a resolved season chain, ordered newest season first
type Chain struct {
	Nodes []ChainNode `json:"nodes"`
}

// LeagueIDs returns the chain's league ids, newest first
func (c Chain) LeagueIDs() []string {
	ids := make([]string, len(c.Nodes))
	for i, n := range c.Nodes {
		ids[i] = n.LeagueID
	}
	return ids
}

// LeagueForSeason returns the league id of the chain node for a season.
// The second return is false when the chain has no node for that season.
func (c Chain) LeagueForSeason(season int) (string, bool) {
	for _, n := range c.Nodes {
		if n.Season == season {
			return n.LeagueID, true
		}
	}
	return "", false
}

// NewestSeason returns the most recent season in the chain, 0 when empty
func (c Chain) NewestSeason() int {
	newest := 0
	for _, n := range c.Nodes {
		if n.Season > newest {
			newest = n.Season
		}
	}
	return newest
}

// ChainResolver walks previous-season pointers into an ordered chain.
// Resolution is pure given the host API's current state, so results are
// cached briefly for the read path.
type ChainResolver struct {
	api      LeagueFetcher
	store    chainStore
	cache    cache.Cache
	cfg      config.SyncConfig
	cacheTTL config.CacheConfig
	log      *logger.Logger
}

// NewChainResolver creates a new chain resolver. The store may be nil when
// no ledger fallback is available.
func NewChainResolver(api LeagueFetcher, store chainStore, c cache.Cache, cfg config.SyncConfig, cacheCfg config.CacheConfig, log *logger.Logger) *ChainResolver {
	return &ChainResolver{
		api:      api,
		store:    store,
		cache:    c,
		cfg:      cfg,
		cacheTTL: cacheCfg,
		log:      log,
	}
}

// Resolve walks the chain starting at startID, newest to oldest. The walk
// stops at a missing pointer, a revisited id, or the depth bound, so a
// cyclic pointer graph always terminates. A fetch failure aborts resolution
// and returns whatever prefix was already accumulated alongside the error.
func (r *ChainResolver) Resolve(ctx context.Context, startID string) (Chain, error) {
	var chain Chain
	visited := make(map[string]bool)
	current := startID

	for depth := 0; depth < r.cfg.MaxChainDepth; depth++ {
		if current == "" || visited[current] {
			return chain, nil
		}
		visited[current] = true

		league, err := r.api.League(ctx, current)
		if err != nil {
			return chain, fmt.Errorf("resolve chain at %s: %w", current, err)
		}

		season, err := strconv.Atoi(league.Season)
		if err != nil {
			return chain, fmt.Errorf("resolve chain at %s: bad season %q: %w", current, league.Season, err)
		}

		chain.Nodes = append(chain.Nodes, ChainNode{LeagueID: current, Season: season})
		current = league.PreviousLeagueID
	}

	r.log.Warn("chain walk hit depth bound",
		"start_league_id", startID,
		"max_depth", r.cfg.MaxChainDepth,
	)
	return chain, nil
}

// ResolveCached resolves a chain through the cache. Stale snapshots are
// acceptable on the read path; syncs always resolve fresh.
func (r *ChainResolver) ResolveCached(ctx context.Context, startID string) (Chain, error) {
	key := "chain:" + startID

	if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		var chain Chain
		if err := json.Unmarshal(data, &chain); err == nil && len(chain.Nodes) > 0 {
			return chain, nil
		}
	}

	chain, err := r.Resolve(ctx, startID)
	if err != nil {
		// A partial prefix is still usable for rendering; keep it uncached
		// so the next request retries the full walk.
		if len(chain.Nodes) > 0 {
			r.log.Warn("serving partial chain", "start_league_id", startID, "nodes", len(chain.Nodes), "error", err)
			return chain, nil
		}
		if stored := r.resolveFromStore(ctx, startID); len(stored.Nodes) > 0 {
			r.log.Warn("host resolution failed, serving stored chain",
				"start_league_id", startID,
				"nodes", len(stored.Nodes),
				"error", err,
			)
			return stored, nil
		}
		return chain, err
	}

	if data, err := json.Marshal(chain); err == nil {
		_ = r.cache.Set(ctx, key, data, r.cacheTTL.ChainTTL)
	}

	return chain, nil
}

// resolveFromStore walks previously synced league_season rows under the
// same guards as the host walk. Stored chains stay uncached so the next
// request retries the host.
func (r *ChainResolver) resolveFromStore(ctx context.Context, startID string) Chain {
	var chain Chain
	if r.store == nil {
		return chain
	}

	visited := make(map[string]bool)
	current := startID

	for depth := 0; depth < r.cfg.MaxChainDepth; depth++ {
		if current == "" || visited[current] {
			return chain
		}
		visited[current] = true

		ls, err := r.store.Get(ctx, current)
		if err != nil {
			return chain
		}

		chain.Nodes = append(chain.Nodes, ChainNode{LeagueID: ls.LeagueID, Season: ls.Season})
		if ls.PreviousLeagueID == nil {
			return chain
		}
		current = *ls.PreviousLeagueID
	}

	return chain
}
