package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/leaguevault/leaguevault/common/config"
	"github.com/leaguevault/leaguevault/common/errs"
	"github.com/leaguevault/leaguevault/common/logger"
	"github.com/leaguevault/leaguevault/common/retry"
)

// SleeperClient provides typed read-only accessors over the league host API.
// Every call carries the request context, an explicit client timeout, and
// retry-with-backoff on transient failures. 4xx responses are never retried.
type SleeperClient struct {
	http    *http.Client
	baseURL string
	retry   retry.Config
	log     *logger.Logger
}

// NewSleeperClient creates a client from config
func NewSleeperClient(cfg config.SleeperConfig, log *logger.Logger) *SleeperClient {
	return &SleeperClient{
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		baseURL: cfg.BaseURL,
		retry: retry.Config{
			MaxRetries:    cfg.MaxRetries,
			InitialDelay:  cfg.InitialBackoff,
			MaxDelay:      cfg.MaxBackoff,
			Multiplier:    2.0,
			JitterEnabled: true,
		},
		log: log,
	}
}

// League fetches league-season metadata by league id
func (c *SleeperClient) League(ctx context.Context, leagueID string) (*League, error) {
	var league League
	path := fmt.Sprintf("/league/%s", leagueID)
	if err := c.getJSON(ctx, path, &league); err != nil {
		return nil, err
	}
	// The host answers 200 with a null body for unknown league ids
	if league.LeagueID == "" {
		return nil, fmt.Errorf("league %s: %w", leagueID, errs.ErrNotFound)
	}
	return &league, nil
}

// Users fetches the members of a league
func (c *SleeperClient) Users(ctx context.Context, leagueID string) ([]LeagueUser, error) {
	var users []LeagueUser
	path := fmt.Sprintf("/league/%s/users", leagueID)
	if err := c.getJSON(ctx, path, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Rosters fetches the rosters of a league
func (c *SleeperClient) Rosters(ctx context.Context, leagueID string) ([]Roster, error) {
	var rosters []Roster
	path := fmt.Sprintf("/league/%s/rosters", leagueID)
	if err := c.getJSON(ctx, path, &rosters); err != nil {
		return nil, err
	}
	return rosters, nil
}

// Matchups fetches one week's matchups
func (c *SleeperClient) Matchups(ctx context.Context, leagueID string, week int) ([]Matchup, error) {
	var matchups []Matchup
	path := fmt.Sprintf("/league/%s/matchups/%d", leagueID, week)
	if err := c.getJSON(ctx, path, &matchups); err != nil {
		return nil, err
	}
	return matchups, nil
}

// Transactions fetches one week's transactions. The host records pre-season
// moves under week 0.
func (c *SleeperClient) Transactions(ctx context.Context, leagueID string, week int) ([]Transaction, error) {
	var txs []Transaction
	path := fmt.Sprintf("/league/%s/transactions/%d", leagueID, week)
	if err := c.getJSON(ctx, path, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// LeagueDrafts fetches the drafts of a league-season
func (c *SleeperClient) LeagueDrafts(ctx context.Context, leagueID string) ([]Draft, error) {
	var drafts []Draft
	path := fmt.Sprintf("/league/%s/drafts", leagueID)
	if err := c.getJSON(ctx, path, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

// DraftPicks fetches the completed selections of a draft
func (c *SleeperClient) DraftPicks(ctx context.Context, draftID string) ([]DraftPick, error) {
	var picks []DraftPick
	path := fmt.Sprintf("/draft/%s/picks", draftID)
	if err := c.getJSON(ctx, path, &picks); err != nil {
		return nil, err
	}
	return picks, nil
}

// AllPlayers fetches the host's full player directory keyed by player id.
// This is a large payload; callers persist it in bounded chunks.
func (c *SleeperClient) AllPlayers(ctx context.Context, sport string) (map[string]Player, error) {
	var players map[string]Player
	path := fmt.Sprintf("/players/%s", sport)
	if err := c.getJSON(ctx, path, &players); err != nil {
		return nil, err
	}
	return players, nil
}

// getJSON performs a GET with retry and decodes the response into out
func (c *SleeperClient) getJSON(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + path
	start := time.Now()

	err := retry.WithBackoff(ctx, c.retry, c.log, "GET "+path, func() error {
		return c.doGet(ctx, url, path, out)
	})
	if err != nil {
		return err
	}

	c.log.Debug("league api request", "path", path, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *SleeperClient) doGet(ctx context.Context, url, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &retry.Permanent{Err: &errs.ExternalAPIError{Endpoint: path, Err: err}}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &errs.ExternalAPIError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &retry.Permanent{Err: fmt.Errorf("%s: %w", path, errs.ErrNotFound)}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &retry.Permanent{Err: &errs.ExternalAPIError{Endpoint: path, StatusCode: resp.StatusCode}}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &errs.ExternalAPIError{Endpoint: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.ExternalAPIError{Endpoint: path, Err: err}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &retry.Permanent{Err: &errs.ExternalAPIError{Endpoint: path, Err: fmt.Errorf("decode response: %w", err)}}
	}

	return nil
}
