package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/leaguevault/leaguevault/common/clients"
	"github.com/leaguevault/leaguevault/common/config"
	"github.com/leaguevault/leaguevault/common/errs"
	"github.com/leaguevault/leaguevault/common/leaselock"
	"github.com/leaguevault/leaguevault/common/logger"
	"github.com/leaguevault/leaguevault/common/models"
)

// LeagueAPI is the full host API surface the sync engine consumes
type LeagueAPI interface {
	League(ctx context.Context, leagueID string) (*clients.League, error)
	Users(ctx context.Context, leagueID string) ([]clients.LeagueUser, error)
	Rosters(ctx context.Context, leagueID string) ([]clients.Roster, error)
	Matchups(ctx context.Context, leagueID string, week int) ([]clients.Matchup, error)
	Transactions(ctx context.Context, leagueID string, week int) ([]clients.Transaction, error)
	LeagueDrafts(ctx context.Context, leagueID string) ([]clients.Draft, error)
	DraftPicks(ctx context.Context, draftID string) ([]clients.DraftPick, error)
	AllPlayers(ctx context.Context, sport string) (map[string]clients.Player, error)
}

// Ledger store slices the sync engine writes through

type leagueSeasonWriter interface {
	Upsert(ctx context.Context, ls *models.LeagueSeason) error
}

type userWriter interface {
	UpsertBatch(ctx context.Context, users []models.User) error
}

type rosterWriter interface {
	UpsertBatch(ctx context.Context, rosters []models.Roster) error
}

type playerWriter interface {
	UpsertBatch(ctx context.Context, players []models.Player) error
}

type matchupWriter interface {
	UpsertWeek(ctx context.Context, matchups []models.Matchup) error
}

type transactionWriter interface {
	Upsert(ctx context.Context, tx *models.Transaction) error
	ReplaceAssets(ctx context.Context, transactionID string, assets []models.TransactionAsset) error
}

// Lease is a held sync lease
type Lease interface {
	Release(ctx context.Context) error
}

// Locker serializes syncs per league. Acquire returns ok=false when the
// lease is already held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error)
}

// NewRedisLocker adapts the shared lease locker to the service interface
func NewRedisLocker(locker *leaselock.Locker) Locker {
	return &redisLocker{locker: locker}
}

type redisLocker struct {
	locker *leaselock.Locker
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	lease, ok, err := l.locker.Acquire(ctx, key, ttl)
	if err != nil || !ok {
		return nil, ok, err
	}
	return lease, true, nil
}

// SyncService pulls one league-season's upstream data and merges it into the
// ledger. Any host API failure aborts the in-progress season sync; committed
// weeks stay committed, so re-invoking is always safe.
type SyncService struct {
	api          LeagueAPI
	resolver     *ChainResolver
	leagues      leagueSeasonWriter
	users        userWriter
	rosters      rosterWriter
	players      playerWriter
	matchups     matchupWriter
	transactions transactionWriter
	locks        Locker
	cfg          config.SyncConfig
	sport        string
	log          *logger.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(
	api LeagueAPI,
	resolver *ChainResolver,
	leagues leagueSeasonWriter,
	users userWriter,
	rosters rosterWriter,
	players playerWriter,
	matchups matchupWriter,
	transactions transactionWriter,
	locks Locker,
	cfg config.SyncConfig,
	sport string,
	log *logger.Logger,
) *SyncService {
	return &SyncService{
		api:          api,
		resolver:     resolver,
		leagues:      leagues,
		users:        users,
		rosters:      rosters,
		players:      players,
		matchups:     matchups,
		transactions: transactions,
		locks:        locks,
		cfg:          cfg,
		sport:        sport,
		log:          log,
	}
}

// SyncLeague ingests one league-season. It runs under a per-league lease so
// two concurrent syncs cannot interleave delete-then-insert of the same
// transaction's assets.
func (s *SyncService) SyncLeague(ctx context.Context, leagueID string) (*models.SyncReport, error) {
	if leagueID == "" {
		return nil, errs.NewConfigError("league_id", "league id is required")
	}

	lease, ok, err := s.locks.Acquire(ctx, "sync:league:"+leagueID, s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lease: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("league %s: %w", leagueID, errs.ErrSyncInProgress)
	}
	defer func() {
		if err := lease.Release(ctx); err != nil {
			s.log.Warn("failed to release sync lease", "league_id", leagueID, "error", err)
		}
	}()

	return s.syncLeagueLocked(ctx, leagueID)
}

func (s *SyncService) syncLeagueLocked(ctx context.Context, leagueID string) (*models.SyncReport, error) {
	start := time.Now()
	report := &models.SyncReport{
		RunID:    uuid.New(),
		LeagueID: leagueID,
	}
	log := s.log.WithLeague(leagueID).WithSyncRun(report.RunID.String())

	league, err := s.api.League(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetch league: %w", err)
	}

	season, err := strconv.Atoi(league.Season)
	if err != nil {
		return nil, fmt.Errorf("league %s reports season %q: %w", leagueID, league.Season, err)
	}
	report.Season = season

	finalWeek := league.Settings.LastScheduledLeg
	if finalWeek <= 0 {
		finalWeek = s.cfg.DefaultFinalWeek
	}

	var previous *string
	if league.PreviousLeagueID != "" {
		prev := league.PreviousLeagueID
		previous = &prev
	}

	if err := s.leagues.Upsert(ctx, &models.LeagueSeason{
		LeagueID:         leagueID,
		Season:           season,
		Name:             league.Name,
		PreviousLeagueID: previous,
		FinalWeek:        finalWeek,
		SyncedAt:         time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("upsert league season: %w", err)
	}

	if report.Users, err = s.syncUsers(ctx, leagueID); err != nil {
		return nil, err
	}

	if report.Rosters, err = s.syncRosters(ctx, leagueID, season); err != nil {
		return nil, err
	}

	// Matchups start at week 1. Transactions may start at week 0 because the
	// host files pre-season moves there; that asymmetry is configured, not
	// incidental.
	for week := 1; week <= finalWeek; week++ {
		count, err := s.syncMatchupWeek(ctx, leagueID, season, week)
		if err != nil {
			return report, fmt.Errorf("week %d matchups: %w", week, err)
		}
		report.Matchups += count
	}

	for week := s.cfg.TransactionsFromWeek; week <= finalWeek; week++ {
		txCount, assetCount, err := s.syncTransactionWeek(ctx, leagueID, season, week)
		if err != nil {
			return report, fmt.Errorf("week %d transactions: %w", week, err)
		}
		report.Transactions += txCount
		report.Assets += assetCount
		report.WeeksCompleted++
	}

	report.Duration = time.Since(start)
	log.Info("league sync complete",
		"season", season,
		"users", report.Users,
		"rosters", report.Rosters,
		"matchups", report.Matchups,
		"transactions", report.Transactions,
		"assets", report.Assets,
		"duration_ms", report.Duration.Milliseconds(),
	)

	return report, nil
}

func (s *SyncService) syncUsers(ctx context.Context, leagueID string) (int, error) {
	users, err := s.api.Users(ctx, leagueID)
	if err != nil {
		return 0, fmt.Errorf("fetch users: %w", err)
	}

	rows := make([]models.User, 0, len(users))
	for _, u := range users {
		row := models.User{UserID: u.UserID}
		if u.DisplayName != "" {
			name := u.DisplayName
			row.DisplayName = &name
		}
		if u.Username != "" {
			username := u.Username
			row.Username = &username
		}
		rows = append(rows, row)
	}

	if err := s.users.UpsertBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("upsert users: %w", err)
	}
	return len(rows), nil
}

func (s *SyncService) syncRosters(ctx context.Context, leagueID string, season int) (int, error) {
	rosters, err := s.api.Rosters(ctx, leagueID)
	if err != nil {
		return 0, fmt.Errorf("fetch rosters: %w", err)
	}

	rows := make([]models.Roster, 0, len(rosters))
	for _, ro := range rosters {
		row := models.Roster{
			LeagueID: leagueID,
			Season:   season,
			RosterID: ro.RosterID,
		}
		if ro.OwnerID != "" {
			owner := ro.OwnerID
			row.OwnerID = &owner
		}
		rows = append(rows, row)
	}

	if err := s.rosters.UpsertBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("upsert rosters: %w", err)
	}
	return len(rows), nil
}

func (s *SyncService) syncMatchupWeek(ctx context.Context, leagueID string, season, week int) (int, error) {
	matchups, err := s.api.Matchups(ctx, leagueID, week)
	if err != nil {
		return 0, fmt.Errorf("fetch matchups: %w", err)
	}

	rows := make([]models.Matchup, 0, len(matchups))
	for _, m := range matchups {
		rows = append(rows, models.Matchup{
			LeagueID:  leagueID,
			Season:    season,
			Week:      week,
			RosterID:  m.RosterID,
			MatchupID: m.MatchupID,
			Points:    m.Points,
		})
	}

	if err := s.matchups.UpsertWeek(ctx, rows); err != nil {
		return 0, fmt.Errorf("upsert matchups: %w", err)
	}
	return len(rows), nil
}

func (s *SyncService) syncTransactionWeek(ctx context.Context, leagueID string, season, week int) (int, int, error) {
	txs, err := s.api.Transactions(ctx, leagueID, week)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch transactions: %w", err)
	}

	assetTotal := 0
	for i := range txs {
		raw := &txs[i]

		payload, err := json.Marshal(raw)
		if err != nil {
			return 0, assetTotal, fmt.Errorf("encode transaction %s: %w", raw.TransactionID, err)
		}

		row := &models.Transaction{
			ID:         raw.TransactionID,
			LeagueID:   leagueID,
			Season:     season,
			Week:       week,
			Type:       raw.Type,
			Status:     raw.Status,
			CreatedAt:  time.UnixMilli(raw.Created).UTC(),
			RawPayload: payload,
		}

		if err := s.transactions.Upsert(ctx, row); err != nil {
			return 0, assetTotal, fmt.Errorf("upsert transaction %s: %w", raw.TransactionID, err)
		}

		assets := DeriveMovements(raw)
		for j := range assets {
			assets[j].TransactionID = raw.TransactionID
		}
		if err := s.transactions.ReplaceAssets(ctx, raw.TransactionID, assets); err != nil {
			return 0, assetTotal, fmt.Errorf("replace assets for %s: %w", raw.TransactionID, err)
		}
		assetTotal += len(assets)
	}

	return len(txs), assetTotal, nil
}

// SyncChain resolves the season chain from startID and syncs every node,
// newest first. The first failure stops the walk; the report says how far it
// got so an operator can resume.
func (s *SyncService) SyncChain(ctx context.Context, startID string) (*models.ChainSyncReport, error) {
	if startID == "" {
		startID = s.cfg.StartLeagueID
	}
	if startID == "" {
		return nil, errs.NewConfigError("SYNC_START_LEAGUE_ID", "no league id given and no default configured")
	}

	report := &models.ChainSyncReport{
		RunID:         uuid.New(),
		StartLeagueID: startID,
	}
	log := s.log.WithFields(map[string]any{
		"sync_run_id":     report.RunID.String(),
		"start_league_id": startID,
	})

	chain, resolveErr := s.resolver.Resolve(ctx, startID)
	report.Chain = chain.LeagueIDs()

	if resolveErr != nil && len(chain.Nodes) == 0 {
		report.Error = resolveErr.Error()
		return report, fmt.Errorf("resolve chain: %w", resolveErr)
	}
	if resolveErr != nil {
		log.Warn("chain resolution incomplete, syncing accumulated prefix",
			"nodes", len(chain.Nodes),
			"error", resolveErr,
		)
		report.Error = resolveErr.Error()
	}

	for _, node := range chain.Nodes {
		seasonReport, err := s.SyncLeague(ctx, node.LeagueID)
		if err != nil {
			failed := node.LeagueID
			report.FailedLeague = &failed
			report.Error = err.Error()
			log.Error("chain sync stopped",
				"league_id", node.LeagueID,
				"completed", len(report.Completed),
				"error", err,
			)
			return report, fmt.Errorf("sync league %s: %w", node.LeagueID, err)
		}
		report.Completed = append(report.Completed, seasonReport)
	}

	log.Info("chain sync complete",
		"seasons", len(report.Completed),
	)
	return report, nil
}

// SyncPlayers ingests the host's full player directory in bounded chunks so
// no single write grows with the directory
func (s *SyncService) SyncPlayers(ctx context.Context) (*models.PlayerSyncReport, error) {
	start := time.Now()
	report := &models.PlayerSyncReport{RunID: uuid.New()}

	players, err := s.api.AllPlayers(ctx, s.sport)
	if err != nil {
		return nil, fmt.Errorf("fetch player directory: %w", err)
	}

	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	chunk := make([]models.Player, 0, s.cfg.PlayerChunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := s.players.UpsertBatch(ctx, chunk); err != nil {
			return fmt.Errorf("upsert player chunk: %w", err)
		}
		report.Players += len(chunk)
		report.Chunks++
		chunk = chunk[:0]
		return nil
	}

	for _, id := range ids {
		p := players[id]
		if p.PlayerID == "" {
			p.PlayerID = id
		}
		row := models.Player{
			PlayerID: p.PlayerID,
			FullName: p.Name(),
		}
		if p.Position != "" {
			position := p.Position
			row.Position = &position
		}
		if p.Team != "" {
			team := p.Team
			row.Team = &team
		}
		chunk = append(chunk, row)

		if len(chunk) >= s.cfg.PlayerChunkSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	s.log.Info("player directory sync complete",
		"players", report.Players,
		"chunks", report.Chunks,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}
