package container

import (
	"github.com/alitto/pond/v2"

	"github.com/leaguevault/leaguevault/cmd/leaguevault/repository"
	"github.com/leaguevault/leaguevault/cmd/leaguevault/service"
	"github.com/leaguevault/leaguevault/common/bootstrap"
	"github.com/leaguevault/leaguevault/common/clients"
	"github.com/leaguevault/leaguevault/common/leaselock"
)

// renderPoolSize bounds the concurrent reference-data lookups behind one
// page render
const renderPoolSize = 10

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Sleeper    *clients.SleeperClient
	Pool       pond.Pool

	// Repositories
	LeagueSeasonRepo *repository.LeagueSeasonRepository
	UserRepo         *repository.UserRepository
	RosterRepo       *repository.RosterRepository
	PlayerRepo       *repository.PlayerRepository
	MatchupRepo      *repository.MatchupRepository
	TransactionRepo  *repository.TransactionRepository

	// Services
	ChainResolver *service.ChainResolver
	LabelService  *service.LabelService
	SyncService   *service.SyncService
	QueryService  *service.QueryService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	sleeper := clients.NewSleeperClient(components.Config.Sleeper, components.Logger)

	// Per-league sync leases live in Redis so concurrent replicas agree
	locker := leaselock.NewLocker(components.Redis.GetUnderlying(), "leaguevault:lock:", components.Logger)

	// Initialize repositories
	leagueSeasonRepo := repository.NewLeagueSeasonRepository(components.DB)
	userRepo := repository.NewUserRepository(components.DB)
	rosterRepo := repository.NewRosterRepository(components.DB)
	playerRepo := repository.NewPlayerRepository(components.DB)
	matchupRepo := repository.NewMatchupRepository(components.DB)
	transactionRepo := repository.NewTransactionRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	chainResolver := service.NewChainResolver(
		sleeper,
		leagueSeasonRepo,
		components.Cache,
		components.Config.Sync,
		components.Config.Cache,
		components.Logger,
	)

	pool := pond.NewPool(renderPoolSize)
	labelService := service.NewLabelService(
		rosterRepo,
		userRepo,
		playerRepo,
		sleeper,
		pool,
		components.Logger,
	)

	syncService := service.NewSyncService(
		sleeper,
		chainResolver,
		leagueSeasonRepo,
		userRepo,
		rosterRepo,
		playerRepo,
		matchupRepo,
		transactionRepo,
		service.NewRedisLocker(locker),
		components.Config.Sync,
		components.Config.Sleeper.Sport,
		components.Logger,
	)

	queryService := service.NewQueryService(
		chainResolver,
		transactionRepo,
		labelService,
		components.Logger,
	)

	return &Container{
		Components:       components,
		Sleeper:          sleeper,
		Pool:             pool,
		LeagueSeasonRepo: leagueSeasonRepo,
		UserRepo:         userRepo,
		RosterRepo:       rosterRepo,
		PlayerRepo:       playerRepo,
		MatchupRepo:      matchupRepo,
		TransactionRepo:  transactionRepo,
		ChainResolver:    chainResolver,
		LabelService:     labelService,
		SyncService:      syncService,
		QueryService:     queryService,
	}, nil
}

// Shutdown stops the render worker pool, waiting for in-flight tasks
func (c *Container) Shutdown() {
	c.Pool.StopAndWait()
}
