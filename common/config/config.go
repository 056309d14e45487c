package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/leaguevault/leaguevault/common/errs"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Sleeper   SleeperConfig
	Sync      SyncConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig holds cache settings
type CacheConfig struct {
	Enabled  bool
	Backend  string // "memory" or "redis"
	ChainTTL time.Duration
}

// SleeperConfig holds league host API client settings
type SleeperConfig struct {
	BaseURL        string
	Sport          string
	RequestTimeout time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// SyncConfig holds ingestion settings
type SyncConfig struct {
	// StartLeagueID is the default chain head when none is given on a request.
	StartLeagueID string
	// MaxChainDepth bounds previous-season pointer traversal.
	MaxChainDepth int
	// DefaultFinalWeek is used when the host API reports no end week.
	DefaultFinalWeek int
	// TransactionsFromWeek is the first week fetched for transactions.
	// The host records pre-season moves under week 0 while matchups start
	// at week 1, so this defaults to 0.
	TransactionsFromWeek int
	// PlayerChunkSize bounds batched player directory upserts.
	PlayerChunkSize int
	// LockTTL is the lifetime of the per-league sync lease.
	LockTTL time.Duration
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "leaguevault"),
			User:        getEnv("POSTGRES_USER", "leaguevault"),
			Password:    getEnv("POSTGRES_PASSWORD", "leaguevault"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 25),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 5),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled:  getEnvBool("CACHE_ENABLED", true),
			Backend:  getEnv("CACHE_BACKEND", "memory"),
			ChainTTL: getEnvDuration("CACHE_CHAIN_TTL", 5*time.Minute),
		},
		Sleeper: SleeperConfig{
			BaseURL:        getEnv("SLEEPER_BASE_URL", "https://api.sleeper.app/v1"),
			Sport:          getEnv("SLEEPER_SPORT", "nfl"),
			RequestTimeout: getEnvDuration("SLEEPER_REQUEST_TIMEOUT", 15*time.Second),
			MaxRetries:     getEnvInt("SLEEPER_MAX_RETRIES", 4),
			InitialBackoff: getEnvDuration("SLEEPER_INITIAL_BACKOFF", 500*time.Millisecond),
			MaxBackoff:     getEnvDuration("SLEEPER_MAX_BACKOFF", 8*time.Second),
		},
		Sync: SyncConfig{
			StartLeagueID:        getEnv("SYNC_START_LEAGUE_ID", ""),
			MaxChainDepth:        getEnvInt("SYNC_MAX_CHAIN_DEPTH", 20),
			DefaultFinalWeek:     getEnvInt("SYNC_DEFAULT_FINAL_WEEK", 17),
			TransactionsFromWeek: getEnvInt("SYNC_TRANSACTIONS_FROM_WEEK", 0),
			PlayerChunkSize:      getEnvInt("SYNC_PLAYER_CHUNK_SIZE", 500),
			LockTTL:              getEnvDuration("SYNC_LOCK_TTL", 10*time.Minute),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return errs.NewConfigError("PORT", fmt.Sprintf("invalid port: %d", c.Service.Port))
	}

	if c.Database.Host == "" {
		return errs.NewConfigError("POSTGRES_HOST", "database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return errs.NewConfigError("POSTGRES_MAX_CONNS", "max_conns must be >= min_conns")
	}

	if c.Sleeper.BaseURL == "" {
		return errs.NewConfigError("SLEEPER_BASE_URL", "league api base URL is required")
	}

	if c.Sync.MaxChainDepth < 1 {
		return errs.NewConfigError("SYNC_MAX_CHAIN_DEPTH", "chain depth must be at least 1")
	}

	if c.Sync.TransactionsFromWeek < 0 || c.Sync.TransactionsFromWeek > 1 {
		return errs.NewConfigError("SYNC_TRANSACTIONS_FROM_WEEK", "must be 0 or 1")
	}

	if c.Sync.PlayerChunkSize < 1 {
		return errs.NewConfigError("SYNC_PLAYER_CHUNK_SIZE", "chunk size must be positive")
	}

	return nil
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
