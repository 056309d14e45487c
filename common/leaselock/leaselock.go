package leaselock

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed release.lua
var releaseScript string

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Lease is a held advisory lock. Release it when the guarded work finishes.
type Lease struct {
	key    string
	token  string
	locker *Locker
}

// Locker hands out per-key advisory leases backed by Redis. Two concurrent
// syncs of the same league would otherwise interleave delete-then-insert of
// the same transaction's assets, so every sync must run under a lease.
type Locker struct {
	redis  *redis.Client
	script *redis.Script
	prefix string
	logger Logger
}

// NewLocker creates a lease locker with a key prefix
func NewLocker(redisClient *redis.Client, prefix string, logger Logger) *Locker {
	return &Locker{
		redis:  redisClient,
		script: redis.NewScript(releaseScript),
		prefix: prefix,
		logger: logger,
	}
}

// Acquire attempts to take the lease for key. It does not block: when the
// lease is already held it returns (nil, false, nil).
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, bool, error) {
	token := uuid.NewString()
	fullKey := l.prefix + key

	ok, err := l.redis.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		l.logger.Error("lease acquire failed", "key", fullKey, "error", err)
		return nil, false, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		l.logger.Debug("lease already held", "key", fullKey)
		return nil, false, nil
	}

	l.logger.Debug("lease acquired", "key", fullKey, "ttl", ttl)
	return &Lease{key: fullKey, token: token, locker: l}, true, nil
}

// Release releases the lease if this holder still owns it
func (lease *Lease) Release(ctx context.Context) error {
	result, err := lease.locker.script.Run(ctx, lease.locker.redis, []string{lease.key}, lease.token).Result()
	if err != nil {
		lease.locker.logger.Error("lease release failed", "key", lease.key, "error", err)
		return fmt.Errorf("release lease: %w", err)
	}

	if released, ok := result.(int64); !ok || released != 1 {
		// Expired and possibly re-acquired by another holder; nothing to do
		lease.locker.logger.Warn("lease expired before release", "key", lease.key)
	}

	return nil
}
