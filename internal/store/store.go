// Package store provides the bounded-TTL key-value storage used for task
// records: redis when reachable, an in-process map otherwise.
package store

import (
	"context"
	"errors"
	"time"

	"lingo/internal/config"
	"lingo/internal/logging"
)

// ErrNotFound reports an absent or expired key.
var ErrNotFound = errors.New("key not found")

// KV is the storage contract consumed by the task layer. Implementations are
// safe for concurrent use; access is single-key, last write wins.
type KV interface {
	SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Name() string
}

const probeTimeout = 3 * time.Second

// New probes redis once at startup and returns it when reachable, otherwise
// the in-memory fallback. Connectivity problems never surface to callers.
func New(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) KV {
	logger = logging.OrNop(logger)

	rds := NewRedis(cfg)
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := rds.Ping(probeCtx); err != nil {
		logger.Warn("redis unreachable at %s, using in-memory store: %v", cfg.Addr(), err)
		return NewMemory()
	}

	logger.Info("connected to redis at %s", cfg.Addr())
	return rds
}
