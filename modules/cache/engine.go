package cache

import (
	"context"
	"time"
)

// Engine names accepted by CacheConfig.Engine.
const (
	EngineMemory = "memory"
	EngineRedis  = "redis"
)

// CacheEngine is implemented by every storage backend.
//
// The memory engine returns stored values unchanged. The Redis engine
// stores values as JSON, so Get returns them decoded into plain maps,
// slices, strings, float64s and bools.
type CacheEngine interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error

	GetMulti(ctx context.Context, keys []string) (map[string]any, error)
	SetMulti(ctx context.Context, items map[string]any, ttl time.Duration) error
	DeleteMulti(ctx context.Context, keys []string) error

	// DeletePrefix removes every key starting with prefix and reports how
	// many were removed. An empty prefix removes everything.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
