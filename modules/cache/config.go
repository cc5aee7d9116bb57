package cache

import (
	"fmt"
	"time"
)

// CacheConfig configures the cache engine.
//
// Example YAML:
//
//	cache:
//	  engine: redis
//	  defaultTTL: 10m
//	  redisURL: redis://localhost:6379/0
//	  keyPrefix: "sitekit:"
type CacheConfig struct {
	// Engine is "memory" or "redis".
	Engine string `json:"engine" yaml:"engine" toml:"engine" env:"CACHE_ENGINE" default:"memory" desc:"Cache engine: memory or redis"`

	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration `json:"defaultTTL" yaml:"defaultTTL" toml:"defaultTTL" env:"CACHE_DEFAULT_TTL" default:"5m" desc:"TTL used when none is given"`

	// CleanupInterval is how often the memory engine drops expired entries.
	CleanupInterval time.Duration `json:"cleanupInterval" yaml:"cleanupInterval" toml:"cleanupInterval" env:"CACHE_CLEANUP_INTERVAL" default:"1m" desc:"Memory engine expiry sweep interval"`

	// MaxItems bounds the memory engine. When full, the entry closest to
	// expiry is evicted.
	MaxItems int `json:"maxItems" yaml:"maxItems" toml:"maxItems" env:"CACHE_MAX_ITEMS" default:"10000" desc:"Memory engine capacity"`

	// RedisURL uses the redis:// or rediss:// scheme.
	RedisURL string `json:"redisURL" yaml:"redisURL" toml:"redisURL" env:"REDIS_URL" desc:"Redis connection URL"`

	// RedisPassword overrides any password in RedisURL.
	RedisPassword string `json:"redisPassword" yaml:"redisPassword" toml:"redisPassword" env:"REDIS_PASSWORD" desc:"Redis password"`

	// RedisDB overrides the database in RedisURL when non-zero.
	RedisDB int `json:"redisDB" yaml:"redisDB" toml:"redisDB" env:"REDIS_DB" desc:"Redis database number"`

	// ConnectionMaxAge recycles pooled Redis connections.
	ConnectionMaxAge time.Duration `json:"connectionMaxAge" yaml:"connectionMaxAge" toml:"connectionMaxAge" env:"REDIS_CONNECTION_MAX_AGE" default:"1h" desc:"Redis connection lifetime"`

	// KeyPrefix namespaces every Redis key.
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix" toml:"keyPrefix" env:"CACHE_KEY_PREFIX" default:"sitekit:" desc:"Prefix for Redis keys"`
}

// Validate checks engine-specific settings.
func (c *CacheConfig) Validate() error {
	switch c.Engine {
	case EngineMemory:
		if c.MaxItems < 1 {
			return fmt.Errorf("%w: maxItems must be at least 1", ErrInvalidConfig)
		}
		if c.CleanupInterval <= 0 {
			return fmt.Errorf("%w: cleanupInterval must be positive", ErrInvalidConfig)
		}
	case EngineRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redisURL is required for the redis engine", ErrInvalidConfig)
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("%w: redisDB must be non-negative", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidConfig, c.Engine)
	}
	return nil
}
