package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for SCAN during prefix deletes.
const scanBatch = 500

// RedisCache stores JSON-encoded values in Redis under config.KeyPrefix.
type RedisCache struct {
	config *CacheConfig
	client *redis.Client
}

// NewRedisCache creates a Redis engine; Connect opens the client.
func NewRedisCache(config *CacheConfig) *RedisCache {
	return &RedisCache{config: config}
}

// Connect parses RedisURL, applies password/DB overrides and pings.
func (c *RedisCache) Connect(ctx context.Context) error {
	opts, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	if c.config.RedisPassword != "" {
		opts.Password = c.config.RedisPassword
	}
	if c.config.RedisDB != 0 {
		opts.DB = c.config.RedisDB
	}
	if c.config.ConnectionMaxAge > 0 {
		opts.ConnMaxLifetime = c.config.ConnectionMaxAge
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	c.client = client
	return nil
}

// Close releases the client.
func (c *RedisCache) Close(_ context.Context) error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

func (c *RedisCache) key(k string) string {
	return c.config.KeyPrefix + k
}

func (c *RedisCache) Get(ctx context.Context, key string) (any, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if key == "" {
		return ErrInvalidKey
	}
	data, err := json.Marshal(value)
	if err != nil {
		return ErrInvalidValue
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c.client == nil {
		return ErrNotConnected
	}
	return c.client.Del(ctx, c.key(key)).Err()
}

// Flush removes every key under KeyPrefix, or the whole database when
// there is no prefix.
func (c *RedisCache) Flush(ctx context.Context) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if c.config.KeyPrefix == "" {
		return c.client.FlushDB(ctx).Err()
	}
	_, err := c.DeletePrefix(ctx, "")
	return err
}

func (c *RedisCache) GetMulti(ctx context.Context, keys []string) (map[string]any, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}
	result := make(map[string]any, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	values, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, raw := range values {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var value any
		if err := json.Unmarshal([]byte(s), &value); err == nil {
			result[keys[i]] = value
		}
	}
	return result, nil
}

func (c *RedisCache) SetMulti(ctx context.Context, items map[string]any, ttl time.Duration) error {
	if c.client == nil {
		return ErrNotConnected
	}
	encoded := make(map[string][]byte, len(items))
	for k, v := range items {
		data, err := json.Marshal(v)
		if err != nil {
			return ErrInvalidValue
		}
		encoded[c.key(k)] = data
	}

	pipe := c.client.TxPipeline()
	for k, data := range encoded {
		pipe.Set(ctx, k, data, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set multi: %w", err)
	}
	return nil
}

func (c *RedisCache) DeleteMulti(ctx context.Context, keys []string) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// DeletePrefix walks matching keys with SCAN and deletes them per batch.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if c.client == nil {
		return 0, ErrNotConnected
	}
	pattern := escapeGlob(c.key(prefix)) + "*"

	removed := 0
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return ErrNotConnected
	}
	return c.client.Ping(ctx).Err()
}
