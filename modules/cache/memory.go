package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// RemovalReason tells a removal hook why an entry left the cache.
type RemovalReason string

const (
	RemovedExpired RemovalReason = "expired"
	RemovedEvicted RemovalReason = "evicted"
)

// MemoryCache is an in-process engine with TTLs and a capacity bound.
type MemoryCache struct {
	config     *CacheConfig
	items      map[string]cacheItem
	mutex      sync.RWMutex
	cancelFunc context.CancelFunc
	done       chan struct{}
	onRemove   func(key string, reason RemovalReason)
}

type cacheItem struct {
	value      any
	expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// NewMemoryCache creates a memory engine. onRemove, when non-nil, is called
// outside the lock for every expired or evicted key.
func NewMemoryCache(config *CacheConfig, onRemove func(key string, reason RemovalReason)) *MemoryCache {
	return &MemoryCache{
		config:   config,
		items:    make(map[string]cacheItem),
		onRemove: onRemove,
	}
}

// Connect starts the expiry sweeper.
func (c *MemoryCache) Connect(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel
	c.done = make(chan struct{})
	go c.sweep(ctx)
	return nil
}

// Close stops the sweeper and waits for it to exit.
func (c *MemoryCache) Close(_ context.Context) error {
	if c.cancelFunc != nil {
		c.cancelFunc()
		<-c.done
		c.cancelFunc = nil
	}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) (any, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, found := c.items[key]
	if !found || item.expired(time.Now()) {
		return nil, false
	}
	return item.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	var evicted string
	c.mutex.Lock()
	if _, exists := c.items[key]; !exists && c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		evicted = c.evictLocked()
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.items[key] = cacheItem{value: value, expiration: exp}
	c.mutex.Unlock()

	if evicted != "" && c.onRemove != nil {
		c.onRemove(evicted, RemovedEvicted)
	}
	return nil
}

// evictLocked drops the entry that would expire first; entries without a
// TTL go last.
func (c *MemoryCache) evictLocked() string {
	var victim string
	var victimExp time.Time
	for key, item := range c.items {
		switch {
		case victim == "":
		case item.expiration.IsZero():
			continue
		case victimExp.IsZero() || item.expiration.Before(victimExp):
		default:
			continue
		}
		victim, victimExp = key, item.expiration
	}
	delete(c.items, victim)
	return victim
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
	return nil
}

func (c *MemoryCache) Flush(_ context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]cacheItem)
	return nil
}

func (c *MemoryCache) GetMulti(ctx context.Context, keys []string) (map[string]any, error) {
	result := make(map[string]any, len(keys))
	for _, key := range keys {
		if value, found := c.Get(ctx, key); found {
			result[key] = value
		}
	}
	return result, nil
}

func (c *MemoryCache) SetMulti(ctx context.Context, items map[string]any, ttl time.Duration) error {
	for key, value := range items {
		if err := c.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (c *MemoryCache) DeleteMulti(_ context.Context, keys []string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed, nil
}

func (c *MemoryCache) sweep(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpiredItems()
		case <-ctx.Done():
			return
		}
	}
}

func (c *MemoryCache) cleanupExpiredItems() {
	now := time.Now()
	var expired []string

	c.mutex.Lock()
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
			expired = append(expired, key)
		}
	}
	c.mutex.Unlock()

	if c.onRemove != nil {
		for _, key := range expired {
			c.onRemove(key, RemovedExpired)
		}
	}
}
