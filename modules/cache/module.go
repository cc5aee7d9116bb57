// Package cache provides the key/value cache the page resolver and the
// revalidation hook share. Two engines are available: an in-process map
// with TTLs and a capacity bound, and Redis.
package cache

import (
	"context"
	"time"

	"github.com/digitalneighbour/sitekit"
)

// ModuleName is the name of this module
const ModuleName = "cache"

// ServiceName is the name of the service provided by this module
const ServiceName = "cache.provider"

// CacheModule wraps the configured engine, applies the default TTL and
// reports cache activity as events.
type CacheModule struct {
	config      *CacheConfig
	logger      sitekit.Logger
	subject     sitekit.Subject
	cacheEngine CacheEngine
}

// NewModule creates a new instance of the cache module
func NewModule() sitekit.Module {
	return &CacheModule{}
}

// Name returns the name of the module
func (m *CacheModule) Name() string {
	return ModuleName
}

// RegisterConfig registers the cache section; defaults come from tags.
func (m *CacheModule) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&CacheConfig{}))
	return nil
}

// Init picks the engine. Connections are opened in Start.
func (m *CacheModule) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return err
	}
	m.config = cfg.GetConfig().(*CacheConfig)
	m.logger = app.Logger()
	if subject, ok := app.(sitekit.Subject); ok {
		m.subject = subject
	}

	switch m.config.Engine {
	case EngineRedis:
		m.cacheEngine = NewRedisCache(m.config)
		m.logger.Info("Initialized Redis cache engine", "url", m.config.RedisURL, "prefix", m.config.KeyPrefix)
	default:
		m.cacheEngine = NewMemoryCache(m.config, m.onRemove)
		m.logger.Info("Initialized memory cache engine", "maxItems", m.config.MaxItems)
	}
	return nil
}

// Start connects the engine.
func (m *CacheModule) Start(ctx context.Context) error {
	if err := m.cacheEngine.Connect(ctx); err != nil {
		m.emit(ctx, EventTypeCacheError, map[string]any{"engine": m.config.Engine, "operation": "connect", "error": err.Error()})
		return err
	}
	m.emit(ctx, EventTypeCacheConnected, map[string]any{"engine": m.config.Engine})
	return nil
}

// Stop closes the engine.
func (m *CacheModule) Stop(ctx context.Context) error {
	err := m.cacheEngine.Close(ctx)
	m.emit(ctx, EventTypeCacheDisconnected, map[string]any{"engine": m.config.Engine})
	return err
}

// ProvidesServices exposes the module itself as the cache.
func (m *CacheModule) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Key/value cache with TTLs and prefix invalidation",
		Instance:    m,
	}}
}

// RequiresServices returns nil; the cache has no dependencies.
func (m *CacheModule) RequiresServices() []sitekit.ServiceDependency {
	return nil
}

// Get retrieves a cached item by key
func (m *CacheModule) Get(ctx context.Context, key string) (any, bool) {
	value, found := m.cacheEngine.Get(ctx, key)
	if found {
		m.emit(ctx, EventTypeCacheHit, map[string]any{"key": key})
	} else {
		m.emit(ctx, EventTypeCacheMiss, map[string]any{"key": key})
	}
	return value, found
}

// Set stores an item. A zero TTL means the configured default.
func (m *CacheModule) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	if err := m.cacheEngine.Set(ctx, key, value, ttl); err != nil {
		m.emit(ctx, EventTypeCacheError, map[string]any{"key": key, "operation": "set", "error": err.Error()})
		return err
	}
	m.emit(ctx, EventTypeCacheSet, map[string]any{"key": key, "ttl": ttl.String()})
	return nil
}

// Delete removes an item from the cache
func (m *CacheModule) Delete(ctx context.Context, key string) error {
	if err := m.cacheEngine.Delete(ctx, key); err != nil {
		return err
	}
	m.emit(ctx, EventTypeCacheDelete, map[string]any{"key": key})
	return nil
}

// Flush removes all items from the cache
func (m *CacheModule) Flush(ctx context.Context) error {
	if err := m.cacheEngine.Flush(ctx); err != nil {
		return err
	}
	m.emit(ctx, EventTypeCacheFlush, nil)
	return nil
}

// GetMulti retrieves multiple items from the cache
func (m *CacheModule) GetMulti(ctx context.Context, keys []string) (map[string]any, error) {
	return m.cacheEngine.GetMulti(ctx, keys)
}

// SetMulti stores multiple items; a zero TTL means the configured default.
func (m *CacheModule) SetMulti(ctx context.Context, items map[string]any, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	return m.cacheEngine.SetMulti(ctx, items, ttl)
}

// DeleteMulti removes multiple items from the cache
func (m *CacheModule) DeleteMulti(ctx context.Context, keys []string) error {
	return m.cacheEngine.DeleteMulti(ctx, keys)
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed.
func (m *CacheModule) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	n, err := m.cacheEngine.DeletePrefix(ctx, prefix)
	if err != nil {
		m.emit(ctx, EventTypeCacheError, map[string]any{"prefix": prefix, "operation": "deletePrefix", "error": err.Error()})
		return n, err
	}
	m.emit(ctx, EventTypeCacheInvalidated, map[string]any{"prefix": prefix, "removed": n})
	return n, nil
}

func (m *CacheModule) onRemove(key string, reason RemovalReason) {
	eventType := EventTypeCacheExpired
	if reason == RemovedEvicted {
		eventType = EventTypeCacheEvicted
	}
	m.emit(context.Background(), eventType, map[string]any{"key": key})
}

func (m *CacheModule) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}

// HealthCheck pings engines that hold a connection. The cache is optional
// for readiness since pages resolve without it.
func (m *CacheModule) HealthCheck(ctx context.Context) ([]sitekit.HealthReport, error) {
	report := sitekit.HealthReport{
		Module:    ModuleName,
		Component: m.config.Engine,
		Status:    sitekit.HealthStatusHealthy,
		Optional:  true,
	}
	if p, ok := m.cacheEngine.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			report.Status, report.Message = sitekit.HealthStatusDegraded, err.Error()
		}
	}
	return []sitekit.HealthReport{report}, nil
}
