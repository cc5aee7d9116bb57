package cache

// Event types emitted by the cache module.
const (
	EventTypeCacheSet         = "com.sitekit.cache.set"
	EventTypeCacheHit         = "com.sitekit.cache.hit"
	EventTypeCacheMiss        = "com.sitekit.cache.miss"
	EventTypeCacheDelete      = "com.sitekit.cache.delete"
	EventTypeCacheFlush       = "com.sitekit.cache.flush"
	EventTypeCacheInvalidated = "com.sitekit.cache.invalidated"
	EventTypeCacheEvicted     = "com.sitekit.cache.evicted"
	EventTypeCacheExpired     = "com.sitekit.cache.expired"

	EventTypeCacheConnected    = "com.sitekit.cache.connected"
	EventTypeCacheDisconnected = "com.sitekit.cache.disconnected"
	EventTypeCacheError        = "com.sitekit.cache.error"
)
