package pagecontent

// Event types emitted by the pagecontent module.
const (
	EventTypePageResolved    = "com.sitekit.page.resolved"
	EventTypePageCacheHit    = "com.sitekit.page.cache_hit"
	EventTypePageInvalidated = "com.sitekit.page.invalidated"
	EventTypeWarmupCompleted = "com.sitekit.page.warmup_completed"
)
