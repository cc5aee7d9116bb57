package contentwatcher

// Event types emitted by the content watcher.
const (
	EventTypeInvalidated = "com.sitekit.contentwatcher.invalidated"
	EventTypeWatchError  = "com.sitekit.contentwatcher.error"
)
