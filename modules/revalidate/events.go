package revalidate

// Event types emitted by the revalidate module.
const (
	EventTypeCompleted = "com.sitekit.revalidate.completed"
	EventTypeFailed    = "com.sitekit.revalidate.failed"
	EventTypeRejected  = "com.sitekit.revalidate.rejected"
)
