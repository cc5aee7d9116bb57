package httpclient

// Event types emitted by the httpclient module.
const (
	EventTypeRequestCompleted = "com.sitekit.httpclient.request.completed"
	EventTypeRequestFailed    = "com.sitekit.httpclient.request.failed"
)
