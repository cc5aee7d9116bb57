package chimux

// Event types emitted by the chimux module.
const (
	EventTypeRouterCreated = "com.sitekit.chimux.router.created"
	EventTypeRouterStarted = "com.sitekit.chimux.router.started"
	EventTypeRouterStopped = "com.sitekit.chimux.router.stopped"

	EventTypeMiddlewareAdded = "com.sitekit.chimux.middleware.added"

	EventTypeRequestProcessed = "com.sitekit.chimux.request.processed"
	EventTypeRequestFailed    = "com.sitekit.chimux.request.failed"
)
