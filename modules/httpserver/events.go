package httpserver

// Event types emitted by the httpserver module.
const (
	EventTypeServerStarted = "com.sitekit.httpserver.server.started"
	EventTypeServerStopped = "com.sitekit.httpserver.server.stopped"
	EventTypeServerFailed  = "com.sitekit.httpserver.server.failed"
)
