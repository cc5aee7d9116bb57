package chimux

import "net/http"

// Middleware wraps every request the router serves.
type Middleware func(http.Handler) http.Handler

// MiddlewareProvider is implemented by services that add request middleware,
// such as the metrics collector. Providers are looked up in the service
// registry when the router starts, in service name order.
type MiddlewareProvider interface {
	ProvideMiddleware() []Middleware
}
