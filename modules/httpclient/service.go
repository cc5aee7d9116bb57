package httpclient

import (
	"net/http"
	"time"
)

// ClientService is what other modules depend on.
type ClientService interface {
	// Client returns the shared client.
	Client() *http.Client

	// WithTimeout returns a client sharing the transport with a different
	// overall timeout.
	WithTimeout(timeout time.Duration) *http.Client
}
