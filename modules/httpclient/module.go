// Package httpclient provides the shared outbound HTTP client. Requests are
// logged with their status and duration; verbose mode adds headers with
// credentials redacted.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/digitalneighbour/sitekit"
)

// ModuleName is the name of this module
const ModuleName = "httpclient"

// ServiceName is the name of the ClientService
const ServiceName = "httpclient"

var ErrInvalidConfig = errors.New("invalid httpclient configuration")

// HTTPClientModule owns the transport behind every outbound call.
type HTTPClientModule struct {
	config     *Config
	logger     sitekit.Logger
	subject    sitekit.Subject
	httpClient *http.Client
	transport  *http.Transport
}

var _ ClientService = (*HTTPClientModule)(nil)

// NewHTTPClientModule creates the module.
func NewHTTPClientModule() sitekit.Module {
	return &HTTPClientModule{}
}

func (m *HTTPClientModule) Name() string {
	return ModuleName
}

func (m *HTTPClientModule) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&Config{}))
	return nil
}

func (m *HTTPClientModule) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", ModuleName, err)
	}
	m.config = cfg.GetConfig().(*Config)
	m.logger = app.Logger()
	if subject, ok := app.(sitekit.Subject); ok {
		m.subject = subject
	}

	m.transport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        m.config.MaxIdleConns,
		MaxIdleConnsPerHost: m.config.MaxIdleConnsPerHost,
		IdleConnTimeout:     m.config.IdleConnTimeout,
		TLSHandshakeTimeout: m.config.TLSTimeout,
	}
	m.httpClient = &http.Client{
		Transport: &loggingTransport{
			Transport: m.transport,
			UserAgent: m.config.UserAgent,
			Verbose:   m.config.Verbose,
			Logger:    m.logger,
			emit:      m.emit,
		},
		Timeout: m.config.RequestTimeout,
	}
	return nil
}

func (m *HTTPClientModule) Stop(context.Context) error {
	m.transport.CloseIdleConnections()
	return nil
}

func (m *HTTPClientModule) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Shared outbound HTTP client",
		Instance:    m,
	}}
}

func (m *HTTPClientModule) RequiresServices() []sitekit.ServiceDependency {
	return nil
}

func (m *HTTPClientModule) Client() *http.Client {
	return m.httpClient
}

func (m *HTTPClientModule) WithTimeout(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		return m.httpClient
	}
	return &http.Client{
		Transport: m.httpClient.Transport,
		Timeout:   timeout,
	}
}

func (m *HTTPClientModule) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}

var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
	"Set-Cookie":          true,
	"X-Api-Key":           true,
}

type loggingTransport struct {
	Transport http.RoundTripper
	UserAgent string
	Verbose   bool
	Logger    sitekit.Logger
	emit      func(ctx context.Context, eventType string, data map[string]any)
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.UserAgent)
	}

	start := time.Now()
	if t.Verbose {
		t.Logger.Debug("Outgoing request", "method", req.Method, "url", req.URL.Redacted(), "headers", redactHeaders(req.Header))
	}

	resp, err := t.Transport.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.Logger.Error("Request failed", "method", req.Method, "url", req.URL.Redacted(), "duration_ms", duration.Milliseconds(), "error", err)
		t.emit(req.Context(), EventTypeRequestFailed, map[string]any{
			"method": req.Method, "host": req.URL.Host, "error": err.Error(),
		})
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	args := []any{"method", req.Method, "url", req.URL.Redacted(), "status", resp.StatusCode, "duration_ms", duration.Milliseconds()}
	if t.Verbose {
		args = append(args, "headers", redactHeaders(resp.Header))
	}
	t.Logger.Debug("Received response", args...)
	t.emit(req.Context(), EventTypeRequestCompleted, map[string]any{
		"method": req.Method, "host": req.URL.Host, "status": resp.StatusCode, "durationMs": duration.Milliseconds(),
	})
	return resp, nil
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) == 0 {
			continue
		}
		if sensitiveHeaders[http.CanonicalHeaderKey(key)] {
			out[key] = "[REDACTED]"
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}
