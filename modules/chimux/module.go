// Package chimux provides the site's HTTP router: a chi mux with CORS,
// request IDs, panic recovery, a handler timeout and request events.
//
// The module registers itself as "chimux.router". It implements chi.Router,
// so other modules mount their routes on it directly:
//
//	var router chi.Router
//	app.GetService(chimux.ServiceName, &router)
//	router.Route("/api", func(r chi.Router) { ... })
//
// Services implementing MiddlewareProvider are discovered when the router
// starts and wrap every request after the built-in middleware.
package chimux

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/digitalneighbour/sitekit"
)

// ModuleName is the unique identifier for the chimux module.
const ModuleName = "chimux"

// ServiceName is the name of the router service.
const ServiceName = "chimux.router"

// ErrInvalidConfig is returned for an unusable router configuration.
var ErrInvalidConfig = errors.New("invalid chimux configuration")

// ChiMuxModule owns the chi mux. Route registration methods are promoted
// from the embedded mux; ServeHTTP strips the configured base path.
type ChiMuxModule struct {
	*chi.Mux

	config  *ChiMuxConfig
	app     sitekit.Application
	logger  sitekit.Logger
	subject sitekit.Subject

	mu       sync.RWMutex
	provided []Middleware
}

// NewChiMuxModule creates a new instance of the chimux module.
func NewChiMuxModule() sitekit.Module {
	return &ChiMuxModule{}
}

func (m *ChiMuxModule) Name() string {
	return ModuleName
}

func (m *ChiMuxModule) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&ChiMuxConfig{}))
	return nil
}

// Init creates the mux and installs the built-in middleware. Routes may be
// mounted by any module initialized after this one.
func (m *ChiMuxModule) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return err
	}
	m.config = cfg.GetConfig().(*ChiMuxConfig)
	m.app = app
	m.logger = app.Logger()
	if subject, ok := app.(sitekit.Subject); ok {
		m.subject = subject
	}

	m.Mux = chi.NewRouter()
	m.Mux.Use(middleware.RequestID)
	m.Mux.Use(middleware.RealIP)
	m.Mux.Use(m.requestMonitoringMiddleware())
	m.Mux.Use(middleware.Recoverer)
	m.Mux.Use(m.corsMiddleware())
	if m.config.Timeout > 0 {
		m.Mux.Use(middleware.Timeout(m.config.Timeout))
	}
	m.Mux.Use(m.providedMiddleware)

	m.emit(context.Background(), EventTypeRouterCreated, map[string]any{
		"base_path":       m.config.BasePath,
		"allowed_origins": m.config.AllowedOrigins,
	})
	m.logger.Debug("Applied CORS middleware with config",
		"allowedOrigins", m.config.AllowedOrigins,
		"allowedMethods", m.config.AllowedMethods,
		"allowCredentials", m.config.AllowCredentials,
		"maxAge", m.config.MaxAge)
	return nil
}

// Start collects middleware from every registered MiddlewareProvider, in
// service name order.
func (m *ChiMuxModule) Start(ctx context.Context) error {
	registry := m.app.SvcRegistry()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	var provided []Middleware
	for _, name := range names {
		provider, ok := registry[name].(MiddlewareProvider)
		if !ok {
			continue
		}
		provided = append(provided, provider.ProvideMiddleware()...)
		m.logger.Debug("Found middleware provider", "name", name)
	}

	m.mu.Lock()
	m.provided = provided
	m.mu.Unlock()

	if len(provided) > 0 {
		m.emit(ctx, EventTypeMiddlewareAdded, map[string]any{"middleware_count": len(provided)})
	}
	m.emit(ctx, EventTypeRouterStarted, map[string]any{"routes": len(m.Mux.Routes())})
	return nil
}

func (m *ChiMuxModule) Stop(ctx context.Context) error {
	m.emit(ctx, EventTypeRouterStopped, nil)
	return nil
}

func (m *ChiMuxModule) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Chi router service for HTTP routing",
		Instance:    m,
	}}
}

func (m *ChiMuxModule) RequiresServices() []sitekit.ServiceDependency {
	return nil
}

// Use appends middleware to the mux. It must be called before any route
// is registered.
func (m *ChiMuxModule) Use(middlewares ...func(http.Handler) http.Handler) {
	m.Mux.Use(middlewares...)
	m.emit(context.Background(), EventTypeMiddlewareAdded, map[string]any{
		"middleware_count": len(middlewares),
		"total_middleware": len(m.Mux.Middlewares()),
	})
}

// ServeHTTP strips the base path before routing. Requests outside it are
// not found.
func (m *ChiMuxModule) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	base := m.config.BasePath
	if base == "" {
		m.Mux.ServeHTTP(w, r)
		return
	}
	if r.URL.Path != base && !strings.HasPrefix(r.URL.Path, base+"/") {
		http.NotFound(w, r)
		return
	}

	r2 := new(http.Request)
	*r2 = *r
	r2.URL = new(url.URL)
	*r2.URL = *r.URL
	r2.URL.Path = strings.TrimPrefix(r.URL.Path, base)
	if r2.URL.Path == "" {
		r2.URL.Path = "/"
	}
	r2.URL.RawPath = ""
	m.Mux.ServeHTTP(w, r2)
}

func (m *ChiMuxModule) providedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		provided := m.provided
		m.mu.RUnlock()

		h := next
		for i := len(provided) - 1; i >= 0; i-- {
			h = provided[i](h)
		}
		h.ServeHTTP(w, r)
	})
}

func (m *ChiMuxModule) corsMiddleware() func(http.Handler) http.Handler {
	methods := strings.Join(m.config.AllowedMethods, ", ")
	headers := strings.Join(m.config.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && m.originAllowed(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				if methods != "" {
					h.Set("Access-Control-Allow-Methods", methods)
				}
				if headers != "" {
					h.Set("Access-Control-Allow-Headers", headers)
				}
				if m.config.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if m.config.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(m.config.MaxAge))
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *ChiMuxModule) originAllowed(origin string) bool {
	for _, allowed := range m.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// requestMonitoringMiddleware logs each request and reports it as an event.
// Responses with status 400 and above are reported as failures.
func (m *ChiMuxModule) requestMonitoringMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				elapsed := time.Since(start)
				m.logger.Debug("Request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", elapsed, "requestID", middleware.GetReqID(r.Context()))

				eventType := EventTypeRequestProcessed
				if status >= http.StatusBadRequest {
					eventType = EventTypeRequestFailed
				}
				m.emit(r.Context(), eventType, map[string]any{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status_code": status,
					"duration_ms": elapsed.Milliseconds(),
				})
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func (m *ChiMuxModule) emit(ctx context.Context, eventType string, data map[string]any) {
	if m.subject == nil {
		return
	}
	err := sitekit.EmitEvent(ctx, m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}
