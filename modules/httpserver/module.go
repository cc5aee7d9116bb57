package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/chimux"
)

// ModuleName is the name of this module
const ModuleName = "httpserver"

// ServiceName is the name of the service provided by this module
const ServiceName = "httpserver"

var (
	ErrServerNotStarted        = errors.New("server not started")
	ErrNoHandler               = errors.New("no HTTP handler available")
	ErrRouterServiceNotHandler = errors.New("router service does not implement http.Handler")
	ErrInvalidConfig           = errors.New("invalid httpserver configuration")
)

// HTTPServerModule serves the chimux router. The listener is bound in
// Start, so the module is ready to accept connections once Start returns.
type HTTPServerModule struct {
	config  *HTTPServerConfig
	logger  sitekit.Logger
	subject sitekit.Subject
	handler http.Handler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewHTTPServerModule creates a new HTTP server module.
func NewHTTPServerModule() sitekit.Module {
	return &HTTPServerModule{}
}

func (m *HTTPServerModule) Name() string {
	return ModuleName
}

func (m *HTTPServerModule) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&HTTPServerConfig{}))
	return nil
}

func (m *HTTPServerModule) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", ModuleName, err)
	}
	m.config = cfg.GetConfig().(*HTTPServerConfig)
	m.logger = app.Logger()
	if subject, ok := app.(sitekit.Subject); ok {
		m.subject = subject
	}

	if m.config.HealthPath != "" {
		router, isRouter := m.handler.(chi.Router)
		collector, isCollector := app.(sitekit.HealthCollector)
		if isRouter && isCollector {
			router.Get(m.config.HealthPath, sitekit.HealthHandler(collector, m.config.HealthTimeout))
			m.logger.Debug("Mounted health endpoint", "path", m.config.HealthPath)
		}
	}
	return nil
}

func (m *HTTPServerModule) Constructor() sitekit.ModuleConstructor {
	return func(_ sitekit.Application, services map[string]any) (sitekit.Module, error) {
		handler, ok := services[chimux.ServiceName].(http.Handler)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRouterServiceNotHandler, chimux.ServiceName)
		}
		m.handler = handler
		return m, nil
	}
}

func (m *HTTPServerModule) RequiresServices() []sitekit.ServiceDependency {
	return []sitekit.ServiceDependency{{
		Name:               chimux.ServiceName,
		Required:           true,
		SatisfiesInterface: reflect.TypeOf((*http.Handler)(nil)).Elem(),
	}}
}

func (m *HTTPServerModule) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "HTTP server",
		Instance:    m,
	}}
}

// Start binds the listener and serves in the background.
func (m *HTTPServerModule) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handler == nil {
		return ErrNoHandler
	}
	if m.server != nil {
		return nil
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		m.emit(ctx, EventTypeServerFailed, map[string]any{"address": addr, "error": err.Error()})
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:      m.handler,
		ReadTimeout:  m.config.ReadTimeout,
		WriteTimeout: m.config.WriteTimeout,
		IdleTimeout:  m.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		var err error
		if m.config.TLS.Enabled() {
			err = server.ServeTLS(listener, m.config.TLS.CertFile, m.config.TLS.KeyFile)
		} else {
			err = server.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server error", "error", err)
			m.emit(context.Background(), EventTypeServerFailed, map[string]any{"error": err.Error()})
		}
	}()

	m.server, m.listener, m.done = server, listener, done
	m.logger.Info("HTTP server started", "address", listener.Addr().String(), "tls", m.config.TLS.Enabled())
	m.emit(ctx, EventTypeServerStarted, map[string]any{"address": listener.Addr().String(), "tls": m.config.TLS.Enabled()})
	return nil
}

// Stop shuts the server down gracefully within ShutdownTimeout.
func (m *HTTPServerModule) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server == nil {
		return ErrServerNotStarted
	}

	m.logger.Info("Stopping HTTP server", "timeout", m.config.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	defer cancel()
	if err := m.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	<-m.done

	m.server, m.listener = nil, nil
	m.logger.Info("HTTP server stopped")
	m.emit(ctx, EventTypeServerStopped, nil)
	return nil
}

// Addr returns the bound address, or "" when not serving.
func (m *HTTPServerModule) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

func (m *HTTPServerModule) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}
