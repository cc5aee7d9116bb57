package chimux

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/feeders"
)

type headerMiddlewareModule struct{}

func (headerMiddlewareModule) Name() string                   { return "headers" }
func (headerMiddlewareModule) Init(sitekit.Application) error { return nil }
func (m headerMiddlewareModule) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{Name: "headers.middleware", Instance: m}}
}
func (headerMiddlewareModule) RequiresServices() []sitekit.ServiceDependency { return nil }
func (headerMiddlewareModule) ProvideMiddleware() []Middleware {
	return []Middleware{func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Provided", "yes")
			next.ServeHTTP(w, r)
		})
	}}
}

func newRouterApp(t *testing.T, extra ...sitekit.Module) (*sitekit.StdApplication, *ChiMuxModule) {
	t.Helper()
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewChiMuxModule())
	for _, m := range extra {
		app.RegisterModule(m)
	}
	require.NoError(t, app.Init())

	var mux *ChiMuxModule
	require.NoError(t, app.GetService(ServiceName, &mux))
	return app, mux
}

func serve(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestModule_Defaults(t *testing.T) {
	_, mux := newRouterApp(t)
	assert.Equal(t, []string{"*"}, mux.config.AllowedOrigins)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, mux.config.AllowedMethods)
	assert.Equal(t, 300, mux.config.MaxAge)
	assert.Equal(t, 30*time.Second, mux.config.Timeout)
}

func TestModule_ServesAsChiRouter(t *testing.T) {
	app, mux := newRouterApp(t)

	var router chi.Router
	require.NoError(t, app.GetService(ServiceName, &router))
	router.Route("/api", func(r chi.Router) {
		r.Get("/ping/{name}", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("pong " + chi.URLParam(r, "name")))
		})
	})

	rec := serve(mux, http.MethodGet, "/api/ping/kiwi", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong kiwi", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(mux, http.MethodGet, "/nope", nil).Code)
}

func TestModule_CORS(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://digital-neighbour.com")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")
	_, mux := newRouterApp(t)
	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := serve(mux, http.MethodGet, "/", http.Header{"Origin": {"https://digital-neighbour.com"}})
	assert.Equal(t, "https://digital-neighbour.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = serve(mux, http.MethodGet, "/", http.Header{"Origin": {"https://evil.example"}})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(mux, http.MethodOptions, "/", http.Header{
		"Origin":                        {"https://digital-neighbour.com"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
}

func TestModule_BasePath(t *testing.T) {
	t.Setenv("HTTP_BASE_PATH", "/site/")
	_, mux := newRouterApp(t)
	assert.Equal(t, "/site", mux.config.BasePath)
	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "/site/health", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(mux, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(mux, http.MethodGet, "/sitehealth", nil).Code)
}

func TestModule_InvalidBasePath(t *testing.T) {
	t.Setenv("HTTP_BASE_PATH", "site")
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewChiMuxModule())
	err := app.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestModule_ProvidedMiddleware(t *testing.T) {
	app, mux := newRouterApp(t, headerMiddlewareModule{})
	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	assert.Empty(t, serve(mux, http.MethodGet, "/", nil).Header().Get("X-Provided"))

	require.NoError(t, app.Start())
	defer app.Stop()
	assert.Equal(t, "yes", serve(mux, http.MethodGet, "/", nil).Header().Get("X-Provided"))
}

func TestModule_RequestEvents(t *testing.T) {
	app, mux := newRouterApp(t)
	mux.Get("/ok", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	var mu sync.Mutex
	seen := map[string][]int{}
	require.NoError(t, app.RegisterObserver(sitekit.NewFunctionalObserver("test", func(_ context.Context, e cloudevents.Event) error {
		var data map[string]any
		if err := e.DataAs(&data); err != nil {
			return err
		}
		mu.Lock()
		seen[e.Type()] = append(seen[e.Type()], int(data["status_code"].(float64)))
		mu.Unlock()
		return nil
	}), EventTypeRequestProcessed, EventTypeRequestFailed))

	serve(mux, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusInternalServerError, serve(mux, http.MethodGet, "/boom", nil).Code)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen[EventTypeRequestProcessed]) == 1 && len(seen[EventTypeRequestFailed]) == 1
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{200}, seen[EventTypeRequestProcessed])
	assert.Equal(t, []int{500}, seen[EventTypeRequestFailed])
}
