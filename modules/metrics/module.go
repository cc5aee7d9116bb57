// Package metrics keeps a Prometheus registry for the site: HTTP request
// metrics from router middleware, page, cache, webhook, contact and job
// counters fed by application events, and event bus delivery counts. The
// registry is served on /metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/cache"
	"github.com/digitalneighbour/sitekit/modules/chimux"
	"github.com/digitalneighbour/sitekit/modules/contact"
	"github.com/digitalneighbour/sitekit/modules/contentwatcher"
	"github.com/digitalneighbour/sitekit/modules/eventbus"
	"github.com/digitalneighbour/sitekit/modules/pagecontent"
	"github.com/digitalneighbour/sitekit/modules/revalidate"
	"github.com/digitalneighbour/sitekit/modules/scheduler"
)

// ModuleName is the name of this module
const ModuleName = "metrics"

// ServiceName is the name of the metrics service. It is also the router's
// MiddlewareProvider.
const ServiceName = "metrics.service"

// Module owns the registry and every collector in it.
type Module struct {
	config   *MetricsConfig
	logger   sitekit.Logger
	registry *prometheus.Registry

	router chi.Router
	bus    BusStats

	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	pages        *prometheus.CounterVec
	pageHits     *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	revalidation *prometheus.CounterVec
	contact      *prometheus.CounterVec
	jobs         *prometheus.CounterVec
	content      prometheus.Counter
}

// NewModule creates the metrics module.
func NewModule() sitekit.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&MetricsConfig{
		Enabled:           true,
		RuntimeCollectors: true,
	}))
	return nil
}

func (m *Module) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return err
	}
	m.config = cfg.GetConfig().(*MetricsConfig)
	m.logger = app.Logger()

	m.registry = prometheus.NewRegistry()
	m.newCollectors(m.config.Namespace)
	if m.config.RuntimeCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if m.bus != nil {
		m.registry.MustRegister(newBusCollector(m.bus, m.config.Namespace))
	}

	if m.config.Enabled && m.router != nil {
		m.router.Method(http.MethodGet, m.config.Path, m.Handler())
		m.logger.Info("Metrics endpoint mounted", "path", m.config.Path)
	}
	return nil
}

func (m *Module) newCollectors(ns string) {
	m.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Subsystem: "http", Name: "inflight_requests",
		Help: "Requests currently being served.",
	})
	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "http", Name: "requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "http", Name: "request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	m.pages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "pages", Name: "resolved_total",
		Help: "Pages resolved from base content and overrides.",
	}, []string{"family"})
	m.pageHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "pages", Name: "cache_hits_total",
		Help: "Pages served from the page cache.",
	}, []string{"family"})
	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "cache", Name: "lookups_total",
		Help: "Cache lookups by result.",
	}, []string{"result"})
	m.revalidation = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "revalidate", Name: "requests_total",
		Help: "Revalidation webhooks by outcome.",
	}, []string{"outcome"})
	m.contact = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "contact", Name: "submissions_total",
		Help: "Contact form submissions by outcome.",
	}, []string{"outcome"})
	m.jobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "scheduler", Name: "job_runs_total",
		Help: "Scheduled job runs by job and status.",
	}, []string{"job", "status"})
	m.content = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "content", Name: "changes_total",
		Help: "Fragment file changes that invalidated cached pages.",
	})

	m.registry.MustRegister(
		m.inFlight, m.requests, m.duration,
		m.pages, m.pageHits, m.cacheLookups,
		m.revalidation, m.contact, m.jobs, m.content,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Module) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the module's registry for extra collectors.
func (m *Module) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterObservers counts the application events the registry tracks.
func (m *Module) RegisterObservers(subject sitekit.Subject) error {
	if !m.config.Enabled {
		return nil
	}
	return subject.RegisterObserver(sitekit.NewFunctionalObserver(ModuleName, m.onEvent), observedEvents...)
}

var observedEvents = []string{
	pagecontent.EventTypePageResolved,
	pagecontent.EventTypePageCacheHit,
	cache.EventTypeCacheHit,
	cache.EventTypeCacheMiss,
	revalidate.EventTypeCompleted,
	revalidate.EventTypeFailed,
	revalidate.EventTypeRejected,
	contact.EventTypeSubmitted,
	contact.EventTypeFailed,
	contact.EventTypeRateLimited,
	contact.EventTypeRejected,
	scheduler.EventTypeJobCompleted,
	scheduler.EventTypeJobFailed,
	contentwatcher.EventTypeInvalidated,
}

func (m *Module) onEvent(_ context.Context, event cloudevents.Event) error {
	data := map[string]any{}
	if len(event.Data()) > 0 {
		if err := event.DataAs(&data); err != nil {
			return fmt.Errorf("decode %s data: %w", event.Type(), err)
		}
	}

	switch event.Type() {
	case pagecontent.EventTypePageResolved:
		m.pages.WithLabelValues(label(data, "family")).Inc()
	case pagecontent.EventTypePageCacheHit:
		m.pageHits.WithLabelValues(label(data, "family")).Inc()
	case cache.EventTypeCacheHit:
		m.cacheLookups.WithLabelValues("hit").Inc()
	case cache.EventTypeCacheMiss:
		m.cacheLookups.WithLabelValues("miss").Inc()
	case revalidate.EventTypeCompleted:
		m.revalidation.WithLabelValues("completed").Inc()
	case revalidate.EventTypeFailed:
		m.revalidation.WithLabelValues("failed").Inc()
	case revalidate.EventTypeRejected:
		m.revalidation.WithLabelValues("rejected").Inc()
	case contact.EventTypeSubmitted:
		m.contact.WithLabelValues("sent").Inc()
	case contact.EventTypeFailed:
		m.contact.WithLabelValues("failed").Inc()
	case contact.EventTypeRateLimited:
		m.contact.WithLabelValues("rate_limited").Inc()
	case contact.EventTypeRejected:
		m.contact.WithLabelValues("rejected").Inc()
	case scheduler.EventTypeJobCompleted:
		m.jobs.WithLabelValues(label(data, "jobName"), "completed").Inc()
	case scheduler.EventTypeJobFailed:
		m.jobs.WithLabelValues(label(data, "jobName"), "failed").Inc()
	case contentwatcher.EventTypeInvalidated:
		m.content.Inc()
	}
	return nil
}

func label(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok && s != "" {
		return s
	}
	return "unknown"
}

func (m *Module) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Prometheus registry and request middleware",
		Instance:    m,
	}}
}

func (m *Module) RequiresServices() []sitekit.ServiceDependency {
	return []sitekit.ServiceDependency{
		{Name: chimux.ServiceName},
		{Name: eventbus.ServiceName},
	}
}

// Constructor picks up the router and the event bus when present.
func (m *Module) Constructor() sitekit.ModuleConstructor {
	return func(_ sitekit.Application, services map[string]any) (sitekit.Module, error) {
		m.router, _ = services[chimux.ServiceName].(chi.Router)
		m.bus, _ = services[eventbus.ServiceName].(BusStats)
		return m, nil
	}
}
