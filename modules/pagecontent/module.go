// Package pagecontent resolves localized service pages: base content from
// the data root, override fragments layered by location specificity, and a
// personalization pass that works the location name into the copy. It also
// serves the pages, locations and services JSON API.
package pagecontent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/cache"
	"github.com/digitalneighbour/sitekit/modules/catalog"
	"github.com/digitalneighbour/sitekit/modules/chimux"
	"github.com/digitalneighbour/sitekit/modules/eventbus"
	"github.com/digitalneighbour/sitekit/modules/jsonschema"
	"github.com/digitalneighbour/sitekit/modules/scheduler"
)

// ModuleName is the name of this module
const ModuleName = "pagecontent"

// ServiceName is the name of the *Service
const ServiceName = "pagecontent.service"

// WarmupJobName names the scheduled cache warm-up.
const WarmupJobName = "pagecontent-warmup"

type subscriber interface {
	Subscribe(ctx context.Context, topic string, handler eventbus.EventHandler) (eventbus.Subscription, error)
}

type recurringScheduler interface {
	ScheduleRecurring(name, cronExpr string, job scheduler.JobFunc) (string, error)
	CancelJob(jobID string) error
}

// Module wires the page service to the catalog and the optional cache,
// router, schema validator, event bus and scheduler.
type Module struct {
	config  *PageContentConfig
	logger  sitekit.Logger
	service *Service

	catalog   *catalog.Catalog
	router    chi.Router
	cache     Cache
	schemas   jsonschema.JSONSchemaService
	bus       subscriber
	scheduler recurringScheduler

	subscription eventbus.Subscription
	warmupJobID  string
}

// NewModule creates the pagecontent module.
func NewModule() sitekit.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&PageContentConfig{}))
	return nil
}

// Init builds the store, resolver and service and mounts the routes.
func (m *Module) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return err
	}
	m.config = cfg.GetConfig().(*PageContentConfig)
	m.logger = app.Logger()

	var validator FragmentValidator
	if m.config.FragmentSchema != "" {
		if m.schemas == nil {
			return fmt.Errorf("%w: fragmentSchema is set but %s is not available", ErrInvalidConfig, jsonschema.ServiceName)
		}
		schema, err := m.schemas.CompileSchema(m.config.FragmentSchema)
		if err != nil {
			return fmt.Errorf("compile fragment schema: %w", err)
		}
		validator = schema
	}

	root, err := filepath.Abs(m.config.DataRoot)
	if err != nil {
		return fmt.Errorf("resolve data root: %w", err)
	}
	resolver := NewResolver(NewDirStore(root, validator), m.catalog.Index(), m.logger)

	opts := []ServiceOption{
		WithLogger(m.logger),
		WithPersonalization(!m.config.DisablePersonalization),
	}
	if m.cache != nil {
		opts = append(opts, WithCache(m.cache, m.config.CacheTTL))
	}
	if subject, ok := app.(sitekit.Subject); ok {
		opts = append(opts, WithSubject(subject))
	}
	m.service = NewService(m.catalog, resolver, opts...)

	if m.router != nil {
		Routes(m.router, m.service, m.logger)
	}

	m.logger.Info("Page content initialized", "dataRoot", root, "cached", m.cache != nil, "routes", m.router != nil)
	return nil
}

// Start subscribes to cross-instance invalidations and schedules warm-up.
func (m *Module) Start(ctx context.Context) error {
	if m.bus != nil {
		sub, err := m.bus.Subscribe(ctx, cache.TopicInvalidate, m.onInvalidate)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", cache.TopicInvalidate, err)
		}
		m.subscription = sub
	}

	if m.scheduler != nil && m.cache != nil && m.config.WarmupSchedule != "" {
		id, err := m.scheduler.ScheduleRecurring(WarmupJobName, m.config.WarmupSchedule, m.warmup)
		if err != nil {
			return fmt.Errorf("schedule warm-up: %w", err)
		}
		m.warmupJobID = id
	}
	return nil
}

// Stop cancels the subscription and the warm-up job.
func (m *Module) Stop(_ context.Context) error {
	if m.subscription != nil {
		if err := m.subscription.Cancel(); err != nil {
			m.logger.Warn("Failed to cancel invalidation subscription", "error", err)
		}
		m.subscription = nil
	}
	if m.warmupJobID != "" {
		if err := m.scheduler.CancelJob(m.warmupJobID); err != nil {
			m.logger.Warn("Failed to cancel warm-up job", "error", err)
		}
		m.warmupJobID = ""
	}
	return nil
}

func (m *Module) onInvalidate(ctx context.Context, event eventbus.Event) error {
	inv, err := cache.DecodeInvalidation(event.Payload)
	if err != nil {
		return err
	}
	for _, prefix := range inv.Prefixes {
		if _, err := m.service.Invalidate(ctx, trimKeyPrefix(prefix)); err != nil {
			return err
		}
	}
	for _, key := range inv.Keys {
		if err := m.service.Evict(ctx, trimKeyPrefix(key)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) warmup(ctx context.Context) error {
	resolved, failed, err := m.service.Warmup(ctx, m.config.WarmupConcurrency)
	m.logger.Info("Page cache warmed", "resolved", resolved, "failed", failed)
	return err
}

// Service returns the page service; nil before Init.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Localized service page resolution",
		Instance:    m.service,
	}}
}

func (m *Module) RequiresServices() []sitekit.ServiceDependency {
	return []sitekit.ServiceDependency{
		{Name: catalog.ServiceName, Required: true},
		{Name: chimux.ServiceName},
		{Name: cache.ServiceName},
		{Name: jsonschema.ServiceName},
		{Name: eventbus.ServiceName},
		{Name: scheduler.ServiceName},
	}
}

// Constructor picks up the catalog and whichever optional services exist.
func (m *Module) Constructor() sitekit.ModuleConstructor {
	return func(_ sitekit.Application, services map[string]any) (sitekit.Module, error) {
		cat, ok := services[catalog.ServiceName].(*catalog.Catalog)
		if !ok || cat == nil {
			return nil, catalog.ErrCatalogService
		}
		m.catalog = cat
		m.router, _ = services[chimux.ServiceName].(chi.Router)
		m.cache, _ = services[cache.ServiceName].(Cache)
		m.schemas, _ = services[jsonschema.ServiceName].(jsonschema.JSONSchemaService)
		m.bus, _ = services[eventbus.ServiceName].(subscriber)
		m.scheduler, _ = services[scheduler.ServiceName].(recurringScheduler)
		return m, nil
	}
}

// trimKeyPrefix accepts both page paths and full "page:" cache keys.
func trimKeyPrefix(prefix string) string {
	return strings.TrimPrefix(prefix, CacheKeyPrefix)
}

// ServiceFrom fetches the page service from app.
func ServiceFrom(app sitekit.Application) (*Service, error) {
	var svc *Service
	if err := app.GetService(ServiceName, &svc); err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrPageService
	}
	return svc, nil
}
