// Package revalidate serves the CMS webhook that invalidates cached pages
// when content changes. A document type maps to the site paths it feeds;
// those become page cache prefixes that are dropped locally and published
// on the event bus for the other instances.
package revalidate

import (
	"github.com/go-chi/chi/v5"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/cache"
	"github.com/digitalneighbour/sitekit/modules/chimux"
	"github.com/digitalneighbour/sitekit/modules/eventbus"
)

// ModuleName is the name of this module
const ModuleName = "revalidate"

// ServiceName is the name of the *Revalidator service
const ServiceName = "revalidate.service"

// Module mounts the webhook and provides the revalidator to other modules.
type Module struct {
	config      *RevalidateConfig
	revalidator *Revalidator

	router    chi.Router
	cache     PrefixDeleter
	publisher Publisher
}

// NewModule creates the revalidate module.
func NewModule() sitekit.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&RevalidateConfig{}))
	return nil
}

func (m *Module) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return err
	}
	m.config = cfg.GetConfig().(*RevalidateConfig)
	logger := app.Logger()

	opts := []Option{WithLogger(logger)}
	if m.cache != nil {
		opts = append(opts, WithCache(m.cache))
	}
	if m.publisher != nil {
		opts = append(opts, WithPublisher(m.publisher))
	}
	if subject, ok := app.(sitekit.Subject); ok {
		opts = append(opts, WithSubject(subject))
	}
	m.revalidator = NewRevalidator(opts...)

	if m.config.Secret == "" {
		logger.Warn("Revalidate secret is not set; every webhook will be rejected")
	}
	if m.router != nil {
		Routes(m.router, m.config, m.revalidator, logger)
	}
	return nil
}

// Revalidator returns the revalidator; nil before Init.
func (m *Module) Revalidator() *Revalidator {
	return m.revalidator
}

func (m *Module) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Document change to page invalidation",
		Instance:    m.revalidator,
	}}
}

func (m *Module) RequiresServices() []sitekit.ServiceDependency {
	return []sitekit.ServiceDependency{
		{Name: chimux.ServiceName},
		{Name: cache.ServiceName},
		{Name: eventbus.ServiceName},
	}
}

// Constructor picks up the router, cache and event bus when present.
func (m *Module) Constructor() sitekit.ModuleConstructor {
	return func(_ sitekit.Application, services map[string]any) (sitekit.Module, error) {
		m.router, _ = services[chimux.ServiceName].(chi.Router)
		m.cache, _ = services[cache.ServiceName].(PrefixDeleter)
		m.publisher, _ = services[eventbus.ServiceName].(Publisher)
		return m, nil
	}
}
