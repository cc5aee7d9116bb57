// Package catalog describes the service families, their sub-services and
// the table of locations each sub-service has landing pages for.
package catalog

import (
	"fmt"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/locations"
)

// ModuleName is the name of this module
const ModuleName = "catalog"

// ServiceName is the name of the *Catalog service
const ServiceName = "catalog.service"

// Module builds the Catalog once the location index is available.
type Module struct {
	config  *CatalogConfig
	logger  sitekit.Logger
	index   *locations.Index
	catalog *Catalog
}

// NewModule creates a new catalog module
func NewModule() sitekit.Module {
	return &Module{}
}

// Name returns the name of the module
func (m *Module) Name() string {
	return ModuleName
}

// RegisterConfig registers the module's configuration section
func (m *Module) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&CatalogConfig{}))
	return nil
}

// Init expands the eligibility rules.
func (m *Module) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return err
	}
	m.config = cfg.GetConfig().(*CatalogConfig)
	m.logger = app.Logger()

	var rules Rules
	if m.config.RulesFile != "" {
		rules, err = LoadRulesFile(m.config.RulesFile)
	} else {
		rules, err = DefaultRules()
	}
	if err != nil {
		return fmt.Errorf("load eligibility rules: %w", err)
	}

	m.catalog = New(m.index, rules, m.config.Brand, m.config.BaseURL)
	for _, f := range Families() {
		if params := m.catalog.StaticParams(f.Key); len(params) > 0 {
			m.logger.Debug("Location pages enabled", "family", f.Key, "pages", len(params))
		}
	}
	m.logger.Info("Catalog initialized", "families", len(families))
	return nil
}

// Catalog returns the built catalog; nil before Init.
func (m *Module) Catalog() *Catalog {
	return m.catalog
}

// ProvidesServices exposes the catalog.
func (m *Module) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Service families, labels, eligibility and page metadata",
		Instance:    m.catalog,
	}}
}

// RequiresServices declares the location index.
func (m *Module) RequiresServices() []sitekit.ServiceDependency {
	return []sitekit.ServiceDependency{{Name: locations.ServiceName, Required: true}}
}

// Constructor receives the location index before Init.
func (m *Module) Constructor() sitekit.ModuleConstructor {
	return func(_ sitekit.Application, services map[string]any) (sitekit.Module, error) {
		idx, ok := services[locations.ServiceName].(*locations.Index)
		if !ok || idx == nil {
			return nil, locations.ErrUnknownIndex
		}
		m.index = idx
		return m, nil
	}
}

// CatalogFrom fetches the catalog service from app.
func CatalogFrom(app sitekit.Application) (*Catalog, error) {
	var c *Catalog
	if err := app.GetService(ServiceName, &c); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCatalogService
	}
	return c, nil
}
