// Package locations holds the region -> city -> suburb hierarchy, flattened
// into an Index keyed by slug, and the slug normalizer used by every
// location-aware route.
package locations

import (
	"context"
	"fmt"

	"github.com/digitalneighbour/sitekit"
)

// ModuleName is the name of this module
const ModuleName = "locations"

// ServiceName is the name of the *Index service
const ServiceName = "locations.index"

// EventTypeTreeLoaded is emitted once the index is built.
const EventTypeTreeLoaded = "com.sitekit.locations.loaded"

// Module builds the location Index during Init.
type Module struct {
	config  *LocationsConfig
	logger  sitekit.Logger
	index   *Index
	subject sitekit.Subject
}

// NewModule creates a new locations module
func NewModule() sitekit.Module {
	return &Module{}
}

// Name returns the name of the module
func (m *Module) Name() string {
	return ModuleName
}

// RegisterConfig registers the module's configuration section
func (m *Module) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&LocationsConfig{}))
	return nil
}

// Init loads the tree and builds the index.
func (m *Module) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return err
	}
	m.config = cfg.GetConfig().(*LocationsConfig)
	m.logger = app.Logger()
	if subject, ok := app.(sitekit.Subject); ok {
		m.subject = subject
	}

	var nodes []Node
	if m.config.TreeFile != "" {
		nodes, err = LoadTreeFile(m.config.TreeFile)
	} else {
		nodes, err = DefaultTree()
	}
	if err != nil {
		return err
	}

	m.index, err = Build(nodes)
	if err != nil {
		return fmt.Errorf("build location index: %w", err)
	}

	m.logger.Info("Location index built", "locations", m.index.Len(), "roots", m.index.Roots())
	m.emit(EventTypeTreeLoaded, map[string]any{"locations": m.index.Len(), "source": m.source()})
	return nil
}

func (m *Module) source() string {
	if m.config.TreeFile != "" {
		return m.config.TreeFile
	}
	return "embedded"
}

func (m *Module) emit(eventType string, data map[string]any) {
	err := sitekit.EmitEvent(context.Background(), m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}

// Index returns the built index; nil before Init.
func (m *Module) Index() *Index {
	return m.index
}

// ProvidesServices exposes the index.
func (m *Module) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Location hierarchy lookup and slug normalization",
		Instance:    m.index,
	}}
}

// RequiresServices returns nil; locations has no dependencies.
func (m *Module) RequiresServices() []sitekit.ServiceDependency {
	return nil
}

// IndexFrom fetches the index service from app.
func IndexFrom(app sitekit.Application) (*Index, error) {
	var idx *Index
	if err := app.GetService(ServiceName, &idx); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, ErrUnknownIndex
	}
	return idx, nil
}
