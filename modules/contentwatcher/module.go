// Package contentwatcher invalidates cached pages when fragment files
// under the page data root change on disk.
package contentwatcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/cache"
	"github.com/digitalneighbour/sitekit/modules/eventbus"
	"github.com/digitalneighbour/sitekit/modules/locations"
	"github.com/digitalneighbour/sitekit/modules/pagecontent"
)

// ModuleName is the name of this module
const ModuleName = "contentwatcher"

// Invalidator drops cached pages by page path prefix or exact path.
type Invalidator interface {
	Invalidate(ctx context.Context, pathPrefix string) (int, error)
	Evict(ctx context.Context, pagePath string) error
}

// Publisher announces invalidations to every instance.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Module runs a Watcher over the data root. With an event bus, changes are
// published on cache.TopicInvalidate and every instance's page service
// drops its pages; without one, the local page service is invalidated
// directly.
type Module struct {
	config  *ContentWatcherConfig
	logger  sitekit.Logger
	subject sitekit.Subject
	mapper  *Mapper
	watcher *Watcher

	index *locations.Index
	pages Invalidator
	bus   Publisher
}

// NewModule creates the content watcher module.
func NewModule() sitekit.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&ContentWatcherConfig{Enabled: true}))
	return nil
}

func (m *Module) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return err
	}
	m.config = cfg.GetConfig().(*ContentWatcherConfig)
	m.logger = app.Logger()
	m.subject, _ = app.(sitekit.Subject)
	m.mapper = NewMapper(m.index)

	if !m.config.Enabled {
		m.logger.Info("Content watcher disabled")
		return nil
	}
	root, err := filepath.Abs(m.config.Root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	m.watcher = NewWatcher(root, m.config.Debounce, m.apply,
		WithPatterns(m.config.IncludePatterns(), m.config.ExcludePatterns()),
		WithWatcherLogger(m.logger),
		WithErrorHandler(func(err error) {
			m.emit(context.Background(), EventTypeWatchError, map[string]any{"error": err.Error()})
		}),
	)
	return nil
}

// Start begins watching. The watcher outlives ctx and ends with Stop.
func (m *Module) Start(_ context.Context) error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Start(context.Background())
}

func (m *Module) Stop(_ context.Context) error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Stop()
}

// apply invalidates the pages affected by files.
func (m *Module) apply(ctx context.Context, files []string) {
	targets := m.mapper.TargetsFor(files)
	if targets.Empty() {
		m.logger.Debug("Changed files affect no pages", "files", files)
		return
	}

	removed := 0
	switch {
	case m.bus != nil:
		inv := cache.Invalidation{
			Prefixes: cacheKeys(targets.Prefixes),
			Keys:     cacheKeys(targets.Paths),
			Source:   ModuleName,
			Reason:   "content changed",
		}
		if err := m.bus.Publish(ctx, cache.TopicInvalidate, inv); err != nil {
			m.logger.Error("Failed to publish invalidation", "error", err)
			return
		}
	case m.pages != nil:
		for _, p := range targets.Prefixes {
			n, err := m.pages.Invalidate(ctx, p)
			if err != nil {
				m.logger.Error("Failed to invalidate pages", "prefix", p, "error", err)
				continue
			}
			removed += n
		}
		for _, p := range targets.Paths {
			if err := m.pages.Evict(ctx, p); err != nil {
				m.logger.Error("Failed to evict page", "path", p, "error", err)
			}
		}
	default:
		m.logger.Warn("No page service or event bus to invalidate", "prefixes", targets.Prefixes, "paths", targets.Paths)
		return
	}

	m.logger.Info("Content changed", "files", len(files), "prefixes", targets.Prefixes, "paths", targets.Paths)
	m.emit(ctx, EventTypeInvalidated, map[string]any{
		"files":    files,
		"prefixes": targets.Prefixes,
		"paths":    targets.Paths,
		"removed":  removed,
	})
}

func cacheKeys(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = pagecontent.CacheKeyPrefix + p
	}
	return keys
}

// Watcher returns the running watcher; nil when disabled.
func (m *Module) Watcher() *Watcher {
	return m.watcher
}

func (m *Module) RequiresServices() []sitekit.ServiceDependency {
	return []sitekit.ServiceDependency{
		{Name: locations.ServiceName},
		{Name: pagecontent.ServiceName},
		{Name: eventbus.ServiceName},
	}
}

func (m *Module) ProvidesServices() []sitekit.ServiceProvider {
	return nil
}

// Constructor picks up whichever of the index, page service and bus exist.
func (m *Module) Constructor() sitekit.ModuleConstructor {
	return func(_ sitekit.Application, services map[string]any) (sitekit.Module, error) {
		m.index, _ = services[locations.ServiceName].(*locations.Index)
		m.pages, _ = services[pagecontent.ServiceName].(Invalidator)
		m.bus, _ = services[eventbus.ServiceName].(Publisher)
		return m, nil
	}
}

func (m *Module) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}
