package sitekit

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"slices"
	"sort"
	"sync"
	"syscall"
	"time"
)

// defaultStopTimeout bounds how long Stop waits for modules to shut down.
const defaultStopTimeout = 30 * time.Second

// Application is the container every module is registered with.
type Application interface {
	ConfigProvider() ConfigProvider
	SvcRegistry() ServiceRegistry
	RegisterModule(module Module)
	RegisterConfigSection(section string, cp ConfigProvider)
	ConfigSections() map[string]ConfigProvider
	GetConfigSection(section string) (ConfigProvider, error)
	RegisterService(name string, service any) error
	GetService(name string, target any) error
	Init() error
	Start() error
	Stop() error
	Run() error
	Logger() Logger
}

// StdApplication is the standard Application. It also implements Subject so
// modules can emit and observe CloudEvents through it.
type StdApplication struct {
	cfgProvider    ConfigProvider
	cfgSections    map[string]ConfigProvider
	cfgFeeders     []Feeder
	svcRegistry    ServiceRegistry
	moduleRegistry ModuleRegistry
	logger         Logger
	stopTimeout    time.Duration
	ctx            context.Context
	cancel         context.CancelFunc

	observers     map[string]*observerRegistration
	observerMutex sync.RWMutex
}

// NewStdApplication creates a new application instance
func NewStdApplication(cp ConfigProvider, logger Logger) *StdApplication {
	if logger == nil {
		logger = NopLogger{}
	}
	return &StdApplication{
		cfgProvider:    cp,
		cfgSections:    make(map[string]ConfigProvider),
		svcRegistry:    make(ServiceRegistry),
		moduleRegistry: make(ModuleRegistry),
		logger:         logger,
		stopTimeout:    defaultStopTimeout,
		observers:      make(map[string]*observerRegistration),
	}
}

// ConfigProvider retrieves the application config provider
func (app *StdApplication) ConfigProvider() ConfigProvider {
	return app.cfgProvider
}

// SvcRegistry retrieves the service registry
func (app *StdApplication) SvcRegistry() ServiceRegistry {
	return app.svcRegistry
}

// SetConfigFeeders overrides the package-level ConfigFeeders for this application.
func (app *StdApplication) SetConfigFeeders(feeders []Feeder) {
	app.cfgFeeders = feeders
}

// RegisterModule adds a module to the application
func (app *StdApplication) RegisterModule(module Module) {
	app.moduleRegistry[module.Name()] = module
	app.emitEvent(context.Background(), EventTypeModuleRegistered, map[string]any{
		"moduleName": module.Name(),
	})
}

// RegisterConfigSection registers a configuration section with the application
func (app *StdApplication) RegisterConfigSection(section string, cp ConfigProvider) {
	app.cfgSections[section] = cp
}

// ConfigSections retrieves all registered configuration sections
func (app *StdApplication) ConfigSections() map[string]ConfigProvider {
	return app.cfgSections
}

// GetConfigSection retrieves a configuration section
func (app *StdApplication) GetConfigSection(section string) (ConfigProvider, error) {
	cp, exists := app.cfgSections[section]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrConfigSectionNotFound, section)
	}
	return cp, nil
}

// RegisterService adds a service to the registry
func (app *StdApplication) RegisterService(name string, service any) error {
	if _, exists := app.svcRegistry[name]; exists {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, name)
	}

	app.svcRegistry[name] = service
	app.logger.Debug("Registered service", "name", name, "type", reflect.TypeOf(service))
	app.emitEvent(context.Background(), EventTypeServiceRegistered, map[string]any{
		"serviceName": name,
	})
	return nil
}

// GetService retrieves a service and assigns it to target, which must be a
// pointer to an interface the service implements or to a compatible type.
func (app *StdApplication) GetService(name string, target any) error {
	service, exists := app.svcRegistry[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return assignService(name, service, target)
}

func assignService(name string, service, target any) error {
	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr || targetValue.IsNil() {
		return ErrTargetNotPointer
	}
	if service == nil {
		return fmt.Errorf("%w: %s", ErrServiceNil, name)
	}

	serviceType := reflect.TypeOf(service)
	targetType := targetValue.Elem().Type()

	switch {
	case targetType.Kind() == reflect.Interface && serviceType.Implements(targetType):
		targetValue.Elem().Set(reflect.ValueOf(service))
	case serviceType.AssignableTo(targetType):
		targetValue.Elem().Set(reflect.ValueOf(service))
	case serviceType.Kind() == reflect.Ptr && serviceType.Elem().AssignableTo(targetType):
		targetValue.Elem().Set(reflect.ValueOf(service).Elem())
	default:
		return fmt.Errorf("%w: service '%s' of type %s cannot be assigned to %s",
			ErrServiceIncompatible, name, serviceType, targetType)
	}
	return nil
}

// Init registers configs, loads configuration and initializes modules in
// dependency order, injecting and registering services along the way.
func (app *StdApplication) Init() error {
	names := app.sortedModuleNames()
	for _, name := range names {
		configurable, ok := app.moduleRegistry[name].(Configurable)
		if !ok {
			continue
		}
		if err := configurable.RegisterConfig(app); err != nil {
			return fmt.Errorf("failed to register config for module %s: %w", name, err)
		}
	}

	if err := AppConfigLoader(app); err != nil {
		app.emitEvent(context.Background(), EventTypeApplicationFailed, map[string]any{
			"phase": "config", "error": err.Error(),
		})
		return fmt.Errorf("failed to load app config: %w", err)
	}
	app.emitEvent(context.Background(), EventTypeConfigLoaded, nil)

	moduleOrder, err := app.resolveDependencies()
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	for _, moduleName := range moduleOrder {
		module := app.moduleRegistry[moduleName]
		if _, ok := module.(ServiceAware); ok {
			if module, err = app.injectServices(module); err != nil {
				return fmt.Errorf("failed to inject services for module '%s': %w", moduleName, err)
			}
		}

		if err = module.Init(app); err != nil {
			app.emitEvent(context.Background(), EventTypeModuleFailed, map[string]any{
				"moduleName": moduleName, "error": err.Error(),
			})
			return fmt.Errorf("failed to initialize module '%s': %w", moduleName, err)
		}

		if svcAware, ok := module.(ServiceAware); ok {
			for _, svc := range svcAware.ProvidesServices() {
				if err = app.RegisterService(svc.Name, svc.Instance); err != nil {
					return fmt.Errorf("module '%s' failed to register service: %w", moduleName, err)
				}
			}
		}

		if observable, ok := module.(ObservableModule); ok {
			if err = observable.RegisterObservers(app); err != nil {
				app.logger.Error("Failed to register observers for module", "module", moduleName, "error", err)
			}
		}

		app.logger.Info("Initialized module", "module", moduleName, "type", fmt.Sprintf("%T", module))
		app.emitEvent(context.Background(), EventTypeModuleInitialized, map[string]any{"moduleName": moduleName})
	}

	return nil
}

// Start starts the application
func (app *StdApplication) Start() error {
	app.ctx, app.cancel = context.WithCancel(context.Background())

	modules, err := app.resolveDependencies()
	if err != nil {
		return err
	}

	for _, name := range modules {
		startable, ok := app.moduleRegistry[name].(Startable)
		if !ok {
			continue
		}
		app.logger.Info("Starting module", "module", name)
		if err := startable.Start(app.ctx); err != nil {
			app.emitEvent(context.Background(), EventTypeApplicationFailed, map[string]any{
				"phase": "start", "moduleName": name, "error": err.Error(),
			})
			return fmt.Errorf("failed to start module %s: %w", name, err)
		}
		app.emitEvent(context.Background(), EventTypeModuleStarted, map[string]any{"moduleName": name})
	}

	app.emitEvent(context.Background(), EventTypeApplicationStarted, nil)
	return nil
}

// Stop stops modules in reverse dependency order. Every module gets a
// chance to stop; the last error is returned.
func (app *StdApplication) Stop() error {
	modules, err := app.resolveDependencies()
	if err != nil {
		return err
	}
	slices.Reverse(modules)

	ctx, cancel := context.WithTimeout(context.Background(), app.stopTimeout)
	defer cancel()

	var lastErr error
	for _, name := range modules {
		stoppable, ok := app.moduleRegistry[name].(Stoppable)
		if !ok {
			continue
		}
		app.logger.Info("Stopping module", "module", name)
		if err = stoppable.Stop(ctx); err != nil {
			app.logger.Error("Error stopping module", "module", name, "error", err)
			lastErr = err
			continue
		}
		app.emitEvent(ctx, EventTypeModuleStopped, map[string]any{"moduleName": name})
	}

	if app.cancel != nil {
		app.cancel()
	}

	app.emitEvent(context.Background(), EventTypeApplicationStopped, nil)
	return lastErr
}

// Run initializes and starts the application, then blocks until SIGINT or
// SIGTERM and stops it.
func (app *StdApplication) Run() error {
	if err := app.Init(); err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	app.logger.Info("Received signal, shutting down", "signal", sig)

	return app.Stop()
}

// Logger returns the application logger
func (app *StdApplication) Logger() Logger {
	return app.logger
}

// injectServices resolves a module's required services and, when the module
// is Constructable, replaces it with the constructed instance.
func (app *StdApplication) injectServices(module Module) (Module, error) {
	required := make(map[string]any)
	for _, dep := range module.(ServiceAware).RequiresServices() {
		name, service, found := app.lookupDependency(dep)
		if !found {
			if dep.Required {
				return nil, fmt.Errorf("%w: %s for %s", ErrRequiredServiceNotFound, dependencyLabel(dep), module.Name())
			}
			continue
		}

		if dep.SatisfiesInterface != nil && dep.SatisfiesInterface.Kind() == reflect.Interface &&
			!implements(reflect.TypeOf(service), dep.SatisfiesInterface) {
			return nil, fmt.Errorf("%w: service '%s' of type %T doesn't satisfy %s",
				ErrServiceWrongInterface, name, service, dep.SatisfiesInterface)
		}
		required[dep.Name] = service
	}

	constructable, ok := module.(Constructable)
	if !ok {
		return module, nil
	}

	newModule, err := constructable.Constructor()(app, required)
	if err != nil {
		return nil, fmt.Errorf("failed to construct module '%s': %w", module.Name(), err)
	}
	app.moduleRegistry[module.Name()] = newModule
	return newModule, nil
}

func (app *StdApplication) lookupDependency(dep ServiceDependency) (string, any, bool) {
	if dep.MatchByInterface && dep.SatisfiesInterface != nil {
		names := make([]string, 0, len(app.svcRegistry))
		for name := range app.svcRegistry {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			svc := app.svcRegistry[name]
			if svc != nil && implements(reflect.TypeOf(svc), dep.SatisfiesInterface) {
				return name, svc, true
			}
		}
		return "", nil, false
	}

	svc, ok := app.svcRegistry[dep.Name]
	if !ok || svc == nil {
		return dep.Name, nil, false
	}
	return dep.Name, svc, true
}

func implements(t, iface reflect.Type) bool {
	if t.Implements(iface) {
		return true
	}
	return t.Kind() == reflect.Ptr && t.Elem().Implements(iface)
}

func dependencyLabel(dep ServiceDependency) string {
	if dep.MatchByInterface && dep.SatisfiesInterface != nil {
		return "interface " + dep.SatisfiesInterface.String()
	}
	return dep.Name
}

func (app *StdApplication) sortedModuleNames() []string {
	names := make([]string, 0, len(app.moduleRegistry))
	for name := range app.moduleRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveDependencies returns modules in initialization order. Explicit
// Dependencies() are combined with implicit ones derived from named service
// requirements, optional ones included when a provider is registered; ties
// are broken by module name.
func (app *StdApplication) resolveDependencies() ([]string, error) {
	graph := make(map[string][]string)
	providers := make(map[string]string)

	for name, module := range app.moduleRegistry {
		if da, ok := module.(DependencyAware); ok {
			graph[name] = append(graph[name], da.Dependencies()...)
		} else {
			graph[name] = nil
		}
		if sa, ok := module.(ServiceAware); ok {
			for _, svc := range sa.ProvidesServices() {
				providers[svc.Name] = name
			}
		}
	}

	for name, module := range app.moduleRegistry {
		sa, ok := module.(ServiceAware)
		if !ok {
			continue
		}
		for _, dep := range sa.RequiresServices() {
			if dep.MatchByInterface {
				continue
			}
			if provider, found := providers[dep.Name]; found && provider != name && !slices.Contains(graph[name], provider) {
				graph[name] = append(graph[name], provider)
			}
		}
	}

	var result []string
	visited := make(map[string]bool)
	temp := make(map[string]bool)

	var visit func(string) error
	visit = func(node string) error {
		if temp[node] {
			return fmt.Errorf("%w: %s", ErrCircularDependency, node)
		}
		if visited[node] {
			return nil
		}
		temp[node] = true

		deps := slices.Clone(graph[node])
		sort.Strings(deps)
		for _, dep := range deps {
			if _, exists := app.moduleRegistry[dep]; !exists {
				return fmt.Errorf("%w: %s depends on non-existent module %s",
					ErrModuleDependencyMissing, node, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		visited[node] = true
		temp[node] = false
		result = append(result, node)
		return nil
	}

	for _, node := range app.sortedModuleNames() {
		if err := visit(node); err != nil {
			return nil, err
		}
	}

	app.logger.Debug("Module initialization order", "order", result)
	return result, nil
}
