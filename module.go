package sitekit

import "context"

// Module represents a registrable component of the application.
// Every module has a unique name and is initialized once, in dependency
// order, after configuration has been loaded.
type Module interface {
	// Name returns the unique identifier for this module.
	// It is used for dependency resolution and config section naming.
	Name() string

	// Init initializes the module. Configuration is available at this point
	// and all modules this one depends on have already been initialized.
	Init(app Application) error
}

// Configurable is implemented by modules that own a configuration section.
// RegisterConfig is called before configuration is loaded so the section
// can be fed from the configured feeders.
type Configurable interface {
	RegisterConfig(app Application) error
}

// DependencyAware is implemented by modules that depend on other modules
// by name. Dependencies are initialized and started first.
type DependencyAware interface {
	Dependencies() []string
}

// ServiceAware is implemented by modules that provide or consume services.
type ServiceAware interface {
	// ProvidesServices returns the services registered after Init.
	ProvidesServices() []ServiceProvider

	// RequiresServices returns the services injected before Init.
	RequiresServices() []ServiceDependency
}

// Startable is implemented by modules with background work.
type Startable interface {
	Start(ctx context.Context) error
}

// Stoppable is implemented by modules that need cleanup on shutdown.
// Modules are stopped in reverse dependency order.
type Stoppable interface {
	Stop(ctx context.Context) error
}

// Constructable is implemented by modules that want their required services
// handed to a constructor instead of looking them up in Init.
type Constructable interface {
	Constructor() ModuleConstructor
}

// ModuleConstructor builds a module from the resolved services, keyed by
// service name.
type ModuleConstructor func(app Application, services map[string]any) (Module, error)

// ModuleRegistry maps module names to modules.
type ModuleRegistry map[string]Module
