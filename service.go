package sitekit

import "reflect"

// ServiceRegistry allows registration and retrieval of services
type ServiceRegistry map[string]any

// ServiceProvider describes a service a module registers after Init.
type ServiceProvider struct {
	Name        string
	Description string
	Instance    any
}

// ServiceDependency defines a dependency on a service
type ServiceDependency struct {
	Name     string
	Required bool

	// MatchByInterface resolves the dependency to the first registered
	// service implementing SatisfiesInterface instead of matching by name.
	MatchByInterface   bool
	SatisfiesInterface reflect.Type
}
