// Package jsonschema exposes a shared JSON Schema compiler and validator.
// The page resolver checks content fragments with it and the contact form
// checks request bodies.
package jsonschema

import (
	"context"

	"github.com/digitalneighbour/sitekit"
)

// ModuleName is the name of this module
const ModuleName = "jsonschema"

// ServiceName is the name of the JSONSchemaService
const ServiceName = "jsonschema.service"

// Module provides a JSONSchemaService.
type Module struct {
	schemaService *schemaService
	logger        sitekit.Logger
	subject       sitekit.Subject
}

// NewModule creates the jsonschema module.
func NewModule() sitekit.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) Init(app sitekit.Application) error {
	m.logger = app.Logger()
	if subject, ok := app.(sitekit.Subject); ok {
		m.subject = subject
	}
	m.schemaService = newSchemaService(serviceHooks{
		compiled: func(source string) {
			m.emit(EventTypeSchemaCompiled, map[string]any{"source": source})
		},
		failed: func(source string, err error) {
			m.logger.Warn("Schema compilation failed", "source", source, "error", err)
			m.emit(EventTypeSchemaError, map[string]any{"source": source, "error": err.Error()})
		},
		validated: func(err error) {
			if err != nil {
				m.emit(EventTypeValidationFailed, map[string]any{"error": err.Error()})
				return
			}
			m.emit(EventTypeValidationSuccess, nil)
		},
	})
	return nil
}

func (m *Module) emit(eventType string, data map[string]any) {
	err := sitekit.EmitEvent(context.Background(), m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}

func (m *Module) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "JSON Schema compilation and validation",
		Instance:    JSONSchemaService(m.schemaService),
	}}
}

func (m *Module) RequiresServices() []sitekit.ServiceDependency {
	return nil
}
