// Package contact handles the site's contact and lead forms. Submissions
// are checked against the form rules and an embedded JSON Schema, relayed
// to the team through Resend, rate limited per client and, when a database
// is available, stored as leads.
package contact

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/chimux"
	"github.com/digitalneighbour/sitekit/modules/database"
	"github.com/digitalneighbour/sitekit/modules/httpclient"
	"github.com/digitalneighbour/sitekit/modules/jsonschema"
	"github.com/digitalneighbour/sitekit/modules/logmasker"
)

// ModuleName is the name of this module
const ModuleName = "contact"

// ServiceName is the name of the *Service
const ServiceName = "contact.service"

const submissionSchemaURL = "https://digital-neighbour.com/schemas/contact-submission.json"

//go:embed schema/submission.json
var submissionSchema string

// Module wires the form service to the router and optional supporting
// services.
type Module struct {
	config  *ContactConfig
	service *Service

	router  chi.Router
	client  httpclient.ClientService
	db      LeadDB
	schemas jsonschema.JSONSchemaService
	masked  sitekit.Logger
}

// NewModule creates the contact module.
func NewModule() sitekit.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&ContactConfig{StoreLeads: true}))
	return nil
}

// Init compiles the submission schema, migrates the lead table and mounts
// the form route.
func (m *Module) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return err
	}
	m.config = cfg.GetConfig().(*ContactConfig)

	logger := app.Logger()
	if m.masked != nil {
		logger = m.masked
	}

	schemas := m.schemas
	if schemas == nil {
		schemas = jsonschema.NewJSONSchemaService()
	}
	schema, err := schemas.CompileString(submissionSchemaURL, submissionSchema)
	if err != nil {
		return fmt.Errorf("compile submission schema: %w", err)
	}

	var client *http.Client
	if m.client != nil {
		client = m.client.WithTimeout(m.config.SendTimeout)
	} else {
		client = &http.Client{Timeout: m.config.SendTimeout}
	}

	opts := []ServiceOption{WithSchema(schema), WithLogger(logger)}
	if subject, ok := app.(sitekit.Subject); ok {
		opts = append(opts, WithSubject(subject))
	}
	if m.db != nil && m.config.StoreLeads {
		store := NewLeadStore(m.db)
		if err := store.Migrate(context.Background()); err != nil {
			return err
		}
		opts = append(opts, WithLeadStore(store))
	}
	m.service = NewService(m.config, NewResendClient(client, m.config.ResendURL, m.config.ResendAPIKey), opts...)

	if m.config.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY is not set; contact submissions will fail")
	}
	if m.router != nil {
		limiter := NewRateLimiter(m.config.RatePerMinute, m.config.Burst, m.config.LimiterIdle)
		Routes(m.router, m.config.Path, m.service, limiter, m.config.MaxBodyBytes, logger)
	}
	return nil
}

// Service returns the form service; nil before Init.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Contact form relay and lead store",
		Instance:    m.service,
	}}
}

func (m *Module) RequiresServices() []sitekit.ServiceDependency {
	return []sitekit.ServiceDependency{
		{Name: chimux.ServiceName},
		{Name: httpclient.ServiceName},
		{Name: database.ServiceName},
		{Name: jsonschema.ServiceName},
		{Name: logmasker.ServiceName},
	}
}

// Constructor picks up whichever supporting services exist.
func (m *Module) Constructor() sitekit.ModuleConstructor {
	return func(_ sitekit.Application, services map[string]any) (sitekit.Module, error) {
		m.router, _ = services[chimux.ServiceName].(chi.Router)
		m.client, _ = services[httpclient.ServiceName].(httpclient.ClientService)
		m.db, _ = services[database.ServiceName].(LeadDB)
		m.schemas, _ = services[jsonschema.ServiceName].(jsonschema.JSONSchemaService)
		m.masked, _ = services[logmasker.ServiceName].(sitekit.Logger)
		return m, nil
	}
}
