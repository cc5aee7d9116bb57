// Package database provides a database/sql connection, sqlite by default,
// with ordered migrations that modules apply for their own tables.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/digitalneighbour/sitekit"
)

// ModuleName is the name of this module
const ModuleName = "database"

// ServiceName is the name of the DatabaseService
const ServiceName = "database.service"

// Module owns the connection pool.
type Module struct {
	config  *Config
	logger  sitekit.Logger
	subject sitekit.Subject

	mu       sync.RWMutex
	db       *sql.DB
	closed   bool
	migrator *migrator
}

var _ DatabaseService = (*Module)(nil)

// NewModule creates the database module.
func NewModule() sitekit.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&Config{}))
	return nil
}

// Init opens and pings the connection so dependent modules can migrate in
// their own Init.
func (m *Module) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get config section: %w", err)
	}
	m.config = cfg.GetConfig().(*Config)
	m.logger = app.Logger()
	if subject, ok := app.(sitekit.Subject); ok {
		m.subject = subject
	}
	return m.connect(context.Background())
}

func (m *Module) connect(ctx context.Context) error {
	if err := ensureSQLiteDir(m.config.Driver, m.config.DSN); err != nil {
		return err
	}
	db, err := sql.Open(m.config.Driver, m.config.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	maxOpen := m.config.MaxOpenConnections
	if strings.Contains(m.config.DSN, ":memory:") {
		// Every connection to :memory: is a separate database.
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if m.config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.config.MaxIdleConnections)
	}
	if m.config.ConnectionMaxLifetime > 0 {
		db.SetConnMaxLifetime(m.config.ConnectionMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m.mu.Lock()
	m.db, m.closed = db, false
	m.migrator = &migrator{db: db, tableName: m.config.MigrationsTable, report: m.emit}
	m.mu.Unlock()

	m.logger.Info("Database connected", "driver", m.config.Driver)
	m.emit(ctx, EventTypeConnected, map[string]any{"driver": m.config.Driver})
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil || m.closed {
		return nil
	}
	err := m.db.Close()
	m.closed, m.migrator = true, nil
	if err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	m.emit(ctx, EventTypeDisconnected, nil)
	return nil
}

func (m *Module) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Database connection with migrations",
		Instance:    m,
	}}
}

func (m *Module) RequiresServices() []sitekit.ServiceDependency {
	return nil
}

// DB returns the pool. After Stop it is closed and every call fails.
func (m *Module) DB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *Module) conn() (*sql.DB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil || m.closed {
		return nil, ErrDatabaseNotConnected
	}
	return m.db, nil
}

func (m *Module) Ping(ctx context.Context) error {
	db, err := m.conn()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (m *Module) Stats() sql.DBStats {
	db, err := m.conn()
	if err != nil {
		return sql.DBStats{}
	}
	return db.Stats()
}

func (m *Module) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db, err := m.conn()
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, query, args...)
}

func (m *Module) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := m.conn()
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, query, args...)
}

// QueryRowContext must only be called after Init. Once stopped the Row
// carries the closed-database error.
func (m *Module) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return m.DB().QueryRowContext(ctx, query, args...)
}

func (m *Module) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	db, err := m.conn()
	if err != nil {
		return nil, err
	}
	return db.BeginTx(ctx, opts)
}

func (m *Module) Migrate(ctx context.Context, migrations []Migration) ([]string, error) {
	m.mu.RLock()
	mig := m.migrator
	m.mu.RUnlock()
	if mig == nil {
		return nil, ErrDatabaseNotConnected
	}
	applied, err := mig.migrate(ctx, migrations)
	if len(applied) > 0 {
		m.logger.Info("Applied migrations", "ids", applied)
	}
	return applied, err
}

func (m *Module) AppliedMigrations(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	mig := m.migrator
	m.mu.RUnlock()
	if mig == nil {
		return nil, ErrDatabaseNotConnected
	}
	if err := mig.createTable(ctx); err != nil {
		return nil, err
	}
	return mig.applied(ctx)
}

func (m *Module) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}

// HealthCheck pings the database.
func (m *Module) HealthCheck(ctx context.Context) ([]sitekit.HealthReport, error) {
	report := sitekit.HealthReport{Module: ModuleName, Component: "connection", Status: sitekit.HealthStatusHealthy}
	if err := m.Ping(ctx); err != nil {
		report.Status, report.Message = sitekit.HealthStatusUnhealthy, err.Error()
		return []sitekit.HealthReport{report}, nil
	}
	stats := m.Stats()
	report.Details = map[string]any{"open": stats.OpenConnections, "inUse": stats.InUse, "idle": stats.Idle}
	return []sitekit.HealthReport{report}, nil
}
