package database

import (
	"fmt"
	"time"
)

// Config configures the single database connection.
//
// The default driver is modernc's pure-Go sqlite, so the binary needs no
// cgo:
//
//	database:
//	  dsn: "file:/var/lib/sitekit/leads.db?_pragma=busy_timeout(5000)"
type Config struct {
	Driver string `json:"driver" yaml:"driver" toml:"driver" env:"DB_DRIVER" default:"sqlite" desc:"database/sql driver name"`
	DSN    string `json:"dsn" yaml:"dsn" toml:"dsn" env:"DATABASE_DSN" default:"file:data/sitekit.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)" desc:"Connection string"`

	MaxOpenConnections    int           `json:"maxOpenConnections" yaml:"maxOpenConnections" toml:"maxOpenConnections" env:"DB_MAX_OPEN_CONNS" default:"4" desc:"Open connection limit"`
	MaxIdleConnections    int           `json:"maxIdleConnections" yaml:"maxIdleConnections" toml:"maxIdleConnections" env:"DB_MAX_IDLE_CONNS" default:"2" desc:"Idle connection limit"`
	ConnectionMaxLifetime time.Duration `json:"connectionMaxLifetime" yaml:"connectionMaxLifetime" toml:"connectionMaxLifetime" env:"DB_CONN_MAX_LIFETIME" default:"1h" desc:"Connection lifetime"`
	ConnectTimeout        time.Duration `json:"connectTimeout" yaml:"connectTimeout" toml:"connectTimeout" env:"DB_CONNECT_TIMEOUT" default:"5s" desc:"Ping timeout when connecting"`

	// MigrationsTable records applied migrations.
	MigrationsTable string `json:"migrationsTable" yaml:"migrationsTable" toml:"migrationsTable" env:"DB_MIGRATIONS_TABLE" default:"schema_migrations" desc:"Applied migrations table"`
}

func (c *Config) Validate() error {
	if c.Driver == "" {
		return ErrEmptyDriver
	}
	if c.DSN == "" {
		return ErrEmptyDSN
	}
	if err := validateTableName(c.MigrationsTable); err != nil {
		return fmt.Errorf("migrations table: %w", err)
	}
	return nil
}
