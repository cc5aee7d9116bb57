package database

import (
	"context"
	"database/sql"
)

// DatabaseService is the connection other modules depend on.
type DatabaseService interface {
	DB() *sql.DB
	Ping(ctx context.Context) error
	Stats() sql.DBStats

	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)

	// Migrate applies the migrations not yet recorded and returns their IDs.
	Migrate(ctx context.Context, migrations []Migration) ([]string, error)

	// AppliedMigrations lists recorded migration IDs in order.
	AppliedMigrations(ctx context.Context) ([]string, error)
}
