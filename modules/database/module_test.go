package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/feeders"
)

func newDatabase(t *testing.T) *Module {
	t.Helper()
	t.Setenv("DATABASE_DSN", "file:"+filepath.Join(t.TempDir(), "nested", "test.db"))
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewModule())
	require.NoError(t, app.Init())
	t.Cleanup(func() { _ = app.Stop() })

	var db *Module
	require.NoError(t, app.GetService(ServiceName, &db))
	return db
}

var testMigrations = []Migration{
	{ID: "0002_add_note", SQL: `ALTER TABLE notes ADD COLUMN author TEXT`},
	{ID: "0001_create_notes", SQL: `CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL)`},
}

func TestDatabase_MigratesInOrderOnce(t *testing.T) {
	db := newDatabase(t)
	ctx := context.Background()

	applied, err := db.Migrate(ctx, testMigrations)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_notes", "0002_add_note"}, applied)

	applied, err = db.Migrate(ctx, testMigrations)
	require.NoError(t, err)
	assert.Empty(t, applied)

	ids, err := db.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_notes", "0002_add_note"}, ids)

	_, err = db.ExecContext(ctx, `INSERT INTO notes (body, author) VALUES (?, ?)`, "hello", "sam")
	require.NoError(t, err)
	var body string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT body FROM notes WHERE author = ?`, "sam").Scan(&body))
	assert.Equal(t, "hello", body)
}

func TestDatabase_FailedMigrationRollsBack(t *testing.T) {
	db := newDatabase(t)
	ctx := context.Background()

	applied, err := db.Migrate(ctx, []Migration{
		{ID: "0001_ok", SQL: `CREATE TABLE a (id INTEGER)`},
		{ID: "0002_bad", SQL: `CREATE TABLE broken (`},
	})
	require.Error(t, err)
	assert.Equal(t, []string{"0001_ok"}, applied)

	ids, err := db.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_ok"}, ids)

	_, err = db.Migrate(ctx, []Migration{{ID: "0003"}})
	assert.ErrorIs(t, err, ErrInvalidMigration)
}

func TestDatabase_ClosedAfterStop(t *testing.T) {
	db := newDatabase(t)
	require.NoError(t, db.Stop(context.Background()))

	assert.ErrorIs(t, db.Ping(context.Background()), ErrDatabaseNotConnected)
	_, err := db.ExecContext(context.Background(), `SELECT 1`)
	assert.ErrorIs(t, err, ErrDatabaseNotConnected)
	_, err = db.Migrate(context.Background(), testMigrations)
	assert.ErrorIs(t, err, ErrDatabaseNotConnected)
}

func TestDatabase_InvalidTable(t *testing.T) {
	t.Setenv("DB_MIGRATIONS_TABLE", "drop table;")
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewModule())
	assert.ErrorIs(t, app.Init(), ErrInvalidTableName)
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "data/sitekit.db", sqlitePath("file:data/sitekit.db?_pragma=busy_timeout(5000)"))
	assert.Equal(t, "/tmp/x.db", sqlitePath("/tmp/x.db"))
	assert.Empty(t, sqlitePath(":memory:"))
	assert.Empty(t, sqlitePath("file::memory:?cache=shared"))
}
