package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"time"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validateTableName(tableName string) error {
	if !tableNamePattern.MatchString(tableName) {
		return ErrInvalidTableName
	}
	return nil
}

// Migration is one schema change. IDs sort in the order migrations apply,
// e.g. "0001_create_leads".
type Migration struct {
	ID  string
	SQL string
}

type migrator struct {
	db        *sql.DB
	tableName string
	report    func(ctx context.Context, eventType string, data map[string]any)
}

func (m *migrator) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, m.tableName)
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *migrator) applied(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY id", m.tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration rows: %w", err)
	}
	return ids, nil
}

// migrate applies every migration not yet recorded, in ID order, each in its
// own transaction. It returns the IDs it applied.
func (m *migrator) migrate(ctx context.Context, migrations []Migration) ([]string, error) {
	if err := m.createTable(ctx); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(done))
	for _, id := range done {
		seen[id] = true
	}

	pending := make([]Migration, 0, len(migrations))
	for _, mig := range migrations {
		if mig.ID == "" || mig.SQL == "" {
			return nil, fmt.Errorf("%w: migration needs an ID and SQL", ErrInvalidMigration)
		}
		if !seen[mig.ID] {
			pending = append(pending, mig)
			seen[mig.ID] = true
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	var applied []string
	for _, mig := range pending {
		if err := m.run(ctx, mig); err != nil {
			return applied, err
		}
		applied = append(applied, mig.ID)
	}
	return applied, nil
}

func (m *migrator) run(ctx context.Context, mig Migration) (err error) {
	start := time.Now()
	m.report(ctx, EventTypeMigrationStarted, map[string]any{"migrationId": mig.ID})
	defer func() {
		if err != nil {
			m.report(ctx, EventTypeMigrationFailed, map[string]any{
				"migrationId": mig.ID, "error": err.Error(), "durationMs": time.Since(start).Milliseconds(),
			})
			return
		}
		m.report(ctx, EventTypeMigrationCompleted, map[string]any{
			"migrationId": mig.ID, "durationMs": time.Since(start).Milliseconds(),
		})
	}()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", mig.ID, err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (id) VALUES (?)", m.tableName), mig.ID); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", mig.ID, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", mig.ID, err)
	}
	return nil
}
