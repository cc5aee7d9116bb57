package contact

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/digitalneighbour/sitekit/modules/database"
)

// Lead statuses.
const (
	LeadSent   = "sent"
	LeadFailed = "failed"
)

var leadMigrations = []database.Migration{
	{ID: "0001_create_leads", SQL: `CREATE TABLE leads (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		email TEXT NOT NULL,
		name TEXT NOT NULL,
		form_type TEXT NOT NULL,
		source_page TEXT NOT NULL,
		fields TEXT NOT NULL,
		status TEXT NOT NULL,
		email_id TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	)`},
	{ID: "0002_leads_created_at_index", SQL: `CREATE INDEX leads_created_at ON leads (created_at)`},
}

// Lead is a stored submission.
type Lead struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	FormType   string         `json:"formType"`
	SourcePage string         `json:"sourcePage"`
	Fields     []LabeledField `json:"fields"`
	Status     string         `json:"status"`
	EmailID    string         `json:"emailId,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// LeadDB is the part of the database service the store uses.
type LeadDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Migrate(ctx context.Context, migrations []database.Migration) ([]string, error)
}

// LeadStore persists submissions in the leads table.
type LeadStore struct {
	db LeadDB
}

func NewLeadStore(db LeadDB) *LeadStore {
	return &LeadStore{db: db}
}

// Migrate creates or upgrades the leads table.
func (s *LeadStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Migrate(ctx, leadMigrations); err != nil {
		return fmt.Errorf("migrate leads: %w", err)
	}
	return nil
}

// Save inserts lead, assigning an ID when it has none.
func (s *LeadStore) Save(ctx context.Context, lead *Lead) error {
	if lead.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("lead id: %w", err)
		}
		lead.ID = id.String()
	}
	fields, err := json.Marshal(lead.Fields)
	if err != nil {
		return fmt.Errorf("encode lead fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, created_at, email, name, form_type, source_page, fields, status, email_id, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.CreatedAt.UTC().Format(time.RFC3339Nano), lead.Email, lead.Name, lead.FormType,
		lead.SourcePage, string(fields), lead.Status, lead.EmailID, lead.Error)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// Recent returns up to limit leads, newest first.
func (s *LeadStore) Recent(ctx context.Context, limit int) ([]Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, email, name, form_type, source_page, fields, status, email_id, error
		 FROM leads ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var (
			lead    Lead
			created string
			fields  string
		)
		if err := rows.Scan(&lead.ID, &created, &lead.Email, &lead.Name, &lead.FormType,
			&lead.SourcePage, &fields, &lead.Status, &lead.EmailID, &lead.Error); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		if lead.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("lead %s created_at: %w", lead.ID, err)
		}
		if err := json.Unmarshal([]byte(fields), &lead.Fields); err != nil {
			return nil, fmt.Errorf("lead %s fields: %w", lead.ID, err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
