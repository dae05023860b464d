/*
Package sqlite provides a SQLite-backed implementation of the template and
ledger storage interfaces.

PURPOSE:
  Persists recurrence templates and the occurrence ledger. Occurrences
  themselves are never stored: they are recomputed from templates on every
  read.

INTERFACES IMPLEMENTED:
  recurrence.TemplateStore: Template persistence
  recurrence.LedgerStore:   Occurrence status entries

KEY TABLES:
  templates:         One row per recurrence rule (never deleted)
  occurrence_ledger: At most one row per (template_id, occurrence_date)

LAST WRITE WINS:
  Ledger writes use INSERT ... ON CONFLICT DO UPDATE. A concurrent write to
  the same occurrence silently replaces the earlier one.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/recurring.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := recurrence.NewLedger(store)

SEE ALSO:
  - recurrence/store.go, recurrence/ledger.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
  - store/directory: Departments, users, projects and tasks
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
)

// Store implements the template and ledger interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database dir: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		scope_kind TEXT NOT NULL,
		department_id TEXT,
		assignees_json TEXT NOT NULL DEFAULT '[]',
		frequency TEXT NOT NULL,
		days_of_week_json TEXT NOT NULL DEFAULT '[]',
		day_of_month INTEGER,
		month_of_year INTEGER,
		priority TEXT NOT NULL,
		finish_period TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		deactivated_at TEXT,
		internal_notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_templates_department
		ON templates(department_id) WHERE department_id IS NOT NULL;

	-- Occurrence ledger: one row per (template, date), upserted
	CREATE TABLE IF NOT EXISTS occurrence_ledger (
		template_id TEXT NOT NULL REFERENCES templates(id),
		occurrence_date TEXT NOT NULL,
		status TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		acted_at TEXT,
		acted_by TEXT,
		PRIMARY KEY (template_id, occurrence_date)
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_date
		ON occurrence_ledger(occurrence_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TEMPLATE STORE
// =============================================================================

const templateColumns = `id, title, description, scope_kind, department_id, assignees_json,
	frequency, days_of_week_json, day_of_month, month_of_year, priority, finish_period,
	is_active, deactivated_at, internal_notes, created_at, updated_at`

// SaveTemplate inserts or replaces a template. created_at is kept on update.
func (s *Store) SaveTemplate(ctx context.Context, t recurrence.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO templates (` + templateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			scope_kind = excluded.scope_kind,
			department_id = excluded.department_id,
			assignees_json = excluded.assignees_json,
			frequency = excluded.frequency,
			days_of_week_json = excluded.days_of_week_json,
			day_of_month = excluded.day_of_month,
			month_of_year = excluded.month_of_year,
			priority = excluded.priority,
			finish_period = excluded.finish_period,
			is_active = excluded.is_active,
			deactivated_at = excluded.deactivated_at,
			internal_notes = excluded.internal_notes,
			updated_at = excluded.updated_at
	`

	assignees, err := json.Marshal(nonNil(t.Assignees))
	if err != nil {
		return fmt.Errorf("encode assignees: %w", err)
	}
	days, err := json.Marshal(nonNil(t.DaysOfWeek))
	if err != nil {
		return fmt.Errorf("encode days_of_week: %w", err)
	}

	var scopeKind string
	var departmentID sql.NullString
	if t.Scope != nil {
		scopeKind = string(t.Scope.Kind())
		if dep, ok := recurrence.DepartmentOf(t.Scope); ok {
			departmentID = nullString(string(dep))
		}
	}

	var dayOfMonth sql.NullInt64
	if n, ok := t.DayOfMonth.Int(); ok {
		dayOfMonth = sql.NullInt64{Int64: int64(n), Valid: true}
	}
	var monthOfYear sql.NullInt64
	if t.MonthOfYear != 0 {
		monthOfYear = sql.NullInt64{Int64: int64(t.MonthOfYear), Valid: true}
	}
	var deactivatedAt sql.NullString
	if t.DeactivatedAt != nil {
		deactivatedAt = nullString(t.DeactivatedAt.String())
	}

	createdAt, updatedAt := t.CreatedAt, t.UpdatedAt
	now := time.Now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err = s.db.ExecContext(ctx, query,
		string(t.ID), t.Title, t.Description, scopeKind, departmentID, string(assignees),
		string(t.Frequency), string(days), dayOfMonth, monthOfYear, string(t.Priority),
		nullString(string(t.FinishPeriod)), t.IsActive, deactivatedAt, t.InternalNotes,
		createdAt.UTC().Format(time.RFC3339), updatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetTemplate retrieves a template by ID. Returns (nil, nil) when missing.
func (s *Store) GetTemplate(ctx context.Context, id generic.TemplateID) (*recurrence.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+templateColumns+" FROM templates WHERE id = ?", string(id))
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates returns every template ordered by title.
func (s *Store) ListTemplates(ctx context.Context) ([]recurrence.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+templateColumns+" FROM templates ORDER BY title, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []recurrence.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (recurrence.Template, error) {
	var t recurrence.Template
	var id, scopeKind, assignees, frequency, days, priority string
	var departmentID, finishPeriod, deactivatedAt sql.NullString
	var dayOfMonth, monthOfYear sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(&id, &t.Title, &t.Description, &scopeKind, &departmentID, &assignees,
		&frequency, &days, &dayOfMonth, &monthOfYear, &priority, &finishPeriod,
		&t.IsActive, &deactivatedAt, &t.InternalNotes, &createdAt, &updatedAt)
	if err != nil {
		return t, err
	}

	t.ID = generic.TemplateID(id)
	t.Frequency = recurrence.Frequency(frequency)
	t.Priority = generic.Priority(priority)
	t.FinishPeriod = generic.DayPeriod(finishPeriod.String)

	switch recurrence.ScopeKind(scopeKind) {
	case recurrence.ScopeKindAll:
		t.Scope = recurrence.ScopeAll{}
	case recurrence.ScopeKindGA:
		t.Scope = recurrence.ScopeGA{}
	case recurrence.ScopeKindDepartment:
		t.Scope = recurrence.ScopeDepartment{DepartmentID: generic.DepartmentID(departmentID.String)}
	}

	if err := json.Unmarshal([]byte(assignees), &t.Assignees); err != nil {
		return t, fmt.Errorf("decode assignees of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(days), &t.DaysOfWeek); err != nil {
		return t, fmt.Errorf("decode days_of_week of %s: %w", id, err)
	}

	if dayOfMonth.Valid {
		// out-of-range values are left unset and surface as validation problems
		t.DayOfMonth, _ = recurrence.DayOfMonthFromInt(int(dayOfMonth.Int64))
	}
	if monthOfYear.Valid {
		t.MonthOfYear = int(monthOfYear.Int64)
	}
	if deactivatedAt.Valid {
		d, err := generic.ParseDate(deactivatedAt.String)
		if err != nil {
			return t, err
		}
		t.DeactivatedAt = &d
	}

	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

// =============================================================================
// LEDGER STORE
// =============================================================================

// GetEntry returns the ledger entry for key, or (nil, nil).
func (s *Store) GetEntry(ctx context.Context, key recurrence.Key) (*recurrence.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT template_id, occurrence_date, status, comment, acted_at, acted_by FROM occurrence_ledger WHERE template_id = ? AND occurrence_date = ?",
		string(key.TemplateID), key.Date,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// PutEntry upserts an entry. Last write wins.
func (s *Store) PutEntry(ctx context.Context, e recurrence.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO occurrence_ledger (template_id, occurrence_date, status, comment, acted_at, acted_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(template_id, occurrence_date) DO UPDATE SET
			status = excluded.status,
			comment = excluded.comment,
			acted_at = excluded.acted_at,
			acted_by = excluded.acted_by
	`

	var actedAt sql.NullString
	if e.ActedAt != nil {
		actedAt = nullString(e.ActedAt.UTC().Format(time.RFC3339))
	}

	_, err := s.db.ExecContext(ctx, query,
		string(e.TemplateID), e.Date.String(), string(e.Status), e.Comment,
		actedAt, nullString(string(e.ActedBy)),
	)
	return err
}

// ListEntries returns entries with dates in [from, to]. An empty templateIDs
// slice means all templates.
func (s *Store) ListEntries(ctx context.Context, templateIDs []generic.TemplateID, from, to generic.TimePoint) ([]recurrence.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT template_id, occurrence_date, status, comment, acted_at, acted_by FROM occurrence_ledger WHERE occurrence_date >= ? AND occurrence_date <= ?"
	args := []any{from.String(), to.String()}
	if len(templateIDs) > 0 {
		placeholders := make([]string, len(templateIDs))
		for i, id := range templateIDs {
			placeholders[i] = "?"
			args = append(args, string(id))
		}
		query += " AND template_id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY occurrence_date, template_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []recurrence.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row scanner) (recurrence.Entry, error) {
	var e recurrence.Entry
	var templateID, date, status string
	var actedAt, actedBy sql.NullString

	if err := row.Scan(&templateID, &date, &status, &e.Comment, &actedAt, &actedBy); err != nil {
		return e, err
	}

	d, err := generic.ParseDate(date)
	if err != nil {
		return e, err
	}
	e.TemplateID = generic.TemplateID(templateID)
	e.Date = d
	e.Status = recurrence.Status(status)
	e.ActedBy = generic.UserID(actedBy.String)
	if actedAt.Valid {
		ts, err := time.Parse(time.RFC3339, actedAt.String)
		if err != nil {
			return e, err
		}
		e.ActedAt = &ts
	}
	return e, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"occurrence_ledger", "templates"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
