/*
ledger.go - Occurrence status ledger

PURPOSE:
  Records what happened to each occurrence: done, not done, skipped, plus a
  comment. The ledger is independent of the rule that generates occurrences:
  editing or deactivating a template never touches recorded history.

KEY:
  (template_id, occurrence_date). At most one entry per key.

DEFAULT STATUS:
  An occurrence without an entry is classified at read time:
    date >= today  -> open
    date <  today  -> not_done
  The classification is never written back.

CONCURRENCY:
  Upsert is last-write-wins. Two users editing the same occurrence race and
  the later write silently replaces the earlier one. There is no version
  column and no conflict error; add one only if requirements change.

SEE ALSO:
  - store/sqlite/sqlite.go: ON CONFLICT upsert implementation
  - generic/store/memory.go: In-memory implementation for tests
*/
package recurrence

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/recurring-engine/generic"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusOpen    Status = "open"
	StatusDone    Status = "done"
	StatusNotDone Status = "not_done"
	StatusSkipped Status = "skipped"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusDone, StatusNotDone, StatusSkipped:
		return true
	}
	return false
}

// Resolved reports a status that needs no further action.
func (s Status) Resolved() bool {
	return s == StatusDone || s == StatusSkipped
}

// =============================================================================
// ENTRY
// =============================================================================

// Key identifies one occurrence in the ledger.
type Key struct {
	TemplateID generic.TemplateID
	Date       string // YYYY-MM-DD
}

func NewKey(templateID generic.TemplateID, date generic.TimePoint) Key {
	return Key{TemplateID: templateID, Date: date.Time.Format(generic.DateLayout)}
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.TemplateID, k.Date)
}

// Entry is the persisted record of one occurrence.
type Entry struct {
	TemplateID generic.TemplateID
	Date       generic.TimePoint
	Status     Status
	Comment    string
	ActedAt    *time.Time
	ActedBy    generic.UserID
}

func (e Entry) Key() Key { return NewKey(e.TemplateID, e.Date) }

// LedgerStore persists entries. Put overwrites any entry with the same key.
type LedgerStore interface {
	GetEntry(ctx context.Context, key Key) (*Entry, error)
	PutEntry(ctx context.Context, entry Entry) error
	// ListEntries returns entries of the given templates with dates in [from, to].
	// An empty templateIDs slice means all templates.
	ListEntries(ctx context.Context, templateIDs []generic.TemplateID, from, to generic.TimePoint) ([]Entry, error)
}

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	Store LedgerStore
}

func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{Store: store}
}

// EffectiveStatus derives the status of an occurrence from its entry, if any.
func EffectiveStatus(entry *Entry, date, today generic.TimePoint) Status {
	if entry != nil {
		return entry.Status
	}
	if date.AfterOrEqual(today) {
		return StatusOpen
	}
	return StatusNotDone
}

// Status returns the effective status of an occurrence and its stored entry.
func (l *Ledger) Status(ctx context.Context, templateID generic.TemplateID, date, today generic.TimePoint) (Status, *Entry, error) {
	entry, err := l.Store.GetEntry(ctx, NewKey(templateID, date))
	if err != nil {
		return "", nil, fmt.Errorf("load ledger entry: %w", err)
	}
	return EffectiveStatus(entry, date, today), entry, nil
}

// Upsert writes an entry, replacing any previous one for the same key.
func (l *Ledger) Upsert(ctx context.Context, entry Entry) error {
	if !entry.Status.Valid() {
		return generic.NewValidationError("status", "unknown status %q", entry.Status)
	}
	if entry.TemplateID == "" {
		return generic.NewValidationError("template_id", "is required")
	}
	if err := l.Store.PutEntry(ctx, entry); err != nil {
		return fmt.Errorf("store ledger entry: %w", err)
	}
	return nil
}

// Entries loads entries in [from, to] keyed for lookup during aggregation.
func (l *Ledger) Entries(ctx context.Context, templateIDs []generic.TemplateID, from, to generic.TimePoint) (map[Key]Entry, error) {
	entries, err := l.Store.ListEntries(ctx, templateIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	out := make(map[Key]Entry, len(entries))
	for _, e := range entries {
		out[e.Key()] = e
	}
	return out, nil
}
