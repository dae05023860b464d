/*
engine.go - Report engine (boundary I/O)

PURPOSE:
  The Engine owns every store read and write. It loads templates, ledger
  entries, tasks and the directory, then hands them to the pure builders
  (Compose, BuildWeekly). It never reads the wall clock: callers pass asOf
  and now explicitly.

DAY BOUNDARY:
  Location is the zone in which a timestamp becomes a calendar day. The
  boundary derives "today" with Day, and stored ActedAt/DueAt/CompletedAt
  values are moved into the same zone before any date is taken.

CONSISTENCY:
  Reads run concurrently through an errgroup. The first failure cancels the
  others and the whole request fails; a partial report is never returned.

SEE ALSO:
  - aggregate.go: Compose
  - weekly.go: BuildWeekly
  - api/handlers.go: HTTP boundary
*/
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
)

type Engine struct {
	Templates recurrence.TemplateStore
	Ledger    *recurrence.Ledger
	Tasks     TaskSource
	Directory DirectorySource

	// OverdueHorizon is the look-back window in days.
	OverdueHorizon int
	// Timeout bounds each request; zero means the caller's context only.
	Timeout time.Duration
	// Location is the day-boundary zone.
	Location *time.Location

	log *slog.Logger
}

func NewEngine(templates recurrence.TemplateStore, ledger recurrence.LedgerStore, tasks TaskSource, directory DirectorySource, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		Templates:      templates,
		Ledger:         recurrence.NewLedger(ledger),
		Tasks:          tasks,
		Directory:      directory,
		OverdueHorizon: DefaultOverdueHorizon,
		Location:       time.UTC,
		log:            log,
	}
}

// Day is the calendar day of t in the engine's zone.
func (e *Engine) Day(t time.Time) generic.TimePoint {
	return generic.DateIn(t, e.Location)
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout > 0 {
		return context.WithTimeout(ctx, e.Timeout)
	}
	return context.WithCancel(ctx)
}

// snapshot is one consistent read of every source.
type snapshot struct {
	templates []recurrence.Template
	tasks     []Task
	directory *Directory
	entries   map[recurrence.Key]recurrence.Entry
}

func (e *Engine) load(ctx context.Context, q TaskQuery, entriesFrom, entriesTo generic.TimePoint) (*snapshot, error) {
	var s snapshot

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		templates, err := e.Templates.ListTemplates(gCtx)
		if err != nil {
			return fmt.Errorf("list templates: %w", err)
		}
		s.templates = templates
		return nil
	})
	g.Go(func() error {
		tasks, err := e.Tasks.ListTasks(gCtx, q)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		s.tasks = tasks
		return nil
	})
	g.Go(func() error {
		dir, err := e.Directory.LoadDirectory(gCtx)
		if err != nil {
			return fmt.Errorf("load directory: %w", err)
		}
		s.directory = dir
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]generic.TemplateID, len(s.templates))
	for i, t := range s.templates {
		ids[i] = t.ID
	}
	entries := map[recurrence.Key]recurrence.Entry{}
	if len(ids) > 0 {
		var err error
		entries, err = e.Ledger.Entries(ctx, ids, entriesFrom, entriesTo)
		if err != nil {
			return nil, err
		}
	}
	s.entries = entries

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// =============================================================================
// DAILY REPORT
// =============================================================================

// BuildReport returns the ordered rows for asOf.
func (e *Engine) BuildReport(ctx context.Context, asOf generic.TimePoint, filter Filter) (*Report, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	q := TaskQuery{
		DepartmentID:   filter.DepartmentID,
		UserID:         filter.UserID,
		From:           asOf,
		To:             asOf,
		IncludeOverdue: true,
	}
	s, err := e.load(ctx, q, asOf.AddDays(-e.OverdueHorizon), asOf)
	if err != nil {
		return nil, err
	}

	res := Compose(Input{
		AsOf:           asOf,
		OverdueHorizon: e.OverdueHorizon,
		Filter:         filter,
		Templates:      s.templates,
		Entries:        s.entries,
		Tasks:          s.tasks,
		Directory:      s.directory,
		Location:       e.Location,
	})
	e.logDiagnostics(res.Diagnostics)

	e.log.Debug("report built",
		slog.String("as_of", asOf.String()),
		slog.Int("rows", len(res.Rows)),
		slog.Int("skipped_templates", len(res.Diagnostics)),
	)

	return &Report{AsOf: asOf, Filter: filter, Rows: res.Rows, Diagnostics: res.Diagnostics}, nil
}

// =============================================================================
// WEEKLY TABLE
// =============================================================================

// BuildWeeklyTable returns the planning grid of the week containing weekStart.
func (e *Engine) BuildWeeklyTable(ctx context.Context, weekStart, today generic.TimePoint, departmentID generic.DepartmentID) (*WeeklyTable, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	week := generic.WorkWeek(weekStart)
	q := TaskQuery{DepartmentID: departmentID, From: week.Start, To: week.End}
	s, err := e.load(ctx, q, week.Start, week.End)
	if err != nil {
		return nil, err
	}

	table := BuildWeekly(WeeklyInput{
		WeekStart:    week.Start,
		DepartmentID: departmentID,
		Today:        today,
		Templates:    s.templates,
		Entries:      s.entries,
		Tasks:        s.tasks,
		Directory:    s.directory,
		Location:     e.Location,
	})
	e.logDiagnostics(table.Diagnostics)
	return &table, nil
}

func (e *Engine) logDiagnostics(diags []Diagnostic) {
	for _, d := range diags {
		e.log.Warn("skipping malformed template",
			slog.String("template_id", string(d.TemplateID)),
			slog.String("reason", d.Message),
		)
	}
}

// =============================================================================
// OCCURRENCE ACTIONS
// =============================================================================

// Action records what happened to one occurrence.
type Action struct {
	TemplateID generic.TemplateID
	Date       generic.TimePoint
	Status     recurrence.Status
	Comment    string
	ActedBy    generic.UserID
}

// RecordAction writes a ledger entry and returns the refreshed row.
// Last write wins. Everything the row needs is read before the write, so a
// failed call leaves the ledger untouched.
func (e *Engine) RecordAction(ctx context.Context, a Action, now time.Time) (*Row, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	t, err := e.Templates.GetTemplate(ctx, a.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if t == nil {
		return nil, &generic.NotFoundError{Kind: "template", ID: string(a.TemplateID)}
	}
	if !recurrence.IsOccurrence(*t, a.Date) {
		return nil, generic.NewValidationError("occurrence_date", "%s is not an occurrence of template %s", a.Date, a.TemplateID)
	}

	dir, err := e.Directory.LoadDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}

	acted := now.In(zoneOf(e.Location))
	entry := recurrence.Entry{
		TemplateID: a.TemplateID,
		Date:       a.Date,
		Status:     a.Status,
		Comment:    a.Comment,
		ActedAt:    &acted,
		ActedBy:    a.ActedBy,
	}
	if err := e.Ledger.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	e.log.Info("occurrence recorded",
		slog.String("template_id", string(a.TemplateID)),
		slog.String("date", a.Date.String()),
		slog.String("status", string(a.Status)),
	)

	row := OccurrenceRow(*t, a.Date, &entry, e.Day(now), dir)
	return &row, nil
}

// OccurrenceStatus is one resolved occurrence with its effective status.
type OccurrenceStatus struct {
	Date    generic.TimePoint
	Status  recurrence.Status
	Comment string
	ActedAt *time.Time
	ActedBy generic.UserID
}

// Occurrences previews a template's occurrences in [from, to] with their
// ledger status as seen on today.
func (e *Engine) Occurrences(ctx context.Context, id generic.TemplateID, from, to, today generic.TimePoint) ([]OccurrenceStatus, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if to.Before(from) {
		return nil, generic.NewValidationError("to", "must not be before from")
	}

	t, err := e.Templates.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if t == nil {
		return nil, &generic.NotFoundError{Kind: "template", ID: string(id)}
	}

	entries, err := e.Ledger.Entries(ctx, []generic.TemplateID{id}, from, to)
	if err != nil {
		return nil, err
	}

	dates := recurrence.Resolve(*t, from, to)
	out := make([]OccurrenceStatus, 0, len(dates))
	for _, d := range dates {
		entry := lookupEntry(entries, id, d)
		os := OccurrenceStatus{Date: d, Status: recurrence.EffectiveStatus(entry, d, today)}
		if entry != nil {
			os.Comment = entry.Comment
			os.ActedAt = entry.ActedAt
			os.ActedBy = entry.ActedBy
		}
		out = append(out, os)
	}
	return out, nil
}
