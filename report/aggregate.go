/*
aggregate.go - Daily report composition

PURPOSE:
  Compose is the pure heart of the daily report. Given everything already
  loaded from the stores it returns the ordered, de-duplicated rows.

SOURCES:
  1. Template occurrences due on asOf.
  2. Template occurrences in [asOf - horizon, asOf - 1] that are still
     unresolved, or were acted on asOf. The scan never starts before the
     template's creation day.
  3. Ad-hoc tasks due on or before asOf that are unresolved, plus tasks
     completed on asOf.

  Rows are keyed by SourceKey; the first source producing a key wins.
  Timestamps are read in Input.Location: that zone decides which day an
  action, a completion or a due time falls on.
  A template that fails structural validation is skipped and reported as a
  Diagnostic. It never fails the whole report.

FILTERS:
  Department: DEPARTMENT templates match on id, ALL templates always match,
              GA templates match when an assignee's home department matches.
              Tasks match on their resolved department or an owner's home
              department.
  User:       the user must be an assignee (templates) or an owner (tasks).

SEE ALSO:
  - fields.go: Row derivation
  - sort.go: Canonical ordering
  - engine.go: Loads the inputs and calls Compose
*/
package report

import (
	"time"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
)

// DefaultOverdueHorizon is the look-back window, in days, for unresolved
// occurrences.
const DefaultOverdueHorizon = 30

// Input is everything Compose needs. It performs no I/O.
type Input struct {
	AsOf           generic.TimePoint
	OverdueHorizon int
	Filter         Filter
	Templates      []recurrence.Template
	Entries        map[recurrence.Key]recurrence.Entry
	Tasks          []Task
	Directory      *Directory
	// Location is the day-boundary zone. Nil means UTC.
	Location *time.Location
}

// Result is the composed row list plus skipped-template diagnostics.
type Result struct {
	Rows        []Row
	Diagnostics []Diagnostic
}

// Compose builds the daily report rows.
func Compose(in Input) Result {
	dir := in.Directory
	if dir == nil {
		dir = NewDirectory(nil, nil, nil)
	}
	asOf := in.AsOf
	entries := entriesInZone(in.Entries, in.Location)

	var res Result
	seen := make(map[string]bool)
	add := func(r Row) {
		if seen[r.SourceKey] {
			return
		}
		seen[r.SourceKey] = true
		res.Rows = append(res.Rows, r)
	}

	for _, t := range in.Templates {
		if err := recurrence.Validate(t, nil); err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{TemplateID: t.ID, Message: err.Error()})
			continue
		}
		if !TemplateMatches(t, in.Filter, dir) {
			continue
		}

		for _, date := range recurrence.Resolve(t, asOf, asOf) {
			add(OccurrenceRow(t, date, lookupEntry(entries, t.ID, date), asOf, dir))
		}

		if in.OverdueHorizon <= 0 {
			continue
		}
		from := asOf.AddDays(-in.OverdueHorizon)
		if !t.CreatedAt.IsZero() {
			if created := generic.DateIn(t.CreatedAt, in.Location); created.After(from) {
				from = created
			}
		}
		for _, date := range recurrence.Resolve(t, from, asOf.AddDays(-1)) {
			entry := lookupEntry(entries, t.ID, date)
			if !keepOverdue(entry, date, asOf) {
				continue
			}
			add(OccurrenceRow(t, date, entry, asOf, dir))
		}
	}

	for _, task := range tasksInZone(in.Tasks, in.Location) {
		if !TaskMatches(task, in.Filter, dir) || !taskDueOn(task, asOf) {
			continue
		}
		add(TaskRow(task, asOf, dir))
	}

	SortRows(res.Rows)
	return res
}

func lookupEntry(entries map[recurrence.Key]recurrence.Entry, id generic.TemplateID, date generic.TimePoint) *recurrence.Entry {
	e, ok := entries[recurrence.NewKey(id, date)]
	if !ok {
		return nil
	}
	return &e
}

// keepOverdue keeps past occurrences that still need attention, and those
// acted on today so the day's work stays visible.
func keepOverdue(entry *recurrence.Entry, date, asOf generic.TimePoint) bool {
	status := recurrence.EffectiveStatus(entry, date, asOf)
	if status == recurrence.StatusOpen || status == recurrence.StatusNotDone {
		return true
	}
	return entry != nil && entry.ActedAt != nil && generic.DateOf(*entry.ActedAt).Equal(asOf)
}

// taskDueOn selects unresolved tasks due on or before asOf and tasks
// completed on asOf.
func taskDueOn(t Task, asOf generic.TimePoint) bool {
	if t.Archived {
		return false
	}
	switch t.Status {
	case TaskCancelled:
		return false
	case TaskDone:
		return t.CompletedAt != nil && generic.DateOf(*t.CompletedAt).Equal(asOf)
	}
	due := t.DueDate()
	return due != nil && due.BeforeOrEqual(asOf)
}

// =============================================================================
// FILTERS
// =============================================================================

// TemplateMatches applies the department and user filters to a template.
func TemplateMatches(t recurrence.Template, f Filter, dir *Directory) bool {
	if f.UserID != "" && !t.HasAssignee(f.UserID) {
		return false
	}
	if f.DepartmentID == "" {
		return true
	}
	switch s := t.Scope.(type) {
	case recurrence.ScopeAll:
		return true
	case recurrence.ScopeDepartment:
		return s.DepartmentID == f.DepartmentID
	case recurrence.ScopeGA:
		for _, user := range t.Assignees {
			if home, ok := dir.HomeDepartment(user); ok && home == f.DepartmentID {
				return true
			}
		}
	}
	return false
}

// TaskMatches applies the department and user filters to a task.
func TaskMatches(t Task, f Filter, dir *Directory) bool {
	owners := t.Owners()
	if f.UserID != "" && !containsUser(owners, f.UserID) {
		return false
	}
	if f.DepartmentID == "" {
		return true
	}
	if dep, ok := taskDepartment(t, dir); ok && dep == f.DepartmentID {
		return true
	}
	for _, owner := range owners {
		if home, ok := dir.HomeDepartment(owner); ok && home == f.DepartmentID {
			return true
		}
	}
	return false
}

func containsUser(users []generic.UserID, u generic.UserID) bool {
	for _, candidate := range users {
		if candidate == u {
			return true
		}
	}
	return false
}
