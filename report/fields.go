package report

import (
	"strconv"
	"time"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
)

// Subtype labels of ad-hoc rows, highest priority first.
const (
	SubtypeBllok    = "BLLOK"
	Subtype1H       = "1H-report"
	SubtypeR1       = "R1"
	SubtypePersonal = "PERSONAL"
	SubtypeGA       = "GA"
	SubtypeNormal   = "NORMAL"
)

// DepartmentNone labels rows whose department cannot be resolved.
const DepartmentNone = "-"

// Aging labels.
const (
	AgingToday     = "T"
	AgingYesterday = "Y"
	AgingNone      = "-"
)

// TaskSubtype maps the subtype flags to a single label.
func TaskSubtype(t Task) string {
	switch {
	case t.IsBllok:
		return SubtypeBllok
	case t.Is1HReport:
		return Subtype1H
	case t.IsR1:
		return SubtypeR1
	case t.IsPersonal:
		return SubtypePersonal
	case t.OriginNoteID != "":
		return SubtypeGA
	default:
		return SubtypeNormal
	}
}

// TaskTypeLabel is PRJK for project work, FT otherwise.
func TaskTypeLabel(t Task) string {
	if t.ProjectID != "" {
		return TypeProject
	}
	return TypeFast
}

// PeriodOf returns the explicit period if set, otherwise derives it from the
// timestamp's hour. No timestamp means AM.
func PeriodOf(explicit generic.DayPeriod, ts *time.Time) generic.DayPeriod {
	if explicit.Valid() {
		return explicit
	}
	if ts != nil && ts.Hour() >= 12 {
		return generic.PM
	}
	return generic.AM
}

// AgingLabel is T for today (or completed today), Y for yesterday, the
// day count for older dates, and "-" for future or undated rows.
func AgingLabel(asOf generic.TimePoint, base *generic.TimePoint, completedAt *time.Time) string {
	if completedAt != nil {
		done := generic.DateOf(*completedAt)
		if done.Equal(asOf) {
			return AgingToday
		}
		base = &done
	}
	if base == nil {
		return AgingNone
	}
	days := generic.DaysBetween(*base, asOf)
	switch {
	case days == 0:
		return AgingToday
	case days == 1:
		return AgingYesterday
	case days > 1:
		return strconv.Itoa(days)
	default:
		return AgingNone
	}
}

// ScopeLabel is the department label of a template row.
func ScopeLabel(scope recurrence.Scope, dir *Directory) string {
	switch s := scope.(type) {
	case recurrence.ScopeGA:
		return "GA"
	case recurrence.ScopeAll:
		return "ALL"
	case recurrence.ScopeDepartment:
		return dir.departmentCode(s.DepartmentID)
	default:
		return DepartmentNone
	}
}

// taskDepartment resolves the department a task is reported under: its own,
// then its project's, then its first owner's.
func taskDepartment(t Task, dir *Directory) (generic.DepartmentID, bool) {
	if t.DepartmentID != "" {
		return t.DepartmentID, true
	}
	if p, ok := dir.Project(t.ProjectID); ok && p.DepartmentID != "" {
		return p.DepartmentID, true
	}
	for _, owner := range t.Owners() {
		if dep, ok := dir.HomeDepartment(owner); ok {
			return dep, true
		}
	}
	return "", false
}

// =============================================================================
// ROW BUILDERS
// =============================================================================

// SourceKey of an occurrence row.
func OccurrenceKey(templateID generic.TemplateID, date generic.TimePoint) string {
	return "occ:" + string(templateID) + ":" + date.String()
}

// SourceKey of a task row.
func TaskKey(id generic.TaskID) string {
	return "task:" + string(id)
}

// OccurrenceRow derives the row of one occurrence. entry may be nil.
func OccurrenceRow(t recurrence.Template, date generic.TimePoint, entry *recurrence.Entry, asOf generic.TimePoint, dir *Directory) Row {
	status := recurrence.EffectiveStatus(entry, date, asOf)

	var completedAt *time.Time
	var comment string
	if entry != nil {
		comment = entry.Comment
		if entry.Status == recurrence.StatusDone {
			completedAt = entry.ActedAt
		}
	}

	priority := t.Priority
	if priority == "" {
		priority = generic.PriorityNormal
	}

	return Row{
		TypeLabel:       TypeSystem,
		Subtype:         t.Frequency.Code(),
		Period:          PeriodOf(t.FinishPeriod, nil),
		DepartmentLabel: ScopeLabel(t.Scope, dir),
		Title:           t.Title,
		Description:     t.Description,
		EffectiveStatus: string(status),
		AgingLabel:      AgingLabel(asOf, &date, completedAt),
		Comment:         comment,
		SourceKey:       OccurrenceKey(t.ID, date),
		Date:            date,
		Priority:        priority,
		Frequency:       t.Frequency,
		Inactive:        !t.IsActive,
		CreatedAt:       t.CreatedAt,
		TemplateID:      t.ID,
		UserIDs:         append([]generic.UserID(nil), t.Assignees...),
	}
}

// TaskRow derives the row of one ad-hoc task.
func TaskRow(t Task, asOf generic.TimePoint, dir *Directory) Row {
	var completedAt *time.Time
	if t.Status == TaskDone {
		completedAt = t.CompletedAt
	}

	label := DepartmentNone
	if dep, ok := taskDepartment(t, dir); ok {
		label = dir.departmentCode(dep)
	}

	inactive := false
	if p, ok := dir.Project(t.ProjectID); ok && !p.Active {
		inactive = true
	}

	timestamp := t.DueAt
	if timestamp == nil {
		timestamp = t.StartAt
	}

	priority := t.Priority
	if priority == "" {
		priority = generic.PriorityNormal
	}

	var date generic.TimePoint
	due := t.DueDate()
	if due != nil {
		date = *due
	}

	return Row{
		TypeLabel:       TaskTypeLabel(t),
		Subtype:         TaskSubtype(t),
		Period:          PeriodOf(t.FinishPeriod, timestamp),
		DepartmentLabel: label,
		Title:           t.Title,
		Description:     t.Description,
		EffectiveStatus: string(t.Status),
		AgingLabel:      AgingLabel(asOf, due, completedAt),
		Comment:         t.Comment,
		SourceKey:       TaskKey(t.ID),
		Date:            date,
		Priority:        priority,
		Inactive:        inactive,
		CreatedAt:       t.CreatedAt,
		TaskID:          t.ID,
		ProjectID:       t.ProjectID,
		UserIDs:         t.Owners(),
		DailyProducts:   t.DailyProducts,
	}
}
