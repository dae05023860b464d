/*
Package report merges resolved occurrences and ad-hoc tasks into the ordered
rows every list view shows.

PURPOSE:
  The aggregator is the last pure step before presentation. It joins template
  occurrences with their ledger status, pulls in due ad-hoc tasks, removes
  duplicates, derives the display fields and applies the canonical sort.
  The weekly builder reuses the same row primitives to bucket rows by
  department, weekday, AM/PM and user.

EXTERNAL COLLABORATORS:
  Ad-hoc tasks, users, departments and projects belong to the surrounding
  application. This package only reads them through TaskSource and
  DirectorySource.

KEY TYPES:
  Task        external ad-hoc task (read-only)
  Directory   departments, users, projects indexed for lookup
  Row         one derived report line, never persisted
  Filter      optional department / user restriction

SEE ALSO:
  - aggregate.go: Compose (pure) and the daily report
  - weekly.go: Weekly table builder
  - engine.go: Boundary I/O and occurrence actions
*/
package report

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
)

// =============================================================================
// AD-HOC TASKS (external, read-only)
// =============================================================================

type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task is an ad-hoc task owned by the surrounding application.
type Task struct {
	ID          generic.TaskID
	Title       string
	Description string
	Status      TaskStatus
	Priority    generic.Priority

	FinishPeriod generic.DayPeriod // "" = derive from DueAt
	StartAt      *time.Time
	DueAt        *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time

	AssignedTo   generic.UserID
	Assignees    []generic.UserID
	ProjectID    generic.ProjectID
	DepartmentID generic.DepartmentID

	IsBllok      bool
	Is1HReport   bool
	IsR1         bool
	IsPersonal   bool
	OriginNoteID string

	DailyProducts *decimal.Decimal
	Comment       string
	Archived      bool
}

// Owners merges the assignee list and assigned_to without duplicates.
func (t Task) Owners() []generic.UserID {
	seen := make(map[generic.UserID]bool, len(t.Assignees)+1)
	var out []generic.UserID
	add := func(u generic.UserID) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	add(t.AssignedTo)
	for _, u := range t.Assignees {
		add(u)
	}
	return out
}

// DueDate is the calendar day the task is due, falling back to its start.
func (t Task) DueDate() *generic.TimePoint {
	switch {
	case t.DueAt != nil:
		d := generic.DateOf(*t.DueAt)
		return &d
	case t.StartAt != nil:
		d := generic.DateOf(*t.StartAt)
		return &d
	default:
		return nil
	}
}

// Span is the window from start date to due date. ok is false for undated tasks.
func (t Task) Span() (generic.Period, bool) {
	due := t.DueDate()
	if due == nil {
		return generic.Period{}, false
	}
	start := *due
	if t.StartAt != nil {
		if s := generic.DateOf(*t.StartAt); s.Before(start) {
			start = s
		}
	}
	return generic.Period{Start: start, End: *due}, true
}

// Resolved reports a task that needs no further action.
func (t Task) Resolved() bool {
	return t.Status == TaskDone || t.Status == TaskCancelled
}

// =============================================================================
// DIRECTORY (external, read-only)
// =============================================================================

type Department struct {
	ID   generic.DepartmentID
	Code string
	Name string
}

type User struct {
	ID           generic.UserID
	Name         string
	DepartmentID generic.DepartmentID
}

type Project struct {
	ID           generic.ProjectID
	Name         string
	DepartmentID generic.DepartmentID
	Active       bool
}

// Directory indexes the external records a report needs.
type Directory struct {
	departments map[generic.DepartmentID]Department
	users       map[generic.UserID]User
	projects    map[generic.ProjectID]Project
}

func NewDirectory(departments []Department, users []User, projects []Project) *Directory {
	d := &Directory{
		departments: make(map[generic.DepartmentID]Department, len(departments)),
		users:       make(map[generic.UserID]User, len(users)),
		projects:    make(map[generic.ProjectID]Project, len(projects)),
	}
	for _, dep := range departments {
		d.departments[dep.ID] = dep
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	for _, p := range projects {
		d.projects[p.ID] = p
	}
	return d
}

func (d *Directory) Department(id generic.DepartmentID) (Department, bool) {
	dep, ok := d.departments[id]
	return dep, ok
}

func (d *Directory) User(id generic.UserID) (User, bool) {
	u, ok := d.users[id]
	return u, ok
}

func (d *Directory) Project(id generic.ProjectID) (Project, bool) {
	p, ok := d.projects[id]
	return p, ok
}

// HomeDepartment satisfies recurrence.DepartmentLookup.
func (d *Directory) HomeDepartment(id generic.UserID) (generic.DepartmentID, bool) {
	u, ok := d.users[id]
	if !ok {
		return "", false
	}
	return u.DepartmentID, true
}

// Departments returns all departments ordered by code.
func (d *Directory) Departments() []Department {
	out := make([]Department, 0, len(d.departments))
	for _, dep := range d.departments {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Users returns all users ordered by name.
func (d *Directory) Users() []User {
	out := make([]User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// departmentCode returns the display code of a department, falling back to
// its name, then to the raw id when the department is unknown.
func (d *Directory) departmentCode(id generic.DepartmentID) string {
	if dep, ok := d.departments[id]; ok {
		if dep.Code != "" {
			return dep.Code
		}
		return dep.Name
	}
	return string(id)
}

// =============================================================================
// SOURCES - Boundary interfaces implemented by the stores
// =============================================================================

// TaskQuery narrows the tasks a source returns. Sources may return a superset;
// the aggregator applies the exact rules.
type TaskQuery struct {
	DepartmentID generic.DepartmentID
	UserID       generic.UserID
	// From/To select tasks whose start..due span touches the window or that
	// were completed inside it.
	From generic.TimePoint
	To   generic.TimePoint
	// IncludeOverdue also selects unresolved tasks due before From.
	IncludeOverdue bool
}

type TaskSource interface {
	ListTasks(ctx context.Context, q TaskQuery) ([]Task, error)
}

type DirectorySource interface {
	LoadDirectory(ctx context.Context) (*Directory, error)
}

// =============================================================================
// FILTER
// =============================================================================

// Filter restricts a report. Zero values mean "no restriction".
type Filter struct {
	DepartmentID generic.DepartmentID
	UserID       generic.UserID
}

// =============================================================================
// ROW
// =============================================================================

// Type labels.
const (
	TypeProject = "PRJK"
	TypeFast    = "FT"
	TypeSystem  = "SYS"
)

// Row is one derived report line. It is rebuilt on every request.
type Row struct {
	TypeLabel       string
	Subtype         string
	Period          generic.DayPeriod
	DepartmentLabel string
	Title           string
	Description     string
	EffectiveStatus string
	AgingLabel      string
	Comment         string
	SourceKey       string

	Date       generic.TimePoint
	Priority   generic.Priority
	Frequency  recurrence.Frequency // SYS rows only
	Inactive   bool
	CreatedAt  time.Time
	TemplateID generic.TemplateID
	TaskID     generic.TaskID
	ProjectID  generic.ProjectID
	UserIDs    []generic.UserID

	DailyProducts *decimal.Decimal
}

// Diagnostic explains a template the aggregator skipped.
type Diagnostic struct {
	TemplateID generic.TemplateID
	Message    string
}

// Report is the daily report of one request.
type Report struct {
	AsOf        generic.TimePoint
	Filter      Filter
	Rows        []Row
	Diagnostics []Diagnostic
}
