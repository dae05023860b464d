/*
types.go - Recurrence templates

PURPOSE:
  A Template is a stored rule describing how often a task-like item repeats.
  It is the only input of the resolver besides the requested window.

SCOPE:
  Scope is a sealed sum type. Only the department variant carries a
  department id, so "department scope without a department" cannot be built
  outside of decoding (and decoding reports it as a validation problem).

DAY OF MONTH:
  DayOfMonth replaces the legacy integer with sentinels:
     1..31  ExplicitDay
     0      LastDayOfMonth
    -1      FirstWorkingDay
  The integers survive only in the wire and storage encodings (Int / DayOfMonthFromInt).

SEE ALSO:
  - resolver.go: Turns a Template plus a window into occurrence dates
  - validate.go: Write-time validation
  - factory/template.go: JSON encoding
*/
package recurrence

import (
	"fmt"
	"time"

	"github.com/warp/recurring-engine/generic"
)

// =============================================================================
// FREQUENCY
// =============================================================================

type Frequency string

const (
	Daily      Frequency = "daily"
	Weekly     Frequency = "weekly"
	Monthly    Frequency = "monthly"
	Quarterly  Frequency = "3_months"
	SemiAnnual Frequency = "6_months"
	Yearly     Frequency = "yearly"
)

// Frequencies lists every frequency in rank order.
var Frequencies = []Frequency{Daily, Weekly, Monthly, Quarterly, SemiAnnual, Yearly}

// Rank orders frequencies from most to least frequent; -1 if unknown.
func (f Frequency) Rank() int {
	for i, candidate := range Frequencies {
		if candidate == f {
			return i
		}
	}
	return -1
}

func (f Frequency) Valid() bool { return f.Rank() >= 0 }

// Code is the short label used in report subtypes.
func (f Frequency) Code() string {
	switch f {
	case Daily:
		return "D"
	case Weekly:
		return "W"
	case Monthly:
		return "M"
	case Quarterly:
		return "3M"
	case SemiAnnual:
		return "6M"
	case Yearly:
		return "Y"
	default:
		return "?"
	}
}

// needsDayOfMonth is true for the month-based frequencies.
func (f Frequency) needsDayOfMonth() bool {
	return f == Monthly || f == Quarterly || f == SemiAnnual || f == Yearly
}

// step is the month stride between candidate months.
func (f Frequency) step() int {
	switch f {
	case Quarterly:
		return 3
	case SemiAnnual:
		return 6
	case Yearly:
		return 12
	default:
		return 1
	}
}

// =============================================================================
// WEEKDAY - Monday-based working-day codes
// =============================================================================

// Weekday is 0 (Monday) through 4 (Friday). Weekends cannot be selected.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

func (w Weekday) Valid() bool { return w >= Monday && w <= Friday }

func (w Weekday) String() string {
	names := [...]string{"MON", "TUE", "WED", "THU", "FRI"}
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return names[w]
}

// =============================================================================
// SCOPE - Sealed sum type
// =============================================================================

type ScopeKind string

const (
	ScopeKindAll        ScopeKind = "ALL"
	ScopeKindGA         ScopeKind = "GA"
	ScopeKindDepartment ScopeKind = "DEPARTMENT"
)

// Scope says which departments a template applies to.
type Scope interface {
	Kind() ScopeKind
	sealed()
}

// ScopeAll applies to every department.
type ScopeAll struct{}

// ScopeGA is the fixed administrative scope.
type ScopeGA struct{}

// ScopeDepartment ties the template to one department.
type ScopeDepartment struct {
	DepartmentID generic.DepartmentID
}

func (ScopeAll) Kind() ScopeKind        { return ScopeKindAll }
func (ScopeGA) Kind() ScopeKind         { return ScopeKindGA }
func (ScopeDepartment) Kind() ScopeKind { return ScopeKindDepartment }

func (ScopeAll) sealed()        {}
func (ScopeGA) sealed()         {}
func (ScopeDepartment) sealed() {}

// DepartmentOf returns the department id of a department scope.
func DepartmentOf(s Scope) (generic.DepartmentID, bool) {
	d, ok := s.(ScopeDepartment)
	if !ok {
		return "", false
	}
	return d.DepartmentID, true
}

// =============================================================================
// DAY OF MONTH - Explicit enum instead of sentinel integers
// =============================================================================

type dayKind int

const (
	dayUnset dayKind = iota
	dayExplicit
	dayLast
	dayFirstWorking
)

// DayOfMonth is the day a month-based template lands on.
// The zero value means "not set".
type DayOfMonth struct {
	kind dayKind
	day  int
}

// ExplicitDay is a literal calendar day 1..31.
func ExplicitDay(day int) DayOfMonth { return DayOfMonth{kind: dayExplicit, day: day} }

// LastDay is the last calendar day of the month.
func LastDay() DayOfMonth { return DayOfMonth{kind: dayLast} }

// FirstWorkingDayOfMonth is the first Monday..Friday of the month.
func FirstWorkingDayOfMonth() DayOfMonth { return DayOfMonth{kind: dayFirstWorking} }

// Legacy sentinel encodings.
const (
	SentinelLastDay         = 0
	SentinelFirstWorkingDay = -1
)

// DayOfMonthFromInt decodes the storage/wire integer.
func DayOfMonthFromInt(n int) (DayOfMonth, error) {
	switch {
	case n == SentinelLastDay:
		return LastDay(), nil
	case n == SentinelFirstWorkingDay:
		return FirstWorkingDayOfMonth(), nil
	case n >= 1 && n <= 31:
		return ExplicitDay(n), nil
	default:
		return DayOfMonth{}, fmt.Errorf("day_of_month %d outside {-1, 0, 1..31}", n)
	}
}

// Int encodes the day for storage; ok is false when unset.
func (d DayOfMonth) Int() (n int, ok bool) {
	switch d.kind {
	case dayExplicit:
		return d.day, true
	case dayLast:
		return SentinelLastDay, true
	case dayFirstWorking:
		return SentinelFirstWorkingDay, true
	default:
		return 0, false
	}
}

func (d DayOfMonth) IsSet() bool             { return d.kind != dayUnset }
func (d DayOfMonth) IsLastDay() bool         { return d.kind == dayLast }
func (d DayOfMonth) IsFirstWorkingDay() bool { return d.kind == dayFirstWorking }

// Explicit returns the literal day of an ExplicitDay.
func (d DayOfMonth) Explicit() (int, bool) {
	return d.day, d.kind == dayExplicit
}

func (d DayOfMonth) valid() bool {
	switch d.kind {
	case dayExplicit:
		return d.day >= 1 && d.day <= 31
	case dayLast, dayFirstWorking:
		return true
	default:
		return false
	}
}

// In resolves the day inside a concrete month, before any weekend shift.
// Explicit days past the month's end clamp to its last day.
func (d DayOfMonth) In(year int, month time.Month) generic.TimePoint {
	switch d.kind {
	case dayLast:
		return generic.LastDayOfMonth(year, month)
	case dayFirstWorking:
		return generic.FirstWorkingDay(year, month)
	case dayExplicit:
		if last := generic.DaysInMonth(year, month); d.day > last {
			return generic.NewTimePoint(year, month, last)
		}
		return generic.NewTimePoint(year, month, d.day)
	default:
		panic("recurrence: day of month not set")
	}
}

func (d DayOfMonth) String() string {
	switch d.kind {
	case dayExplicit:
		return fmt.Sprintf("day %d", d.day)
	case dayLast:
		return "last day"
	case dayFirstWorking:
		return "first working day"
	default:
		return "unset"
	}
}

// =============================================================================
// TEMPLATE
// =============================================================================

// Template is a recurrence rule. Validate it with Validate before storing;
// the resolver assumes validated input.
type Template struct {
	ID          generic.TemplateID
	Title       string
	Description string

	Scope     Scope
	Assignees []generic.UserID

	Frequency   Frequency
	DaysOfWeek  []Weekday  // weekly only
	DayOfMonth  DayOfMonth // month-based frequencies only
	MonthOfYear int        // 0 = unset, else 1..12

	Priority     generic.Priority
	FinishPeriod generic.DayPeriod // "" = unset

	IsActive      bool
	DeactivatedAt *generic.TimePoint

	InternalNotes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasAssignee reports whether user owns the template.
func (t *Template) HasAssignee(user generic.UserID) bool {
	for _, a := range t.Assignees {
		if a == user {
			return true
		}
	}
	return false
}

// Deactivate stops future occurrences after day, keeping history.
func (t *Template) Deactivate(day generic.TimePoint) {
	t.IsActive = false
	d := day
	t.DeactivatedAt = &d
}

// Occurrence is one computed instance of a Template. Never persisted.
type Occurrence struct {
	TemplateID generic.TemplateID
	Date       generic.TimePoint
}

// Key is the ledger key of the occurrence.
func (o Occurrence) Key() Key {
	return NewKey(o.TemplateID, o.Date)
}

// Occurrences resolves the template into Occurrence values.
func (t *Template) Occurrences(from, to generic.TimePoint) []Occurrence {
	dates := Resolve(*t, from, to)
	out := make([]Occurrence, len(dates))
	for i, d := range dates {
		out[i] = Occurrence{TemplateID: t.ID, Date: d}
	}
	return out
}
