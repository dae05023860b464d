/*
Package generic provides the calendar and identity primitives shared by the
scheduling engine.

PURPOSE:
  Everything here is domain-agnostic: day-granular time points, inclusive
  windows, weekday arithmetic, typed identifiers and the centralized error
  types. The recurrence and report packages build on these without ever
  reading the wall clock themselves.

KEY CONCEPTS:
  - TimePoint: a calendar day (time.go)
  - Period: an inclusive window of days (period.go)
  - Typed IDs: prevent mixing template, task, user and department ids
  - Errors: ValidationError / NotFoundError (errors.go)

SEE ALSO:
  - recurrence/resolver.go: consumes the calendar utilities
  - report/aggregate.go: consumes windows and aging arithmetic
*/
package generic

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TemplateID string
type TaskID string
type UserID string
type DepartmentID string
type ProjectID string

// Priority orders rows inside every report view.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool { return p == PriorityNormal || p == PriorityHigh }

// DayPeriod is the half of the working day a row belongs to.
type DayPeriod string

const (
	AM DayPeriod = "AM"
	PM DayPeriod = "PM"
)

func (p DayPeriod) Valid() bool { return p == AM || p == PM }

// DayPeriods lists the slots of a working day in display order.
var DayPeriods = []DayPeriod{AM, PM}
