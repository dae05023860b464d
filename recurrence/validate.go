package recurrence

import (
	"strings"

	"github.com/warp/recurring-engine/generic"
)

// DepartmentLookup returns a user's home department.
type DepartmentLookup func(generic.UserID) (generic.DepartmentID, bool)

// Validate checks a template at write time and reports every problem at once.
// homeDepartment may be nil, in which case the department-scope assignee rule
// is not checked.
func Validate(t Template, homeDepartment DepartmentLookup) error {
	v := &generic.ValidationError{}

	if strings.TrimSpace(t.Title) == "" {
		v.Add("title", "is required")
	}

	switch s := t.Scope.(type) {
	case nil:
		v.Add("scope", "is required")
	case ScopeDepartment:
		if s.DepartmentID == "" {
			v.Add("department_id", "is required for DEPARTMENT scope")
		} else if homeDepartment != nil {
			for _, user := range t.Assignees {
				home, ok := homeDepartment(user)
				if !ok {
					v.Add("assignees", "unknown user %q", user)
					continue
				}
				if home != s.DepartmentID {
					v.Add("assignees", "user %q belongs to department %q, not %q", user, home, s.DepartmentID)
				}
			}
		}
	}

	if !t.Frequency.Valid() {
		v.Add("frequency", "unknown frequency %q", t.Frequency)
	}

	if t.Frequency == Weekly {
		if len(t.DaysOfWeek) == 0 {
			v.Add("days_of_week", "at least one weekday is required for weekly templates")
		}
		for _, d := range t.DaysOfWeek {
			if !d.Valid() {
				v.Add("days_of_week", "weekday %d outside MON..FRI (0..4)", int(d))
			}
		}
	} else if len(t.DaysOfWeek) > 0 {
		v.Add("days_of_week", "only allowed for weekly templates")
	}

	if t.Frequency.needsDayOfMonth() {
		if !t.DayOfMonth.IsSet() {
			v.Add("day_of_month", "is required for %s templates", t.Frequency)
		} else if !t.DayOfMonth.valid() {
			n, _ := t.DayOfMonth.Int()
			v.Add("day_of_month", "%d outside {-1, 0, 1..31}", n)
		}
	}

	if t.MonthOfYear != 0 && (t.MonthOfYear < 1 || t.MonthOfYear > 12) {
		v.Add("month_of_year", "%d outside 1..12", t.MonthOfYear)
	}
	if t.Frequency == Yearly && t.MonthOfYear == 0 {
		v.Add("month_of_year", "is required for yearly templates")
	}

	if !t.Priority.Valid() {
		v.Add("priority", "unknown priority %q", t.Priority)
	}
	if t.FinishPeriod != "" && !t.FinishPeriod.Valid() {
		v.Add("finish_period", "must be AM or PM")
	}

	return v.OrNil()
}
