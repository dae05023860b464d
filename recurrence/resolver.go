/*
resolver.go - Template + window -> occurrence dates

PURPOSE:
  Resolve is the recurrence engine. It is a pure function of the template
  and the window: no wall clock, no store, no side effects. Calling it twice
  with the same input yields the same output.

ALGORITHM:
  daily:        every date of the window
  weekly:       every date whose Monday-based weekday is selected
  month-based:  for each candidate month, resolve the day of month, shift a
                weekend back to Friday, keep it if inside the window

  Candidate months run from the window's start month to the month after the
  window's end: a shifted date can move back across a month boundary (e.g. a
  Saturday the 1st becomes the last Friday of the previous month).

CANDIDATE MONTHS:
  monthly     every month, or only MonthOfYear when set
  3_months    months at 0 mod 3 from the anchor
  6_months    months at 0 mod 6 from the anchor
  yearly      MonthOfYear only

  The anchor is MonthOfYear when set, otherwise the first month of the
  quarter/half containing the window start.

INACTIVE TEMPLATES:
  Occurrences after DeactivatedAt are never produced. An inactive template
  with no deactivation date produces nothing.

SEE ALSO:
  - generic/time.go: Calendar utilities
  - ledger.go: Status of each resolved occurrence
*/
package recurrence

import (
	"sort"
	"time"

	"github.com/warp/recurring-engine/generic"
)

// Resolve returns the ascending, distinct occurrence dates of t inside
// [from, to].
func Resolve(t Template, from, to generic.TimePoint) []generic.TimePoint {
	window := generic.Period{Start: from, End: to}
	if !t.IsActive {
		if t.DeactivatedAt == nil {
			return nil
		}
		window = window.Intersect(generic.Period{Start: window.Start, End: *t.DeactivatedAt})
	}
	if window.IsEmpty() {
		return nil
	}

	switch t.Frequency {
	case Daily:
		return window.Days()
	case Weekly:
		return weekly(t.DaysOfWeek, window)
	case Monthly, Quarterly, SemiAnnual, Yearly:
		return monthBased(t, window)
	default:
		return nil
	}
}

func weekly(days []Weekday, window generic.Period) []generic.TimePoint {
	selected := make(map[int]bool, len(days))
	for _, d := range days {
		selected[int(d)] = true
	}
	var out []generic.TimePoint
	for _, day := range window.Days() {
		if selected[generic.MondayBasedWeekday(day)] {
			out = append(out, day)
		}
	}
	return out
}

func monthBased(t Template, window generic.Period) []generic.TimePoint {
	if !t.DayOfMonth.valid() {
		return nil
	}
	seen := make(map[time.Time]bool)
	var out []generic.TimePoint

	first := generic.StartOfMonth(window.Start.Year(), window.Start.Month())
	last := generic.StartOfMonth(window.End.Year(), window.End.Month()).AddMonths(1)

	for month := first; month.BeforeOrEqual(last); month = month.AddMonths(1) {
		if !monthSelected(t, month, window.Start) {
			continue
		}
		date := generic.ShiftIfWeekend(t.DayOfMonth.In(month.Year(), month.Month()))
		if !window.Contains(date) || seen[date.Time] {
			continue
		}
		seen[date.Time] = true
		out = append(out, date)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// monthSelected decides whether month is a candidate month for t.
func monthSelected(t Template, month, windowStart generic.TimePoint) bool {
	switch t.Frequency {
	case Monthly:
		return t.MonthOfYear == 0 || int(month.Month()) == t.MonthOfYear
	case Yearly:
		return int(month.Month()) == t.MonthOfYear
	case Quarterly, SemiAnnual:
		step := t.Frequency.step()
		anchor := t.MonthOfYear
		if anchor == 0 {
			anchor = (int(windowStart.Month())-1)/step*step + 1
		}
		offset := int(month.Month()) - anchor
		return ((offset%step)+step)%step == 0
	default:
		return false
	}
}

// NextOccurrence returns the first occurrence on or after from, searching at
// most horizon days ahead.
func NextOccurrence(t Template, from generic.TimePoint, horizon int) (generic.TimePoint, bool) {
	dates := Resolve(t, from, from.AddDays(horizon))
	if len(dates) == 0 {
		return generic.TimePoint{}, false
	}
	return dates[0], true
}

// IsOccurrence reports whether day is one of t's occurrence dates.
func IsOccurrence(t Template, day generic.TimePoint) bool {
	return len(Resolve(t, day, day)) == 1
}
