package generic

// =============================================================================
// PERIOD - Inclusive date window
// =============================================================================

// Period is the closed window [Start, End] every resolve and report query is
// asked for. A Period whose End is before its Start is empty.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod validates the window ordering.
func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// SingleDay is the window containing only day.
func SingleDay(day TimePoint) Period {
	return Period{Start: day, End: day}
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// IsEmpty reports an inverted window.
func (p Period) IsEmpty() bool {
	return p.End.Before(p.Start)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Len is the number of days in the window.
func (p Period) Len() int {
	if p.IsEmpty() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Intersect returns the overlap of two windows, possibly empty.
func (p Period) Intersect(other Period) Period {
	out := p
	if other.Start.After(out.Start) {
		out.Start = other.Start
	}
	if other.End.Before(out.End) {
		out.End = other.End
	}
	return out
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// WorkWeek returns Monday..Friday of the week containing day.
func WorkWeek(day TimePoint) Period {
	monday := StartOfWeek(day)
	return Period{Start: monday, End: monday.AddDays(4)}
}
