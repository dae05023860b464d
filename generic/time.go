package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - Calendar-day abstraction used by every scheduling decision
// =============================================================================

type TimePoint struct {
	Time        time.Time
	Granularity Granularity
}

type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityHour
	GranularityMinute
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Granularity: GranularityDay}
}

func NewTimePointWithHour(year int, month time.Month, day, hour int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, hour, 0, 0, 0, time.UTC), Granularity: GranularityHour}
}

// DateOf truncates a timestamp to its calendar day. The timestamp's own
// location decides which day it is.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string into a day TimePoint.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// DateIn is the calendar day of t as seen in loc. A nil loc means UTC.
func DateIn(t time.Time, loc *time.Location) TimePoint {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(t.In(loc))
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	switch tp.Granularity {
	case GranularityDay:
		return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityHour:
		return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), tp.Time.Hour(), 0, 0, 0, time.UTC)
	default:
		return tp.Time
	}
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(0, 0, n), Granularity: tp.Granularity}
}
func (tp TimePoint) AddMonths(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(0, n, 0), Granularity: tp.Granularity}
}
func (tp TimePoint) AddYears(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(n, 0, 0), Granularity: tp.Granularity}
}

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (tp TimePoint) IsWorkday() bool { return !tp.IsWeekend() }
func (tp TimePoint) IsZero() bool    { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	switch tp.Granularity {
	case GranularityDay:
		return tp.Time.Format(DateLayout)
	case GranularityHour:
		return tp.Time.Format("2006-01-02 15:00")
	default:
		return tp.Time.Format(time.RFC3339)
	}
}

// =============================================================================
// CALENDAR UTILITIES
// =============================================================================
// Working day means Monday..Friday. Holidays are not modelled.

// IsLeapYear reports whether February has 29 days in year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

var monthLengths = [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth panics on a month outside 1..12.
func DaysInMonth(year int, month time.Month) int {
	mustMonth(month)
	if month == time.February && IsLeapYear(year) {
		return 29
	}
	return monthLengths[month-1]
}

// LastDayOfMonth returns the final calendar day of the month.
func LastDayOfMonth(year int, month time.Month) TimePoint {
	return NewTimePoint(year, month, DaysInMonth(year, month))
}

// FirstWorkingDay returns the first Monday..Friday date of the month.
func FirstWorkingDay(year int, month time.Month) TimePoint {
	mustMonth(month)
	day := NewTimePoint(year, month, 1)
	for day.IsWeekend() {
		day = day.AddDays(1)
	}
	return day
}

// ShiftIfWeekend moves a Saturday or Sunday back to the preceding Friday.
func ShiftIfWeekend(tp TimePoint) TimePoint {
	switch tp.Weekday() {
	case time.Saturday:
		return tp.AddDays(-1)
	case time.Sunday:
		return tp.AddDays(-2)
	default:
		return tp
	}
}

// MondayBasedWeekday maps Monday..Sunday to 0..6.
func MondayBasedWeekday(tp TimePoint) int {
	return (int(tp.Weekday()) + 6) % 7
}

// StartOfWeek returns the Monday of the week containing tp.
func StartOfWeek(tp TimePoint) TimePoint {
	return tp.AddDays(-MondayBasedWeekday(tp))
}

func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// MonthsBetween counts whole calendar months from from's month to to's month.
func MonthsBetween(from, to TimePoint) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func StartOfYear(year int) TimePoint                    { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint                      { return NewTimePoint(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }
func EndOfMonth(year int, month time.Month) TimePoint   { return LastDayOfMonth(year, month) }

func mustMonth(month time.Month) {
	if month < time.January || month > time.December {
		panic(fmt.Sprintf("generic: month out of range: %d", month))
	}
}
