package generic_test

import (
	"testing"
	"time"

	"github.com/warp/recurring-engine/generic"
)

func day(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

// =============================================================================
// CALENDAR UTILITIES
// =============================================================================

func TestIsLeapYear(t *testing.T) {
	cases := map[int]bool{
		1900: false,
		2000: true,
		2023: false,
		2024: true,
		2100: false,
	}
	for year, want := range cases {
		if got := generic.IsLeapYear(year); got != want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", year, got, want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2023, time.April, 30},
		{2023, time.December, 31},
	}
	for _, tt := range tests {
		if got := generic.DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestDaysInMonth_InvalidMonthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for month 13")
		}
	}()
	generic.DaysInMonth(2024, 13)
}

func TestShiftIfWeekend(t *testing.T) {
	tests := []struct {
		name string
		in   generic.TimePoint
		want generic.TimePoint
	}{
		{"saturday moves to friday", day(2023, time.September, 30), day(2023, time.September, 29)},
		{"sunday moves to friday", day(2023, time.October, 1), day(2023, time.September, 29)},
		{"weekday unchanged", day(2023, time.October, 2), day(2023, time.October, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generic.ShiftIfWeekend(tt.in); !got.Equal(tt.want) {
				t.Errorf("ShiftIfWeekend(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFirstWorkingDay(t *testing.T) {
	// 2023-07-01 is a Saturday
	if got := generic.FirstWorkingDay(2023, time.July); !got.Equal(day(2023, time.July, 3)) {
		t.Errorf("FirstWorkingDay(2023-07) = %s, want 2023-07-03", got)
	}
	// 2024-01-01 is a Monday
	if got := generic.FirstWorkingDay(2024, time.January); !got.Equal(day(2024, time.January, 1)) {
		t.Errorf("FirstWorkingDay(2024-01) = %s, want 2024-01-01", got)
	}
}

func TestMondayBasedWeekday(t *testing.T) {
	// 2024-01-01 Monday .. 2024-01-07 Sunday
	for i := 0; i < 7; i++ {
		d := day(2024, time.January, 1+i)
		if got := generic.MondayBasedWeekday(d); got != i {
			t.Errorf("MondayBasedWeekday(%s) = %d, want %d", d, got, i)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	sunday := day(2024, time.January, 7)
	if got := generic.StartOfWeek(sunday); !got.Equal(day(2024, time.January, 1)) {
		t.Errorf("StartOfWeek(%s) = %s, want 2024-01-01", sunday, got)
	}
}

func TestDaysBetween(t *testing.T) {
	if got := generic.DaysBetween(day(2024, time.February, 28), day(2024, time.March, 1)); got != 2 {
		t.Errorf("expected 2 days across leap February, got %d", got)
	}
	if got := generic.DaysBetween(day(2024, time.March, 1), day(2024, time.February, 28)); got != -2 {
		t.Errorf("expected -2 days backwards, got %d", got)
	}
}

func TestParseDate(t *testing.T) {
	got, err := generic.ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(day(2024, time.February, 29)) {
		t.Errorf("ParseDate = %s", got)
	}
	if _, err := generic.ParseDate("2023-02-29"); err == nil {
		t.Error("expected error for 2023-02-29")
	}
}

// =============================================================================
// PERIOD
// =============================================================================

func TestDateIn(t *testing.T) {
	// 00:30 on the 12th two hours east of UTC is still the 11th in UTC.
	east := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, time.March, 11, 22, 30, 0, 0, time.UTC)

	if got := generic.DateIn(ts, east); !got.Equal(day(2024, time.March, 12)) {
		t.Errorf("DateIn(east) = %s, want 2024-03-12", got)
	}
	if got := generic.DateIn(ts.In(east), nil); !got.Equal(day(2024, time.March, 11)) {
		t.Errorf("DateIn(nil) = %s, want 2024-03-11", got)
	}
}

func TestPeriod_DaysAndContains(t *testing.T) {
	p := generic.Period{Start: day(2024, time.January, 30), End: day(2024, time.February, 2)}

	if got := len(p.Days()); got != 4 {
		t.Errorf("expected 4 days, got %d", got)
	}
	if !p.Contains(day(2024, time.February, 1)) {
		t.Error("expected window to contain Feb 1")
	}
	if p.Contains(day(2024, time.February, 3)) {
		t.Error("expected window to exclude Feb 3")
	}
}

func TestNewPeriod_RejectsReversedWindow(t *testing.T) {
	_, err := generic.NewPeriod(day(2024, time.February, 2), day(2024, time.February, 1))
	if !generic.IsClientError(err) {
		t.Errorf("expected client error, got %v", err)
	}
}

func TestWorkWeek(t *testing.T) {
	w := generic.WorkWeek(day(2024, time.January, 4))
	if !w.Start.Equal(day(2024, time.January, 1)) || !w.End.Equal(day(2024, time.January, 5)) {
		t.Errorf("WorkWeek = %s", w)
	}
}
