package report_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
	"github.com/warp/recurring-engine/report"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================
// asOf is Tuesday 2024-03-12.
//   Departments: fin (FIN), ops (OPS)
//   Users:       alice (fin), bob (ops), carol (ops)

var asOf = generic.NewTimePoint(2024, time.March, 12)

func at(d, h int) *time.Time {
	t := time.Date(2024, time.March, d, h, 0, 0, 0, time.UTC)
	return &t
}

func created(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 8, 0, 0, 0, time.UTC)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testDirectory() *report.Directory {
	return report.NewDirectory(
		[]report.Department{
			{ID: "fin", Code: "FIN", Name: "Finance"},
			{ID: "ops", Code: "OPS", Name: "Operations"},
		},
		[]report.User{
			{ID: "alice", Name: "Alice", DepartmentID: "fin"},
			{ID: "bob", Name: "Bob", DepartmentID: "ops"},
			{ID: "carol", Name: "Carol", DepartmentID: "ops"},
		},
		[]report.Project{
			{ID: "p1", Name: "Ledger migration", DepartmentID: "fin", Active: true},
			{ID: "p2", Name: "Archive", DepartmentID: "ops", Active: false},
		},
	)
}

// dailyFin: every day, FIN department, alice.
func dailyFin() recurrence.Template {
	return recurrence.Template{
		ID:        "daily-fin",
		Title:     "Bank reconciliation",
		Scope:     recurrence.ScopeDepartment{DepartmentID: "fin"},
		Assignees: []generic.UserID{"alice"},
		Frequency: recurrence.Daily,
		Priority:  generic.PriorityNormal,
		IsActive:  true,
		CreatedAt: created(time.March, 12),
	}
}

// monthlyAll: day 11 of every month, ALL scope, bob, high priority.
func monthlyAll() recurrence.Template {
	return recurrence.Template{
		ID:         "monthly-all",
		Title:      "Payroll export",
		Scope:      recurrence.ScopeAll{},
		Assignees:  []generic.UserID{"bob"},
		Frequency:  recurrence.Monthly,
		DayOfMonth: recurrence.ExplicitDay(11),
		Priority:   generic.PriorityHigh,
		IsActive:   true,
		CreatedAt:  created(time.February, 1),
	}
}

// weeklyGA: Tuesdays PM, GA scope, carol.
func weeklyGA() recurrence.Template {
	return recurrence.Template{
		ID:           "weekly-ga",
		Title:        "Office supplies",
		Scope:        recurrence.ScopeGA{},
		Assignees:    []generic.UserID{"carol"},
		Frequency:    recurrence.Weekly,
		DaysOfWeek:   []recurrence.Weekday{recurrence.Tuesday},
		Priority:     generic.PriorityNormal,
		FinishPeriod: generic.PM,
		IsActive:     true,
		CreatedAt:    created(time.March, 12),
	}
}

func testTemplates() []recurrence.Template {
	return []recurrence.Template{dailyFin(), monthlyAll(), weeklyGA()}
}

func testTasks() []report.Task {
	return []report.Task{
		{ID: "t-fast", Title: "Call supplier", Status: report.TaskOpen, DueAt: at(12, 9), AssignedTo: "bob", CreatedAt: created(time.March, 5)},
		{ID: "t-proj", Title: "Map accounts", Status: report.TaskInProgress, DueAt: at(10, 10), ProjectID: "p1", Assignees: []generic.UserID{"alice"}, CreatedAt: created(time.March, 1)},
		{ID: "t-done-today", Title: "Send invoice", Status: report.TaskDone, DueAt: at(12, 15), CompletedAt: at(12, 11), AssignedTo: "carol", CreatedAt: created(time.March, 2)},
		{ID: "t-done-yesterday", Title: "Old", Status: report.TaskDone, DueAt: at(11, 9), CompletedAt: at(11, 16), AssignedTo: "carol", CreatedAt: created(time.March, 2)},
		{ID: "t-future", Title: "Later", Status: report.TaskOpen, DueAt: at(13, 9), AssignedTo: "bob", CreatedAt: created(time.March, 2)},
		{ID: "t-cancelled", Title: "Dropped", Status: report.TaskCancelled, DueAt: at(12, 9), AssignedTo: "bob", CreatedAt: created(time.March, 2)},
	}
}

func keys(rows []report.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.SourceKey
	}
	return out
}

func findRow(rows []report.Row, key string) (report.Row, bool) {
	for _, r := range rows {
		if r.SourceKey == key {
			return r, true
		}
	}
	return report.Row{}, false
}
