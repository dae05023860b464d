/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate both stores with realistic
	data for demos. Each scenario creates departments, users, projects,
	templates, ad-hoc tasks and a few ledger actions. Dates are relative to
	the server's current date so the daily report always has content.

AVAILABLE SCENARIOS:

	month-end-close:  Finance close cycle: daily, monthly, first-working-day,
	                  quarterly templates plus overdue ad-hoc work
	weekly-planning:  Several projects with daily products spread over the week

HOW SCENARIOS WORK:
 1. Reset both stores (clear all data)
 2. Create departments, users and projects
 3. Create templates via factory JSON
 4. Create ad-hoc tasks
 5. Record occurrence actions through the engine

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "month-end-close"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler type
  - factory/template.go: Template JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
	"github.com/warp/recurring-engine/report"
)

// TemplateResetter is the template/ledger store as seen by the seeder.
type TemplateResetter interface {
	recurrence.TemplateStore
	Reset(ctx context.Context) error
}

// DirectoryWriter is the directory store as seen by the seeder.
type DirectoryWriter interface {
	SaveDepartment(ctx context.Context, d report.Department) error
	SaveUser(ctx context.Context, u report.User) error
	SaveProject(ctx context.Context, p report.Project) error
	SaveTask(ctx context.Context, t report.Task) error
	Reset(ctx context.Context) error
}

// DemoStores are the writable stores scenarios seed.
type DemoStores struct {
	Templates TemplateResetter
	Directory DirectoryWriter
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "month-end-close",
		Name:        "Month-End Close",
		Description: "Finance close cycle with daily, monthly, first-working-day and quarterly templates plus overdue ad-hoc work",
	},
	{
		ID:          "weekly-planning",
		Name:        "Weekly Planning",
		Description: "Project tasks with daily products spread over the current week",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, r, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, r, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets both stores and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	const op = "api.LoadScenario"
	log := h.logger(r, op)

	if h.Demo == nil {
		writeError(w, r, http.StatusBadRequest, "Scenario loading is disabled", nil)
		return
	}

	var req LoadScenarioRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(ctx context.Context, today generic.TimePoint) error
	switch req.ScenarioID {
	case "month-end-close":
		load = h.loadMonthEndCloseScenario
	case "weekly-planning":
		load = h.loadWeeklyPlanningScenario
	default:
		writeError(w, r, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Demo.Templates.Reset(ctx); err != nil {
		writeStoreError(w, r, log, fmt.Errorf("reset templates: %w", err))
		return
	}
	if err := h.Demo.Directory.Reset(ctx); err != nil {
		writeStoreError(w, r, log, fmt.Errorf("reset directory: %w", err))
		return
	}
	h.currentScenario = ""

	if err := load(ctx, h.today()); err != nil {
		writeStoreError(w, r, log, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}
	h.currentScenario = req.ScenarioID

	log.Info("scenario loaded", slog.String("scenario", req.ScenarioID))
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadMonthEndCloseScenario(ctx context.Context, today generic.TimePoint) error {
	if err := h.seedDirectory(ctx); err != nil {
		return err
	}

	created := today.AddDays(-60).Time
	templates := []string{
		`{"id":"bank-rec","title":"Bank reconciliation","scope":"DEPARTMENT","department_id":"fin",
		  "assignees":["alice"],"frequency":"daily"}`,
		`{"id":"close-books","title":"Close the books","scope":"DEPARTMENT","department_id":"fin",
		  "assignees":["alice"],"frequency":"monthly","day_of_month":0,"priority":"high","finish_period":"PM"}`,
		`{"id":"payroll","title":"Payroll export","scope":"ALL","assignees":["bob"],
		  "frequency":"monthly","day_of_month":-1,"priority":"high"}`,
		`{"id":"vat-return","title":"VAT return","scope":"DEPARTMENT","department_id":"fin",
		  "assignees":["alice"],"frequency":"3_months","day_of_month":20,"month_of_year":1}`,
		`{"id":"supplies","title":"Office supplies order","scope":"GA","assignees":["carol"],
		  "frequency":"weekly","days_of_week":[1,3],"finish_period":"PM"}`,
		`{"id":"fire-drill","title":"Fire drill","scope":"GA","assignees":["carol"],
		  "frequency":"yearly","day_of_month":15,"month_of_year":10}`,
	}
	for _, js := range templates {
		if err := h.createTemplateFromJSON(ctx, js, created); err != nil {
			return err
		}
	}

	tasks := []report.Task{
		{
			ID: "call-bank", Title: "Call bank about fee", Status: report.TaskOpen,
			DueAt: at(today.AddDays(-3), 10), AssignedTo: "alice",
		},
		{
			ID: "invoice-batch", Title: "Post invoice batch", Status: report.TaskInProgress,
			DueAt: at(today, 15), ProjectID: "erp", Assignees: []generic.UserID{"alice", "bob"},
			DailyProducts: decimalPtr("12.5"),
		},
		{
			ID: "audit-request", Title: "Answer audit request", Status: report.TaskOpen, Priority: generic.PriorityHigh,
			DueAt: at(today, 9), AssignedTo: "bob", IsR1: true,
		},
		{
			ID: "keys", Title: "Collect office keys", Status: report.TaskDone,
			DueAt: at(today, 11), CompletedAt: at(today, 8), AssignedTo: "carol", IsPersonal: true,
		},
	}
	if err := h.saveTasks(ctx, tasks, created); err != nil {
		return err
	}

	// Mark the most recent past bank reconciliations so the ledger has history.
	now := today.Time.Add(8 * time.Hour)
	actions := []struct {
		daysAgo int
		status  recurrence.Status
		comment string
	}{
		{1, recurrence.StatusDone, ""},
		{2, recurrence.StatusSkipped, "bank holiday"},
	}
	for _, a := range actions {
		day := today.AddDays(-a.daysAgo)
		if _, err := h.Engine.RecordAction(ctx, report.Action{
			TemplateID: "bank-rec", Date: day, Status: a.status, Comment: a.comment, ActedBy: "alice",
		}, now); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadWeeklyPlanningScenario(ctx context.Context, today generic.TimePoint) error {
	if err := h.seedDirectory(ctx); err != nil {
		return err
	}

	created := today.AddDays(-30).Time
	templates := []string{
		`{"id":"standup","title":"Team stand-up notes","scope":"DEPARTMENT","department_id":"ops",
		  "assignees":["bob","carol"],"frequency":"weekly","days_of_week":[0,2,4]}`,
		`{"id":"stock-count","title":"Stock count","scope":"DEPARTMENT","department_id":"ops",
		  "assignees":["carol"],"frequency":"daily","finish_period":"PM"}`,
	}
	for _, js := range templates {
		if err := h.createTemplateFromJSON(ctx, js, created); err != nil {
			return err
		}
	}

	week := generic.WorkWeek(today)
	var tasks []report.Task
	for i, day := range week.Days() {
		tasks = append(tasks,
			report.Task{
				ID: generic.TaskID(fmt.Sprintf("erp-%d", i)), Title: fmt.Sprintf("Migrate ledger batch %d", i+1),
				Status: report.TaskOpen, DueAt: at(day, 10), ProjectID: "erp",
				Assignees: []generic.UserID{"alice"}, DailyProducts: decimalPtr("4"),
			},
			report.Task{
				ID: generic.TaskID(fmt.Sprintf("wh-%d", i)), Title: fmt.Sprintf("Relabel aisle %d", i+1),
				Status: report.TaskOpen, DueAt: at(day, 14), ProjectID: "warehouse",
				Assignees: []generic.UserID{"bob"}, DailyProducts: decimalPtr("2.75"),
			},
		)
	}
	tasks = append(tasks,
		report.Task{
			ID: "forklift", Title: "Forklift inspection", Status: report.TaskOpen,
			StartAt: at(week.Start, 9), DueAt: at(week.End, 16), AssignedTo: "carol", Is1HReport: true,
		},
		report.Task{
			ID: "old-archive", Title: "Box old archive", Status: report.TaskOpen,
			DueAt: at(week.Start.AddDays(1), 9), ProjectID: "archive", AssignedTo: "carol",
		},
	)
	return h.saveTasks(ctx, tasks, created)
}

// =============================================================================
// HELPERS
// =============================================================================

// seedDirectory creates the departments, users and projects shared by all
// scenarios.
func (h *Handler) seedDirectory(ctx context.Context) error {
	d := h.Demo.Directory
	for _, dep := range []report.Department{
		{ID: "fin", Code: "FIN", Name: "Finance"},
		{ID: "ops", Code: "OPS", Name: "Operations"},
	} {
		if err := d.SaveDepartment(ctx, dep); err != nil {
			return err
		}
	}
	for _, u := range []report.User{
		{ID: "alice", Name: "Alice", DepartmentID: "fin"},
		{ID: "bob", Name: "Bob", DepartmentID: "ops"},
		{ID: "carol", Name: "Carol", DepartmentID: "ops"},
	} {
		if err := d.SaveUser(ctx, u); err != nil {
			return err
		}
	}
	for _, p := range []report.Project{
		{ID: "erp", Name: "ERP migration", DepartmentID: "fin", Active: true},
		{ID: "warehouse", Name: "Warehouse relabel", DepartmentID: "ops", Active: true},
		{ID: "archive", Name: "Archive cleanup", DepartmentID: "ops", Active: false},
	} {
		if err := d.SaveProject(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// createTemplateFromJSON parses, validates and stores a template.
func (h *Handler) createTemplateFromJSON(ctx context.Context, js string, created time.Time) error {
	t, err := h.Factory.ParseTemplate([]byte(js))
	if err != nil {
		return err
	}
	t.CreatedAt, t.UpdatedAt = created, created
	return h.Demo.Templates.SaveTemplate(ctx, *t)
}

func (h *Handler) saveTasks(ctx context.Context, tasks []report.Task, created time.Time) error {
	for _, t := range tasks {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = created
		}
		if t.Priority == "" {
			t.Priority = generic.PriorityNormal
		}
		if err := h.Demo.Directory.SaveTask(ctx, t); err != nil {
			return fmt.Errorf("save task %s: %w", t.ID, err)
		}
	}
	return nil
}

func at(day generic.TimePoint, hour int) *time.Time {
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	return &t
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
