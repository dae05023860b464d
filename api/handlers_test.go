/*
handlers_test.go - HTTP tests for the API handlers

Tests run the full router against in-memory SQLite stores:
- Daily and weekly reports after loading a scenario
- Template create / read / update / deactivate / preview
- Occurrence actions and their error mapping
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/recurring-engine/factory"
	"github.com/warp/recurring-engine/report"
	"github.com/warp/recurring-engine/store/directory"
	"github.com/warp/recurring-engine/store/sqlite"
)

// fixedNow is Tuesday 2024-03-12, 10:00 UTC.
var fixedNow = time.Date(2024, time.March, 12, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*chi.Mux, *Handler) {
	t.Helper()
	tpl, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { tpl.Close() })

	dir, err := directory.New(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { dir.Close() })

	engine := report.NewEngine(tpl, tpl, dir, dir, nil)
	h := NewHandler(engine, &DemoStores{Templates: tpl, Directory: dir}, nil)
	h.Now = func() time.Time { return fixedNow }
	return NewRouter(h, nil), h
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func findRowDTO(rows []RowDTO, key string) (RowDTO, bool) {
	for _, r := range rows {
		if r.SourceKey == key {
			return r, true
		}
	}
	return RowDTO{}, false
}

const financeDaily = `{"id":"rec","title":"Bank reconciliation","scope":"DEPARTMENT","department_id":"fin",
	"assignees":["alice"],"frequency":"daily"}`

// =============================================================================
// REPORTS
// =============================================================================

func TestDailyReport_MonthEndClose(t *testing.T) {
	// GIVEN: The month-end-close scenario loaded on 2024-03-12
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	// WHEN: Requesting the default daily report
	rec := do(t, router, http.MethodGet, "/api/reports/daily", nil)

	// THEN: as_of defaults to today and both sources are merged
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[ReportDTO](t, rec)
	assert.Equal(t, "2024-03-12", rep.AsOf)
	assert.Empty(t, rep.Diagnostics)

	today, ok := findRowDTO(rep.Rows, "occ:bank-rec:2024-03-12")
	require.True(t, ok)
	assert.Equal(t, "SYS", today.Type)
	assert.Equal(t, "open", today.Status)
	assert.Equal(t, "T", today.Aging)

	yesterday, ok := findRowDTO(rep.Rows, "occ:bank-rec:2024-03-11")
	require.True(t, ok)
	assert.Equal(t, "done", yesterday.Status)

	late, ok := findRowDTO(rep.Rows, "task:call-bank")
	require.True(t, ok)
	assert.Equal(t, "FT", late.Type)
	assert.Equal(t, "3", late.Aging)

	project, ok := findRowDTO(rep.Rows, "task:invoice-batch")
	require.True(t, ok)
	assert.Equal(t, "PRJK", project.Type)
	require.NotNil(t, project.DailyProducts)
	assert.Equal(t, "12.5", project.DailyProducts.String())
}

func TestDailyReport_UserFilter(t *testing.T) {
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	rec := do(t, router, http.MethodGet, "/api/reports/daily?as_of=2024-03-12&user_id=carol", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	rep := decode[ReportDTO](t, rec)
	require.NotEmpty(t, rep.Rows)
	for _, r := range rep.Rows {
		assert.Contains(t, r.UserIDs, "carol", r.SourceKey)
	}
	assert.Equal(t, "carol", rep.UserID)
}

func TestDailyReport_InvalidDate(t *testing.T) {
	router, _ := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/reports/daily?as_of=12/03/2024", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeeklyReport_WeeklyPlanning(t *testing.T) {
	// GIVEN: The weekly-planning scenario
	router, _ := newTestServer(t)
	loadScenario(t, router, "weekly-planning")

	// WHEN: Requesting the OPS week from a Wednesday
	rec := do(t, router, http.MethodGet, "/api/reports/weekly?week_start=2024-03-13&department_id=ops", nil)

	// THEN: The week is normalized to Monday..Friday and only OPS is shown
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	table := decode[WeeklyDTO](t, rec)
	assert.Equal(t, "2024-03-11", table.WeekStart)
	assert.Equal(t, "2024-03-15", table.WeekEnd)
	require.Len(t, table.Departments, 1)
	assert.Equal(t, "OPS", table.Departments[0].Code)
	assert.Len(t, table.Departments[0].Days, 5)
	assert.Equal(t, "MON", table.Departments[0].Days[0].Weekday)
}

// =============================================================================
// TEMPLATES
// =============================================================================

func TestCreateTemplate_GetAndList(t *testing.T) {
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	rec := do(t, router, http.MethodPost, "/api/templates", `{"title":"Cash count","scope":"ALL","frequency":"weekly","days_of_week":[4]}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[factory.TemplateJSON](t, rec)
	assert.NotEmpty(t, created.ID)
	require.NotNil(t, created.CreatedAt)
	assert.True(t, created.CreatedAt.Equal(fixedNow))

	rec = do(t, router, http.MethodGet, "/api/templates/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[factory.TemplateJSON](t, rec)
	assert.Equal(t, "Cash count", got.Title)
	assert.Equal(t, []int{4}, got.DaysOfWeek)

	rec = do(t, router, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]factory.TemplateJSON](t, rec)
	assert.Len(t, all, 7)
}

func TestCreateTemplate_AssigneeOutsideDepartment(t *testing.T) {
	// GIVEN: bob belongs to ops
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	// WHEN: Creating a FIN template assigned to bob
	rec := do(t, router, http.MethodPost, "/api/templates",
		`{"title":"x","scope":"DEPARTMENT","department_id":"fin","assignees":["bob"],"frequency":"daily"}`)

	// THEN: 400 with the field named
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"assignees"`)
}

func TestCreateTemplate_DuplicateID(t *testing.T) {
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	rec := do(t, router, http.MethodPost, "/api/templates", `{"id":"payroll","title":"x","scope":"ALL","frequency":"daily"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTemplate_NotFound(t *testing.T) {
	router, _ := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/templates/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTemplate_KeepsIDAndCreatedAt(t *testing.T) {
	router, h := newTestServer(t)
	loadScenario(t, router, "month-end-close")
	h.Now = func() time.Time { return fixedNow.Add(time.Hour) }

	rec := do(t, router, http.MethodPut, "/api/templates/payroll",
		`{"id":"ignored","title":"Payroll export v2","scope":"ALL","assignees":["bob"],"frequency":"monthly","day_of_month":-1}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[factory.TemplateJSON](t, rec)
	assert.Equal(t, "payroll", got.ID)
	assert.Equal(t, "Payroll export v2", got.Title)
	require.NotNil(t, got.CreatedAt)
	assert.True(t, got.CreatedAt.Before(fixedNow))

	rec = do(t, router, http.MethodPut, "/api/templates/missing", financeDaily)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeactivateTemplate_StopsFutureOccurrences(t *testing.T) {
	// GIVEN: A daily template
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	// WHEN: Deactivating it on 2024-03-13
	rec := do(t, router, http.MethodPost, "/api/templates/bank-rec/deactivate", DeactivateTemplateRequest{Date: "2024-03-13"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[factory.TemplateJSON](t, rec)
	require.NotNil(t, got.IsActive)
	assert.False(t, *got.IsActive)
	assert.Equal(t, "2024-03-13", got.DeactivatedAt)

	// THEN: The preview stops at the deactivation day and keeps the ledger history
	rec = do(t, router, http.MethodGet, "/api/templates/bank-rec/occurrences?from=2024-03-10&to=2024-03-20", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	occs := decode[[]OccurrenceDTO](t, rec)
	require.Len(t, occs, 4)
	assert.Equal(t, "2024-03-10", occs[0].Date)
	assert.Equal(t, "skipped", occs[0].Status)
	assert.Equal(t, "bank holiday", occs[0].Comment)
	assert.Equal(t, "done", occs[1].Status)
	assert.Equal(t, "open", occs[2].Status)
	assert.Equal(t, "2024-03-13", occs[3].Date)
}

func TestDeactivateTemplate_DefaultsToToday(t *testing.T) {
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	rec := do(t, router, http.MethodPost, "/api/templates/payroll/deactivate", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2024-03-12", decode[factory.TemplateJSON](t, rec).DeactivatedAt)
}

func TestTemplateOccurrences_ToBeforeFrom(t *testing.T) {
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	rec := do(t, router, http.MethodGet, "/api/templates/bank-rec/occurrences?from=2024-03-10&to=2024-03-01", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// OCCURRENCES
// =============================================================================

func TestRecordOccurrence(t *testing.T) {
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	tests := []struct {
		name       string
		body       RecordOccurrenceRequest
		wantStatus int
	}{
		{"done today", RecordOccurrenceRequest{TemplateID: "bank-rec", OccurrenceDate: "2024-03-12", Status: "done", ActedBy: "alice"}, http.StatusOK},
		{"not an occurrence", RecordOccurrenceRequest{TemplateID: "supplies", OccurrenceDate: "2024-03-13", Status: "done"}, http.StatusBadRequest},
		{"unknown template", RecordOccurrenceRequest{TemplateID: "nope", OccurrenceDate: "2024-03-12", Status: "done"}, http.StatusNotFound},
		{"unknown status", RecordOccurrenceRequest{TemplateID: "bank-rec", OccurrenceDate: "2024-03-12", Status: "finished"}, http.StatusBadRequest},
		{"bad date", RecordOccurrenceRequest{TemplateID: "bank-rec", OccurrenceDate: "tomorrow", Status: "done"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/occurrences", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRecordOccurrence_ReturnsUpdatedRow(t *testing.T) {
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")

	rec := do(t, router, http.MethodPost, "/api/occurrences",
		RecordOccurrenceRequest{TemplateID: "bank-rec", OccurrenceDate: "2024-03-12", Status: "skipped", Comment: "system down"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	row := decode[RowDTO](t, rec)
	assert.Equal(t, "occ:bank-rec:2024-03-12", row.SourceKey)
	assert.Equal(t, "skipped", row.Status)
	assert.Equal(t, "system down", row.Comment)

	// Last write wins.
	rec = do(t, router, http.MethodPost, "/api/occurrences",
		RecordOccurrenceRequest{TemplateID: "bank-rec", OccurrenceDate: "2024-03-12", Status: "done"})
	require.Equal(t, http.StatusOK, rec.Code)

	rep := decode[ReportDTO](t, do(t, router, http.MethodGet, "/api/reports/daily", nil))
	got, ok := findRowDTO(rep.Rows, "occ:bank-rec:2024-03-12")
	require.True(t, ok)
	assert.Equal(t, "done", got.Status)
	assert.Empty(t, got.Comment)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios(t *testing.T) {
	router, _ := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScenarioDTO](t, rec), len(scenarios))

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	loadScenario(t, router, "weekly-planning")
	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "weekly-planning", decode[ScenarioDTO](t, rec).ID)
}

func TestLoadScenario_ResetsPreviousData(t *testing.T) {
	router, _ := newTestServer(t)
	loadScenario(t, router, "month-end-close")
	loadScenario(t, router, "weekly-planning")

	rec := do(t, router, http.MethodGet, "/api/templates/payroll", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
