/*
handlers.go - HTTP API handlers for the recurring-task engine

PURPOSE:
  Exposes the report engine and the template store via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Reports:
    GET    /api/reports/daily                  Daily report (as_of, department_id, user_id)
    GET    /api/reports/weekly                 Weekly planning table (week_start, department_id)

  Occurrences:
    POST   /api/occurrences                    Record an action on one occurrence

  Templates:
    GET    /api/templates                      List all templates
    POST   /api/templates                      Create template from JSON
    GET    /api/templates/{id}                 Get template
    PUT    /api/templates/{id}                 Replace template
    POST   /api/templates/{id}/deactivate      Stop future occurrences
    GET    /api/templates/{id}/occurrences     Preview occurrences (from, to)

  Scenarios:
    GET    /api/scenarios                      List demo scenarios
    POST   /api/scenarios/load                 Load a demo scenario

CLOCK:
  The wall clock is read here and nowhere below. Missing as_of / week_start
  parameters default to the current date; RecordAction receives now.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Template not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/warp/recurring-engine/factory"
	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
	"github.com/warp/recurring-engine/report"
)

// defaultPreviewDays is the occurrence preview length when "to" is omitted.
const defaultPreviewDays = 31

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *report.Engine
	Factory *factory.TemplateFactory
	// Demo is nil when scenario loading is disabled.
	Demo *DemoStores
	// Now is the boundary clock.
	Now func() time.Time

	log *slog.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around the engine.
func NewHandler(engine *report.Engine, demo *DemoStores, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		Engine:  engine,
		Factory: factory.NewTemplateFactory(),
		Demo:    demo,
		Now:     time.Now,
		log:     log,
	}
}

func (h *Handler) today() generic.TimePoint {
	return h.Engine.Day(h.Now())
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DailyReport returns the ordered rows for one day.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.DailyReport"
	log := h.logger(r, op)

	asOf, err := dateParam(r, "as_of", h.today())
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}
	filter := report.Filter{
		DepartmentID: generic.DepartmentID(r.URL.Query().Get("department_id")),
		UserID:       generic.UserID(r.URL.Query().Get("user_id")),
	}

	rep, err := h.Engine.BuildReport(r.Context(), asOf, filter)
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toReportDTO(rep))
}

// WeeklyReport returns the planning table of the week containing week_start.
func (h *Handler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.WeeklyReport"
	log := h.logger(r, op)

	today := h.today()
	weekStart, err := dateParam(r, "week_start", today)
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}
	dep := generic.DepartmentID(r.URL.Query().Get("department_id"))

	table, err := h.Engine.BuildWeeklyTable(r.Context(), weekStart, today, dep)
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toWeeklyDTO(table))
}

// =============================================================================
// OCCURRENCE HANDLERS
// =============================================================================

// RecordOccurrence upserts the ledger entry of one occurrence.
func (h *Handler) RecordOccurrence(w http.ResponseWriter, r *http.Request) {
	const op = "api.RecordOccurrence"
	log := h.logger(r, op)

	var req RecordOccurrenceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	problems := &generic.ValidationError{}
	if req.TemplateID == "" {
		problems.Add("template_id", "is required")
	}
	date, err := generic.ParseDate(req.OccurrenceDate)
	if err != nil {
		problems.Add("occurrence_date", "must be YYYY-MM-DD")
	}
	status := recurrence.Status(req.Status)
	if !status.Valid() {
		problems.Add("status", "unknown status %q", req.Status)
	}
	if err := problems.OrNil(); err != nil {
		writeStoreError(w, r, log, err)
		return
	}

	row, err := h.Engine.RecordAction(r.Context(), report.Action{
		TemplateID: generic.TemplateID(req.TemplateID),
		Date:       date,
		Status:     status,
		Comment:    req.Comment,
		ActedBy:    generic.UserID(req.ActedBy),
	}, h.Now())
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toRowDTO(*row))
}

// =============================================================================
// TEMPLATE HANDLERS
// =============================================================================

// ListTemplates returns all templates ordered by title.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	const op = "api.ListTemplates"
	log := h.logger(r, op)

	templates, err := h.Engine.Templates.ListTemplates(r.Context())
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}
	sort.SliceStable(templates, func(i, j int) bool {
		return strings.ToLower(templates[i].Title) < strings.ToLower(templates[j].Title)
	})

	dtos := make([]factory.TemplateJSON, len(templates))
	for i, t := range templates {
		dtos[i] = h.Factory.ToJSON(t)
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

// CreateTemplate creates a template from its JSON representation.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	const op = "api.CreateTemplate"
	log := h.logger(r, op)

	t, ok := h.decodeTemplate(w, r, log)
	if !ok {
		return
	}

	existing, err := h.Engine.Templates.GetTemplate(r.Context(), t.ID)
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}
	if existing != nil {
		writeStoreError(w, r, log, generic.NewValidationError("id", "template %q already exists", t.ID))
		return
	}

	now := h.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if !h.saveTemplate(w, r, log, t) {
		return
	}

	log.Info("template created", slog.String("template_id", string(t.ID)))
	writeJSON(w, r, http.StatusCreated, h.Factory.ToJSON(*t))
}

// GetTemplate returns a single template.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	const op = "api.GetTemplate"
	log := h.logger(r, op)

	t, ok := h.loadTemplate(w, r, log)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, h.Factory.ToJSON(*t))
}

// UpdateTemplate replaces a template. The id comes from the URL and
// created_at is kept.
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	const op = "api.UpdateTemplate"
	log := h.logger(r, op)

	existing, ok := h.loadTemplate(w, r, log)
	if !ok {
		return
	}
	t, ok := h.decodeTemplate(w, r, log)
	if !ok {
		return
	}

	t.ID = existing.ID
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = h.Now().UTC()
	if !h.saveTemplate(w, r, log, t) {
		return
	}

	log.Info("template updated", slog.String("template_id", string(t.ID)))
	writeJSON(w, r, http.StatusOK, h.Factory.ToJSON(*t))
}

// DeactivateTemplate stops future occurrences. History stays in the ledger.
func (h *Handler) DeactivateTemplate(w http.ResponseWriter, r *http.Request) {
	const op = "api.DeactivateTemplate"
	log := h.logger(r, op)

	t, ok := h.loadTemplate(w, r, log)
	if !ok {
		return
	}

	var req DeactivateTemplateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day := h.today()
	if req.Date != "" {
		d, err := generic.ParseDate(req.Date)
		if err != nil {
			writeStoreError(w, r, log, generic.NewValidationError("date", "must be YYYY-MM-DD"))
			return
		}
		day = d
	}

	t.Deactivate(day)
	t.UpdatedAt = h.Now().UTC()
	if err := h.Engine.Templates.SaveTemplate(r.Context(), *t); err != nil {
		writeStoreError(w, r, log, err)
		return
	}

	log.Info("template deactivated", slog.String("template_id", string(t.ID)), slog.String("date", day.String()))
	writeJSON(w, r, http.StatusOK, h.Factory.ToJSON(*t))
}

// TemplateOccurrences previews occurrences with their ledger status.
func (h *Handler) TemplateOccurrences(w http.ResponseWriter, r *http.Request) {
	const op = "api.TemplateOccurrences"
	log := h.logger(r, op)

	today := h.today()
	from, err := dateParam(r, "from", today)
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}
	to, err := dateParam(r, "to", from.AddDays(defaultPreviewDays-1))
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}

	id := generic.TemplateID(chi.URLParam(r, "id"))
	occs, err := h.Engine.Occurrences(r.Context(), id, from, to, today)
	if err != nil {
		writeStoreError(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOccurrenceDTOs(occs))
}

// decodeTemplate parses the body and checks assignee departments against
// the directory.
func (h *Handler) decodeTemplate(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*recurrence.Template, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	t, err := h.Factory.ParseTemplate(body)
	if err != nil {
		writeStoreError(w, r, log, err)
		return nil, false
	}

	dir, err := h.Engine.Directory.LoadDirectory(r.Context())
	if err != nil {
		writeStoreError(w, r, log, err)
		return nil, false
	}
	if err := recurrence.Validate(*t, dir.HomeDepartment); err != nil {
		writeStoreError(w, r, log, err)
		return nil, false
	}
	return t, true
}

func (h *Handler) loadTemplate(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*recurrence.Template, bool) {
	id := chi.URLParam(r, "id")
	t, err := h.Engine.Templates.GetTemplate(r.Context(), generic.TemplateID(id))
	if err != nil {
		writeStoreError(w, r, log, err)
		return nil, false
	}
	if t == nil {
		writeStoreError(w, r, log, &generic.NotFoundError{Kind: "template", ID: id})
		return nil, false
	}
	return t, true
}

func (h *Handler) saveTemplate(w http.ResponseWriter, r *http.Request, log *slog.Logger, t *recurrence.Template) bool {
	if err := h.Engine.Templates.SaveTemplate(r.Context(), *t); err != nil {
		writeStoreError(w, r, log, err)
		return false
	}
	return true
}

// =============================================================================
// HELPERS
// =============================================================================

// dateParam reads a YYYY-MM-DD query parameter, returning def when absent.
func dateParam(r *http.Request, name string, def generic.TimePoint) (generic.TimePoint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	d, err := generic.ParseDate(raw)
	if err != nil {
		return generic.TimePoint{}, generic.NewValidationError(name, "must be YYYY-MM-DD")
	}
	return d, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, r, status, resp)
}

// writeStoreError maps domain errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var validation *generic.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: validation.Problems})
	case generic.IsClientError(err):
		writeError(w, r, http.StatusBadRequest, "Invalid request", err)
	case generic.IsNotFound(err):
		writeError(w, r, http.StatusNotFound, "Not found", err)
	default:
		log.Error("request failed", slog.String("error", err.Error()))
		writeError(w, r, http.StatusInternalServerError, "Internal error", err)
	}
}
