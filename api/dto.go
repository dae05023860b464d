/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the report and recurrence types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Reports:
    ReportDTO, RowDTO, DiagnosticDTO
    WeeklyDTO, DepartmentWeekDTO, DayColumnDTO, PeriodSlotDTO, UserCellDTO, ProjectGroupDTO

  Occurrences:
    RecordOccurrenceRequest, OccurrenceDTO

  Templates:
    factory.TemplateJSON is the template DTO; DeactivateTemplateRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/template.go: TemplateJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/recurring-engine/report"
)

// =============================================================================
// DAILY REPORT
// =============================================================================

// RowDTO is one report line.
type RowDTO struct {
	SourceKey       string           `json:"source_key"`
	Type            string           `json:"type"`
	Subtype         string           `json:"subtype"`
	Period          string           `json:"period"`
	Department      string           `json:"department"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Status          string           `json:"status"`
	Aging           string           `json:"aging"`
	Comment         string           `json:"comment,omitempty"`
	Date            string           `json:"date,omitempty"`
	Priority        string           `json:"priority"`
	Frequency       string           `json:"frequency,omitempty"`
	Inactive        bool             `json:"inactive"`
	TemplateID      string           `json:"template_id,omitempty"`
	TaskID          string           `json:"task_id,omitempty"`
	ProjectID       string           `json:"project_id,omitempty"`
	UserIDs         []string         `json:"user_ids"`
	DailyProducts   *decimal.Decimal `json:"daily_products,omitempty"`
}

type DiagnosticDTO struct {
	TemplateID string `json:"template_id"`
	Message    string `json:"message"`
}

// ReportDTO is the daily report response.
type ReportDTO struct {
	AsOf         string          `json:"as_of"`
	DepartmentID string          `json:"department_id,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	Rows         []RowDTO        `json:"rows"`
	Diagnostics  []DiagnosticDTO `json:"diagnostics"`
}

// =============================================================================
// WEEKLY TABLE
// =============================================================================

type WeeklyDTO struct {
	WeekStart   string              `json:"week_start"`
	WeekEnd     string              `json:"week_end"`
	Departments []DepartmentWeekDTO `json:"departments"`
	Diagnostics []DiagnosticDTO     `json:"diagnostics"`
}

type DepartmentWeekDTO struct {
	ID   string         `json:"id"`
	Code string         `json:"code"`
	Name string         `json:"name"`
	Days []DayColumnDTO `json:"days"`
}

type DayColumnDTO struct {
	Date    string          `json:"date"`
	Weekday string          `json:"weekday"`
	Slots   []PeriodSlotDTO `json:"slots"`
}

type PeriodSlotDTO struct {
	Period string        `json:"period"`
	Users  []UserCellDTO `json:"users"`
}

type UserCellDTO struct {
	UserID      string            `json:"user_id"`
	Name        string            `json:"name"`
	Projects    []ProjectGroupDTO `json:"projects"`
	SystemTasks []RowDTO          `json:"system_tasks"`
	FastTasks   []RowDTO          `json:"fast_tasks"`
}

type ProjectGroupDTO struct {
	ProjectID     string          `json:"project_id"`
	Name          string          `json:"name"`
	TaskCount     int             `json:"task_count"`
	DailyProducts decimal.Decimal `json:"daily_products"`
	Tasks         []RowDTO        `json:"tasks"`
}

// =============================================================================
// OCCURRENCES
// =============================================================================

// RecordOccurrenceRequest is the body of POST /api/occurrences.
type RecordOccurrenceRequest struct {
	TemplateID     string `json:"template_id"`
	OccurrenceDate string `json:"occurrence_date"` // YYYY-MM-DD
	Status         string `json:"status"`
	Comment        string `json:"comment,omitempty"`
	ActedBy        string `json:"acted_by,omitempty"`
}

// OccurrenceDTO is one previewed occurrence of a template.
type OccurrenceDTO struct {
	Date    string     `json:"date"`
	Status  string     `json:"status"`
	Comment string     `json:"comment,omitempty"`
	ActedAt *time.Time `json:"acted_at,omitempty"`
	ActedBy string     `json:"acted_by,omitempty"`
}

// =============================================================================
// TEMPLATES
// =============================================================================

// DeactivateTemplateRequest is the optional body of POST /api/templates/{id}/deactivate.
// Date defaults to the server's current date.
type DeactivateTemplateRequest struct {
	Date string `json:"date,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRowDTO(r report.Row) RowDTO {
	dto := RowDTO{
		SourceKey:     r.SourceKey,
		Type:          r.TypeLabel,
		Subtype:       r.Subtype,
		Period:        string(r.Period),
		Department:    r.DepartmentLabel,
		Title:         r.Title,
		Description:   r.Description,
		Status:        r.EffectiveStatus,
		Aging:         r.AgingLabel,
		Comment:       r.Comment,
		Priority:      string(r.Priority),
		Frequency:     string(r.Frequency),
		Inactive:      r.Inactive,
		TemplateID:    string(r.TemplateID),
		TaskID:        string(r.TaskID),
		ProjectID:     string(r.ProjectID),
		UserIDs:       make([]string, 0, len(r.UserIDs)),
		DailyProducts: r.DailyProducts,
	}
	if !r.Date.IsZero() {
		dto.Date = r.Date.String()
	}
	for _, u := range r.UserIDs {
		dto.UserIDs = append(dto.UserIDs, string(u))
	}
	return dto
}

func toRowDTOs(rows []report.Row) []RowDTO {
	out := make([]RowDTO, len(rows))
	for i, r := range rows {
		out[i] = toRowDTO(r)
	}
	return out
}

func toDiagnosticDTOs(diags []report.Diagnostic) []DiagnosticDTO {
	out := make([]DiagnosticDTO, len(diags))
	for i, d := range diags {
		out[i] = DiagnosticDTO{TemplateID: string(d.TemplateID), Message: d.Message}
	}
	return out
}

func toReportDTO(rep *report.Report) ReportDTO {
	return ReportDTO{
		AsOf:         rep.AsOf.String(),
		DepartmentID: string(rep.Filter.DepartmentID),
		UserID:       string(rep.Filter.UserID),
		Rows:         toRowDTOs(rep.Rows),
		Diagnostics:  toDiagnosticDTOs(rep.Diagnostics),
	}
}

func toWeeklyDTO(t *report.WeeklyTable) WeeklyDTO {
	dto := WeeklyDTO{
		WeekStart:   t.Week.Start.String(),
		WeekEnd:     t.Week.End.String(),
		Departments: make([]DepartmentWeekDTO, 0, len(t.Departments)),
		Diagnostics: toDiagnosticDTOs(t.Diagnostics),
	}
	for _, dw := range t.Departments {
		d := DepartmentWeekDTO{
			ID:   string(dw.Department.ID),
			Code: dw.Department.Code,
			Name: dw.Department.Name,
			Days: make([]DayColumnDTO, 0, len(dw.Days)),
		}
		for _, day := range dw.Days {
			col := DayColumnDTO{Date: day.Date.String(), Weekday: day.Weekday.String()}
			for _, slot := range day.Slots {
				s := PeriodSlotDTO{Period: string(slot.Period), Users: make([]UserCellDTO, 0, len(slot.Users))}
				for _, cell := range slot.Users {
					s.Users = append(s.Users, toUserCellDTO(cell))
				}
				col.Slots = append(col.Slots, s)
			}
			d.Days = append(d.Days, col)
		}
		dto.Departments = append(dto.Departments, d)
	}
	return dto
}

func toUserCellDTO(c report.UserCell) UserCellDTO {
	dto := UserCellDTO{
		UserID:      string(c.User.ID),
		Name:        c.User.Name,
		Projects:    make([]ProjectGroupDTO, 0, len(c.Projects)),
		SystemTasks: toRowDTOs(c.SystemTasks),
		FastTasks:   toRowDTOs(c.FastTasks),
	}
	for _, p := range c.Projects {
		dto.Projects = append(dto.Projects, ProjectGroupDTO{
			ProjectID:     string(p.ProjectID),
			Name:          p.Name,
			TaskCount:     p.TaskCount,
			DailyProducts: p.DailyProducts,
			Tasks:         toRowDTOs(p.Tasks),
		})
	}
	return dto
}

func toOccurrenceDTOs(occs []report.OccurrenceStatus) []OccurrenceDTO {
	out := make([]OccurrenceDTO, len(occs))
	for i, o := range occs {
		out[i] = OccurrenceDTO{
			Date:    o.Date.String(),
			Status:  string(o.Status),
			Comment: o.Comment,
			ActedAt: o.ActedAt,
			ActedBy: string(o.ActedBy),
		}
	}
	return out
}
