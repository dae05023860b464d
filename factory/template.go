/*
Package factory provides JSON to Go template conversion.

PURPOSE:
  Converts the wire representation of a recurrence template into a
  recurrence.Template and back. The wire format keeps the legacy integer
  encodings that admin tools and stored exports already use; the Go type
  replaces them with explicit variants.

JSON SCHEMA:
  {
    "id": "9b1f...",                  // optional on create, uuid assigned
    "title": "Bank reconciliation",
    "scope": "DEPARTMENT",            // ALL | GA | DEPARTMENT
    "department_id": "fin",           // DEPARTMENT scope only
    "assignees": ["alice"],
    "frequency": "monthly",           // daily | weekly | monthly | 3_months | 6_months | yearly
    "days_of_week": [0, 2],           // weekly only, 0 = MON .. 4 = FRI
    "day_of_month": 0,                // 1..31, 0 = last day, -1 = first working day
    "month_of_year": 1,               // yearly (required), 3_months / 6_months (anchor)
    "priority": "normal",             // normal | high
    "finish_period": "PM",            // AM | PM
    "is_active": true
  }

KEY FEATURES:
  - Every decoding problem and every validation problem is reported at once
  - Defaults: id (uuid), priority normal, is_active true
  - Department membership of assignees is NOT checked here; the API layer
    passes its directory lookup to recurrence.Validate on writes

USAGE:
  f := factory.NewTemplateFactory()
  tpl, err := f.ParseTemplate(body)
  if generic.IsClientError(err) { ... 400 ... }

SEE ALSO:
  - recurrence/types.go: Template type definition
  - recurrence/validate.go: Rules applied after decoding
  - api/handlers.go: Template endpoints
*/
package factory

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TemplateJSON is the JSON representation of a template.
type TemplateJSON struct {
	ID            string     `json:"id,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Scope         string     `json:"scope"`
	DepartmentID  string     `json:"department_id,omitempty"`
	Assignees     []string   `json:"assignees"`
	Frequency     string     `json:"frequency"`
	DaysOfWeek    []int      `json:"days_of_week,omitempty"`
	DayOfMonth    *int       `json:"day_of_month,omitempty"`
	MonthOfYear   int        `json:"month_of_year,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	FinishPeriod  string     `json:"finish_period,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	DeactivatedAt string     `json:"deactivated_at,omitempty"` // YYYY-MM-DD
	InternalNotes string     `json:"internal_notes,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// =============================================================================
// TEMPLATE FACTORY
// =============================================================================

// TemplateFactory converts JSON templates to Go structs.
type TemplateFactory struct {
	newID func() string
}

// NewTemplateFactory creates a factory that assigns random uuids.
func NewTemplateFactory() *TemplateFactory {
	return &TemplateFactory{newID: uuid.NewString}
}

// ParseTemplate parses a JSON document into a validated Template.
func (f *TemplateFactory) ParseTemplate(data []byte) (*recurrence.Template, error) {
	var tj TemplateJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return nil, generic.NewValidationError("body", "invalid JSON: %v", err)
	}
	return f.FromJSON(tj)
}

// FromJSON converts TemplateJSON to a recurrence.Template and validates it
// structurally.
func (f *TemplateFactory) FromJSON(tj TemplateJSON) (*recurrence.Template, error) {
	problems := &generic.ValidationError{}

	t := &recurrence.Template{
		ID:            generic.TemplateID(strings.TrimSpace(tj.ID)),
		Title:         strings.TrimSpace(tj.Title),
		Description:   tj.Description,
		Frequency:     recurrence.Frequency(tj.Frequency),
		MonthOfYear:   tj.MonthOfYear,
		Priority:      generic.Priority(tj.Priority),
		FinishPeriod:  generic.DayPeriod(strings.ToUpper(tj.FinishPeriod)),
		IsActive:      true,
		InternalNotes: tj.InternalNotes,
	}
	if t.ID == "" {
		t.ID = generic.TemplateID(f.newID())
	}
	if t.Priority == "" {
		t.Priority = generic.PriorityNormal
	}
	if tj.IsActive != nil {
		t.IsActive = *tj.IsActive
	}
	if tj.CreatedAt != nil {
		t.CreatedAt = *tj.CreatedAt
	}
	if tj.UpdatedAt != nil {
		t.UpdatedAt = *tj.UpdatedAt
	}

	t.Scope = parseScope(tj.Scope, tj.DepartmentID, problems)

	for _, a := range tj.Assignees {
		if a = strings.TrimSpace(a); a != "" {
			t.Assignees = append(t.Assignees, generic.UserID(a))
		}
	}
	for _, d := range tj.DaysOfWeek {
		t.DaysOfWeek = append(t.DaysOfWeek, recurrence.Weekday(d))
	}

	if tj.DayOfMonth != nil {
		dom, err := recurrence.DayOfMonthFromInt(*tj.DayOfMonth)
		if err != nil {
			problems.Add("day_of_month", "%d outside {-1, 0, 1..31}", *tj.DayOfMonth)
		} else {
			t.DayOfMonth = dom
		}
	}

	if tj.DeactivatedAt != "" {
		day, err := generic.ParseDate(tj.DeactivatedAt)
		if err != nil {
			problems.Add("deactivated_at", "must be YYYY-MM-DD")
		} else {
			t.DeactivatedAt = &day
		}
	}

	mergeProblems(problems, recurrence.Validate(*t, nil))

	if err := problems.OrNil(); err != nil {
		return nil, err
	}
	return t, nil
}

// ToJSON converts a Template to TemplateJSON.
func (f *TemplateFactory) ToJSON(t recurrence.Template) TemplateJSON {
	active := t.IsActive
	tj := TemplateJSON{
		ID:            string(t.ID),
		Title:         t.Title,
		Description:   t.Description,
		Assignees:     make([]string, 0, len(t.Assignees)),
		Frequency:     string(t.Frequency),
		MonthOfYear:   t.MonthOfYear,
		Priority:      string(t.Priority),
		FinishPeriod:  string(t.FinishPeriod),
		IsActive:      &active,
		InternalNotes: t.InternalNotes,
	}

	if t.Scope != nil {
		tj.Scope = string(t.Scope.Kind())
		if dep, ok := recurrence.DepartmentOf(t.Scope); ok {
			tj.DepartmentID = string(dep)
		}
	}
	for _, a := range t.Assignees {
		tj.Assignees = append(tj.Assignees, string(a))
	}
	for _, d := range t.DaysOfWeek {
		tj.DaysOfWeek = append(tj.DaysOfWeek, int(d))
	}
	if n, ok := t.DayOfMonth.Int(); ok {
		tj.DayOfMonth = &n
	}
	if t.DeactivatedAt != nil {
		tj.DeactivatedAt = t.DeactivatedAt.String()
	}
	if !t.CreatedAt.IsZero() {
		c := t.CreatedAt
		tj.CreatedAt = &c
	}
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		tj.UpdatedAt = &u
	}
	return tj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseScope(kind, department string, problems *generic.ValidationError) recurrence.Scope {
	department = strings.TrimSpace(department)
	switch recurrence.ScopeKind(strings.ToUpper(strings.TrimSpace(kind))) {
	case "":
		return nil
	case recurrence.ScopeKindAll:
		if department != "" {
			problems.Add("department_id", "only allowed for DEPARTMENT scope")
		}
		return recurrence.ScopeAll{}
	case recurrence.ScopeKindGA:
		if department != "" {
			problems.Add("department_id", "only allowed for DEPARTMENT scope")
		}
		return recurrence.ScopeGA{}
	case recurrence.ScopeKindDepartment:
		return recurrence.ScopeDepartment{DepartmentID: generic.DepartmentID(department)}
	default:
		problems.Add("scope", "unknown scope %q", kind)
		// Returned so Validate does not add a second "scope is required".
		return recurrence.ScopeAll{}
	}
}

// mergeProblems appends validation problems, skipping fields that already
// failed to decode.
func mergeProblems(dst *generic.ValidationError, err error) {
	var v *generic.ValidationError
	if !errors.As(err, &v) {
		return
	}
	seen := make(map[string]bool, len(dst.Problems))
	for _, p := range dst.Problems {
		seen[p.Field] = true
	}
	for _, p := range v.Problems {
		if !seen[p.Field] {
			dst.Problems = append(dst.Problems, p)
		}
	}
}
