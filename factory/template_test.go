package factory_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/recurring-engine/factory"
	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
)

func problemFields(t *testing.T, err error) []string {
	t.Helper()
	var v *generic.ValidationError
	require.ErrorAs(t, err, &v)
	fields := make([]string, 0, len(v.Problems))
	for _, p := range v.Problems {
		fields = append(fields, p.Field)
	}
	return fields
}

func TestParseTemplate_Defaults(t *testing.T) {
	f := factory.NewTemplateFactory()

	tpl, err := f.ParseTemplate([]byte(`{
		"title": "Bank reconciliation",
		"scope": "department",
		"department_id": "fin",
		"assignees": ["alice"],
		"frequency": "monthly",
		"day_of_month": 0
	}`))

	require.NoError(t, err)
	_, parseErr := uuid.Parse(string(tpl.ID))
	assert.NoError(t, parseErr, "id should be a uuid")
	assert.Equal(t, generic.PriorityNormal, tpl.Priority)
	assert.True(t, tpl.IsActive)
	assert.Equal(t, recurrence.ScopeDepartment{DepartmentID: "fin"}, tpl.Scope)
	assert.True(t, tpl.DayOfMonth.IsLastDay())
}

func TestParseTemplate_Sentinels(t *testing.T) {
	f := factory.NewTemplateFactory()

	tpl, err := f.ParseTemplate([]byte(`{"id":"q","title":"VAT","scope":"ALL","frequency":"3_months","day_of_month":-1,"month_of_year":2}`))

	require.NoError(t, err)
	assert.Equal(t, generic.TemplateID("q"), tpl.ID)
	assert.True(t, tpl.DayOfMonth.IsFirstWorkingDay())
	assert.Equal(t, 2, tpl.MonthOfYear)
}

func TestParseTemplate_WeeklyDays(t *testing.T) {
	f := factory.NewTemplateFactory()

	tpl, err := f.ParseTemplate([]byte(`{"title":"Stand-up","scope":"GA","frequency":"weekly","days_of_week":[0,2,4],"finish_period":"pm"}`))

	require.NoError(t, err)
	assert.Equal(t, []recurrence.Weekday{recurrence.Monday, recurrence.Wednesday, recurrence.Friday}, tpl.DaysOfWeek)
	assert.Equal(t, generic.PM, tpl.FinishPeriod)
}

func TestParseTemplate_ReportsEveryProblem(t *testing.T) {
	f := factory.NewTemplateFactory()

	_, err := f.ParseTemplate([]byte(`{
		"title": " ",
		"scope": "TEAM",
		"frequency": "monthly",
		"day_of_month": 40,
		"priority": "urgent"
	}`))

	require.Error(t, err)
	assert.True(t, generic.IsClientError(err))
	assert.ElementsMatch(t, []string{"scope", "day_of_month", "title", "priority"}, problemFields(t, err))
}

func TestParseTemplate_DepartmentOnNonDepartmentScope(t *testing.T) {
	f := factory.NewTemplateFactory()

	_, err := f.ParseTemplate([]byte(`{"title":"x","scope":"GA","department_id":"fin","frequency":"daily"}`))

	assert.Equal(t, []string{"department_id"}, problemFields(t, err))
}

func TestParseTemplate_InvalidJSON(t *testing.T) {
	f := factory.NewTemplateFactory()

	_, err := f.ParseTemplate([]byte(`{"title":`))

	assert.Equal(t, []string{"body"}, problemFields(t, err))
}

func TestParseTemplate_DeactivatedAt(t *testing.T) {
	f := factory.NewTemplateFactory()

	tpl, err := f.ParseTemplate([]byte(`{"title":"x","scope":"ALL","frequency":"daily","is_active":false,"deactivated_at":"2024-03-01"}`))

	require.NoError(t, err)
	assert.False(t, tpl.IsActive)
	require.NotNil(t, tpl.DeactivatedAt)
	assert.Equal(t, "2024-03-01", tpl.DeactivatedAt.String())

	_, err = f.ParseTemplate([]byte(`{"title":"x","scope":"ALL","frequency":"daily","deactivated_at":"March"}`))
	assert.Equal(t, []string{"deactivated_at"}, problemFields(t, err))
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewTemplateFactory()
	in := `{"id":"y","title":"Audit","scope":"DEPARTMENT","department_id":"fin","assignees":["alice","bob"],"frequency":"yearly","day_of_month":31,"month_of_year":12,"priority":"high"}`

	tpl, err := f.ParseTemplate([]byte(in))
	require.NoError(t, err)

	out, err := json.Marshal(f.ToJSON(*tpl))
	require.NoError(t, err)

	again, err := f.ParseTemplate(out)
	require.NoError(t, err)
	assert.Equal(t, tpl, again)
}

func TestToJSON_LegacyEncodings(t *testing.T) {
	f := factory.NewTemplateFactory()
	tpl := recurrence.Template{
		ID:         "m",
		Title:      "Close books",
		Scope:      recurrence.ScopeDepartment{DepartmentID: "fin"},
		Frequency:  recurrence.Monthly,
		DayOfMonth: recurrence.LastDay(),
		Priority:   generic.PriorityNormal,
	}

	tj := f.ToJSON(tpl)

	assert.Equal(t, "DEPARTMENT", tj.Scope)
	assert.Equal(t, "fin", tj.DepartmentID)
	require.NotNil(t, tj.DayOfMonth)
	assert.Equal(t, 0, *tj.DayOfMonth)
	require.NotNil(t, tj.IsActive)
	assert.False(t, *tj.IsActive)
	assert.Empty(t, tj.Assignees)
}
