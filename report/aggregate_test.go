package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
	"github.com/warp/recurring-engine/report"
)

func compose(filter report.Filter, entries map[recurrence.Key]recurrence.Entry) report.Result {
	return report.Compose(report.Input{
		AsOf:           asOf,
		OverdueHorizon: report.DefaultOverdueHorizon,
		Filter:         filter,
		Templates:      testTemplates(),
		Entries:        entries,
		Tasks:          testTasks(),
		Directory:      testDirectory(),
	})
}

// =============================================================================
// SOURCES AND ORDERING
// =============================================================================

func TestCompose_MergesSourcesInCanonicalOrder(t *testing.T) {
	// GIVEN: Three templates and six tasks
	// WHEN: Composing the report for Tuesday 2024-03-12
	// THEN: High priority first, then templates by frequency rank, then
	//       ad-hoc tasks newest first
	res := compose(report.Filter{}, nil)

	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, []string{
		"occ:monthly-all:2024-03-11",
		"occ:daily-fin:2024-03-12",
		"occ:weekly-ga:2024-03-12",
		"task:t-fast",
		"task:t-done-today",
		"task:t-proj",
	}, keys(res.Rows))
}

func TestCompose_DerivedFields(t *testing.T) {
	res := compose(report.Filter{}, nil)

	overdue, ok := findRow(res.Rows, "occ:monthly-all:2024-03-11")
	require.True(t, ok)
	assert.Equal(t, report.TypeSystem, overdue.TypeLabel)
	assert.Equal(t, "M", overdue.Subtype)
	assert.Equal(t, "ALL", overdue.DepartmentLabel)
	assert.Equal(t, string(recurrence.StatusNotDone), overdue.EffectiveStatus)
	assert.Equal(t, report.AgingYesterday, overdue.AgingLabel)

	proj, ok := findRow(res.Rows, "task:t-proj")
	require.True(t, ok)
	assert.Equal(t, report.TypeProject, proj.TypeLabel)
	assert.Equal(t, report.SubtypeNormal, proj.Subtype)
	assert.Equal(t, "FIN", proj.DepartmentLabel)
	assert.Equal(t, "2", proj.AgingLabel)

	done, ok := findRow(res.Rows, "task:t-done-today")
	require.True(t, ok)
	assert.Equal(t, generic.PM, done.Period)
	assert.Equal(t, report.AgingToday, done.AgingLabel)
	assert.Equal(t, "OPS", done.DepartmentLabel)
}

func TestCompose_OverdueResolvedYesterdayDropped(t *testing.T) {
	// GIVEN: Yesterday's occurrence marked done yesterday
	acted := time.Date(2024, time.March, 11, 17, 0, 0, 0, time.UTC)
	entries := map[recurrence.Key]recurrence.Entry{}
	e := recurrence.Entry{TemplateID: "monthly-all", Date: asOf.AddDays(-1), Status: recurrence.StatusDone, ActedAt: &acted}
	entries[e.Key()] = e

	res := compose(report.Filter{}, entries)

	_, ok := findRow(res.Rows, "occ:monthly-all:2024-03-11")
	assert.False(t, ok)
}

func TestCompose_OverdueResolvedTodayKept(t *testing.T) {
	// GIVEN: Yesterday's occurrence marked done this morning
	acted := time.Date(2024, time.March, 12, 9, 30, 0, 0, time.UTC)
	entries := map[recurrence.Key]recurrence.Entry{}
	e := recurrence.Entry{TemplateID: "monthly-all", Date: asOf.AddDays(-1), Status: recurrence.StatusDone, Comment: "late", ActedAt: &acted}
	entries[e.Key()] = e

	res := compose(report.Filter{}, entries)

	row, ok := findRow(res.Rows, "occ:monthly-all:2024-03-11")
	require.True(t, ok)
	assert.Equal(t, "done", row.EffectiveStatus)
	assert.Equal(t, report.AgingToday, row.AgingLabel)
	assert.Equal(t, "late", row.Comment)
}

func TestCompose_OverdueScanStartsAtCreation(t *testing.T) {
	// GIVEN: A daily template created today
	// THEN: No overdue occurrences before today
	res := compose(report.Filter{UserID: "alice"}, nil)

	for _, r := range res.Rows {
		if r.TemplateID == "daily-fin" {
			assert.Equal(t, "2024-03-12", r.Date.String())
		}
	}
}

func TestCompose_MalformedTemplateSkipped(t *testing.T) {
	broken := monthlyAll()
	broken.ID = "broken"
	broken.DayOfMonth = recurrence.DayOfMonth{}

	res := report.Compose(report.Input{
		AsOf:      asOf,
		Templates: append(testTemplates(), broken),
		Directory: testDirectory(),
	})

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, generic.TemplateID("broken"), res.Diagnostics[0].TemplateID)
	assert.NotEmpty(t, res.Rows)
}

func TestCompose_DuplicateTaskRowsMerged(t *testing.T) {
	tasks := testTasks()
	tasks = append(tasks, tasks[0])

	res := report.Compose(report.Input{AsOf: asOf, Tasks: tasks, Directory: testDirectory()})

	count := 0
	for _, r := range res.Rows {
		if r.SourceKey == "task:t-fast" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

// =============================================================================
// FILTERS
// =============================================================================

func TestCompose_DepartmentFilter(t *testing.T) {
	// FIN sees its own template, the ALL template and alice's project task.
	res := compose(report.Filter{DepartmentID: "fin"}, nil)

	assert.ElementsMatch(t, []string{
		"occ:monthly-all:2024-03-11",
		"occ:daily-fin:2024-03-12",
		"task:t-proj",
	}, keys(res.Rows))
}

func TestCompose_DepartmentFilter_GAByAssigneeHome(t *testing.T) {
	res := compose(report.Filter{DepartmentID: "ops"}, nil)

	assert.Contains(t, keys(res.Rows), "occ:weekly-ga:2024-03-12")
	assert.NotContains(t, keys(res.Rows), "occ:daily-fin:2024-03-12")
}

func TestCompose_UserFilter(t *testing.T) {
	res := compose(report.Filter{UserID: "bob"}, nil)

	assert.ElementsMatch(t, []string{"occ:monthly-all:2024-03-11", "task:t-fast"}, keys(res.Rows))
}
