/*
weekly.go - Weekly planning table

PURPOSE:
  Builds the Monday..Friday grid used for weekly planning:

    Department -> Day -> AM/PM -> User -> {Projects, System tasks, Fast tasks}

  Project work is grouped per project with a task count and the summed daily
  products. Every user in scope appears in every slot, even when empty, so
  the grid has a fixed shape.

PLACEMENT:
  A template occurrence lands under each assignee on its date. A task lands
  under each owner on every weekday of its start..due span. A user sits in
  their home department; users without one are not shown.

SEE ALSO:
  - fields.go: Row derivation shared with the daily report
  - engine.go: BuildWeeklyTable loads the inputs
*/
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
)

type WeeklyInput struct {
	WeekStart    generic.TimePoint // any day of the week; normalized to Monday
	DepartmentID generic.DepartmentID
	Today        generic.TimePoint // classifies entry-less occurrences; zero = each day itself
	Templates    []recurrence.Template
	Entries      map[recurrence.Key]recurrence.Entry
	Tasks        []Task
	Directory    *Directory
	Location     *time.Location // day-boundary zone; nil means UTC
}

type WeeklyTable struct {
	Week        generic.Period
	Departments []DepartmentWeek
	Diagnostics []Diagnostic
}

type DepartmentWeek struct {
	Department Department
	Days       []DayColumn
}

type DayColumn struct {
	Date    generic.TimePoint
	Weekday recurrence.Weekday
	Slots   []PeriodSlot
}

type PeriodSlot struct {
	Period generic.DayPeriod
	Users  []UserCell
}

type UserCell struct {
	User        User
	Projects    []ProjectGroup
	SystemTasks []Row
	FastTasks   []Row
}

// ProjectGroup collects one user's project rows for one slot.
type ProjectGroup struct {
	ProjectID     generic.ProjectID
	Name          string
	TaskCount     int
	DailyProducts decimal.Decimal
	Tasks         []Row
}

type cellKey struct {
	day    int
	period generic.DayPeriod
	user   generic.UserID
}

// BuildWeekly assembles the weekly table. It performs no I/O.
func BuildWeekly(in WeeklyInput) WeeklyTable {
	dir := in.Directory
	if dir == nil {
		dir = NewDirectory(nil, nil, nil)
	}
	week := generic.WorkWeek(in.WeekStart)
	table := WeeklyTable{Week: week}

	// Users in scope, bucketed by home department.
	usersByDept := make(map[generic.DepartmentID][]User)
	inScope := make(map[generic.UserID]bool)
	for _, u := range dir.Users() {
		if u.DepartmentID == "" {
			continue
		}
		if in.DepartmentID != "" && u.DepartmentID != in.DepartmentID {
			continue
		}
		usersByDept[u.DepartmentID] = append(usersByDept[u.DepartmentID], u)
		inScope[u.ID] = true
	}

	cells := make(map[cellKey][]Row)
	place := func(dayIndex int, r Row) {
		for _, user := range r.UserIDs {
			if !inScope[user] {
				continue
			}
			k := cellKey{day: dayIndex, period: r.Period, user: user}
			cells[k] = append(cells[k], r)
		}
	}

	filter := Filter{DepartmentID: in.DepartmentID}
	days := week.Days()
	entries := entriesInZone(in.Entries, in.Location)

	for _, t := range in.Templates {
		if err := recurrence.Validate(t, nil); err != nil {
			table.Diagnostics = append(table.Diagnostics, Diagnostic{TemplateID: t.ID, Message: err.Error()})
			continue
		}
		if !TemplateMatches(t, filter, dir) {
			continue
		}
		for _, date := range recurrence.Resolve(t, week.Start, week.End) {
			today := in.Today
			if today.IsZero() {
				today = date
			}
			dayIndex := generic.DaysBetween(week.Start, date)
			place(dayIndex, OccurrenceRow(t, date, lookupEntry(entries, t.ID, date), today, dir))
		}
	}

	for _, task := range tasksInZone(in.Tasks, in.Location) {
		if task.Archived || task.Status == TaskCancelled {
			continue
		}
		if !TaskMatches(task, filter, dir) {
			continue
		}
		span, ok := task.Span()
		if !ok {
			continue
		}
		for i, day := range days {
			if span.Contains(day) {
				today := in.Today
				if today.IsZero() {
					today = day
				}
				place(i, TaskRow(task, today, dir))
			}
		}
	}

	departments := dir.Departments()
	if in.DepartmentID != "" {
		if _, known := dir.Department(in.DepartmentID); !known {
			departments = append(departments, Department{ID: in.DepartmentID, Code: string(in.DepartmentID)})
		}
	}

	for _, dep := range departments {
		users := usersByDept[dep.ID]
		if in.DepartmentID != "" && dep.ID != in.DepartmentID {
			continue
		}
		if in.DepartmentID == "" && len(users) == 0 {
			continue
		}
		dw := DepartmentWeek{Department: dep}
		for i, day := range days {
			col := DayColumn{Date: day, Weekday: recurrence.Weekday(i)}
			for _, period := range generic.DayPeriods {
				slot := PeriodSlot{Period: period}
				for _, u := range users {
					slot.Users = append(slot.Users, buildCell(u, cells[cellKey{day: i, period: period, user: u.ID}], dir))
				}
				col.Slots = append(col.Slots, slot)
			}
			dw.Days = append(dw.Days, col)
		}
		table.Departments = append(table.Departments, dw)
	}

	return table
}

func buildCell(u User, rows []Row, dir *Directory) UserCell {
	cell := UserCell{User: u, Projects: []ProjectGroup{}, SystemTasks: []Row{}, FastTasks: []Row{}}
	groups := make(map[generic.ProjectID]*ProjectGroup)

	SortRows(rows)
	for _, r := range rows {
		switch r.TypeLabel {
		case TypeSystem:
			cell.SystemTasks = append(cell.SystemTasks, r)
		case TypeFast:
			cell.FastTasks = append(cell.FastTasks, r)
		case TypeProject:
			g, ok := groups[r.ProjectID]
			if !ok {
				name := string(r.ProjectID)
				if p, found := dir.Project(r.ProjectID); found {
					name = p.Name
				}
				g = &ProjectGroup{ProjectID: r.ProjectID, Name: name, DailyProducts: decimal.Zero}
				groups[r.ProjectID] = g
			}
			g.TaskCount++
			if r.DailyProducts != nil {
				g.DailyProducts = g.DailyProducts.Add(*r.DailyProducts)
			}
			g.Tasks = append(g.Tasks, r)
		}
	}

	for _, g := range groups {
		cell.Projects = append(cell.Projects, *g)
	}
	sort.Slice(cell.Projects, func(i, j int) bool {
		ni, nj := strings.ToLower(cell.Projects[i].Name), strings.ToLower(cell.Projects[j].Name)
		if ni != nj {
			return ni < nj
		}
		return cell.Projects[i].ProjectID < cell.Projects[j].ProjectID
	})
	return cell
}
