package directory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/report"
)

// Department is a row of the departments table.
type Department struct {
	ID        string `gorm:"primaryKey"`
	Code      string `gorm:"uniqueIndex"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	DepartmentID string `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Project struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	DepartmentID string `gorm:"index"`
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Task is an ad-hoc task. Assignees live in task_assignees.
type Task struct {
	ID           string `gorm:"primaryKey"`
	Title        string
	Description  string
	Status       string `gorm:"index"`
	Priority     string
	FinishPeriod string

	StartAt     *time.Time
	DueAt       *time.Time `gorm:"index"`
	CompletedAt *time.Time

	AssignedTo   string `gorm:"index"`
	ProjectID    string `gorm:"index"`
	DepartmentID string `gorm:"index"`

	IsBllok      bool
	Is1HReport   bool `gorm:"column:is_1h_report"`
	IsR1         bool `gorm:"column:is_r1"`
	IsPersonal   bool
	OriginNoteID string

	DailyProducts decimal.NullDecimal `gorm:"type:text"`
	Comment       string
	Archived      bool `gorm:"index"`

	Assignees []TaskAssignee `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TaskAssignee struct {
	TaskID string `gorm:"primaryKey"`
	UserID string `gorm:"primaryKey;index"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func (d Department) toReport() report.Department {
	return report.Department{ID: generic.DepartmentID(d.ID), Code: d.Code, Name: d.Name}
}

func (u User) toReport() report.User {
	return report.User{ID: generic.UserID(u.ID), Name: u.Name, DepartmentID: generic.DepartmentID(u.DepartmentID)}
}

func (p Project) toReport() report.Project {
	return report.Project{ID: generic.ProjectID(p.ID), Name: p.Name, DepartmentID: generic.DepartmentID(p.DepartmentID), Active: p.Active}
}

func (t Task) toReport() report.Task {
	out := report.Task{
		ID:            generic.TaskID(t.ID),
		Title:         t.Title,
		Description:   t.Description,
		Status:        report.TaskStatus(t.Status),
		Priority:      generic.Priority(t.Priority),
		FinishPeriod:  generic.DayPeriod(t.FinishPeriod),
		StartAt:       t.StartAt,
		DueAt:         t.DueAt,
		CompletedAt:   t.CompletedAt,
		CreatedAt:     t.CreatedAt,
		AssignedTo:    generic.UserID(t.AssignedTo),
		ProjectID:     generic.ProjectID(t.ProjectID),
		DepartmentID:  generic.DepartmentID(t.DepartmentID),
		IsBllok:       t.IsBllok,
		Is1HReport:    t.Is1HReport,
		IsR1:          t.IsR1,
		IsPersonal:    t.IsPersonal,
		OriginNoteID:  t.OriginNoteID,
		Comment:       t.Comment,
		Archived:      t.Archived,
	}
	if t.DailyProducts.Valid {
		d := t.DailyProducts.Decimal
		out.DailyProducts = &d
	}
	for _, a := range t.Assignees {
		out.Assignees = append(out.Assignees, generic.UserID(a.UserID))
	}
	return out
}

func taskFromReport(t report.Task) Task {
	out := Task{
		ID:           string(t.ID),
		Title:        t.Title,
		Description:  t.Description,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		FinishPeriod: string(t.FinishPeriod),
		StartAt:      utc(t.StartAt),
		DueAt:        utc(t.DueAt),
		CompletedAt:  utc(t.CompletedAt),
		AssignedTo:   string(t.AssignedTo),
		ProjectID:    string(t.ProjectID),
		DepartmentID: string(t.DepartmentID),
		IsBllok:      t.IsBllok,
		Is1HReport:   t.Is1HReport,
		IsR1:         t.IsR1,
		IsPersonal:   t.IsPersonal,
		OriginNoteID: t.OriginNoteID,
		Comment:      t.Comment,
		Archived:     t.Archived,
		CreatedAt:    t.CreatedAt,
	}
	if t.DailyProducts != nil {
		out.DailyProducts = decimal.NewNullDecimal(*t.DailyProducts)
	}
	for _, u := range t.Assignees {
		out.Assignees = append(out.Assignees, TaskAssignee{TaskID: string(t.ID), UserID: string(u)})
	}
	return out
}

// utc stores timestamps in one zone so text comparisons in SQLite hold.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
