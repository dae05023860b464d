/*
Package directory is the gorm-backed read model of the records the report
engine does not own: departments, users, projects and ad-hoc tasks.

INTERFACES IMPLEMENTED:
  report.DirectorySource: LoadDirectory
  report.TaskSource:      ListTasks

  The Save* methods exist for the demo scenario loader and tests. In a real
  deployment another application writes these tables.

TASK QUERIES:
  ListTasks narrows by department, user and a window with a one-day slack on
  each side. The aggregator applies the exact date rules, so returning a few
  extra rows is harmless.

SEE ALSO:
  - report/types.go: Source interfaces
  - store/sqlite: Templates and the occurrence ledger
*/
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/warp/recurring-engine/report"
)

type Store struct {
	db *gorm.DB
}

// New opens a SQLite database through gorm and runs migrations.
// Use ":memory:" for an in-memory database.
func New(dsn string, log *slog.Logger) (*Store, error) {
	if dsn == "" {
		dsn = "directory.db"
	}
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	dbLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Department{}, &User{}, &Project{}, &Task{}, &TaskAssignee{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) LoadDirectory(ctx context.Context) (*report.Directory, error) {
	var deps []Department
	if err := s.db.WithContext(ctx).Order("code").Find(&deps).Error; err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	var users []User
	if err := s.db.WithContext(ctx).Order("name").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var projects []Project
	if err := s.db.WithContext(ctx).Order("name").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	rd := make([]report.Department, len(deps))
	for i, d := range deps {
		rd[i] = d.toReport()
	}
	ru := make([]report.User, len(users))
	for i, u := range users {
		ru[i] = u.toReport()
	}
	rp := make([]report.Project, len(projects))
	for i, p := range projects {
		rp[i] = p.toReport()
	}
	return report.NewDirectory(rd, ru, rp), nil
}

func (s *Store) SaveDepartment(ctx context.Context, d report.Department) error {
	row := Department{ID: string(d.ID), Code: d.Code, Name: d.Name}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("save department: %w", err)
	}
	return nil
}

func (s *Store) SaveUser(ctx context.Context, u report.User) error {
	row := User{ID: string(u.ID), Name: u.Name, DepartmentID: string(u.DepartmentID)}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) SaveProject(ctx context.Context, p report.Project) error {
	row := Project{ID: string(p.ID), Name: p.Name, DepartmentID: string(p.DepartmentID), Active: p.Active}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// =============================================================================
// TASKS
// =============================================================================

// SaveTask upserts a task and replaces its assignee list.
func (s *Store) SaveTask(ctx context.Context, t report.Task) error {
	row := taskFromReport(t)
	assignees := row.Assignees
	row.Assignees = nil

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", row.ID).Delete(&TaskAssignee{}).Error; err != nil {
			return err
		}
		if len(assignees) == 0 {
			return nil
		}
		return tx.Create(&assignees).Error
	})
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// ListTasks returns non-archived tasks matching q, with assignees loaded.
func (s *Store) ListTasks(ctx context.Context, q report.TaskQuery) ([]report.Task, error) {
	tx := s.db.WithContext(ctx).Preload("Assignees").Where("archived = ?", false)

	if q.UserID != "" {
		owned := s.db.Model(&TaskAssignee{}).Select("task_id").Where("user_id = ?", string(q.UserID))
		tx = tx.Where("assigned_to = ? OR id IN (?)", string(q.UserID), owned)
	}

	if q.DepartmentID != "" {
		dep := string(q.DepartmentID)
		members := s.db.Model(&User{}).Select("id").Where("department_id = ?", dep)
		projects := s.db.Model(&Project{}).Select("id").Where("department_id = ?", dep)
		memberTasks := s.db.Model(&TaskAssignee{}).Select("task_id").Where("user_id IN (?)", members)
		tx = tx.Where("department_id = ? OR project_id IN (?) OR assigned_to IN (?) OR id IN (?)", dep, projects, members, memberTasks)
	}

	if !q.From.IsZero() && !q.To.IsZero() {
		from := q.From.Time.AddDate(0, 0, -1).UTC()
		to := q.To.Time.AddDate(0, 0, 2).UTC()
		if q.IncludeOverdue {
			tx = tx.Where(
				"(status NOT IN (?) AND COALESCE(due_at, start_at) < ?) OR (completed_at >= ? AND completed_at < ?)",
				[]string{string(report.TaskDone), string(report.TaskCancelled)}, to, from, to,
			)
		} else {
			tx = tx.Where("status <> ? AND COALESCE(due_at, start_at) >= ? AND COALESCE(start_at, due_at) < ?",
				string(report.TaskCancelled), from, to)
		}
	}

	var rows []Task
	if err := tx.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	out := make([]report.Task, len(rows))
	for i, r := range rows {
		out[i] = r.toReport()
	}
	return out, nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&TaskAssignee{}, &Task{}, &Project{}, &User{}, &Department{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
