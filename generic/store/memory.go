// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
	"github.com/warp/recurring-engine/report"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================
// Implements recurrence.TemplateStore, recurrence.LedgerStore,
// report.TaskSource and report.DirectorySource.

type Memory struct {
	mu        sync.RWMutex
	templates map[generic.TemplateID]recurrence.Template
	// entries per template, kept sorted by date
	entries map[generic.TemplateID][]recurrence.Entry

	tasks       map[generic.TaskID]report.Task
	departments []report.Department
	users       []report.User
	projects    []report.Project
}

func NewMemory() *Memory {
	return &Memory{
		templates: make(map[generic.TemplateID]recurrence.Template),
		entries:   make(map[generic.TemplateID][]recurrence.Entry),
		tasks:     make(map[generic.TaskID]report.Task),
	}
}

// =============================================================================
// TEMPLATES
// =============================================================================

func (m *Memory) SaveTemplate(_ context.Context, t recurrence.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = copyTemplate(t)
	return nil
}

func (m *Memory) GetTemplate(_ context.Context, id generic.TemplateID) (*recurrence.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, nil
	}
	out := copyTemplate(t)
	return &out, nil
}

func (m *Memory) ListTemplates(_ context.Context) ([]recurrence.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]recurrence.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, copyTemplate(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyTemplate(t recurrence.Template) recurrence.Template {
	t.Assignees = append([]generic.UserID(nil), t.Assignees...)
	t.DaysOfWeek = append([]recurrence.Weekday(nil), t.DaysOfWeek...)
	if t.DeactivatedAt != nil {
		d := *t.DeactivatedAt
		t.DeactivatedAt = &d
	}
	return t
}

// =============================================================================
// LEDGER
// =============================================================================

func (m *Memory) GetEntry(_ context.Context, k recurrence.Key) (*recurrence.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries[k.TemplateID] {
		if e.Key() == k {
			out := e
			return &out, nil
		}
	}
	return nil, nil
}

// PutEntry replaces any entry with the same key. Last write wins.
func (m *Memory) PutEntry(_ context.Context, entry recurrence.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.entries[entry.TemplateID]
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Date.AfterOrEqual(entry.Date)
	})
	if i < len(entries) && entries[i].Date.Equal(entry.Date) {
		entries[i] = entry
		return nil
	}
	entries = append(entries, recurrence.Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = entry
	m.entries[entry.TemplateID] = entries
	return nil
}

func (m *Memory) ListEntries(_ context.Context, templateIDs []generic.TemplateID, from, to generic.TimePoint) ([]recurrence.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := templateIDs
	if len(ids) == 0 {
		for id := range m.entries {
			ids = append(ids, id)
		}
	}
	var out []recurrence.Entry
	for _, id := range ids {
		for _, e := range m.entries[id] {
			if from.BeforeOrEqual(e.Date) && e.Date.BeforeOrEqual(to) {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// =============================================================================
// TASKS AND DIRECTORY
// =============================================================================

func (m *Memory) SaveTask(_ context.Context, t report.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Assignees = append([]generic.UserID(nil), t.Assignees...)
	m.tasks[t.ID] = t
	return nil
}

// ListTasks applies the coarse department and user filters; the window is
// left to the aggregator.
func (m *Memory) ListTasks(_ context.Context, q report.TaskQuery) ([]report.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []report.Task
	for _, t := range m.tasks {
		if t.Archived {
			continue
		}
		if q.UserID != "" && !ownedBy(t, q.UserID) {
			continue
		}
		if q.DepartmentID != "" && !m.inDepartmentLocked(t, q.DepartmentID) {
			continue
		}
		t.Assignees = append([]generic.UserID(nil), t.Assignees...)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func ownedBy(t report.Task, user generic.UserID) bool {
	for _, owner := range t.Owners() {
		if owner == user {
			return true
		}
	}
	return false
}

func (m *Memory) inDepartmentLocked(t report.Task, dep generic.DepartmentID) bool {
	if t.DepartmentID == dep {
		return true
	}
	for _, p := range m.projects {
		if p.ID == t.ProjectID && p.DepartmentID == dep {
			return true
		}
	}
	for _, owner := range t.Owners() {
		for _, u := range m.users {
			if u.ID == owner && u.DepartmentID == dep {
				return true
			}
		}
	}
	return false
}

func (m *Memory) SaveDepartment(_ context.Context, d report.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments = append(m.departments, d)
	return nil
}

func (m *Memory) SaveUser(_ context.Context, u report.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
	return nil
}

func (m *Memory) SaveProject(_ context.Context, p report.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = append(m.projects, p)
	return nil
}

func (m *Memory) LoadDirectory(_ context.Context) (*report.Directory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return report.NewDirectory(m.departments, m.users, m.projects), nil
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = make(map[generic.TemplateID]recurrence.Template)
	m.entries = make(map[generic.TemplateID][]recurrence.Entry)
	m.tasks = make(map[generic.TaskID]report.Task)
	m.departments, m.users, m.projects = nil, nil, nil
	return nil
}
