/*
zone.go - Day-boundary zone

PURPOSE:
  Stores hand back timestamps in whatever zone they persist (the SQLite
  ledger and the directory keep UTC). Every date and hour the report derives
  is read on one calendar, so inputs are moved into that zone before Compose
  and BuildWeekly look at them. A nil location means UTC.

SEE ALSO:
  - engine.go: Engine.Location and Engine.Day
  - config/config.go: report.timezone
*/
package report

import (
	"time"

	"github.com/warp/recurring-engine/recurrence"
)

func zoneOf(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

func inZone(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}

func tasksInZone(tasks []Task, loc *time.Location) []Task {
	loc = zoneOf(loc)
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		t.StartAt = inZone(t.StartAt, loc)
		t.DueAt = inZone(t.DueAt, loc)
		t.CompletedAt = inZone(t.CompletedAt, loc)
		t.CreatedAt = t.CreatedAt.In(loc)
		out[i] = t
	}
	return out
}

func entriesInZone(entries map[recurrence.Key]recurrence.Entry, loc *time.Location) map[recurrence.Key]recurrence.Entry {
	loc = zoneOf(loc)
	out := make(map[recurrence.Key]recurrence.Entry, len(entries))
	for k, e := range entries {
		e.ActedAt = inZone(e.ActedAt, loc)
		out[k] = e
	}
	return out
}
