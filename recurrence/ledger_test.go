package recurrence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/generic/store"
	"github.com/warp/recurring-engine/recurrence"
)

func newTestLedger() *recurrence.Ledger {
	return recurrence.NewLedger(store.NewMemory())
}

func TestEffectiveStatus_Defaults(t *testing.T) {
	today := day(2024, time.March, 12)

	assert.Equal(t, recurrence.StatusOpen, recurrence.EffectiveStatus(nil, today, today))
	assert.Equal(t, recurrence.StatusOpen, recurrence.EffectiveStatus(nil, today.AddDays(3), today))
	assert.Equal(t, recurrence.StatusNotDone, recurrence.EffectiveStatus(nil, today.AddDays(-1), today))
}

func TestLedger_StatusWithoutEntry_NotPersisted(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()
	past := day(2024, time.March, 1)

	status, entry, err := ledger.Status(ctx, "tpl", past, day(2024, time.March, 12))

	require.NoError(t, err)
	assert.Equal(t, recurrence.StatusNotDone, status)
	assert.Nil(t, entry)

	stored, err := ledger.Store.ListEntries(ctx, nil, past, past)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestLedger_Upsert_LastWriteWins(t *testing.T) {
	// GIVEN: Two writes to the same occurrence
	// WHEN: Reading it back
	// THEN: Only the later write survives
	ctx := context.Background()
	ledger := newTestLedger()
	date := day(2024, time.March, 11)
	acted := time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Upsert(ctx, recurrence.Entry{TemplateID: "tpl", Date: date, Status: recurrence.StatusDone, Comment: "first", ActedAt: &acted}))
	require.NoError(t, ledger.Upsert(ctx, recurrence.Entry{TemplateID: "tpl", Date: date, Status: recurrence.StatusSkipped, Comment: "second", ActedAt: &acted}))

	status, entry, err := ledger.Status(ctx, "tpl", date, date)
	require.NoError(t, err)
	assert.Equal(t, recurrence.StatusSkipped, status)
	require.NotNil(t, entry)
	assert.Equal(t, "second", entry.Comment)

	all, err := ledger.Entries(ctx, []generic.TemplateID{"tpl"}, date, date)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLedger_Upsert_RejectsUnknownStatus(t *testing.T) {
	err := newTestLedger().Upsert(context.Background(), recurrence.Entry{TemplateID: "tpl", Date: day(2024, time.March, 11), Status: "maybe"})

	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func TestLedger_Entries_RangeAndTemplateFilter(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()
	for _, e := range []recurrence.Entry{
		{TemplateID: "a", Date: day(2024, time.March, 1), Status: recurrence.StatusDone},
		{TemplateID: "a", Date: day(2024, time.March, 5), Status: recurrence.StatusDone},
		{TemplateID: "b", Date: day(2024, time.March, 2), Status: recurrence.StatusDone},
	} {
		require.NoError(t, ledger.Upsert(ctx, e))
	}

	got, err := ledger.Entries(ctx, []generic.TemplateID{"a"}, day(2024, time.March, 1), day(2024, time.March, 3))

	require.NoError(t, err)
	assert.Len(t, got, 1)
	_, ok := got[recurrence.NewKey("a", day(2024, time.March, 1))]
	assert.True(t, ok)
}
