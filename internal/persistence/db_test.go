package persistence

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/der-cain/npc-town/internal/engine"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJournal_RecordsRun(t *testing.T) {
	db := openTemp(t)

	runID, err := db.StartRun(42, "seed: 42\n")
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	require.NoError(t, err)

	events := []engine.Event{
		{Day: 1, Time: "05:00", Agent: 1, Role: "harvester", Category: "harvest", Description: "Ada picks grapes"},
		{Day: 1, Time: "09:12", Agent: 4, Role: "customer", Category: "sale", Description: "Bo buys a bottle of wine"},
	}
	require.NoError(t, db.RecordDay(runID, engine.DayStats{Day: 1, Harvested: 1, Sold: 1, Revenue: 12, Customers: 1}, events))
	require.NoError(t, db.RecordDay(runID, engine.DayStats{Day: 2, Harvested: 3}, nil))
	require.NoError(t, db.FinishRun(runID, 2))

	days, err := db.Days(runID)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 12, days[0].Revenue)
	assert.Equal(t, 3, days[1].Harvested)

	recent, err := db.RecentEvents(runID, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, events[1], recent[0])

	run, err := db.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, 2, run.Days)
	assert.NotNil(t, run.FinishedAt)
}

func TestJournal_SaveDayReplaces(t *testing.T) {
	db := openTemp(t)
	runID, err := db.StartRun(1, "")
	require.NoError(t, err)

	require.NoError(t, db.SaveDay(runID, engine.DayStats{Day: 1, Sold: 2}))
	require.NoError(t, db.SaveDay(runID, engine.DayStats{Day: 1, Sold: 5}))

	days, err := db.Days(runID)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 5, days[0].Sold)
}

func TestJournal_RunsAreSeparate(t *testing.T) {
	db := openTemp(t)
	a, err := db.StartRun(1, "")
	require.NoError(t, err)
	b, err := db.StartRun(2, "")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	require.NoError(t, db.SaveEvents(a, []engine.Event{{Day: 1, Time: "06:00", Category: "work"}}))

	got, err := db.RecentEvents(b, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJournal_FinishUnknownRun(t *testing.T) {
	db := openTemp(t)
	assert.Error(t, db.FinishRun("missing", 1))
}
