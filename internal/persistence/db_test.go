package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRun(path string) *Run {
	return &Run{
		Rows:         2,
		Cols:         2,
		Agents:       2,
		Reliability:  0.8,
		Discount:     0.95,
		Actions:      "N",
		States:       16,
		JointActions: 1,
		Observations: 4,
		Transitions:  100,
		Bytes:        3120,
		Path:         path,
		DurationMS:   3,
	}
}

func TestRecordAndListRuns(t *testing.T) {
	db := openTestDB(t)

	first := sampleRun("a.POMDP")
	first.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, db.RecordRun(first))
	assert.NotEmpty(t, first.ID)

	second := sampleRun("b.POMDP")
	require.NoError(t, db.RecordRun(second))
	assert.False(t, second.CreatedAt.IsZero())

	runs, err := db.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b.POMDP", runs[0].Path)
	assert.Equal(t, "a.POMDP", runs[1].Path)

	got := runs[1]
	assert.Equal(t, first.ID, got.ID)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, "N", got.Actions)
	assert.Equal(t, 16, got.States)
	assert.Equal(t, 100, got.Transitions)
	assert.Equal(t, int64(3120), got.Bytes)
	assert.Equal(t, 0.8, got.Reliability)

	limited, err := db.RecentRuns(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGetRunByPrefix(t *testing.T) {
	db := openTestDB(t)
	r := sampleRun("c.POMDP")
	r.ID = "abc-123"
	require.NoError(t, db.RecordRun(r))

	got, err := db.GetRun("abc")
	require.NoError(t, err)
	assert.Equal(t, "c.POMDP", got.Path)

	_, err = db.GetRun("zzz")
	assert.Error(t, err)

	other := sampleRun("d.POMDP")
	other.ID = "abd-456"
	require.NoError(t, db.RecordRun(other))
	_, err = db.GetRun("ab")
	assert.Error(t, err)
}

func TestDuplicateIDRejected(t *testing.T) {
	db := openTestDB(t)
	r := sampleRun("e.POMDP")
	require.NoError(t, db.RecordRun(r))
	dup := sampleRun("f.POMDP")
	dup.ID = r.ID
	assert.Error(t, db.RecordRun(dup))
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.RecordRun(sampleRun("g.POMDP")))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.RecentRuns(5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
