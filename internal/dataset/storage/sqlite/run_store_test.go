package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occupancy.dataset/internal/dataset/l4windows"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l5folds"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/pipeline"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testReport(id string, started time.Time) *pipeline.Report {
	diskFull := errors.New("disk full")
	return &pipeline.Report{
		RunID:        id,
		StartedAt:    started,
		Status:       pipeline.StatusPartial,
		Folds:        2,
		Seed:         42,
		OutputDir:    "out",
		ScaleMethod:  "robust",
		DaysKept:     3,
		DaysRejected: 1,
		Groups:       3,
		Windows:      l4windows.Stats{Days: 3, Windows: 30, Rows: 300},
		Rejected: []pipeline.RejectedDay{
			{Location: "u4b", Day: "2023-03-14", Gaps: []string{"09:00-09:06", "15:58-16:00"}},
		},
		FoldResults: []l5folds.FoldResult{
			{Fold: 1, Dir: "out/fold_1", TestGroups: 1, TrainGroups: 2, TestRows: 100, TrainRows: 200},
			{Fold: 2, Dir: "out/fold_2", TestGroups: 2, TrainGroups: 1, TestRows: 200, TrainRows: 100, Err: diskFull},
		},
		Total: 1500 * time.Millisecond,
		Err:   diskFull,
	}
}

func TestOpen_MigratesToLatest(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	v, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.False(t, dirty)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	// Migrating again is a no-op.
	assert.NoError(t, db.MigrateUp(nil))
}

func TestRunStore_InsertAndGet(t *testing.T) {
	t.Parallel()

	store := NewRunStore(openTestDB(t))
	started := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	require.NoError(t, store.Insert(testReport("run-a", started)))

	got, err := store.Get("run-a")
	require.NoError(t, err)
	want := &Run{
		RunID:        "run-a",
		StartedAt:    started,
		Status:       "partial",
		Folds:        2,
		Seed:         42,
		OutputDir:    "out",
		ScaleMethod:  "robust",
		DaysKept:     3,
		DaysRejected: 1,
		Groups:       3,
		Windows:      30,
		Rows:         300,
		Total:        1500 * time.Millisecond,
		Error:        "disk full",
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Run{}, "ReportJSON")); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, got.ReportJSON, `"run_id": "run-a"`)

	folds, err := store.ListFolds("run-a")
	require.NoError(t, err)
	require.Len(t, folds, 2)
	assert.Empty(t, folds[0].Error)
	assert.Equal(t, "disk full", folds[1].Error)
	assert.Equal(t, 200, folds[1].TestRows)

	rejected, err := store.ListRejected("run-a")
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, []string{"09:00-09:06", "15:58-16:00"}, rejected[0].Gaps)
}

func TestRunStore_DuplicateRunIDRejected(t *testing.T) {
	t.Parallel()

	store := NewRunStore(openTestDB(t))
	rep := testReport("dup", time.Unix(0, 0))
	require.NoError(t, store.Insert(rep))
	assert.Error(t, store.Insert(rep))

	folds, err := store.ListFolds("dup")
	require.NoError(t, err)
	assert.Len(t, folds, 2, "failed insert rolled back")
}

func TestRunStore_ListAndDelete(t *testing.T) {
	t.Parallel()

	store := NewRunStore(openTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, store.Insert(testReport(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].RunID)
	assert.Equal(t, "second", runs[1].RunID)

	require.NoError(t, store.Delete("second"))
	_, err = store.Get("second")
	assert.ErrorIs(t, err, ErrNotFound)
	folds, err := store.ListFolds("second")
	require.NoError(t, err)
	assert.Empty(t, folds, "folds cascade")

	assert.ErrorIs(t, store.Delete("second"), ErrNotFound)

	all, err := store.List(0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
