package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsheets/internal/core"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)

	assert.Equal(t, uint(1), v1)
	assert.Equal(t, v1, v2)
}

func TestDownloadRunLifecycle(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return start }

	require.NoError(t, j.StartRun(ctx, "run-1", KindDownload, "bank"))

	outcomes := []core.Outcome{
		core.Ok("Jan", core.NewTable([]string{"Date"}, [][]string{{"1/2/2025"}, {"1/3/2025"}})),
		core.Skipped("Feb", "not enough rows"),
		core.Failed("Mar", errors.New("boom")),
	}
	require.NoError(t, j.RecordOutcomes(ctx, "run-1", outcomes))

	j.now = func() time.Time { return start.Add(time.Minute) }
	require.NoError(t, j.FinishRun(ctx, "run-1", RunStats{Loaded: 1, Skipped: 1, Failed: 1, Rows: 2}))

	run, err := j.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, KindDownload, run.Kind)
	assert.Equal(t, "bank", run.Plan)
	assert.Equal(t, int64(2), run.RowCount)
	assert.Equal(t, int64(1), run.Failed)
	assert.True(t, run.FinishedAt.Valid)
	assert.True(t, run.StartedAt.Equal(start))
	assert.Empty(t, run.Error)

	got, err := j.Outcomes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, SourceOutcome{RunID: "run-1", Position: 0, Source: "Jan", Status: "ok", RowCount: 2}, got[0])
	assert.Equal(t, "not enough rows", got[1].Reason)
	assert.Equal(t, "fail", got[2].Status)
	assert.Equal(t, "boom", got[2].Reason)
}

func TestUploadRunRecordsError(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	require.NoError(t, j.StartRun(ctx, "run-2", KindUpload, "push"))
	require.NoError(t, j.RecordUpload(ctx, "run-2", UploadRecord{
		File: "out/bank.csv", SpreadsheetID: "book", Sheet: "Bank", Rows: 4, Columns: 3, Created: true,
	}))
	require.NoError(t, j.FinishRun(ctx, "run-2", RunStats{Loaded: 1, Err: errors.New("destination not found")}))

	ups, err := j.Uploads(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, "Bank", ups[0].Sheet)
	assert.Equal(t, int64(4), ups[0].RowCount)
	assert.True(t, ups[0].Created)

	run, err := j.GetRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, "destination not found", run.Error)
}

func TestUnknownRun(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	_, err := j.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = j.FinishRun(ctx, "nope", RunStats{})
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Hour)
		j.now = func() time.Time { return at }
		require.NoError(t, j.StartRun(ctx, id, KindDownload, "bank"))
	}

	runs, err := j.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}
