package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finsheets/internal/core"

	_ "modernc.org/sqlite"
)

// Run kinds
const (
	KindDownload = "download"
	KindUpload   = "upload"
)

// ErrRunNotFound is returned when finishing or reading an unknown run.
var ErrRunNotFound = errors.New("run not found")

// RunStats is the final tally of a run.
type RunStats struct {
	Loaded  int
	Skipped int
	Failed  int
	Rows    int
	Err     error
}

// UploadRecord describes one file written to one sheet.
type UploadRecord struct {
	File          string
	SpreadsheetID string
	Sheet         string
	Rows          int
	Columns       int
	Created       bool
}

// SQLiteJournal keeps a history of download and upload runs.
type SQLiteJournal struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Run journal ready", "path", dbPath, "schema_version", version)

	return &SQLiteJournal{
		db:      db,
		queries: New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// StartRun opens a run record.
func (j *SQLiteJournal) StartRun(ctx context.Context, runID, kind, plan string) error {
	err := j.queries.InsertRun(ctx, InsertRunParams{
		ID:        runID,
		Kind:      kind,
		Plan:      plan,
		StartedAt: j.now(),
	})
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordOutcomes stores every per-source outcome of a download run in
// source order, in a single transaction.
func (j *SQLiteJournal) RecordOutcomes(ctx context.Context, runID string, outcomes []core.Outcome) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := j.queries.WithTx(tx)
	for i, o := range outcomes {
		params := InsertSourceOutcomeParams{
			RunID:    runID,
			Position: int64(i),
			Source:   o.Source,
			Status:   string(o.Status),
		}
		if o.Status == core.StatusOK {
			params.RowCount = int64(o.Table.Len())
		} else {
			params.Reason = o.Message()
		}
		if err := q.InsertSourceOutcome(ctx, params); err != nil {
			return fmt.Errorf("insert outcome for %s: %w", o.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outcomes: %w", err)
	}
	return nil
}

// RecordUpload stores one successful sheet write.
func (j *SQLiteJournal) RecordUpload(ctx context.Context, runID string, u UploadRecord) error {
	err := j.queries.InsertUpload(ctx, InsertUploadParams{
		RunID:         runID,
		File:          u.File,
		SpreadsheetID: u.SpreadsheetID,
		Sheet:         u.Sheet,
		RowCount:      int64(u.Rows),
		ColumnCount:   int64(u.Columns),
		Created:       u.Created,
		UploadedAt:    j.now(),
	})
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// FinishRun closes a run record with its tally.
func (j *SQLiteJournal) FinishRun(ctx context.Context, runID string, stats RunStats) error {
	var msg string
	if stats.Err != nil {
		msg = stats.Err.Error()
	}
	n, err := j.queries.FinishRun(ctx, FinishRunParams{
		ID:         runID,
		FinishedAt: j.now(),
		Loaded:     int64(stats.Loaded),
		Skipped:    int64(stats.Skipped),
		Failed:     int64(stats.Failed),
		RowCount:   int64(stats.Rows),
		Error:      msg,
	})
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// GetRun returns a single run by ID.
func (j *SQLiteJournal) GetRun(ctx context.Context, runID string) (Run, error) {
	r, err := j.queries.GetRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// RecentRuns lists the latest runs, newest first.
func (j *SQLiteJournal) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	runs, err := j.queries.ListRecentRuns(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	return runs, nil
}

// Outcomes lists the recorded source outcomes of a run.
func (j *SQLiteJournal) Outcomes(ctx context.Context, runID string) ([]SourceOutcome, error) {
	items, err := j.queries.ListSourceOutcomes(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list source outcomes: %w", err)
	}
	return items, nil
}

// Uploads lists the recorded sheet writes of a run.
func (j *SQLiteJournal) Uploads(ctx context.Context, runID string) ([]Upload, error) {
	items, err := j.queries.ListUploads(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return items, nil
}
