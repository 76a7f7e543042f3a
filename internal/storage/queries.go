package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const insertRun = `
INSERT INTO runs (id, kind, plan_name, started_at)
VALUES (?, ?, ?, ?)
`

type InsertRunParams struct {
	ID        string
	Kind      string
	Plan      string
	StartedAt time.Time
}

func (q *Queries) InsertRun(ctx context.Context, arg InsertRunParams) error {
	_, err := q.db.ExecContext(ctx, insertRun, arg.ID, arg.Kind, arg.Plan, arg.StartedAt)
	return err
}

const finishRun = `
UPDATE runs
SET finished_at = ?, loaded = ?, skipped = ?, failed = ?, row_count = ?, error_text = ?
WHERE id = ?
`

type FinishRunParams struct {
	ID         string
	FinishedAt time.Time
	Loaded     int64
	Skipped    int64
	Failed     int64
	RowCount   int64
	Error      string
}

func (q *Queries) FinishRun(ctx context.Context, arg FinishRunParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, finishRun,
		arg.FinishedAt, arg.Loaded, arg.Skipped, arg.Failed, arg.RowCount, arg.Error, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getRun = `
SELECT id, kind, plan_name, started_at, finished_at, loaded, skipped, failed, row_count, error_text
FROM runs
WHERE id = ?
`

type Run struct {
	ID         string
	Kind       string
	Plan       string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Loaded     int64
	Skipped    int64
	Failed     int64
	RowCount   int64
	Error      string
}

func (q *Queries) GetRun(ctx context.Context, id string) (Run, error) {
	row := q.db.QueryRowContext(ctx, getRun, id)
	var r Run
	err := row.Scan(&r.ID, &r.Kind, &r.Plan, &r.StartedAt, &r.FinishedAt,
		&r.Loaded, &r.Skipped, &r.Failed, &r.RowCount, &r.Error)
	return r, err
}

const listRecentRuns = `
SELECT id, kind, plan_name, started_at, finished_at, loaded, skipped, failed, row_count, error_text
FROM runs
ORDER BY started_at DESC
LIMIT ?
`

func (q *Queries) ListRecentRuns(ctx context.Context, limit int64) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, listRecentRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.Plan, &r.StartedAt, &r.FinishedAt,
			&r.Loaded, &r.Skipped, &r.Failed, &r.RowCount, &r.Error); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const insertSourceOutcome = `
INSERT INTO source_outcomes (run_id, position, source, status, row_count, reason)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertSourceOutcomeParams struct {
	RunID    string
	Position int64
	Source   string
	Status   string
	RowCount int64
	Reason   string
}

func (q *Queries) InsertSourceOutcome(ctx context.Context, arg InsertSourceOutcomeParams) error {
	_, err := q.db.ExecContext(ctx, insertSourceOutcome,
		arg.RunID, arg.Position, arg.Source, arg.Status, arg.RowCount, arg.Reason)
	return err
}

const listSourceOutcomes = `
SELECT run_id, position, source, status, row_count, reason
FROM source_outcomes
WHERE run_id = ?
ORDER BY position
`

type SourceOutcome struct {
	RunID    string
	Position int64
	Source   string
	Status   string
	RowCount int64
	Reason   string
}

func (q *Queries) ListSourceOutcomes(ctx context.Context, runID string) ([]SourceOutcome, error) {
	rows, err := q.db.QueryContext(ctx, listSourceOutcomes, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SourceOutcome
	for rows.Next() {
		var i SourceOutcome
		if err := rows.Scan(&i.RunID, &i.Position, &i.Source, &i.Status, &i.RowCount, &i.Reason); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertUpload = `
INSERT INTO uploads (run_id, file, spreadsheet_id, sheet, row_count, column_count, created, uploaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertUploadParams struct {
	RunID         string
	File          string
	SpreadsheetID string
	Sheet         string
	RowCount      int64
	ColumnCount   int64
	Created       bool
	UploadedAt    time.Time
}

func (q *Queries) InsertUpload(ctx context.Context, arg InsertUploadParams) error {
	_, err := q.db.ExecContext(ctx, insertUpload,
		arg.RunID, arg.File, arg.SpreadsheetID, arg.Sheet, arg.RowCount, arg.ColumnCount, arg.Created, arg.UploadedAt)
	return err
}

const listUploads = `
SELECT run_id, file, spreadsheet_id, sheet, row_count, column_count, created, uploaded_at
FROM uploads
WHERE run_id = ?
ORDER BY id
`

type Upload struct {
	RunID         string
	File          string
	SpreadsheetID string
	Sheet         string
	RowCount      int64
	ColumnCount   int64
	Created       bool
	UploadedAt    time.Time
}

func (q *Queries) ListUploads(ctx context.Context, runID string) ([]Upload, error) {
	rows, err := q.db.QueryContext(ctx, listUploads, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Upload
	for rows.Next() {
		var i Upload
		if err := rows.Scan(&i.RunID, &i.File, &i.SpreadsheetID, &i.Sheet,
			&i.RowCount, &i.ColumnCount, &i.Created, &i.UploadedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
