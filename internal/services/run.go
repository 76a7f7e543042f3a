package services

import (
	"context"

	"github.com/google/uuid"

	"finsheets/internal/amqp"
	"finsheets/internal/core"
	applog "finsheets/internal/log"
	"finsheets/internal/storage"
)

// Journal records run history. Implemented by *storage.SQLiteJournal.
type Journal interface {
	StartRun(ctx context.Context, runID, kind, plan string) error
	RecordOutcomes(ctx context.Context, runID string, outcomes []core.Outcome) error
	RecordUpload(ctx context.Context, runID string, u storage.UploadRecord) error
	FinishRun(ctx context.Context, runID string, stats storage.RunStats) error
}

// Notifier announces finished runs. Implemented by *amqp.Client.
type Notifier interface {
	PublishRunCompleted(ctx context.Context, msg *amqp.RunCompletedMessage) error
}

// recorder forwards run bookkeeping to the optional journal and notifier.
// Their failures are logged and never fail the run.
type recorder struct {
	journal  Journal
	notifier Notifier
	logger   *applog.Logger
	newID    func() string
}

func newRecorder(journal Journal, notifier Notifier, logger *applog.Logger) recorder {
	return recorder{journal: journal, notifier: notifier, logger: logger, newID: uuid.NewString}
}

func (r recorder) start(ctx context.Context, kind, plan string) string {
	runID := r.newID()
	if r.journal != nil {
		if err := r.journal.StartRun(ctx, runID, kind, plan); err != nil {
			r.logger.ErrorContext(ctx, "Failed to journal run start", applog.FieldRunID, runID, applog.FieldError, err)
		}
	}
	return runID
}

func (r recorder) outcomes(ctx context.Context, runID string, outcomes []core.Outcome) {
	if r.journal == nil {
		return
	}
	if err := r.journal.RecordOutcomes(ctx, runID, outcomes); err != nil {
		r.logger.ErrorContext(ctx, "Failed to journal source outcomes", applog.FieldRunID, runID, applog.FieldError, err)
	}
}

func (r recorder) upload(ctx context.Context, runID string, u storage.UploadRecord) {
	if r.journal == nil {
		return
	}
	if err := r.journal.RecordUpload(ctx, runID, u); err != nil {
		r.logger.ErrorContext(ctx, "Failed to journal upload", applog.FieldRunID, runID, applog.FieldError, err)
	}
}

func (r recorder) finish(ctx context.Context, msg *amqp.RunCompletedMessage, runErr error) {
	if runErr != nil {
		msg.Error = runErr.Error()
	}
	if r.journal != nil {
		stats := storage.RunStats{Loaded: msg.Loaded, Skipped: msg.Skipped, Failed: msg.Failed, Rows: msg.Rows, Err: runErr}
		if err := r.journal.FinishRun(ctx, msg.RunID, stats); err != nil {
			r.logger.ErrorContext(ctx, "Failed to journal run end", applog.FieldRunID, msg.RunID, applog.FieldError, err)
		}
	}
	if r.notifier == nil {
		r.logger.DebugContext(ctx, "AMQP client not available, skipping run event", applog.FieldRunID, msg.RunID)
		return
	}
	if err := r.notifier.PublishRunCompleted(ctx, msg); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish run event", applog.FieldRunID, msg.RunID, applog.FieldError, err)
	}
}
