package services

import (
	"context"
	"errors"
	"fmt"

	"finsheets/internal/amqp"
	"finsheets/internal/config"
	"finsheets/internal/core"
	"finsheets/internal/ingest"
	"finsheets/internal/localfile"
	applog "finsheets/internal/log"
	"finsheets/internal/sheets"
	"finsheets/internal/storage"
)

// DownloadSource is everything a download needs from a spreadsheet backend.
type DownloadSource interface {
	sheets.ContainerLister
	sheets.SpreadsheetFinder
	sheets.GridReader
}

// DownloadResult describes a finished download run.
type DownloadResult struct {
	RunID   string
	Table   core.Table
	Report  core.MergeReport
	Summary core.Summary
	// Output is empty when nothing was loaded and no file was written.
	Output string
}

// DownloadService ingests the spreadsheets of a plan into one local file.
type DownloadService struct {
	source   DownloadSource
	logger   *applog.Logger
	recorder recorder
}

// NewDownloadService wires a download service. journal and notifier may be nil.
func NewDownloadService(source DownloadSource, journal Journal, notifier Notifier, logger *applog.Logger) *DownloadService {
	if logger == nil {
		logger = applog.FromSlog(nil, applog.ComponentDownload)
	}
	logger = logger.WithComponent(applog.ComponentDownload)
	return &DownloadService{
		source:   source,
		logger:   logger,
		recorder: newRecorder(journal, notifier, logger),
	}
}

// Run executes plan. Per-source problems are reported in the result; only
// listing the folder and writing the output can fail the run.
func (s *DownloadService) Run(ctx context.Context, plan config.DownloadPlan) (res DownloadResult, err error) {
	mode, err := ingest.ParseMode(plan.Mode)
	if err != nil {
		return DownloadResult{}, err
	}

	res.RunID = s.recorder.start(ctx, storage.KindDownload, plan.Name)
	logger := s.logger.With(applog.FieldRunID, res.RunID, applog.FieldPlan, plan.Name)

	msg := amqp.NewRunCompletedMessage(res.RunID, storage.KindDownload, plan.Name)
	defer func() {
		msg.Loaded, msg.Skipped, msg.Failed, msg.Rows = res.Report.Loaded, res.Report.Skipped, res.Report.Failed, res.Report.Rows
		if res.Report.Loaded > 0 {
			msg.Withdrawals, msg.Deposits = res.Summary.Withdrawals.StringFixed(2), res.Summary.Deposits.StringFixed(2)
		}
		s.recorder.finish(ctx, msg, err)
	}()

	pipeline := ingest.NewPipeline(s.source, mode, logger)
	outcomes, err := s.ingest(ctx, pipeline, plan)
	if err != nil {
		return res, err
	}
	s.recorder.outcomes(ctx, res.RunID, outcomes)

	res.Table, res.Report = core.Merge(outcomes)
	for _, d := range res.Report.Diagnostics {
		logger.DebugContext(ctx, "Source left out of merge", applog.FieldSource, d.Source, "status", string(d.Status), applog.FieldReason, d.Message)
	}
	logger.InfoContext(ctx, "Merged sources",
		applog.FieldOperation, applog.OpMerge,
		applog.FieldLoaded, res.Report.Loaded,
		applog.FieldSkipped, res.Report.Skipped,
		applog.FieldFailed, res.Report.Failed)

	if res.Table.IsEmpty() {
		logger.WarnContext(ctx, "No data loaded.")
		return res, nil
	}

	res.Summary = core.Summarize(res.Table)
	logger.InfoContext(ctx, "Combined data shape",
		applog.FieldRows, res.Summary.Rows,
		applog.FieldColumns, res.Summary.Columns,
		applog.FieldWithdrawals, res.Summary.Withdrawals.StringFixed(2),
		applog.FieldDeposits, res.Summary.Deposits.StringFixed(2))
	if res.Summary.Unparsed > 0 {
		logger.WarnContext(ctx, "Some amounts could not be parsed", "unparsed", res.Summary.Unparsed)
	}

	if err := localfile.WriteTable(plan.Output, res.Table); err != nil {
		return res, fmt.Errorf("write %s: %w", plan.Output, err)
	}
	res.Output = plan.Output
	logger.InfoContext(ctx, "Data saved", applog.FieldFile, plan.Output)
	return res, nil
}

// ingest maps every source of plan in order. A title that cannot be found
// becomes a failed outcome in its position.
func (s *DownloadService) ingest(ctx context.Context, pipeline *ingest.Pipeline, plan config.DownloadPlan) ([]core.Outcome, error) {
	if plan.FolderID != "" {
		files, err := s.source.ListSpreadsheets(ctx, plan.FolderID)
		if err != nil {
			return nil, fmt.Errorf("list folder %s: %w", plan.FolderID, err)
		}
		s.logger.InfoContext(ctx, "Listed folder", applog.FieldOperation, applog.OpList, applog.FieldFolderID, plan.FolderID, "count", len(files))
		return pipeline.Run(ctx, files)
	}

	outcomes := make([]core.Outcome, 0, len(plan.Sheets))
	for _, title := range plan.Sheets {
		f, err := s.source.FindSpreadsheet(ctx, title)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		switch {
		case err == nil:
			o := pipeline.Ingest(ctx, f)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			outcomes = append(outcomes, o)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			s.logger.ErrorContext(ctx, "Failed to load source", applog.FieldSource, title, applog.FieldError, err)
			outcomes = append(outcomes, core.Failed(title, err))
		}
	}
	return outcomes, nil
}
