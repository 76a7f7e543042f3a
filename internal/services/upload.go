package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"finsheets/internal/amqp"
	"finsheets/internal/config"
	"finsheets/internal/localfile"
	applog "finsheets/internal/log"
	"finsheets/internal/sink"
	"finsheets/internal/storage"
)

// UploadResult describes a finished upload run.
type UploadResult struct {
	RunID    string
	Uploaded []sink.Result
	// Missing lists local files that did not exist and were skipped.
	Missing []string
}

// UploadService pushes local files into the sheets of one spreadsheet.
type UploadService struct {
	writer   *sink.Writer
	logger   *applog.Logger
	recorder recorder
}

// NewUploadService wires an upload service. journal and notifier may be nil.
func NewUploadService(writer *sink.Writer, journal Journal, notifier Notifier, logger *applog.Logger) *UploadService {
	if logger == nil {
		logger = applog.FromSlog(nil, applog.ComponentUpload)
	}
	logger = logger.WithComponent(applog.ComponentUpload)
	return &UploadService{
		writer:   writer,
		logger:   logger,
		recorder: newRecorder(journal, notifier, logger),
	}
}

// Run uploads every item of plan in order. A missing local file is skipped
// with a warning; any other error stops the run and is returned.
func (s *UploadService) Run(ctx context.Context, plan config.UploadPlan) (res UploadResult, err error) {
	res.RunID = s.recorder.start(ctx, storage.KindUpload, plan.Name)
	logger := s.logger.With(applog.FieldRunID, res.RunID, applog.FieldPlan, plan.Name)

	msg := amqp.NewRunCompletedMessage(res.RunID, storage.KindUpload, plan.Name)
	defer func() {
		msg.Loaded, msg.Skipped = len(res.Uploaded), len(res.Missing)
		for _, u := range res.Uploaded {
			msg.Rows += u.Rows - 1
		}
		if err != nil {
			msg.Failed = 1
		}
		s.recorder.finish(ctx, msg, err)
	}()

	opts := sink.Options{CreateIfMissing: plan.CreateMissing(), Overwrite: plan.ShouldOverwrite()}
	logger.InfoContext(ctx, "Starting upload",
		applog.FieldSpreadsheetID, plan.SpreadsheetID,
		applog.FieldPrincipal, s.writer.Principal(),
		"items", len(plan.Items))
	for _, item := range plan.Items {
		if _, statErr := os.Stat(item.File); errors.Is(statErr, fs.ErrNotExist) {
			logger.WarnContext(ctx, "Skipping: file not found", applog.FieldFile, item.File)
			res.Missing = append(res.Missing, item.File)
			continue
		}

		f := applog.NewFields().WithOperation(applog.OpUpload).WithDestination(plan.SpreadsheetID, item.Sheet)
		f[applog.FieldFile] = item.File
		logger.InfoContext(ctx, "Uploading", f.ToSlice()...)
		table, err := localfile.ReadTable(item.File)
		if err != nil {
			return res, fmt.Errorf("read %s: %w", item.File, err)
		}

		out, err := s.writer.Write(ctx, table, sink.Destination{SpreadsheetID: plan.SpreadsheetID, SheetName: item.Sheet}, opts)
		if err != nil {
			return res, err
		}
		res.Uploaded = append(res.Uploaded, out)
		s.recorder.upload(ctx, res.RunID, storage.UploadRecord{
			File:          item.File,
			SpreadsheetID: plan.SpreadsheetID,
			Sheet:         out.SheetName,
			Rows:          out.Rows,
			Columns:       out.Columns,
			Created:       out.Created,
		})

		logger.InfoContext(ctx, "Uploaded",
			applog.FieldFile, item.File,
			applog.FieldSpreadsheet, out.SpreadsheetTitle,
			applog.FieldSheet, out.SheetName,
			applog.FieldPrincipal, out.Principal)
	}
	return res, nil
}
