package ingest

import (
	"context"
	"fmt"

	"finsheets/internal/core"
	applog "finsheets/internal/log"
	"finsheets/internal/sheets"
)

// Pipeline reads sources one at a time and maps each with a single mode.
// A fault in one source never affects the others.
type Pipeline struct {
	reader sheets.GridReader
	mode   Mode
	logger *applog.Logger
}

func NewPipeline(reader sheets.GridReader, mode Mode, logger *applog.Logger) *Pipeline {
	if logger == nil {
		logger = applog.FromSlog(nil, applog.ComponentIngest)
	}
	return &Pipeline{reader: reader, mode: mode, logger: logger.WithComponent(applog.ComponentIngest)}
}

// Run ingests sources in order and returns one outcome per source. It stops
// with the context error once ctx is done; the source being read at that
// point gets no outcome.
func (p *Pipeline) Run(ctx context.Context, sources []sheets.File) ([]core.Outcome, error) {
	outcomes := make([]core.Outcome, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		o := p.Ingest(ctx, src)
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// Ingest reads and maps a single source. Read errors and panics raised while
// mapping are reported as failed outcomes.
func (p *Pipeline) Ingest(ctx context.Context, src sheets.File) (out core.Outcome) {
	f := applog.NewFields().WithOperation(applog.OpRead).WithSource(src.Name, src.ID)
	f[applog.FieldMode] = p.mode.Name
	p.logger.DebugContext(ctx, "Reading source", f.ToSlice()...)

	defer func() {
		if r := recover(); r != nil {
			out = core.Failed(src.Name, fmt.Errorf("panic while mapping: %v", r))
		}
		p.report(ctx, src, out)
	}()

	grid, err := p.reader.ReadGrid(ctx, src.ID)
	if err != nil {
		return core.Failed(src.Name, fmt.Errorf("read %s: %w", src.Name, err))
	}
	return p.mode.Map(grid, src.Name)
}

func (p *Pipeline) report(ctx context.Context, src sheets.File, o core.Outcome) {
	switch o.Status {
	case core.StatusOK:
		p.logger.InfoContext(ctx, "Loaded source", applog.FieldSource, src.Name, applog.FieldRows, o.Table.Len())
	case core.StatusSkip:
		p.logger.WarnContext(ctx, "Skipping source", applog.FieldSource, src.Name, applog.FieldReason, o.Reason)
	default:
		p.logger.ErrorContext(ctx, "Failed to load source", applog.FieldSource, src.Name, applog.FieldError, o.Message())
	}
}
