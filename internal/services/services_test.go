package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsheets/internal/amqp"
	"finsheets/internal/config"
	"finsheets/internal/core"
	"finsheets/internal/localfile"
	applog "finsheets/internal/log"
	"finsheets/internal/sheets/memory"
	"finsheets/internal/sink"
	"finsheets/internal/storage"
)

type journalEntry struct {
	kind, plan string
	outcomes   []core.Outcome
	uploads    []storage.UploadRecord
	stats      *storage.RunStats
}

type fakeJournal struct {
	runs map[string]*journalEntry
	err  error
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{runs: map[string]*journalEntry{}}
}

func (f *fakeJournal) StartRun(_ context.Context, runID, kind, plan string) error {
	f.runs[runID] = &journalEntry{kind: kind, plan: plan}
	return f.err
}

func (f *fakeJournal) RecordOutcomes(_ context.Context, runID string, outcomes []core.Outcome) error {
	f.runs[runID].outcomes = outcomes
	return f.err
}

func (f *fakeJournal) RecordUpload(_ context.Context, runID string, u storage.UploadRecord) error {
	f.runs[runID].uploads = append(f.runs[runID].uploads, u)
	return f.err
}

func (f *fakeJournal) FinishRun(_ context.Context, runID string, stats storage.RunStats) error {
	f.runs[runID].stats = &stats
	return f.err
}

type fakeNotifier struct {
	msgs []*amqp.RunCompletedMessage
}

func (f *fakeNotifier) PublishRunCompleted(_ context.Context, msg *amqp.RunCompletedMessage) error {
	f.msgs = append(f.msgs, msg)
	return nil
}

func ledgerGrid(rows ...[]string) core.Grid {
	g := core.Grid{
		{"Scotiabank chequing"},
		{"Date", "Description", "Withdrawals", "Deposits", "Balance"},
	}
	return append(g, rows...)
}

func seedLedgerFolder(store *memory.Store) {
	store.AddSpreadsheet("2025", "jan", "January").PutSheet("Sheet1", ledgerGrid(
		[]string{"1/2/2025", "Coffee", "4.50", "", "995.50"},
		[]string{"1/3/2025", "Payroll", "", "2,000.00", "2995.50"},
	))
	store.AddSpreadsheet("2025", "feb", "February").PutSheet("Sheet1", core.Grid{{"x"}, {"Date"}})
	store.AddSpreadsheet("2025", "mar", "March").PutSheet("Sheet1", core.Grid{
		{"title"}, {"When", "What"}, {"3/1/2025", "Rent"}, {"3/2/2025", "Gas"},
	})
	store.AddSpreadsheet("2025", "apr", "April").PutSheet("Sheet1", ledgerGrid(
		[]string{"4/1/2025", "Groceries", "(15.25)", "", "2980.25"},
		[]string{"", "carried forward", "", "", "2980.25"},
	))
}

func TestDownloadFolderLedger(t *testing.T) {
	ctx := context.Background()
	store := memory.New("")
	seedLedgerFolder(store)
	journal, notifier := newFakeJournal(), &fakeNotifier{}
	svc := NewDownloadService(store, journal, notifier, applog.Discard())
	svc.recorder.newID = func() string { return "run-1" }

	out := filepath.Join(t.TempDir(), "out", "bank.csv")
	res, err := svc.Run(ctx, config.DownloadPlan{Name: "bank", Mode: "ledger", FolderID: "2025", Output: out})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, out, res.Output)
	assert.Equal(t, 2, res.Report.Loaded)
	assert.Equal(t, 1, res.Report.Skipped)
	assert.Equal(t, 1, res.Report.Failed)
	assert.Equal(t, 3, res.Report.Rows)
	assert.Equal(t, "-10.75", res.Summary.Withdrawals.StringFixed(2))
	assert.Equal(t, "2000.00", res.Summary.Deposits.StringFixed(2))

	written, err := localfile.ReadTable(out)
	require.NoError(t, err)
	assert.Equal(t, core.LedgerColumns, written.Columns)
	require.Equal(t, 3, written.Len())
	assert.Equal(t, "Coffee", written.Rows[0][1])
	assert.Equal(t, "Groceries", written.Rows[2][1])

	entry := journal.runs["run-1"]
	require.NotNil(t, entry)
	assert.Equal(t, storage.KindDownload, entry.kind)
	assert.Equal(t, "bank", entry.plan)
	require.Len(t, entry.outcomes, 4)
	assert.Equal(t, []string{"January", "February", "March", "April"},
		[]string{entry.outcomes[0].Source, entry.outcomes[1].Source, entry.outcomes[2].Source, entry.outcomes[3].Source})
	require.NotNil(t, entry.stats)
	assert.Equal(t, 3, entry.stats.Rows)
	assert.NoError(t, entry.stats.Err)

	require.Len(t, notifier.msgs, 1)
	assert.Equal(t, "run-1", notifier.msgs[0].RunID)
	assert.Equal(t, 2, notifier.msgs[0].Loaded)
	assert.Equal(t, "2000.00", notifier.msgs[0].Deposits)
}

func TestDownloadHistoricalByTitle(t *testing.T) {
	ctx := context.Background()
	store := memory.New("")
	store.AddSpreadsheet("", "a", "Archive 2019").PutSheet("Sheet1", core.Grid{
		{"Archive"}, {""}, {"Date", "Amount", "Amount"},
		{"2019-03-04", "10", "11"},
		{"garbage", "1", "1"},
	})
	store.AddSpreadsheet("", "b", "Archive 2020").PutSheet("Sheet1", core.Grid{
		{"Archive"}, {""}, {"Date", "Note"},
		{"03/05/2020", "ok"},
	})
	svc := NewDownloadService(store, nil, nil, applog.Discard())

	out := filepath.Join(t.TempDir(), "archive.xlsx")
	res, err := svc.Run(ctx, config.DownloadPlan{
		Name:   "archive",
		Mode:   "historical",
		Sheets: []string{"Archive 2019", "Missing", "Archive 2020"},
		Output: out,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Report.Loaded)
	assert.Equal(t, 1, res.Report.Failed)
	require.Len(t, res.Report.Diagnostics, 1)
	assert.Equal(t, "Missing", res.Report.Diagnostics[0].Source)

	assert.Equal(t, []string{"Date", "Amount", "Amount_1", "source_sheet", "Note"}, res.Table.Columns)
	assert.Equal(t, []string{"3/4/2019", "10", "11", "Archive 2019", ""}, res.Table.Rows[0])
	assert.Equal(t, []string{"3/5/2020", "", "", "Archive 2020", "ok"}, res.Table.Rows[1])

	written, err := localfile.ReadTable(out)
	require.NoError(t, err)
	assert.Equal(t, res.Table.Columns, written.Columns)
	assert.Equal(t, 2, written.Len())
}

func TestDownloadNothingLoadedWritesNoFile(t *testing.T) {
	store := memory.New("")
	store.AddSpreadsheet("empty", "x", "Short").PutSheet("Sheet1", core.Grid{{"a"}})
	notifier := &fakeNotifier{}
	svc := NewDownloadService(store, nil, notifier, applog.Discard())

	out := filepath.Join(t.TempDir(), "none.csv")
	res, err := svc.Run(context.Background(), config.DownloadPlan{Name: "n", Mode: "ledger", FolderID: "empty", Output: out})
	require.NoError(t, err)
	assert.True(t, res.Table.IsEmpty())
	assert.Empty(t, res.Output)
	assert.NoFileExists(t, out)

	require.Len(t, notifier.msgs, 1)
	assert.Equal(t, 1, notifier.msgs[0].Skipped)
	assert.Empty(t, notifier.msgs[0].Withdrawals)
}

func TestDownloadUnknownFolderFailsRun(t *testing.T) {
	journal := newFakeJournal()
	svc := NewDownloadService(memory.New(""), journal, nil, applog.Discard())
	svc.recorder.newID = func() string { return "run-x" }

	_, err := svc.Run(context.Background(), config.DownloadPlan{Name: "n", Mode: "ledger", FolderID: "nope", Output: "x.csv"})
	require.Error(t, err)
	require.NotNil(t, journal.runs["run-x"].stats)
	assert.Error(t, journal.runs["run-x"].stats.Err)
}

// interruptedStore cancels the run when the named spreadsheet is read.
type interruptedStore struct {
	*memory.Store
	at     string
	cancel context.CancelFunc
	reads  []string
}

func (s *interruptedStore) ReadGrid(ctx context.Context, id string) (core.Grid, error) {
	s.reads = append(s.reads, id)
	if id == s.at {
		s.cancel()
		return nil, ctx.Err()
	}
	return s.Store.ReadGrid(ctx, id)
}

func TestDownloadStopsWhenInterrupted(t *testing.T) {
	for _, tc := range []struct {
		name string
		plan config.DownloadPlan
	}{
		{"folder", config.DownloadPlan{Name: "bank", Mode: "ledger", FolderID: "2025"}},
		{"titles", config.DownloadPlan{Name: "bank", Mode: "ledger", Sheets: []string{"January", "February", "March"}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			store := memory.New("")
			seedLedgerFolder(store)
			src := &interruptedStore{Store: store, at: "feb", cancel: cancel}
			journal := newFakeJournal()
			svc := NewDownloadService(src, journal, nil, applog.Discard())
			svc.recorder.newID = func() string { return "run-c" }

			plan := tc.plan
			plan.Output = filepath.Join(t.TempDir(), "bank.csv")
			_, err := svc.Run(ctx, plan)

			require.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, []string{"jan", "feb"}, src.reads)
			assert.NoFileExists(t, plan.Output)
			assert.Nil(t, journal.runs["run-c"].outcomes)
			require.NotNil(t, journal.runs["run-c"].stats)
		})
	}
}

func TestDownloadRejectsUnknownMode(t *testing.T) {
	svc := NewDownloadService(memory.New(""), nil, nil, applog.Discard())
	_, err := svc.Run(context.Background(), config.DownloadPlan{Name: "n", Mode: "weekly", FolderID: "f", Output: "x.csv"})
	assert.Error(t, err)
}

func TestDownloadSurvivesJournalErrors(t *testing.T) {
	store := memory.New("")
	seedLedgerFolder(store)
	journal := newFakeJournal()
	journal.err = errors.New("disk full")
	svc := NewDownloadService(store, journal, nil, applog.Discard())

	res, err := svc.Run(context.Background(), config.DownloadPlan{
		Name: "bank", Mode: "ledger", FolderID: "2025", Output: filepath.Join(t.TempDir(), "b.csv"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Report.Rows)
}

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestUploadPlan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	amex := filepath.Join(dir, "amex.csv")
	td := filepath.Join(dir, "td.csv")
	writeCSV(t, amex, "Date,Description,Amount\n8/1/2025,Hotel,120.00\n8/2/2025,Taxi,\n")
	writeCSV(t, td, "Date,Amount\n8/3/2025,5\n")

	store := memory.New("uploader@example.iam.gserviceaccount.com")
	wb := store.AddSpreadsheet("", "book", "August 2025")
	wb.PutSheet("TD", core.Grid{{"old", "old", "old"}, {"old", "old", "old"}, {"old", "old", "old"}})

	journal, notifier := newFakeJournal(), &fakeNotifier{}
	svc := NewUploadService(sink.NewWriter(store, applog.Discard()), journal, notifier, applog.Discard())
	svc.recorder.newID = func() string { return "up-1" }

	res, err := svc.Run(ctx, config.UploadPlan{
		Name:          "august",
		SpreadsheetID: "book",
		Items: []config.UploadItem{
			{File: amex, Sheet: "Amex_2025-08"},
			{File: filepath.Join(dir, "missing.csv"), Sheet: "Nope"},
			{File: td, Sheet: "TD"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Uploaded, 2)
	assert.Equal(t, []string{filepath.Join(dir, "missing.csv")}, res.Missing)
	assert.True(t, res.Uploaded[0].Created)
	assert.False(t, res.Uploaded[1].Created)
	assert.Equal(t, "August 2025", res.Uploaded[0].SpreadsheetTitle)
	assert.Equal(t, "uploader@example.iam.gserviceaccount.com", res.Uploaded[0].Principal)

	amexSheet, ok := wb.Lookup("Amex_2025-08")
	require.True(t, ok)
	assert.Equal(t, core.Grid{
		{"Date", "Description", "Amount"},
		{"8/1/2025", "Hotel", "120.00"},
		{"8/2/2025", "Taxi", ""},
	}, amexSheet.Content())

	tdSheet, _ := wb.Lookup("TD")
	assert.Equal(t, core.Grid{{"Date", "Amount"}, {"8/3/2025", "5"}}, tdSheet.Content())

	_, exists := wb.Lookup("Nope")
	assert.False(t, exists)

	entry := journal.runs["up-1"]
	require.Len(t, entry.uploads, 2)
	assert.Equal(t, "TD", entry.uploads[1].Sheet)

	require.Len(t, notifier.msgs, 1)
	msg := notifier.msgs[0]
	assert.Equal(t, storage.KindUpload, msg.Kind)
	assert.Equal(t, 2, msg.Loaded)
	assert.Equal(t, 1, msg.Skipped)
	assert.Equal(t, 3, msg.Rows)
	assert.Empty(t, msg.Error)
}

func TestUploadStopsOnMissingDestination(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.csv")
	writeCSV(t, f, "A\n1\n")

	journal := newFakeJournal()
	svc := NewUploadService(sink.NewWriter(memory.New("sa@example.com"), nil), journal, nil, applog.Discard())
	svc.recorder.newID = func() string { return "up-2" }

	_, err := svc.Run(context.Background(), config.UploadPlan{
		Name: "p", SpreadsheetID: "unknown", Items: []config.UploadItem{{File: f, Sheet: "S"}},
	})
	var notFound *sink.DestinationNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "sa@example.com")
	assert.Error(t, journal.runs["up-2"].stats.Err)
}

func TestUploadWithoutCreateFailsOnMissingSheet(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.csv")
	writeCSV(t, f, "A\n1\n")

	store := memory.New("")
	store.AddSpreadsheet("", "book", "Book")
	no := false
	svc := NewUploadService(sink.NewWriter(store, nil), nil, nil, applog.Discard())

	_, err := svc.Run(context.Background(), config.UploadPlan{
		Name: "p", SpreadsheetID: "book", CreateIfMissing: &no, Items: []config.UploadItem{{File: f, Sheet: "S"}},
	})
	var missing *sink.ResourceMissingError
	assert.ErrorAs(t, err, &missing)
}
