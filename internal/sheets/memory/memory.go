package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"finsheets/internal/core"
	"finsheets/internal/localfile"
	ports "finsheets/internal/sheets"
)

// DefaultPrincipal is the identity reported by stores built without one.
const DefaultPrincipal = "memory@localhost"

// Store keeps folders of spreadsheets in memory.
type Store struct {
	mu        sync.Mutex
	principal string
	folders   map[string][]string
	books     map[string]*Workbook
}

// Ensure interface conformance
var (
	_ ports.ContainerLister   = (*Store)(nil)
	_ ports.SpreadsheetFinder = (*Store)(nil)
	_ ports.GridReader        = (*Store)(nil)
	_ ports.SpreadsheetOpener = (*Store)(nil)
	_ ports.Principal         = (*Store)(nil)
	_ ports.Spreadsheet       = (*Workbook)(nil)
	_ ports.Sheet             = (*Sheet)(nil)
)

func New(principal string) *Store {
	if principal == "" {
		principal = DefaultPrincipal
	}
	return &Store{
		principal: principal,
		folders:   map[string][]string{},
		books:     map[string]*Workbook{},
	}
}

// NewFromDir seeds a store from a directory tree. Every subdirectory is a
// folder and every .csv or .xlsx file inside it a spreadsheet whose title is
// the file name without extension; its id is "<folder>/<title>".
func NewFromDir(base string) (*Store, error) {
	s := New("")
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	for _, dir := range entries {
		if !dir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(base, dir.Name()))
		if err != nil {
			return nil, fmt.Errorf("read folder %s: %w", dir.Name(), err)
		}
		for _, f := range files {
			ext := strings.ToLower(filepath.Ext(f.Name()))
			if f.IsDir() || (ext != localfile.ExtCSV && ext != localfile.ExtXLSX) {
				continue
			}
			grid, err := localfile.ReadGrid(filepath.Join(base, dir.Name(), f.Name()))
			if err != nil {
				return nil, err
			}
			title := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
			s.AddSpreadsheet(dir.Name(), dir.Name()+"/"+title, title).PutSheet("Sheet1", grid)
		}
	}
	return s, nil
}

// AddSpreadsheet registers an empty spreadsheet in folderID. An empty folder
// id registers it outside any folder.
func (s *Store) AddSpreadsheet(folderID, id, title string) *Workbook {
	s.mu.Lock()
	defer s.mu.Unlock()
	wb := &Workbook{store: s, id: id, title: title}
	s.books[id] = wb
	if folderID != "" {
		s.folders[folderID] = append(s.folders[folderID], id)
	}
	return wb
}

func (s *Store) Principal() string {
	return s.principal
}

func (s *Store) ListSpreadsheets(_ context.Context, folderID string) ([]ports.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.folders[folderID]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", folderID, ports.ErrSpreadsheetNotFound)
	}
	out := make([]ports.File, 0, len(ids))
	for _, id := range ids {
		out = append(out, ports.File{Name: s.books[id].title, ID: id})
	}
	return out, nil
}

func (s *Store) FindSpreadsheet(_ context.Context, title string) (ports.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if s.books[id].title == title {
			return ports.File{Name: title, ID: id}, nil
		}
	}
	return ports.File{}, fmt.Errorf("%q: %w", title, ports.ErrSpreadsheetNotFound)
}

func (s *Store) ReadGrid(_ context.Context, spreadsheetID string) (core.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wb, ok := s.books[spreadsheetID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", spreadsheetID, ports.ErrSpreadsheetNotFound)
	}
	if len(wb.sheets) == 0 {
		return core.Grid{}, nil
	}
	return wb.sheets[0].content(), nil
}

func (s *Store) OpenSpreadsheet(_ context.Context, spreadsheetID string) (ports.Spreadsheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wb, ok := s.books[spreadsheetID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", spreadsheetID, ports.ErrSpreadsheetNotFound)
	}
	return wb, nil
}

// Workbook is an in-memory spreadsheet.
type Workbook struct {
	store  *Store
	id     string
	title  string
	sheets []*Sheet
}

func (w *Workbook) ID() string    { return w.id }
func (w *Workbook) Title() string { return w.title }

// PutSheet adds or replaces a sheet sized exactly to grid.
func (w *Workbook) PutSheet(name string, grid core.Grid) *Sheet {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	rows, cols := len(grid), 0
	for _, r := range grid {
		cols = max(cols, len(r))
	}
	sh := newSheet(w.store, name, rows, cols)
	for i, r := range grid {
		copy(sh.cells[i], r)
	}
	for i, existing := range w.sheets {
		if existing.name == name {
			w.sheets[i] = sh
			return sh
		}
	}
	w.sheets = append(w.sheets, sh)
	return sh
}

// Lookup returns the named sheet without going through the port.
func (w *Workbook) Lookup(name string) (*Sheet, bool) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	for _, sh := range w.sheets {
		if sh.name == name {
			return sh, true
		}
	}
	return nil, false
}

func (w *Workbook) Sheet(_ context.Context, name string) (ports.Sheet, error) {
	if sh, ok := w.Lookup(name); ok {
		return sh, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ports.ErrSheetNotFound)
}

func (w *Workbook) AddSheet(_ context.Context, name string, rows, cols int) (ports.Sheet, error) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	for _, sh := range w.sheets {
		if sh.name == name {
			return nil, fmt.Errorf("sheet %q already exists", name)
		}
	}
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("invalid sheet size %dx%d", rows, cols)
	}
	sh := newSheet(w.store, name, rows, cols)
	w.sheets = append(w.sheets, sh)
	return sh, nil
}

// Sheet is a fixed-capacity grid of cells.
type Sheet struct {
	store *Store
	name  string
	rows  int
	cols  int
	cells [][]string
	// ResizeErr, when set, is returned by Resize.
	ResizeErr error
}

func newSheet(store *Store, name string, rows, cols int) *Sheet {
	sh := &Sheet{store: store, name: name}
	sh.grow(rows, cols)
	return sh
}

func (sh *Sheet) Name() string { return sh.name }

// Size returns the sheet's row and column capacity.
func (sh *Sheet) Size() (rows, cols int) {
	sh.store.mu.Lock()
	defer sh.store.mu.Unlock()
	return sh.rows, sh.cols
}

// Content returns the smallest rectangle holding every non-empty cell.
func (sh *Sheet) Content() core.Grid {
	sh.store.mu.Lock()
	defer sh.store.mu.Unlock()
	return sh.content()
}

func (sh *Sheet) Clear(_ context.Context) error {
	sh.store.mu.Lock()
	defer sh.store.mu.Unlock()
	for _, r := range sh.cells {
		for j := range r {
			r[j] = ""
		}
	}
	return nil
}

func (sh *Sheet) Update(_ context.Context, origin string, values [][]string) error {
	row, col, err := ports.ParseCell(origin)
	if err != nil {
		return err
	}
	sh.store.mu.Lock()
	defer sh.store.mu.Unlock()
	width := 0
	for _, r := range values {
		width = max(width, len(r))
	}
	sh.grow(row+len(values), col+width)
	for i, r := range values {
		copy(sh.cells[row+i][col:], r)
	}
	return nil
}

func (sh *Sheet) Resize(_ context.Context, rows, cols int) error {
	sh.store.mu.Lock()
	defer sh.store.mu.Unlock()
	if sh.ResizeErr != nil {
		return sh.ResizeErr
	}
	if rows < 1 || cols < 1 {
		return fmt.Errorf("invalid sheet size %dx%d", rows, cols)
	}
	sh.cells = sh.cells[:min(rows, sh.rows)]
	for i := range sh.cells {
		sh.cells[i] = sh.cells[i][:min(cols, sh.cols)]
	}
	sh.rows, sh.cols = min(rows, sh.rows), min(cols, sh.cols)
	sh.grow(rows, cols)
	return nil
}

// grow extends the capacity to at least rows x cols. Callers hold the lock.
func (sh *Sheet) grow(rows, cols int) {
	rows, cols = max(rows, sh.rows), max(cols, sh.cols)
	for i := range sh.cells {
		if len(sh.cells[i]) < cols {
			sh.cells[i] = append(sh.cells[i], make([]string, cols-len(sh.cells[i]))...)
		}
	}
	for len(sh.cells) < rows {
		sh.cells = append(sh.cells, make([]string, cols))
	}
	sh.rows, sh.cols = rows, cols
}

func (sh *Sheet) content() core.Grid {
	lastRow, lastCol := -1, -1
	for i, r := range sh.cells {
		for j, c := range r {
			if c != "" {
				lastRow = max(lastRow, i)
				lastCol = max(lastCol, j)
			}
		}
	}
	out := make(core.Grid, lastRow+1)
	for i := range out {
		out[i] = append([]string(nil), sh.cells[i][:lastCol+1]...)
	}
	return out
}
