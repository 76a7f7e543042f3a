package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"finsheets/internal/core"
	ports "finsheets/internal/sheets"

	oauthgoogle "golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client talks to Google Sheets and Drive as a service account.
type Client struct {
	sheets    *gsheet.Service
	drive     *gdrive.Service
	principal string
}

// Ensure interface conformance
var (
	_ ports.ContainerLister   = (*Client)(nil)
	_ ports.SpreadsheetFinder = (*Client)(nil)
	_ ports.GridReader        = (*Client)(nil)
	_ ports.SpreadsheetOpener = (*Client)(nil)
	_ ports.Principal         = (*Client)(nil)
)

// Scopes requested for the service account.
var Scopes = []string{gsheet.SpreadsheetsScope, gdrive.DriveReadonlyScope}

// New creates a client from service account JSON credentials. Extra options
// are appended after the credentials and may override them.
func New(ctx context.Context, credentialsJSON []byte, opts ...goption.ClientOption) (*Client, error) {
	base := []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(Scopes...),
	}
	return newClient(ctx, ServiceAccountEmail(credentialsJSON), append(base, opts...)...)
}

// LoadCredentials returns inline JSON when set, otherwise the content of
// file, otherwise the file named by GOOGLE_APPLICATION_CREDENTIALS.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	if inlineJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ServiceAccountEmail extracts client_email from service account JSON. It
// returns an empty string when the credentials are not a service account.
func ServiceAccountEmail(credentialsJSON []byte) string {
	cfg, err := oauthgoogle.JWTConfigFromJSON(credentialsJSON)
	if err != nil {
		return ""
	}
	return cfg.Email
}

func newClient(ctx context.Context, principal string, opts ...goption.ClientOption) (*Client, error) {
	sheetsSvc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	slog.DebugContext(ctx, "Google services created", "principal", principal)
	return &Client{sheets: sheetsSvc, drive: driveSvc, principal: principal}, nil
}

func (c *Client) Principal() string {
	return c.principal
}

// ListSpreadsheets returns every spreadsheet directly inside folderID,
// following pagination.
func (c *Client) ListSpreadsheets(ctx context.Context, folderID string) ([]ports.File, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false", escapeQuery(folderID), ports.MimeSpreadsheet)
	call := c.drive.Files.List().
		Q(q).
		PageSize(1000).
		Fields("nextPageToken, files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)

	var out []ports.File
	err := call.Pages(ctx, func(page *gdrive.FileList) error {
		for _, f := range page.Files {
			out = append(out, ports.File{Name: f.Name, ID: f.Id})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", folderID, notFound(err))
	}
	return out, nil
}

// FindSpreadsheet resolves a spreadsheet title visible to the principal.
func (c *Client) FindSpreadsheet(ctx context.Context, title string) (ports.File, error) {
	q := fmt.Sprintf("name = '%s' and mimeType='%s' and trashed=false", escapeQuery(title), ports.MimeSpreadsheet)
	resp, err := c.drive.Files.List().
		Q(q).
		PageSize(10).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return ports.File{}, fmt.Errorf("find %q: %w", title, notFound(err))
	}
	if len(resp.Files) == 0 {
		return ports.File{}, fmt.Errorf("%q: %w", title, ports.ErrSpreadsheetNotFound)
	}
	return ports.File{Name: resp.Files[0].Name, ID: resp.Files[0].Id}, nil
}

// ReadGrid returns all values of the spreadsheet's first sheet.
func (c *Client) ReadGrid(ctx context.Context, spreadsheetID string) (core.Grid, error) {
	meta, err := c.sheets.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", spreadsheetID, notFound(err))
	}
	if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
		return core.Grid{}, nil
	}
	rng := ports.QuoteSheet(meta.Sheets[0].Properties.Title)
	resp, err := c.sheets.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	grid := make(core.Grid, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = toStrings(row)
	}
	return grid, nil
}

// OpenSpreadsheet loads the title and sheet list of a spreadsheet.
func (c *Client) OpenSpreadsheet(ctx context.Context, spreadsheetID string) (ports.Spreadsheet, error) {
	meta, err := c.sheets.Spreadsheets.Get(spreadsheetID).
		Fields("spreadsheetId,properties.title,sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", spreadsheetID, notFound(err))
	}
	ss := &spreadsheet{client: c, id: spreadsheetID, sheetIDs: map[string]int64{}}
	if meta.Properties != nil {
		ss.title = meta.Properties.Title
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			ss.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return ss, nil
}

type spreadsheet struct {
	client   *Client
	id       string
	title    string
	sheetIDs map[string]int64
}

func (s *spreadsheet) ID() string    { return s.id }
func (s *spreadsheet) Title() string { return s.title }

func (s *spreadsheet) Sheet(_ context.Context, name string) (ports.Sheet, error) {
	id, ok := s.sheetIDs[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ports.ErrSheetNotFound)
	}
	return &sheet{client: s.client, spreadsheetID: s.id, id: id, name: name}, nil
}

func (s *spreadsheet) AddSheet(ctx context.Context, name string, rows, cols int) (ports.Sheet, error) {
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{
			Title: name,
			GridProperties: &gsheet.GridProperties{
				RowCount:    int64(rows),
				ColumnCount: int64(cols),
			},
		}},
	}}}
	resp, err := s.client.sheets.Spreadsheets.BatchUpdate(s.id, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("add sheet %q: %w", name, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return nil, fmt.Errorf("add sheet %q: empty reply", name)
	}
	id := resp.Replies[0].AddSheet.Properties.SheetId
	s.sheetIDs[name] = id
	return &sheet{client: s.client, spreadsheetID: s.id, id: id, name: name}, nil
}

type sheet struct {
	client        *Client
	spreadsheetID string
	id            int64
	name          string
}

func (s *sheet) Name() string { return s.name }

func (s *sheet) Clear(ctx context.Context) error {
	_, err := s.client.sheets.Spreadsheets.Values.Clear(s.spreadsheetID, ports.QuoteSheet(s.name), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (s *sheet) Update(ctx context.Context, origin string, values [][]string) error {
	rng, err := updateRange(s.name, origin, values)
	if err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: toInterfaces(values)}
	_, err = s.client.sheets.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *sheet) Resize(ctx context.Context, rows, cols int) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		UpdateSheetProperties: &gsheet.UpdateSheetPropertiesRequest{
			Properties: &gsheet.SheetProperties{
				SheetId: s.id,
				GridProperties: &gsheet.GridProperties{
					RowCount:    int64(rows),
					ColumnCount: int64(cols),
				},
				// The first sheet has id 0, which omitempty would drop.
				ForceSendFields: []string{"SheetId"},
			},
			Fields: "gridProperties.rowCount,gridProperties.columnCount",
		},
	}}}
	_, err := s.client.sheets.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return err
}

// updateRange bounds a write to the block of values anchored at origin,
// for example 'Sheet'!A1:C10.
func updateRange(name, origin string, values [][]string) (string, error) {
	row, col, err := ports.ParseCell(origin)
	if err != nil {
		return "", err
	}
	width := 0
	for _, r := range values {
		width = max(width, len(r))
	}
	rng := ports.QuoteSheet(name) + "!" + ports.FormatCell(row, col)
	if len(values) == 0 || width == 0 {
		return rng, nil
	}
	return rng + ":" + ports.FormatCell(row+len(values)-1, col+width-1), nil
}

// notFound maps permission and missing-resource API errors onto
// ports.ErrSpreadsheetNotFound.
func notFound(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %v", ports.ErrSpreadsheetNotFound, err)
	}
	return err
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func toInterfaces(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}
