// Package sheets implements domain.RowStore on top of a Google Sheets
// spreadsheet. Each table is a tab whose first line is the header.
package sheets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"clientportal/internal/domain"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw  = "RAW"
	insertRows     = "INSERT_ROWS"
	dimensionRows  = "ROWS"
	lastColumnName = "Z"
)

// Config identifies the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID       string
	ServiceAccountEmail string
	PrivateKey          string
}

// Store implements domain.RowStore against the Sheets v4 API.
type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// Ensure interfaces are met.
var _ domain.RowStore = (*Store)(nil)

// NewStore authenticates as the service account and returns a Store.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.SpreadsheetID == "" || cfg.ServiceAccountEmail == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("%w: sheets id, service account email and private key are required", domain.ErrConfiguration)
	}
	jc := &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(cfg.PrivateKey),
		Scopes:     []string{sheetsapi.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(jc.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%w: sheets client: %v", domain.ErrConfiguration, err)
	}
	return &Store{svc: svc, spreadsheetID: cfg.SpreadsheetID}, nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *sheetsapi.Service, spreadsheetID string) *Store {
	return &Store{svc: svc, spreadsheetID: spreadsheetID}
}

// ReadAll returns every data row of the table. An empty tab yields no rows.
func (s *Store) ReadAll(ctx context.Context, table string) ([]domain.Row, error) {
	lines, err := s.readLines(ctx, table)
	if err != nil {
		return nil, err
	}
	_, rows := domain.BuildRows(lines)
	for i := range rows {
		rows[i].Version = rowVersion(lines[i+1])
	}
	return rows, nil
}

// Append adds rec as a new line after the last row. A tab without a header
// gets one built from the record's own column order.
func (s *Store) Append(ctx context.Context, table string, rec *domain.Record) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, a1(table, "A1:"+lastColumnName+"1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: sheets read header %s: %v", domain.ErrUpstream, table, err)
	}

	var header []string
	if len(resp.Values) > 0 {
		header = domain.BuildHeader(toStrings(resp.Values[0]))
	}

	var values [][]interface{}
	if len(header) == 0 {
		header = rec.Columns()
		values = append(values, toInterfaces(header))
	}
	values = append(values, toInterfaces(rec.Project(header)))

	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, a1(table, "A1:"+lastColumnName), &sheetsapi.ValueRange{Values: values}).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: sheets append %s: %v", domain.ErrUpstream, table, err)
	}
	return nil
}

// UpdateAt overwrites the line at ref.Position with rec projected onto the
// current header.
func (s *Store) UpdateAt(ctx context.Context, table string, ref domain.RowRef, rec *domain.Record) error {
	lines, err := s.locate(ctx, table, ref)
	if err != nil {
		return err
	}
	header := domain.BuildHeader(lines[0])
	rng := a1(table, fmt.Sprintf("A%d:%s%d", ref.Position, lastColumnName, ref.Position))
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheetsapi.ValueRange{
		Values: [][]interface{}{toInterfaces(rec.Project(header))},
	}).ValueInputOption(valueInputRaw).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: sheets update %s: %v", domain.ErrUpstream, rng, err)
	}
	return nil
}

// DeleteAt removes the line at ref.Position. Later lines shift up by one.
func (s *Store) DeleteAt(ctx context.Context, table string, ref domain.RowRef) error {
	if _, err := s.locate(ctx, table, ref); err != nil {
		return err
	}
	sheetID, err := s.sheetID(ctx, table)
	if err != nil {
		return err
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:         sheetID,
					Dimension:       dimensionRows,
					StartIndex:      int64(ref.Position - 1),
					EndIndex:        int64(ref.Position),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: sheets delete %s row %d: %v", domain.ErrUpstream, table, ref.Position, err)
	}
	return nil
}

func (s *Store) readLines(ctx context.Context, table string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, a1(table, "A1:"+lastColumnName)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: sheets read %s: %v", domain.ErrUpstream, table, err)
	}
	lines := make([][]string, len(resp.Values))
	for i, v := range resp.Values {
		lines[i] = toStrings(v)
	}
	return lines, nil
}

// locate re-reads the table and checks that ref still points at the same
// line it was read from.
func (s *Store) locate(ctx context.Context, table string, ref domain.RowRef) ([][]string, error) {
	lines, err := s.readLines(ctx, table)
	if err != nil {
		return nil, err
	}
	if ref.Position < domain.FirstDataPosition || ref.Position > len(lines) {
		return nil, fmt.Errorf("%w: %s row %d", domain.ErrNotFound, table, ref.Position)
	}
	if ref.Version != "" && rowVersion(lines[ref.Position-1]) != ref.Version {
		return nil, fmt.Errorf("%w: %s row %d changed since read", domain.ErrConflict, table, ref.Position)
	}
	return lines, nil
}

// sheetID resolves a tab title to its numeric id. Zero is a valid id.
func (s *Store) sheetID(ctx context.Context, table string) (int64, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%w: sheets metadata: %v", domain.ErrUpstream, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == table {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("%w: no sheet named %q", domain.ErrConfiguration, table)
}

// rowVersion fingerprints a line. Trailing empty cells are ignored because
// the API omits them.
func rowVersion(cells []string) string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	sum := sha256.Sum256([]byte(strings.Join(cells[:end], "\x1f")))
	return hex.EncodeToString(sum[:16])
}

// a1 builds an A1 range, quoting titles that are not plain identifiers.
func a1(table, rng string) string {
	plain := table != ""
	for _, r := range table {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			plain = false
			break
		}
	}
	if plain {
		return table + "!" + rng
	}
	return "'" + strings.ReplaceAll(table, "'", "''") + "'!" + rng
}

func toStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		out[i] = fmt.Sprint(c)
	}
	return out
}

func toInterfaces(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
