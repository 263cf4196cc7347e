package domain

import (
	"context"
	"strings"
)

// Default table names.
const (
	TableClients    = "Clients"
	TableRecipients = "Recipients"
	TableLog        = "Log"
)

// FirstDataPosition is the position of the first row after the header line.
const FirstDataPosition = 2

// Row is one line of a table keyed by header column name. Position and
// Version are transient and never serialized.
type Row struct {
	Position int
	Version  string
	Fields   map[string]string
}

// Get returns the cell for column, or "" when absent.
func (r Row) Get(column string) string {
	return r.Fields[column]
}

// Ref returns a reference targeting this row.
func (r Row) Ref() RowRef {
	return RowRef{Position: r.Position, Version: r.Version}
}

// RowRef targets a line for update or delete. An empty Version skips the
// concurrency check.
type RowRef struct {
	Position int
	Version  string
}

// Record is an ordered set of column values used for writes.
type Record struct {
	columns []string
	values  map[string]string
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Set assigns a column value, remembering first-insertion order.
func (r *Record) Set(column, value string) *Record {
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
	return r
}

// Get returns the value for column, or "".
func (r *Record) Get(column string) string {
	return r.values[column]
}

// Columns returns the record's own key order.
func (r *Record) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Project lays the record out along header. Columns the record does not
// carry become "".
func (r *Record) Project(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = r.values[h]
	}
	return out
}

// RowStore is the port for the row-oriented backing store.
type RowStore interface {
	ReadAll(ctx context.Context, table string) ([]Row, error)
	Append(ctx context.Context, table string, rec *Record) error
	UpdateAt(ctx context.Context, table string, ref RowRef, rec *Record) error
	DeleteAt(ctx context.Context, table string, ref RowRef) error
}

// BuildRows maps raw lines (header first) to rows. Header names are trimmed
// and missing trailing cells map to "".
func BuildRows(lines [][]string) (header []string, rows []Row) {
	if len(lines) == 0 {
		return nil, nil
	}
	header = BuildHeader(lines[0])
	rows = make([]Row, 0, len(lines)-1)
	for i, line := range lines[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(line) {
				fields[h] = line[j]
			} else {
				fields[h] = ""
			}
		}
		rows = append(rows, Row{Position: i + FirstDataPosition, Fields: fields})
	}
	return header, rows
}

// BuildHeader trims the names of a raw header line.
func BuildHeader(line []string) []string {
	header := make([]string, len(line))
	for i, h := range line {
		header[i] = strings.TrimSpace(h)
	}
	return header
}

// Tables names the three logical tables in the backing store.
type Tables struct {
	Clients    string
	Recipients string
	Log        string
}

// DefaultTables returns the conventional sheet names.
func DefaultTables() Tables {
	return Tables{Clients: TableClients, Recipients: TableRecipients, Log: TableLog}
}
