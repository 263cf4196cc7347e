// Package memory implements an in-memory row store for development and testing.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"clientportal/internal/domain"
)

type line struct {
	cells   []string
	version int64
}

type table struct {
	header []string
	lines  []line
}

// DB implements domain.RowStore in memory.
type DB struct {
	mu      sync.Mutex
	tables  map[string]*table
	version int64
}

// New creates a new in-memory store.
func New() *DB {
	return &DB{tables: make(map[string]*table)}
}

// Ensure interfaces are met.
var _ domain.RowStore = (*DB)(nil)

// Seed replaces a table with a header and data lines.
func (db *DB) Seed(name string, header []string, lines ...[]string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t := &table{header: append([]string(nil), header...)}
	for _, cells := range lines {
		t.lines = append(t.lines, line{cells: append([]string(nil), cells...), version: db.nextVersion()})
	}
	db.tables[name] = t
}

// Header returns a copy of the table's header line.
func (db *DB) Header(name string) []string {
	db.mu.Lock()
	defer db.mu.Unlock()

	if t, ok := db.tables[name]; ok {
		return append([]string(nil), t.header...)
	}
	return nil
}

// ReadAll returns every data row of the table.
func (db *DB) ReadAll(ctx context.Context, name string) ([]domain.Row, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tables[name]
	if !ok || len(t.header) == 0 {
		return []domain.Row{}, nil
	}
	raw := make([][]string, 0, len(t.lines)+1)
	raw = append(raw, t.header)
	for _, l := range t.lines {
		raw = append(raw, l.cells)
	}
	_, rows := domain.BuildRows(raw)
	for i := range rows {
		rows[i].Version = strconv.FormatInt(t.lines[i].version, 10)
	}
	return rows, nil
}

// Append adds a line at the end of the table, creating the header from the
// record's own column order when the table has none.
func (db *DB) Append(ctx context.Context, name string, rec *domain.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tables[name]
	if !ok {
		t = &table{}
		db.tables[name] = t
	}
	if len(t.header) == 0 {
		t.header = rec.Columns()
	}
	t.lines = append(t.lines, line{cells: rec.Project(t.header), version: db.nextVersion()})
	return nil
}

// UpdateAt overwrites the line at ref.Position.
func (db *DB) UpdateAt(ctx context.Context, name string, ref domain.RowRef, rec *domain.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, idx, err := db.locate(name, ref)
	if err != nil {
		return err
	}
	t.lines[idx] = line{cells: rec.Project(t.header), version: db.nextVersion()}
	return nil
}

// DeleteAt removes the line at ref.Position, shifting later lines up.
func (db *DB) DeleteAt(ctx context.Context, name string, ref domain.RowRef) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, idx, err := db.locate(name, ref)
	if err != nil {
		return err
	}
	t.lines = append(t.lines[:idx], t.lines[idx+1:]...)
	return nil
}

func (db *DB) locate(name string, ref domain.RowRef) (*table, int, error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, 0, fmt.Errorf("table %q: %w", name, domain.ErrNotFound)
	}
	idx := ref.Position - domain.FirstDataPosition
	if idx < 0 || idx >= len(t.lines) {
		return nil, 0, fmt.Errorf("%s row %d: %w", name, ref.Position, domain.ErrNotFound)
	}
	if ref.Version != "" && ref.Version != strconv.FormatInt(t.lines[idx].version, 10) {
		return nil, 0, fmt.Errorf("%s row %d: %w", name, ref.Position, domain.ErrConflict)
	}
	return t, idx, nil
}

func (db *DB) nextVersion() int64 {
	db.version++
	return db.version
}
