package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"clientportal/internal/domain"

	"github.com/lib/pq"
)

// ReadAll returns the table's rows in insertion order.
func (d *DB) ReadAll(ctx context.Context, table string) ([]domain.Row, error) {
	var header []string
	err := d.sql.QueryRowContext(ctx,
		"SELECT columns FROM row_headers WHERE table_name=$1;", table,
	).Scan(pq.Array(&header))
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Row{}, nil
	}
	if err != nil {
		return nil, upstream("read header", table, err)
	}

	rs, err := d.sql.QueryContext(ctx,
		"SELECT cells, version FROM row_cells WHERE table_name=$1 ORDER BY id;", table,
	)
	if err != nil {
		return nil, upstream("read", table, err)
	}
	defer rs.Close() //nolint:errcheck

	lines := [][]string{header}
	var versions []int64
	for rs.Next() {
		var (
			cells   []string
			version int64
		)
		if err := rs.Scan(pq.Array(&cells), &version); err != nil {
			return nil, upstream("scan", table, err)
		}
		lines = append(lines, cells)
		versions = append(versions, version)
	}
	if err := rs.Err(); err != nil {
		return nil, upstream("read", table, err)
	}

	_, rows := domain.BuildRows(lines)
	for i := range rows {
		rows[i].Version = strconv.FormatInt(versions[i], 10)
	}
	return rows, nil
}

// Append adds rec after the last row. The first append to a table stores
// the record's column order as the header.
func (d *DB) Append(ctx context.Context, table string, rec *domain.Record) error {
	return d.inTx(ctx, table, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO row_headers(table_name, columns) VALUES($1, $2) ON CONFLICT (table_name) DO NOTHING;",
			table, pq.Array(rec.Columns()),
		); err != nil {
			return upstream("create header", table, err)
		}
		header, err := lockHeader(ctx, tx, table)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO row_cells(table_name, cells) VALUES($1, $2);",
			table, pq.Array(rec.Project(header)),
		); err != nil {
			return upstream("append", table, err)
		}
		return nil
	})
}

// UpdateAt overwrites the row at ref.Position and assigns it a new version.
func (d *DB) UpdateAt(ctx context.Context, table string, ref domain.RowRef, rec *domain.Record) error {
	return d.inTx(ctx, table, func(tx *sql.Tx) error {
		header, err := lockHeader(ctx, tx, table)
		if err != nil {
			return err
		}
		id, err := locate(ctx, tx, table, ref)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE row_cells SET cells=$1, version=nextval('row_version_seq') WHERE id=$2;",
			pq.Array(rec.Project(header)), id,
		); err != nil {
			return upstream("update", table, err)
		}
		return nil
	})
}

// DeleteAt removes the row at ref.Position. Later rows shift up by one.
func (d *DB) DeleteAt(ctx context.Context, table string, ref domain.RowRef) error {
	return d.inTx(ctx, table, func(tx *sql.Tx) error {
		if _, err := lockHeader(ctx, tx, table); err != nil {
			return err
		}
		id, err := locate(ctx, tx, table, ref)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM row_cells WHERE id=$1;", id); err != nil {
			return upstream("delete", table, err)
		}
		return nil
	})
}

func (d *DB) inTx(ctx context.Context, table string, fn func(tx *sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return upstream("begin", table, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return upstream("commit", table, err)
	}
	return nil
}

// lockHeader reads the header and holds its row lock, serialising writers
// of the same table until the transaction ends.
func lockHeader(ctx context.Context, tx *sql.Tx, table string) ([]string, error) {
	var header []string
	err := tx.QueryRowContext(ctx,
		"SELECT columns FROM row_headers WHERE table_name=$1 FOR UPDATE;", table,
	).Scan(pq.Array(&header))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: table %s", domain.ErrNotFound, table)
	}
	if err != nil {
		return nil, upstream("lock header", table, err)
	}
	return header, nil
}

func locate(ctx context.Context, tx *sql.Tx, table string, ref domain.RowRef) (int64, error) {
	if ref.Position < domain.FirstDataPosition {
		return 0, fmt.Errorf("%w: %s row %d", domain.ErrNotFound, table, ref.Position)
	}
	var id, version int64
	err := tx.QueryRowContext(ctx,
		"SELECT id, version FROM row_cells WHERE table_name=$1 ORDER BY id OFFSET $2 LIMIT 1;",
		table, ref.Position-domain.FirstDataPosition,
	).Scan(&id, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s row %d", domain.ErrNotFound, table, ref.Position)
	}
	if err != nil {
		return 0, upstream("locate", table, err)
	}
	if ref.Version != "" && strconv.FormatInt(version, 10) != ref.Version {
		return 0, fmt.Errorf("%w: %s row %d changed since read", domain.ErrConflict, table, ref.Position)
	}
	return id, nil
}

func upstream(op, table string, err error) error {
	return fmt.Errorf("%w: postgres %s %s: %v", domain.ErrUpstream, op, table, err)
}
