package app

import (
	"context"
	"fmt"
	"slices"

	"clientportal/internal/domain"
)

// LogQuery selects a page of the delivery log. Zero Limit means no limit.
type LogQuery struct {
	Newest bool
	Limit  int
	Offset int
}

// LogService reads the delivery log written by the sender.
type LogService struct {
	store domain.RowStore
	table string
}

// NewLogService creates a LogService over the given table.
func NewLogService(store domain.RowStore, table string) *LogService {
	return &LogService{store: store, table: table}
}

// List returns log entries, chronological unless q.Newest is set.
func (s *LogService) List(ctx context.Context, q LogQuery) ([]domain.LogEntry, error) {
	rows, err := s.store.ReadAll(ctx, s.table)
	if err != nil {
		return nil, fmt.Errorf("list log: %w", err)
	}
	out := make([]domain.LogEntry, len(rows))
	for i, r := range rows {
		out[i] = domain.LogEntryFromRow(r)
	}
	if q.Newest {
		slices.Reverse(out)
	}
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []domain.LogEntry{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
