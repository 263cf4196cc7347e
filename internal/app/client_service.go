package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clientportal/internal/domain"
)

// Defaults offered when the operator starts a new client.
const (
	DefaultTimezone      = "America/Los_Angeles"
	DefaultAnalysisStyle = "brief"
	DefaultActive        = "TRUE"
)

// ClientService encapsulates client management use cases.
type ClientService struct {
	store  domain.RowStore
	table  string
	logger *slog.Logger
}

// NewClientService creates a ClientService over the given table.
func NewClientService(store domain.RowStore, table string, logger *slog.Logger) *ClientService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientService{store: store, table: table, logger: logger.With("component", "clients")}
}

// List returns every client in storage order.
func (s *ClientService) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.store.ReadAll(ctx, s.table)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]domain.Client, len(rows))
	for i, r := range rows {
		out[i] = domain.ClientFromRow(r)
	}
	return out, nil
}

// Template returns a blank client with defaults and the next free id.
func (s *ClientService) Template(ctx context.Context) (domain.Client, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return domain.Client{}, err
	}
	return domain.Client{
		ClientID:      domain.NextClientID(existing),
		Timezone:      DefaultTimezone,
		AnalysisStyle: DefaultAnalysisStyle,
		Active:        DefaultActive,
	}, nil
}

// Create validates and appends a client.
func (s *ClientService) Create(ctx context.Context, c domain.Client) error {
	c.SpecificURLs = domain.NormalizeURLList(c.SpecificURLs)
	if err := validateClient(c); err != nil {
		return err
	}
	switch _, err := s.find(ctx, c.ClientID); {
	case err == nil:
		return fmt.Errorf("client %s already exists: %w", c.ClientID, domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}
	if err := s.store.Append(ctx, s.table, c.Record()); err != nil {
		return fmt.Errorf("append client: %w", err)
	}
	s.logger.InfoContext(ctx, "client created", "client_id", c.ClientID)
	return nil
}

// Update overwrites the row of client id with c. The row keeps id when c
// carries no client_id.
func (s *ClientService) Update(ctx context.Context, id string, c domain.Client) error {
	if c.ClientID == "" {
		c.ClientID = id
	}
	c.SpecificURLs = domain.NormalizeURLList(c.SpecificURLs)
	if err := validateClient(c); err != nil {
		return err
	}
	rows, err := s.store.ReadAll(ctx, s.table)
	if err != nil {
		return fmt.Errorf("read clients: %w", err)
	}
	row, ok := clientRow(rows, id)
	if !ok {
		return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}
	if c.ClientID != id {
		if _, taken := clientRow(rows, c.ClientID); taken {
			return fmt.Errorf("client %s already exists: %w", c.ClientID, domain.ErrConflict)
		}
	}
	if err := s.store.UpdateAt(ctx, s.table, row.Ref(), c.Record()); err != nil {
		return fmt.Errorf("update client %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "client updated", "client_id", id, "position", row.Position)
	return nil
}

// Delete removes the row of client id.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	row, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAt(ctx, s.table, row.Ref()); err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "client deleted", "client_id", id, "position", row.Position)
	return nil
}

func (s *ClientService) find(ctx context.Context, id string) (domain.Row, error) {
	rows, err := s.store.ReadAll(ctx, s.table)
	if err != nil {
		return domain.Row{}, fmt.Errorf("read clients: %w", err)
	}
	if r, ok := clientRow(rows, id); ok {
		return r, nil
	}
	return domain.Row{}, fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
}

func clientRow(rows []domain.Row, id string) (domain.Row, bool) {
	for _, r := range rows {
		if r.Get("client_id") == id {
			return r, true
		}
	}
	return domain.Row{}, false
}
