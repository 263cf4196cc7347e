package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clientportal/internal/domain"
)

// RecipientService manages the recipients assigned to each client.
type RecipientService struct {
	store   domain.RowStore
	table   string
	presets []domain.RecipientPreset
	logger  *slog.Logger
}

// NewRecipientService creates a RecipientService over the given table.
func NewRecipientService(store domain.RowStore, table string, presets []domain.RecipientPreset, logger *slog.Logger) *RecipientService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipientService{
		store:   store,
		table:   table,
		presets: presets,
		logger:  logger.With("component", "recipients"),
	}
}

// List returns all recipients with their composite ids.
func (s *RecipientService) List(ctx context.Context) ([]domain.Recipient, error) {
	rows, err := s.store.ReadAll(ctx, s.table)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	out := make([]domain.Recipient, len(rows))
	for i, r := range rows {
		out[i] = domain.RecipientFromRow(r)
	}
	return out, nil
}

// Presets returns the configured quick-pick recipients.
func (s *RecipientService) Presets() []domain.RecipientPreset {
	out := make([]domain.RecipientPreset, len(s.presets))
	copy(out, s.presets)
	return out
}

// Create assigns a recipient to a client. The same address (compared
// case-insensitively) cannot be assigned to one client twice.
func (s *RecipientService) Create(ctx context.Context, r domain.Recipient) error {
	r.Email = strings.TrimSpace(r.Email)
	if err := validateRecipient(r); err != nil {
		return err
	}
	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ClientID == r.ClientID && strings.EqualFold(e.Email, r.Email) {
			return fmt.Errorf("recipient %s already assigned: %w", r.Email, domain.ErrConflict)
		}
	}
	if err := s.store.Append(ctx, s.table, r.Record()); err != nil {
		return fmt.Errorf("append recipient: %w", err)
	}
	s.logger.InfoContext(ctx, "recipient created", "client_id", r.ClientID)
	return nil
}

// Update overwrites the recipient identified by compositeID. Missing
// identity fields are taken from compositeID.
func (s *RecipientService) Update(ctx context.Context, compositeID string, r domain.Recipient) error {
	clientID, email := domain.ParseCompositeID(compositeID)
	if r.ClientID == "" {
		r.ClientID = clientID
	}
	if r.Email == "" {
		r.Email = email
	}
	if err := validateRecipient(r); err != nil {
		return err
	}
	rows, err := s.store.ReadAll(ctx, s.table)
	if err != nil {
		return fmt.Errorf("read recipients: %w", err)
	}
	row, ok := recipientRow(rows, clientID, email)
	if !ok {
		return fmt.Errorf("recipient %s: %w", domain.CompositeID(clientID, email), domain.ErrNotFound)
	}
	for _, other := range rows {
		if other.Position != row.Position && other.Get("client_id") == r.ClientID && strings.EqualFold(other.Get("email"), r.Email) {
			return fmt.Errorf("recipient %s already assigned: %w", r.Email, domain.ErrConflict)
		}
	}
	if err := s.store.UpdateAt(ctx, s.table, row.Ref(), r.Record()); err != nil {
		return fmt.Errorf("update recipient: %w", err)
	}
	s.logger.InfoContext(ctx, "recipient updated", "client_id", clientID, "position", row.Position)
	return nil
}

// Delete removes the recipient identified by compositeID.
func (s *RecipientService) Delete(ctx context.Context, compositeID string) error {
	clientID, email := domain.ParseCompositeID(compositeID)
	row, err := s.find(ctx, clientID, email)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAt(ctx, s.table, row.Ref()); err != nil {
		return fmt.Errorf("delete recipient: %w", err)
	}
	s.logger.InfoContext(ctx, "recipient deleted", "client_id", clientID, "position", row.Position)
	return nil
}

func (s *RecipientService) find(ctx context.Context, clientID, email string) (domain.Row, error) {
	rows, err := s.store.ReadAll(ctx, s.table)
	if err != nil {
		return domain.Row{}, fmt.Errorf("read recipients: %w", err)
	}
	if r, ok := recipientRow(rows, clientID, email); ok {
		return r, nil
	}
	return domain.Row{}, fmt.Errorf("recipient %s: %w", domain.CompositeID(clientID, email), domain.ErrNotFound)
}

func recipientRow(rows []domain.Row, clientID, email string) (domain.Row, bool) {
	for _, r := range rows {
		if r.Get("client_id") == clientID && r.Get("email") == email {
			return r, true
		}
	}
	return domain.Row{}, false
}
