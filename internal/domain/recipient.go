package domain

import "strings"

// CompositeIDSeparator joins client_id and email into a recipient id. It is
// not escaped: ids containing it cannot be parsed back unambiguously.
const CompositeIDSeparator = "||"

// Recipient receives a client's newsletter.
type Recipient struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Active   string `json:"active"`
}

// RecipientPreset is a frequently used recipient offered as a quick pick.
type RecipientPreset struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// CompositeID derives the recipient identity.
func CompositeID(clientID, email string) string {
	return clientID + CompositeIDSeparator + email
}

// ParseCompositeID splits on the first separator. A missing separator yields
// the whole input as clientID and an empty email.
func ParseCompositeID(id string) (clientID, email string) {
	clientID, email, _ = strings.Cut(id, CompositeIDSeparator)
	return clientID, email
}

// RecipientFromRow reads a recipient out of a row and derives its id.
func RecipientFromRow(r Row) Recipient {
	rec := Recipient{
		ClientID: r.Get("client_id"),
		Name:     r.Get("name"),
		Email:    r.Get("email"),
		Active:   r.Get("active"),
	}
	rec.ID = CompositeID(rec.ClientID, rec.Email)
	return rec
}

// Matches reports whether the recipient has the given identity.
func (r Recipient) Matches(clientID, email string) bool {
	return r.ClientID == clientID && r.Email == email
}

// Record converts the recipient into a write record. The derived id is not
// stored.
func (r Recipient) Record() *Record {
	return NewRecord().
		Set("client_id", r.ClientID).
		Set("name", r.Name).
		Set("email", r.Email).
		Set("active", r.Active)
}
