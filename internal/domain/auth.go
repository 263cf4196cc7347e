// Package domain contains the core business entities and interfaces.
package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	// SessionCookieName is the cookie that carries the session token.
	SessionCookieName = "client_portal_session"
	// SessionTTL bounds both the cookie max-age and the token's own validity.
	SessionTTL = 12 * time.Hour
)

// ErrMalformedToken indicates a session token that cannot be parsed.
var ErrMalformedToken = errors.New("malformed session token")

// SessionToken is the stateless session credential: the unix second it was
// issued and a hex HMAC over that timestamp.
type SessionToken struct {
	IssuedAt  int64
	Signature string
}

// ParseSessionToken splits "<timestamp>.<signature>".
func ParseSessionToken(raw string) (SessionToken, error) {
	ts, sig, ok := strings.Cut(raw, ".")
	if !ok || ts == "" || sig == "" {
		return SessionToken{}, ErrMalformedToken
	}
	issuedAt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return SessionToken{}, ErrMalformedToken
	}
	return SessionToken{IssuedAt: issuedAt, Signature: sig}, nil
}

// String returns the wire form of the token.
func (t SessionToken) String() string {
	return strconv.FormatInt(t.IssuedAt, 10) + "." + t.Signature
}

// Payload is the exact byte string that gets signed.
func (t SessionToken) Payload() []byte {
	return []byte(strconv.FormatInt(t.IssuedAt, 10))
}
