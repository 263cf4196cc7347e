// Package app holds the application services and business logic.
package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"clientportal/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds the shared secrets behind the single operator identity.
type AuthConfig struct {
	SessionSecret string
	// Password is compared verbatim. PasswordHash, a bcrypt hash, is used
	// when Password is empty.
	Password     string
	PasswordHash string
}

// Authenticator issues and verifies stateless HMAC session tokens.
type Authenticator struct {
	cfg AuthConfig
	ttl time.Duration
	now func() time.Time
}

// NewAuthenticator creates an authenticator. A nil clock means time.Now.
func NewAuthenticator(cfg AuthConfig, now func() time.Time) *Authenticator {
	if now == nil {
		now = time.Now
	}
	return &Authenticator{cfg: cfg, ttl: domain.SessionTTL, now: now}
}

// TTL returns the validity window of issued tokens.
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Issue creates a token stamped with the current time.
func (a *Authenticator) Issue() (string, error) {
	if a.cfg.SessionSecret == "" {
		return "", fmt.Errorf("%w: session secret is not set", domain.ErrConfiguration)
	}
	tok := domain.SessionToken{IssuedAt: a.now().Unix()}
	tok.Signature = a.sign(tok)
	return tok.String(), nil
}

// Verify reports whether raw is well formed, no older than the TTL and
// carries a valid signature.
func (a *Authenticator) Verify(raw string) bool {
	if raw == "" || a.cfg.SessionSecret == "" {
		return false
	}
	tok, err := domain.ParseSessionToken(raw)
	if err != nil {
		return false
	}
	if a.now().Unix()-tok.IssuedAt > int64(a.ttl/time.Second) {
		return false
	}
	return hmac.Equal([]byte(tok.Signature), []byte(a.sign(tok)))
}

// CheckPassword compares candidate against the configured password.
func (a *Authenticator) CheckPassword(candidate string) (bool, error) {
	switch {
	case a.cfg.Password != "":
		return subtle.ConstantTimeCompare([]byte(candidate), []byte(a.cfg.Password)) == 1, nil
	case a.cfg.PasswordHash != "":
		if candidate == "" {
			return false, nil
		}
		err := bcrypt.CompareHashAndPassword([]byte(a.cfg.PasswordHash), []byte(candidate))
		return err == nil, nil
	default:
		return false, fmt.Errorf("%w: login password is not set", domain.ErrConfiguration)
	}
}

// Login checks the password and issues a token.
func (a *Authenticator) Login(password string) (string, error) {
	ok, err := a.CheckPassword(password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}
	return a.Issue()
}

func (a *Authenticator) sign(tok domain.SessionToken) string {
	mac := hmac.New(sha256.New, []byte(a.cfg.SessionSecret))
	mac.Write(tok.Payload())
	return hex.EncodeToString(mac.Sum(nil))
}
