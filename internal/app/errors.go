package app

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized indicates a missing, expired or forged session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials indicates that the supplied password was wrong.
	ErrInvalidCredentials = errors.New("invalid password")
)

// ValidationError carries per-field problems found at the API boundary.
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	v.Fields[field] = msg
}

func (v *ValidationError) orNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + v.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}
