package domain

import "errors"

var (
	// ErrNotFound indicates that the targeted row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates that a row changed between lookup and write.
	ErrConflict = errors.New("row changed concurrently")
	// ErrUpstream wraps failures of the backing store.
	ErrUpstream = errors.New("upstream store failure")
	// ErrConfiguration indicates missing secrets, credentials or table names.
	ErrConfiguration = errors.New("configuration error")
)
