package store

import "errors"

var (
	// ErrNotFound indicates that no document exists under the given ID.
	ErrNotFound = errors.New("document not found")
)
