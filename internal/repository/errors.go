package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located. Malformed identifier
	// strings surface as ErrNotFound as well, never as a storage error.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("repository: duplicate")
)
