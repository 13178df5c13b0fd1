package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located. A todo owned by a
	// different user reports the same error as a missing row.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness violation, such as a duplicate email.
	ErrConflict = errors.New("repository: conflict")
	// ErrInvalidArgument indicates the backing store rejected a value.
	ErrInvalidArgument = errors.New("repository: invalid argument")
)
