package contacts

import "errors"

// Sentinel errors shared by every Store implementation.
var (
	ErrNotFound      = errors.New("contact not found")
	ErrAlreadyExists = errors.New("contact already exists")
	ErrConflict      = errors.New("contact changed since it was read")
)
