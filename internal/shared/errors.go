package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller lacks the required capability.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a write raced with another and lost.
	ErrConflict = errors.New("conflict")
)
