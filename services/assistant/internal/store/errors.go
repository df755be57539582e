package store

import "errors"

var (
	// ErrEntryNotFound indicates no conversation entry carries the given id.
	ErrEntryNotFound = errors.New("conversation entry not found")
	// ErrInvalidTransition indicates a status patch that is not sent -> delivered.
	ErrInvalidTransition = errors.New("invalid delivery status transition")
)
