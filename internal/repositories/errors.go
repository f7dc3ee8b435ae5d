package repositories

import "errors"

var (
	// ErrNotFound indicates no record matched the query.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write collided with a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)
