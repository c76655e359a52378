package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the operation clashes with current state.
	ErrConflict = errors.New("conflict")
	// ErrLocked indicates another actor holds the entity mutation lock.
	ErrLocked = errors.New("entity locked")
)
