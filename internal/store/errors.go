package store

import "errors"

var (
	// ErrDuplicate is returned when adding a name already present in the
	// overlay.
	ErrDuplicate = errors.New("name already exists in the user overlay")

	// ErrOverride is returned when adding a name that shadows a default
	// constituent.
	ErrOverride = errors.New("name already exists as a default constituent")

	// ErrMissing is returned when removing a name absent from the overlay.
	ErrMissing = errors.New("no such user-defined constituent")

	// ErrProtected is returned when removing a default constituent.
	ErrProtected = errors.New("cannot remove a default constituent")
)

// PersistenceError wraps a failure to read or write the overlay file: a
// malformed document, a failed temp-file write, or a failed rename.
type PersistenceError struct {
	Op   string // "load" or "flush"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return "overlay " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
