package electrolytes

import (
	"errors"
	"fmt"

	"github.com/hupe1980/electrolytes/internal/lockfile"
	"github.com/hupe1980/electrolytes/internal/store"
)

var (
	// ErrNotFound is returned when a name is absent from both the built-in
	// table and the user overlay.
	ErrNotFound = errors.New("no such constituent")

	// ErrDuplicate is returned when adding a name that already exists in the
	// user overlay.
	ErrDuplicate = errors.New("constituent already exists")

	// ErrOverride is returned when adding a name that would shadow a default
	// constituent. Defaults can never be overridden.
	ErrOverride = errors.New("cannot override a default constituent")

	// ErrProtected is returned when removing a default constituent. Defaults
	// can never be removed.
	ErrProtected = errors.New("cannot remove a default constituent")

	// ErrMissing is returned when removing a name that is not user-defined.
	ErrMissing = errors.New("no such user-defined constituent")

	// ErrLockTimeout is returned when the cross-process lock could not be
	// acquired within the configured wait. No mutation has occurred when
	// this is returned.
	ErrLockTimeout = errors.New("database is locked by another process")
)

// PersistenceError indicates a failure to read or write the user overlay
// file: a malformed document, a failed temp-file write, or a failed rename.
//
// After a failed flush the pending in-memory change is kept, so the operation
// can be retried. The underlying error is available via errors.Unwrap.
type PersistenceError struct {
	Op    string // "load" or "flush"
	Path  string
	cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("overlay %s %s: %v", e.Op, e.Path, e.cause)
}

func (e *PersistenceError) Unwrap() error { return e.cause }

// translateError maps internal errors onto the public taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case errors.Is(err, store.ErrOverride):
		return fmt.Errorf("%w: %w", ErrOverride, err)
	case errors.Is(err, store.ErrProtected):
		return fmt.Errorf("%w: %w", ErrProtected, err)
	case errors.Is(err, store.ErrMissing):
		return fmt.Errorf("%w: %w", ErrMissing, err)
	case errors.Is(err, lockfile.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}

	var perr *store.PersistenceError
	if errors.As(err, &perr) {
		return &PersistenceError{Op: perr.Op, Path: perr.Path, cause: perr.Err}
	}

	return err
}
