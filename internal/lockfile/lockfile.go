// Package lockfile provides the cross-process advisory lock guarding the user
// overlay file. The lock is keyed to a sibling lock file whose content carries
// no data, only lock state.
package lockfile

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/juju/fslock"
)

// ErrTimeout is returned when the lock could not be acquired within the
// configured wait. No state has been touched when this is returned.
var ErrTimeout = errors.New("lock acquisition timed out")

// Lock is an exclusive, re-entrant, cross-process advisory lock.
//
// Exclusion between processes comes from an OS-level advisory lock on the lock
// file. Within a process the lock counts nested acquisitions, so an operation
// that locks on its own can run inside an already-locked transaction scope
// without deadlocking.
type Lock struct {
	mu      sync.Mutex
	flk     *fslock.Lock
	path    string
	timeout time.Duration // 0 waits indefinitely
	depth   int
}

// New creates a lock keyed to path. A zero timeout blocks indefinitely on
// acquisition.
func New(path string, timeout time.Duration) *Lock {
	return &Lock{
		flk:     fslock.New(path),
		path:    path,
		timeout: timeout,
	}
}

// Path returns the lock file's location.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock, blocking until it is free or the configured timeout
// elapses. Re-entrant: if this Lock already holds the OS lock, Acquire only
// increments the nesting depth.
func (l *Lock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth > 0 {
		l.depth++
		return nil
	}

	var err error
	if l.timeout > 0 {
		err = l.flk.LockWithTimeout(l.timeout)
		if errors.Is(err, fslock.ErrTimeout) {
			return fmt.Errorf("%w after %s: %s", ErrTimeout, l.timeout, l.path)
		}
	} else {
		err = l.flk.Lock()
	}
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", l.path, err)
	}

	l.depth = 1
	return nil
}

// Release drops one nesting level, releasing the OS lock when the outermost
// level exits. Releasing an unheld lock is an error.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth == 0 {
		return fmt.Errorf("release of unheld lock: %s", l.path)
	}

	l.depth--
	if l.depth > 0 {
		return nil
	}
	if err := l.flk.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

// Depth returns the current nesting depth. Zero means the lock is not held by
// this process through this Lock.
func (l *Lock) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depth
}
