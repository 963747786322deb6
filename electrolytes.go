package electrolytes

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/electrolytes/constituent"
	"github.com/hupe1980/electrolytes/internal/fs"
	"github.com/hupe1980/electrolytes/internal/lockfile"
	"github.com/hupe1980/electrolytes/internal/store"
)

// Constituent is the record type served by the database.
type Constituent = constituent.Constituent

// DB is the layered constituent database: the immutable built-in table merged
// with the mutable per-user overlay.
//
// Lookups consult the built-in table first, then the overlay; the two key
// sets are disjoint at all times. Mutations go to the overlay only and are
// flushed to disk atomically before the guarding cross-process lock is
// released, so every single operation is atomic on its own. Callers needing
// check-then-act atomicity across multiple operations use Update.
//
// DB is designed for one instance per process per overlay file. Concurrent
// access from multiple processes is coordinated through an advisory lock on a
// sibling of the overlay file.
type DB struct {
	fsys    fs.FileSystem
	overlay *store.Overlay
	lock    *lockfile.Lock
	logger  *Logger
	metrics MetricsCollector
}

// DefaultPath returns the per-user overlay file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "electrolytes", "user_constituents.json"), nil
}

// lockPath derives the lock file location from the overlay path.
func lockPath(overlayPath string) string {
	return strings.TrimSuffix(overlayPath, filepath.Ext(overlayPath)) + ".lock"
}

// New creates a database over the per-user overlay file. The built-in table
// is embedded in the binary; the overlay is read lazily on first access.
func New(optFns ...Option) (*DB, error) {
	opts := options{
		fs:          fs.Default,
		lockTimeout: DefaultLockTimeout,
		logger:      NoopLogger(),
		metrics:     NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.path == "" {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		opts.path = path
	}

	return &DB{
		fsys:    opts.fs,
		overlay: store.NewOverlay(opts.fs, opts.path),
		lock:    lockfile.New(lockPath(opts.path), opts.lockTimeout),
		logger:  opts.logger,
		metrics: opts.metrics,
	}, nil
}

// Path returns the overlay file location this database is bound to.
func (db *DB) Path() string { return db.overlay.Path() }

// acquire takes the cross-process lock. On the outermost acquisition the
// overlay cache is invalidated first, so the next load observes writes other
// processes committed since.
func (db *DB) acquire() error {
	if db.lock.Depth() == 0 {
		db.overlay.Invalidate()
	}

	start := time.Now()
	err := db.lock.Acquire()
	db.metrics.RecordLockWait(time.Since(start), err)
	if err != nil {
		return translateError(err)
	}
	return nil
}

// release flushes pending overlay changes when the outermost nesting level
// exits, then drops the lock. The lock is released even when the flush fails;
// the overlay stays dirty in that case so the change can be retried.
func (db *DB) release() error {
	var flushErr error
	if db.lock.Depth() == 1 && db.overlay.Dirty() {
		start := time.Now()
		flushErr = translateError(db.overlay.Flush())
		db.metrics.RecordFlush(time.Since(start), flushErr)
		db.logger.LogFlush(db.overlay.Path(), flushErr)
	}

	if err := db.lock.Release(); err != nil {
		if flushErr != nil {
			return flushErr
		}
		return err
	}
	return flushErr
}

// locked runs fn with the lock held and the overlay loaded. Release runs on
// every exit path.
func (db *DB) locked(fn func() error) (err error) {
	if err := db.acquire(); err != nil {
		return err
	}
	defer func() {
		if rerr := db.release(); err == nil {
			err = rerr
		}
	}()

	if err := db.overlay.Load(); err != nil {
		return translateError(err)
	}
	return fn()
}

// ensureLoaded populates the overlay cache if needed. The initial read runs
// under the lock; subsequent reads are served from memory until a locked
// scope invalidates the cache.
func (db *DB) ensureLoaded() error {
	if db.overlay.Loaded() {
		return nil
	}
	return db.locked(func() error { return nil })
}

// Lookup returns the record for a name, case-insensitively. The built-in
// table is consulted first, then the user overlay.
func (db *DB) Lookup(name string) (Constituent, error) {
	start := time.Now()
	c, err := db.lookup(name)
	db.metrics.RecordLookup(time.Since(start), err)
	return c, err
}

func (db *DB) lookup(name string) (Constituent, error) {
	name = constituent.Canonical(name)

	if c, ok := store.DefaultLookup(name); ok {
		return c, nil
	}
	if err := db.ensureLoaded(); err != nil {
		return Constituent{}, err
	}
	if c, ok := db.overlay.Get(name); ok {
		return c, nil
	}
	return Constituent{}, fmt.Errorf("%s: %w", name, ErrNotFound)
}

// Contains reports whether a name resolves, case-insensitively. An unreadable
// overlay is logged and treated as empty.
func (db *DB) Contains(name string) bool {
	_, err := db.lookup(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		db.logger.Warn("overlay unavailable, treating as empty", "error", err)
	}
	return err == nil
}

// ContainsRecord reports whether an equal record is stored under the given
// record's name.
func (db *DB) ContainsRecord(c Constituent) bool {
	got, err := db.lookup(c.Name())
	return err == nil && got.Equal(c)
}

// IsUserDefined reports membership in the user overlay only.
func (db *DB) IsUserDefined(name string) bool {
	if err := db.ensureLoaded(); err != nil {
		db.logger.Warn("overlay unavailable, treating as empty", "error", err)
		return false
	}
	return db.overlay.Has(constituent.Canonical(name))
}

// Add stores a user-defined record and flushes the overlay. Names that exist
// as defaults fail with ErrOverride; names already user-defined fail with
// ErrDuplicate. A rejected add never mutates anything.
func (db *DB) Add(c Constituent) error {
	start := time.Now()
	err := db.locked(func() error {
		return translateError(db.overlay.Add(c))
	})
	db.metrics.RecordAdd(time.Since(start), err)
	db.logger.LogAdd(c.Name(), err)
	return err
}

// Remove deletes a user-defined record and flushes the overlay. Default names
// fail with ErrProtected, unknown names with ErrMissing.
func (db *DB) Remove(name string) error {
	name = constituent.Canonical(name)

	start := time.Now()
	err := db.locked(func() error {
		return translateError(db.overlay.Remove(name))
	})
	db.metrics.RecordRemove(time.Since(start), err)
	db.logger.LogRemove(name, err)
	return err
}

// Names yields the union of built-in and user-defined names in sorted order,
// each exactly once. The sequence is restartable: each iteration re-reads the
// current state.
func (db *DB) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		names := slices.Clone(store.DefaultNames())
		names = append(names, db.userNames()...)
		slices.Sort(names)
		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

// UserDefined yields the overlay's current name set in sorted order. The
// sequence is restartable.
func (db *DB) UserDefined() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range db.userNames() {
			if !yield(name) {
				return
			}
		}
	}
}

func (db *DB) userNames() []string {
	if err := db.ensureLoaded(); err != nil {
		db.logger.Warn("overlay unavailable, treating as empty", "error", err)
		return nil
	}
	return db.overlay.Names()
}

// Len returns the total number of constituents, built-in plus user-defined.
func (db *DB) Len() int {
	return store.DefaultLen() + db.UserLen()
}

// UserLen returns the number of user-defined constituents.
func (db *DB) UserLen() int {
	return len(db.userNames())
}

// DefaultLen returns the number of built-in constituents.
func (db *DB) DefaultLen() int {
	return store.DefaultLen()
}

// Tx is a handle to a locked transaction scope. All operations performed
// through it run under the cross-process lock held by Update, so a
// check-then-act sequence cannot interleave with other processes.
type Tx struct {
	db *DB
}

// Lookup is Lookup within the scope.
func (tx *Tx) Lookup(name string) (Constituent, error) { return tx.db.Lookup(name) }

// Contains is Contains within the scope.
func (tx *Tx) Contains(name string) bool { return tx.db.Contains(name) }

// IsUserDefined is IsUserDefined within the scope.
func (tx *Tx) IsUserDefined(name string) bool { return tx.db.IsUserDefined(name) }

// UserDefined is UserDefined within the scope.
func (tx *Tx) UserDefined() iter.Seq[string] { return tx.db.UserDefined() }

// Add stages an add. The overlay is flushed once when the scope exits.
func (tx *Tx) Add(c Constituent) error { return tx.db.Add(c) }

// Remove stages a remove. The overlay is flushed once when the scope exits.
func (tx *Tx) Remove(name string) error { return tx.db.Remove(name) }

// Update runs fn inside a locked scope. Entering the scope acquires the
// cross-process lock and refreshes the overlay from disk, so the scope
// observes other processes' committed writes. All pending changes are flushed
// once when the scope exits; the lock is released on every exit path, normal
// or failing.
//
// If fn returns an error the flush still happens: mutations staged through
// the Tx before the failure have already been applied in memory, matching the
// one-at-a-time behavior of unscoped operations.
func (db *DB) Update(fn func(tx *Tx) error) error {
	return db.locked(func() error {
		return fn(&Tx{db: db})
	})
}
