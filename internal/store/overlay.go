package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/hupe1980/electrolytes/constituent"
	"github.com/hupe1980/electrolytes/internal/fs"
)

// Overlay is the mutable, per-user constituent table backed by a single file.
//
// The on-disk file is the durable source of truth across processes. In memory
// the overlay moves through three states: unloaded, loaded-clean and
// loaded-dirty. Mutations buffer in memory and mark the table dirty; Flush
// writes the whole table back atomically and returns to loaded-clean. A failed
// flush stays dirty so the pending change can be retried.
type Overlay struct {
	fs   fs.FileSystem
	path string

	table  map[string]constituent.Constituent
	loaded bool
	dirty  bool
}

// NewOverlay creates an overlay backed by path. Nothing is read until Load.
func NewOverlay(fsys fs.FileSystem, path string) *Overlay {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Overlay{fs: fsys, path: path}
}

// Path returns the overlay file's location.
func (o *Overlay) Path() string { return o.path }

// Loaded reports whether the table is populated from disk.
func (o *Overlay) Loaded() bool { return o.loaded }

// Dirty reports whether there are buffered mutations not yet flushed.
func (o *Overlay) Dirty() bool { return o.dirty }

// Load reads the overlay file into memory. An absent file is an empty
// overlay. A malformed file is a recoverable *PersistenceError: it indicates
// corrupted user state, not a broken installation. Load is a no-op once the
// table is populated; call Invalidate first to force a re-read.
func (o *Overlay) Load() error {
	if o.loaded {
		return nil
	}

	data, err := o.fs.ReadFile(o.path)
	if errors.Is(err, os.ErrNotExist) {
		o.table = make(map[string]constituent.Constituent)
		o.loaded = true
		return nil
	}
	if err != nil {
		return &PersistenceError{Op: "load", Path: o.path, Err: err}
	}

	constituents, err := constituent.DecodeDocument(data)
	if err != nil {
		return &PersistenceError{Op: "load", Path: o.path, Err: err}
	}

	table := make(map[string]constituent.Constituent, len(constituents))
	for _, c := range constituents {
		table[c.Name()] = c
	}
	o.table = table
	o.loaded = true
	return nil
}

// Invalidate drops the in-memory table so the next Load re-reads the file.
// A dirty overlay is never invalidated: that would silently discard pending
// changes.
func (o *Overlay) Invalidate() {
	if o.dirty {
		return
	}
	o.table = nil
	o.loaded = false
}

// Get returns the overlay record for a canonical name.
func (o *Overlay) Get(name string) (constituent.Constituent, bool) {
	c, ok := o.table[name]
	return c, ok
}

// Has reports membership of a canonical name in the overlay.
func (o *Overlay) Has(name string) bool {
	_, ok := o.table[name]
	return ok
}

// Add inserts a record and marks the overlay dirty. Names colliding with a
// default constituent fail with ErrOverride; names already in the overlay
// fail with ErrDuplicate. The table itself is untouched on failure.
func (o *Overlay) Add(c constituent.Constituent) error {
	if _, ok := DefaultLookup(c.Name()); ok {
		return fmt.Errorf("%s: %w", c.Name(), ErrOverride)
	}
	if _, ok := o.table[c.Name()]; ok {
		return fmt.Errorf("%s: %w", c.Name(), ErrDuplicate)
	}
	if o.table == nil {
		o.table = make(map[string]constituent.Constituent)
	}
	o.table[c.Name()] = c
	o.dirty = true
	return nil
}

// Remove deletes a record and marks the overlay dirty. Default constituents
// fail with ErrProtected, names absent from both tables with ErrMissing.
func (o *Overlay) Remove(name string) error {
	if _, ok := o.table[name]; !ok {
		if _, isDefault := DefaultLookup(name); isDefault {
			return fmt.Errorf("%s: %w", name, ErrProtected)
		}
		return fmt.Errorf("%s: %w", name, ErrMissing)
	}
	delete(o.table, name)
	o.dirty = true
	return nil
}

// Names returns the sorted overlay name set.
func (o *Overlay) Names() []string {
	names := make([]string, 0, len(o.table))
	for name := range o.table {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of overlay records.
func (o *Overlay) Len() int { return len(o.table) }

// Constituents returns the overlay records in sorted name order.
func (o *Overlay) Constituents() []constituent.Constituent {
	names := o.Names()
	out := make([]constituent.Constituent, 0, len(names))
	for _, name := range names {
		out = append(out, o.table[name])
	}
	return out
}

// Flush serializes the table to a temp file in the overlay's directory and
// atomically renames it over the target, then syncs the directory. A crash
// before the rename leaves the previous file intact; after it, the new file.
// On success the overlay returns to the clean state; on failure it stays
// dirty and the error is surfaced.
func (o *Overlay) Flush() error {
	if !o.dirty {
		return nil
	}

	if err := o.flush(); err != nil {
		return &PersistenceError{Op: "flush", Path: o.path, Err: err}
	}
	o.dirty = false
	return nil
}

func (o *Overlay) flush() error {
	data, err := constituent.EncodeDocument(o.Constituents())
	if err != nil {
		return err
	}

	dir := filepath.Dir(o.path)
	if err := o.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpPath := o.path + ".tmp"
	f, err := o.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		o.fs.Remove(tmpPath) //nolint:errcheck
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		o.fs.Remove(tmpPath) //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		o.fs.Remove(tmpPath) //nolint:errcheck
		return err
	}

	if err := o.fs.Rename(tmpPath, o.path); err != nil {
		o.fs.Remove(tmpPath) //nolint:errcheck
		return err
	}

	return o.syncDir(dir)
}

// syncDir persists the rename itself.
func (o *Overlay) syncDir(dir string) error {
	f, err := o.fs.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
