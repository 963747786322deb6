package electrolytes

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/electrolytes/constituent"
	"github.com/hupe1980/electrolytes/internal/store"
)

// Format selects the encoding of an exported backup. Exports are always the
// constituents document; the format only controls the compression around it.
type Format string

const (
	// FormatJSON is the plain document, identical to the overlay file.
	FormatJSON Format = "json"
	// FormatZstd is the document in a zstd stream.
	FormatZstd Format = "zstd"
	// FormatLZ4 is the document in an lz4 frame.
	FormatLZ4 Format = "lz4"
)

// FormatForPath selects a format from a file extension: .json, .zst or .lz4.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".zst":
		return FormatZstd, nil
	case ".lz4":
		return FormatLZ4, nil
	default:
		return "", fmt.Errorf("unsupported backup extension: %s", path)
	}
}

// ImportPolicy controls collision handling during Import.
type ImportPolicy int

const (
	// ImportSkip silently skips records whose names already exist, whether
	// user-defined or built-in.
	ImportSkip ImportPolicy = iota
	// ImportReplace replaces colliding user-defined records. Built-in names
	// still fail with ErrOverride.
	ImportReplace
	// ImportStrict fails on any collision.
	ImportStrict
)

// Export writes the current user-defined constituents as a backup document.
func (db *DB) Export(w io.Writer, format Format) error {
	var constituents []Constituent
	err := db.locked(func() error {
		constituents = db.exportSnapshot()
		return nil
	})
	if err != nil {
		return err
	}

	data, err := constituent.EncodeDocument(constituents)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		_, err = w.Write(data)
		return err
	case FormatZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	case FormatLZ4:
		enc := lz4.NewWriter(w)
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported backup format: %q", format)
	}
}

func (db *DB) exportSnapshot() []Constituent {
	names := db.overlay.Names()
	out := make([]Constituent, 0, len(names))
	for _, name := range names {
		if c, ok := db.overlay.Get(name); ok {
			out = append(out, c)
		}
	}
	return out
}

// ExportTo writes a backup file, selecting the format from the extension.
// The write goes through a temp file and an atomic rename, like the overlay.
func (db *DB) ExportTo(path string) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := db.fsys.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := db.Export(f, format); err != nil {
		f.Close()
		db.fsys.Remove(tmpPath) //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		db.fsys.Remove(tmpPath) //nolint:errcheck
		return err
	}
	return db.fsys.Rename(tmpPath, path)
}

// Import reads a backup document and adds its records inside a single locked
// scope, so the whole import is atomic with respect to other processes.
func (db *DB) Import(r io.Reader, format Format, policy ImportPolicy) error {
	var src io.Reader
	switch format {
	case FormatJSON:
		src = r
	case FormatZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return err
		}
		defer dec.Close()
		src = dec
	case FormatLZ4:
		src = lz4.NewReader(r)
	default:
		return fmt.Errorf("unsupported backup format: %q", format)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	constituents, err := constituent.DecodeDocument(data)
	if err != nil {
		return err
	}

	return db.Update(func(tx *Tx) error {
		// Collisions are checked up front so a rejected import stages
		// nothing at all.
		for _, c := range constituents {
			_, isDefault := store.DefaultLookup(c.Name())
			if isDefault && policy != ImportSkip {
				return translateError(fmt.Errorf("%s: %w", c.Name(), store.ErrOverride))
			}
			if policy == ImportStrict && tx.IsUserDefined(c.Name()) {
				return translateError(fmt.Errorf("%s: %w", c.Name(), store.ErrDuplicate))
			}
		}

		for _, c := range constituents {
			if err := tx.importOne(c, policy); err != nil {
				return err
			}
		}
		return nil
	})
}

func (tx *Tx) importOne(c Constituent, policy ImportPolicy) error {
	if _, isDefault := store.DefaultLookup(c.Name()); isDefault {
		return nil // ImportSkip; other policies rejected this up front
	}

	if tx.IsUserDefined(c.Name()) {
		switch policy {
		case ImportSkip:
			return nil
		case ImportReplace:
			if err := tx.Remove(c.Name()); err != nil {
				return err
			}
		}
	}

	return tx.Add(c)
}

// ImportFrom reads a backup file, selecting the format from the extension.
func (db *DB) ImportFrom(path string, policy ImportPolicy) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	f, err := db.fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	return db.Import(f, format, policy)
}
