// Package electrolytes provides a layered database of chemical constituents
// (ions and electrolytes) with per-charge-state mobility and pKa data.
//
// The database merges two tables:
//
//   - A built-in table of literature-derived defaults, embedded in the binary
//     and immutable for the life of the process.
//   - A per-user overlay persisted to a single file, holding user-defined
//     constituents. The overlay can never shadow or remove a default.
//
// Lookups are case-insensitive; names are canonicalized to upper case. Each
// record exposes its derived physical quantities: the full mobility and pKa
// vectors over charge states ±1..±n (n >= 3, zero-padded), and a scalar
// diffusivity from the Nernst-Einstein relation. All quantities are SI.
//
// # Quick Start
//
//	db, err := electrolytes.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	silver, err := db.Lookup("silver")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(silver.Mobilities(), silver.Diffusivity())
//
// Add a user-defined constituent:
//
//	c, err := constituent.New("MYBUFFER",
//	    []float64{2.0e-8}, nil, // mobility, charge -1
//	    []float64{7.2}, nil,    // pKa, charge -1
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := db.Add(c); err != nil {
//	    log.Fatal(err)
//	}
//
// # Cross-Process Safety
//
// Multiple processes may share one overlay file. Every operation runs under an
// exclusive cross-process advisory lock and flushes the overlay atomically
// (temp file + rename) before releasing it, so single operations are always
// atomic. Compound check-then-act sequences need an explicit scope:
//
//	err := db.Update(func(tx *electrolytes.Tx) error {
//	    if tx.Contains(name) {
//	        return nil
//	    }
//	    return tx.Add(c)
//	})
//
// Entering the scope refreshes the overlay from disk, so the scope observes
// other processes' committed writes; all changes are flushed once on exit.
//
// # Backups
//
// The user-defined set can be exported to and imported from backup files,
// optionally compressed:
//
//	err := db.ExportTo("backup.json.zst") // or .json, .json.lz4
//	err = db.ImportFrom("backup.json.zst", electrolytes.ImportSkip)
package electrolytes
