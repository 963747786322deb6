package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/electrolytes/constituent"
	"github.com/hupe1980/electrolytes/internal/fs"
)

func TestBuiltinDataset(t *testing.T) {
	require.Greater(t, DefaultLen(), 0)

	silver, ok := DefaultLookup("SILVER")
	require.True(t, ok)
	assert.Equal(t, []float64{6.0e-8}, silver.UPos())
	assert.Equal(t, []float64{11.0}, silver.PKaPos())
	assert.Equal(t, 0, silver.NegCount())
	assert.Equal(t, 1, silver.PosCount())

	// Legacy name fixes applied on load.
	_, ok = DefaultLookup("ACETIC_ACID")
	assert.True(t, ok)
	_, ok = DefaultLookup("ACETIC ACID")
	assert.False(t, ok)
	_, ok = DefaultLookup("CHLOROBENZOIC_ACID")
	assert.True(t, ok)

	names := DefaultNames()
	assert.Len(t, names, DefaultLen())
	assert.IsIncreasing(t, names)
}

func mustNew(t *testing.T, name string, uNeg, uPos, pkaNeg, pkaPos []float64) constituent.Constituent {
	t.Helper()
	c, err := constituent.New(name, uNeg, uPos, pkaNeg, pkaPos)
	require.NoError(t, err)
	return c
}

func TestOverlayLoadAbsent(t *testing.T) {
	o := NewOverlay(nil, filepath.Join(t.TempDir(), "user_constituents.json"))
	require.NoError(t, o.Load())
	assert.True(t, o.Loaded())
	assert.False(t, o.Dirty())
	assert.Equal(t, 0, o.Len())
}

func TestOverlayLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_constituents.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	o := NewOverlay(nil, path)
	err := o.Load()
	require.Error(t, err)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "load", perr.Op)
	assert.False(t, o.Loaded())
}

func TestOverlayAddRemove(t *testing.T) {
	o := NewOverlay(nil, filepath.Join(t.TempDir(), "user_constituents.json"))
	require.NoError(t, o.Load())

	c := mustNew(t, "MYBUFFER", []float64{2.0e-8}, nil, []float64{7.2}, nil)
	require.NoError(t, o.Add(c))
	assert.True(t, o.Dirty())
	assert.True(t, o.Has("MYBUFFER"))

	t.Run("duplicate", func(t *testing.T) {
		err := o.Add(c)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("override default", func(t *testing.T) {
		silver := mustNew(t, "silver", nil, []float64{1.0e-8}, nil, []float64{1.0})
		err := o.Add(silver)
		assert.ErrorIs(t, err, ErrOverride)
		assert.False(t, o.Has("SILVER"))
	})

	t.Run("remove default", func(t *testing.T) {
		err := o.Remove("SILVER")
		assert.ErrorIs(t, err, ErrProtected)
	})

	t.Run("remove missing", func(t *testing.T) {
		err := o.Remove("NOPE")
		assert.ErrorIs(t, err, ErrMissing)
	})

	require.NoError(t, o.Remove("MYBUFFER"))
	assert.False(t, o.Has("MYBUFFER"))
}

func TestOverlayFlushRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "user_constituents.json")

	o := NewOverlay(nil, path)
	require.NoError(t, o.Load())

	a := mustNew(t, "ALPHA", []float64{1.1e-8, 2.2e-8}, nil, []float64{4.5, 9.5}, nil)
	b := mustNew(t, "BETA", nil, []float64{3.3e-8}, nil, []float64{8.1})
	require.NoError(t, o.Add(a))
	require.NoError(t, o.Add(b))

	require.NoError(t, o.Flush())
	assert.False(t, o.Dirty())

	// Flush with no pending changes is a no-op.
	require.NoError(t, o.Flush())

	// A fresh overlay over the same file sees identical contents.
	fresh := NewOverlay(nil, path)
	require.NoError(t, fresh.Load())
	assert.Equal(t, []string{"ALPHA", "BETA"}, fresh.Names())

	got, ok := fresh.Get("ALPHA")
	require.True(t, ok)
	assert.True(t, got.Equal(a))
}

func TestOverlayInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_constituents.json")

	writer := NewOverlay(nil, path)
	require.NoError(t, writer.Load())
	require.NoError(t, writer.Add(mustNew(t, "ONE", nil, []float64{1.0e-8}, nil, []float64{9.0})))
	require.NoError(t, writer.Flush())

	reader := NewOverlay(nil, path)
	require.NoError(t, reader.Load())
	assert.Equal(t, 1, reader.Len())

	require.NoError(t, writer.Add(mustNew(t, "TWO", nil, []float64{2.0e-8}, nil, []float64{8.0})))
	require.NoError(t, writer.Flush())

	// Stale until invalidated.
	assert.Equal(t, 1, reader.Len())
	reader.Invalidate()
	require.NoError(t, reader.Load())
	assert.Equal(t, 2, reader.Len())
}

func TestOverlayInvalidateKeepsDirtyState(t *testing.T) {
	o := NewOverlay(nil, filepath.Join(t.TempDir(), "user_constituents.json"))
	require.NoError(t, o.Load())
	require.NoError(t, o.Add(mustNew(t, "PENDING", nil, []float64{1.0e-8}, nil, []float64{9.0})))

	o.Invalidate()
	assert.True(t, o.Loaded())
	assert.True(t, o.Dirty())
	assert.True(t, o.Has("PENDING"))
}

func TestOverlayCrashBeforeRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user_constituents.json")

	// Seed a valid previous overlay file.
	seed := NewOverlay(nil, path)
	require.NoError(t, seed.Load())
	require.NoError(t, seed.Add(mustNew(t, "KEEP", nil, []float64{1.0e-8}, nil, []float64{9.0})))
	require.NoError(t, seed.Flush())
	previous, err := os.ReadFile(path)
	require.NoError(t, err)

	// The rename that would commit the new file fails, as if the process
	// died between the temp-file write and the rename.
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("user_constituents.json.tmp", fs.Fault{FailAfterBytes: -1, FailOnRename: true})

	o := NewOverlay(ffs, path)
	require.NoError(t, o.Load())
	require.NoError(t, o.Add(mustNew(t, "LOST", nil, []float64{2.0e-8}, nil, []float64{8.0})))

	err = o.Flush()
	require.Error(t, err)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "flush", perr.Op)

	// Still dirty, so the change is retryable.
	assert.True(t, o.Dirty())

	// The previous file is fully intact and readable.
	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, previous, current)

	intact := NewOverlay(nil, path)
	require.NoError(t, intact.Load())
	assert.Equal(t, []string{"KEEP"}, intact.Names())
}

func TestOverlayFlushWriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user_constituents.json")

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("user_constituents.json.tmp", fs.Fault{FailAfterBytes: 10})

	o := NewOverlay(ffs, path)
	require.NoError(t, o.Load())
	require.NoError(t, o.Add(mustNew(t, "DOOMED", nil, []float64{2.0e-8}, nil, []float64{8.0})))

	require.Error(t, o.Flush())
	assert.True(t, o.Dirty())

	// No partial file is observable.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
