package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	// Test MkdirAll
	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0755))

	// Test OpenFile (Create)
	fpath := filepath.Join(dir, "test.txt")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	// Write
	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)

	// Sync
	assert.NoError(t, f.Sync())

	// Stat via File
	info, err := f.Stat()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	assert.NoError(t, f.Close())

	// Stat via FS
	info2, err := lfs.Stat(fpath)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), info2.Size())

	// ReadFile
	data, err := lfs.ReadFile(fpath)
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// Rename
	newPath := filepath.Join(dir, "renamed.txt")
	assert.NoError(t, lfs.Rename(fpath, newPath))
	_, err = lfs.Stat(fpath)
	assert.True(t, os.IsNotExist(err))

	// Remove
	assert.NoError(t, lfs.Remove(newPath))
	_, err = lfs.Stat(newPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_WriteLimit(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("limited", Fault{FailAfterBytes: 4})

	f, err := ffs.OpenFile(filepath.Join(tmp, "limited.dat"), os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("1234"))
	require.NoError(t, err)

	_, err = f.Write([]byte("5"))
	assert.Error(t, err)
}

func TestFaultyFS_SyncAndClose(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("sync", Fault{FailAfterBytes: -1, FailOnSync: true})
	ffs.AddRule("close", Fault{FailAfterBytes: -1, FailOnClose: true})

	f, err := ffs.OpenFile(filepath.Join(tmp, "sync.dat"), os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("data"))
	require.NoError(t, err)
	assert.Error(t, f.Sync())
	assert.NoError(t, f.Close())

	f, err = ffs.OpenFile(filepath.Join(tmp, "close.dat"), os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	assert.Error(t, f.Close())
}

func TestFaultyFS_Rename(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".tmp", Fault{FailAfterBytes: -1, FailOnRename: true})

	src := filepath.Join(tmp, "file.tmp")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	err := ffs.Rename(src, filepath.Join(tmp, "file.json"))
	assert.Error(t, err)

	// Unmatched paths rename normally.
	other := filepath.Join(tmp, "other.dat")
	require.NoError(t, os.WriteFile(other, []byte("y"), 0644))
	assert.NoError(t, ffs.Rename(other, filepath.Join(tmp, "moved.dat")))
}
