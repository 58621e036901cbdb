package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-offline-maps/internal/storage"
	"github.com/sirosfoundation/go-offline-maps/internal/storage/fs"
	"github.com/sirosfoundation/go-offline-maps/internal/storage/memory"
	"github.com/sirosfoundation/go-offline-maps/pkg/bridge"
)

func root(t *testing.T, b storage.Bridge) storage.Root {
	t.Helper()
	r, err := bridge.Await(context.Background(), func(resolve func(storage.Root), reject func(error)) {
		b.RequestRoot(resolve, reject)
	})
	require.NoError(t, err)
	return r
}

func getDir(r storage.Root, name string, create bool) (storage.Directory, error) {
	return bridge.Await(context.Background(), func(resolve func(storage.Directory), reject func(error)) {
		r.GetDirectory(name, create, resolve, reject)
	})
}

func list(t *testing.T, d storage.Directory) []storage.Entry {
	t.Helper()
	entries, err := bridge.Await(context.Background(), func(resolve func([]storage.Entry), reject func(error)) {
		d.ListEntries(resolve, reject)
	})
	require.NoError(t, err)
	return entries
}

func TestFS_ListTiles(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "tiles", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "tiles", "city"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "tiles", "region"), []byte("x"), 0o644))

	r := root(t, fs.NewStore(base))
	d, err := getDir(r, "tiles", false)
	require.NoError(t, err)

	entries := list(t, d)
	require.Len(t, entries, 3)
	assert.Equal(t, "city", entries[0].Name)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(base, "tiles", "city")), entries[0].NativeURI)
	assert.False(t, entries[0].IsDir)
	assert.Equal(t, "nested", entries[1].Name)
	assert.True(t, entries[1].IsDir)
}

func TestFS_MissingDirectory(t *testing.T) {
	base := t.TempDir()
	r := root(t, fs.NewStore(base))

	_, err := getDir(r, "tiles", false)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	d, err := getDir(r, "tiles", true)
	require.NoError(t, err)
	assert.Empty(t, list(t, d))
}

func TestFS_FileIsNotADirectory(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "tiles"), []byte("x"), 0o644))

	r := root(t, fs.NewStore(base))
	_, err := getDir(r, "tiles", false)
	assert.ErrorIs(t, err, storage.ErrNotADirectory)
}

func TestFS_MissingRoot(t *testing.T) {
	b := fs.NewStore(filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := bridge.Await(context.Background(), func(resolve func(storage.Root), reject func(error)) {
		b.RequestRoot(resolve, reject)
	})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestMemory_ListTiles(t *testing.T) {
	s := memory.NewStore("file:///storage/emulated/0")
	s.AddFile("tiles/region")
	s.AddFile("tiles/city")
	s.AddDir("tiles/old")
	s.AddFile("other/readme")

	r := root(t, s)
	d, err := getDir(r, "tiles", false)
	require.NoError(t, err)

	entries := list(t, d)
	require.Len(t, entries, 3)
	assert.Equal(t, storage.Entry{Name: "city", NativeURI: "file:///storage/emulated/0/tiles/city"}, entries[0])
	assert.Equal(t, "old", entries[1].Name)
	assert.True(t, entries[1].IsDir)
	assert.Equal(t, "region", entries[2].Name)
}

func TestMemory_Failures(t *testing.T) {
	s := memory.NewStore("file:///sdcard")

	r := root(t, s)
	_, err := getDir(r, "tiles", false)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	s.AddFile("notes")
	_, err = getDir(r, "notes", false)
	assert.ErrorIs(t, err, storage.ErrNotADirectory)
}
