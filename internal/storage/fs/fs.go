// Package fs implements the storage bridge on top of the local filesystem.
// It is what the bridge looks like when the core runs on the device itself,
// where the persistent root is a plain directory.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirosfoundation/go-offline-maps/internal/storage"
	"github.com/sirosfoundation/go-offline-maps/pkg/bridge"
)

// Store is a filesystem-backed storage bridge
type Store struct {
	root string
}

// NewStore creates a store rooted at root
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) RequestRoot(onSuccess func(storage.Root), onError func(error)) {
	bridge.Dispatch(func() (storage.Root, error) {
		abs, err := filepath.Abs(s.root)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s: %w", storage.ErrUnavailable, abs, storage.ErrNotADirectory)
		}
		return &directory{path: abs}, nil
	}, onSuccess, onError)
}

type directory struct {
	path string
}

func (d *directory) GetDirectory(name string, create bool, onSuccess func(storage.Directory), onError func(error)) {
	bridge.Dispatch(func() (storage.Directory, error) {
		p := filepath.Join(d.path, filepath.Clean("/"+name))

		info, err := os.Stat(p)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if !create {
				return nil, fmt.Errorf("%s: %w", p, storage.ErrNotFound)
			}
			if err := os.MkdirAll(p, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", p, err)
			}
		case err != nil:
			return nil, err
		case !info.IsDir():
			return nil, fmt.Errorf("%s: %w", p, storage.ErrNotADirectory)
		}
		return &directory{path: p}, nil
	}, onSuccess, onError)
}

func (d *directory) ListEntries(onSuccess func([]storage.Entry), onError func(error)) {
	bridge.Dispatch(func() ([]storage.Entry, error) {
		dirEntries, err := os.ReadDir(d.path)
		if err != nil {
			return nil, err
		}

		entries := make([]storage.Entry, 0, len(dirEntries))
		for _, de := range dirEntries {
			p := filepath.Join(d.path, de.Name())
			uri := nativeURI(p)
			if de.IsDir() {
				uri += "/"
			}
			entries = append(entries, storage.Entry{
				Name:      de.Name(),
				NativeURI: uri,
				IsDir:     de.IsDir(),
			})
		}
		return entries, nil
	}, onSuccess, onError)
}

// nativeURI renders an absolute path the way the native file API does:
// file:// followed by the absolute path, without percent-encoding.
func nativeURI(p string) string {
	return "file://" + filepath.ToSlash(p)
}
