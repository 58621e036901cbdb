package memory

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/sirosfoundation/go-offline-maps/internal/storage"
	"github.com/sirosfoundation/go-offline-maps/pkg/bridge"
)

// Store implements an in-memory storage bridge.
// Paths are slash separated and relative to the root.
type Store struct {
	mu   sync.RWMutex
	base string
	dirs map[string]bool
	// files maps a file path to its native URI
	files map[string]string

	// Fail* inject errors into the corresponding bridge call
	FailRoot error
	FailList error
}

// NewStore creates a new in-memory store whose native URIs start with base,
// e.g. "file:///storage/emulated/0"
func NewStore(base string) *Store {
	return &Store{
		base:  strings.TrimSuffix(base, "/"),
		dirs:  map[string]bool{"": true},
		files: make(map[string]string),
	}
}

// AddDir creates a directory and its parents
func (s *Store) AddDir(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addDirLocked(clean(p))
}

func (s *Store) addDirLocked(p string) {
	for p != "" && p != "." {
		s.dirs[p] = true
		p = parent(p)
	}
}

// AddFile creates a file (and its parent directories)
func (s *Store) AddFile(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = clean(p)
	s.addDirLocked(parent(p))
	s.files[p] = s.base + "/" + p
}

func (s *Store) RequestRoot(onSuccess func(storage.Root), onError func(error)) {
	bridge.Dispatch(func() (storage.Root, error) {
		if s.FailRoot != nil {
			return nil, s.FailRoot
		}
		return &dir{store: s, path: ""}, nil
	}, onSuccess, onError)
}

type dir struct {
	store *Store
	path  string
}

func (d *dir) GetDirectory(name string, create bool, onSuccess func(storage.Directory), onError func(error)) {
	bridge.Dispatch(func() (storage.Directory, error) {
		p := clean(path.Join(d.path, name))

		d.store.mu.Lock()
		defer d.store.mu.Unlock()

		if _, isFile := d.store.files[p]; isFile {
			return nil, fmt.Errorf("%s: %w", p, storage.ErrNotADirectory)
		}
		if !d.store.dirs[p] {
			if !create {
				return nil, fmt.Errorf("%s: %w", p, storage.ErrNotFound)
			}
			d.store.addDirLocked(p)
		}
		return &dir{store: d.store, path: p}, nil
	}, onSuccess, onError)
}

func (d *dir) ListEntries(onSuccess func([]storage.Entry), onError func(error)) {
	bridge.Dispatch(func() ([]storage.Entry, error) {
		if d.store.FailList != nil {
			return nil, d.store.FailList
		}

		d.store.mu.RLock()
		defer d.store.mu.RUnlock()

		var entries []storage.Entry
		for p := range d.store.dirs {
			if p != "" && parent(p) == d.path {
				entries = append(entries, storage.Entry{
					Name:      path.Base(p),
					NativeURI: d.store.base + "/" + p + "/",
					IsDir:     true,
				})
			}
		}
		for p, uri := range d.store.files {
			if parent(p) == d.path {
				entries = append(entries, storage.Entry{Name: path.Base(p), NativeURI: uri})
			}
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		return entries, nil
	}, onSuccess, onError)
}

func clean(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	return p
}

func parent(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}
