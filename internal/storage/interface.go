// Package storage defines the device storage bridge used to find tile archives.
// The bridge mirrors the native file API of the hybrid shell: every call is
// asynchronous and reports through a success and an error callback.
package storage

import (
	"errors"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrNotADirectory = errors.New("not a directory")
	ErrUnavailable   = errors.New("storage unavailable")
)

// Entry is a directory entry as reported by the native file API
type Entry struct {
	// Name is the entry name without its directory
	Name string `json:"name"`
	// NativeURI is the platform URI of the entry, e.g. file:///storage/emulated/0/tiles/city
	NativeURI string `json:"native_uri"`
	// IsDir is true for directories
	IsDir bool `json:"is_dir"`
}

// Bridge gives access to persistent device storage
type Bridge interface {
	// RequestRoot acquires the persistent storage root
	RequestRoot(onSuccess func(Root), onError func(error))
}

// Root is the persistent storage root
type Root interface {
	// GetDirectory resolves a directory below the root.
	// When create is false a missing directory is reported as ErrNotFound.
	GetDirectory(name string, create bool, onSuccess func(Directory), onError func(error))
}

// Directory is a directory on device storage
type Directory interface {
	// ListEntries enumerates the directory
	ListEntries(onSuccess func([]Entry), onError func(error))
}
