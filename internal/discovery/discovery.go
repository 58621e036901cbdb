// Package discovery finds the tile archives stored on the device.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/internal/storage"
	"github.com/sirosfoundation/go-offline-maps/pkg/bridge"
)

// DefaultDirectory is the directory below the persistent root holding the archives
const DefaultDirectory = "tiles"

// Discovery enumerates tile archives through the storage bridge
type Discovery struct {
	bridge    storage.Bridge
	directory string
	logger    *zap.Logger
}

// New creates a new archive discovery for the given directory name
func New(b storage.Bridge, directory string, logger *zap.Logger) *Discovery {
	if directory == "" {
		directory = DefaultDirectory
	}
	return &Discovery{
		bridge:    b,
		directory: directory,
		logger:    logger.Named("discovery"),
	}
}

// ListArchives acquires the storage root, resolves the archive directory and
// lists it. Any failing step aborts the whole listing, there are no partial results.
func (d *Discovery) ListArchives(ctx context.Context) ([]domain.ArchiveDescriptor, error) {
	root, err := requestRoot(ctx, d.bridge)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	dir, err := fetchDirectory(d.directory)(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDirectoryNotFound, d.directory, err)
	}

	entries, err := listDirectory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEnumerationFailed, d.directory, err)
	}

	archives := make([]domain.ArchiveDescriptor, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			d.logger.Debug("Skipping directory", zap.String("name", e.Name))
			continue
		}
		archives = append(archives, domain.ArchiveDescriptor{
			Name:       e.Name,
			DevicePath: e.NativeURI,
		})
	}

	d.logger.Info("Archives discovered",
		zap.String("directory", d.directory),
		zap.Int("count", len(archives)))

	return archives, nil
}

func requestRoot(ctx context.Context, b storage.Bridge) (storage.Root, error) {
	return bridge.Await(ctx, func(resolve func(storage.Root), reject func(error)) {
		b.RequestRoot(resolve, reject)
	})
}

// fetchDirectory binds the directory name and returns the lookup step
func fetchDirectory(name string) func(context.Context, storage.Root) (storage.Directory, error) {
	return func(ctx context.Context, root storage.Root) (storage.Directory, error) {
		return bridge.Await(ctx, func(resolve func(storage.Directory), reject func(error)) {
			root.GetDirectory(name, false, resolve, reject)
		})
	}
}

func listDirectory(ctx context.Context, dir storage.Directory) ([]storage.Entry, error) {
	return bridge.Await(ctx, func(resolve func([]storage.Entry), reject func(error)) {
		dir.ListEntries(resolve, reject)
	})
}
