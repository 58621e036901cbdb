// Package startup runs the startup sequence of the viewer once the device is
// ready: mount the map views, bring up the tile server while discovering the
// archives, then register every archive and give each map view a tile layer
// for it.
package startup

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/internal/layer"
)

// ArchiveLister enumerates the archives on the device
type ArchiveLister interface {
	ListArchives(ctx context.Context) ([]domain.ArchiveDescriptor, error)
}

// TileServer is the local tile server as seen by the startup sequence
type TileServer interface {
	Start(ctx context.Context) (domain.ServerHandle, error)
	AddArchive(ctx context.Context, name, devicePath string) (*domain.GeoBounds, error)
}

// ViewFactory mounts map views
type ViewFactory interface {
	Create(kind domain.EngineKind, pageID, target string, center domain.LatLng, zoom int) *domain.MapView
}

// LayerRegistrar attaches tile layers to views
type LayerRegistrar interface {
	Register(view *domain.MapView, reg domain.LayerRegistration)
}

// ViewSpec describes one map view to mount
type ViewSpec struct {
	Kind   domain.EngineKind
	PageID string
	Target string
	Center domain.LatLng
	Zoom   int
}

// Config holds the startup configuration
type Config struct {
	Views []ViewSpec
	// PublicHost is the host the web view uses to reach the tile server
	PublicHost string
}

// DefaultViews returns one view per engine, each on its own page
func DefaultViews() []ViewSpec {
	center := domain.LatLng{Lat: 55.9362, Lng: -3.1803}
	return []ViewSpec{
		{Kind: domain.EngineLeaflet, PageID: "leaflet-page", Target: "leaflet-map", Center: center, Zoom: 13},
		{Kind: domain.EngineOpenLayers, PageID: "openlayers-page", Target: "openlayers-map", Center: center, Zoom: 13},
	}
}

// startupContext is what one run shares between its stages.
// It is written before the per-archive stage and read-only afterwards.
type startupContext struct {
	handle domain.ServerHandle
	views  []*domain.MapView
}

// Orchestrator runs the startup sequence
type Orchestrator struct {
	cfg    Config
	views  ViewFactory
	lister ArchiveLister
	server TileServer
	layers LayerRegistrar
	logger *zap.Logger
}

// New creates a new orchestrator
func New(cfg Config, views ViewFactory, lister ArchiveLister, server TileServer, layers LayerRegistrar, logger *zap.Logger) *Orchestrator {
	if len(cfg.Views) == 0 {
		cfg.Views = DefaultViews()
	}
	if cfg.PublicHost == "" {
		cfg.PublicHost = "localhost"
	}
	return &Orchestrator{
		cfg:    cfg,
		views:  views,
		lister: lister,
		server: server,
		layers: layers,
		logger: logger.Named("startup"),
	}
}

// Run executes the startup sequence and returns when every archive has been
// handled. Failures are logged, never returned: a failing server start or
// discovery ends the run, a failing archive is skipped.
func (o *Orchestrator) Run(ctx context.Context) {
	sc := &startupContext{views: o.mountViews()}

	archives, err := o.bootstrap(ctx, sc)
	if err != nil {
		o.logger.Error("Startup failed", zap.Error(err))
		return
	}

	o.logger.Info("Tile server ready",
		zap.Int("port", sc.handle.Port),
		zap.Int("archives", len(archives)))

	var registered atomic.Int64
	var wg sync.WaitGroup
	for _, archive := range archives {
		wg.Go(func() {
			if o.registerArchive(ctx, sc, archive) {
				registered.Add(1)
			}
		})
	}
	wg.Wait()

	o.logger.Info("Startup complete",
		zap.Int("archives", len(archives)),
		zap.Int64("registered", registered.Load()))
}

func (o *Orchestrator) mountViews() []*domain.MapView {
	views := make([]*domain.MapView, 0, len(o.cfg.Views))
	for _, spec := range o.cfg.Views {
		views = append(views, o.views.Create(spec.Kind, spec.PageID, spec.Target, spec.Center, spec.Zoom))
	}
	return views
}

// bootstrap starts the tile server and lists the archives concurrently and
// waits for both
func (o *Orchestrator) bootstrap(ctx context.Context, sc *startupContext) ([]domain.ArchiveDescriptor, error) {
	var (
		g        errgroup.Group
		archives []domain.ArchiveDescriptor
	)

	g.Go(func() error {
		handle, err := o.server.Start(ctx)
		if err != nil {
			return err
		}
		sc.handle = handle
		return nil
	})
	g.Go(func() error {
		found, err := o.lister.ListArchives(ctx)
		if err != nil {
			return err
		}
		archives = found
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return archives, nil
}

// registerArchive registers one archive and attaches its layer to every view.
// It reports whether the archive was registered.
func (o *Orchestrator) registerArchive(ctx context.Context, sc *startupContext, archive domain.ArchiveDescriptor) bool {
	bounds, err := o.server.AddArchive(ctx, archive.Name, archive.DevicePath)
	if err != nil {
		o.logger.Error("Archive registration failed",
			zap.String("archive", archive.Name),
			zap.Error(err))
		return false
	}

	options := layer.ForArchive(bounds)
	for _, view := range sc.views {
		o.layers.Register(view, domain.LayerRegistration{
			ArchiveName: archive.Name,
			URLTemplate: layer.URLTemplate(view.Kind, o.cfg.PublicHost, sc.handle.Port, archive.Name),
			Options:     options[view.Kind],
		})
	}
	return true
}
