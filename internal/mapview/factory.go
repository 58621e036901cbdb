// Package mapview constructs the map views mounted on the shell's pages.
package mapview

import (
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/internal/mapengine"
	"github.com/sirosfoundation/go-offline-maps/internal/shell"
)

// Factory creates map views and keeps their viewport in sync with page activation
type Factory struct {
	engines    mapengine.Set
	activator  shell.Activator
	baseLayers map[domain.EngineKind]mapengine.BaseLayer
	logger     *zap.Logger
}

// NewFactory creates a new map view factory
func NewFactory(engines mapengine.Set, activator shell.Activator, logger *zap.Logger) *Factory {
	return &Factory{
		engines:    engines,
		activator:  activator,
		baseLayers: make(map[domain.EngineKind]mapengine.BaseLayer),
		logger:     logger.Named("mapview"),
	}
}

// SetBaseLayer configures the background layer used for views of kind
func (f *Factory) SetBaseLayer(kind domain.EngineKind, base mapengine.BaseLayer) {
	f.baseLayers[kind] = base
}

// Create constructs a map view of the given engine on a page.
// A map mounted on a hidden page computes a zero-size viewport, so the view is
// resized every time its page becomes active.
func (f *Factory) Create(kind domain.EngineKind, pageID, target string, center domain.LatLng, zoom int) *domain.MapView {
	engine := f.engines.Get(kind)

	handle := engine.CreateInstance(mapengine.InstanceConfig{
		Target:          target,
		Center:          center,
		Zoom:            zoom,
		BaseLayer:       f.baseLayers[kind],
		DisableRotation: true,
	})
	if handle == "" {
		panic("mapview: engine " + kind.String() + " returned an empty handle")
	}

	f.activator.OnActivate(pageID, func() {
		engine.Resize(handle)
	})

	f.logger.Info("Map view created",
		zap.String("engine", kind.String()),
		zap.String("page_id", pageID),
		zap.String("target", target))

	return &domain.MapView{
		Kind:     kind,
		PageID:   pageID,
		Target:   target,
		Instance: handle,
	}
}
