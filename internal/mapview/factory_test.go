package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/internal/mapengine"
	"github.com/sirosfoundation/go-offline-maps/internal/mapengine/memory"
	"github.com/sirosfoundation/go-offline-maps/internal/shell"
)

func newTestFactory() (*Factory, *shell.Notifier, *memory.Engine, *memory.Engine) {
	leaflet := memory.NewEngine(domain.EngineLeaflet)
	openlayers := memory.NewEngine(domain.EngineOpenLayers)
	notifier := shell.NewNotifier(zap.NewNop())
	f := NewFactory(mapengine.NewSet(leaflet, openlayers), notifier, zap.NewNop())
	return f, notifier, leaflet, openlayers
}

func TestFactory_Create(t *testing.T) {
	f, _, leaflet, _ := newTestFactory()
	f.SetBaseLayer(domain.EngineLeaflet, mapengine.BaseLayer{URL: "http://{s}.tile.osm.org/{z}/{x}/{y}.png"})

	center := domain.LatLng{Lat: 55.9362, Lng: -3.1803}
	view := f.Create(domain.EngineLeaflet, "leaflet-page", "leaflet-map", center, 13)

	require.NotNil(t, view)
	assert.Equal(t, domain.EngineLeaflet, view.Kind)
	assert.Equal(t, "leaflet-page", view.PageID)
	assert.Equal(t, "leaflet-map", view.Target)

	inst, ok := leaflet.Instance(view.Instance)
	require.True(t, ok)
	assert.Equal(t, center, inst.Config.Center)
	assert.Equal(t, 13, inst.Config.Zoom)
	assert.True(t, inst.Config.DisableRotation)
	assert.Equal(t, "http://{s}.tile.osm.org/{z}/{x}/{y}.png", inst.Config.BaseLayer.URL)
	assert.Empty(t, inst.Layers)
}

func TestFactory_ResizeOnOwnPageOnly(t *testing.T) {
	f, notifier, leaflet, openlayers := newTestFactory()

	lv := f.Create(domain.EngineLeaflet, "leaflet-page", "leaflet-map", domain.LatLng{}, 13)
	ov := f.Create(domain.EngineOpenLayers, "openlayers-page", "openlayers-map", domain.LatLng{}, 13)

	notifier.PageShown("leaflet-page")
	notifier.PageShown("leaflet-page")
	notifier.PageShown("openlayers-page")
	notifier.PageShown("home")

	li, _ := leaflet.Instance(lv.Instance)
	oi, _ := openlayers.Instance(ov.Instance)
	assert.Equal(t, 2, li.Resizes)
	assert.Equal(t, 1, oi.Resizes)
}

func TestFactory_UnknownEnginePanics(t *testing.T) {
	notifier := shell.NewNotifier(zap.NewNop())
	f := NewFactory(mapengine.NewSet(memory.NewEngine(domain.EngineLeaflet)), notifier, zap.NewNop())

	assert.Panics(t, func() {
		f.Create(domain.EngineOpenLayers, "p", "t", domain.LatLng{}, 1)
	})
}
