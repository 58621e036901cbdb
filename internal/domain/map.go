package domain

// EngineKind identifies one of the map rendering engines mounted in the web view
type EngineKind string

const (
	// EngineLeaflet expects lat/lng corner bounds and TMS rows via a tms flag
	EngineLeaflet EngineKind = "leaflet"
	// EngineOpenLayers expects EPSG:3857 extents and a flipped {-y} row token
	EngineOpenLayers EngineKind = "openlayers"
)

// EngineKinds lists every supported engine in attachment order
var EngineKinds = []EngineKind{EngineLeaflet, EngineOpenLayers}

// IsValid checks if the engine kind is one of the supported engines
func (k EngineKind) IsValid() bool {
	for _, valid := range EngineKinds {
		if k == valid {
			return true
		}
	}
	return false
}

// String returns the string representation
func (k EngineKind) String() string {
	return string(k)
}

// Handle is an opaque reference to a map instance owned by an engine
type Handle string

// LatLng is a geographic position in degrees
type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// MapView is one mounted map instance bound to a page of the UI shell
type MapView struct {
	Kind     EngineKind
	PageID   string
	Target   string
	Instance Handle
}

// LayerOptions are engine-specific tile layer options, passed through to the
// engine as-is (bounds, tms, ...)
type LayerOptions map[string]any

// LayerRegistration describes one tile layer for one engine. It only lives
// for the duration of the attach call.
type LayerRegistration struct {
	ArchiveName string
	URLTemplate string
	Options     LayerOptions
}
