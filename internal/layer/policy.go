// Package layer turns a registered tile archive into engine-specific tile
// layers: URL templates, bounds and tiling-scheme flags per engine.
package layer

import (
	"fmt"

	"github.com/paulmach/orb/project"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
)

// Row coordinate placeholders in tile URL templates
const (
	RowToken        = "{y}"
	FlippedRowToken = "{-y}"
)

// Policy captures what differs between engines when adding a tile layer
type Policy struct {
	Kind domain.EngineKind
	// TMS is merged into the layer options as "tms": true
	TMS bool
	// RowToken is the row placeholder used in the URL template
	RowToken string
	// Bounds converts geographic bounds into the engine's bounds option
	Bounds func(domain.GeoBounds) any
}

var policies = map[domain.EngineKind]Policy{
	domain.EngineLeaflet: {
		Kind:     domain.EngineLeaflet,
		TMS:      true,
		RowToken: RowToken,
		Bounds:   func(b domain.GeoBounds) any { return LatLngBounds(b) },
	},
	domain.EngineOpenLayers: {
		Kind:     domain.EngineOpenLayers,
		RowToken: FlippedRowToken,
		Bounds:   func(b domain.GeoBounds) any { return MercatorExtent(b) },
	},
}

// PolicyFor returns the policy of an engine. The engine set is closed, an
// unknown kind is a programming error.
func PolicyFor(kind domain.EngineKind) Policy {
	p, ok := policies[kind]
	if !ok {
		panic(fmt.Sprintf("layer: no policy for engine %q", kind))
	}
	return p
}

// LatLngBounds returns [[south, west], [north, east]]
func LatLngBounds(b domain.GeoBounds) [2][2]float64 {
	return [2][2]float64{
		{b.South, b.West},
		{b.North, b.East},
	}
}

// MercatorExtent projects the bounds to EPSG:3857 and returns
// [minX, minY, maxX, maxY] in metres.
func MercatorExtent(b domain.GeoBounds) [4]float64 {
	pb := project.Bound(b.Bound(), project.WGS84.ToMercator)
	return [4]float64{pb.Min.X(), pb.Min.Y(), pb.Max.X(), pb.Max.Y()}
}
