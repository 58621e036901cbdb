package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ArchiveDescriptor is a tile archive found on device storage
type ArchiveDescriptor struct {
	// Name is the entry name, used verbatim as the URL path segment
	Name string `json:"name"`
	// DevicePath is the native URI reported by the storage bridge
	DevicePath string `json:"device_path"`
}

// ServerHandle describes the running local tile server
type ServerHandle struct {
	Port int `json:"port"`
}

// GeoBounds is a geographic bounding box in degrees
type GeoBounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// BoundsFromSlice builds bounds from the tile server's [west, south, east, north] tuple.
// An empty tuple means the archive declares no bounds and yields nil.
func BoundsFromSlice(v []float64) (*GeoBounds, error) {
	if len(v) == 0 {
		return nil, nil
	}
	if len(v) != 4 {
		return nil, fmt.Errorf("bounds must have 4 values, got %d", len(v))
	}
	return &GeoBounds{West: v[0], South: v[1], East: v[2], North: v[3]}, nil
}

// Slice returns the bounds as [west, south, east, north]
func (b GeoBounds) Slice() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

// Bound converts to an orb bound with X as longitude and Y as latitude
func (b GeoBounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}
