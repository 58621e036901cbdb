// Package mapengine defines the contract of the map rendering engines mounted
// in the web view. The engines themselves are not implemented in Go; the
// core drives them through this interface.
package mapengine

import (
	"fmt"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
)

// BaseLayer is the background layer every map instance starts with
type BaseLayer struct {
	URL         string `json:"url" yaml:"url"`
	Attribution string `json:"attribution,omitempty" yaml:"attribution"`
}

// InstanceConfig holds everything needed to construct a map instance
type InstanceConfig struct {
	Target    string        `json:"target"`
	Center    domain.LatLng `json:"center"`
	Zoom      int           `json:"zoom"`
	BaseLayer BaseLayer     `json:"base_layer"`
	// DisableRotation turns off the rotation gestures (alt-shift-drag, pinch rotate)
	DisableRotation bool `json:"disable_rotation"`
}

// Engine is a map rendering engine.
// Construction and attachment are assumed to always succeed; implementations
// that can fail internally report through their own logging.
type Engine interface {
	// Kind returns which engine this is
	Kind() domain.EngineKind

	// CreateInstance constructs a map instance and returns its handle
	CreateInstance(cfg InstanceConfig) domain.Handle

	// AttachTileLayer appends a tile layer to the instance.
	// Attaching is append-only and safe for concurrent callers.
	AttachTileLayer(h domain.Handle, urlTemplate string, opts domain.LayerOptions)

	// Resize makes the instance recompute its viewport size
	Resize(h domain.Handle)
}

// Set holds one engine per kind
type Set map[domain.EngineKind]Engine

// NewSet builds a set from engines, keyed by their kind
func NewSet(engines ...Engine) Set {
	s := make(Set, len(engines))
	for _, e := range engines {
		s[e.Kind()] = e
	}
	return s
}

// Get returns the engine for kind. A missing engine is a wiring defect.
func (s Set) Get(kind domain.EngineKind) Engine {
	e, ok := s[kind]
	if !ok {
		panic(fmt.Sprintf("mapengine: no engine registered for %q", kind))
	}
	return e
}
