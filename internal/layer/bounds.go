package layer

import (
	"github.com/sirosfoundation/go-offline-maps/internal/domain"
)

// ToEngineFormat builds the layer options for one engine. Without bounds the
// options carry no "bounds" key and the layer is not clipped.
func ToEngineFormat(kind domain.EngineKind, bounds *domain.GeoBounds) domain.LayerOptions {
	policy := PolicyFor(kind)

	opts := domain.LayerOptions{}
	if bounds != nil {
		opts["bounds"] = policy.Bounds(*bounds)
	}
	return opts
}

// ForArchive computes the options of every engine from the same source bounds
func ForArchive(bounds *domain.GeoBounds) map[domain.EngineKind]domain.LayerOptions {
	var src *domain.GeoBounds
	if bounds != nil {
		b := *bounds
		src = &b
	}

	out := make(map[domain.EngineKind]domain.LayerOptions, len(domain.EngineKinds))
	for _, kind := range domain.EngineKinds {
		out[kind] = ToEngineFormat(kind, src)
	}
	return out
}
