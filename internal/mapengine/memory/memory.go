// Package memory provides an in-process map engine that records what it is
// asked to do. It backs the headless shell and the tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/internal/mapengine"
)

// Layer is a recorded tile layer
type Layer struct {
	URLTemplate string
	Options     domain.LayerOptions
}

// Instance is a recorded map instance
type Instance struct {
	Handle  domain.Handle
	Config  mapengine.InstanceConfig
	Layers  []Layer
	Resizes int
}

// Engine implements mapengine.Engine in memory
type Engine struct {
	kind domain.EngineKind

	mu        sync.RWMutex
	instances map[domain.Handle]*Instance
	order     []domain.Handle
}

// NewEngine creates an in-memory engine of the given kind
func NewEngine(kind domain.EngineKind) *Engine {
	return &Engine{
		kind:      kind,
		instances: make(map[domain.Handle]*Instance),
	}
}

func (e *Engine) Kind() domain.EngineKind { return e.kind }

func (e *Engine) CreateInstance(cfg mapengine.InstanceConfig) domain.Handle {
	h := domain.Handle(uuid.New().String())

	e.mu.Lock()
	defer e.mu.Unlock()
	e.instances[h] = &Instance{Handle: h, Config: cfg}
	e.order = append(e.order, h)
	return h
}

func (e *Engine) AttachTileLayer(h domain.Handle, urlTemplate string, opts domain.LayerOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst, ok := e.instances[h]
	if !ok {
		return
	}
	inst.Layers = append(inst.Layers, Layer{URLTemplate: urlTemplate, Options: opts})
}

func (e *Engine) Resize(h domain.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if inst, ok := e.instances[h]; ok {
		inst.Resizes++
	}
}

// Instances returns snapshots of all instances in creation order
func (e *Engine) Instances() []Instance {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Instance, 0, len(e.order))
	for _, h := range e.order {
		out = append(out, e.snapshot(e.instances[h]))
	}
	return out
}

// Instance returns a snapshot of one instance
func (e *Engine) Instance(h domain.Handle) (Instance, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	inst, ok := e.instances[h]
	if !ok {
		return Instance{}, false
	}
	return e.snapshot(inst), true
}

func (e *Engine) snapshot(inst *Instance) Instance {
	cp := *inst
	cp.Layers = append([]Layer(nil), inst.Layers...)
	return cp
}
