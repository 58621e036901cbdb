package webview

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/internal/mapengine"
)

// Sender delivers commands to the web view
type Sender interface {
	Send(cmd Command) error
}

// LayerPayload is the payload of map.addTileLayer
type LayerPayload struct {
	URLTemplate string              `json:"url_template"`
	Options     domain.LayerOptions `json:"options,omitempty"`
}

// Engine drives a map engine running in the web view
type Engine struct {
	kind   domain.EngineKind
	sender Sender
	logger *zap.Logger
}

var _ mapengine.Engine = (*Engine)(nil)

// NewEngine creates the remote engine of the given kind
func NewEngine(kind domain.EngineKind, sender Sender, logger *zap.Logger) *Engine {
	return &Engine{
		kind:   kind,
		sender: sender,
		logger: logger.Named("webview").With(zap.String("engine", kind.String())),
	}
}

func (e *Engine) Kind() domain.EngineKind { return e.kind }

func (e *Engine) CreateInstance(cfg mapengine.InstanceConfig) domain.Handle {
	h := domain.Handle(uuid.New().String())
	e.send(CommandMapCreate, h, cfg)
	return h
}

func (e *Engine) AttachTileLayer(h domain.Handle, urlTemplate string, opts domain.LayerOptions) {
	e.send(CommandMapAddLayer, h, LayerPayload{URLTemplate: urlTemplate, Options: opts})
}

func (e *Engine) Resize(h domain.Handle) {
	e.send(CommandMapResize, h, nil)
}

func (e *Engine) send(typ string, h domain.Handle, payload any) {
	err := e.sender.Send(Command{
		Type:    typ,
		Engine:  e.kind.String(),
		Handle:  string(h),
		Payload: payload,
	})
	if err != nil {
		e.logger.Error("Failed to send command",
			zap.String("type", typ),
			zap.String("handle", string(h)),
			zap.Error(err))
	}
}
