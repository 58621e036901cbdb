package layer

import (
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/internal/mapengine"
)

// URLTemplate returns the tile URL template an engine uses for an archive:
// http://{host}:{port}/{archive}/{z}/{x}/{y}.png, with {-y} for engines that
// count rows from the top. The archive name is used verbatim.
func URLTemplate(kind domain.EngineKind, host string, port int, archive string) string {
	return fmt.Sprintf("http://%s:%d/%s/{z}/{x}/%s.png", host, port, archive, PolicyFor(kind).RowToken)
}

// Registrar attaches tile layers to map views
type Registrar struct {
	engines mapengine.Set
	logger  *zap.Logger
}

// NewRegistrar creates a new layer registrar
func NewRegistrar(engines mapengine.Set, logger *zap.Logger) *Registrar {
	return &Registrar{
		engines: engines,
		logger:  logger.Named("layer"),
	}
}

// Attach adds a tile layer to the view. Calling it twice stacks two layers.
func (r *Registrar) Attach(view *domain.MapView, urlTemplate string, opts domain.LayerOptions) {
	policy := PolicyFor(view.Kind)

	merged := make(domain.LayerOptions, len(opts)+1)
	maps.Copy(merged, opts)
	if policy.TMS {
		merged["tms"] = true
	}

	r.engines.Get(view.Kind).AttachTileLayer(view.Instance, urlTemplate, merged)

	r.logger.Debug("Tile layer attached",
		zap.String("engine", view.Kind.String()),
		zap.String("url_template", urlTemplate),
		zap.Bool("bounded", opts["bounds"] != nil))
}

// Register attaches the layer described by reg to view
func (r *Registrar) Register(view *domain.MapView, reg domain.LayerRegistration) {
	r.Attach(view, reg.URLTemplate, reg.Options)
}
