package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/discovery"
	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/internal/layer"
	"github.com/sirosfoundation/go-offline-maps/internal/mapengine"
	"github.com/sirosfoundation/go-offline-maps/internal/mapengine/memory"
	"github.com/sirosfoundation/go-offline-maps/internal/mapview"
	"github.com/sirosfoundation/go-offline-maps/internal/shell"
	"github.com/sirosfoundation/go-offline-maps/internal/startup"
	"github.com/sirosfoundation/go-offline-maps/internal/storage"
	"github.com/sirosfoundation/go-offline-maps/internal/storage/fs"
	memstore "github.com/sirosfoundation/go-offline-maps/internal/storage/memory"
	"github.com/sirosfoundation/go-offline-maps/internal/tileclient"
	"github.com/sirosfoundation/go-offline-maps/internal/tileserver"
	"github.com/sirosfoundation/go-offline-maps/internal/webview"
	"github.com/sirosfoundation/go-offline-maps/pkg/config"
	"github.com/sirosfoundation/go-offline-maps/pkg/logging"
)

var (
	configFile = flag.String("config", "configs/viewer.yaml", "Path to configuration file")
	version    = "dev"
	buildTime  = "unknown"
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting offline map viewer",
		zap.String("version", version),
		zap.String("build_time", buildTime),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := newStorage(cfg.Storage)
	logger.Info("Storage initialized",
		zap.String("type", cfg.Storage.Type),
		zap.String("root", cfg.Storage.Root))

	tiles := tileserver.New(tileserver.Config{
		Host:           cfg.TileServer.Host,
		Port:           cfg.TileServer.Port,
		AllowedOrigins: cfg.TileServer.CORS,
		LocalOnly:      cfg.TileServer.LocalOnly,
		LoggingLevel:   cfg.Logging.Level,
	}, logger)
	client := tileclient.New(tiles.Plugin(ctx), pathRules(cfg.Storage.PathRules), logger)

	notifier := shell.NewNotifier(logger)

	var (
		engines mapengine.Set
		ready   <-chan struct{}
		bridge  *webview.Bridge
	)
	switch cfg.Shell.Type {
	case "websocket":
		bridge = webview.NewBridge(cfg.Shell.Address, notifier, logger)
		if err := bridge.Start(ctx); err != nil {
			logger.Fatal("Failed to start web view bridge", zap.Error(err))
		}
		if err := bridge.Configure(webview.ShellSettings{DefaultPageTransition: cfg.Shell.DefaultPageTransition}); err != nil {
			logger.Warn("Failed to configure shell", zap.Error(err))
		}
		engines = mapengine.NewSet(
			webview.NewEngine(domain.EngineLeaflet, bridge, logger),
			webview.NewEngine(domain.EngineOpenLayers, bridge, logger),
		)
		ready = bridge.DeviceReady()
	default:
		// headless: no web view, the device is ready right away
		engines = mapengine.NewSet(
			memory.NewEngine(domain.EngineLeaflet),
			memory.NewEngine(domain.EngineOpenLayers),
		)
		closed := make(chan struct{})
		close(closed)
		ready = closed
	}

	factory := mapview.NewFactory(engines, notifier, logger)
	factory.SetBaseLayer(domain.EngineLeaflet, baseLayer(cfg.Maps.Leaflet))
	factory.SetBaseLayer(domain.EngineOpenLayers, baseLayer(cfg.Maps.OpenLayers))

	orch := startup.New(
		startup.Config{
			Views: []startup.ViewSpec{
				viewSpec(domain.EngineLeaflet, cfg.Maps.Leaflet),
				viewSpec(domain.EngineOpenLayers, cfg.Maps.OpenLayers),
			},
			PublicHost: cfg.TileServer.PublicHost,
		},
		factory,
		discovery.New(store, cfg.Storage.TilesDir, logger),
		client,
		layer.NewRegistrar(engines, logger),
		logger,
	)

	go func() {
		select {
		case <-ready:
		case <-ctx.Done():
			return
		}
		orch.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("Shutting down viewer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if bridge != nil {
		if err := bridge.Shutdown(shutdownCtx); err != nil {
			logger.Error("Web view bridge forced to shutdown", zap.Error(err))
		}
	}
	if err := tiles.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tile server forced to shutdown", zap.Error(err))
	}

	logger.Info("Viewer exited")
}

func newStorage(cfg config.StorageConfig) storage.Bridge {
	if cfg.Type == "memory" {
		store := memstore.NewStore("file:///storage/emulated/0")
		store.AddDir(cfg.TilesDir)
		return store
	}
	return fs.NewStore(cfg.Root)
}

func pathRules(rules []config.PathRule) []tileclient.PathRule {
	out := make([]tileclient.PathRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, tileclient.PathRule{From: r.From, To: r.To})
	}
	return out
}

func baseLayer(v config.ViewConfig) mapengine.BaseLayer {
	return mapengine.BaseLayer{URL: v.BaseLayer.URL, Attribution: v.BaseLayer.Attribution}
}

func viewSpec(kind domain.EngineKind, v config.ViewConfig) startup.ViewSpec {
	return startup.ViewSpec{
		Kind:   kind,
		PageID: v.PageID,
		Target: v.Target,
		Center: domain.LatLng{Lat: v.Center.Lat, Lng: v.Center.Lng},
		Zoom:   v.Zoom,
	}
}
