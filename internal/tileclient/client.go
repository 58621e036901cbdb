// Package tileclient is the core's façade over the local tile-serving plugin.
package tileclient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/pkg/bridge"
)

// ServerInfo is reported by the plugin once the server listens
type ServerInfo struct {
	Port int `json:"port"`
}

// ArchiveInfo is reported by the plugin for a registered archive
type ArchiveInfo struct {
	// Bounds is [west, south, east, north], empty when the archive declares none
	Bounds []float64 `json:"bounds,omitempty"`
}

// Plugin is the callback-style API of the tile-serving plugin
type Plugin interface {
	StartServer(onSuccess func(ServerInfo), onError func(error))
	AddArchive(name, path string, onSuccess func(ArchiveInfo), onError func(error))
}

// PathRule replaces the first occurrence of From with To
type PathRule struct {
	From string
	To   string
}

// DefaultPathRules turn the native URIs of Android external storage into the
// mount paths the plugin opens, e.g.
// file:///storage/emulated/0/tiles/city -> /storage/sdcard0/tiles/city
var DefaultPathRules = []PathRule{
	{From: "file:///", To: "/"},
	{From: "emulated/", To: "sdcard"},
}

// NormalizePath applies rules in order to a native URI
func NormalizePath(uri string, rules []PathRule) string {
	for _, r := range rules {
		if r.From == "" {
			continue
		}
		uri = strings.Replace(uri, r.From, r.To, 1)
	}
	return uri
}

// Client wraps a Plugin
type Client struct {
	plugin Plugin
	rules  []PathRule
	logger *zap.Logger

	startMu  sync.Mutex
	started  bool
	handle   domain.ServerHandle
	startErr error
}

// New creates a new client. A nil rules slice selects DefaultPathRules.
func New(plugin Plugin, rules []PathRule, logger *zap.Logger) *Client {
	if rules == nil {
		rules = DefaultPathRules
	}
	return &Client{
		plugin: plugin,
		rules:  rules,
		logger: logger.Named("tileclient"),
	}
}

// Start starts the tile server. The plugin is asked only once; later calls
// return the first outcome.
func (c *Client) Start(ctx context.Context) (domain.ServerHandle, error) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.started {
		return c.handle, c.startErr
	}
	c.started = true

	info, err := bridge.Await(ctx, func(resolve func(ServerInfo), reject func(error)) {
		c.plugin.StartServer(resolve, reject)
	})
	if err == nil && (info.Port < 1 || info.Port > 65535) {
		err = fmt.Errorf("invalid port %d", info.Port)
	}
	if err != nil {
		c.startErr = fmt.Errorf("%w: %w", domain.ErrServerStartFailed, err)
		return domain.ServerHandle{}, c.startErr
	}

	c.handle = domain.ServerHandle{Port: info.Port}
	c.logger.Info("Tile server started", zap.Int("port", info.Port))
	return c.handle, nil
}

// AddArchive registers an archive with the running server and returns its
// bounds, nil when the archive declares none
func (c *Client) AddArchive(ctx context.Context, name, devicePath string) (*domain.GeoBounds, error) {
	path := NormalizePath(devicePath, c.rules)

	info, err := bridge.Await(ctx, func(resolve func(ArchiveInfo), reject func(error)) {
		c.plugin.AddArchive(name, path, resolve, reject)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArchiveRegistrationFailed, name, err)
	}

	bounds, err := domain.BoundsFromSlice(info.Bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArchiveRegistrationFailed, name, err)
	}

	c.logger.Debug("Archive registered",
		zap.String("archive", name),
		zap.String("path", path),
		zap.Bool("bounded", bounds != nil))
	return bounds, nil
}
