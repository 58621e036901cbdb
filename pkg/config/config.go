package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-offline-maps/pkg/logging"
)

// EnvPrefix is the prefix of the environment variables overriding the config
const EnvPrefix = "OFFLINEMAPS"

// Config represents the application configuration
type Config struct {
	TileServer TileServerConfig `yaml:"tile_server" envconfig:"TILE_SERVER"`
	Storage    StorageConfig    `yaml:"storage" envconfig:"STORAGE"`
	Shell      ShellConfig      `yaml:"shell" envconfig:"SHELL"`
	Maps       MapsConfig       `yaml:"maps" envconfig:"MAPS"`
	Logging    logging.Config   `yaml:"logging" envconfig:"LOGGING"`
}

// TileServerConfig contains the local tile server configuration
type TileServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"` // 0 picks a free port
	// PublicHost is the host written into the tile URL templates
	PublicHost string   `yaml:"public_host" envconfig:"PUBLIC_HOST"`
	CORS       []string `yaml:"cors" envconfig:"CORS"`
	// LocalOnly rejects clients that are not on this device
	LocalOnly bool `yaml:"local_only" envconfig:"LOCAL_ONLY"`
}

// StorageConfig contains the device storage configuration
type StorageConfig struct {
	Type     string `yaml:"type" envconfig:"TYPE"` // fs, memory
	Root     string `yaml:"root" envconfig:"ROOT"`
	TilesDir string `yaml:"tiles_dir" envconfig:"TILES_DIR"`
	// PathRules rewrite native URIs into plugin paths, applied in order
	PathRules []PathRule `yaml:"path_rules" ignored:"true"`
}

// PathRule replaces the first occurrence of From with To
type PathRule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ShellConfig contains the UI shell configuration
type ShellConfig struct {
	Type                  string `yaml:"type" envconfig:"TYPE"` // websocket, headless
	Address               string `yaml:"address" envconfig:"ADDRESS"`
	DefaultPageTransition string `yaml:"default_page_transition" envconfig:"DEFAULT_PAGE_TRANSITION"`
}

// MapsConfig contains one view per engine
type MapsConfig struct {
	Leaflet    ViewConfig `yaml:"leaflet" envconfig:"LEAFLET"`
	OpenLayers ViewConfig `yaml:"openlayers" envconfig:"OPENLAYERS"`
}

// ViewConfig describes a map view and the page it is mounted on
type ViewConfig struct {
	PageID    string          `yaml:"page_id" envconfig:"PAGE_ID"`
	Target    string          `yaml:"target" envconfig:"TARGET"`
	Center    CenterConfig    `yaml:"center" envconfig:"CENTER"`
	Zoom      int             `yaml:"zoom" envconfig:"ZOOM"`
	BaseLayer BaseLayerConfig `yaml:"base_layer" envconfig:"BASE_LAYER"`
}

// CenterConfig is the initial map center in degrees
type CenterConfig struct {
	Lat float64 `yaml:"lat" envconfig:"LAT"`
	Lng float64 `yaml:"lng" envconfig:"LNG"`
}

// BaseLayerConfig is the background layer of a map view
type BaseLayerConfig struct {
	URL         string `yaml:"url" envconfig:"URL"`
	Attribution string `yaml:"attribution" envconfig:"ATTRIBUTION"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, that's ok - we'll use defaults and env vars
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

const osmAttribution = "&copy; OpenStreetMap contributors"

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	center := CenterConfig{Lat: 55.9362, Lng: -3.1803}

	return &Config{
		TileServer: TileServerConfig{
			Host:       "127.0.0.1",
			PublicHost: "localhost",
			CORS:       []string{"*"},
			LocalOnly:  true,
		},
		Storage: StorageConfig{
			Type:     "fs",
			Root:     ".",
			TilesDir: "tiles",
			PathRules: []PathRule{
				{From: "file:///", To: "/"},
				{From: "emulated/", To: "sdcard"},
			},
		},
		Shell: ShellConfig{
			Type:                  "websocket",
			Address:               "127.0.0.1:8765",
			DefaultPageTransition: "none",
		},
		Maps: MapsConfig{
			Leaflet: ViewConfig{
				PageID: "leaflet-page",
				Target: "leaflet-map",
				Center: center,
				Zoom:   13,
				BaseLayer: BaseLayerConfig{
					URL:         "http://{s}.tile.osm.org/{z}/{x}/{y}.png",
					Attribution: osmAttribution,
				},
			},
			OpenLayers: ViewConfig{
				PageID: "openlayers-page",
				Target: "openlayers-map",
				Center: center,
				Zoom:   13,
				BaseLayer: BaseLayerConfig{
					URL:         "http://{a-c}.tile.osm.org/{z}/{x}/{y}.png",
					Attribution: osmAttribution,
				},
			},
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.TileServer.Port < 0 || c.TileServer.Port > 65535 {
		return fmt.Errorf("invalid tile server port: %d", c.TileServer.Port)
	}

	if c.TileServer.PublicHost == "" {
		return fmt.Errorf("tile_server.public_host is required")
	}

	if c.Storage.Type != "fs" && c.Storage.Type != "memory" {
		return fmt.Errorf("invalid storage type: %s (must be fs or memory)", c.Storage.Type)
	}

	if c.Storage.Type == "fs" && c.Storage.Root == "" {
		return fmt.Errorf("storage root is required when using fs storage")
	}

	if c.Storage.TilesDir == "" {
		return fmt.Errorf("storage.tiles_dir is required")
	}

	for i, r := range c.Storage.PathRules {
		if r.From == "" {
			return fmt.Errorf("storage.path_rules[%d]: from is required", i)
		}
	}

	if c.Shell.Type != "websocket" && c.Shell.Type != "headless" {
		return fmt.Errorf("invalid shell type: %s (must be websocket or headless)", c.Shell.Type)
	}

	if c.Shell.Type == "websocket" && c.Shell.Address == "" {
		return fmt.Errorf("shell address is required when using the websocket shell")
	}

	if err := c.Maps.Leaflet.validate("leaflet"); err != nil {
		return err
	}
	if err := c.Maps.OpenLayers.validate("openlayers"); err != nil {
		return err
	}
	if c.Maps.Leaflet.PageID == c.Maps.OpenLayers.PageID {
		return fmt.Errorf("maps must be mounted on different pages, both use %q", c.Maps.Leaflet.PageID)
	}

	return c.Logging.Validate()
}

func (v *ViewConfig) validate(name string) error {
	if v.PageID == "" {
		return fmt.Errorf("maps.%s.page_id is required", name)
	}
	if v.Target == "" {
		return fmt.Errorf("maps.%s.target is required", name)
	}
	if v.Center.Lat < -90 || v.Center.Lat > 90 || v.Center.Lng < -180 || v.Center.Lng > 180 {
		return fmt.Errorf("maps.%s.center out of range: %v,%v", name, v.Center.Lat, v.Center.Lng)
	}
	if v.Zoom < 0 || v.Zoom > 30 {
		return fmt.Errorf("maps.%s.zoom out of range: %d", name, v.Zoom)
	}
	return nil
}
