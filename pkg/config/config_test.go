package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	if cfg.Maps.Leaflet.PageID != "leaflet-page" || cfg.Maps.OpenLayers.PageID != "openlayers-page" {
		t.Errorf("unexpected default pages: %q, %q", cfg.Maps.Leaflet.PageID, cfg.Maps.OpenLayers.PageID)
	}
	if cfg.Shell.DefaultPageTransition != "none" {
		t.Errorf("DefaultPageTransition = %q, want none", cfg.Shell.DefaultPageTransition)
	}
	if len(cfg.Storage.PathRules) != 2 {
		t.Errorf("expected 2 default path rules, got %d", len(cfg.Storage.PathRules))
	}
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port negative", -1},
		{"port too high", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.TileServer.Port = tt.port

			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error for invalid port")
			}
		})
	}
}

func TestConfig_Validate_EphemeralPort(t *testing.T) {
	cfg := defaultConfig()
	cfg.TileServer.Port = 0

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"missing public host", func(c *Config) { c.TileServer.PublicHost = "" }},
		{"invalid storage type", func(c *Config) { c.Storage.Type = "mongodb" }},
		{"fs without root", func(c *Config) { c.Storage.Root = "" }},
		{"missing tiles dir", func(c *Config) { c.Storage.TilesDir = "" }},
		{"empty path rule", func(c *Config) { c.Storage.PathRules = []PathRule{{To: "/"}} }},
		{"invalid shell type", func(c *Config) { c.Shell.Type = "gtk" }},
		{"websocket without address", func(c *Config) { c.Shell.Address = "" }},
		{"missing page id", func(c *Config) { c.Maps.Leaflet.PageID = "" }},
		{"missing target", func(c *Config) { c.Maps.OpenLayers.Target = "" }},
		{"latitude out of range", func(c *Config) { c.Maps.Leaflet.Center.Lat = 91 }},
		{"zoom out of range", func(c *Config) { c.Maps.OpenLayers.Zoom = 31 }},
		{"same page", func(c *Config) { c.Maps.OpenLayers.PageID = c.Maps.Leaflet.PageID }},
		{"invalid log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestConfig_Validate_MemoryStorageWithoutRoot(t *testing.T) {
	cfg := defaultConfig()
	cfg.Storage.Type = "memory"
	cfg.Storage.Root = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate_HeadlessWithoutAddress(t *testing.T) {
	cfg := defaultConfig()
	cfg.Shell.Type = "headless"
	cfg.Shell.Address = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TileServer.Host != "127.0.0.1" {
		t.Errorf("Expected default host, got %s", cfg.TileServer.Host)
	}
}

func TestLoad_ValidYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
tile_server:
  port: 9090
  public_host: "127.0.0.1"
storage:
  type: "fs"
  root: "/sdcard"
  path_rules:
    - from: "file:///"
      to: "/"
shell:
  type: "headless"
maps:
  openlayers:
    zoom: 10
    center:
      lat: 48.85
      lng: 2.35
logging:
  level: "debug"
  format: "text"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TileServer.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.TileServer.Port)
	}
	if cfg.TileServer.PublicHost != "127.0.0.1" {
		t.Errorf("Expected public host 127.0.0.1, got %s", cfg.TileServer.PublicHost)
	}
	if cfg.Storage.Root != "/sdcard" {
		t.Errorf("Expected root /sdcard, got %s", cfg.Storage.Root)
	}
	if len(cfg.Storage.PathRules) != 1 {
		t.Errorf("Expected 1 path rule, got %d", len(cfg.Storage.PathRules))
	}
	if cfg.Shell.Type != "headless" {
		t.Errorf("Expected headless shell, got %s", cfg.Shell.Type)
	}
	if cfg.Maps.OpenLayers.Zoom != 10 || cfg.Maps.OpenLayers.Center.Lat != 48.85 {
		t.Errorf("openlayers view not loaded: %+v", cfg.Maps.OpenLayers)
	}
	// untouched fields keep their defaults
	if cfg.Maps.OpenLayers.PageID != "openlayers-page" {
		t.Errorf("Expected default page id, got %s", cfg.Maps.OpenLayers.PageID)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `tile_server: [invalid`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("OFFLINEMAPS_TILE_SERVER_PORT", "7070")
	t.Setenv("OFFLINEMAPS_STORAGE_ROOT", "/storage/emulated/0")
	t.Setenv("OFFLINEMAPS_SHELL_TYPE", "headless")
	t.Setenv("OFFLINEMAPS_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TileServer.Port != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.TileServer.Port)
	}
	if cfg.Storage.Root != "/storage/emulated/0" {
		t.Errorf("Expected root from env, got %s", cfg.Storage.Root)
	}
	if cfg.Shell.Type != "headless" {
		t.Errorf("Expected headless shell, got %s", cfg.Shell.Type)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected warn level, got %s", cfg.Logging.Level)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("OFFLINEMAPS_SHELL_TYPE", "gtk")

	if _, err := Load(""); err == nil {
		t.Error("Expected validation error")
	}
}
