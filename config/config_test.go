package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != ":3000" {
		t.Errorf("expected default addr :3000, got %s", cfg.Server.Addr)
	}
	if cfg.Fetch.Timeout != 10*time.Second {
		t.Errorf("expected default fetch timeout 10s, got %v", cfg.Fetch.Timeout)
	}
	if !cfg.Render.Enabled {
		t.Error("expected rendering enabled by default")
	}
	if cfg.Render.ContentSelector != "main" {
		t.Errorf("expected default content selector main, got %s", cfg.Render.ContentSelector)
	}
	if cfg.Render.SettleDelay != 3*time.Second {
		t.Errorf("expected default settle delay 3s, got %v", cfg.Render.SettleDelay)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing server addr",
			modify:  func(c *Config) { c.Server.Addr = "" },
			wantErr: true,
		},
		{
			name:    "zero fetch timeout",
			modify:  func(c *Config) { c.Fetch.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero max content size",
			modify:  func(c *Config) { c.Fetch.MaxContentSize = 0 },
			wantErr: true,
		},
		{
			name:    "rendering without content selector",
			modify:  func(c *Config) { c.Render.ContentSelector = "" },
			wantErr: true,
		},
		{
			name: "no content selector ok when rendering disabled",
			modify: func(c *Config) {
				c.Render.Enabled = false
				c.Render.ContentSelector = ""
			},
			wantErr: false,
		},
		{
			name:    "zero navigation timeout",
			modify:  func(c *Config) { c.Render.NavigationTimeout = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
server:
  addr: ":8080"
  cors_origins:
    - "https://app.example.com"
fetch:
  timeout: 20s
  user_agent: "TestAgent/1.0"
render:
  enabled: true
  content_selector: "#root"
  marker_timeout: 5s
model:
  registry_path: "/etc/foliolens/models.json"
  watch_registry: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", cfg.Server.Addr)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("unexpected CORS origins: %v", cfg.Server.CORSOrigins)
	}
	if cfg.Fetch.Timeout != 20*time.Second {
		t.Errorf("expected fetch timeout 20s, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.UserAgent != "TestAgent/1.0" {
		t.Errorf("expected user agent TestAgent/1.0, got %s", cfg.Fetch.UserAgent)
	}
	if cfg.Render.ContentSelector != "#root" {
		t.Errorf("expected content selector #root, got %s", cfg.Render.ContentSelector)
	}
	if cfg.Render.MarkerTimeout != 5*time.Second {
		t.Errorf("expected marker timeout 5s, got %v", cfg.Render.MarkerTimeout)
	}
	if cfg.Model.RegistryPath != "/etc/foliolens/models.json" {
		t.Errorf("expected registry path /etc/foliolens/models.json, got %s", cfg.Model.RegistryPath)
	}
	if !cfg.Model.WatchRegistry {
		t.Error("expected watch_registry true")
	}

	// Unset fields keep their defaults
	if cfg.Fetch.MaxContentSize != 10*1024*1024 {
		t.Errorf("expected default max content size, got %d", cfg.Fetch.MaxContentSize)
	}
	if cfg.Render.SettleDelay != 3*time.Second {
		t.Errorf("expected default settle delay, got %v", cfg.Render.SettleDelay)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Server: ServerConfig{
			Addr: ":9090",
		},
		Render: RenderConfig{
			Enabled:         true,
			ContentSelector: "#app",
		},
	}

	base.Merge(override)

	if base.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", base.Server.Addr)
	}
	if base.Render.ContentSelector != "#app" {
		t.Errorf("expected content selector #app, got %s", base.Render.ContentSelector)
	}
	// User agent should remain from base since override didn't set it
	if base.Fetch.UserAgent == "" {
		t.Error("expected user agent to remain default")
	}
}

func TestConfigMergeDisablesRendering(t *testing.T) {
	base := DefaultConfig()
	override := DefaultConfig()
	override.Render.Enabled = false

	base.Merge(override)

	if base.Render.Enabled {
		t.Error("expected rendering disabled after merge")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":4000"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Server.Addr != ":4000" {
		t.Errorf("expected addr :4000, got %s", loaded.Server.Addr)
	}
}
