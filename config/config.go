// Package config provides configuration loading and management for Foliolens.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Foliolens configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Render RenderConfig `yaml:"render"`
	Model  ModelConfig  `yaml:"model"`
}

// ServerConfig configures the HTTP API server
type ServerConfig struct {
	// Addr is the listen address (default: ":3000")
	Addr string `yaml:"addr"`
	// CORSOrigins lists allowed CORS origins ("*" allows all)
	CORSOrigins []string `yaml:"cors_origins"`
	// ShutdownTimeout bounds graceful shutdown on SIGTERM
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// FetchConfig configures plain HTTP page fetching
type FetchConfig struct {
	// Timeout is the maximum time for a page fetch
	Timeout time.Duration `yaml:"timeout"`
	// MaxContentSize caps the fetched page body in bytes
	MaxContentSize int64 `yaml:"max_content_size"`
	// UserAgent is sent with fetch requests
	UserAgent string `yaml:"user_agent"`
}

// RenderConfig configures headless browser rendering
type RenderConfig struct {
	// Enabled turns browser rendering on. When off, pages are only
	// fetched statically.
	Enabled bool `yaml:"enabled"`
	// ContentSelector is the element waited on before capture
	ContentSelector string `yaml:"content_selector"`
	// MarkerTimeout bounds the wait for ContentSelector
	MarkerTimeout time.Duration `yaml:"marker_timeout"`
	// SettleDelay is the pause after the marker appears, for late scripts
	SettleDelay time.Duration `yaml:"settle_delay"`
	// NavigationTimeout bounds page navigation
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	// ExecutablePath overrides the bundled browser binary
	ExecutablePath string `yaml:"executable_path"`
	// ArtifactsDir receives page snapshots and screenshots when set
	ArtifactsDir string `yaml:"artifacts_dir"`
	// SaveArtifacts enables writing debug artifacts per rendered page
	SaveArtifacts bool `yaml:"save_artifacts"`
}

// ModelConfig configures LLM model selection
type ModelConfig struct {
	// RegistryPath points to a JSON model registry file. Empty uses
	// built-in defaults.
	RegistryPath string `yaml:"registry_path"`
	// WatchRegistry reloads the registry when the file changes
	WatchRegistry bool `yaml:"watch_registry"`
	// Timeout is the maximum time to wait for model responses
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 15 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:        10 * time.Second,
			MaxContentSize: 10 * 1024 * 1024, // 10MB
			UserAgent:      "Foliolens/1.0 (+https://github.com/foliolens/foliolens)",
		},
		Render: RenderConfig{
			Enabled:           true,
			ContentSelector:   "main",
			MarkerTimeout:     10 * time.Second,
			SettleDelay:       3 * time.Second,
			NavigationTimeout: 30 * time.Second,
			SaveArtifacts:     false,
		},
		Model: ModelConfig{
			RegistryPath:  "",
			WatchRegistry: false,
			Timeout:       3 * time.Minute,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.MaxContentSize <= 0 {
		return fmt.Errorf("fetch.max_content_size must be positive")
	}
	if c.Render.Enabled {
		if c.Render.ContentSelector == "" {
			return fmt.Errorf("render.content_selector is required when rendering is enabled")
		}
		if c.Render.NavigationTimeout <= 0 {
			return fmt.Errorf("render.navigation_timeout must be positive")
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if len(other.Server.CORSOrigins) > 0 {
		c.Server.CORSOrigins = other.Server.CORSOrigins
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// Fetch
	if other.Fetch.Timeout != 0 {
		c.Fetch.Timeout = other.Fetch.Timeout
	}
	if other.Fetch.MaxContentSize != 0 {
		c.Fetch.MaxContentSize = other.Fetch.MaxContentSize
	}
	if other.Fetch.UserAgent != "" {
		c.Fetch.UserAgent = other.Fetch.UserAgent
	}

	// Render
	c.Render.Enabled = other.Render.Enabled
	if other.Render.ContentSelector != "" {
		c.Render.ContentSelector = other.Render.ContentSelector
	}
	if other.Render.MarkerTimeout != 0 {
		c.Render.MarkerTimeout = other.Render.MarkerTimeout
	}
	if other.Render.SettleDelay != 0 {
		c.Render.SettleDelay = other.Render.SettleDelay
	}
	if other.Render.NavigationTimeout != 0 {
		c.Render.NavigationTimeout = other.Render.NavigationTimeout
	}
	if other.Render.ExecutablePath != "" {
		c.Render.ExecutablePath = other.Render.ExecutablePath
	}
	if other.Render.ArtifactsDir != "" {
		c.Render.ArtifactsDir = other.Render.ArtifactsDir
	}
	if other.Render.SaveArtifacts {
		c.Render.SaveArtifacts = true
	}

	// Model
	if other.Model.RegistryPath != "" {
		c.Model.RegistryPath = other.Model.RegistryPath
	}
	if other.Model.WatchRegistry {
		c.Model.WatchRegistry = true
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}
}
