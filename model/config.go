package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// RegistryConfig is the on-disk JSON shape of a model registry. It may sit
// under a top-level "model_registry" key or stand alone.
type RegistryConfig struct {
	Capabilities map[string]*CapabilityConfig `json:"capabilities"`
	Endpoints    map[string]*EndpointConfig   `json:"endpoints"`
	Defaults     *DefaultsConfig              `json:"defaults,omitempty"`
}

// LoadFromFile reads a registry from a JSON file.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return LoadFromJSON(data)
}

// LoadFromJSON parses registry JSON, wrapped or bare.
func LoadFromJSON(data []byte) (*Registry, error) {
	// Wrapped form first.
	var fullConfig struct {
		ModelRegistry *RegistryConfig `json:"model_registry"`
	}
	if err := json.Unmarshal(data, &fullConfig); err == nil && fullConfig.ModelRegistry != nil {
		return registryFromConfig(fullConfig.ModelRegistry), nil
	}


	var regConfig RegistryConfig
	if err := json.Unmarshal(data, &regConfig); err != nil {
		return nil, fmt.Errorf("parse registry config: %w", err)
	}

	return registryFromConfig(&regConfig), nil
}

// registryFromConfig builds a Registry from its serialized form.
func registryFromConfig(cfg *RegistryConfig) *Registry {
	caps := make(map[Capability]*CapabilityConfig, len(cfg.Capabilities))
	for k, v := range cfg.Capabilities {
		cap := ParseCapability(k)
		if cap == "" {
			// Unknown capabilities pass through so a registry file can
			// name capabilities this binary does not know yet.
			cap = Capability(k)
		}
		caps[cap] = v
	}

	defaults := cfg.Defaults
	if defaults == nil {
		defaults = &DefaultsConfig{Model: "default"}
	}

	return &Registry{
		capabilities: caps,
		endpoints:    cfg.Endpoints,
		defaults:     defaults,
	}
}

// ToConfig snapshots the registry into its serializable form.
func (r *Registry) ToConfig() *RegistryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make(map[string]*CapabilityConfig, len(r.capabilities))
	for k, v := range r.capabilities {
		caps[string(k)] = v
	}

	return &RegistryConfig{
		Capabilities: caps,
		Endpoints:    r.endpoints,
		Defaults:     r.defaults,
	}
}

// MergeFromConfig overlays cfg onto the registry. Entries sharing a name
// are replaced wholesale.
func (r *Registry) MergeFromConfig(cfg *RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range cfg.Capabilities {
		cap := ParseCapability(k)
		if cap == "" {
			cap = Capability(k)
		}
		r.capabilities[cap] = v
	}

	for k, v := range cfg.Endpoints {
		r.endpoints[k] = v
	}

	if cfg.Defaults != nil {
		r.defaults = cfg.Defaults
	}
}
