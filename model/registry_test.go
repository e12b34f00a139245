package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	caps := r.ListCapabilities()
	if len(caps) != 3 {
		t.Errorf("expected 3 capabilities, got %d", len(caps))
	}

	endpoints := r.ListEndpoints()
	if len(endpoints) < 3 {
		t.Errorf("expected at least 3 endpoints, got %d", len(endpoints))
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		capability Capability
		expected   string
	}{
		{CapabilityAnalysis, "gemini-flash"},
		{CapabilityChat, "gemini-flash"},
		{CapabilityFast, "gemini-flash-lite"},
		{Capability("unknown"), "gemini-flash"}, // Falls back to default
	}

	for _, tt := range tests {
		t.Run(string(tt.capability), func(t *testing.T) {
			got := r.Resolve(tt.capability)
			if got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.capability, got, tt.expected)
			}
		})
	}
}

func TestRegistryGetFallbackChain(t *testing.T) {
	r := NewDefaultRegistry()

	chain := r.GetFallbackChain(CapabilityAnalysis)

	// Should have both preferred and fallback models
	if len(chain) < 2 {
		t.Errorf("expected at least 2 models in chain, got %d", len(chain))
	}

	// First should be preferred model
	if chain[0] != "gemini-flash" {
		t.Errorf("first in chain should be gemini-flash, got %q", chain[0])
	}

	// Should include the local fallback
	hasLocal := false
	for _, m := range chain {
		if m == "llama3.2" {
			hasLocal = true
			break
		}
	}
	if !hasLocal {
		t.Error("expected llama3.2 in fallback chain")
	}
}

func TestRegistryGetEndpoint(t *testing.T) {
	r := NewDefaultRegistry()

	endpoint := r.GetEndpoint("gemini-flash")
	if endpoint == nil {
		t.Fatal("expected gemini-flash endpoint to exist")
	}

	if endpoint.Provider != "gemini" {
		t.Errorf("expected provider gemini, got %q", endpoint.Provider)
	}

	if endpoint.Model == "" {
		t.Error("expected model to be set")
	}

	// Test non-existent endpoint
	missing := r.GetEndpoint("nonexistent")
	if missing != nil {
		t.Error("expected nil for nonexistent endpoint")
	}
}

func TestRegistrySetCapability(t *testing.T) {
	r := NewDefaultRegistry()

	r.SetCapability(Capability("custom"), &CapabilityConfig{
		Description: "Custom capability",
		Preferred:   []string{"model-a"},
		Fallback:    []string{"model-b"},
	})

	got := r.Resolve(Capability("custom"))
	if got != "model-a" {
		t.Errorf("expected model-a for custom capability, got %q", got)
	}
}

func TestRegistrySetEndpoint(t *testing.T) {
	r := NewDefaultRegistry()

	r.SetEndpoint("custom-model", &EndpointConfig{
		Provider:  "custom",
		URL:       "http://custom.example.com",
		Model:     "custom-v1",
		MaxTokens: 4096,
	})

	endpoint := r.GetEndpoint("custom-model")
	if endpoint == nil {
		t.Fatal("expected custom-model endpoint to exist")
	}

	if endpoint.URL != "http://custom.example.com" {
		t.Errorf("unexpected URL: %q", endpoint.URL)
	}
}

func TestRegistrySetDefault(t *testing.T) {
	r := NewDefaultRegistry()

	r.SetDefault("my-default")

	// Unknown capability should return default
	got := r.Resolve(Capability("unknown"))
	if got != "my-default" {
		t.Errorf("expected my-default for unknown capability, got %q", got)
	}
}

func TestRegistryJSONRoundtrip(t *testing.T) {
	original := NewDefaultRegistry()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	restored := &Registry{}
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	origCaps := original.ListCapabilities()
	restCaps := restored.ListCapabilities()
	if len(origCaps) != len(restCaps) {
		t.Errorf("capability count mismatch: %d vs %d", len(origCaps), len(restCaps))
	}

	// Verify resolution still works
	if got := restored.Resolve(CapabilityChat); got != "gemini-flash" {
		t.Errorf("expected gemini-flash for chat, got %q", got)
	}
}

func TestNewRegistry(t *testing.T) {
	caps := map[Capability]*CapabilityConfig{
		CapabilityChat: {
			Preferred: []string{"model-a"},
			Fallback:  []string{"model-b"},
		},
	}
	endpoints := map[string]*EndpointConfig{
		"model-a": {Provider: "test", Model: "test-model"},
	}

	r := NewRegistry(caps, endpoints)

	if got := r.Resolve(CapabilityChat); got != "model-a" {
		t.Errorf("expected model-a, got %q", got)
	}

	if endpoint := r.GetEndpoint("model-a"); endpoint == nil {
		t.Error("expected model-a endpoint to exist")
	}
}

func TestRegistryValidate(t *testing.T) {
	tests := []struct {
		name      string
		registry  *Registry
		wantError bool
		errorMsg  string
	}{
		{
			name:      "default registry is valid",
			registry:  NewDefaultRegistry(),
			wantError: false,
		},
		{
			name: "valid custom registry",
			registry: func() *Registry {
				r := NewRegistry(
					map[Capability]*CapabilityConfig{
						CapabilityChat: {
							Preferred: []string{"model-a"},
							Fallback:  []string{"model-b"},
						},
					},
					map[string]*EndpointConfig{
						"model-a": {Provider: "test", Model: "test-a"},
						"model-b": {Provider: "test", Model: "test-b"},
					},
				)
				r.SetDefault("model-a")
				return r
			}(),
			wantError: false,
		},
		{
			name: "missing preferred model",
			registry: NewRegistry(
				map[Capability]*CapabilityConfig{
					CapabilityChat: {
						Preferred: []string{"missing-model"},
					},
				},
				map[string]*EndpointConfig{
					"existing": {Provider: "test", Model: "test"},
				},
			),
			wantError: true,
			errorMsg:  "preferred model \"missing-model\" not found",
		},
		{
			name: "missing fallback model",
			registry: NewRegistry(
				map[Capability]*CapabilityConfig{
					CapabilityAnalysis: {
						Preferred: []string{"valid"},
						Fallback:  []string{"missing-fallback"},
					},
				},
				map[string]*EndpointConfig{
					"valid": {Provider: "test", Model: "test"},
				},
			),
			wantError: true,
			errorMsg:  "fallback model \"missing-fallback\" not found",
		},
		{
			name: "missing default model",
			registry: func() *Registry {
				r := NewRegistry(
					map[Capability]*CapabilityConfig{},
					map[string]*EndpointConfig{
						"existing": {Provider: "test", Model: "test"},
					},
				)
				r.SetDefault("nonexistent")
				return r
			}(),
			wantError: true,
			errorMsg:  "default model \"nonexistent\" not found",
		},
		{
			name: "multiple errors",
			registry: NewRegistry(
				map[Capability]*CapabilityConfig{
					CapabilityChat: {
						Preferred: []string{"missing1"},
						Fallback:  []string{"missing2"},
					},
				},
				map[string]*EndpointConfig{},
			),
			wantError: true,
			errorMsg:  "missing1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.registry.Validate()
			if tt.wantError {
				if err == nil {
					t.Error("expected validation error, got nil")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error message should contain %q, got %q", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("unexpected validation error: %v", err)
				}
			}
		})
	}
}
