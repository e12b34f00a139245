package model

import (
	"sync"
	"time"
)

// EndpointHealth is the observed state of one model endpoint.
type EndpointHealth struct {
	// Available reports whether the endpoint should receive requests.
	Available bool `json:"available"`

	// LastSuccess is the time of the last successful request.
	LastSuccess time.Time `json:"last_success,omitempty"`

	// LastFailure is the time of the last failed request.
	LastFailure time.Time `json:"last_failure,omitempty"`

	// FailureCount counts consecutive failures since the last success.
	FailureCount int `json:"failure_count"`

	// CircuitOpen is set once FailureCount crosses the threshold.
	CircuitOpen bool `json:"circuit_open"`

	// CircuitOpenedAt is when the circuit was opened.
	CircuitOpenedAt time.Time `json:"circuit_opened_at,omitempty"`
}

// HealthConfig tunes the per-endpoint circuit breaker.
type HealthConfig struct {
	// FailureThreshold is how many consecutive failures open the circuit.
	FailureThreshold int

	// RecoveryTimeout is how long an open circuit blocks the endpoint.
	RecoveryTimeout time.Duration

	// HalfOpenRequests is how many probes the half-open state admits.
	HalfOpenRequests int
}

// DefaultHealthConfig returns the breaker settings used when none are set.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// healthState stores endpoint health information.
type healthState struct {
	mu       sync.RWMutex
	config   HealthConfig
	statuses map[string]*EndpointHealth
}

// newHealthState creates a new health state tracker.
func newHealthState(cfg HealthConfig) *healthState {
	return &healthState{
		config:   cfg,
		statuses: make(map[string]*EndpointHealth),
	}
}

// getOrCreate returns the health status for an endpoint, creating if needed.
func (h *healthState) getOrCreate(name string) *EndpointHealth {
	h.mu.Lock()
	defer h.mu.Unlock()

	if status, ok := h.statuses[name]; ok {
		return status
	}

	status := &EndpointHealth{Available: true}
	h.statuses[name] = status
	return status
}

// MarkEndpointSuccess resets the endpoint's failure streak and closes its
// circuit.
func (r *Registry) MarkEndpointSuccess(name string) {
	r.mu.Lock()
	if r.health == nil {
		r.health = newHealthState(DefaultHealthConfig())
	}
	r.mu.Unlock()

	status := r.health.getOrCreate(name)

	r.health.mu.Lock()
	defer r.health.mu.Unlock()

	status.LastSuccess = time.Now()
	status.FailureCount = 0
	status.Available = true
	status.CircuitOpen = false
}

// MarkEndpointFailure bumps the endpoint's failure streak, opening the
// circuit at the threshold.
func (r *Registry) MarkEndpointFailure(name string) {
	r.mu.Lock()
	if r.health == nil {
		r.health = newHealthState(DefaultHealthConfig())
	}
	r.mu.Unlock()

	status := r.health.getOrCreate(name)

	r.health.mu.Lock()
	defer r.health.mu.Unlock()

	status.LastFailure = time.Now()
	status.FailureCount++


	if status.FailureCount >= r.health.config.FailureThreshold {
		status.CircuitOpen = true
		status.CircuitOpenedAt = time.Now()
		status.Available = false
	}
}

// IsEndpointAvailable reports whether the endpoint may receive a request.
// An open circuit blocks it until the recovery timeout elapses.
func (r *Registry) IsEndpointAvailable(name string) bool {
	r.mu.RLock()
	if r.health == nil {
		r.mu.RUnlock()
		return true // no tracking, nothing to block on
	}
	r.mu.RUnlock()

	r.health.mu.RLock()
	status, ok := r.health.statuses[name]
	if !ok {
		r.health.mu.RUnlock()
		return true // never seen, assume healthy
	}

	// Copy under the lock, compare outside it.
	circuitOpen := status.CircuitOpen
	circuitOpenedAt := status.CircuitOpenedAt
	r.health.mu.RUnlock()

	if !circuitOpen {
		return true
	}


	r.mu.RLock()
	recoveryTimeout := r.health.config.RecoveryTimeout
	r.mu.RUnlock()

	if time.Since(circuitOpenedAt) > recoveryTimeout {
		return true // half-open, admit a probe
	}

	return false
}

// GetEndpointHealth returns a snapshot of the endpoint's state, or nil when
// the endpoint was never marked.
func (r *Registry) GetEndpointHealth(name string) *EndpointHealth {
	r.mu.RLock()
	if r.health == nil {
		r.mu.RUnlock()
		return nil
	}
	r.mu.RUnlock()

	r.health.mu.RLock()
	defer r.health.mu.RUnlock()

	if status, ok := r.health.statuses[name]; ok {
		// Snapshot, not the live struct.
		return &EndpointHealth{
			Available:       status.Available,
			LastSuccess:     status.LastSuccess,
			LastFailure:     status.LastFailure,
			FailureCount:    status.FailureCount,
			CircuitOpen:     status.CircuitOpen,
			CircuitOpenedAt: status.CircuitOpenedAt,
		}
	}
	return nil
}

// GetAvailableFallbackChain returns the capability's fallback chain with
// circuit-open endpoints filtered out.
func (r *Registry) GetAvailableFallbackChain(cap Capability) []string {
	chain := r.GetFallbackChain(cap)
	available := make([]string, 0, len(chain))

	for _, name := range chain {
		if r.IsEndpointAvailable(name) {
			available = append(available, name)
		}
	}

	// All endpoints down: return the full chain so callers still attempt
	// the request rather than failing without trying.
	if len(available) == 0 {
		return chain
	}

	return available
}

// SetHealthConfig replaces the breaker settings.
func (r *Registry) SetHealthConfig(cfg HealthConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.health == nil {
		r.health = newHealthState(cfg)
	} else {
		r.health.config = cfg
	}
}

// ResetEndpointHealth forgets everything recorded about an endpoint.
func (r *Registry) ResetEndpointHealth(name string) {
	r.mu.RLock()
	if r.health == nil {
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.health.mu.Lock()
	defer r.health.mu.Unlock()

	delete(r.health.statuses, name)
}
