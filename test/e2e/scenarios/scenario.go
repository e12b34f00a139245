// Package scenarios defines the e2e smoke test scenarios run against a
// live foliolens server.
package scenarios

import (
	"context"
	"sync"
	"time"
)

// Scenario is one end-to-end check against the running server.
type Scenario interface {
	// Name returns the scenario name for identification and reporting.
	Name() string

	// Description provides a human-readable description of what the scenario tests.
	Description() string

	// Setup prepares the scenario environment before execution.
	Setup(ctx context.Context) error

	// Execute runs the actual test scenario.
	Execute(ctx context.Context) (*Result, error)

	// Teardown cleans up after the scenario execution.
	Teardown(ctx context.Context) error
}

// Result contains the outcome of a scenario execution.
// All methods are thread-safe for concurrent access.
type Result struct {
	mu sync.Mutex `json:"-"`

	ScenarioName string        `json:"scenario_name"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`

	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`

	// Details contains scenario-specific output data.
	Details map[string]any `json:"details,omitempty"`

	// Errors contains all errors encountered during execution.
	Errors []string `json:"errors,omitempty"`

	// Warnings contains non-fatal issues encountered.
	Warnings []string `json:"warnings,omitempty"`

	// Stages tracks completion of each stage in the scenario.
	Stages []StageResult `json:"stages,omitempty"`
}

// StageResult represents the outcome of a single stage in a scenario.
type StageResult struct {
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// NewResult creates a new Result initialized for the given scenario.
func NewResult(scenarioName string) *Result {
	return &Result{
		ScenarioName: scenarioName,
		StartTime:    time.Now(),
		Details:      make(map[string]any),
		Errors:       []string{},
		Warnings:     []string{},
		Stages:       []StageResult{},
	}
}

// Complete marks the result as complete, setting end time and duration.
func (r *Result) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// AddError adds an error to the result.
func (r *Result) AddError(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(warning string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, warning)
}

// AddStage adds a completed stage to the result.
func (r *Result) AddStage(name string, success bool, duration time.Duration, err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stages = append(r.Stages, StageResult{
		Name:     name,
		Success:  success,
		Duration: duration,
		Error:    err,
	})
}

// SetDetail sets a detail value.
func (r *Result) SetDetail(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Details[key] = value
}

// runStage executes fn and records it as a named stage. It returns the
// stage error so callers can decide whether to continue.
func runStage(ctx context.Context, result *Result, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	if err != nil {
		result.AddStage(name, false, time.Since(start), err.Error())
		result.AddError(name + ": " + err.Error())
		return err
	}
	result.AddStage(name, true, time.Since(start), "")
	return nil
}
