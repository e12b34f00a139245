// Package config provides configuration for e2e smoke tests.
package config

import "time"

// Default connection URLs.
const (
	DefaultBaseURL = "http://localhost:3000"
)

// Default timeouts.
const (
	DefaultCommandTimeout = 30 * time.Second
	DefaultStageTimeout   = 30 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// Config holds the e2e test configuration.
type Config struct {
	// BaseURL is the address of the running foliolens server under test.
	BaseURL string `json:"base_url"`

	// TargetURL is a real, reachable site for the full process-url
	// scenario. When empty that scenario is skipped; the failure-path
	// scenarios run regardless.
	TargetURL string `json:"target_url,omitempty"`

	CommandTimeout time.Duration `json:"command_timeout"`
	StageTimeout   time.Duration `json:"stage_timeout"`
}
