package scenarios

import (
	"context"
	"fmt"
	"net/http"

	"github.com/foliolens/foliolens/test/e2e/config"
)

// FailurePathsScenario probes the error contract: blocked URLs come back
// as 400s before any network activity, and unreachable hosts come back as
// 502s carrying a non-empty error and the normalized URL.
type FailurePathsScenario struct {
	client *apiClient
}

// NewFailurePathsScenario creates the error-contract scenario.
func NewFailurePathsScenario(cfg *config.Config) *FailurePathsScenario {
	return &FailurePathsScenario{client: newAPIClient(cfg)}
}

func (s *FailurePathsScenario) Name() string { return "failure-paths" }

func (s *FailurePathsScenario) Description() string {
	return "Verifies validation and unreachable-host error payloads"
}

func (s *FailurePathsScenario) Setup(ctx context.Context) error { return nil }

func (s *FailurePathsScenario) Teardown(ctx context.Context) error { return nil }

type errorPayload struct {
	Error string `json:"error"`
	URL   string `json:"url"`
}

func (s *FailurePathsScenario) Execute(ctx context.Context) (*Result, error) {
	result := NewResult(s.Name())
	defer result.Complete()

	blocked := []string{"localhost:3000", "192.168.1.10", "printer.local"}
	for _, raw := range blocked {
		raw := raw
		err := runStage(ctx, result, "reject "+raw, func(ctx context.Context) error {
			var payload errorPayload
			status, err := s.client.postJSON(ctx, "/api/process-url",
				map[string]string{"url": raw}, &payload)
			if err != nil {
				return err
			}
			if status != http.StatusBadRequest {
				return fmt.Errorf("expected 400, got %d", status)
			}
			if payload.Error == "" {
				return fmt.Errorf("error message is empty")
			}
			return nil
		})
		if err != nil {
			result.Error = err.Error()
			return result, nil
		}
	}

	err := runStage(ctx, result, "unreachable host", func(ctx context.Context) error {
		var payload errorPayload
		status, err := s.client.postJSON(ctx, "/api/process-url",
			map[string]string{"url": "nonexistent-portfolio.invalid"}, &payload)
		if err != nil {
			return err
		}
		if status != http.StatusBadGateway {
			return fmt.Errorf("expected 502, got %d", status)
		}
		if payload.Error == "" {
			return fmt.Errorf("error message is empty")
		}
		if payload.URL != "https://nonexistent-portfolio.invalid" {
			return fmt.Errorf("expected normalized url echo, got %q", payload.URL)
		}
		return nil
	})
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	result.Success = true
	return result, nil
}
