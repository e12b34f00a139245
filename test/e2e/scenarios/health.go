package scenarios

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/foliolens/foliolens/test/e2e/config"
)

// HealthScenario verifies the server is up and exporting metrics.
type HealthScenario struct {
	client *apiClient
}

// NewHealthScenario creates the health check scenario.
func NewHealthScenario(cfg *config.Config) *HealthScenario {
	return &HealthScenario{client: newAPIClient(cfg)}
}

func (s *HealthScenario) Name() string { return "health" }

func (s *HealthScenario) Description() string {
	return "Checks /healthz and the Prometheus /metrics endpoint"
}

func (s *HealthScenario) Setup(ctx context.Context) error { return nil }

func (s *HealthScenario) Teardown(ctx context.Context) error { return nil }

func (s *HealthScenario) Execute(ctx context.Context) (*Result, error) {
	result := NewResult(s.Name())
	defer result.Complete()

	err := runStage(ctx, result, "healthz", func(ctx context.Context) error {
		status, body, err := s.client.get(ctx, "/healthz")
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("expected 200, got %d", status)
		}
		if !strings.Contains(body, `"ok"`) {
			return fmt.Errorf("unexpected health body: %s", body)
		}
		return nil
	})
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	err = runStage(ctx, result, "metrics", func(ctx context.Context) error {
		status, body, err := s.client.get(ctx, "/metrics")
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("expected 200, got %d", status)
		}
		if !strings.Contains(body, "foliolens_http_requests_total") {
			return fmt.Errorf("request counter missing from metrics output")
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
