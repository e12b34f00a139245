package scenarios

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/foliolens/foliolens/test/e2e/config"
)

// ProcessURLScenario runs the full fetch/extract/analyze pipeline against
// a real target site. It is skipped when no target URL is configured.
type ProcessURLScenario struct {
	cfg    *config.Config
	client *apiClient
}

// NewProcessURLScenario creates the full-pipeline scenario.
func NewProcessURLScenario(cfg *config.Config) *ProcessURLScenario {
	return &ProcessURLScenario{cfg: cfg, client: newAPIClient(cfg)}
}

func (s *ProcessURLScenario) Name() string { return "process-url" }

func (s *ProcessURLScenario) Description() string {
	return "Runs the full pipeline against the configured target site"
}

func (s *ProcessURLScenario) Setup(ctx context.Context) error { return nil }

func (s *ProcessURLScenario) Teardown(ctx context.Context) error { return nil }

func (s *ProcessURLScenario) Execute(ctx context.Context) (*Result, error) {
	result := NewResult(s.Name())
	defer result.Complete()

	if s.cfg.TargetURL == "" {
		result.Skipped = true
		result.Success = true
		result.AddWarning("no target URL configured, skipping")
		return result, nil
	}

	var resp struct {
		Analysis struct {
			URL       string   `json:"url"`
			Summary   string   `json:"summary"`
			KeyPoints []string `json:"key_points"`
		} `json:"analysis"`
		ScrapedData struct {
			Paragraphs []string `json:"paragraphs"`
			Links      []string `json:"links"`
			Images     []string `json:"images"`
		} `json:"scraped_data"`
	}

	err := runStage(ctx, result, "process", func(ctx context.Context) error {
		status, err := s.client.postJSON(ctx, "/api/process-url",
			map[string]string{"url": s.cfg.TargetURL}, &resp)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("expected 200, got %d", status)
		}
		return nil
	})
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	err = runStage(ctx, result, "verify", func(ctx context.Context) error {
		if resp.Analysis.Summary == "" {
			return fmt.Errorf("analysis summary is empty")
		}
		if !strings.Contains(resp.Analysis.URL, strings.TrimPrefix(s.cfg.TargetURL, "https://")) {
			return fmt.Errorf("analysis url %q does not reflect target %q", resp.Analysis.URL, s.cfg.TargetURL)
		}
		return nil
	})
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	result.SetDetail("summary", resp.Analysis.Summary)
	result.SetDetail("key_points", len(resp.Analysis.KeyPoints))
	result.SetDetail("paragraphs", len(resp.ScrapedData.Paragraphs))
	result.Success = true
	return result, nil
}
