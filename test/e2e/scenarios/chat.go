package scenarios

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/foliolens/foliolens/test/e2e/config"
)

// ChatScenario sends a grounded chat request and expects a reply. It
// requires the server's model registry to point at a reachable LLM
// endpoint (mock-llm in CI).
type ChatScenario struct {
	client *apiClient
}

// NewChatScenario creates the grounded chat scenario.
func NewChatScenario(cfg *config.Config) *ChatScenario {
	return &ChatScenario{client: newAPIClient(cfg)}
}

func (s *ChatScenario) Name() string { return "chat" }

func (s *ChatScenario) Description() string {
	return "Sends a grounded chat message and verifies a reply comes back"
}

func (s *ChatScenario) Setup(ctx context.Context) error { return nil }

func (s *ChatScenario) Teardown(ctx context.Context) error { return nil }

func (s *ChatScenario) Execute(ctx context.Context) (*Result, error) {
	result := NewResult(s.Name())
	defer result.Complete()

	body := map[string]any{
		"messages": []map[string]any{
			{
				"role":      "user",
				"content":   "What does Jane work on?",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			},
		},
		"url_data": sampleURLData(),
	}

	var resp struct {
		Message string `json:"message"`
	}

	err := runStage(ctx, result, "chat", func(ctx context.Context) error {
		status, err := s.client.postJSON(ctx, "/api/chat", body, &resp)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("expected 200, got %d", status)
		}
		if resp.Message == "" {
			return fmt.Errorf("reply message is empty")
		}
		return nil
	})
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	result.SetDetail("reply_length", len(resp.Message))
	result.Success = true
	return result, nil
}
