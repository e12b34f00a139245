package scenarios

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foliolens/foliolens/test/e2e/config"
)

// ChatStreamScenario exercises the SSE chat variant and checks the stream
// invariant: the final event carries done:true and the full text, and the
// non-final fragments concatenate to that same text.
type ChatStreamScenario struct {
	client *apiClient
}

// NewChatStreamScenario creates the streaming chat scenario.
func NewChatStreamScenario(cfg *config.Config) *ChatStreamScenario {
	return &ChatStreamScenario{client: newAPIClient(cfg)}
}

func (s *ChatStreamScenario) Name() string { return "chat-stream" }

func (s *ChatStreamScenario) Description() string {
	return "Verifies the SSE stream ends with a done event carrying the full reply"
}

func (s *ChatStreamScenario) Setup(ctx context.Context) error { return nil }

func (s *ChatStreamScenario) Teardown(ctx context.Context) error { return nil }

type streamFragment struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

func (s *ChatStreamScenario) Execute(ctx context.Context) (*Result, error) {
	result := NewResult(s.Name())
	defer result.Complete()

	body := map[string]any{
		"messages": []map[string]any{
			{
				"role":      "user",
				"content":   "Summarize Jane's portfolio.",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			},
		},
		"url_data": sampleURLData(),
	}

	var fragments []streamFragment

	err := runStage(ctx, result, "stream", func(ctx context.Context) error {
		status, raw, err := s.client.postStream(ctx, "/api/chat/stream", body)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("expected 200, got %d", status)
		}

		for _, block := range strings.Split(raw, "\n\n") {
			block = strings.TrimSpace(block)
			if block == "" {
				continue
			}
			if !strings.HasPrefix(block, "data: ") {
				return fmt.Errorf("unexpected SSE block: %q", block)
			}
			var fr streamFragment
			if err := json.Unmarshal([]byte(strings.TrimPrefix(block, "data: ")), &fr); err != nil {
				return fmt.Errorf("decode fragment: %w", err)
			}
			fragments = append(fragments, fr)
		}
		if len(fragments) == 0 {
			return fmt.Errorf("stream produced no events")
		}
		return nil
	})
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	err = runStage(ctx, result, "verify done event", func(ctx context.Context) error {
		last := fragments[len(fragments)-1]
		if !last.Done {
			return fmt.Errorf("final event has done=false")
		}
		if last.Content == "" {
			return fmt.Errorf("final event content is empty")
		}

		var assembled strings.Builder
		for _, fr := range fragments[:len(fragments)-1] {
			if fr.Done {
				return fmt.Errorf("non-final event has done=true")
			}
			assembled.WriteString(fr.Content)
		}
		if assembled.Len() > 0 && assembled.String() != last.Content {
			return fmt.Errorf("fragments do not assemble to the final text")
		}
		return nil
	})
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	result.SetDetail("events", len(fragments))
	result.Success = true
	return result, nil
}
