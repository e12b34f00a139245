package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foliolens/foliolens/llm"
	_ "github.com/foliolens/foliolens/llm/providers" // Register providers
	"github.com/foliolens/foliolens/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatRegistry wires a single endpoint named "portfolio-model" behind the
// chat capability, pointed at an httptest server speaking the OpenAI shape.
func chatRegistry(url string) *model.Registry {
	return model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityChat: {
				Description: "Grounded Q&A over an analysis",
				Preferred:   []string{"portfolio-model"},
			},
		},
		map[string]*model.EndpointConfig{
			"portfolio-model": {
				Provider: "ollama",
				URL:      url,
				Model:    "portfolio-model",
			},
		},
	)
}

// completionBody builds an OpenAI-format completion response.
func completionBody(modelName, content string) map[string]any {
	return map[string]any{
		"model": modelName,
		"choices": []map[string]any{
			{
				"message": map[string]string{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
}

// fastRetry keeps backoff delays negligible so retry paths run quickly.
func fastRetry(maxAttempts int) llm.ClientOption {
	return llm.WithRetryConfig(llm.RetryConfig{
		MaxAttempts:       maxAttempts,
		BackoffBase:       1 * time.Millisecond,
		BackoffMultiplier: 1.0,
		MaxBackoff:        10 * time.Millisecond,
	})
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body := completionBody("portfolio-model", "Jane has ten years of backend experience.")
		body["usage"] = map[string]int{
			"prompt_tokens":     42,
			"completion_tokens": 9,
			"total_tokens":      51,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	client := llm.NewClient(chatRegistry(server.URL))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "chat",
		Messages: []llm.Message{
			{Role: "user", Content: "How experienced is Jane?"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane has ten years of backend experience.", resp.Content)
	assert.Equal(t, "portfolio-model", resp.Model)
	assert.Equal(t, 51, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestClient_Complete_RetryOnTransientError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Service temporarily unavailable"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("portfolio-model", "Recovered."))
	}))
	defer server.Close()

	client := llm.NewClient(chatRegistry(server.URL), fastRetry(3))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "chat",
		Messages:   []llm.Message{{Role: "user", Content: "Summarize the site"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Recovered.", resp.Content)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_Complete_NoRetryOnFatalError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Invalid API key"))
	}))
	defer server.Close()

	client := llm.NewClient(chatRegistry(server.URL))

	_, err := client.Complete(context.Background(), llm.Request{
		Capability: "chat",
		Messages:   []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.Error(t, err)
	assert.True(t, llm.IsFatal(err))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_Complete_FallbackModel(t *testing.T) {
	var primaryAttempts, fallbackAttempts atomic.Int32

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryAttempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Primary down"))
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackAttempts.Add(1)
		json.NewEncoder(w).Encode(completionBody("local-llama", "A portfolio site for Jane Doe."))
	}))
	defer fallback.Close()

	registry := model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityAnalysis: {
				Preferred: []string{"gemini-primary"},
				Fallback:  []string{"local-llama"},
			},
		},
		map[string]*model.EndpointConfig{
			"gemini-primary": {
				Provider: "ollama",
				URL:      primary.URL,
				Model:    "gemini-primary",
			},
			"local-llama": {
				Provider: "ollama",
				URL:      fallback.URL,
				Model:    "local-llama",
			},
		},
	)

	client := llm.NewClient(registry, fastRetry(2))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "analysis",
		Messages:   []llm.Message{{Role: "user", Content: "Analyze the page"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "A portfolio site for Jane Doe.", resp.Content)
	// Preferred endpoint exhausts its attempts before the fallback runs.
	assert.Equal(t, int32(2), primaryAttempts.Load())
	assert.Equal(t, int32(1), fallbackAttempts.Load())
}

func TestClient_Complete_RateLimitRetry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Rate limited"))
			return
		}
		json.NewEncoder(w).Encode(completionBody("portfolio-model", "Within quota now."))
	}))
	defer server.Close()

	client := llm.NewClient(chatRegistry(server.URL), fastRetry(3))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "chat",
		Messages:   []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Within quota now.", resp.Content)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestClient_Complete_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := llm.NewClient(chatRegistry(server.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, llm.Request{
		Capability: "chat",
		Messages:   []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}

func TestClient_Complete_ValidationErrors(t *testing.T) {
	client := llm.NewClient(model.NewDefaultRegistry())

	tests := []struct {
		name    string
		req     llm.Request
		wantErr string
	}{
		{
			name:    "empty capability",
			req:     llm.Request{Messages: []llm.Message{{Role: "user", Content: "hi"}}},
			wantErr: "capability is required",
		},
		{
			name:    "no messages",
			req:     llm.Request{Capability: "chat"},
			wantErr: "at least one message is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Complete(context.Background(), tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
