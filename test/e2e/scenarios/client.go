package scenarios

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/foliolens/foliolens/test/e2e/config"
)

// apiClient is a thin wire-level client for the foliolens API. Scenarios
// talk JSON over HTTP exactly as a frontend would, with no access to the
// server's internals.
type apiClient struct {
	cfg    *config.Config
	client *http.Client
}

func newAPIClient(cfg *config.Config) *apiClient {
	return &apiClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.CommandTimeout},
	}
}

// postJSON sends body to path and decodes the response into out (when out
// is non-nil). The status code is returned for error-path assertions.
func (c *apiClient) postJSON(ctx context.Context, path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response from %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// postStream sends body to path and returns the raw response body for
// SSE parsing. The caller owns closing nothing; the body is fully read.
func (c *apiClient) postStream(ctx context.Context, path string, body any) (int, string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read stream from %s: %w", path, err)
	}
	return resp.StatusCode, string(raw), nil
}

// get fetches path and returns the status code and raw body.
func (c *apiClient) get(ctx context.Context, path string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(raw), nil
}

// sampleURLData is a process-url response payload used to ground the chat
// scenarios without a live fetch.
func sampleURLData() map[string]any {
	return map[string]any{
		"analysis": map[string]any{
			"url":        "https://janedoe.dev",
			"title":      "Jane Doe",
			"main_topic": "Software engineering portfolio",
			"summary":    "Portfolio of a backend engineer working in Go.",
			"key_points": []string{"Go and Python experience", "Three shipped projects"},
		},
		"portfolio": map[string]any{
			"owner":  map[string]any{"name": "Jane Doe", "title": "Backend Engineer", "bio": ""},
			"skills": []string{"Go", "Python"},
		},
		"scraped_data": map[string]any{
			"paragraphs": []string{"Hi, I'm Jane."},
			"links":      []string{"https://github.com/janedoe"},
			"images":     []string{"/me.png"},
		},
	}
}
