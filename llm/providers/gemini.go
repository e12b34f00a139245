// Package providers implements LLM provider adapters.
package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/foliolens/foliolens/llm"
)

// GeminiProvider implements the Google Generative Language API.
type GeminiProvider struct{}

func init() {
	llm.RegisterProvider(&GeminiProvider{})
}

// Name returns the provider identifier.
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// BuildURL constructs the generateContent endpoint. Gemini addresses the
// model in the URL path rather than the request body.
func (g *GeminiProvider) BuildURL(baseURL, model string) string {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, model)
}

// SetHeaders adds Gemini authentication headers.
func (g *GeminiProvider) SetHeaders(req *http.Request) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey != "" {
		req.Header.Set("x-goog-api-key", apiKey)
	}
}

// geminiRequest is the generateContent request format.
type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenCfg   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenCfg struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// BuildRequestBody creates the generateContent request body.
// System messages map to systemInstruction; assistant turns use role "model".
func (g *GeminiProvider) BuildRequestBody(_ string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	var systemInstruction *geminiContent
	var contents []geminiContent

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: msg.Content}},
			}
		case "assistant":
			contents = append(contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		default:
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	req := geminiRequest{
		Contents:          contents,
		SystemInstruction: systemInstruction,
	}

	if temperature != nil || maxTokens > 0 {
		req.GenerationConfig = &geminiGenCfg{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		}
	}

	return json.Marshal(req)
}

// geminiResponse is the generateContent response format.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Role  string       `json:"role"`
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// ParseResponse extracts content from a generateContent response.
func (g *GeminiProvider) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	var content string
	for _, part := range resp.Candidates[0].Content.Parts {
		content += part.Text
	}

	usedModel := resp.ModelVersion
	if usedModel == "" {
		usedModel = model
	}

	return &llm.Response{
		Content: content,
		Model:   usedModel,
		Usage: llm.TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
		FinishReason: resp.Candidates[0].FinishReason,
	}, nil
}
