// Package main implements a mock LLM server for offline testing.
// It serves fixture responses over both wire formats the foliolens client
// speaks: OpenAI-compatible /v1/chat/completions (the ollama and openai
// providers) and Gemini /v1beta/models/{model}:generateContent. Fixtures
// are routed by model name, so a registry pointed at this server exercises
// the full pipeline without a real LLM.
//
// Usage:
//
//	mock-llm -fixtures /path/to/fixtures -port 11434
//
// Fixture files are JSON named by model (e.g., "gemini-flash.json" answers
// requests for model "gemini-flash"). The file content is returned verbatim
// as the assistant message.
//
// Sequential fixtures: if numbered files exist (e.g., "gemini-flash.1.json",
// "gemini-flash.2.json"), the Nth call to that model returns the Nth fixture,
// with the base file as a repeating fallback afterwards. This lets a test
// script an analysis response followed by distinct chat replies.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// geminiPart / geminiContent mirror the generateContent wire format.
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
	ModelVersion  string            `json:"modelVersion"`
}

type server struct {
	fixtures map[string][]string // model name → ordered fixture contents
	calls    atomic.Int64        // total calls served

	// Per-model call counters for sequential fixture selection.
	modelCalls   map[string]*atomic.Int64
	modelCallsMu sync.Mutex
}

func newServer(fixtures map[string][]string) *server {
	return &server{
		fixtures:   fixtures,
		modelCalls: make(map[string]*atomic.Int64),
	}
}

func (s *server) getModelCounter(model string) *atomic.Int64 {
	s.modelCallsMu.Lock()
	defer s.modelCallsMu.Unlock()
	if c, ok := s.modelCalls[model]; ok {
		return c
	}
	c := &atomic.Int64{}
	s.modelCalls[model] = c
	return c
}

// nextFixture selects the fixture content for the next call to model.
// The second return is false when no fixture exists for the model.
func (s *server) nextFixture(model string) (string, bool) {
	seq, ok := s.fixtures[model]
	if !ok {
		stripped := strings.TrimPrefix(model, "mock-")
		seq, ok = s.fixtures[stripped]
	}
	if !ok {
		return "", false
	}

	callIndex := int(s.getModelCounter(model).Add(1) - 1)
	if callIndex >= len(seq) {
		callIndex = len(seq) - 1 // repeat last fixture
	}
	return seq[callIndex], true
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing fixture response files")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	if envDir := os.Getenv("MOCK_LLM_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}
	if *fixtureDir == "" {
		*fixtureDir = "/fixtures"
	}

	fixtures, err := loadFixtures(*fixtureDir)
	if err != nil {
		log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
	}
	log.Printf("Loaded %d model(s) from %s", len(fixtures), *fixtureDir)
	for model, seq := range fixtures {
		log.Printf("  model: %s (%d fixture(s))", model, len(seq))
	}

	s := newServer(fixtures)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock LLM server listening on %s", addr)
	if err := http.ListenAndServe(addr, s.routes()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("POST /v1beta/models/{model}", s.handleGenerateContent)
	mux.HandleFunc("GET /stats", s.handleStats)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleChatCompletions serves the OpenAI-compatible surface.
func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)
	log.Printf("[call %d] openai model=%s messages=%d", callNum, req.Model, len(req.Messages))

	content, ok := s.nextFixture(req.Model)
	if !ok {
		http.Error(w, fmt.Sprintf("no fixture for model %q", req.Model), http.StatusNotFound)
		return
	}

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index:        0,
				Message:      chatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     len(content) / 4, // rough estimate
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(content) / 2,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleGenerateContent serves the Gemini surface. The path value carries
// "model:generateContent", so the action suffix is stripped before routing.
func (s *server) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimSuffix(r.PathValue("model"), ":generateContent")

	callNum := s.calls.Add(1)
	log.Printf("[call %d] gemini model=%s", callNum, model)

	content, ok := s.nextFixture(model)
	if !ok {
		http.Error(w, fmt.Sprintf("no fixture for model %q", model), http.StatusNotFound)
		return
	}

	resp := geminiResponse{
		Candidates: []geminiCandidate{
			{
				Content:      geminiContent{Role: "model", Parts: []geminiPart{{Text: content}}},
				FinishReason: "STOP",
			},
		},
		UsageMetadata: geminiUsage{
			PromptTokenCount:     len(content) / 4,
			CandidatesTokenCount: len(content) / 4,
			TotalTokenCount:      len(content) / 2,
		},
		ModelVersion: model,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleStats returns call counts for test assertions.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.modelCallsMu.Lock()
	callsByModel := make(map[string]int64, len(s.modelCalls))
	for model, counter := range s.modelCalls {
		callsByModel[model] = counter.Load()
	}
	s.modelCallsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls":    s.calls.Load(),
		"calls_by_model": callsByModel,
	})
}

// numberedFileRe matches files like "gemini-flash.1.json".
var numberedFileRe = regexp.MustCompile(`^(.+)\.(\d+)\.json$`)

// loadFixtures reads JSON files from dir and returns a map of model→content
// sequence: numbered files in numeric order, then the base file as fallback.
func loadFixtures(dir string) (map[string][]string, error) {
	baseFiles := make(map[string]string)
	numberedFiles := make(map[string]map[int]string)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("invalid JSON in %s", path)
		}
		content := string(data)

		if matches := numberedFileRe.FindStringSubmatch(info.Name()); matches != nil {
			model := matches[1]
			index, _ := strconv.Atoi(matches[2])
			if numberedFiles[model] == nil {
				numberedFiles[model] = make(map[int]string)
			}
			numberedFiles[model][index] = content
			return nil
		}

		model := strings.TrimSuffix(info.Name(), ".json")
		baseFiles[model] = content
		return nil
	})
	if err != nil {
		return nil, err
	}

	fixtures := make(map[string][]string)
	allModels := make(map[string]bool)
	for m := range baseFiles {
		allModels[m] = true
	}
	for m := range numberedFiles {
		allModels[m] = true
	}

	for model := range allModels {
		var seq []string
		if numbered, ok := numberedFiles[model]; ok {
			indices := make([]int, 0, len(numbered))
			for idx := range numbered {
				indices = append(indices, idx)
			}
			sort.Ints(indices)
			for _, idx := range indices {
				seq = append(seq, numbered[idx])
			}
		}
		if base, ok := baseFiles[model]; ok {
			seq = append(seq, base)
		}
		if len(seq) > 0 {
			fixtures[model] = seq
		}
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}
	return fixtures, nil
}
