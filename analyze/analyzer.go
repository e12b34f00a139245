// Package analyze turns scraped portfolio data into structured summaries
// and grounded chat replies using an LLM.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foliolens/foliolens/llm"
	"github.com/foliolens/foliolens/scrape"
)

// maxDigestChars limits page content in the analysis prompt.
// ~4000 chars ≈ ~1000 tokens, staying well within context windows
// while providing enough content for an accurate summary.
const maxDigestChars = 4000

// maxListItems caps how many paragraphs, links, or images are included
// in the prompt.
const maxListItems = 50

// llmCompleter is the LLM client surface the analyzer needs.
type llmCompleter interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Analyzer produces structured summaries of scraped portfolio pages.
type Analyzer struct {
	client   llmCompleter
	digester *Digester
	logger   *slog.Logger
}

// NewAnalyzer creates a new portfolio analyzer with the given LLM client.
func NewAnalyzer(client llmCompleter, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		client:   client,
		digester: NewDigester(),
		logger:   logger,
	}
}

// Analyze summarizes a scraped page. The record and stats come from the
// scrape pipeline; html is the rendered page source used for the content
// digest. Uses the "analysis" capability.
func (a *Analyzer) Analyze(ctx context.Context, pageURL, html string, record scrape.PortfolioRecord, stats scrape.PageStats) (*Analysis, error) {
	digest := a.digester.Digest(html, pageURL)
	digest = truncateForPrompt(digest, maxDigestChars)

	recordJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, NewGenerationError("analysis", fmt.Errorf("encode portfolio record: %w", err))
	}

	prompt := fmt.Sprintf(analysisUserPrompt,
		pageURL,
		string(recordJSON),
		digest,
		joinCapped(stats.Paragraphs, maxListItems),
		joinCapped(stats.Links, maxListItems),
		joinCapped(stats.Images, maxListItems),
	)

	a.logger.Info("sending page for analysis", "url", pageURL, "digest_chars", len(digest))

	temp := 0.3 // Low temperature for consistent extraction
	resp, err := a.client.Complete(ctx, llm.Request{
		Capability: "analysis",
		Messages: []llm.Message{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: &temp,
		MaxTokens:   4096,
	})
	if err != nil {
		return nil, NewGenerationError("analysis", err)
	}

	summary, err := parseSummary(resp.Content)
	if err != nil {
		return nil, NewGenerationError("analysis", err)
	}
	summary.URL = pageURL

	return &Analysis{
		Summary: *summary,
		Record:  record,
		Stats:   stats,
	}, nil
}

// parseSummary extracts a Summary from an LLM response.
func parseSummary(content string) (*Summary, error) {
	jsonStr := llm.ExtractJSON(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var summary Summary
	if err := json.Unmarshal([]byte(jsonStr), &summary); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}

	if summary.Summary == "" {
		return nil, fmt.Errorf("response missing summary field")
	}
	if summary.KeyPoints == nil {
		summary.KeyPoints = []string{}
	}

	return &summary, nil
}

// truncateForPrompt truncates content to a maximum length for prompting.
// Tries to truncate at a paragraph boundary if possible.
func truncateForPrompt(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}

	truncated := content[:maxChars]
	lastPara := strings.LastIndex(truncated, "\n\n")
	if lastPara >= maxChars/2 {
		return truncated[:lastPara] + "\n\n[Content truncated...]"
	}

	return truncated + "\n\n[Content truncated...]"
}

// joinCapped joins up to limit items, one per line.
func joinCapped(items []string, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	return strings.Join(items, "\n")
}
