package analyze

import (
	"context"
	"errors"
	"testing"

	"github.com/foliolens/foliolens/llm"
	"github.com/foliolens/foliolens/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter records requests and returns canned responses.
type fakeCompleter struct {
	requests  []llm.Request
	responses []*llm.Response
	err       error
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

const analyzerFixtureHTML = `<html><head><title>Jane Doe</title></head><body>
<main>
<h1>Jane Doe</h1>
<p>Software engineer with a focus on distributed systems. Building reliable
infrastructure for a decade, with production experience across three cloud
providers and a long tail of open source contributions.</p>
</main>
</body></html>`

func testRecord() scrape.PortfolioRecord {
	record := scrape.NewPortfolioRecord()
	record.Owner.Name = "Jane Doe"
	record.Owner.Title = "Software Engineer"
	record.Skills = []string{"Go", "Python"}
	return record
}

func testStats() scrape.PageStats {
	return scrape.PageStats{
		Paragraphs: []string{"Software engineer with a focus on distributed systems."},
		Links:      []string{"https://github.com/janedoe", "https://linkedin.com/in/janedoe"},
		Images:     []string{"/avatar.png"},
	}
}

func TestAnalyze_Success(t *testing.T) {
	client := &fakeCompleter{
		responses: []*llm.Response{{
			Content: "```json\n{\"title\":\"Jane Doe\",\"main_topic\":\"Personal portfolio\",\"summary\":\"A software engineer's portfolio.\",\"key_points\":[\"Ten years of experience\",\"Distributed systems focus\"]}\n```",
			Model:   "test-model",
		}},
	}

	analyzer := NewAnalyzer(client, nil)

	analysis, err := analyzer.Analyze(context.Background(), "https://janedoe.dev", analyzerFixtureHTML, testRecord(), testStats())
	require.NoError(t, err)

	assert.Equal(t, "https://janedoe.dev", analysis.Summary.URL)
	assert.Equal(t, "Jane Doe", analysis.Summary.Title)
	assert.Equal(t, "Personal portfolio", analysis.Summary.MainTopic)
	assert.Equal(t, "A software engineer's portfolio.", analysis.Summary.Summary)
	assert.Len(t, analysis.Summary.KeyPoints, 2)

	// Scraped material rides along for chat grounding
	assert.Equal(t, "Jane Doe", analysis.Record.Owner.Name)
	assert.Len(t, analysis.Stats.Links, 2)
}

func TestAnalyze_PromptIncludesScrapedData(t *testing.T) {
	client := &fakeCompleter{
		responses: []*llm.Response{{
			Content: `{"title":"t","main_topic":"m","summary":"s","key_points":[]}`,
		}},
	}

	analyzer := NewAnalyzer(client, nil)

	_, err := analyzer.Analyze(context.Background(), "https://janedoe.dev", analyzerFixtureHTML, testRecord(), testStats())
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	req := client.requests[0]

	assert.Equal(t, "analysis", req.Capability)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)

	prompt := req.Messages[1].Content
	assert.Contains(t, prompt, "https://janedoe.dev")
	assert.Contains(t, prompt, "Jane Doe")
	assert.Contains(t, prompt, "https://github.com/janedoe")
	assert.Contains(t, prompt, "/avatar.png")
}

func TestAnalyze_LLMError(t *testing.T) {
	client := &fakeCompleter{err: errors.New("connection refused")}

	analyzer := NewAnalyzer(client, nil)

	_, err := analyzer.Analyze(context.Background(), "https://janedoe.dev", analyzerFixtureHTML, testRecord(), testStats())
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
}

func TestAnalyze_MalformedResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no JSON at all", "I could not analyze this website."},
		{"invalid JSON", "{broken"},
		{"missing summary field", `{"title":"t","key_points":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeCompleter{responses: []*llm.Response{{Content: tt.content}}}
			analyzer := NewAnalyzer(client, nil)

			_, err := analyzer.Analyze(context.Background(), "https://janedoe.dev", analyzerFixtureHTML, testRecord(), testStats())
			require.Error(t, err)
			assert.True(t, IsGenerationError(err))
		})
	}
}

func TestParseSummary_NilKeyPoints(t *testing.T) {
	summary, err := parseSummary(`{"title":"t","main_topic":"m","summary":"s"}`)
	require.NoError(t, err)
	assert.NotNil(t, summary.KeyPoints)
	assert.Empty(t, summary.KeyPoints)
}

func TestTruncateForPrompt(t *testing.T) {
	t.Run("short content unchanged", func(t *testing.T) {
		assert.Equal(t, "short", truncateForPrompt("short", 100))
	})

	t.Run("truncates at paragraph boundary", func(t *testing.T) {
		content := "first paragraph here\n\nsecond paragraph that runs on for a while"
		got := truncateForPrompt(content, 40)
		assert.Contains(t, got, "first paragraph here")
		assert.Contains(t, got, "[Content truncated...]")
		assert.NotContains(t, got, "second paragraph")
	})

	t.Run("hard cut without boundary", func(t *testing.T) {
		content := "one long unbroken line of text with no paragraph breaks anywhere in it"
		got := truncateForPrompt(content, 30)
		assert.Contains(t, got, "[Content truncated...]")
		assert.LessOrEqual(t, len(got), 30+len("\n\n[Content truncated...]"))
	})
}

func TestDigester(t *testing.T) {
	d := NewDigester()

	digest := d.Digest(analyzerFixtureHTML, "https://janedoe.dev")
	assert.Contains(t, digest, "distributed systems")

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", d.Digest("", ""))
	})

	t.Run("scripts stripped on fallback", func(t *testing.T) {
		page := `<html><body><script>var tracking = 1;</script><span>contact me</span></body></html>`
		digest := d.Digest(page, "")
		assert.NotContains(t, digest, "tracking")
		assert.Contains(t, digest, "contact me")
	})
}

func TestStripNoise(t *testing.T) {
	page := `<html><body><style>.x{}</style><form><input></form><p>kept</p></body></html>`
	cleaned := stripNoise(page)
	assert.NotContains(t, cleaned, "style")
	assert.NotContains(t, cleaned, "form")
	assert.Contains(t, cleaned, "<p>kept</p>")
}
