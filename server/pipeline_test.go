package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolens/foliolens/analyze"
	"github.com/foliolens/foliolens/scrape"
)

type fakeFetcher struct {
	html string
	err  error

	gotURL string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*scrape.FetchResult, error) {
	f.gotURL = url
	if f.err != nil {
		return nil, f.err
	}
	return &scrape.FetchResult{Body: []byte(f.html), StatusCode: 200}, nil
}

type fakeRenderer struct {
	html   string
	result *scrape.RenderResult
	err    error

	gotURL string
}

func (f *fakeRenderer) Render(_ context.Context, url string) (*scrape.RenderResult, error) {
	f.gotURL = url
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &scrape.RenderResult{HTML: f.html}, nil
}

type fakeAnalyzer struct {
	analysis  *analyze.Analysis
	err       error
	onAnalyze func()

	gotURL    string
	gotRecord scrape.PortfolioRecord
	gotStats  scrape.PageStats
}

func (f *fakeAnalyzer) Analyze(_ context.Context, pageURL, _ string, record scrape.PortfolioRecord, stats scrape.PageStats) (*analyze.Analysis, error) {
	f.gotURL = pageURL
	f.gotRecord = record
	f.gotStats = stats
	if f.onAnalyze != nil {
		f.onAnalyze()
	}
	return f.analysis, f.err
}

const pipelineFixtureHTML = `<html><body>
<h1>Jane Doe</h1>
<h2>Backend Engineer</h2>
<p>Building services in Go.</p>
<a href="https://github.com/janedoe">GitHub</a>
<img src="/me.png" alt="portrait">
</body></html>`

func TestPipeline_FetchPath(t *testing.T) {
	fetcher := &fakeFetcher{html: pipelineFixtureHTML}
	analyzer := &fakeAnalyzer{analysis: testAnalysis()}
	p := NewPipeline(fetcher, nil, scrape.NewExtractor(nil), analyzer, nil)

	analysis, pageURL, err := p.ProcessURL(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", pageURL)
	assert.Equal(t, "https://example.com", fetcher.gotURL)
	assert.Equal(t, "https://example.com", analyzer.gotURL)
	assert.Same(t, analyzer.analysis, analysis)

	assert.Equal(t, "Jane Doe", analyzer.gotRecord.Owner.Name)
	assert.Equal(t, []string{"Building services in Go."}, analyzer.gotStats.Paragraphs)
	assert.Equal(t, []string{"https://github.com/janedoe"}, analyzer.gotStats.Links)
	assert.Equal(t, []string{"/me.png"}, analyzer.gotStats.Images)
}

func TestPipeline_RendererTakesPrecedence(t *testing.T) {
	fetcher := &fakeFetcher{html: "<html><body><h1>Static</h1></body></html>"}
	renderer := &fakeRenderer{html: pipelineFixtureHTML}
	analyzer := &fakeAnalyzer{analysis: testAnalysis()}
	p := NewPipeline(fetcher, renderer, scrape.NewExtractor(nil), analyzer, nil)

	_, _, err := p.ProcessURL(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", renderer.gotURL)
	assert.Empty(t, fetcher.gotURL)
	assert.Equal(t, "Jane Doe", analyzer.gotRecord.Owner.Name)
}

func TestPipeline_BrowserReleasedBeforeAnalyze(t *testing.T) {
	released := false
	result := &scrape.RenderResult{HTML: pipelineFixtureHTML}
	result.OnClose(func() { released = true })

	renderer := &fakeRenderer{result: result}
	analyzer := &fakeAnalyzer{analysis: testAnalysis()}
	analyzer.onAnalyze = func() {
		assert.True(t, released, "browser still held during the model call")
	}
	p := NewPipeline(&fakeFetcher{}, renderer, scrape.NewExtractor(nil), analyzer, nil)

	_, _, err := p.ProcessURL(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.True(t, released)
}

func TestPipeline_ValidationError(t *testing.T) {
	p := NewPipeline(&fakeFetcher{}, nil, scrape.NewExtractor(nil), &fakeAnalyzer{}, nil)

	tests := []struct {
		name   string
		rawURL string
	}{
		{"localhost", "localhost:3000"},
		{"private ip", "192.168.1.10"},
		{"local domain", "printer.local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pageURL, err := p.ProcessURL(context.Background(), tt.rawURL)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, pageURL, "https://")
		})
	}
}

func TestPipeline_FetchErrorPropagates(t *testing.T) {
	fetchErr := scrape.NewFetchError("https://example.com", 0, errors.New("connection refused"))
	p := NewPipeline(&fakeFetcher{err: fetchErr}, nil, scrape.NewExtractor(nil), &fakeAnalyzer{}, nil)

	_, pageURL, err := p.ProcessURL(context.Background(), "example.com")
	require.Error(t, err)
	assert.True(t, scrape.IsFetchError(err))
	assert.Equal(t, "https://example.com", pageURL)
}

func TestPipeline_RenderErrorWrappedAsFetchError(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("browser crashed")}
	p := NewPipeline(&fakeFetcher{}, renderer, scrape.NewExtractor(nil), &fakeAnalyzer{}, nil)

	_, _, err := p.ProcessURL(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.True(t, scrape.IsFetchError(err))
	assert.Contains(t, err.Error(), "browser crashed")
}

func TestPipeline_AnalyzerErrorPropagates(t *testing.T) {
	analyzer := &fakeAnalyzer{err: analyze.NewGenerationError("analysis", errors.New("timeout"))}
	p := NewPipeline(&fakeFetcher{html: pipelineFixtureHTML}, nil, scrape.NewExtractor(nil), analyzer, nil)

	_, pageURL, err := p.ProcessURL(context.Background(), "example.com")
	require.Error(t, err)
	assert.True(t, analyze.IsGenerationError(err))
	assert.Equal(t, "https://example.com", pageURL)
}
