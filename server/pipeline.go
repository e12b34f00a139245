package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/foliolens/foliolens/analyze"
	"github.com/foliolens/foliolens/scrape"
	"github.com/foliolens/foliolens/scrape/weburl"
)

// ValidationError reports a request that failed URL validation before any
// network activity happened. It maps to a 400 at the HTTP layer.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// pageFetcher retrieves static page markup.
type pageFetcher interface {
	Fetch(ctx context.Context, url string) (*scrape.FetchResult, error)
}

// PageRenderer produces post-render markup from a scripted page. It is
// the only pipeline collaborator callers name directly, because rendering
// is optional and a nil PageRenderer selects the plain fetch path.
type PageRenderer interface {
	Render(ctx context.Context, url string) (*scrape.RenderResult, error)
}

// recordExtractor runs the selector cascades over fetched markup.
type recordExtractor interface {
	Extract(html string, live scrape.Node) scrape.PortfolioRecord
}

// summaryAnalyzer turns an extracted record into an analysis summary.
type summaryAnalyzer interface {
	Analyze(ctx context.Context, pageURL, html string, record scrape.PortfolioRecord, stats scrape.PageStats) (*analyze.Analysis, error)
}

// Pipeline executes the fetch, extract, analyze sequence for one URL.
// Requests run sequentially within a call with no shared mutable state,
// so one Pipeline serves concurrent HTTP requests.
type Pipeline struct {
	fetcher   pageFetcher
	renderer  PageRenderer
	extractor recordExtractor
	analyzer  summaryAnalyzer
	logger    *slog.Logger
}

// NewPipeline creates a pipeline. The renderer may be nil, in which case
// every page goes through the plain fetcher.
func NewPipeline(fetcher pageFetcher, renderer PageRenderer, extractor recordExtractor, analyzer summaryAnalyzer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:   fetcher,
		renderer:  renderer,
		extractor: extractor,
		analyzer:  analyzer,
		logger:    logger,
	}
}

// ProcessURL normalizes and validates rawURL, retrieves the page (rendered
// when a renderer is configured, plain fetch otherwise), extracts the
// portfolio record and page stats, and produces the analysis. The
// normalized URL is always returned, including on error, so callers can
// echo it back.
func (p *Pipeline) ProcessURL(ctx context.Context, rawURL string) (*analyze.Analysis, string, error) {
	pageURL := weburl.Normalize(rawURL)

	if err := weburl.Validate(pageURL); err != nil {
		return nil, pageURL, &ValidationError{Err: err}
	}

	html, live, cleanup, err := p.retrieve(ctx, pageURL)
	if err != nil {
		return nil, pageURL, err
	}

	record := p.extractor.Extract(html, live)
	stats := scrape.CollectStats(html)

	// The live handle is only needed for extraction. Release the browser
	// now rather than holding it through the model call.
	cleanup()

	p.logger.Info("page processed",
		"url", pageURL,
		"paragraphs", len(stats.Paragraphs),
		"links", len(stats.Links),
		"skills", len(record.Skills),
		"projects", len(record.Projects))

	analysis, err := p.analyzer.Analyze(ctx, pageURL, html, record, stats)
	if err != nil {
		return nil, pageURL, err
	}
	return analysis, pageURL, nil
}

// retrieve returns the page markup, an optional live DOM handle, and a
// cleanup function that must be called once extraction is done.
func (p *Pipeline) retrieve(ctx context.Context, pageURL string) (string, scrape.Node, func(), error) {
	if p.renderer != nil {
		result, err := p.renderer.Render(ctx, pageURL)
		if err != nil {
			if scrape.IsFetchError(err) {
				return "", nil, nil, err
			}
			return "", nil, nil, scrape.NewFetchError(pageURL, 0, err)
		}
		return result.HTML, result.Live, result.Close, nil
	}

	result, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", nil, nil, err
	}
	return result.HTML(), nil, func() {}, nil
}
