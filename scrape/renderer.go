package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"github.com/foliolens/foliolens/scrape/weburl"
)

// Renderer loads a page in an environment that executes its client-side
// scripts and returns the post-render markup. Implementations must be safe
// to call from concurrent requests; each call uses its own rendering
// instance.
type Renderer interface {
	Render(ctx context.Context, url string) (*RenderResult, error)
}

// RenderResult is the outcome of rendering one page.
type RenderResult struct {
	// HTML is the page markup after script execution.
	HTML string

	// Title is the document title.
	Title string

	// AppState holds client-side state the page exposes through well-known
	// globals (Next.js page props or a window.__STATE__ convention).
	// Nil when the page exposes neither.
	AppState json.RawMessage

	// Live is a handle to the still-open page DOM for tier-1 extraction.
	// Nil for renderers that only produce markup. Valid until Close.
	Live Node

	closeFns []func()
}

// OnClose registers fn to run when the result is closed. Functions run in
// reverse registration order.
func (r *RenderResult) OnClose(fn func()) {
	r.closeFns = append(r.closeFns, fn)
}

// Close releases the browser resources behind the result. Safe to call on
// a nil result and safe to call more than once.
func (r *RenderResult) Close() {
	if r == nil {
		return
	}
	for i := len(r.closeFns) - 1; i >= 0; i-- {
		r.closeFns[i]()
	}
	r.closeFns = nil
}

// RenderOptions configures the browser renderer.
type RenderOptions struct {
	// ContentSelector is the DOM marker that signals the page finished
	// loading its content. Waiting for it is best-effort: on timeout the
	// render proceeds with whatever is present.
	ContentSelector string

	// MarkerTimeout bounds the wait for ContentSelector.
	MarkerTimeout time.Duration

	// SettleDelay is a fixed pause after the marker wait, giving deferred
	// scripts and animations time to run.
	SettleDelay time.Duration

	// NavigationTimeout bounds the initial page load.
	NavigationTimeout time.Duration

	// UserAgent overrides the browser User-Agent header.
	UserAgent string

	// ExecutablePath points at a Chromium binary. Empty uses the
	// Playwright-managed browser.
	ExecutablePath string

	// ArtifactsDir receives debug artifacts (raw HTML, screenshot) when
	// SaveArtifacts is set.
	ArtifactsDir  string
	SaveArtifacts bool
}

// DefaultRenderOptions returns the settings used in production.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		ContentSelector:   "main",
		MarkerTimeout:     10 * time.Second,
		SettleDelay:       3 * time.Second,
		NavigationTimeout: 30 * time.Second,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// appStateProbe reads the client-state globals a rendered SPA may expose.
const appStateProbe = `() => {
	const fromProps = window.__NEXT_DATA__ ? window.__NEXT_DATA__.props.pageProps : null;
	const fromState = window.__STATE__ || null;
	return JSON.stringify({ from_props: fromProps, from_state: fromState });
}`

// BrowserRenderer renders pages in headless Chromium via Playwright.
// Every Render call launches and tears down its own browser instance, so
// no page state leaks between requests.
type BrowserRenderer struct {
	opts   RenderOptions
	logger *slog.Logger
}

// NewBrowserRenderer creates a renderer with the given options.
func NewBrowserRenderer(opts RenderOptions, logger *slog.Logger) *BrowserRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserRenderer{opts: opts, logger: logger}
}

// Render loads the URL in headless Chromium, waits for the content marker
// (proceeding on timeout), applies the settle delay, and returns the
// post-render markup plus any exposed client state. The caller must Close
// the result; cleanup runs on every error path here.
func (b *BrowserRenderer) Render(ctx context.Context, url string) (*RenderResult, error) {
	if err := weburl.Validate(url); err != nil {
		return nil, NewFetchError(url, 0, err)
	}

	pwInstance, err := pw.Run()
	if err != nil {
		return nil, NewFetchError(url, 0, fmt.Errorf("start playwright: %w", err))
	}

	result := &RenderResult{}
	result.OnClose(func() { _ = pwInstance.Stop() })

	launchOpts := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
		},
	}
	if b.opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = pw.String(b.opts.ExecutablePath)
	}

	browser, err := pwInstance.Chromium.Launch(launchOpts)
	if err != nil {
		result.Close()
		return nil, NewFetchError(url, 0, fmt.Errorf("launch browser: %w", err))
	}
	result.OnClose(func() { _ = browser.Close() })

	pageOpts := pw.BrowserNewPageOptions{
		Viewport: &pw.Size{Width: 1920, Height: 1080},
	}
	if b.opts.UserAgent != "" {
		pageOpts.UserAgent = pw.String(b.opts.UserAgent)
	}

	page, err := browser.NewPage(pageOpts)
	if err != nil {
		result.Close()
		return nil, NewFetchError(url, 0, fmt.Errorf("create page: %w", err))
	}
	result.OnClose(func() { _ = page.Close() })

	if _, err := page.Goto(url, pw.PageGotoOptions{
		Timeout: pw.Float(float64(b.opts.NavigationTimeout.Milliseconds())),
	}); err != nil {
		result.Close()
		return nil, NewFetchError(url, 0, fmt.Errorf("navigate: %w", err))
	}

	// Wait for the content marker, best-effort. A portfolio SPA that never
	// mounts the marker still gets scraped with whatever rendered.
	if b.opts.ContentSelector != "" {
		waitErr := page.Locator(b.opts.ContentSelector).WaitFor(pw.LocatorWaitForOptions{
			Timeout: pw.Float(float64(b.opts.MarkerTimeout.Milliseconds())),
		})
		if waitErr != nil {
			b.logger.Warn("Timed out waiting for content marker, continuing anyway",
				"url", url,
				"selector", b.opts.ContentSelector)
		}
	}

	if b.opts.SettleDelay > 0 {
		page.WaitForTimeout(float64(b.opts.SettleDelay.Milliseconds()))
	}

	html, err := page.Content()
	if err != nil {
		result.Close()
		return nil, NewFetchError(url, 0, fmt.Errorf("read page content: %w", err))
	}
	result.HTML = html

	if title, err := page.Title(); err == nil {
		result.Title = title
	}

	result.AppState = b.probeAppState(page, url)

	if b.opts.SaveArtifacts {
		b.saveArtifacts(page, url, html)
	}

	result.Live = NewLiveNode(page)
	return result, nil
}

// probeAppState evaluates the client-state probe. Failures are logged and
// ignored: exposed globals are auxiliary context, not part of the contract.
func (b *BrowserRenderer) probeAppState(page pw.Page, url string) json.RawMessage {
	raw, err := page.Evaluate(appStateProbe)
	if err != nil {
		b.logger.Debug("App state probe failed", "url", url, "error", err)
		return nil
	}

	encoded, ok := raw.(string)
	if !ok || encoded == "" {
		return nil
	}

	var probe struct {
		FromProps json.RawMessage `json:"from_props"`
		FromState json.RawMessage `json:"from_state"`
	}
	if err := json.Unmarshal([]byte(encoded), &probe); err != nil {
		return nil
	}
	if isJSONNull(probe.FromProps) && isJSONNull(probe.FromState) {
		return nil
	}

	b.logger.Info("Found application state data through page globals", "url", url)
	return json.RawMessage(encoded)
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// saveArtifacts writes the raw HTML and a screenshot for debugging.
// Best-effort: artifact failures never fail the render.
func (b *BrowserRenderer) saveArtifacts(page pw.Page, url, html string) {
	dir := b.opts.ArtifactsDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		b.logger.Warn("Failed to create artifacts directory", "dir", dir, "error", err)
		return
	}

	slug := weburl.Slug(url)

	htmlPath := filepath.Join(dir, slug+".html")
	if err := os.WriteFile(htmlPath, []byte(html), 0644); err != nil {
		b.logger.Warn("Failed to save HTML artifact", "path", htmlPath, "error", err)
	} else {
		b.logger.Info("Saved raw HTML artifact", "path", htmlPath)
	}

	shotPath := filepath.Join(dir, slug+".png")
	if _, err := page.Screenshot(pw.PageScreenshotOptions{
		Path:     pw.String(shotPath),
		FullPage: pw.Bool(true),
	}); err != nil {
		b.logger.Warn("Failed to save screenshot artifact", "path", shotPath, "error", err)
	} else {
		b.logger.Info("Saved screenshot artifact", "path", shotPath)
	}
}
