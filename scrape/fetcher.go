package scrape

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/foliolens/foliolens/scrape/weburl"
)

// FetchResult contains the result of fetching a web page over plain HTTP.
type FetchResult struct {
	Body        []byte
	ContentType string
	StatusCode  int
}

// HTML returns the body as a string.
func (r *FetchResult) HTML() string {
	return string(r.Body)
}

// Fetcher retrieves static page markup with SSRF protections. It does not
// execute page scripts; pages that need client-side rendering go through
// the Renderer instead.
type Fetcher struct {
	client         *http.Client
	userAgent      string
	maxContentSize int64
}

// NewFetcher creates a new web fetcher.
func NewFetcher(timeout time.Duration, userAgent string, maxContentSize int64) *Fetcher {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	// Custom DialContext that validates resolved IPs to prevent DNS rebinding attacks
	safeDialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("DNS lookup failed: %w", err)
		}

		for _, ipAddr := range ips {
			if weburl.IsPrivateIP(ipAddr.IP) {
				return nil, fmt.Errorf("connection to private IP %s is not allowed", ipAddr.IP)
			}
		}

		for _, ipAddr := range ips {
			connAddr := net.JoinHostPort(ipAddr.IP.String(), port)
			conn, err := dialer.DialContext(ctx, network, connAddr)
			if err == nil {
				return conn, nil
			}
		}

		return nil, fmt.Errorf("failed to connect to any resolved IP")
	}

	transport := &http.Transport{
		DialContext:           safeDialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (max 5)")
				}
				// Re-validate redirect targets so a public URL cannot
				// bounce the request into a private network.
				if err := weburl.Validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		userAgent:      userAgent,
		maxContentSize: maxContentSize,
	}
}

// Fetch retrieves content from the given URL. All failures are returned as
// *FetchError: validation rejections, network errors, timeouts, non-2xx
// statuses, and oversized bodies.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*FetchResult, error) {
	if err := weburl.Validate(urlStr); err != nil {
		return nil, NewFetchError(urlStr, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, NewFetchError(urlStr, 0, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, NewFetchError(urlStr, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewFetchError(urlStr, resp.StatusCode,
			fmt.Errorf("%s", http.StatusText(resp.StatusCode)))
	}

	limitReader := io.LimitReader(resp.Body, f.maxContentSize+1)
	body, err := io.ReadAll(limitReader)
	if err != nil {
		return nil, NewFetchError(urlStr, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	if int64(len(body)) > f.maxContentSize {
		return nil, NewFetchError(urlStr, resp.StatusCode,
			fmt.Errorf("content too large (exceeds %d bytes)", f.maxContentSize))
	}

	return &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}
