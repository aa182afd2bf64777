// Package fetcher handles page downloading, redirect tracking, robots
// checks, and crawl error classification.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 5 * 1024 * 1024

// ErrEmptyBody is returned when a 200 response carries no usable body.
var ErrEmptyBody = fmt.Errorf("empty response body")

// StatusError is returned for non-200 HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Page is the outcome of fetching one URL, redirects followed.
type Page struct {
	RequestURL    string
	FinalURL      string
	StatusCode    int
	HTML          string
	RedirectChain []string
	ResponseTime  time.Duration
}

// Fetcher downloads HTML pages.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a Fetcher around the given HTTP client.
func New(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = "MostAIMentionsBot/1.0"
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch downloads a page, following redirects. The returned Page records the
// final URL and the redirect chain so the caller can detect non-homepage
// bounces. Non-200 statuses and empty bodies are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := &Page{
		RequestURL:    rawURL,
		FinalURL:      resp.Request.URL.String(),
		StatusCode:    resp.StatusCode,
		HTML:          string(body),
		RedirectChain: redirectChain(resp),
		ResponseTime:  time.Since(start),
	}

	if resp.StatusCode != http.StatusOK {
		return page, &StatusError{Code: resp.StatusCode}
	}
	if strings.TrimSpace(page.HTML) == "" {
		return page, ErrEmptyBody
	}
	return page, nil
}

// redirectChain walks the request/response links back to the original URL.
// The chain lists every URL visited, in order, ending at the final one.
func redirectChain(resp *http.Response) []string {
	var chain []string
	for req := resp.Request; req != nil; {
		chain = append([]string{req.URL.String()}, chain...)
		if req.Response == nil {
			break
		}
		req = req.Response.Request
	}
	return chain
}
