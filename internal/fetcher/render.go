package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// renderWait gives client-side frameworks a moment to paint before the DOM
// is exported.
const renderWait = 2 * time.Second

// spaMarkers are root-element fingerprints of client-rendered apps whose
// static HTML is an empty shell.
var spaMarkers = []string{
	`id="__next"`,
	`id="root"`,
	`id="app"`,
	"data-reactroot",
	"ng-version",
}

// ShouldRender decides whether a statically fetched body needs a headless
// pass: tiny script-heavy shells and known SPA roots get promoted.
func ShouldRender(htmlSrc string) bool {
	body := strings.TrimSpace(htmlSrc)
	if body == "" {
		return true
	}
	lower := strings.ToLower(body)
	if len(body) < 2048 && strings.Count(lower, "<script") > 2 {
		return true
	}
	for _, marker := range spaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Renderer executes headless Chrome sessions with bounded concurrency.
type Renderer struct {
	userAgent string
	timeout   time.Duration
	semaphore chan struct{}
}

// NewRenderer creates a Renderer allowing at most sessions concurrent
// Chrome instances.
func NewRenderer(userAgent string, timeout time.Duration, sessions int) *Renderer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if sessions <= 0 {
		sessions = 1
	}
	return &Renderer{
		userAgent: userAgent,
		timeout:   timeout,
		semaphore: make(chan struct{}, sessions),
	}
}

// Render navigates to the URL and returns the post-JavaScript outer HTML.
func (r *Renderer) Render(parentCtx context.Context, rawURL string) (string, error) {
	var outerHTML string
	err := r.run(parentCtx, rawURL,
		chromedp.Sleep(renderWait),
		chromedp.OuterHTML("html", &outerHTML),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", rawURL, err)
	}
	return outerHTML, nil
}

// Screenshot captures a full-page screenshot of the URL.
func (r *Renderer) Screenshot(parentCtx context.Context, rawURL string) ([]byte, error) {
	var buf []byte
	err := r.run(parentCtx, rawURL,
		chromedp.Sleep(renderWait),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", rawURL, err)
	}
	return buf, nil
}

func (r *Renderer) run(parentCtx context.Context, rawURL string, after ...chromedp.Action) error {
	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-parentCtx.Done():
		return parentCtx.Err()
	}

	ctx, cancel := context.WithTimeout(parentCtx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(r.userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	actions := append([]chromedp.Action{chromedp.Navigate(rawURL)}, after...)
	return chromedp.Run(browserCtx, actions...)
}
