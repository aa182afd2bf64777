package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsCacheTTL is how long a fetched robots.txt ruleset is reused.
const robotsCacheTTL = 30 * time.Minute

// Robots evaluates robots.txt rules with per-host caching. A host whose
// robots.txt cannot be fetched is treated as allowing everything.
type Robots struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	cache map[string]robotsEntry
}

type robotsEntry struct {
	fetched time.Time
	data    *robotstxt.RobotsData
}

// NewRobots creates a robots.txt gate.
func NewRobots(client *http.Client, userAgent string) *Robots {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Robots{
		client:    client,
		userAgent: userAgent,
		cache:     make(map[string]robotsEntry),
	}
}

// Allowed reports whether the target URL may be crawled.
func (r *Robots) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}

	data, err := r.rules(ctx, u)
	if err != nil || data == nil {
		return true, nil
	}
	return data.TestAgent(u.Path, r.userAgent), nil
}

func (r *Robots) rules(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Scheme + "://" + u.Host

	r.mu.Lock()
	entry, ok := r.cache[host]
	r.mu.Unlock()
	if ok && time.Since(entry.fetched) < robotsCacheTTL {
		return entry.data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[host] = robotsEntry{fetched: time.Now(), data: data}
	r.mu.Unlock()
	return data, nil
}
