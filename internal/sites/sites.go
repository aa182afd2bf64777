// Package sites handles site submission: URL validation, domain
// canonicalization, blocklist checks, and dedup by domain.
package sites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/storage"
)

// ErrDomainBlocked is returned for domains on the blocklist.
var ErrDomainBlocked = errors.New("domain is blocked")

// ErrAlreadySubmitted is returned when the domain already has a site.
var ErrAlreadySubmitted = errors.New("domain already submitted")

// Service creates new crawl targets.
type Service struct {
	store storage.Storage
	log   *slog.Logger
}

// NewService creates a submission service.
func NewService(store storage.Storage, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Submit validates a URL and creates a queued site for it. submittedBy is
// nil for non-user sources. On ErrAlreadySubmitted the existing site is
// returned alongside the error.
func (s *Service) Submit(ctx context.Context, rawURL, source string, submittedBy *int64) (*model.Site, error) {
	normalized, domain, err := Normalize(rawURL)
	if err != nil {
		return nil, err
	}

	blocked, err := s.store.IsDomainBlocked(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("check blocklist: %w", err)
	}
	if blocked {
		return nil, fmt.Errorf("%w: %s", ErrDomainBlocked, domain)
	}

	existing, err := s.store.GetSiteByDomain(ctx, domain)
	if err == nil {
		return existing, fmt.Errorf("%w: %s", ErrAlreadySubmitted, domain)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup domain: %w", err)
	}

	site := &model.Site{
		URL:           normalized,
		Domain:        domain,
		Name:          domain,
		Status:        model.StatusQueued,
		IsActive:      true,
		CooldownHours: model.DefaultCooldownHours,
		Source:        source,
		SubmittedBy:   submittedBy,
	}
	if err := s.store.CreateSite(ctx, site); err != nil {
		return nil, fmt.Errorf("create site: %w", err)
	}

	s.log.Info("site submitted", "site_id", site.ID, "domain", domain, "source", source)
	return site, nil
}

// Normalize validates a submitted URL and returns its canonical form plus
// the canonical domain used for dedup. Bare domains get an https scheme.
func Normalize(rawURL string) (normalized, domain string, err error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", "", fmt.Errorf("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" || !strings.Contains(host, ".") || strings.HasSuffix(host, ".") {
		return "", "", fmt.Errorf("invalid domain %q", host)
	}

	u.Host = host
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), host, nil
}
