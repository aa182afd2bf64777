// Package crawl runs one site crawl end to end: bounded page fetching,
// signal extraction, scoring, persistence, and state transitions.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/extractor"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/fetcher"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/score"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/storage"
)

// Retry policy for transient fetch failures within one attempt.
const (
	maxFetchRetries   = 2
	retryBaseInterval = 2 * time.Second
)

// PageFetcher downloads a single page, redirects followed.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// Renderer produces fully rendered HTML for JS-heavy pages.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RobotsChecker gates crawls on robots.txt.
type RobotsChecker interface {
	Allowed(ctx context.Context, url string) (bool, error)
}

// Enricher kicks off async enrichments for a persisted crawl result. The
// enrichment may outlive the crawl job.
type Enricher interface {
	EnrichAsync(site model.Site, resultID int64)
}

// Notifier is told about hype score changes.
type Notifier interface {
	ScoreChanged(site model.Site, oldScore, newScore int)
}

// Runner executes crawl jobs. Renderer, robots, enricher, and notifier are
// optional; a nil collaborator disables that step.
type Runner struct {
	store  storage.Storage
	fetch  PageFetcher
	render Renderer
	robots RobotsChecker
	enrich Enricher
	notify Notifier
	log    *slog.Logger

	maxPages int
	maxDepth int
}

// New creates a crawl Runner.
func New(store storage.Storage, fetch PageFetcher, log *slog.Logger, maxPages, maxDepth int) *Runner {
	if maxPages <= 0 {
		maxPages = 1
	}
	return &Runner{
		store:    store,
		fetch:    fetch,
		log:      log,
		maxPages: maxPages,
		maxDepth: maxDepth,
	}
}

// WithRenderer enables headless rendering for SPA-looking pages.
func (r *Runner) WithRenderer(render Renderer) *Runner { r.render = render; return r }

// WithRobots enables the robots.txt gate.
func (r *Runner) WithRobots(robots RobotsChecker) *Runner { r.robots = robots; return r }

// WithEnricher enables async post-crawl enrichments.
func (r *Runner) WithEnricher(enrich Enricher) *Runner { r.enrich = enrich; return r }

// WithNotifier enables score change notifications.
func (r *Runner) WithNotifier(notify Notifier) *Runner { r.notify = notify; return r }

// Crawl runs one crawl attempt for a site that the scheduler has already
// claimed. It always leaves the site in a non-crawling status.
func (r *Runner) Crawl(ctx context.Context, site model.Site) {
	log := r.log.With("site_id", site.ID, "domain", site.Domain, "attempt_id", uuid.NewString())
	log.Info("crawl started", "url", site.URL)

	if r.robots != nil {
		allowed, err := r.robots.Allowed(ctx, site.URL)
		if err != nil {
			log.Warn("robots check failed, proceeding", "error", err)
		} else if !allowed {
			r.fail(ctx, site, fetcher.ErrRobotsBlocked, log)
			return
		}
	}

	home, err := r.fetchWithRetry(ctx, site.URL)
	if err != nil {
		r.fail(ctx, site, err, log)
		return
	}

	if !isHomepageURL(home.FinalURL) {
		log.Warn("crawl bounced off homepage", "final_url", home.FinalURL)
		r.fail(ctx, site, fetcher.ErrNonHomepageRedirect, log)
		return
	}

	firstHTML := home.HTML
	if r.render != nil && fetcher.ShouldRender(firstHTML) {
		rendered, rerr := r.render.Render(ctx, home.FinalURL)
		if rerr != nil {
			log.Warn("headless render failed, using static HTML", "error", rerr)
		} else {
			firstHTML = rendered
		}
	}

	acc := extractor.NewAccumulator()
	acc.AddPage(firstHTML)

	if r.maxDepth > 0 {
		for _, link := range fetcher.ExtractLinks(home.FinalURL, firstHTML, r.maxPages-1) {
			if ctx.Err() != nil {
				break
			}
			page, perr := r.fetch.Fetch(ctx, link)
			if perr != nil {
				log.Debug("subpage fetch failed", "url", link, "error", perr)
				continue
			}
			acc.AddPage(page.HTML)
		}
	}

	signals := acc.Signals()
	breakdown := score.Calculate(score.Input{
		Mentions:       signals.Mentions,
		AnimationCount: signals.AnimationCount,
		GlowCount:      signals.GlowCount,
		RainbowCount:   signals.RainbowCount,
		WordCount:      signals.WordCount,
	})

	result := &model.CrawlResult{
		SiteID:         site.ID,
		Breakdown:      breakdown,
		Mentions:       signals.Mentions,
		AnimationCount: signals.AnimationCount,
		GlowCount:      signals.GlowCount,
		RainbowCount:   signals.RainbowCount,
		WordCount:      signals.WordCount,
		PagesCrawled:   signals.PagesCrawled,
		FinalURL:       home.FinalURL,
		RedirectChain:  home.RedirectChain,
		ResponseTimeMs: home.ResponseTime.Milliseconds(),
		Tech:           SniffTech(firstHTML),
	}
	if err := r.store.CreateCrawlResult(ctx, result); err != nil {
		log.Error("persist crawl result", "error", err)
		r.fail(ctx, site, err, log)
		return
	}

	r.complete(ctx, site, result, log)

	if r.enrich != nil {
		r.enrich.EnrichAsync(site, result.ID)
	}
}

// fetchWithRetry retries transient failures with exponential backoff;
// permanent and policy failures surface immediately.
func (r *Runner) fetchWithRetry(ctx context.Context, rawURL string) (*fetcher.Page, error) {
	var page *fetcher.Page
	backoff := retry.WithMaxRetries(maxFetchRetries, retry.NewExponential(retryBaseInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, ferr := r.fetch.Fetch(ctx, rawURL)
		if ferr != nil {
			if fetcher.Classify(ferr).IsTransient() {
				return retry.RetryableError(ferr)
			}
			return ferr
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// complete applies the success transition and fires the post-write hooks:
// a changed hype score appends a history row and emits a notification.
func (r *Runner) complete(ctx context.Context, site model.Site, result *model.CrawlResult, log *slog.Logger) {
	now := time.Now().UTC()
	oldScore := site.HypeScore

	site.Status = model.StatusCompleted
	site.HypeScore = result.Breakdown.Total
	site.LastCrawledAt = &now
	site.ConsecutiveFailures = 0
	if err := r.store.UpdateSite(ctx, &site); err != nil {
		log.Error("update site after crawl", "error", err)
		return
	}

	if site.HypeScore != oldScore {
		entry := &model.ScoreHistory{
			SiteID:        site.ID,
			CrawlResultID: result.ID,
			HypeScore:     site.HypeScore,
		}
		if err := r.store.AppendScoreHistory(ctx, entry); err != nil {
			log.Error("append score history", "error", err)
		}
		if r.notify != nil {
			r.notify.ScoreChanged(site, oldScore, site.HypeScore)
		}
	}

	log.Info("crawl completed",
		"score", site.HypeScore,
		"mentions", len(result.Mentions),
		"pages", result.PagesCrawled)
}

// fail applies the failure transition: the error is categorized and
// recorded, consecutive_failures incremented, last_crawled_at untouched.
func (r *Runner) fail(ctx context.Context, site model.Site, cause error, log *slog.Logger) {
	category := fetcher.Classify(cause)
	now := time.Now().UTC()

	ce := &model.CrawlError{
		SiteID:   site.ID,
		Category: category,
		Message:  cause.Error(),
		URL:      site.URL,
	}
	if err := r.store.RecordCrawlError(ctx, ce); err != nil {
		log.Error("record crawl error", "error", err)
	}

	site.Status = model.StatusFailed
	site.ConsecutiveFailures++
	site.LastAttemptedAt = &now
	if err := r.store.UpdateSite(ctx, &site); err != nil {
		log.Error("update site after failure", "error", err)
	}

	log.Warn("crawl failed",
		"category", string(category),
		"error", cause,
		"consecutive_failures", site.ConsecutiveFailures)
}

// isHomepageURL reports whether a final URL still points at a homepage.
// Redirects across hosts are fine as long as they land on a homepage; a
// bounce to /login or /dashboard means the scored content would be garbage.
func isHomepageURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isHomepagePath(u.Path)
}
