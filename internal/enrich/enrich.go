// Package enrich runs the asynchronous post-crawl steps: screenshot
// capture, external performance/accessibility audits, and AI image
// detection. Each step re-fetches the stored crawl result, recomputes the
// total from raw signals plus the new bonus, and persists — a
// read-modify-write that is idempotent and safe to run out of order.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/score"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/storage"
)

// Screenshotter captures a rendered page image.
type Screenshotter interface {
	Screenshot(ctx context.Context, url string) ([]byte, error)
}

// ImageDetector counts suspected AI-generated images on a page.
type ImageDetector interface {
	Detect(ctx context.Context, url string) (int, error)
}

// Service drives the enrichment steps. Any collaborator may be nil, which
// skips its step.
type Service struct {
	store         storage.Storage
	shots         Screenshotter
	detector      ImageDetector
	auditCmd      string
	auditTimeout  time.Duration
	screenshotDir string
	timeout       time.Duration
	log           *slog.Logger
}

// NewService creates an enrichment service. auditCmd is the external audit
// binary invoked per site; empty disables audits.
func NewService(store storage.Storage, shots Screenshotter, detector ImageDetector,
	auditCmd string, auditTimeout time.Duration, screenshotDir string, log *slog.Logger) *Service {
	if auditTimeout <= 0 {
		auditTimeout = 2 * time.Minute
	}
	return &Service{
		store:         store,
		shots:         shots,
		detector:      detector,
		auditCmd:      auditCmd,
		auditTimeout:  auditTimeout,
		screenshotDir: screenshotDir,
		timeout:       5 * time.Minute,
		log:           log,
	}
}

// EnrichAsync runs all enrichment steps in a goroutine that may outlive the
// crawl job that triggered it.
func (s *Service) EnrichAsync(site model.Site, resultID int64) {
	go s.enrichOnce(site, resultID)
}

func (s *Service) enrichOnce(site model.Site, resultID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log := s.log.With("site_id", site.ID, "domain", site.Domain, "result_id", resultID)

	if s.shots != nil {
		if path, err := s.captureScreenshot(ctx, site, resultID); err != nil {
			log.Warn("screenshot capture failed", "error", err)
		} else if err := s.merge(ctx, site.ID, resultID, func(res *model.CrawlResult) {
			res.ScreenshotPath = path
		}); err != nil {
			log.Error("merge screenshot", "error", err)
		}
	}

	if s.auditCmd != "" {
		audit, err := runAudit(s.auditCmd, site.URL, s.auditTimeout)
		if err != nil {
			log.Warn("audit failed", "error", err)
		} else {
			bonus := LighthouseBonus(audit.Performance, audit.Accessibility)
			if err := s.merge(ctx, site.ID, resultID, func(res *model.CrawlResult) {
				res.Breakdown.LighthouseBonus = bonus
			}); err != nil {
				log.Error("merge audit bonus", "error", err)
			}
		}
	}

	if s.detector != nil {
		count, err := s.detector.Detect(ctx, site.URL)
		if err != nil {
			log.Warn("ai image detection failed", "error", err)
		} else if count > 0 {
			bonus := AIImageBonus(count)
			if err := s.merge(ctx, site.ID, resultID, func(res *model.CrawlResult) {
				res.Breakdown.AIImageBonus = bonus
			}); err != nil {
				log.Error("merge ai image bonus", "error", err)
			}
		}
	}
}

// Backfill captures the missing screenshot for a site's latest crawl
// result. Invoked by the scheduler's fallback path.
func (s *Service) Backfill(ctx context.Context, site model.Site) {
	if s.shots == nil {
		return
	}
	latest, err := s.store.LatestCrawlResult(ctx, site.ID)
	if err != nil || latest.ScreenshotPath != "" {
		return
	}

	path, err := s.captureScreenshot(ctx, site, latest.ID)
	if err != nil {
		s.log.Warn("backfill screenshot failed", "site_id", site.ID, "error", err)
		return
	}
	if err := s.merge(ctx, site.ID, latest.ID, func(res *model.CrawlResult) {
		res.ScreenshotPath = path
	}); err != nil {
		s.log.Error("merge backfill screenshot", "site_id", site.ID, "error", err)
	}
}

func (s *Service) captureScreenshot(ctx context.Context, site model.Site, resultID int64) (string, error) {
	img, err := s.shots.Screenshot(ctx, site.URL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.screenshotDir, 0o750); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	path := filepath.Join(s.screenshotDir, fmt.Sprintf("%s-%d.png", site.Domain, resultID))
	if err := os.WriteFile(path, img, 0o640); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

// merge re-fetches the result, applies the mutation, recomputes the total
// from the stored raw signals, and persists. Score columns are a cache; the
// recompute keeps them consistent with whatever bonuses have landed so far.
func (s *Service) merge(ctx context.Context, siteID, resultID int64, mutate func(*model.CrawlResult)) error {
	res, err := s.store.GetCrawlResult(ctx, resultID)
	if err != nil {
		return fmt.Errorf("fetch crawl result: %w", err)
	}

	mutate(res)
	res.Breakdown = score.Calculate(score.Input{
		Mentions:        res.Mentions,
		AnimationCount:  res.AnimationCount,
		GlowCount:       res.GlowCount,
		RainbowCount:    res.RainbowCount,
		WordCount:       res.WordCount,
		LighthouseBonus: res.Breakdown.LighthouseBonus,
		AIImageBonus:    res.Breakdown.AIImageBonus,
	})
	if err := s.store.UpdateCrawlResultScores(ctx, res); err != nil {
		return fmt.Errorf("update crawl result: %w", err)
	}

	return s.syncSiteScore(ctx, siteID, res)
}

// syncSiteScore propagates a recomputed total to the site when this result
// is still the site's newest, appending a history row for the change.
func (s *Service) syncSiteScore(ctx context.Context, siteID int64, res *model.CrawlResult) error {
	latest, err := s.store.LatestCrawlResult(ctx, siteID)
	if err != nil || latest.ID != res.ID {
		return nil
	}

	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		return fmt.Errorf("fetch site: %w", err)
	}
	if site.HypeScore == res.Breakdown.Total {
		return nil
	}

	site.HypeScore = res.Breakdown.Total
	if err := s.store.UpdateSite(ctx, site); err != nil {
		return fmt.Errorf("update site score: %w", err)
	}
	entry := &model.ScoreHistory{
		SiteID:        siteID,
		CrawlResultID: res.ID,
		HypeScore:     site.HypeScore,
	}
	if err := s.store.AppendScoreHistory(ctx, entry); err != nil {
		return fmt.Errorf("append score history: %w", err)
	}
	return nil
}
