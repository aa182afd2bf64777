package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSite(domain string) *model.Site {
	return &model.Site{
		URL:           "https://" + domain,
		Domain:        domain,
		Name:          domain,
		Status:        model.StatusQueued,
		IsActive:      true,
		CooldownHours: model.DefaultCooldownHours,
		Source:        model.SourceUser,
	}
}

func mustCreateSite(t *testing.T, s *SQLite, site *model.Site) *model.Site {
	t.Helper()
	if err := s.CreateSite(context.Background(), site); err != nil {
		t.Fatalf("create site: %v", err)
	}
	return site
}

func TestSiteRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lastCrawled := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	site := newSite("site.example")
	site.Status = model.StatusCompleted
	site.HypeScore = 120
	site.LastCrawledAt = &lastCrawled
	mustCreateSite(t, s, site)

	if site.ID == 0 {
		t.Fatal("CreateSite did not populate ID")
	}

	got, err := s.GetSite(ctx, site.ID)
	if err != nil {
		t.Fatalf("GetSite: %v", err)
	}
	if diff := cmp.Diff(site, got); diff != "" {
		t.Errorf("site roundtrip mismatch (-want +got):\n%s", diff)
	}

	byDomain, err := s.GetSiteByDomain(ctx, "site.example")
	if err != nil {
		t.Fatalf("GetSiteByDomain: %v", err)
	}
	if byDomain.ID != site.ID {
		t.Errorf("GetSiteByDomain id = %d, want %d", byDomain.ID, site.ID)
	}
}

func TestGetSiteNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetSite(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSite(999) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetSiteByDomain(context.Background(), "nope.example"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSiteByDomain error = %v, want ErrNotFound", err)
	}
}

func TestUpdateSite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	site := mustCreateSite(t, s, newSite("site.example"))

	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	site.Status = model.StatusFailed
	site.ConsecutiveFailures = 3
	site.LastAttemptedAt = &now
	site.HypeScore = 77
	if err := s.UpdateSite(ctx, site); err != nil {
		t.Fatalf("UpdateSite: %v", err)
	}

	got, err := s.GetSite(ctx, site.ID)
	if err != nil {
		t.Fatalf("GetSite: %v", err)
	}
	if diff := cmp.Diff(site, got); diff != "" {
		t.Errorf("updated site mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateDomainRejected(t *testing.T) {
	s := newTestStore(t)
	mustCreateSite(t, s, newSite("site.example"))

	if err := s.CreateSite(context.Background(), newSite("site.example")); err == nil {
		t.Error("second CreateSite with same domain succeeded, want unique violation")
	}
}

func TestMarkCrawlingClaimsOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	site := mustCreateSite(t, s, newSite("site.example"))

	ok, err := s.MarkCrawling(ctx, site.ID)
	if err != nil || !ok {
		t.Fatalf("first MarkCrawling = (%v, %v), want claim", ok, err)
	}

	ok, err = s.MarkCrawling(ctx, site.ID)
	if err != nil {
		t.Fatalf("second MarkCrawling: %v", err)
	}
	if ok {
		t.Error("second MarkCrawling claimed an already-claimed site")
	}

	got, err := s.GetSite(ctx, site.ID)
	if err != nil {
		t.Fatalf("GetSite: %v", err)
	}
	if got.Status != model.StatusCrawling || got.LastAttemptedAt == nil {
		t.Errorf("claimed site = %+v, want crawling with last_attempted_at", got)
	}
}

func TestListCandidateSites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	good := mustCreateSite(t, s, newSite("good.example"))

	inactive := newSite("inactive.example")
	inactive.IsActive = false
	mustCreateSite(t, s, inactive)

	maxedOut := newSite("maxed.example")
	maxedOut.ConsecutiveFailures = model.MaxConsecutiveFailures
	mustCreateSite(t, s, maxedOut)

	claimed := mustCreateSite(t, s, newSite("claimed.example"))
	if _, err := s.MarkCrawling(ctx, claimed.ID); err != nil {
		t.Fatalf("MarkCrawling: %v", err)
	}

	got, err := s.ListCandidateSites(ctx)
	if err != nil {
		t.Fatalf("ListCandidateSites: %v", err)
	}
	if len(got) != 1 || got[0].ID != good.ID {
		t.Errorf("candidates = %+v, want only %q", got, good.Domain)
	}
}

func TestListStuckCrawling(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stale := time.Now().UTC().Add(-time.Hour)
	stuck := newSite("stuck.example")
	stuck.Status = model.StatusCrawling
	stuck.LastAttemptedAt = &stale
	mustCreateSite(t, s, stuck)

	fresh := mustCreateSite(t, s, newSite("fresh.example"))
	if _, err := s.MarkCrawling(ctx, fresh.ID); err != nil {
		t.Fatalf("MarkCrawling: %v", err)
	}

	got, err := s.ListStuckCrawling(ctx, time.Now().UTC().Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("ListStuckCrawling: %v", err)
	}
	if len(got) != 1 || got[0].Domain != "stuck.example" {
		t.Errorf("stuck = %+v, want only stuck.example", got)
	}
}

func newResult(siteID int64) *model.CrawlResult {
	return &model.CrawlResult{
		SiteID: siteID,
		Breakdown: model.ScoreBreakdown{
			DensityScore:  250,
			MentionScore:  45,
			FontSizeScore: 30,
			Total:         325,
		},
		Mentions: []model.Mention{
			{Text: "AI-powered", FontSizePx: 36, HasAnimation: true, Context: "the AI-powered future"},
		},
		AnimationCount: 2,
		GlowCount:      1,
		WordCount:      480,
		PagesCrawled:   3,
		FinalURL:       "https://site.example/",
		RedirectChain:  []string{"https://site.example/", "https://www.site.example/"},
		ResponseTimeMs: 211,
		Tech:           []string{"nextjs"},
	}
}

func TestCrawlResultRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	site := mustCreateSite(t, s, newSite("site.example"))

	res := newResult(site.ID)
	if err := s.CreateCrawlResult(ctx, res); err != nil {
		t.Fatalf("CreateCrawlResult: %v", err)
	}
	if res.ID == 0 {
		t.Fatal("CreateCrawlResult did not populate ID")
	}

	got, err := s.GetCrawlResult(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetCrawlResult: %v", err)
	}
	if diff := cmp.Diff(res, got); diff != "" {
		t.Errorf("crawl result roundtrip mismatch (-want +got):\n%s", diff)
	}
}

func TestLatestCrawlResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	site := mustCreateSite(t, s, newSite("site.example"))

	first := newResult(site.ID)
	if err := s.CreateCrawlResult(ctx, first); err != nil {
		t.Fatalf("CreateCrawlResult: %v", err)
	}
	second := newResult(site.ID)
	second.Breakdown.Total = 500
	if err := s.CreateCrawlResult(ctx, second); err != nil {
		t.Fatalf("CreateCrawlResult: %v", err)
	}

	got, err := s.LatestCrawlResult(ctx, site.ID)
	if err != nil {
		t.Fatalf("LatestCrawlResult: %v", err)
	}
	if got.ID != second.ID || got.Breakdown.Total != 500 {
		t.Errorf("latest = %+v, want id %d total 500", got, second.ID)
	}
}

func TestUpdateCrawlResultScores(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	site := mustCreateSite(t, s, newSite("site.example"))

	res := newResult(site.ID)
	if err := s.CreateCrawlResult(ctx, res); err != nil {
		t.Fatalf("CreateCrawlResult: %v", err)
	}

	res.Breakdown.LighthouseBonus = 37.5
	res.Breakdown.Total = 363
	res.ScreenshotPath = "/shots/site.example.png"
	if err := s.UpdateCrawlResultScores(ctx, res); err != nil {
		t.Fatalf("UpdateCrawlResultScores: %v", err)
	}

	got, err := s.GetCrawlResult(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetCrawlResult: %v", err)
	}
	if got.Breakdown.LighthouseBonus != 37.5 || got.Breakdown.Total != 363 {
		t.Errorf("breakdown after update = %+v", got.Breakdown)
	}
	if got.ScreenshotPath != "/shots/site.example.png" {
		t.Errorf("screenshot path = %q", got.ScreenshotPath)
	}
	// Raw signal columns stay as written by the crawl.
	if got.WordCount != 480 || len(got.Mentions) != 1 {
		t.Errorf("raw signals changed: %+v", got)
	}
}

func TestScoreHistoryOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	site := mustCreateSite(t, s, newSite("site.example"))

	for _, score := range []int{10, 250, 90} {
		entry := &model.ScoreHistory{SiteID: site.ID, CrawlResultID: 1, HypeScore: score}
		if err := s.AppendScoreHistory(ctx, entry); err != nil {
			t.Fatalf("AppendScoreHistory: %v", err)
		}
	}

	got, err := s.ListScoreHistory(ctx, site.ID)
	if err != nil {
		t.Fatalf("ListScoreHistory: %v", err)
	}
	var scores []int
	for _, e := range got {
		scores = append(scores, e.HypeScore)
	}
	if diff := cmp.Diff([]int{10, 250, 90}, scores); diff != "" {
		t.Errorf("history order mismatch (-want +got):\n%s", diff)
	}
}

func TestCrawlErrorsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	site := mustCreateSite(t, s, newSite("site.example"))

	for _, cat := range []model.ErrorCategory{model.ErrTimeout, model.ErrDNSFailure, model.ErrBlocked} {
		ce := &model.CrawlError{SiteID: site.ID, Category: cat, Message: string(cat), URL: site.URL}
		if err := s.RecordCrawlError(ctx, ce); err != nil {
			t.Fatalf("RecordCrawlError: %v", err)
		}
	}

	got, err := s.ListCrawlErrors(ctx, site.ID, 2)
	if err != nil {
		t.Fatalf("ListCrawlErrors: %v", err)
	}
	if len(got) != 2 || got[0].Category != model.ErrBlocked || got[1].Category != model.ErrDNSFailure {
		t.Errorf("errors = %+v, want two newest first", got)
	}
}

func TestDeleteSiteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	site := mustCreateSite(t, s, newSite("site.example"))

	res := newResult(site.ID)
	if err := s.CreateCrawlResult(ctx, res); err != nil {
		t.Fatalf("CreateCrawlResult: %v", err)
	}
	entry := &model.ScoreHistory{SiteID: site.ID, CrawlResultID: res.ID, HypeScore: 325}
	if err := s.AppendScoreHistory(ctx, entry); err != nil {
		t.Fatalf("AppendScoreHistory: %v", err)
	}
	ce := &model.CrawlError{SiteID: site.ID, Category: model.ErrTimeout, Message: "timed out", URL: site.URL}
	if err := s.RecordCrawlError(ctx, ce); err != nil {
		t.Fatalf("RecordCrawlError: %v", err)
	}

	if err := s.DeleteSite(ctx, site.ID); err != nil {
		t.Fatalf("DeleteSite: %v", err)
	}

	if _, err := s.GetSite(ctx, site.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSite after delete = %v, want ErrNotFound", err)
	}
	if _, err := s.LatestCrawlResult(ctx, site.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestCrawlResult after delete = %v, want ErrNotFound", err)
	}
	history, err := s.ListScoreHistory(ctx, site.ID)
	if err != nil || len(history) != 0 {
		t.Errorf("history after delete = (%v, %v), want empty", history, err)
	}
	errs, err := s.ListCrawlErrors(ctx, site.ID, 10)
	if err != nil || len(errs) != 0 {
		t.Errorf("crawl errors after delete = (%v, %v), want empty", errs, err)
	}
}

func TestListBackfillSites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	needsShot := newSite("bare.example")
	needsShot.Status = model.StatusCompleted
	mustCreateSite(t, s, needsShot)
	if err := s.CreateCrawlResult(ctx, newResult(needsShot.ID)); err != nil {
		t.Fatalf("CreateCrawlResult: %v", err)
	}

	hasShot := newSite("shot.example")
	hasShot.Status = model.StatusCompleted
	mustCreateSite(t, s, hasShot)
	res := newResult(hasShot.ID)
	res.ScreenshotPath = "/shots/shot.example.png"
	if err := s.CreateCrawlResult(ctx, res); err != nil {
		t.Fatalf("CreateCrawlResult: %v", err)
	}

	got, err := s.ListBackfillSites(ctx, 10)
	if err != nil {
		t.Fatalf("ListBackfillSites: %v", err)
	}
	if len(got) != 1 || got[0].ID != needsShot.ID {
		t.Errorf("backfill = %+v, want only bare.example", got)
	}
}

func TestBlocklist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	blocked, err := s.IsDomainBlocked(ctx, "spam.example")
	if err != nil || blocked {
		t.Fatalf("IsDomainBlocked before block = (%v, %v)", blocked, err)
	}

	if err := s.BlockDomain(ctx, "spam.example", "link farm"); err != nil {
		t.Fatalf("BlockDomain: %v", err)
	}
	if err := s.BlockDomain(ctx, "spam.example", "again"); err != nil {
		t.Errorf("repeat BlockDomain: %v", err)
	}

	blocked, err = s.IsDomainBlocked(ctx, "spam.example")
	if err != nil || !blocked {
		t.Errorf("IsDomainBlocked after block = (%v, %v), want true", blocked, err)
	}
}
