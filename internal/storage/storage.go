// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateSite(ctx context.Context, site *model.Site) error
	GetSite(ctx context.Context, id int64) (*model.Site, error)
	GetSiteByDomain(ctx context.Context, domain string) (*model.Site, error)
	UpdateSite(ctx context.Context, site *model.Site) error
	DeleteSite(ctx context.Context, id int64) error

	// ListCandidateSites returns active sites below the failure cap that are
	// not currently being crawled. Cooldown, backoff, and priority are
	// applied by the scheduler.
	ListCandidateSites(ctx context.Context) ([]model.Site, error)

	// ListStuckCrawling returns sites that have sat in status=crawling since
	// before the given cutoff, for the reconciliation sweep.
	ListStuckCrawling(ctx context.Context, cutoff time.Time) ([]model.Site, error)

	// ListBackfillSites returns completed sites whose latest crawl result is
	// missing a screenshot, oldest first.
	ListBackfillSites(ctx context.Context, limit int) ([]model.Site, error)

	// MarkCrawling atomically claims a site for crawling. It returns false
	// when the site is already claimed.
	MarkCrawling(ctx context.Context, id int64) (bool, error)

	CreateCrawlResult(ctx context.Context, res *model.CrawlResult) error
	GetCrawlResult(ctx context.Context, id int64) (*model.CrawlResult, error)
	LatestCrawlResult(ctx context.Context, siteID int64) (*model.CrawlResult, error)
	ListCrawlResults(ctx context.Context) ([]model.CrawlResult, error)

	// UpdateCrawlResultScores rewrites the breakdown, bonus, and screenshot
	// columns of an existing result; the raw signal columns stay immutable.
	UpdateCrawlResultScores(ctx context.Context, res *model.CrawlResult) error

	AppendScoreHistory(ctx context.Context, entry *model.ScoreHistory) error
	ListScoreHistory(ctx context.Context, siteID int64) ([]model.ScoreHistory, error)

	RecordCrawlError(ctx context.Context, ce *model.CrawlError) error
	ListCrawlErrors(ctx context.Context, siteID int64, limit int) ([]model.CrawlError, error)

	IsDomainBlocked(ctx context.Context, domain string) (bool, error)
	BlockDomain(ctx context.Context, domain, reason string) error

	Close() error
}
