// Package scheduler decides which site is crawled next and drives the
// worker pool. Selection policy (cooldown, backoff, priority) lives in
// policy.go as pure functions; this file is the stateful loop around them.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/storage"
)

// CrawlRunner executes one site crawl job to completion.
type CrawlRunner interface {
	Crawl(ctx context.Context, site model.Site)
}

// Backfiller fills in missing derived metadata (screenshots) for a site.
type Backfiller interface {
	Backfill(ctx context.Context, site model.Site)
}

// DiscoverySweeper replenishes the crawl pool from external catalogs.
type DiscoverySweeper interface {
	Sweep(ctx context.Context) error
}

// Options configures a Scheduler.
type Options struct {
	Tick       time.Duration
	BatchSize  int
	Workers    int
	JobTimeout time.Duration
	Paused     bool
}

// Scheduler selects eligible sites and dispatches them to crawl workers.
type Scheduler struct {
	store     storage.Storage
	runner    CrawlRunner
	backfill  Backfiller
	discovery DiscoverySweeper
	log       *slog.Logger

	tick       time.Duration
	batchSize  int
	workers    int
	jobTimeout time.Duration

	paused atomic.Bool
	jobs   chan model.Site
}

// New creates a Scheduler. backfill and discovery may be nil, in which case
// the corresponding fallback step is skipped.
func New(store storage.Storage, runner CrawlRunner, backfill Backfiller, discovery DiscoverySweeper, log *slog.Logger, opts Options) *Scheduler {
	if opts.Tick <= 0 {
		opts.Tick = time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 3 * time.Minute
	}

	s := &Scheduler{
		store:      store,
		runner:     runner,
		backfill:   backfill,
		discovery:  discovery,
		log:        log,
		tick:       opts.Tick,
		batchSize:  opts.BatchSize,
		workers:    opts.Workers,
		jobTimeout: opts.JobTimeout,
		jobs:       make(chan model.Site),
	}
	s.paused.Store(opts.Paused)
	return s
}

// SetPaused flips the dispatch guard. A paused scheduler keeps ticking but
// dispatches no jobs.
func (s *Scheduler) SetPaused(paused bool) {
	s.paused.Store(paused)
}

// Paused reports the dispatch guard state.
func (s *Scheduler) Paused() bool {
	return s.paused.Load()
}

// Run starts the worker pool and the selection loop, blocking until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}

	s.tickOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			s.tickOnce(ctx)
		}
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case site := <-s.jobs:
			jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
			s.runner.Crawl(jobCtx, site)
			cancel()
		}
	}
}

func (s *Scheduler) tickOnce(ctx context.Context) {
	if s.paused.Load() {
		s.log.Debug("scheduler paused, skipping tick")
		return
	}

	s.reconcileStuck(ctx)

	candidates, err := s.store.ListCandidateSites(ctx)
	if err != nil {
		s.log.Error("list candidate sites", "error", err)
		return
	}

	selected := SelectNext(candidates, time.Now().UTC(), s.batchSize)
	if len(selected) == 0 {
		s.fallback(ctx)
		return
	}

	for _, site := range selected {
		claimed, err := s.store.MarkCrawling(ctx, site.ID)
		if err != nil {
			s.log.Error("claim site", "site_id", site.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}
		select {
		case s.jobs <- site:
		case <-ctx.Done():
			return
		}
	}
}

// reconcileStuck releases sites left in status=crawling by a crashed or
// timed-out worker. Anything claimed more than twice the job timeout ago is
// reset to pending and charged one failure.
func (s *Scheduler) reconcileStuck(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-2 * s.jobTimeout)
	stuck, err := s.store.ListStuckCrawling(ctx, cutoff)
	if err != nil {
		s.log.Error("list stuck sites", "error", err)
		return
	}

	for _, site := range stuck {
		site.Status = model.StatusPending
		site.ConsecutiveFailures++
		if err := s.store.UpdateSite(ctx, &site); err != nil {
			s.log.Error("reset stuck site", "site_id", site.ID, "error", err)
			continue
		}
		s.log.Warn("reset stuck crawling site",
			"site_id", site.ID, "domain", site.Domain,
			"consecutive_failures", site.ConsecutiveFailures)
	}
}

// fallback runs when no site is eligible: first backfill missing metadata,
// then trigger a discovery sweep to replenish the pool.
func (s *Scheduler) fallback(ctx context.Context) {
	if s.backfill != nil {
		sites, err := s.store.ListBackfillSites(ctx, s.batchSize)
		if err != nil {
			s.log.Error("list backfill sites", "error", err)
		} else if len(sites) > 0 {
			for _, site := range sites {
				site := site
				go func() {
					jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
					defer cancel()
					s.backfill.Backfill(jobCtx, site)
				}()
			}
			return
		}
	}

	if s.discovery != nil {
		if err := s.discovery.Sweep(ctx); err != nil {
			s.log.Error("discovery sweep", "error", err)
		}
	}
}
