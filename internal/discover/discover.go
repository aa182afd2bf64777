// Package discover replenishes the crawl pool from external catalog feeds.
// Each configured feed is an RSS/Atom listing of candidate sites; every
// entry is pushed through the normal submission path, so blocklist and
// dedup rules still apply.
package discover

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmcdole/gofeed"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/sites"
)

// Submitter is the slice of the submission service the sweeper needs.
type Submitter interface {
	Submit(ctx context.Context, rawURL, source string, submittedBy *int64) (*model.Site, error)
}

// Sweeper pulls candidate sites out of catalog feeds.
type Sweeper struct {
	feeds     []string
	submitter Submitter
	parser    *gofeed.Parser
	log       *slog.Logger
}

// NewSweeper creates a Sweeper over the given feed URLs.
func NewSweeper(feeds []string, submitter Submitter, log *slog.Logger) *Sweeper {
	return &Sweeper{
		feeds:     feeds,
		submitter: submitter,
		parser:    gofeed.NewParser(),
		log:       log,
	}
}

// Sweep parses every configured feed and submits each entry's link as a
// discovery-sourced site. Duplicates and blocked domains are skipped
// quietly; feed-level failures are logged and do not stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if len(s.feeds) == 0 {
		return nil
	}

	added := 0
	for _, feedURL := range s.feeds {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			s.log.Error("parse catalog feed", "feed", feedURL, "error", err)
			continue
		}

		for _, item := range feed.Items {
			if item.Link == "" {
				continue
			}
			_, err := s.submitter.Submit(ctx, item.Link, model.SourceDiscovery, nil)
			switch {
			case err == nil:
				added++
			case errors.Is(err, sites.ErrAlreadySubmitted), errors.Is(err, sites.ErrDomainBlocked):
				// Expected on repeat sweeps.
			default:
				s.log.Debug("skip discovered site", "url", item.Link, "error", err)
			}
		}
	}

	if added > 0 {
		s.log.Info("discovery sweep added sites", "count", added)
	}
	return nil
}
