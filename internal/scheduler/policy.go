package scheduler

import (
	"sort"
	"time"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

// attemptBackoff is the minimum wait after a failed attempt, keyed by
// consecutive failure count. At model.MaxConsecutiveFailures and beyond the
// site is never scheduled.
var attemptBackoff = [model.MaxConsecutiveFailures]time.Duration{
	0,
	1 * time.Hour,
	6 * time.Hour,
	24 * time.Hour,
	72 * time.Hour,
	168 * time.Hour,
}

// Backoff returns the minimum wait before the next attempt for a given
// consecutive failure count. ok is false when the site must not be
// scheduled at all.
func Backoff(failures int) (wait time.Duration, ok bool) {
	if failures < 0 {
		failures = 0
	}
	if failures >= model.MaxConsecutiveFailures {
		return 0, false
	}
	return attemptBackoff[failures], true
}

// Eligible reports whether a site may be crawled at the given instant.
// Both the cooldown and backoff boundaries are inclusive: a site becomes
// eligible exactly when the waiting period has fully elapsed.
func Eligible(site model.Site, now time.Time) bool {
	if !site.IsActive || site.Status == model.StatusCrawling {
		return false
	}

	wait, ok := Backoff(site.ConsecutiveFailures)
	if !ok {
		return false
	}
	if site.LastAttemptedAt != nil && now.Sub(*site.LastAttemptedAt) < wait {
		return false
	}

	if site.LastCrawledAt != nil {
		cooldown := time.Duration(site.CooldownHours) * time.Hour
		if now.Sub(*site.LastCrawledAt) < cooldown {
			return false
		}
	}
	return true
}

// SelectNext returns up to n eligible sites in crawl priority order:
// user-submitted never-crawled sites first, then never-crawled sites from
// any source, then the longest-uncrawled sites, ties broken by id ascending
// so pagination stays stable.
func SelectNext(sites []model.Site, now time.Time, n int) []model.Site {
	var eligible []model.Site
	for _, site := range sites {
		if Eligible(site, now) {
			eligible = append(eligible, site)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		ra, rb := priorityRank(a), priorityRank(b)
		if ra != rb {
			return ra < rb
		}
		if ra == rankRecrawl && !a.LastCrawledAt.Equal(*b.LastCrawledAt) {
			return a.LastCrawledAt.Before(*b.LastCrawledAt)
		}
		return a.ID < b.ID
	})

	if n >= 0 && len(eligible) > n {
		eligible = eligible[:n]
	}
	return eligible
}

const (
	rankUserNew = iota
	rankNew
	rankRecrawl
)

func priorityRank(site model.Site) int {
	switch {
	case site.LastCrawledAt == nil && site.Source == model.SourceUser:
		return rankUserNew
	case site.LastCrawledAt == nil:
		return rankNew
	default:
		return rankRecrawl
	}
}
