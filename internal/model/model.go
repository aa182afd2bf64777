// Package model defines the domain types used across the application.
package model

import "time"

// MaxConsecutiveFailures is the failure count at which a site stops being
// scheduled entirely until an operator re-activates it.
const MaxConsecutiveFailures = 6

// DefaultCooldownHours is the minimum wait after a successful crawl before a
// site becomes eligible again.
const DefaultCooldownHours = 24

// SiteStatus is the lifecycle state of a crawl target.
type SiteStatus string

// Site lifecycle states.
const (
	StatusPending   SiteStatus = "pending"
	StatusQueued    SiteStatus = "queued"
	StatusCrawling  SiteStatus = "crawling"
	StatusCompleted SiteStatus = "completed"
	StatusFailed    SiteStatus = "failed"
)

// Site discovery sources.
const (
	SourceUser      = "user"
	SourceDiscovery = "discovery"
)

// Site represents a crawl target.
type Site struct {
	ID                  int64
	URL                 string
	Domain              string
	Name                string
	Status              SiteStatus
	IsActive            bool
	ConsecutiveFailures int
	LastCrawledAt       *time.Time
	LastAttemptedAt     *time.Time
	CooldownHours       int
	HypeScore           int
	Source              string
	SubmittedBy         *int64
	CreatedAt           time.Time
}

// Mention is one deduplicated occurrence of an AI keyword in visible page
// text, with the display metadata used for scoring.
type Mention struct {
	Text         string `json:"text"`
	FontSizePx   int    `json:"font_size_px"`
	HasAnimation bool   `json:"has_animation"`
	HasGlow      bool   `json:"has_glow"`
	Context      string `json:"context"`
}

// ScoreBreakdown is the full point breakdown of a hype score. Component
// columns are a cache: the total is always reproducible from the raw signals.
type ScoreBreakdown struct {
	DensityScore       float64
	MentionScore       float64
	FontSizeScore      float64
	AnimationScore     float64
	VisualEffectsScore float64
	LighthouseBonus    float64
	AIImageBonus       float64
	Total              int
}

// CrawlResult is one immutable snapshot of a completed crawl attempt.
// Bonus fields may be filled in later by async enrichments, which recompute
// the total from the stored raw signals.
type CrawlResult struct {
	ID             int64
	SiteID         int64
	Breakdown      ScoreBreakdown
	Mentions       []Mention
	AnimationCount int
	GlowCount      int
	RainbowCount   int
	WordCount      int
	PagesCrawled   int
	FinalURL       string
	RedirectChain  []string
	ResponseTimeMs int64
	Tech           []string
	ScreenshotPath string
	CreatedAt      time.Time
}

// ScoreHistory is an append-only record of a hype score change.
type ScoreHistory struct {
	ID            int64
	SiteID        int64
	CrawlResultID int64
	HypeScore     int
	RecordedAt    time.Time
}

// ErrorCategory classifies a crawl failure for operator triage.
type ErrorCategory string

// Crawl error categories.
const (
	ErrTimeout             ErrorCategory = "timeout"
	ErrDNSFailure          ErrorCategory = "dns_failure"
	ErrConnection          ErrorCategory = "connection_error"
	ErrSSL                 ErrorCategory = "ssl_error"
	ErrHTTPClient          ErrorCategory = "http_client_error"
	ErrHTTPServer          ErrorCategory = "http_server_error"
	ErrEmptyResponse       ErrorCategory = "empty_response"
	ErrBlocked             ErrorCategory = "blocked"
	ErrRedirectNonHomepage ErrorCategory = "redirect_to_non_homepage"
	ErrParse               ErrorCategory = "parse_error"
	ErrRobotsBlocked       ErrorCategory = "robots_blocked"
	ErrUnknown             ErrorCategory = "unknown"
)

// IsTransient reports whether retrying the same request could plausibly
// succeed. Permanent and policy failures are recorded without retrying.
func (c ErrorCategory) IsTransient() bool {
	switch c {
	case ErrTimeout, ErrConnection, ErrDNSFailure, ErrHTTPServer, ErrEmptyResponse:
		return true
	default:
		return false
	}
}

// CrawlError is a structured record of a failed crawl attempt.
type CrawlError struct {
	ID        int64
	SiteID    int64
	Category  ErrorCategory
	Message   string
	URL       string
	CreatedAt time.Time
}
