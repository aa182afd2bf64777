package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

const resultColumns = `id, site_id, total_score, density_score, mention_score, font_size_score,
	animation_score, visual_effects_score, lighthouse_bonus, ai_image_bonus, mentions,
	animation_count, glow_count, rainbow_count, word_count, pages_crawled, final_url,
	redirect_chain, response_time_ms, tech, screenshot_path, created_at`

// CreateCrawlResult inserts a new crawl snapshot and populates its ID.
func (s *SQLite) CreateCrawlResult(ctx context.Context, res *model.CrawlResult) error {
	now := time.Now().UTC().Format(timeLayout)
	b := res.Breakdown
	r, err := s.db.ExecContext(ctx,
		`INSERT INTO crawl_results (site_id, total_score, density_score, mention_score,
		        font_size_score, animation_score, visual_effects_score, lighthouse_bonus,
		        ai_image_bonus, mentions, animation_count, glow_count, rainbow_count,
		        word_count, pages_crawled, final_url, redirect_chain, response_time_ms,
		        tech, screenshot_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.SiteID, b.Total, b.DensityScore, b.MentionScore, b.FontSizeScore,
		b.AnimationScore, b.VisualEffectsScore, b.LighthouseBonus, b.AIImageBonus,
		marshalJSON(res.Mentions), res.AnimationCount, res.GlowCount, res.RainbowCount,
		res.WordCount, res.PagesCrawled, res.FinalURL, marshalJSON(res.RedirectChain),
		res.ResponseTimeMs, marshalJSON(res.Tech), res.ScreenshotPath, now,
	)
	if err != nil {
		return fmt.Errorf("insert crawl result: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	res.ID = id
	res.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetCrawlResult returns a single crawl result by its ID.
func (s *SQLite) GetCrawlResult(ctx context.Context, id int64) (*model.CrawlResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM crawl_results WHERE id = ?`, id)
	return scanCrawlResult(row)
}

// LatestCrawlResult returns the newest crawl result for a site.
func (s *SQLite) LatestCrawlResult(ctx context.Context, siteID int64) (*model.CrawlResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM crawl_results
		 WHERE site_id = ? ORDER BY id DESC LIMIT 1`, siteID)
	return scanCrawlResult(row)
}

// ListCrawlResults returns every stored crawl result, oldest first.
func (s *SQLite) ListCrawlResults(ctx context.Context) ([]model.CrawlResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM crawl_results ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query crawl results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.CrawlResult
	for rows.Next() {
		res, err := scanCrawlResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// UpdateCrawlResultScores rewrites the score and enrichment columns only.
func (s *SQLite) UpdateCrawlResultScores(ctx context.Context, res *model.CrawlResult) error {
	b := res.Breakdown
	_, err := s.db.ExecContext(ctx,
		`UPDATE crawl_results SET total_score = ?, density_score = ?, mention_score = ?,
		        font_size_score = ?, animation_score = ?, visual_effects_score = ?,
		        lighthouse_bonus = ?, ai_image_bonus = ?, screenshot_path = ?
		 WHERE id = ?`,
		b.Total, b.DensityScore, b.MentionScore, b.FontSizeScore, b.AnimationScore,
		b.VisualEffectsScore, b.LighthouseBonus, b.AIImageBonus, res.ScreenshotPath, res.ID,
	)
	if err != nil {
		return fmt.Errorf("update crawl result scores: %w", err)
	}
	return nil
}

// AppendScoreHistory records a hype score change.
func (s *SQLite) AppendScoreHistory(ctx context.Context, entry *model.ScoreHistory) error {
	now := time.Now().UTC().Format(timeLayout)
	r, err := s.db.ExecContext(ctx,
		`INSERT INTO score_history (site_id, crawl_result_id, hype_score, recorded_at)
		 VALUES (?, ?, ?, ?)`,
		entry.SiteID, entry.CrawlResultID, entry.HypeScore, now,
	)
	if err != nil {
		return fmt.Errorf("insert score history: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	entry.RecordedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListScoreHistory returns a site's score timeline, oldest first.
func (s *SQLite) ListScoreHistory(ctx context.Context, siteID int64) ([]model.ScoreHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site_id, crawl_result_id, hype_score, recorded_at
		 FROM score_history WHERE site_id = ? ORDER BY id`, siteID)
	if err != nil {
		return nil, fmt.Errorf("query score history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ScoreHistory
	for rows.Next() {
		var e model.ScoreHistory
		var recorded string
		if err := rows.Scan(&e.ID, &e.SiteID, &e.CrawlResultID, &e.HypeScore, &recorded); err != nil {
			return nil, fmt.Errorf("scan score history: %w", err)
		}
		e.RecordedAt, _ = time.Parse(timeLayout, recorded)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordCrawlError stores a categorized crawl failure.
func (s *SQLite) RecordCrawlError(ctx context.Context, ce *model.CrawlError) error {
	now := time.Now().UTC().Format(timeLayout)
	r, err := s.db.ExecContext(ctx,
		`INSERT INTO crawl_errors (site_id, category, message, url, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ce.SiteID, string(ce.Category), ce.Message, ce.URL, now,
	)
	if err != nil {
		return fmt.Errorf("insert crawl error: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	ce.ID = id
	ce.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListCrawlErrors returns a site's most recent crawl failures.
func (s *SQLite) ListCrawlErrors(ctx context.Context, siteID int64, limit int) ([]model.CrawlError, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site_id, category, message, url, created_at
		 FROM crawl_errors WHERE site_id = ? ORDER BY id DESC LIMIT ?`, siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("query crawl errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CrawlError
	for rows.Next() {
		var ce model.CrawlError
		var category, created string
		if err := rows.Scan(&ce.ID, &ce.SiteID, &category, &ce.Message, &ce.URL, &created); err != nil {
			return nil, fmt.Errorf("scan crawl error: %w", err)
		}
		ce.Category = model.ErrorCategory(category)
		ce.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, ce)
	}
	return out, rows.Err()
}

// IsDomainBlocked checks the domain blocklist.
func (s *SQLite) IsDomainBlocked(ctx context.Context, domain string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blocked_domains WHERE domain = ?`, domain).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check blocklist: %w", err)
	}
	return count > 0, nil
}

// BlockDomain adds a domain to the blocklist.
func (s *SQLite) BlockDomain(ctx context.Context, domain, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO blocked_domains (domain, reason, created_at) VALUES (?, ?, ?)`,
		domain, reason, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("block domain: %w", err)
	}
	return nil
}

func scanCrawlResult(row scannable) (*model.CrawlResult, error) {
	var res model.CrawlResult
	var mentions, chain, tech, created string
	b := &res.Breakdown
	err := row.Scan(&res.ID, &res.SiteID, &b.Total, &b.DensityScore, &b.MentionScore,
		&b.FontSizeScore, &b.AnimationScore, &b.VisualEffectsScore, &b.LighthouseBonus,
		&b.AIImageBonus, &mentions, &res.AnimationCount, &res.GlowCount, &res.RainbowCount,
		&res.WordCount, &res.PagesCrawled, &res.FinalURL, &chain, &res.ResponseTimeMs,
		&tech, &res.ScreenshotPath, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan crawl result: %w", err)
	}
	if err := json.Unmarshal([]byte(mentions), &res.Mentions); err != nil {
		return nil, fmt.Errorf("decode mentions: %w", err)
	}
	if err := json.Unmarshal([]byte(chain), &res.RedirectChain); err != nil {
		return nil, fmt.Errorf("decode redirect chain: %w", err)
	}
	if err := json.Unmarshal([]byte(tech), &res.Tech); err != nil {
		return nil, fmt.Errorf("decode tech: %w", err)
	}
	res.CreatedAt, _ = time.Parse(timeLayout, created)
	return &res, nil
}
