package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
	"github.com/darinlarimore/most-ai-mentions-sub000/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: serializes writers, and keeps :memory: databases from
	// evaporating when the pool opens a second connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateSite inserts a new site and populates its ID and CreatedAt.
func (s *SQLite) CreateSite(ctx context.Context, site *model.Site) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sites (url, domain, name, status, is_active, consecutive_failures,
		                    last_crawled_at, last_attempted_at, cooldown_hours, hype_score,
		                    source, submitted_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		site.URL, site.Domain, site.Name, string(site.Status), boolToInt(site.IsActive),
		site.ConsecutiveFailures, formatTimePtr(site.LastCrawledAt),
		formatTimePtr(site.LastAttemptedAt), site.CooldownHours, site.HypeScore,
		site.Source, site.SubmittedBy, now,
	)
	if err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	site.ID = id
	site.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

const siteColumns = `id, url, domain, name, status, is_active, consecutive_failures,
	last_crawled_at, last_attempted_at, cooldown_hours, hype_score, source, submitted_by, created_at`

// GetSite returns a single site by its ID.
func (s *SQLite) GetSite(ctx context.Context, id int64) (*model.Site, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = ?`, id)
	return scanSite(row)
}

// GetSiteByDomain returns the site registered for a canonical domain.
func (s *SQLite) GetSiteByDomain(ctx context.Context, domain string) (*model.Site, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE domain = ?`, domain)
	return scanSite(row)
}

// UpdateSite persists changes to an existing site.
func (s *SQLite) UpdateSite(ctx context.Context, site *model.Site) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sites SET url = ?, domain = ?, name = ?, status = ?, is_active = ?,
		        consecutive_failures = ?, last_crawled_at = ?, last_attempted_at = ?,
		        cooldown_hours = ?, hype_score = ?, source = ?, submitted_by = ?
		 WHERE id = ?`,
		site.URL, site.Domain, site.Name, string(site.Status), boolToInt(site.IsActive),
		site.ConsecutiveFailures, formatTimePtr(site.LastCrawledAt),
		formatTimePtr(site.LastAttemptedAt), site.CooldownHours, site.HypeScore,
		site.Source, site.SubmittedBy, site.ID,
	)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	return nil
}

// DeleteSite removes a site and everything it owns.
func (s *SQLite) DeleteSite(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM score_history WHERE site_id = ?`, id); err != nil {
		return fmt.Errorf("delete score_history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM crawl_errors WHERE site_id = ?`, id); err != nil {
		return fmt.Errorf("delete crawl_errors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM crawl_results WHERE site_id = ?`, id); err != nil {
		return fmt.Errorf("delete crawl_results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	return tx.Commit()
}

// ListCandidateSites returns active, schedulable, unclaimed sites.
func (s *SQLite) ListCandidateSites(ctx context.Context) ([]model.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites
		 WHERE is_active = 1
		   AND consecutive_failures < ?
		   AND status != ?
		 ORDER BY id`,
		model.MaxConsecutiveFailures, string(model.StatusCrawling),
	)
	if err != nil {
		return nil, fmt.Errorf("query candidate sites: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSites(rows)
}

// ListStuckCrawling returns sites claimed before cutoff and never released.
func (s *SQLite) ListStuckCrawling(ctx context.Context, cutoff time.Time) ([]model.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites
		 WHERE status = ?
		   AND (last_attempted_at IS NULL OR last_attempted_at < ?)
		 ORDER BY id`,
		string(model.StatusCrawling), cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query stuck sites: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSites(rows)
}

// ListBackfillSites returns completed sites whose latest crawl result lacks
// a screenshot.
func (s *SQLite) ListBackfillSites(ctx context.Context, limit int) ([]model.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites
		 WHERE status = ?
		   AND id IN (
		       SELECT site_id FROM crawl_results cr
		       WHERE cr.id = (SELECT MAX(id) FROM crawl_results WHERE site_id = cr.site_id)
		         AND cr.screenshot_path = ''
		   )
		 ORDER BY last_crawled_at ASC
		 LIMIT ?`,
		string(model.StatusCompleted), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query backfill sites: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSites(rows)
}

// MarkCrawling claims a site for crawling. The WHERE clause is the
// optimistic per-site lock: a site already in crawling cannot be claimed.
func (s *SQLite) MarkCrawling(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sites SET status = ?, last_attempted_at = ?
		 WHERE id = ? AND status != ?`,
		string(model.StatusCrawling), time.Now().UTC().Format(timeLayout),
		id, string(model.StatusCrawling),
	)
	if err != nil {
		return false, fmt.Errorf("mark crawling: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(timeLayout)
	return &v
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSite(row scannable) (*model.Site, error) {
	var site model.Site
	var status string
	var isActive int
	var lastCrawled, lastAttempted, created sql.NullString
	var submittedBy sql.NullInt64
	err := row.Scan(&site.ID, &site.URL, &site.Domain, &site.Name, &status, &isActive,
		&site.ConsecutiveFailures, &lastCrawled, &lastAttempted, &site.CooldownHours,
		&site.HypeScore, &site.Source, &submittedBy, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan site: %w", err)
	}
	site.Status = model.SiteStatus(status)
	site.IsActive = isActive == 1
	site.LastCrawledAt = parseTimePtr(lastCrawled)
	site.LastAttemptedAt = parseTimePtr(lastAttempted)
	if submittedBy.Valid {
		site.SubmittedBy = &submittedBy.Int64
	}
	if created.Valid {
		site.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &site, nil
}

func scanSites(rows *sql.Rows) ([]model.Site, error) {
	var sites []model.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}
