// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	LogLevel     string
	UserAgent    string

	// Scheduler.
	Tick      time.Duration
	BatchSize int
	Workers   int
	Paused    bool

	// Crawl budgets.
	MaxPages     int
	MaxDepth     int
	JobTimeout   time.Duration
	FetchTimeout time.Duration

	// Headless rendering and enrichment.
	RenderEnabled bool
	ScreenshotDir string
	AuditCommand  string
	AuditTimeout  time.Duration

	// Discovery catalog feeds, checked when the crawl pool runs dry.
	DiscoveryFeeds []string

	// Operator notifications (optional; disabled when token is empty).
	TelegramBotToken string
	TelegramChatID   int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:  envOr("DATABASE_PATH", "./data/hype.db"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		UserAgent:     envOr("CRAWL_USER_AGENT", "MostAIMentionsBot/1.0"),
		ScreenshotDir: envOr("SCREENSHOT_DIR", "./data/screenshots"),
		AuditCommand:  os.Getenv("AUDIT_COMMAND"),
	}

	var err error
	if cfg.Tick, err = durationOr("SCHEDULER_TICK", time.Minute); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = intOr("SCHEDULER_BATCH", 5); err != nil {
		return nil, err
	}
	if cfg.Workers, err = intOr("CRAWL_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = intOr("CRAWL_MAX_PAGES", 5); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = intOr("CRAWL_MAX_DEPTH", 1); err != nil {
		return nil, err
	}
	if cfg.JobTimeout, err = durationOr("CRAWL_JOB_TIMEOUT", 3*time.Minute); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = durationOr("CRAWL_FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.AuditTimeout, err = durationOr("AUDIT_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}

	cfg.Paused = boolEnv("SCHEDULER_PAUSED")
	cfg.RenderEnabled = boolEnv("HEADLESS_RENDER")

	if raw := os.Getenv("DISCOVERY_FEEDS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.DiscoveryFeeds = append(cfg.DiscoveryFeeds, s)
			}
		}
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, perr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, perr)
		}
		cfg.TelegramChatID = id
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	return cfg, nil
}

// NotificationsEnabled reports whether a Telegram sender should be created.
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramBotToken != ""
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func boolEnv(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
