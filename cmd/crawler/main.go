package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/config"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/crawl"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/discover"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/enrich"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/fetcher"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/notify"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/scheduler"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/sites"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	client := &http.Client{Timeout: cfg.FetchTimeout}
	pages := fetcher.New(client, cfg.UserAgent)
	robots := fetcher.NewRobots(client, cfg.UserAgent)

	var renderer *fetcher.Renderer
	if cfg.RenderEnabled {
		renderer = fetcher.NewRenderer(cfg.UserAgent, cfg.JobTimeout, cfg.Workers)
	}

	var shots enrich.Screenshotter
	if renderer != nil {
		shots = renderer
	}
	enricher := enrich.NewService(store, shots, nil,
		cfg.AuditCommand, cfg.AuditTimeout, cfg.ScreenshotDir, log)

	runner := crawl.New(store, pages, log, cfg.MaxPages, cfg.MaxDepth).
		WithRobots(robots).
		WithEnricher(enricher)
	if renderer != nil {
		runner = runner.WithRenderer(renderer)
	}
	if cfg.NotificationsEnabled() {
		sender, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Error("create notifier", "error", err)
			os.Exit(1)
		}
		runner = runner.WithNotifier(sender)
	}

	submitter := sites.NewService(store, log)
	sweeper := discover.NewSweeper(cfg.DiscoveryFeeds, submitter, log)

	sched := scheduler.New(store, runner, enricher, sweeper, log, scheduler.Options{
		Tick:       cfg.Tick,
		BatchSize:  cfg.BatchSize,
		Workers:    cfg.Workers,
		JobTimeout: cfg.JobTimeout,
		Paused:     cfg.Paused,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting crawler", "workers", cfg.Workers, "tick", cfg.Tick.String())

	sched.Run(ctx)

	log.Info("crawler stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
