package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgnsrekt/share_explorer/internal/api"
	"github.com/dgnsrekt/share_explorer/internal/backend"
	"github.com/dgnsrekt/share_explorer/internal/chart"
	"github.com/dgnsrekt/share_explorer/internal/config"
	"github.com/dgnsrekt/share_explorer/internal/controller"
	"github.com/dgnsrekt/share_explorer/internal/explorer"
	"github.com/dgnsrekt/share_explorer/internal/netutil"
	"github.com/dgnsrekt/share_explorer/internal/relay"
	"github.com/dgnsrekt/share_explorer/internal/snapshot"
	"github.com/dgnsrekt/share_explorer/internal/storage"
	"github.com/dgnsrekt/share_explorer/internal/web"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load explorer config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("explorer config loaded",
		"bind_addr", cfg.BindAddr,
		"api_base_url", cfg.APIBaseURL,
		"api_timeout_ms", cfg.APITimeoutMS,
		"default_limit", cfg.DefaultLimit,
		"max_limit", cfg.MaxLimit,
		"locale", cfg.Locale,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"snapshot_dir", cfg.SnapshotDir,
		"history_dir", cfg.HistoryDir,
		"session_idle_timeout", cfg.SessionIdleTimeout,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	palette := chart.DefaultPalette
	chartHeight := cfg.ChartHeight
	if cfg.ThemeFile != "" {
		theme, err := config.LoadTheme(cfg.ThemeFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Warn("theme config not found, using defaults", "path", cfg.ThemeFile)
		case err != nil:
			slog.Error("failed to load theme config", "path", cfg.ThemeFile, "error", err)
			os.Exit(1)
		default:
			palette = palette.WithOverrides(theme.Colors)
			if theme.ChartHeight > 0 {
				chartHeight = theme.ChartHeight
			}
			slog.Info("theme config loaded", "path", cfg.ThemeFile, "colors", len(theme.Colors), "chart_height", chartHeight)
		}
	}

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	snaps, err := snapshot.NewStore(cfg.SnapshotDir)
	if err != nil {
		slog.Error("failed to open snapshot store", "dir", cfg.SnapshotDir, "error", err)
		os.Exit(1)
	}

	client := backend.NewClient(cfg.APIBaseURL, cfg.APITimeout())
	broker := relay.NewBroker()
	rel := relay.NewRelay(broker, palette)
	defer rel.Stop()

	opts := controller.Options{
		Limit:       cfg.DefaultLimit,
		MaxLimit:    cfg.MaxLimit,
		ChartHeight: chartHeight,
		Palette:     palette,
		Messages:    explorer.MessagesFor(cfg.Locale),
		IdleTimeout: cfg.SessionIdleTimeout,
	}
	if cfg.HistoryDir != "" {
		history := storage.NewRunLog(cfg.HistoryDir, 256, cfg.HistoryMaxSizeMB)
		defer func() {
			if err := history.Close(); err != nil {
				slog.Warn("run log close failed", "error", err)
			}
		}()
		opts.History = history
	}

	svc := controller.NewService(client, snaps, rel, opts)
	defer svc.Close()

	pages := web.New(svc, broker, cfg.Locale, chartHeight)
	h := api.NewServer(svc, broker, pages.Routes)

	srv := &http.Server{Addr: bindAddr, Handler: h}
	// Event streams only end when their session is detached; Shutdown would
	// otherwise wait on them until its deadline.
	srv.RegisterOnShutdown(rel.Stop)

	go func() {
		slog.Info("explorer listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs", "dashboard", "http://"+bindAddr+"/s/<token>")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("explorer server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("explorer shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
