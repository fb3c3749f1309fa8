// Command retentiond runs the track-history retention loop: old histories
// are compacted down to their first and merged-last state, and older ones
// are archived to ClickHouse (when configured) and deleted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aircraft_db/internal/archive"
	"aircraft_db/internal/clock"
	"aircraft_db/internal/config"
	"aircraft_db/internal/trackhistory"
)

func main() {
	configPath := flag.String("config", "retentiond.yaml", "Path to the YAML configuration file")
	once := flag.Bool("once", false, "Run a single retention pass and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := run(*configPath, *once, log); err != nil {
		fmt.Fprintf(os.Stderr, "retentiond: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, once bool, log *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink trackhistory.ArchiveSink
	if cfg.Archive.Enabled {
		ch, err := archive.OpenClickHouse(ctx, cfg.Archive.ClickHouse())
		if err != nil {
			return err
		}
		defer func() { _ = ch.Close() }()
		if err := ch.CreateSchema(ctx); err != nil {
			return err
		}
		sink = ch
	}

	clk := clock.System{}
	repo := trackhistory.New(cfg.TrackHistory.Adapter(), trackhistory.Options{
		Clock:         clk,
		WritesEnabled: true,
		Archive:       sink,
		Logger:        log,
	})
	defer func() { _ = repo.Close() }()
	if err := repo.Initialize(ctx); err != nil {
		return err
	}

	if once {
		return pass(ctx, repo, cfg.Retention, clk, log)
	}

	log.Info("retention loop started",
		"interval", cfg.Retention.Interval,
		"truncate_after", cfg.Retention.TruncateAfter,
		"delete_after", cfg.Retention.DeleteAfter,
		"archive", cfg.Archive.Enabled)

	ticker := time.NewTicker(cfg.Retention.Interval)
	defer ticker.Stop()

	for {
		if err := pass(ctx, repo, cfg.Retention, clk, log); err != nil {
			log.Error("retention pass failed", "err", err)
		}
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

func pass(ctx context.Context, repo *trackhistory.Repository, policy config.RetentionConfig, clk clock.Clock, log *slog.Logger) error {
	now := clk.Now()

	deleted, err := repo.DeleteExpired(ctx, now.Add(-policy.DeleteAfter))
	if err != nil {
		return fmt.Errorf("delete expired: %w", err)
	}
	truncated, err := repo.TruncateExpired(ctx, now.Add(-policy.TruncateAfter))
	if err != nil {
		return fmt.Errorf("truncate expired: %w", err)
	}

	log.Info("retention pass complete",
		"deleted_histories", deleted.CountHistories,
		"deleted_states", deleted.CountStates,
		"truncated_histories", truncated.CountHistories,
		"merged_states", truncated.CountStates)
	return nil
}
