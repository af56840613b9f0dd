// Command kmlserve watches an NDK catalog file and serves the rendered KML
// document over HTTP, optionally merging live records from a Kafka feed.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-data-kml/internal/adapter/beachball"
	"github.com/couchcryptid/quake-data-kml/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/quake-data-kml/internal/adapter/kafka"
	"github.com/couchcryptid/quake-data-kml/internal/catalog"
	"github.com/couchcryptid/quake-data-kml/internal/config"
	"github.com/couchcryptid/quake-data-kml/internal/domain"
	"github.com/couchcryptid/quake-data-kml/internal/observability"
	"github.com/couchcryptid/quake-data-kml/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var renderer domain.Renderer = beachball.NewRenderer(cfg.IconSizePx)
	renderer = beachball.NewCachedRenderer(renderer, cfg.RenderCacheSize, metrics)

	converter := pipeline.NewConverter(renderer, logger, metrics)
	svc := catalog.NewService(cfg.CatalogPath, converter, logger, metrics)

	srv, err := httpadapter.NewServer(cfg.HTTPAddr, svc, cfg.RefreshInterval, logger)
	if err != nil {
		logger.Error("failed to build http server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build once on startup. A missing or broken catalog file is not fatal:
	// the watcher rebuilds as soon as the file changes, and /readyz reports
	// not-ready until the first successful build.
	if err := svc.Rebuild(ctx); err != nil {
		logger.Error("initial catalog build failed", "error", err)
	}

	watcher := catalog.NewWatcher(cfg.CatalogPath, cfg.RebuildDebounce, svc, logger)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Error("catalog watcher error", "error", err)
		}
	}()

	// Live feed (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		feed := catalog.NewFeed(reader, svc, cfg.RebuildDebounce, logger, metrics)
		go func() {
			if err := feed.Run(ctx); err != nil {
				logger.Error("kafka feed error", "error", err)
			}
		}()
		logger.Info("kafka feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka feed disabled")
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
