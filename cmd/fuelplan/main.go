package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	kafkaadapter "github.com/couchcryptid/fuelplan-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fuelplan-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/fuelplan-etl/internal/adapter/sheet"
	"github.com/couchcryptid/fuelplan-etl/internal/config"
	"github.com/couchcryptid/fuelplan-etl/internal/domain"
	"github.com/couchcryptid/fuelplan-etl/internal/observability"
	"github.com/couchcryptid/fuelplan-etl/internal/pipeline"
	"github.com/couchcryptid/fuelplan-etl/internal/report"
	"github.com/couchcryptid/fuelplan-etl/internal/source"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	defer writeMetrics(cfg, metrics, logger)

	// A nil fetcher keeps the loader on the cache only.
	var fetcher source.Fetcher
	if cfg.RemoteEnabled() {
		fetcher = sheet.NewClient(cfg.SheetURL, cfg.SourceTimeout, logger)
	} else {
		logger.Info("SHEET_URL not set, reading cache only", "path", cfg.SheetCachePath)
	}
	loader := source.NewLoader(fetcher, sheet.NewFileCache(cfg.SheetCachePath), cfg.RefreshCache, logger)

	opts := []pipeline.Option{
		pipeline.WithLocation(cfg.Location),
		pipeline.WithDateNormalizer(domain.NewDateNormalizer(cfg.DateFormats)),
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		opts = append(opts, pipeline.WithGeocoder(mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics), cfg.GeocodeCountry))
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	if cfg.PublishEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("feed publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(loader, report.NewEmitter(cfg.OutputDir, logger), domain.FilterConfig{
		TargetRegion:    cfg.TargetRegion,
		AllowedStatuses: cfg.AllowedStatuses,
	}, logger, metrics, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx)
		errCh <- err
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		select {
		case err = <-errCh:
		case <-time.After(cfg.ShutdownTimeout):
			logger.Error("run did not stop within shutdown timeout")
			return 1
		}
	}

	switch {
	case errors.Is(err, source.ErrSourceUnavailable):
		logger.Error("no snapshot available", "error", err)
		return 1
	case err != nil:
		logger.Error("run failed", "error", err)
		return 1
	}
	return 0
}

func writeMetrics(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("metrics not written", "error", err)
	}
}
