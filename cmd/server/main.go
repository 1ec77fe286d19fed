package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/scan-site-discovery/internal/adapter/api"
	"github.com/couchcryptid/scan-site-discovery/internal/adapter/awdb"
	httpadapter "github.com/couchcryptid/scan-site-discovery/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/scan-site-discovery/internal/adapter/kafka"
	"github.com/couchcryptid/scan-site-discovery/internal/config"
	"github.com/couchcryptid/scan-site-discovery/internal/discovery"
	"github.com/couchcryptid/scan-site-discovery/internal/domain"
	"github.com/couchcryptid/scan-site-discovery/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := awdb.NewClient(cfg, logger, metrics)

	// Overview sink is feature-flagged via KAFKA_ENABLED.
	var sink discovery.OverviewSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("kafka overview sink enabled", "topic", cfg.KafkaOverviewTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka overview sink disabled")
	}

	svc := discovery.NewService(client, client, sink, logger, metrics, discovery.Options{
		TemperatureUnit:  domain.TemperatureUnit(cfg.TemperatureUnit),
		FetchConcurrency: cfg.FetchConcurrency,
		DefaultSiteCount: cfg.DefaultSiteCount,
		MaxSiteCount:     cfg.MaxSiteCount,
	})

	apiServer := api.NewServer(cfg, svc, logger)
	opsServer := httpadapter.NewServer(cfg.OpsAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Probe the catalog once so readiness flips without waiting for the
	// first query.
	go func() {
		primeCtx, cancel := context.WithTimeout(ctx, cfg.CatalogTimeout)
		defer cancel()
		if err := svc.Prime(primeCtx); err != nil {
			logger.Warn("catalog prime failed", "error", err)
		}
	}()

	// Start ops server.
	go func() {
		if err := opsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	// Start public API server.
	go func() {
		if err := apiServer.Run(ctx); err != nil {
			logger.Error("api server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
	svc.Shutdown()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
