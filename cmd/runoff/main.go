// Command runoff segments a rain log into storms, computes runoff for every
// subcatchment and storm, and exports the results and monthly summaries.
//
// Configuration comes from the environment; flags override the file paths:
//
//	go run ./cmd/runoff --rain data/rain.csv --params data/subcatchments.csv --out out
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/couchcryptid/storm-runoff/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-runoff/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/storm-runoff/internal/adapter/kafka"
	"github.com/couchcryptid/storm-runoff/internal/aggregate"
	"github.com/couchcryptid/storm-runoff/internal/config"
	"github.com/couchcryptid/storm-runoff/internal/observability"
	"github.com/couchcryptid/storm-runoff/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	flag.StringVarP(&cfg.RainLogPath, "rain", "r", cfg.RainLogPath, "rain log path")
	flag.StringVarP(&cfg.SubcatchmentPath, "params", "p", cfg.SubcatchmentPath, "subcatchment parameter table path")
	flag.StringVarP(&cfg.AdjustmentPath, "adjust", "a", cfg.AdjustmentPath, "adjustment table path (optional)")
	flag.StringVarP(&cfg.OutputDir, "out", "o", cfg.OutputDir, "output directory")
	flag.BoolVar(&cfg.Serve, "serve", cfg.Serve, "keep serving the report over HTTP after the batch")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	sources := pipeline.Sources{
		Rain:          csvfile.NewRainLog(cfg.RainLogPath),
		Subcatchments: csvfile.NewParameterTable(cfg.SubcatchmentPath),
	}
	if cfg.AdjustmentPath != "" {
		sources.Adjustments = csvfile.NewAdjustmentTable(cfg.AdjustmentPath)
	}

	var loaders []pipeline.ReportLoader
	if cfg.OutputDir != "" {
		loaders = append(loaders, csvfile.NewExporter(cfg.OutputDir, logger))
	}
	if cfg.PublishEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger, metrics)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	opts := aggregate.Options{Months: cfg.Months, Denominator: cfg.Denominator}
	p := pipeline.New(sources, opts, logger, metrics, loaders...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, runErr := p.Run(ctx)

	if cfg.PushgatewayURL != "" {
		if err := observability.Push(ctx, cfg.PushgatewayURL, prometheus.DefaultGatherer); err != nil {
			logger.Error("pushgateway push failed", "error", err)
		}
	}

	if runErr != nil || !cfg.Serve {
		return runErr
	}
	return serve(ctx, cfg, p, logger)
}

func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) error {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", "error", err)
			return err
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
