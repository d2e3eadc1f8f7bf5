package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"portfolio-updater/config"
	"portfolio-updater/observability"
	"portfolio-updater/repository"
	"portfolio-updater/services"
	"portfolio-updater/updater"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	os.Exit(run())
}

// run performs one update and returns the process exit code.
// Deferred cleanup runs before main exits.
func run() int {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		observability.Error("invalid configuration", "error", err)
		return 1
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	observability.InitLoggerWithLevel(cfg.Log.Format == "json", level)
	if envErr != nil {
		observability.Debug("No .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	observability.SetMetrics(observability.NewMetrics(registry))

	store, err := repository.NewSnapshotStore(cfg.Output.DataDir)
	if err != nil {
		observability.Error("failed to prepare data directory", "error", err)
		return 1
	}

	fmp := services.NewFMPService(cfg.FMP.APIKey, cfg.FMP.BaseURL, cfg.RequestTimeout())
	alphaVantage := services.NewAlphaVantageService(cfg.AlphaVantage.APIKey, cfg.AlphaVantage.BaseURL, cfg.RequestTimeout())
	yahoo := services.NewYahooService(cfg.Yahoo.BaseURL, cfg.RequestTimeout())

	u := updater.NewUpdater(
		updater.NewFundamentalsMerger(fmp, alphaVantage),
		updater.NewMarketSummaryBuilder(yahoo),
		store,
		cfg.Update.Holdings,
		cfg.SymbolDelay(),
	)

	// The archive is optional; the JSON files are the primary output
	if cfg.HasDatabase() {
		repo, err := repository.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			observability.WithError(err).Warn("Failed to connect to database, run will not be archived")
		} else {
			defer repo.Close()
			if err := repo.EnsureSchema(ctx); err != nil {
				observability.WithError(err).Warn("Failed to prepare archive schema, run will not be archived")
			} else {
				u.WithArchive(repo)
			}
		}
	}

	observability.Info("Starting portfolio updater",
		"holdings", len(cfg.Update.Holdings),
		"data_dir", store.Dir(),
		"archive", cfg.HasDatabase())

	_, runErr := u.Run(ctx)

	if cfg.HasMetricsTextfile() {
		if err := observability.WriteTextfile(cfg.Output.MetricsTextfile, registry); err != nil {
			observability.WithError(err).Warn("Failed to export metrics")
		}
	}

	if runErr != nil {
		observability.Error("Portfolio update failed", "error", runErr)
		return 1
	}
	return 0
}
