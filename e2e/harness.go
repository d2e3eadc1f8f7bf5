// Package e2e provides end-to-end testing infrastructure for portfolio-updater.
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"portfolio-updater/config"
	"portfolio-updater/e2e/mocks"
	"portfolio-updater/models"
	"portfolio-updater/observability"
	"portfolio-updater/repository"
	"portfolio-updater/services"
	"portfolio-updater/updater"

	"github.com/prometheus/client_golang/prometheus"
)

// TestHarness wires the real services, merger and snapshot store against a mock provider server.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	store      *repository.SnapshotStore
	repo       *repository.Repository
	registry   *prometheus.Registry
	config     *config.Config
}

// NewTestHarness creates a new test harness.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	return &TestHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Setup starts the mock server and creates the data directory.
func (h *TestHarness) Setup() error {
	h.mockServer = mocks.NewMockServer()

	h.config = config.NewTestConfig()
	h.config.FMP.BaseURL = h.mockServer.FMPBaseURL()
	h.config.AlphaVantage.BaseURL = h.mockServer.AlphaVantageBaseURL()
	h.config.Yahoo.BaseURL = h.mockServer.YahooBaseURL()
	h.config.Update.RequestTimeoutSeconds = 5
	h.config.Output.DataDir = h.t.TempDir()

	h.registry = prometheus.NewRegistry()
	observability.SetMetrics(observability.NewMetrics(h.registry))

	var err error
	h.store, err = repository.NewSnapshotStore(h.config.Output.DataDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	return nil
}

// SetupArchive connects the run archive. The test is skipped when no database is available.
func (h *TestHarness) SetupArchive() {
	h.t.Helper()

	dbURL := os.Getenv("E2E_DATABASE_URL")
	if dbURL == "" {
		h.t.Skip("E2E_DATABASE_URL not set, skipping archive scenario")
	}

	repo, err := repository.NewRepository(h.ctx, dbURL)
	if err != nil {
		h.t.Skipf("E2E database not available: %v", err)
	}
	if err := repo.EnsureSchema(h.ctx); err != nil {
		repo.Close()
		h.t.Fatalf("failed to create schema: %v", err)
	}
	h.repo = repo
}

// Teardown cleans up all test resources.
func (h *TestHarness) Teardown() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.repo != nil {
		h.repo.Close()
	}
	if h.mockServer != nil {
		h.mockServer.Close()
	}
}

// Context returns the test context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// Store returns the snapshot store the run writes to.
func (h *TestHarness) Store() *repository.SnapshotStore {
	return h.store
}

// Repository returns the run archive, nil unless SetupArchive was called.
func (h *TestHarness) Repository() *repository.Repository {
	return h.repo
}

// Registry returns the metrics registry of this harness.
func (h *TestHarness) Registry() *prometheus.Registry {
	return h.registry
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// Run performs one update of holdings against the mock providers.
func (h *TestHarness) Run(holdings ...string) (*models.UpdateRun, error) {
	fmp := services.NewFMPService(h.config.FMP.APIKey, h.config.FMP.BaseURL, h.config.RequestTimeout())
	av := services.NewAlphaVantageService(h.config.AlphaVantage.APIKey, h.config.AlphaVantage.BaseURL, h.config.RequestTimeout())
	yahoo := services.NewYahooService(h.config.Yahoo.BaseURL, h.config.RequestTimeout())

	u := updater.NewUpdater(
		updater.NewFundamentalsMerger(fmp, av),
		updater.NewMarketSummaryBuilder(yahoo),
		h.store,
		holdings,
		h.config.SymbolDelay(),
	)
	if h.repo != nil {
		u.WithArchive(h.repo)
	}

	return u.Run(h.ctx)
}
