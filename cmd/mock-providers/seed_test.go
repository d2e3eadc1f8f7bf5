package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-updater/e2e/mocks"
	"portfolio-updater/services"
	"portfolio-updater/updater"
)

func TestSeed_ServesEveryHolding(t *testing.T) {
	handler := mocks.NewHandler()
	holdings := []string{"AAPL", "NVDA", "NU"}
	seed(handler, holdings)

	server := httptest.NewServer(handler)
	defer server.Close()

	fmp := services.NewFMPService("key", mocks.FMPBaseURL(server.URL), 5*time.Second)
	av := services.NewAlphaVantageService("key", mocks.AlphaVantageBaseURL(server.URL), 5*time.Second)
	yahoo := services.NewYahooService(mocks.YahooBaseURL(server.URL), 5*time.Second)
	merger := updater.NewFundamentalsMerger(fmp, av)
	ctx := context.Background()

	for i, symbol := range holdings {
		result, err := merger.Merge(ctx, symbol)
		if err != nil {
			t.Fatalf("Merge(%s) failed: %v", symbol, err)
		}
		if result.Fundamentals.Price <= 0 {
			t.Errorf("%s price = %v, want positive", symbol, result.Fundamentals.Price)
		}
		if result.Fallback == coveredByFMP(i) {
			t.Errorf("%s fallback = %v, want %v", symbol, result.Fallback, !coveredByFMP(i))
		}
	}

	summary, err := updater.NewMarketSummaryBuilder(yahoo).Build(ctx)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(summary.Indices) != len(updater.DefaultIndices) {
		t.Errorf("indices = %d, want %d", len(summary.Indices), len(updater.DefaultIndices))
	}
	for symbol, index := range summary.Indices {
		if index.Change != 10 {
			t.Errorf("%s change = %v, want 10", symbol, index.Change)
		}
	}
}
