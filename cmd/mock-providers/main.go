// Package main serves canned FMP, Alpha Vantage and Yahoo chart responses for the default
// holdings, so the updater can be run end to end without API keys or network access:
//
//	FMP_BASE_URL=http://localhost:9090/fmp \
//	ALPHA_VANTAGE_BASE_URL=http://localhost:9090/av \
//	YAHOO_BASE_URL=http://localhost:9090/yahoo \
//	FMP_API_KEY=x ALPHA_VANTAGE_API_KEY=x portfolio-updater
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-updater/config"
	"portfolio-updater/e2e/mocks"
	"portfolio-updater/observability"
)

func main() {
	observability.InitLogger(false)

	port := os.Getenv("MOCK_PROVIDERS_PORT")
	if port == "" {
		port = "9090"
	}

	handler := mocks.NewHandler()
	seed(handler, config.DefaultHoldings)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		root := fmt.Sprintf("http://localhost:%s", port)
		observability.Info("starting mock provider server",
			"port", port,
			"fmp_base_url", mocks.FMPBaseURL(root),
			"alpha_vantage_base_url", mocks.AlphaVantageBaseURL(root),
			"yahoo_base_url", mocks.YahooBaseURL(root))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down mock provider server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}
	observability.Info("mock provider server stopped", "requests", len(handler.GetRequestLog()))
}
