package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultHoldings is the fixed list of portfolio symbols refreshed on every run
var DefaultHoldings = []string{
	"PLTR", "NVDA", "OXY", "AMZN", "BRK.B", "META", "SPGI",
	"AAPL", "GOOGL", "SNOW", "C", "BAC", "SIRI", "LLYVK", "NU", "UNP", "TSM", "TSLA", "UI",
}

// Config holds all application configuration
type Config struct {
	// External service configurations
	FMP          FMPConfig
	AlphaVantage AlphaVantageConfig
	Yahoo        YahooConfig

	// Update run configuration
	Update UpdateConfig

	// Output configuration
	Output OutputConfig

	// Logging configuration
	Log LogConfig

	// Optional run archive
	Database DatabaseConfig
}

// FMPConfig holds Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey  string
	BaseURL string
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
}

// YahooConfig holds the Yahoo Finance chart endpoint used for market indices.
// It takes no api key.
type YahooConfig struct {
	BaseURL string
}

// UpdateConfig holds the settings of a single update run
type UpdateConfig struct {
	Holdings              []string
	RequestTimeoutSeconds int
	SymbolDelayMs         int
}

// OutputConfig holds output file locations
type OutputConfig struct {
	DataDir         string
	MetricsTextfile string // empty disables the Prometheus textfile export
}

// LogConfig holds logger configuration
type LogConfig struct {
	Format string // text or json
	Level  string // debug, info, warn, error
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		FMP: FMPConfig{
			APIKey:  os.Getenv("FMP_API_KEY"),
			BaseURL: getEnvString("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
		},
		AlphaVantage: AlphaVantageConfig{
			APIKey:  os.Getenv("ALPHA_VANTAGE_API_KEY"),
			BaseURL: getEnvString("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
		},
		Yahoo: YahooConfig{
			BaseURL: getEnvString("YAHOO_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
		},
		Update: UpdateConfig{
			Holdings:              getEnvList("HOLDINGS", DefaultHoldings),
			RequestTimeoutSeconds: getEnvInt("REQUEST_TIMEOUT_SECONDS", 30),
			SymbolDelayMs:         getEnvNonNegativeInt("SYMBOL_DELAY_MS", 1000),
		},
		Output: OutputConfig{
			DataDir:         getEnvString("DATA_DIR", defaultDataDir()),
			MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		},
		Log: LogConfig{
			Format: getEnvString("LOG_FORMAT", "text"),
			Level:  getEnvString("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Credentials have no embedded fallback
	if c.FMP.APIKey == "" {
		return fmt.Errorf("FMP_API_KEY is required")
	}
	if c.AlphaVantage.APIKey == "" {
		return fmt.Errorf("ALPHA_VANTAGE_API_KEY is required")
	}

	if len(c.Update.Holdings) == 0 {
		return fmt.Errorf("HOLDINGS must contain at least one symbol")
	}
	if c.Update.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.Update.RequestTimeoutSeconds)
	}
	if c.Update.SymbolDelayMs < 0 {
		return fmt.Errorf("SYMBOL_DELAY_MS must not be negative, got %d", c.Update.SymbolDelayMs)
	}
	if c.Output.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// RequestTimeout returns the per-request HTTP timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Update.RequestTimeoutSeconds) * time.Second
}

// SymbolDelay returns the pause between two holdings
func (c *Config) SymbolDelay() time.Duration {
	return time.Duration(c.Update.SymbolDelayMs) * time.Millisecond
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasMetricsTextfile returns true if metrics should be exported after the run
func (c *Config) HasMetricsTextfile() bool {
	return c.Output.MetricsTextfile != ""
}

// ParseLevel maps a LOG_LEVEL value to a slog level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", level)
	}
}

// defaultDataDir resolves the data directory next to the directory holding the binary,
// e.g. /opt/portfolio/bin/portfolio-updater writes to /opt/portfolio/data.
func defaultDataDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "data"
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(filepath.Dir(exe)), "data")
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvNonNegativeInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), defaultValue...)
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		FMP: FMPConfig{
			APIKey:  "test-fmp-key",
			BaseURL: "https://financialmodelingprep.com/api/v3",
		},
		AlphaVantage: AlphaVantageConfig{
			APIKey:  "test-av-key",
			BaseURL: "https://www.alphavantage.co/query",
		},
		Yahoo: YahooConfig{
			BaseURL: "https://query1.finance.yahoo.com/v8/finance/chart",
		},
		Update: UpdateConfig{
			Holdings:              append([]string(nil), DefaultHoldings...),
			RequestTimeoutSeconds: 30,
			SymbolDelayMs:         0,
		},
		Output: OutputConfig{
			DataDir: "data",
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}
