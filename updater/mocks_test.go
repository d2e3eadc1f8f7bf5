package updater

import (
	"context"
	"errors"
	"sync"
	"time"

	"portfolio-updater/models"
	"portfolio-updater/services"
)

var errUnavailable = errors.New("provider unavailable")

// MockFMPService implements FMPServiceInterface for testing.
// Nil funcs answer with errUnavailable.
type MockFMPService struct {
	GetQuoteFunc           func(ctx context.Context, symbol string) (*services.FMPQuote, error)
	GetKeyMetricsTTMFunc   func(ctx context.Context, symbol string) (*services.FMPKeyMetrics, error)
	GetRatiosTTMFunc       func(ctx context.Context, symbol string) (*services.FMPRatios, error)
	GetIncomeStatementFunc func(ctx context.Context, symbol string, limit int) (*services.FMPIncomeStatement, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockFMPService) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *MockFMPService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockFMPService) GetQuote(ctx context.Context, symbol string) (*services.FMPQuote, error) {
	m.record("quote/" + symbol)
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx, symbol)
	}
	return nil, errUnavailable
}

func (m *MockFMPService) GetKeyMetricsTTM(ctx context.Context, symbol string) (*services.FMPKeyMetrics, error) {
	m.record("key-metrics-ttm/" + symbol)
	if m.GetKeyMetricsTTMFunc != nil {
		return m.GetKeyMetricsTTMFunc(ctx, symbol)
	}
	return nil, errUnavailable
}

func (m *MockFMPService) GetRatiosTTM(ctx context.Context, symbol string) (*services.FMPRatios, error) {
	m.record("ratios-ttm/" + symbol)
	if m.GetRatiosTTMFunc != nil {
		return m.GetRatiosTTMFunc(ctx, symbol)
	}
	return nil, errUnavailable
}

func (m *MockFMPService) GetIncomeStatement(ctx context.Context, symbol string, limit int) (*services.FMPIncomeStatement, error) {
	m.record("income-statement/" + symbol)
	if m.GetIncomeStatementFunc != nil {
		return m.GetIncomeStatementFunc(ctx, symbol, limit)
	}
	return nil, errUnavailable
}

// MockAlphaVantageService implements AlphaVantageServiceInterface for testing.
// Nil funcs answer with errUnavailable.
type MockAlphaVantageService struct {
	GetQuoteFunc        func(ctx context.Context, symbol string) (*models.Quote, error)
	GetOverviewFunc     func(ctx context.Context, symbol string) (*models.CompanyOverview, error)
	GetDailyHistoryFunc func(ctx context.Context, symbol string, days int) ([]models.Bar, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockAlphaVantageService) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *MockAlphaVantageService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockAlphaVantageService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	m.record("GLOBAL_QUOTE/" + symbol)
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx, symbol)
	}
	return nil, errUnavailable
}

func (m *MockAlphaVantageService) GetOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error) {
	m.record("OVERVIEW/" + symbol)
	if m.GetOverviewFunc != nil {
		return m.GetOverviewFunc(ctx, symbol)
	}
	return nil, errUnavailable
}

func (m *MockAlphaVantageService) GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	m.record("TIME_SERIES_DAILY/" + symbol)
	if m.GetDailyHistoryFunc != nil {
		return m.GetDailyHistoryFunc(ctx, symbol, days)
	}
	return nil, errUnavailable
}

// MockHistoryProvider implements services.HistoryProvider for testing.
// A nil func answers with errUnavailable.
type MockHistoryProvider struct {
	GetDailyHistoryFunc func(ctx context.Context, symbol string, days int) ([]models.Bar, error)

	mu      sync.Mutex
	symbols []string
}

func (m *MockHistoryProvider) GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	m.mu.Lock()
	m.symbols = append(m.symbols, symbol)
	m.mu.Unlock()
	if m.GetDailyHistoryFunc != nil {
		return m.GetDailyHistoryFunc(ctx, symbol, days)
	}
	return nil, errUnavailable
}

func (m *MockHistoryProvider) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.symbols...)
}

// MockMerger implements Merger for testing
type MockMerger struct {
	MergeFunc func(ctx context.Context, symbol string) (MergeResult, error)
}

func (m *MockMerger) Merge(ctx context.Context, symbol string) (MergeResult, error) {
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, symbol)
	}
	return MergeResult{Fundamentals: models.NewFundamentals(symbol, time.Now())}, nil
}

// MockSummaryBuilder implements SummaryBuilder for testing
type MockSummaryBuilder struct {
	BuildFunc func(ctx context.Context) (*models.MarketSummary, error)
}

func (m *MockSummaryBuilder) Build(ctx context.Context) (*models.MarketSummary, error) {
	if m.BuildFunc != nil {
		return m.BuildFunc(ctx)
	}
	return models.NewMarketSummary(time.Now()), nil
}

// MemoryWriter implements SnapshotWriter in memory and records write order
type MemoryWriter struct {
	Holdings     []string
	Fundamentals map[string]models.Fundamentals
	Summary      *models.MarketSummary
	Metadata     *models.RunMetadata
	Order        []string

	FailOn string
}

func (w *MemoryWriter) write(name string) error {
	if w.FailOn == name {
		return errors.New("disk full")
	}
	w.Order = append(w.Order, name)
	return nil
}

func (w *MemoryWriter) WriteFundamentals(holdings []string, records map[string]models.Fundamentals) (string, error) {
	if err := w.write("portfolio_fundamentals.json"); err != nil {
		return "", err
	}
	w.Holdings = holdings
	w.Fundamentals = records
	return "mem/portfolio_fundamentals.json", nil
}

func (w *MemoryWriter) WriteMarketSummary(summary *models.MarketSummary) (string, error) {
	if err := w.write("market_summary.json"); err != nil {
		return "", err
	}
	w.Summary = summary
	return "mem/market_summary.json", nil
}

func (w *MemoryWriter) WriteRunMetadata(meta models.RunMetadata) (string, error) {
	if err := w.write("last_update.json"); err != nil {
		return "", err
	}
	w.Metadata = &meta
	return "mem/last_update.json", nil
}

// MockRunArchive implements RunArchive for testing
type MockRunArchive struct {
	CreateUpdateRunFunc   func(ctx context.Context, run *models.UpdateRun) error
	FinishUpdateRunFunc   func(ctx context.Context, run *models.UpdateRun, records map[string]models.Fundamentals) error
}

func (m *MockRunArchive) CreateUpdateRun(ctx context.Context, run *models.UpdateRun) error {
	if m.CreateUpdateRunFunc != nil {
		return m.CreateUpdateRunFunc(ctx, run)
	}
	return nil
}

func (m *MockRunArchive) FinishUpdateRun(ctx context.Context, run *models.UpdateRun, records map[string]models.Fundamentals) error {
	if m.FinishUpdateRunFunc != nil {
		return m.FinishUpdateRunFunc(ctx, run, records)
	}
	return nil
}

// compile-time checks
var (
	_ services.FMPServiceInterface          = (*MockFMPService)(nil)
	_ services.AlphaVantageServiceInterface = (*MockAlphaVantageService)(nil)
	_ Merger                                = (*MockMerger)(nil)
	_ SummaryBuilder                        = (*MockSummaryBuilder)(nil)
	_ SnapshotWriter                        = (*MemoryWriter)(nil)
	_ RunArchive                            = (*MockRunArchive)(nil)
)
