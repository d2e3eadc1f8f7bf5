package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DefaultFMPBaseURL is the Financial Modeling Prep v3 API root
const DefaultFMPBaseURL = "https://financialmodelingprep.com/api/v3"

// FMPService handles communication with Financial Modeling Prep API
type FMPService struct {
	apiClient
}

// NewFMPService creates a new FMPService instance. An empty baseURL selects the public API.
func NewFMPService(apiKey, baseURL string, timeout time.Duration) *FMPService {
	if baseURL == "" {
		baseURL = DefaultFMPBaseURL
	}
	return &FMPService{apiClient: newAPIClient("fmp", apiKey, baseURL, timeout)}
}

// FMPQuote is the first element of the quote endpoint
type FMPQuote struct {
	Symbol            string  `json:"symbol"`
	Price             float64 `json:"price"`
	Change            float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
	MarketCap         float64 `json:"marketCap"`
	PE                float64 `json:"pe"`
	EPS               float64 `json:"eps"`
	Beta              float64 `json:"beta"`
	Volume            float64 `json:"volume"`
	AvgVolume         float64 `json:"avgVolume"`
	YearHigh          float64 `json:"yearHigh"`
	YearLow           float64 `json:"yearLow"`
}

// FMPKeyMetrics is the first element of the key-metrics-ttm endpoint.
// Yield and return figures are fractions.
type FMPKeyMetrics struct {
	PBRatio       float64 `json:"pbRatioTTM"`
	PSRatio       float64 `json:"psRatioTTM"`
	DividendYield float64 `json:"dividendYieldTTM"`
	ROE           float64 `json:"roeTTM"`
	ROA           float64 `json:"roaTTM"`
	DebtToEquity  float64 `json:"debtToEquityTTM"`
	CurrentRatio  float64 `json:"currentRatioTTM"`
}

// FMPRatios is the first element of the ratios-ttm endpoint
type FMPRatios struct {
	CurrentRatio    float64 `json:"currentRatio"`
	QuickRatio      float64 `json:"quickRatio"`
	NetProfitMargin float64 `json:"netProfitMargin"`

	// The live API suffixes every key with TTM; these are read when the bare key is absent.
	CurrentRatioTTM    float64 `json:"currentRatioTTM"`
	QuickRatioTTM      float64 `json:"quickRatioTTM"`
	NetProfitMarginTTM float64 `json:"netProfitMarginTTM"`
}

// Current returns the current ratio, preferring the bare key
func (r FMPRatios) Current() float64 {
	return firstNonZero(r.CurrentRatio, r.CurrentRatioTTM)
}

// Quick returns the quick ratio, preferring the bare key
func (r FMPRatios) Quick() float64 {
	return firstNonZero(r.QuickRatio, r.QuickRatioTTM)
}

// ProfitMargin returns the net profit margin as a fraction, preferring the bare key
func (r FMPRatios) ProfitMargin() float64 {
	return firstNonZero(r.NetProfitMargin, r.NetProfitMarginTTM)
}

// FMPIncomeStatement is the most recent income statement.
// Revenue is nil when the figure is null or absent; RevenueMissing is set only
// when the key itself is absent.
type FMPIncomeStatement struct {
	Date           string   `json:"date"`
	Revenue        *float64 `json:"revenue"`
	NetIncome      float64  `json:"netIncome"`
	RevenueMissing bool     `json:"-"`
}

// UnmarshalJSON records whether the revenue key was present at all
func (s *FMPIncomeStatement) UnmarshalJSON(data []byte) error {
	type plain FMPIncomeStatement
	var raw struct {
		plain
		Revenue json.RawMessage `json:"revenue"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = FMPIncomeStatement(raw.plain)
	s.Revenue = nil
	s.RevenueMissing = raw.Revenue == nil
	if raw.Revenue == nil || string(raw.Revenue) == "null" {
		return nil
	}

	var revenue float64
	if err := json.Unmarshal(raw.Revenue, &revenue); err != nil {
		return fmt.Errorf("revenue: %w", err)
	}
	s.Revenue = &revenue
	return nil
}

// GetQuote returns the latest quote for a symbol
func (s *FMPService) GetQuote(ctx context.Context, symbol string) (*FMPQuote, error) {
	var resp []FMPQuote
	if err := s.fetchList(ctx, "quote", symbol, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, s.noData("quote", symbol)
	}
	return &resp[0], nil
}

// GetKeyMetricsTTM returns trailing-twelve-month key metrics for a symbol
func (s *FMPService) GetKeyMetricsTTM(ctx context.Context, symbol string) (*FMPKeyMetrics, error) {
	var resp []FMPKeyMetrics
	if err := s.fetchList(ctx, "key-metrics-ttm", symbol, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, s.noData("key-metrics-ttm", symbol)
	}
	return &resp[0], nil
}

// GetRatiosTTM returns trailing-twelve-month financial ratios for a symbol
func (s *FMPService) GetRatiosTTM(ctx context.Context, symbol string) (*FMPRatios, error) {
	var resp []FMPRatios
	if err := s.fetchList(ctx, "ratios-ttm", symbol, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, s.noData("ratios-ttm", symbol)
	}
	return &resp[0], nil
}

// GetIncomeStatement returns the most recent of the last limit income statements
func (s *FMPService) GetIncomeStatement(ctx context.Context, symbol string, limit int) (*FMPIncomeStatement, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp []FMPIncomeStatement
	if err := s.fetchList(ctx, "income-statement", symbol, params, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, s.noData("income-statement", symbol)
	}
	return &resp[0], nil
}

// fetchList requests {endpoint}/{symbol}; FMP answers every endpoint with a JSON array
func (s *FMPService) fetchList(ctx context.Context, endpoint, symbol string, params url.Values, out any) error {
	return s.getJSON(ctx, endpoint, "/"+endpoint+"/"+url.PathEscape(symbol), params, out)
}

func (s *FMPService) noData(endpoint, symbol string) error {
	return s.fail(endpoint, "no_data", fmt.Errorf("%s for symbol %s: %w", endpoint, symbol, ErrNoData))
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

// Compile-time interface verification
var _ FMPServiceInterface = (*FMPService)(nil)
