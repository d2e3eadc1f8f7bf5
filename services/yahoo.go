package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"portfolio-updater/models"
)

// DefaultYahooBaseURL is the Yahoo Finance v8 chart endpoint
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// yahooUserAgent is sent on every request; the chart endpoint rejects Go's default agent
const yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// yahooRange is wide enough to hold two trading sessions across a weekend or holiday
const yahooRange = "5d"

// YahooService reads daily history from the Yahoo Finance chart endpoint.
// It needs no api key and accepts index tickers such as ^GSPC.
type YahooService struct {
	apiClient
}

// NewYahooService creates a new YahooService. An empty baseURL selects the public endpoint.
func NewYahooService(baseURL string, timeout time.Duration) *YahooService {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	client := newAPIClient("yahoo", "", baseURL, timeout)
	client.userAgent = yahooUserAgent
	return &YahooService{apiClient: client}
}

// ChartResponse is the chart endpoint payload. Series values are pointers
// because Yahoo reports sessions without trades as null.
type ChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyHistory returns the most recent days daily bars for a symbol, oldest first.
// Sessions with a null close are skipped.
func (s *YahooService) GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	const operation = "chart"

	params := url.Values{}
	params.Set("range", yahooRange)
	params.Set("interval", "1d")

	var chartResp ChartResponse
	if err := s.getJSON(ctx, operation, "/"+url.PathEscape(symbol), params, &chartResp); err != nil {
		return nil, err
	}
	if e := chartResp.Chart.Error; e != nil {
		return nil, s.fail(operation, "provider_message", fmt.Errorf("chart for %s: %w: %s: %s", symbol, ErrProviderMessage, e.Code, e.Description))
	}
	if len(chartResp.Chart.Result) == 0 || len(chartResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, s.noData(symbol)
	}

	result := chartResp.Chart.Result[0]
	series := result.Indicators.Quote[0]

	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice := valueAt(series.Close, i)
		if closePrice == nil {
			continue
		}
		bar := models.Bar{
			Symbol:    symbol,
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *closePrice,
		}
		if v := valueAt(series.Open, i); v != nil {
			bar.Open = *v
		}
		if v := valueAt(series.High, i); v != nil {
			bar.High = *v
		}
		if v := valueAt(series.Low, i); v != nil {
			bar.Low = *v
		}
		if v := valueAt(series.Volume, i); v != nil {
			bar.Volume = int64(*v)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, s.noData(symbol)
	}
	if days > 0 && len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (s *YahooService) noData(symbol string) error {
	return s.fail("chart", "no_data", fmt.Errorf("chart for symbol %s: %w", symbol, ErrNoData))
}

func valueAt(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// Compile-time check
var _ HistoryProvider = (*YahooService)(nil)
