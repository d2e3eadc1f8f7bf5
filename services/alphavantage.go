package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"portfolio-updater/models"
	"portfolio-updater/observability"

	"github.com/shopspring/decimal"
)

// DefaultAlphaVantageBaseURL is the Alpha Vantage query endpoint
const DefaultAlphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageService handles communication with Alpha Vantage API
type AlphaVantageService struct {
	apiClient
}

// NewAlphaVantageService creates a new AlphaVantageService instance. An empty baseURL selects the public API.
func NewAlphaVantageService(apiKey, baseURL string, timeout time.Duration) *AlphaVantageService {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageBaseURL
	}
	return &AlphaVantageService{apiClient: newAPIClient("alphavantage", apiKey, baseURL, timeout)}
}

// messageResponse carries the fields Alpha Vantage uses to report errors and throttling with a 200 status
type messageResponse struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

func (m messageResponse) message() string {
	switch {
	case m.ErrorMessage != "":
		return m.ErrorMessage
	case m.Note != "":
		return m.Note
	default:
		return m.Information
	}
}

// OverviewResponse represents the company overview response from Alpha Vantage
type OverviewResponse struct {
	Symbol        string `json:"Symbol"`
	Name          string `json:"Name"`
	MarketCap     string `json:"MarketCapitalization"`
	PERatio       string `json:"PERatio"`
	BookValue     string `json:"BookValue"`
	DividendYield string `json:"DividendYield"`
	EPS           string `json:"EPS"`
	ProfitMargin  string `json:"ProfitMargin"`
	ROE           string `json:"ReturnOnEquityTTM"`
	PriceToBook   string `json:"PriceToBookRatio"`
	Beta          string `json:"Beta"`
	Week52High    string `json:"52WeekHigh"`
	Week52Low     string `json:"52WeekLow"`
}

// QuoteResponse represents a quote from Alpha Vantage
type QuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		LatestDay     string `json:"07. latest trading day"`
		PrevClose     string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// DailySeriesResponse represents the TIME_SERIES_DAILY response
type DailySeriesResponse struct {
	TimeSeries map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

// GetQuote returns the latest quote for a symbol
func (s *AlphaVantageService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var quoteResp QuoteResponse
	if err := s.query(ctx, "GLOBAL_QUOTE", symbol, nil, &quoteResp); err != nil {
		return nil, err
	}

	q := quoteResp.GlobalQuote
	if q.Symbol == "" && q.Price == "" {
		return nil, s.noData("GLOBAL_QUOTE", symbol)
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         s.parseNumber("05. price", q.Price),
		PreviousClose: s.parseNumber("08. previous close", q.PrevClose),
		Volume:        int64(s.parseNumber("06. volume", q.Volume)),
		LatestDay:     q.LatestDay,
		Timestamp:     time.Now(),
	}, nil
}

// GetOverview returns company metadata for a symbol
func (s *AlphaVantageService) GetOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error) {
	var overview OverviewResponse
	if err := s.query(ctx, "OVERVIEW", symbol, nil, &overview); err != nil {
		return nil, err
	}
	if overview.Symbol == "" {
		return nil, s.noData("OVERVIEW", symbol)
	}

	return &models.CompanyOverview{
		Symbol:        overview.Symbol,
		Name:          overview.Name,
		MarketCap:     s.parseNumber("MarketCapitalization", overview.MarketCap),
		PERatio:       s.parseNumber("PERatio", overview.PERatio),
		DividendYield: s.parseNumber("DividendYield", overview.DividendYield),
		BookValue:     s.parseNumber("BookValue", overview.BookValue),
		EPS:           s.parseNumber("EPS", overview.EPS),
		Beta:          s.parseNumber("Beta", overview.Beta),
		Week52High:    s.parseNumber("52WeekHigh", overview.Week52High),
		Week52Low:     s.parseNumber("52WeekLow", overview.Week52Low),
		ProfitMargin:  s.parseNumber("ProfitMargin", overview.ProfitMargin),
		ROE:           s.parseNumber("ReturnOnEquityTTM", overview.ROE),
		PriceToBook:   s.parseNumber("PriceToBookRatio", overview.PriceToBook),
	}, nil
}

// GetDailyHistory returns the most recent days daily bars for a symbol, oldest first
func (s *AlphaVantageService) GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	params := url.Values{}
	params.Set("outputsize", "compact")

	var seriesResp DailySeriesResponse
	if err := s.query(ctx, "TIME_SERIES_DAILY", symbol, params, &seriesResp); err != nil {
		return nil, err
	}
	if len(seriesResp.TimeSeries) == 0 {
		return nil, s.noData("TIME_SERIES_DAILY", symbol)
	}

	dates := make([]string, 0, len(seriesResp.TimeSeries))
	for date := range seriesResp.TimeSeries {
		dates = append(dates, date)
	}
	// YYYY-MM-DD keys sort chronologically as strings
	sort.Strings(dates)
	if days > 0 && len(dates) > days {
		dates = dates[len(dates)-days:]
	}

	bars := make([]models.Bar, 0, len(dates))
	for _, date := range dates {
		point := seriesResp.TimeSeries[date]
		ts, err := time.Parse(models.DateLayout, date)
		if err != nil {
			observability.WithProvider(s.service).Warn("Skipping bar with unparseable date",
				"symbol", symbol,
				"date", date)
			continue
		}
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: ts,
			Open:      s.parseNumber("1. open", point.Open),
			High:      s.parseNumber("2. high", point.High),
			Low:       s.parseNumber("3. low", point.Low),
			Close:     s.parseNumber("4. close", point.Close),
			Volume:    int64(s.parseNumber("5. volume", point.Volume)),
		})
	}

	if len(bars) == 0 {
		return nil, s.noData("TIME_SERIES_DAILY", symbol)
	}
	return bars, nil
}

// query calls one Alpha Vantage function. Bodies carrying an error or throttling
// message are reported as ErrProviderMessage even though the status is 200.
func (s *AlphaVantageService) query(ctx context.Context, function, symbol string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("function", function)
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	body, err := s.get(ctx, function, "", params)
	if err != nil {
		return err
	}

	var msg messageResponse
	if err := s.decode(function, body, &msg); err != nil {
		return err
	}
	if text := msg.message(); text != "" {
		return s.fail(function, "provider_message", fmt.Errorf("%s for %s: %w: %s", function, symbol, ErrProviderMessage, text))
	}

	return s.decode(function, body, out)
}

func (s *AlphaVantageService) noData(function, symbol string) error {
	return s.fail(function, "no_data", fmt.Errorf("%s for symbol %s: %w", function, symbol, ErrNoData))
}

// parseNumber converts an Alpha Vantage numeric string. Missing values ("", "None", "-") are zero.
func (s *AlphaVantageService) parseNumber(field, raw string) float64 {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "None", "-":
		return 0
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		observability.WithProvider(s.service).Warn("Failed to parse numeric field",
			"field", field,
			"value", raw,
			"error", err)
		return 0
	}
	return d.InexactFloat64()
}

// Compile-time interface verification
var _ AlphaVantageServiceInterface = (*AlphaVantageService)(nil)
