package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestAlphaVantageService(t *testing.T, handler http.HandlerFunc) *AlphaVantageService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAlphaVantageService("test-av-key", server.URL, 5*time.Second)
}

func TestNewAlphaVantageService(t *testing.T) {
	service := NewAlphaVantageService("test-api-key", "", 0)
	if service == nil {
		t.Fatal("NewAlphaVantageService should not return nil")
	}
	if service.apiKey != "test-api-key" {
		t.Errorf("apiKey = %v, want 'test-api-key'", service.apiKey)
	}
	if service.httpClient == nil {
		t.Error("httpClient should not be nil")
	}
	if service.baseURL != DefaultAlphaVantageBaseURL {
		t.Errorf("baseURL = %v, want %v", service.baseURL, DefaultAlphaVantageBaseURL)
	}
}

func TestAlphaVantageService_GetQuote(t *testing.T) {
	service := newTestAlphaVantageService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "GLOBAL_QUOTE" {
			t.Errorf("function = %q, want GLOBAL_QUOTE", q.Get("function"))
		}
		if q.Get("symbol") != "AAPL" {
			t.Errorf("symbol = %q, want AAPL", q.Get("symbol"))
		}
		if q.Get("apikey") != "test-av-key" {
			t.Errorf("apikey = %q, want test-av-key", q.Get("apikey"))
		}
		w.Write([]byte(`{
			"Global Quote": {
				"01. symbol": "AAPL",
				"05. price": "99.0000",
				"06. volume": "4200000",
				"07. latest trading day": "2024-06-14",
				"08. previous close": "98.0000",
				"09. change": "1.0000",
				"10. change percent": "1.0204%"
			}
		}`))
	})

	quote, err := service.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if quote.Price != 99 {
		t.Errorf("Price = %v, want 99", quote.Price)
	}
	if quote.PreviousClose != 98 {
		t.Errorf("PreviousClose = %v, want 98", quote.PreviousClose)
	}
	if quote.Volume != 4200000 {
		t.Errorf("Volume = %v, want 4200000", quote.Volume)
	}
	if quote.LatestDay != "2024-06-14" {
		t.Errorf("LatestDay = %v, want 2024-06-14", quote.LatestDay)
	}
}

func TestAlphaVantageService_GetQuote_Empty(t *testing.T) {
	service := newTestAlphaVantageService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	})

	if _, err := service.GetQuote(context.Background(), "LLYVK"); !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}

func TestAlphaVantageService_GetOverview(t *testing.T) {
	service := newTestAlphaVantageService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") != "OVERVIEW" {
			t.Errorf("function = %q, want OVERVIEW", r.URL.Query().Get("function"))
		}
		w.Write([]byte(`{
			"Symbol": "AAPL",
			"Name": "Apple Inc",
			"MarketCapitalization": "2500000000000",
			"PERatio": "28.5",
			"BookValue": "4.25",
			"DividendYield": "0.005",
			"EPS": "6.05",
			"ProfitMargin": "0.255",
			"ReturnOnEquityTTM": "1.47",
			"PriceToBookRatio": "None",
			"Beta": "1.25",
			"52WeekHigh": "199.62",
			"52WeekLow": "164.08"
		}`))
	})

	overview, err := service.GetOverview(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetOverview failed: %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"MarketCap", overview.MarketCap, 2500000000000},
		{"PERatio", overview.PERatio, 28.5},
		{"BookValue", overview.BookValue, 4.25},
		{"DividendYield", overview.DividendYield, 0.005},
		{"EPS", overview.EPS, 6.05},
		{"ProfitMargin", overview.ProfitMargin, 0.255},
		{"ROE", overview.ROE, 1.47},
		{"PriceToBook", overview.PriceToBook, 0},
		{"Beta", overview.Beta, 1.25},
		{"Week52High", overview.Week52High, 199.62},
		{"Week52Low", overview.Week52Low, 164.08},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if overview.Name != "Apple Inc" {
		t.Errorf("Name = %v, want Apple Inc", overview.Name)
	}
}

func TestAlphaVantageService_ProviderMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"error message", `{"Error Message": "Invalid API call."}`},
		{"rate limit note", `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`},
		{"information", `{"Information": "The **demo** API key is for demo purposes only."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestAlphaVantageService(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			ctx := context.Background()
			if _, err := service.GetQuote(ctx, "AAPL"); !errors.Is(err, ErrProviderMessage) {
				t.Errorf("GetQuote error = %v, want ErrProviderMessage", err)
			}
			if _, err := service.GetOverview(ctx, "AAPL"); !errors.Is(err, ErrProviderMessage) {
				t.Errorf("GetOverview error = %v, want ErrProviderMessage", err)
			}
			if _, err := service.GetDailyHistory(ctx, "AAPL", 2); !errors.Is(err, ErrProviderMessage) {
				t.Errorf("GetDailyHistory error = %v, want ErrProviderMessage", err)
			}
		})
	}
}

func TestAlphaVantageService_HTTPError(t *testing.T) {
	service := newTestAlphaVantageService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := service.GetDailyHistory(context.Background(), "SPY", 2)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if statusErr.Service != "alphavantage" || statusErr.Operation != "TIME_SERIES_DAILY" {
		t.Errorf("StatusError = %+v", statusErr)
	}
}

const dailySeriesBody = `{
	"Meta Data": {"2. Symbol": "SPY"},
	"Time Series (Daily)": {
		"2024-06-14": {"1. open": "5424.08", "2. high": "5432.39", "3. low": "5403.75", "4. close": "5431.60", "5. volume": "3400000000"},
		"2024-06-12": {"1. open": "5409.13", "2. high": "5447.25", "3. low": "5409.13", "4. close": "5421.03", "5. volume": "3900000000"},
		"2024-06-13": {"1. open": "5441.93", "2. high": "5441.93", "3. low": "5402.51", "4. close": "5433.74", "5. volume": "3500000000"}
	}
}`

func TestAlphaVantageService_GetDailyHistory(t *testing.T) {
	service := newTestAlphaVantageService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "TIME_SERIES_DAILY" {
			t.Errorf("function = %q, want TIME_SERIES_DAILY", q.Get("function"))
		}
		if q.Get("symbol") != "SPY" {
			t.Errorf("symbol = %q, want SPY", q.Get("symbol"))
		}
		w.Write([]byte(dailySeriesBody))
	})

	bars, err := service.GetDailyHistory(context.Background(), "SPY", 2)
	if err != nil {
		t.Fatalf("GetDailyHistory failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("len(bars) = %d, want 2", len(bars))
	}

	// oldest first, trimmed to the most recent two sessions
	if got := bars[0].Timestamp.Format("2006-01-02"); got != "2024-06-13" {
		t.Errorf("bars[0] date = %s, want 2024-06-13", got)
	}
	if bars[0].Close != 5433.74 {
		t.Errorf("bars[0].Close = %v, want 5433.74", bars[0].Close)
	}
	if bars[1].Close != 5431.60 {
		t.Errorf("bars[1].Close = %v, want 5431.60", bars[1].Close)
	}
	if bars[1].Volume != 3400000000 {
		t.Errorf("bars[1].Volume = %v, want 3400000000", bars[1].Volume)
	}
}

func TestAlphaVantageService_GetDailyHistory_AllDays(t *testing.T) {
	service := newTestAlphaVantageService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dailySeriesBody))
	})

	bars, err := service.GetDailyHistory(context.Background(), "SPY", 0)
	if err != nil {
		t.Fatalf("GetDailyHistory failed: %v", err)
	}
	if len(bars) != 3 {
		t.Errorf("len(bars) = %d, want 3", len(bars))
	}
}

func TestAlphaVantageService_GetDailyHistory_Empty(t *testing.T) {
	service := newTestAlphaVantageService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Meta Data": {}, "Time Series (Daily)": {}}`))
	})

	if _, err := service.GetDailyHistory(context.Background(), "IWM", 2); !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}

func TestAlphaVantageService_ParseNumber(t *testing.T) {
	service := NewAlphaVantageService("k", "", 0)

	tests := []struct {
		raw  string
		want float64
	}{
		{"", 0},
		{"None", 0},
		{"-", 0},
		{" 12.5 ", 12.5},
		{"0.0051", 0.0051},
		{"2500000000000", 2500000000000},
		{"-3.2", -3.2},
		{"n/a", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := service.parseNumber("field", tt.raw); got != tt.want {
				t.Errorf("parseNumber(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
