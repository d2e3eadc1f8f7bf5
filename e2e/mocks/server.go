// Package mocks provides an HTTP mock server for the market data providers used in E2E tests.
package mocks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

const (
	fmpPrefix   = "/fmp"
	avPath      = "/av"
	yahooPrefix = "/yahoo"
)

// MockServer serves configurable FMP, Alpha Vantage and Yahoo chart responses from one httptest server.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	// Response configurations
	fmp        map[string]FMPSymbol
	avQuotes   map[string]AVQuote
	avOverview map[string]AVOverview
	avHistory  map[string][]AVBar
	yahoo      map[string][]YahooBar

	// Error injection
	fmpStatus   int
	avThrottled bool
	yahooStatus int

	// Request tracking for assertions
	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
	Query  string
}

// NewHandler creates the provider handler without starting a server,
// for callers that serve it on their own listener.
func NewHandler() *MockServer {
	return &MockServer{
		fmp:        make(map[string]FMPSymbol),
		avQuotes:   make(map[string]AVQuote),
		avOverview: make(map[string]AVOverview),
		avHistory:  make(map[string][]AVBar),
		yahoo:      make(map[string][]YahooBar),
		requestLog: make([]RequestLog, 0),
	}
}

// NewMockServer creates a new mock server with no symbols configured.
func NewMockServer() *MockServer {
	m := NewHandler()
	m.server = httptest.NewServer(m)
	return m
}

// FMPBaseURL returns the base URL to configure the FMP client with.
func (m *MockServer) FMPBaseURL() string {
	return FMPBaseURL(m.server.URL)
}

// AlphaVantageBaseURL returns the base URL to configure the Alpha Vantage client with.
func (m *MockServer) AlphaVantageBaseURL() string {
	return AlphaVantageBaseURL(m.server.URL)
}

// YahooBaseURL returns the base URL to configure the Yahoo chart client with.
func (m *MockServer) YahooBaseURL() string {
	return YahooBaseURL(m.server.URL)
}

// FMPBaseURL returns the FMP base URL of a handler served at root.
func FMPBaseURL(root string) string {
	return root + fmpPrefix
}

// AlphaVantageBaseURL returns the Alpha Vantage base URL of a handler served at root.
func AlphaVantageBaseURL(root string) string {
	return root + avPath
}

// YahooBaseURL returns the Yahoo chart base URL of a handler served at root.
func YahooBaseURL(root string) string {
	return root + yahooPrefix
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	if m.server != nil {
		m.server.Close()
	}
}

// ServeHTTP implements http.Handler to route requests to the provider handlers.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
	})
	m.mu.Unlock()

	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, fmpPrefix+"/"):
		m.handleFMP(w, r)
	case path == avPath:
		m.handleAlphaVantage(w, r)
	case strings.HasPrefix(path, yahooPrefix+"/"):
		m.handleYahoo(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = make([]RequestLog, 0)
}

// SetFMPSymbol configures every FMP endpoint for symbol.
func (m *MockServer) SetFMPSymbol(symbol string, data FMPSymbol) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fmp[symbol] = data
}

// SetFMPStatus makes every FMP endpoint answer with status. Zero restores normal responses.
func (m *MockServer) SetFMPStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fmpStatus = status
}

// SetAVQuote configures GLOBAL_QUOTE for symbol.
func (m *MockServer) SetAVQuote(symbol string, quote AVQuote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avQuotes[symbol] = quote
}

// SetAVOverview configures OVERVIEW for symbol.
func (m *MockServer) SetAVOverview(symbol string, overview AVOverview) {
	m.mu.Lock()
	defer m.mu.Unlock()
	overview.Symbol = symbol
	m.avOverview[symbol] = overview
}

// SetAVHistory configures TIME_SERIES_DAILY for symbol.
func (m *MockServer) SetAVHistory(symbol string, bars []AVBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avHistory[symbol] = bars
}

// SetAVThrottled makes every Alpha Vantage call answer with a rate limit note.
func (m *MockServer) SetAVThrottled(throttled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avThrottled = throttled
}

// SetYahooHistory configures the daily chart for symbol.
func (m *MockServer) SetYahooHistory(symbol string, bars []YahooBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.yahoo[symbol] = bars
}

// SetYahooStatus makes every chart request answer with status. Zero restores normal responses.
func (m *MockServer) SetYahooStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.yahooStatus = status
}

// CountFMPRequests returns how many FMP requests were made for endpoint.
func (m *MockServer) CountFMPRequests(endpoint string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, req := range m.requestLog {
		if strings.HasPrefix(req.Path, fmpPrefix+"/"+endpoint+"/") {
			n++
		}
	}
	return n
}

func (m *MockServer) handleFMP(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.fmpStatus != 0 {
		http.Error(w, `{"Error Message":"mock failure"}`, m.fmpStatus)
		return
	}

	// /fmp/{endpoint}/{symbol}
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, fmpPrefix+"/"), "/", 2)
	if len(parts) != 2 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	endpoint, symbol := parts[0], parts[1]
	data := m.fmp[symbol]

	var item any
	switch endpoint {
	case "quote":
		if data.Quote != nil {
			item = data.Quote
		}
	case "key-metrics-ttm":
		if data.KeyMetrics != nil {
			item = data.KeyMetrics
		}
	case "ratios-ttm":
		if data.Ratios != nil {
			item = data.Ratios
		}
	case "income-statement":
		if data.Income != nil {
			item = data.Income
		}
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if item == nil {
		writeJSON(w, []any{})
		return
	}
	writeJSON(w, []any{item})
}

func (m *MockServer) handleAlphaVantage(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.avThrottled {
		writeJSON(w, map[string]string{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."})
		return
	}

	q := r.URL.Query()
	symbol := q.Get("symbol")

	switch q.Get("function") {
	case "GLOBAL_QUOTE":
		quote, ok := m.avQuotes[symbol]
		if !ok {
			writeJSON(w, map[string]any{"Global Quote": map[string]string{}})
			return
		}
		writeJSON(w, map[string]any{"Global Quote": map[string]string{
			"01. symbol":             symbol,
			"05. price":              quote.Price,
			"06. volume":             quote.Volume,
			"07. latest trading day": quote.LatestDay,
			"08. previous close":     quote.PreviousClose,
		}})
	case "OVERVIEW":
		overview, ok := m.avOverview[symbol]
		if !ok {
			writeJSON(w, map[string]string{})
			return
		}
		writeJSON(w, overview)
	case "TIME_SERIES_DAILY":
		bars, ok := m.avHistory[symbol]
		if !ok || strings.HasPrefix(symbol, "^") {
			writeJSON(w, map[string]string{"Error Message": "Invalid API call. Please retry or visit the documentation for TIME_SERIES_DAILY."})
			return
		}
		series := make(map[string]map[string]string, len(bars))
		for _, bar := range bars {
			series[bar.Date] = map[string]string{
				"1. open":   bar.Open,
				"2. high":   bar.High,
				"3. low":    bar.Low,
				"4. close":  bar.Close,
				"5. volume": bar.Volume,
			}
		}
		writeJSON(w, map[string]any{
			"Meta Data":           map[string]string{"2. Symbol": symbol},
			"Time Series (Daily)": series,
		})
	default:
		writeJSON(w, map[string]string{"Error Message": "This API function does not exist."})
	}
}

func (m *MockServer) handleYahoo(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.yahooStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(m.yahooStatus)
		json.NewEncoder(w).Encode(chartError("Internal Server Error", "mock failure"))
		return
	}

	// /yahoo/{symbol}
	symbol := strings.TrimPrefix(r.URL.Path, yahooPrefix+"/")
	bars, ok := m.yahoo[symbol]
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(chartError("Not Found", "No data found, symbol may be delisted"))
		return
	}

	timestamps := make([]int64, 0, len(bars))
	var open, high, low, closes, volume []float64
	for _, bar := range bars {
		day, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			http.Error(w, "bad mock date "+bar.Date, http.StatusInternalServerError)
			return
		}
		// Yahoo stamps daily bars at the session open
		timestamps = append(timestamps, day.Add(13*time.Hour+30*time.Minute).Unix())
		open = append(open, bar.Open)
		high = append(high, bar.High)
		low = append(low, bar.Low)
		closes = append(closes, bar.Close)
		volume = append(volume, bar.Volume)
	}

	writeJSON(w, map[string]any{"chart": map[string]any{
		"result": []any{map[string]any{
			"meta":      map[string]any{"symbol": symbol},
			"timestamp": timestamps,
			"indicators": map[string]any{"quote": []any{map[string]any{
				"open":   open,
				"high":   high,
				"low":    low,
				"close":  closes,
				"volume": volume,
			}}},
		}},
		"error": nil,
	}})
}

func chartError(code, description string) map[string]any {
	return map[string]any{"chart": map[string]any{
		"result": nil,
		"error":  map[string]string{"code": code, "description": description},
	}}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
