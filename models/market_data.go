package models

import (
	"time"
)

// Quote is the latest quote returned by the secondary provider's GLOBAL_QUOTE function
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Volume        int64     `json:"volume"`
	LatestDay     string    `json:"latest_day,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Bar represents one daily OHLCV data point
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// CompanyOverview holds the company metadata the secondary provider exposes.
// Ratios are stored as reported (fractions, not percentages).
type CompanyOverview struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	MarketCap     float64 `json:"market_cap"`
	PERatio       float64 `json:"pe_ratio"`
	DividendYield float64 `json:"dividend_yield"`
	BookValue     float64 `json:"book_value"`
	EPS           float64 `json:"eps"`
	Beta          float64 `json:"beta"`
	Week52High    float64 `json:"week52_high"`
	Week52Low     float64 `json:"week52_low"`
	ProfitMargin  float64 `json:"profit_margin"`
	ROE           float64 `json:"roe"`
	PriceToBook   float64 `json:"price_to_book"`
}

// IndexQuote is one entry of the market summary's indices mapping
type IndexQuote struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// MarketStatusClosed is the only status the batch job reports; it runs after the close.
const MarketStatusClosed = "closed"

// DefaultFearGreedIndex is the neutral placeholder the presentation layer expects.
const DefaultFearGreedIndex = 50

// MarketSummary is the record written to market_summary.json
type MarketSummary struct {
	LastUpdated     string                `json:"last_updated"`
	Indices         map[string]IndexQuote `json:"indices"`
	MarketStatus    string                `json:"market_status"`
	FearGreedIndex  int                   `json:"fear_greed_index"`
	VolatilityIndex float64               `json:"volatility_index"`
}

// NewMarketSummary creates an empty summary stamped with now
func NewMarketSummary(now time.Time) *MarketSummary {
	return &MarketSummary{
		LastUpdated:    now.Format(TimestampLayout),
		Indices:        make(map[string]IndexQuote),
		MarketStatus:   MarketStatusClosed,
		FearGreedIndex: DefaultFearGreedIndex,
	}
}
