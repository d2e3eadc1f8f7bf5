package mocks

// FMPQuote is one element of the FMP /quote response array.
type FMPQuote struct {
	Symbol            string  `json:"symbol"`
	Price             float64 `json:"price"`
	Change            float64 `json:"change,omitempty"`
	ChangesPercentage float64 `json:"changesPercentage,omitempty"`
	MarketCap         float64 `json:"marketCap,omitempty"`
	PE                float64 `json:"pe,omitempty"`
	EPS               float64 `json:"eps,omitempty"`
	Beta              float64 `json:"beta,omitempty"`
	Volume            float64 `json:"volume,omitempty"`
	AvgVolume         float64 `json:"avgVolume,omitempty"`
	YearHigh          float64 `json:"yearHigh,omitempty"`
	YearLow           float64 `json:"yearLow,omitempty"`
}

// FMPKeyMetrics is one element of the FMP /key-metrics-ttm response array.
type FMPKeyMetrics struct {
	PBRatio       float64 `json:"pbRatioTTM,omitempty"`
	PSRatio       float64 `json:"psRatioTTM,omitempty"`
	DividendYield float64 `json:"dividendYieldTTM,omitempty"`
	ROE           float64 `json:"roeTTM,omitempty"`
	ROA           float64 `json:"roaTTM,omitempty"`
	DebtToEquity  float64 `json:"debtToEquityTTM,omitempty"`
	CurrentRatio  float64 `json:"currentRatioTTM,omitempty"`
}

// FMPRatios is one element of the FMP /ratios-ttm response array.
type FMPRatios struct {
	CurrentRatio    float64 `json:"currentRatio,omitempty"`
	QuickRatio      float64 `json:"quickRatio,omitempty"`
	NetProfitMargin float64 `json:"netProfitMargin,omitempty"`
}

// FMPIncomeStatement is one element of the FMP /income-statement response array.
type FMPIncomeStatement struct {
	Date      string  `json:"date"`
	Revenue   float64 `json:"revenue"`
	NetIncome float64 `json:"netIncome"`
}

// FMPSymbol groups every FMP payload served for one symbol.
// A nil entry is served as an empty array.
type FMPSymbol struct {
	Quote      *FMPQuote
	KeyMetrics *FMPKeyMetrics
	Ratios     *FMPRatios
	Income     *FMPIncomeStatement
}

// AVBar is one daily close served by TIME_SERIES_DAILY.
type AVBar struct {
	Date   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// YahooBar is one daily session served by the chart endpoint. Date is YYYY-MM-DD.
type YahooBar struct {
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// AVQuote is the GLOBAL_QUOTE payload for one symbol.
type AVQuote struct {
	Price         string
	PreviousClose string
	Volume        string
	LatestDay     string
}

// AVOverview is the OVERVIEW payload for one symbol.
type AVOverview struct {
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
