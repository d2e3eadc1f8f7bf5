package models

import (
	"time"
)

// TimestampLayout is the ISO-8601 layout used for every timestamp written to disk.
// Local time, microsecond precision, no zone suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// DateLayout is the layout of the market close date in the run metadata.
const DateLayout = "2006-01-02"

// Field names a numeric field of a Fundamentals record by its JSON key.
type Field string

const (
	FieldPrice         Field = "price"
	FieldChange        Field = "change"
	FieldChangePercent Field = "change_percent"
	FieldMarketCap     Field = "market_cap"
	FieldPERatio       Field = "pe_ratio"
	FieldDividendYield Field = "dividend_yield"
	FieldBookValue     Field = "book_value"
	FieldEPS           Field = "eps"
	FieldRevenue       Field = "revenue"
	FieldProfitMargin  Field = "profit_margin"
	FieldDebtToEquity  Field = "debt_to_equity"
	FieldROE           Field = "roe"
	FieldROA           Field = "roa"
	FieldCurrentRatio  Field = "current_ratio"
	FieldQuickRatio    Field = "quick_ratio"
	FieldPriceToBook   Field = "price_to_book"
	FieldPriceToSales  Field = "price_to_sales"
	FieldBeta          Field = "beta"
	FieldWeek52High    Field = "52_week_high"
	FieldWeek52Low     Field = "52_week_low"
	FieldVolume        Field = "volume"
	FieldAvgVolume     Field = "avg_volume"
)

// NumericFields lists every numeric field of a Fundamentals record in output order.
var NumericFields = []Field{
	FieldPrice, FieldChange, FieldChangePercent, FieldMarketCap, FieldPERatio,
	FieldDividendYield, FieldBookValue, FieldEPS, FieldRevenue, FieldProfitMargin,
	FieldDebtToEquity, FieldROE, FieldROA, FieldCurrentRatio, FieldQuickRatio,
	FieldPriceToBook, FieldPriceToSales, FieldBeta, FieldWeek52High, FieldWeek52Low,
	FieldVolume, FieldAvgVolume,
}

// Fundamentals is the per-symbol snapshot written to portfolio_fundamentals.json.
// Every field is always serialized, zero when no provider supplied it.
type Fundamentals struct {
	Symbol        string  `json:"symbol"`
	LastUpdated   string  `json:"last_updated"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	MarketCap     float64 `json:"market_cap"`
	PERatio       float64 `json:"pe_ratio"`
	DividendYield float64 `json:"dividend_yield"`
	BookValue     float64 `json:"book_value"`
	EPS           float64 `json:"eps"`
	Revenue       float64 `json:"revenue"`
	ProfitMargin  float64 `json:"profit_margin"`
	DebtToEquity  float64 `json:"debt_to_equity"`
	ROE           float64 `json:"roe"`
	ROA           float64 `json:"roa"`
	CurrentRatio  float64 `json:"current_ratio"`
	QuickRatio    float64 `json:"quick_ratio"`
	PriceToBook   float64 `json:"price_to_book"`
	PriceToSales  float64 `json:"price_to_sales"`
	Beta          float64 `json:"beta"`
	Week52High    float64 `json:"52_week_high"`
	Week52Low     float64 `json:"52_week_low"`
	Volume        float64 `json:"volume"`
	AvgVolume     float64 `json:"avg_volume"`
}

// NewFundamentals returns a zero-filled record for symbol stamped with now.
func NewFundamentals(symbol string, now time.Time) Fundamentals {
	return Fundamentals{
		Symbol:      symbol,
		LastUpdated: now.Format(TimestampLayout),
	}
}

func (f *Fundamentals) field(name Field) *float64 {
	switch name {
	case FieldPrice:
		return &f.Price
	case FieldChange:
		return &f.Change
	case FieldChangePercent:
		return &f.ChangePercent
	case FieldMarketCap:
		return &f.MarketCap
	case FieldPERatio:
		return &f.PERatio
	case FieldDividendYield:
		return &f.DividendYield
	case FieldBookValue:
		return &f.BookValue
	case FieldEPS:
		return &f.EPS
	case FieldRevenue:
		return &f.Revenue
	case FieldProfitMargin:
		return &f.ProfitMargin
	case FieldDebtToEquity:
		return &f.DebtToEquity
	case FieldROE:
		return &f.ROE
	case FieldROA:
		return &f.ROA
	case FieldCurrentRatio:
		return &f.CurrentRatio
	case FieldQuickRatio:
		return &f.QuickRatio
	case FieldPriceToBook:
		return &f.PriceToBook
	case FieldPriceToSales:
		return &f.PriceToSales
	case FieldBeta:
		return &f.Beta
	case FieldWeek52High:
		return &f.Week52High
	case FieldWeek52Low:
		return &f.Week52Low
	case FieldVolume:
		return &f.Volume
	case FieldAvgVolume:
		return &f.AvgVolume
	default:
		return nil
	}
}

// Get returns the value of a numeric field. Unknown fields read as zero.
func (f Fundamentals) Get(name Field) float64 {
	if p := f.field(name); p != nil {
		return *p
	}
	return 0
}

// With returns a copy of f with the named field set to value.
// Unknown fields leave the copy unchanged.
func (f Fundamentals) With(name Field, value float64) Fundamentals {
	if p := f.field(name); p != nil {
		*p = value
	}
	return f
}

// Rounded returns a copy of f with every numeric field rounded to two decimals.
func (f Fundamentals) Rounded() Fundamentals {
	for _, name := range NumericFields {
		f = f.With(name, Round2(f.Get(name)))
	}
	return f
}
