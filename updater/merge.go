package updater

import (
	"portfolio-updater/models"
	"portfolio-updater/services"
)

// mergeMode decides how a patch value lands on the record
type mergeMode int

const (
	// overwrite replaces the current value, zero included
	overwrite mergeMode = iota
	// fillIfUnset writes only while the current value is still zero
	fillIfUnset
)

// patch is the set of fields one data source reported
type patch map[models.Field]float64

// ruleSet maps each field a source may touch to its merge mode.
// Fields missing from the set are ignored.
type ruleSet map[models.Field]mergeMode

// merge folds p into base under rules and returns the new record; base is not modified.
func merge(base models.Fundamentals, p patch, rules ruleSet) models.Fundamentals {
	out := base
	for _, field := range models.NumericFields {
		value, ok := p[field]
		if !ok {
			continue
		}
		mode, ok := rules[field]
		if !ok {
			continue
		}
		if mode == fillIfUnset && out.Get(field) != 0 {
			continue
		}
		out = out.With(field, value)
	}
	return out
}

var quoteRules = ruleSet{
	models.FieldPrice:         overwrite,
	models.FieldChange:        overwrite,
	models.FieldChangePercent: overwrite,
	models.FieldMarketCap:     overwrite,
	models.FieldPERatio:       overwrite,
	models.FieldEPS:           overwrite,
	models.FieldBeta:          overwrite,
	models.FieldVolume:        overwrite,
	models.FieldAvgVolume:     overwrite,
	models.FieldWeek52High:    overwrite,
	models.FieldWeek52Low:     overwrite,
}

var keyMetricsRules = ruleSet{
	models.FieldPriceToBook:   overwrite,
	models.FieldPriceToSales:  overwrite,
	models.FieldDividendYield: overwrite,
	models.FieldROE:           overwrite,
	models.FieldROA:           overwrite,
	models.FieldDebtToEquity:  overwrite,
	models.FieldCurrentRatio:  overwrite,
}

var ratiosRules = ruleSet{
	models.FieldCurrentRatio: fillIfUnset,
	models.FieldQuickRatio:   overwrite,
	models.FieldProfitMargin: fillIfUnset,
}

var incomeRules = ruleSet{
	models.FieldRevenue:      overwrite,
	models.FieldProfitMargin: fillIfUnset,
}

var fallbackRules = ruleSet{
	models.FieldPrice:         overwrite,
	models.FieldChange:        overwrite,
	models.FieldChangePercent: overwrite,
	models.FieldMarketCap:     overwrite,
	models.FieldPERatio:       overwrite,
	models.FieldDividendYield: overwrite,
	models.FieldBookValue:     overwrite,
	models.FieldEPS:           overwrite,
	models.FieldBeta:          overwrite,
	models.FieldWeek52High:    overwrite,
	models.FieldWeek52Low:     overwrite,
	models.FieldVolume:        overwrite,
	models.FieldProfitMargin:  overwrite,
	models.FieldROE:           overwrite,
	models.FieldDebtToEquity:  overwrite,
	models.FieldCurrentRatio:  overwrite,
	models.FieldQuickRatio:    overwrite,
	models.FieldPriceToBook:   overwrite,
}

func quotePatch(q *services.FMPQuote) patch {
	return patch{
		models.FieldPrice:         q.Price,
		models.FieldChange:        q.Change,
		models.FieldChangePercent: q.ChangesPercentage,
		models.FieldMarketCap:     q.MarketCap,
		models.FieldPERatio:       q.PE,
		models.FieldEPS:           q.EPS,
		models.FieldBeta:          q.Beta,
		models.FieldVolume:        q.Volume,
		models.FieldAvgVolume:     q.AvgVolume,
		models.FieldWeek52High:    q.YearHigh,
		models.FieldWeek52Low:     q.YearLow,
	}
}

// keyMetricsPatch converts fractional yields and returns to percentages
func keyMetricsPatch(km *services.FMPKeyMetrics) patch {
	return patch{
		models.FieldPriceToBook:   km.PBRatio,
		models.FieldPriceToSales:  km.PSRatio,
		models.FieldDividendYield: km.DividendYield * 100,
		models.FieldROE:           km.ROE * 100,
		models.FieldROA:           km.ROA * 100,
		models.FieldDebtToEquity:  km.DebtToEquity,
		models.FieldCurrentRatio:  km.CurrentRatio,
	}
}

func ratiosPatch(r *services.FMPRatios) patch {
	return patch{
		models.FieldCurrentRatio: r.Current(),
		models.FieldQuickRatio:   r.Quick(),
		models.FieldProfitMargin: r.ProfitMargin() * 100,
	}
}

// incomePatch derives profit margin from net income. An absent revenue key
// divides by one; a null or zero revenue yields a zero margin.
func incomePatch(stmt *services.FMPIncomeStatement) patch {
	revenue := 0.0
	if stmt.Revenue != nil {
		revenue = *stmt.Revenue
	}
	divisor := revenue
	if stmt.RevenueMissing {
		divisor = 1
	}

	margin := 0.0
	if divisor != 0 {
		margin = stmt.NetIncome / divisor * 100
	}

	return patch{
		models.FieldRevenue:      revenue,
		models.FieldProfitMargin: margin,
	}
}

// fallbackPatch builds the secondary provider's view of a symbol from its latest
// bars plus optional quote and overview. bars must not be empty.
// Previous close comes from the quote, then the prior bar, then the close itself.
func fallbackPatch(bars []models.Bar, quote *models.Quote, overview *models.CompanyOverview) patch {
	last := bars[len(bars)-1]
	price := last.Close

	previous := price
	switch {
	case quote != nil && quote.PreviousClose != 0:
		previous = quote.PreviousClose
	case len(bars) > 1:
		previous = bars[len(bars)-2].Close
	}

	p := patch{
		models.FieldPrice:         price,
		models.FieldChange:        price - previous,
		models.FieldChangePercent: models.Percent(price, previous),
		models.FieldVolume:        float64(last.Volume),
	}

	// Metadata the provider does not report lands as zero.
	var o models.CompanyOverview
	if overview != nil {
		o = *overview
	}
	p[models.FieldMarketCap] = o.MarketCap
	p[models.FieldPERatio] = o.PERatio
	p[models.FieldDividendYield] = o.DividendYield * 100
	p[models.FieldBookValue] = o.BookValue
	p[models.FieldEPS] = o.EPS
	p[models.FieldBeta] = o.Beta
	p[models.FieldWeek52High] = o.Week52High
	p[models.FieldWeek52Low] = o.Week52Low
	p[models.FieldProfitMargin] = o.ProfitMargin * 100
	p[models.FieldROE] = o.ROE * 100
	p[models.FieldPriceToBook] = o.PriceToBook
	p[models.FieldDebtToEquity] = 0
	p[models.FieldCurrentRatio] = 0
	p[models.FieldQuickRatio] = 0

	return p
}
