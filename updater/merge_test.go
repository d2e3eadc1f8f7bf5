package updater

import (
	"encoding/json"
	"testing"
	"time"

	"portfolio-updater/models"
	"portfolio-updater/services"
)

func TestMerge_Modes(t *testing.T) {
	base := models.NewFundamentals("AAPL", time.Now()).
		With(models.FieldCurrentRatio, 1.5).
		With(models.FieldQuickRatio, 0.8)

	tests := []struct {
		name  string
		patch patch
		rules ruleSet
		field models.Field
		want  float64
	}{
		{"overwrite replaces set value", patch{models.FieldCurrentRatio: 2}, ruleSet{models.FieldCurrentRatio: overwrite}, models.FieldCurrentRatio, 2},
		{"overwrite writes zero", patch{models.FieldQuickRatio: 0}, ruleSet{models.FieldQuickRatio: overwrite}, models.FieldQuickRatio, 0},
		{"fill skips set value", patch{models.FieldCurrentRatio: 2}, ruleSet{models.FieldCurrentRatio: fillIfUnset}, models.FieldCurrentRatio, 1.5},
		{"fill writes unset value", patch{models.FieldProfitMargin: 25}, ruleSet{models.FieldProfitMargin: fillIfUnset}, models.FieldProfitMargin, 25},
		{"field without rule ignored", patch{models.FieldBeta: 1.2}, ruleSet{}, models.FieldBeta, 0},
		{"rule without patch value keeps base", patch{}, ruleSet{models.FieldCurrentRatio: overwrite}, models.FieldCurrentRatio, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := merge(base, tt.patch, tt.rules)
			if v := got.Get(tt.field); v != tt.want {
				t.Errorf("%s = %v, want %v", tt.field, v, tt.want)
			}
		})
	}
}

func TestMerge_DoesNotModifyBase(t *testing.T) {
	base := models.NewFundamentals("AAPL", time.Now())
	out := merge(base, patch{models.FieldPrice: 10}, quoteRules)

	if base.Price != 0 {
		t.Errorf("base.Price = %v, want 0", base.Price)
	}
	if out.Price != 10 {
		t.Errorf("out.Price = %v, want 10", out.Price)
	}
	if out.Symbol != "AAPL" || out.LastUpdated != base.LastUpdated {
		t.Error("merge should carry symbol and timestamp")
	}
}

func TestRuleTables(t *testing.T) {
	tests := []struct {
		name  string
		rules ruleSet
		field models.Field
		want  mergeMode
	}{
		{"ratios current ratio fills", ratiosRules, models.FieldCurrentRatio, fillIfUnset},
		{"ratios quick ratio overwrites", ratiosRules, models.FieldQuickRatio, overwrite},
		{"ratios profit margin fills", ratiosRules, models.FieldProfitMargin, fillIfUnset},
		{"income revenue overwrites", incomeRules, models.FieldRevenue, overwrite},
		{"income profit margin fills", incomeRules, models.FieldProfitMargin, fillIfUnset},
		{"key metrics current ratio overwrites", keyMetricsRules, models.FieldCurrentRatio, overwrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.rules[tt.field]
			if !ok {
				t.Fatalf("no rule for %s", tt.field)
			}
			if got != tt.want {
				t.Errorf("mode = %v, want %v", got, tt.want)
			}
		})
	}

	if _, ok := quoteRules[models.FieldRevenue]; ok {
		t.Error("quote must not touch revenue")
	}
	if _, ok := fallbackRules[models.FieldAvgVolume]; ok {
		t.Error("fallback must not touch avg_volume")
	}
}

func TestKeyMetricsPatch_Percentages(t *testing.T) {
	p := keyMetricsPatch(&services.FMPKeyMetrics{
		PBRatio:       3.1,
		DividendYield: 0.0051,
		ROE:           0.147,
		ROA:           0.071,
	})

	tests := []struct {
		field models.Field
		want  float64
	}{
		{models.FieldPriceToBook, 3.1},
		{models.FieldDividendYield, 0.51},
		{models.FieldROE, 14.7},
		{models.FieldROA, 7.1},
	}
	for _, tt := range tests {
		if got := models.Round2(p[tt.field]); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestIncomePatch(t *testing.T) {
	tests := []struct {
		name        string
		stmt        services.FMPIncomeStatement
		wantRevenue float64
		wantMargin  float64
	}{
		{"normal", services.FMPIncomeStatement{Revenue: ptr(200), NetIncome: 50}, 200, 25},
		{"zero revenue", services.FMPIncomeStatement{Revenue: ptr(0), NetIncome: 50}, 0, 0},
		{"missing revenue divides by one", services.FMPIncomeStatement{NetIncome: 0.5, RevenueMissing: true}, 0, 50},
		{"null revenue", services.FMPIncomeStatement{NetIncome: 5000000000}, 0, 0},
		{"loss", services.FMPIncomeStatement{Revenue: ptr(100), NetIncome: -20}, 100, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := incomePatch(&tt.stmt)
			if p[models.FieldRevenue] != tt.wantRevenue {
				t.Errorf("revenue = %v, want %v", p[models.FieldRevenue], tt.wantRevenue)
			}
			if p[models.FieldProfitMargin] != tt.wantMargin {
				t.Errorf("profit_margin = %v, want %v", p[models.FieldProfitMargin], tt.wantMargin)
			}
		})
	}
}

func TestFallbackPatch_PreviousClose(t *testing.T) {
	oneBar := []models.Bar{{Close: 99, Volume: 1000}}
	twoBars := []models.Bar{{Close: 95}, {Close: 99, Volume: 1000}}

	tests := []struct {
		name       string
		bars       []models.Bar
		quote      *models.Quote
		wantChange float64
		wantPct    float64
	}{
		{"quote previous close", oneBar, &models.Quote{PreviousClose: 98}, 1, 1.02},
		{"prior bar without quote", twoBars, nil, 4, 4.21},
		{"quote beats prior bar", twoBars, &models.Quote{PreviousClose: 98}, 1, 1.02},
		{"single bar without quote", oneBar, nil, 0, 0},
		{"zero previous close in quote ignored", oneBar, &models.Quote{PreviousClose: 0}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fallbackPatch(tt.bars, tt.quote, nil)
			if p[models.FieldPrice] != 99 {
				t.Errorf("price = %v, want 99", p[models.FieldPrice])
			}
			if got := models.Round2(p[models.FieldChange]); got != tt.wantChange {
				t.Errorf("change = %v, want %v", got, tt.wantChange)
			}
			if got := models.Round2(p[models.FieldChangePercent]); got != tt.wantPct {
				t.Errorf("change_percent = %v, want %v", got, tt.wantPct)
			}
			if p[models.FieldVolume] != 1000 {
				t.Errorf("volume = %v, want 1000", p[models.FieldVolume])
			}
		})
	}
}

func TestFallbackPatch_ZeroPreviousClose(t *testing.T) {
	p := fallbackPatch([]models.Bar{{Close: 0}, {Close: 5}}, nil, nil)
	if p[models.FieldChangePercent] != 0 {
		t.Errorf("change_percent = %v, want 0", p[models.FieldChangePercent])
	}
	if p[models.FieldChange] != 5 {
		t.Errorf("change = %v, want 5", p[models.FieldChange])
	}
}

func TestFallbackPatch_Overview(t *testing.T) {
	overview := &models.CompanyOverview{
		MarketCap:     2.5e12,
		PERatio:       28.5,
		DividendYield: 0.005,
		BookValue:     4.25,
		EPS:           6.05,
		Beta:          1.25,
		Week52High:    199.62,
		Week52Low:     164.08,
		ProfitMargin:  0.255,
		ROE:           1.47,
		PriceToBook:   45.1,
	}
	p := fallbackPatch([]models.Bar{{Close: 180}}, nil, overview)

	tests := []struct {
		field models.Field
		want  float64
	}{
		{models.FieldMarketCap, 2.5e12},
		{models.FieldPERatio, 28.5},
		{models.FieldDividendYield, 0.5},
		{models.FieldBookValue, 4.25},
		{models.FieldEPS, 6.05},
		{models.FieldBeta, 1.25},
		{models.FieldWeek52High, 199.62},
		{models.FieldWeek52Low, 164.08},
		{models.FieldProfitMargin, 25.5},
		{models.FieldROE, 147},
		{models.FieldPriceToBook, 45.1},
		{models.FieldDebtToEquity, 0},
		{models.FieldCurrentRatio, 0},
		{models.FieldQuickRatio, 0},
	}
	for _, tt := range tests {
		got, ok := p[tt.field]
		if !ok {
			t.Errorf("%s missing from patch", tt.field)
			continue
		}
		if models.Round2(got) != tt.want {
			t.Errorf("%s = %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestFallbackPatch_NoOverviewZeroesMetadata(t *testing.T) {
	p := fallbackPatch([]models.Bar{{Close: 10}}, nil, nil)
	for _, field := range []models.Field{models.FieldMarketCap, models.FieldPERatio, models.FieldBeta, models.FieldPriceToBook} {
		v, ok := p[field]
		if !ok {
			t.Errorf("%s missing from patch", field)
		}
		if v != 0 {
			t.Errorf("%s = %v, want 0", field, v)
		}
	}
}

func ptr(v float64) *float64 {
	return &v
}

func TestIncomePatch_DecodedStatement(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantMargin float64
	}{
		{"null revenue", `{"revenue": null, "netIncome": 5000000000}`, 0},
		{"absent revenue", `{"netIncome": 0.25}`, 25},
		{"reported revenue", `{"revenue": 400, "netIncome": 100}`, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stmt services.FMPIncomeStatement
			if err := json.Unmarshal([]byte(tt.body), &stmt); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			p := incomePatch(&stmt)
			if p[models.FieldProfitMargin] != tt.wantMargin {
				t.Errorf("profit_margin = %v, want %v", p[models.FieldProfitMargin], tt.wantMargin)
			}
		})
	}
}
