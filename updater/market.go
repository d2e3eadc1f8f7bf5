package updater

import (
	"context"
	"fmt"
	"time"

	"portfolio-updater/models"
	"portfolio-updater/observability"
	"portfolio-updater/services"
)

// Index is a market index tracked in the summary
type Index struct {
	Symbol string
	Name   string
}

// DefaultIndices are the indices reported in market_summary.json, in fetch order
var DefaultIndices = []Index{
	{Symbol: "^GSPC", Name: "S&P 500"},
	{Symbol: "^DJI", Name: "Dow Jones"},
	{Symbol: "^IXIC", Name: "Nasdaq"},
	{Symbol: "^RUT", Name: "Russell 2000"},
	{Symbol: "^VIX", Name: "VIX"},
}

// VolatilitySymbol is the index whose price is also reported as the volatility index
const VolatilitySymbol = "^VIX"

const indexHistoryDays = 2

// MarketSummaryBuilder assembles the market summary from an index history source
type MarketSummaryBuilder struct {
	history services.HistoryProvider
	indices []Index
	metrics *observability.Metrics
	now     func() time.Time
}

// NewMarketSummaryBuilder creates a builder for DefaultIndices. history must
// accept caret index tickers; Yahoo does, Alpha Vantage does not.
func NewMarketSummaryBuilder(history services.HistoryProvider) *MarketSummaryBuilder {
	return &MarketSummaryBuilder{
		history: history,
		indices: DefaultIndices,
		metrics: observability.GetMetrics(),
		now:     time.Now,
	}
}

// Build fetches every index and returns the summary. Indices that fail are omitted;
// the only error is a cancelled context.
func (b *MarketSummaryBuilder) Build(ctx context.Context) (*models.MarketSummary, error) {
	summary := models.NewMarketSummary(b.now())

	for _, index := range b.indices {
		quote, err := b.fetchIndex(ctx, index)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("build market summary: %w", ctxErr)
			}
			observability.Warn("Error fetching index",
				"index", index.Symbol,
				"name", index.Name,
				"error", err)
			b.metrics.RecordIndexFetch(index.Symbol, "failed")
			continue
		}

		summary.Indices[index.Symbol] = quote
		if index.Symbol == VolatilitySymbol {
			summary.VolatilityIndex = quote.Price
		}
		b.metrics.RecordIndexFetch(index.Symbol, "success")
	}

	return summary, nil
}

func (b *MarketSummaryBuilder) fetchIndex(ctx context.Context, index Index) (models.IndexQuote, error) {
	bars, err := b.history.GetDailyHistory(ctx, index.Symbol, indexHistoryDays)
	if err != nil {
		return models.IndexQuote{}, err
	}
	if len(bars) == 0 {
		return models.IndexQuote{}, fmt.Errorf("no history for %s: %w", index.Symbol, services.ErrNoData)
	}
	return indexQuote(index.Name, bars), nil
}

// indexQuote compares the last close with the one before it, or with itself when
// only one bar exists.
func indexQuote(name string, bars []models.Bar) models.IndexQuote {
	current := bars[len(bars)-1].Close
	previous := current
	if len(bars) > 1 {
		previous = bars[len(bars)-2].Close
	}

	return models.IndexQuote{
		Name:          name,
		Price:         models.Round2(current),
		Change:        models.Round2(current - previous),
		ChangePercent: models.Round2(models.Percent(current, previous)),
	}
}
