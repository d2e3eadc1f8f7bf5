package updater

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-updater/models"
	"portfolio-updater/observability"
	"portfolio-updater/services"
)

// ErrInvalidSymbol is returned for symbols that cannot be requested from a provider
var ErrInvalidSymbol = errors.New("invalid symbol")

// fallbackHistoryDays is how many daily bars the fallback asks for
const fallbackHistoryDays = 2

// MergeResult is the outcome of merging one symbol
type MergeResult struct {
	Fundamentals models.Fundamentals
	// Sources lists, in order, the data sources that contributed a patch
	Sources []string
	// Fallback is true when the secondary provider supplied the price
	Fallback bool
}

// source is one step of the merge: a fetch that yields a patch, and the rules it is applied with
type source struct {
	name  string
	rules ruleSet
	fetch func(ctx context.Context, symbol string) (patch, error)
}

// FundamentalsMerger builds a Fundamentals record for one symbol from the primary
// provider, falling back to the secondary provider when no price was obtained.
type FundamentalsMerger struct {
	fmp          services.FMPServiceInterface
	alphaVantage services.AlphaVantageServiceInterface
	metrics      *observability.Metrics
	now          func() time.Time
}

// NewFundamentalsMerger creates a new FundamentalsMerger
func NewFundamentalsMerger(fmp services.FMPServiceInterface, alphaVantage services.AlphaVantageServiceInterface) *FundamentalsMerger {
	return &FundamentalsMerger{
		fmp:          fmp,
		alphaVantage: alphaVantage,
		metrics:      observability.GetMetrics(),
		now:          time.Now,
	}
}

// primarySources returns the primary provider endpoints in merge order
func (m *FundamentalsMerger) primarySources() []source {
	return []source{
		{
			name:  "quote",
			rules: quoteRules,
			fetch: func(ctx context.Context, symbol string) (patch, error) {
				q, err := m.fmp.GetQuote(ctx, symbol)
				if err != nil {
					return nil, err
				}
				return quotePatch(q), nil
			},
		},
		{
			name:  "key-metrics-ttm",
			rules: keyMetricsRules,
			fetch: func(ctx context.Context, symbol string) (patch, error) {
				km, err := m.fmp.GetKeyMetricsTTM(ctx, symbol)
				if err != nil {
					return nil, err
				}
				return keyMetricsPatch(km), nil
			},
		},
		{
			name:  "ratios-ttm",
			rules: ratiosRules,
			fetch: func(ctx context.Context, symbol string) (patch, error) {
				r, err := m.fmp.GetRatiosTTM(ctx, symbol)
				if err != nil {
					return nil, err
				}
				return ratiosPatch(r), nil
			},
		},
		{
			name:  "income-statement",
			rules: incomeRules,
			fetch: func(ctx context.Context, symbol string) (patch, error) {
				stmt, err := m.fmp.GetIncomeStatement(ctx, symbol, 1)
				if err != nil {
					return nil, err
				}
				return incomePatch(stmt), nil
			},
		},
	}
}

// Merge produces the complete, rounded record for symbol. Provider failures leave
// the affected fields at zero and are not errors; only an invalid symbol or a
// cancelled context is.
func (m *FundamentalsMerger) Merge(ctx context.Context, symbol string) (MergeResult, error) {
	if err := validateSymbol(symbol); err != nil {
		return MergeResult{}, err
	}

	logger := observability.WithSymbol(symbol)
	result := MergeResult{Fundamentals: models.NewFundamentals(symbol, m.now())}

	for _, src := range m.primarySources() {
		p, err := src.fetch(ctx, symbol)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return MergeResult{}, fmt.Errorf("merge %s: %w", symbol, ctxErr)
			}
			logger.Debug("Source returned no data", "source", src.name, "error", err)
			continue
		}
		result.Fundamentals = merge(result.Fundamentals, p, src.rules)
		result.Sources = append(result.Sources, src.name)
	}

	if result.Fundamentals.Price == 0 {
		record, ok := m.fallback(ctx, symbol, result.Fundamentals)
		if err := ctx.Err(); err != nil {
			return MergeResult{}, fmt.Errorf("merge %s: %w", symbol, err)
		}
		if ok {
			result.Fundamentals = record
			result.Sources = append(result.Sources, "fallback")
			result.Fallback = true
		}
	}

	result.Fundamentals = result.Fundamentals.Rounded()
	return result, nil
}

// fallback asks the secondary provider for the symbol's latest close and metadata.
// It reports false, leaving the record untouched, when no close is obtainable.
func (m *FundamentalsMerger) fallback(ctx context.Context, symbol string, record models.Fundamentals) (models.Fundamentals, bool) {
	logger := observability.WithSymbol(symbol)

	bars, err := m.alphaVantage.GetDailyHistory(ctx, symbol, fallbackHistoryDays)
	if err != nil || len(bars) == 0 {
		logger.Warn("Fallback provider has no history", "error", err)
		m.metrics.RecordFallback("unavailable")
		return record, false
	}

	quote, err := m.alphaVantage.GetQuote(ctx, symbol)
	if err != nil {
		logger.Debug("Fallback quote unavailable", "error", err)
		quote = nil
	}

	overview, err := m.alphaVantage.GetOverview(ctx, symbol)
	if err != nil {
		logger.Debug("Fallback overview unavailable", "error", err)
		overview = nil
	}

	m.metrics.RecordFallback("applied")
	logger.Info("Applied fallback provider data", "price", bars[len(bars)-1].Close)
	return merge(record, fallbackPatch(bars, quote, overview), fallbackRules), true
}

func validateSymbol(symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSymbol)
	}
	if strings.ContainsAny(symbol, " /?#") {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}
