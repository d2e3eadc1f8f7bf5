package services

import (
	"context"

	"portfolio-updater/models"
)

// FMPServiceInterface defines the primary fundamentals provider
type FMPServiceInterface interface {
	GetQuote(ctx context.Context, symbol string) (*FMPQuote, error)
	GetKeyMetricsTTM(ctx context.Context, symbol string) (*FMPKeyMetrics, error)
	GetRatiosTTM(ctx context.Context, symbol string) (*FMPRatios, error)
	GetIncomeStatement(ctx context.Context, symbol string, limit int) (*FMPIncomeStatement, error)
}

// HistoryProvider returns the most recent daily bars of a symbol, oldest first
type HistoryProvider interface {
	GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error)
}

// AlphaVantageServiceInterface defines the secondary provider used for fallback
type AlphaVantageServiceInterface interface {
	HistoryProvider
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error)
}
