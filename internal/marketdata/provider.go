// Package marketdata defines the contracts for upstream data sources.
// Implementations live in subpackages, one per upstream service.
package marketdata

import (
	"context"
	"time"

	"stockwatch/internal/models"
)

// Provider fetches equity market data for a single ticker per call.
// Implementations return typed errors from the errors package and do
// not retry; a failed symbol is reported and the batch moves on.
type Provider interface {
	// PriceHistory returns daily bars covering the trailing lookback
	// window, sorted oldest first.
	PriceHistory(ctx context.Context, symbol string, lookbackDays int) ([]models.Bar, error)

	// Quote returns the latest delayed quote.
	Quote(ctx context.Context, symbol string) (*models.Quote, error)

	// Dividends returns per-share cash dividends over the trailing
	// lookback window, sorted oldest first.
	Dividends(ctx context.Context, symbol string, lookbackDays int) ([]models.DividendEvent, error)

	// Earnings returns recent reported quarters, newest first.
	Earnings(ctx context.Context, symbol string) ([]models.EarningsEvent, error)

	// OptionChain returns the chain for the nearest listed expiry.
	OptionChain(ctx context.Context, symbol string) (*models.OptionChain, error)
}

// InsiderSource fetches insider ownership filings.
type InsiderSource interface {
	// RecentTransactions returns insider trades reported within the
	// trailing window, newest first.
	RecentTransactions(ctx context.Context, symbol string, windowDays int) ([]models.InsiderTransaction, error)
}

// EconSource fetches economic data series.
type EconSource interface {
	// Observations returns series points from start onward, oldest
	// first. Missing observations are dropped, not zero-filled.
	Observations(ctx context.Context, seriesID string, start time.Time) ([]models.EconObservation, error)
}
