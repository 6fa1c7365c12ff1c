package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RateProvider is the gateway to the external time-series rate provider.
// Implementations classify transport/parse failures as apperrors.ProviderError.
type RateProvider interface {
	// ValidateSeriesExists reports whether the provider knows the series id.
	ValidateSeriesExists(ctx context.Context, providerSeriesID string) (bool, error)

	// FetchObservations returns published (date, rate) observations for a series.
	// A nil since fetches the full history; otherwise observations from since
	// onward. An empty map is a valid result.
	FetchObservations(ctx context.Context, providerSeriesID string, since *time.Time) (map[time.Time]decimal.Decimal, error)
}
