package repositories

import (
	"context"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
)

// SeriesReader defines read operations for currency series data
type SeriesReader interface {
	// FindSeriesByCode retrieves a series by its ISO 4217 currency code.
	FindSeriesByCode(ctx context.Context, currencyCode string) (*domain.CurrencySeries, error)

	// ListSeries retrieves all configured series ordered by currency code.
	ListSeries(ctx context.Context) ([]domain.CurrencySeries, error)

	// ListEnabledSeries retrieves the series eligible for scheduled imports.
	ListEnabledSeries(ctx context.Context) ([]domain.CurrencySeries, error)
}

// SeriesWriter defines write operations for currency series data
type SeriesWriter interface {
	// SaveSeries persists a new series. Returns apperrors.ErrDuplicate when the
	// currency code is already tracked.
	SaveSeries(ctx context.Context, series domain.CurrencySeries) error

	// SetSeriesEnabled flips the enabled flag. CurrencyCode and the provider
	// series id are immutable; this is the only permitted update.
	SetSeriesEnabled(ctx context.Context, currencyCode string, enabled bool, updatedBy string) (*domain.CurrencySeries, error)
}

// SeriesRepositoryFacade combines all series-related repository interfaces
type SeriesRepositoryFacade interface {
	SeriesReader
	SeriesWriter
}

// SeriesRepositoryWithTx extends SeriesRepositoryFacade with transaction capabilities
type SeriesRepositoryWithTx interface {
	SeriesRepositoryFacade
	TransactionManager
}
