package repositories

import (
	"context"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ExchangeRateReader defines read operations for stored rate observations
type ExchangeRateReader interface {
	// FindEarliestDate returns the oldest stored observation date for a currency,
	// or (nil, nil) when the currency has no rows at all.
	FindEarliestDate(ctx context.Context, currencyCode string) (*time.Time, error)

	// FindMostRecentDate returns the newest stored observation date for a series,
	// or (nil, nil) when the series has no rows yet.
	FindMostRecentDate(ctx context.Context, seriesID string) (*time.Time, error)

	// FindRange retrieves observations for a currency within [start, end] ordered
	// by date ascending. Nil bounds are unbounded.
	FindRange(ctx context.Context, currencyCode string, start, end *time.Time) ([]domain.ExchangeRate, error)

	// FindMostRecentBefore retrieves the newest observation strictly before date.
	// Returns apperrors.ErrNotFound when there is none.
	FindMostRecentBefore(ctx context.Context, currencyCode string, date time.Time) (*domain.ExchangeRate, error)

	// FindRateForDateTx looks up the observation for a currency pair on an exact
	// date inside a running transaction. Returns apperrors.ErrNotFound on miss.
	FindRateForDateTx(ctx context.Context, tx pgx.Tx, fromCurrencyCode, toCurrencyCode string, date time.Time) (*domain.ExchangeRate, error)
}

// ExchangeRateWriter defines write operations for stored rate observations.
// All writes run inside a caller-owned transaction so one reconciliation run
// commits or rolls back as a unit.
type ExchangeRateWriter interface {
	// SaveExchangeRateTx inserts a single observation.
	SaveExchangeRateTx(ctx context.Context, tx pgx.Tx, rate domain.ExchangeRate) error

	// SaveAllExchangeRatesTx bulk-inserts observations (first import fast path).
	SaveAllExchangeRatesTx(ctx context.Context, tx pgx.Tx, rates []domain.ExchangeRate) error

	// UpdateExchangeRateValueTx overwrites the value of an existing observation
	// (upstream revision path).
	UpdateExchangeRateValueTx(ctx context.Context, tx pgx.Tx, exchangeRateID string, value decimal.Decimal, updatedAt time.Time, updatedBy string) error
}

// ExchangeRateRepositoryFacade combines all rate-related repository interfaces
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}

// ExchangeRateRepositoryWithTx extends ExchangeRateRepositoryFacade with transaction capabilities
type ExchangeRateRepositoryWithTx interface {
	ExchangeRateRepositoryFacade
	TransactionManager
}
