package services

import (
	"context"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	"github.com/budgetanalyzer/currency-service/internal/dto"
)

// SeriesReaderSvc defines read operations for currency series
type SeriesReaderSvc interface {
	// GetSeriesByCode retrieves a series by its currency code.
	GetSeriesByCode(ctx context.Context, currencyCode string) (*domain.CurrencySeries, error)

	// ListSeries retrieves all configured series.
	ListSeries(ctx context.Context) ([]domain.CurrencySeries, error)
}

// SeriesWriterSvc defines administrative write operations for currency series
type SeriesWriterSvc interface {
	// CreateSeries registers a new tracked currency after validating the code
	// format, uniqueness and that the provider knows the series id.
	CreateSeries(ctx context.Context, req dto.CreateSeriesRequest, creatorUserID string) (*domain.CurrencySeries, error)

	// SetSeriesEnabled toggles whether the series participates in scheduled imports.
	SetSeriesEnabled(ctx context.Context, currencyCode string, enabled bool, updaterUserID string) (*domain.CurrencySeries, error)
}

// SeriesSvcFacade combines all series-related service interfaces
type SeriesSvcFacade interface {
	SeriesReaderSvc
	SeriesWriterSvc
}
