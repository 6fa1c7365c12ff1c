package dto

import (
	"time"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
)

// CreateSeriesRequest defines the structure for registering a new tracked currency.
type CreateSeriesRequest struct {
	CurrencyCode     string `json:"currencyCode" binding:"required,len=3,uppercase"`
	ProviderSeriesID string `json:"providerSeriesID" binding:"required"`
	Enabled          *bool  `json:"enabled"` // defaults to true when omitted
}

// UpdateSeriesEnabledRequest toggles a series' participation in scheduled imports.
type UpdateSeriesEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SeriesResponse defines the structure for API responses containing series details.
type SeriesResponse struct {
	SeriesID         string    `json:"seriesID"`
	CurrencyCode     string    `json:"currencyCode"`
	ProviderSeriesID string    `json:"providerSeriesID"`
	Enabled          bool      `json:"enabled"`
	CreatedAt        time.Time `json:"createdAt"`
	CreatedBy        string    `json:"createdBy"`
	LastUpdatedAt    time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy    string    `json:"lastUpdatedBy"`
}

// ToSeriesResponse converts a domain.CurrencySeries to SeriesResponse DTO
func ToSeriesResponse(series *domain.CurrencySeries) SeriesResponse {
	return SeriesResponse{
		SeriesID:         series.SeriesID,
		CurrencyCode:     series.CurrencyCode,
		ProviderSeriesID: series.ProviderSeriesID,
		Enabled:          series.Enabled,
		CreatedAt:        series.CreatedAt,
		CreatedBy:        series.CreatedBy,
		LastUpdatedAt:    series.LastUpdatedAt,
		LastUpdatedBy:    series.LastUpdatedBy,
	}
}

// ToListSeriesResponse converts a slice of domain.CurrencySeries to response DTOs.
func ToListSeriesResponse(series []domain.CurrencySeries) []SeriesResponse {
	responses := make([]SeriesResponse, len(series))
	for i := range series {
		responses[i] = ToSeriesResponse(&series[i])
	}
	return responses
}
