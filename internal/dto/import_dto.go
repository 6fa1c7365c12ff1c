package dto

import (
	"time"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
)

// ImportResultResponse summarizes one reconciliation run for API consumers.
type ImportResultResponse struct {
	CurrencyCode     string    `json:"currencyCode"`
	ProviderSeriesID string    `json:"providerSeriesID"`
	NewCount         int       `json:"newCount"`
	UpdatedCount     int       `json:"updatedCount"`
	SkippedCount     int       `json:"skippedCount"`
	EarliestDate     *string   `json:"earliestDate,omitempty"`
	LatestDate       *string   `json:"latestDate,omitempty"`
	CompletedAt      time.Time `json:"completedAt"`
}

// ToImportResultResponse converts a domain.ImportResult to its response DTO.
func ToImportResultResponse(result domain.ImportResult) ImportResultResponse {
	resp := ImportResultResponse{
		CurrencyCode:     result.CurrencyCode,
		ProviderSeriesID: result.ProviderSeriesID,
		NewCount:         result.NewCount,
		UpdatedCount:     result.UpdatedCount,
		SkippedCount:     result.SkippedCount,
		CompletedAt:      result.CompletedAt,
	}
	if result.EarliestDate != nil {
		d := result.EarliestDate.Format(DateLayout)
		resp.EarliestDate = &d
	}
	if result.LatestDate != nil {
		d := result.LatestDate.Format(DateLayout)
		resp.LatestDate = &d
	}
	return resp
}
