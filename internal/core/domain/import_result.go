package domain

import "time"

// ImportResult summarizes one reconciliation run for a single series.
// It is a return value only and is never persisted.
type ImportResult struct {
	CurrencyCode     string     `json:"currencyCode"`
	ProviderSeriesID string     `json:"providerSeriesID"`
	NewCount         int        `json:"newCount"`
	UpdatedCount     int        `json:"updatedCount"`
	SkippedCount     int        `json:"skippedCount"`
	EarliestDate     *time.Time `json:"earliestDate,omitempty"` // bounds of the fetched batch, nil when nothing was fetched
	LatestDate       *time.Time `json:"latestDate,omitempty"`
	CompletedAt      time.Time  `json:"completedAt"`
}

// Total returns the number of observations examined in this run.
func (r ImportResult) Total() int {
	return r.NewCount + r.UpdatedCount + r.SkippedCount
}
