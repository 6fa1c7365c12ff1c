package models

// CurrencySeries maps a row of the currency_series table.
type CurrencySeries struct {
	SeriesID         string `json:"seriesID"`
	CurrencyCode     string `json:"currencyCode"`
	ProviderSeriesID string `json:"providerSeriesID"`
	Enabled          bool   `json:"enabled"`
	AuditFields
}
