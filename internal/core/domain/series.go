package domain

// CurrencySeries identifies a currency tracked against the external provider.
// CurrencyCode and ProviderSeriesID are immutable after creation; only Enabled
// may change.
type CurrencySeries struct {
	SeriesID         string `json:"seriesID"`         // Primary Key (UUID)
	CurrencyCode     string `json:"currencyCode"`     // ISO 4217, unique (e.g. "EUR")
	ProviderSeriesID string `json:"providerSeriesID"` // opaque provider identifier
	Enabled          bool   `json:"enabled"`          // disabled series are skipped by scheduled imports
	AuditFields
}
