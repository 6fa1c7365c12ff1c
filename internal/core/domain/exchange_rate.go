package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is one daily observation published by the provider for a series.
// ToCurrencyCode is denormalized from the owning series for query performance
// and must always agree with it. At most one row exists per (series, date).
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"` // Primary Key (UUID)
	SeriesID         string          `json:"seriesID"`       // FK -> CurrencySeries.seriesID
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"` // day precision, UTC
	AuditFields
}
