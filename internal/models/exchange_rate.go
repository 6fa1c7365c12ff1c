package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate maps a row of the exchange_rates table. Rate uses
// github.com/shopspring/decimal to avoid float drift on currency values.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	SeriesID         string          `json:"seriesID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}
