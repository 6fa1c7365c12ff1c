package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateRecord is one day in a gap-filled rate sequence. Inferred marks values
// carried forward from an earlier observation rather than directly stored.
// Ephemeral: computed per query, never persisted.
type RateRecord struct {
	Date     time.Time       `json:"date"`
	Rate     decimal.Decimal `json:"rate"`
	Inferred bool            `json:"inferred"`
}
