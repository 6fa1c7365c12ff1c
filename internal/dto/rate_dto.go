package dto

import (
	"time"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Dates on the rate query surface use day precision.
const DateLayout = "2006-01-02"

// RateRecordResponse is one day of a gap-filled rate sequence.
type RateRecordResponse struct {
	Date     string          `json:"date"`
	Rate     decimal.Decimal `json:"rate"`
	Inferred bool            `json:"inferred"`
}

// RatesResponse defines the structure for historical rate query responses.
type RatesResponse struct {
	CurrencyCode string               `json:"currencyCode"`
	StartDate    *string              `json:"startDate,omitempty"`
	EndDate      *string              `json:"endDate,omitempty"`
	Records      []RateRecordResponse `json:"records"`
}

// ToRatesResponse converts gap-filled records to the response DTO.
func ToRatesResponse(currencyCode string, start, end *time.Time, records []domain.RateRecord) RatesResponse {
	resp := RatesResponse{
		CurrencyCode: currencyCode,
		Records:      make([]RateRecordResponse, len(records)),
	}
	if start != nil {
		s := start.Format(DateLayout)
		resp.StartDate = &s
	}
	if end != nil {
		e := end.Format(DateLayout)
		resp.EndDate = &e
	}
	for i, rec := range records {
		resp.Records[i] = RateRecordResponse{
			Date:     rec.Date.Format(DateLayout),
			Rate:     rec.Rate,
			Inferred: rec.Inferred,
		}
	}
	return resp
}
