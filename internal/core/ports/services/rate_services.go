package services

import (
	"context"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
)

// RateQuerySvc serves gap-filled historical rate queries.
type RateQuerySvc interface {
	// GetRates returns one record per calendar day over the effective window,
	// carrying the most recent known rate forward through gaps. Nil bounds are
	// unbounded. Fails with apperrors.ErrValidation (start after end),
	// apperrors.ErrNoDataAvailable (currency has no rows at all) or
	// apperrors.ErrDateOutOfRange (start precedes the earliest stored date).
	GetRates(ctx context.Context, currencyCode string, startDate, endDate *time.Time) ([]domain.RateRecord, error)
}
