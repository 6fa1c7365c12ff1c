package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperrors"
	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	"github.com/budgetanalyzer/currency-service/internal/core/ports"
	portsrepo "github.com/budgetanalyzer/currency-service/internal/core/ports/repositories"
	portssvc "github.com/budgetanalyzer/currency-service/internal/core/ports/services"
	"github.com/budgetanalyzer/currency-service/internal/dto"
	"github.com/budgetanalyzer/currency-service/internal/middleware"
	"github.com/budgetanalyzer/currency-service/internal/utils"
)

// RateQueryService turns sparse stored observations into dense, gap-filled
// daily rate sequences. Results are cached per query window; the import
// scheduler evicts the whole cache after each successful batch.
type RateQueryService struct {
	rateRepo portsrepo.ExchangeRateRepositoryFacade
	cache    ports.RateCache
}

// NewRateQueryService creates a new RateQueryService.
func NewRateQueryService(rateRepo portsrepo.ExchangeRateRepositoryFacade, cache ports.RateCache) *RateQueryService {
	return &RateQueryService{
		rateRepo: rateRepo,
		cache:    cache,
	}
}

var _ portssvc.RateQuerySvc = (*RateQueryService)(nil)

// RateCacheKey builds the cache key for a query window. Unbounded ends are
// encoded as the literal "null" so (EUR, nil, nil) and (EUR, nil, date) cache
// separately.
func RateCacheKey(currencyCode string, start, end *time.Time) string {
	s, e := "null", "null"
	if start != nil {
		s = start.Format(dto.DateLayout)
	}
	if end != nil {
		e = end.Format(dto.DateLayout)
	}
	return currencyCode + ":" + s + ":" + e
}

// GetRates returns one record per calendar day from the effective start to the
// effective end, carrying the most recent known rate forward through dates the
// provider never published (weekends, holidays).
func (s *RateQueryService) GetRates(ctx context.Context, currencyCode string, startDate, endDate *time.Time) ([]domain.RateRecord, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	code := strings.ToUpper(currencyCode)
	if len(code) != 3 {
		return nil, fmt.Errorf("%w: currency code must be 3 letters", apperrors.ErrValidation)
	}

	var start, end *time.Time
	if startDate != nil {
		d := utils.DayUTC(*startDate)
		start = &d
	}
	if endDate != nil {
		d := utils.DayUTC(*endDate)
		end = &d
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s",
			apperrors.ErrValidation, start.Format(dto.DateLayout), end.Format(dto.DateLayout))
	}

	key := RateCacheKey(code, start, end)
	if records, ok, err := s.cache.GetRates(ctx, key); err != nil {
		logger.Warn("Rate cache read failed, falling back to store",
			slog.String("key", key), slog.String("error", err.Error()))
	} else if ok {
		return records, nil
	}

	earliest, err := s.rateRepo.FindEarliestDate(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to determine earliest stored date for %s: %w", code, err)
	}
	if earliest == nil {
		return nil, fmt.Errorf("%w: no rates stored for currency %s", apperrors.ErrNoDataAvailable, code)
	}
	if start != nil && start.Before(*earliest) {
		return nil, fmt.Errorf("%w: start date %s precedes earliest stored date %s",
			apperrors.ErrDateOutOfRange, start.Format(dto.DateLayout), earliest.Format(dto.DateLayout))
	}

	rows, err := s.rateRepo.FindRange(ctx, code, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored rates for %s: %w", code, err)
	}
	if len(rows) == 0 {
		// The currency has data, just none overlapping this window. A valid
		// empty result, not an error.
		records := []domain.RateRecord{}
		s.populateCache(ctx, logger, key, records)
		return records, nil
	}

	effectiveStart := utils.DayUTC(rows[0].DateEffective)
	if start != nil {
		effectiveStart = *start
	}
	effectiveEnd := utils.DayUTC(rows[len(rows)-1].DateEffective)
	if end != nil {
		effectiveEnd = *end
	}

	// Seed the carry-forward cursor. When the first in-range row falls after
	// the window start, the rate in force on the start date is the most recent
	// observation before it.
	cursor := rows[0].Rate
	if utils.DayUTC(rows[0].DateEffective).After(effectiveStart) {
		prev, err := s.rateRepo.FindMostRecentBefore(ctx, code, effectiveStart)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("failed to seed carry-forward rate for %s: %w", code, err)
			}
			// No observation on or before the start; the first in-range row
			// stays as the seed.
		} else {
			cursor = prev.Rate
		}
	}

	byDate := make(map[time.Time]domain.ExchangeRate, len(rows))
	for _, row := range rows {
		byDate[utils.DayUTC(row.DateEffective)] = row
	}

	records := make([]domain.RateRecord, 0, int(effectiveEnd.Sub(effectiveStart).Hours()/24)+1)
	for day := effectiveStart; !day.After(effectiveEnd); day = day.AddDate(0, 0, 1) {
		if row, ok := byDate[day]; ok {
			cursor = row.Rate
			records = append(records, domain.RateRecord{Date: day, Rate: cursor})
		} else {
			records = append(records, domain.RateRecord{Date: day, Rate: cursor, Inferred: true})
		}
	}

	s.populateCache(ctx, logger, key, records)
	return records, nil
}

// populateCache stores a successful result. Cache failures degrade to a log
// line; the query already succeeded.
func (s *RateQueryService) populateCache(ctx context.Context, logger *slog.Logger, key string, records []domain.RateRecord) {
	if err := s.cache.PutRates(ctx, key, records); err != nil {
		logger.Warn("Failed to populate rate cache",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}
