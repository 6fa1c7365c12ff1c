package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
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
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// importActor is recorded in audit columns for rows written by reconciliation.
const importActor = "rate-importer"

// RateImportService merges freshly fetched provider observations into the
// rate store with new/updated/skipped accounting. It never swallows provider
// errors; catching and retrying them is the scheduler's job.
type RateImportService struct {
	seriesRepo   portsrepo.SeriesRepositoryFacade
	rateRepo     portsrepo.ExchangeRateRepositoryWithTx
	provider     ports.RateProvider
	baseCurrency string
}

// NewRateImportService creates a new RateImportService. baseCurrency is the
// fixed base of every stored rate (the provider publishes everything against it).
func NewRateImportService(
	seriesRepo portsrepo.SeriesRepositoryFacade,
	rateRepo portsrepo.ExchangeRateRepositoryWithTx,
	provider ports.RateProvider,
	baseCurrency string,
) *RateImportService {
	return &RateImportService{
		seriesRepo:   seriesRepo,
		rateRepo:     rateRepo,
		provider:     provider,
		baseCurrency: strings.ToUpper(baseCurrency),
	}
}

var _ portssvc.RateImportSvc = (*RateImportService)(nil)

// ImportByCurrencyCode resolves the series for a currency code and imports it.
func (s *RateImportService) ImportByCurrencyCode(ctx context.Context, currencyCode string) (domain.ImportResult, error) {
	code := strings.ToUpper(currencyCode)
	if len(code) != 3 {
		return domain.ImportResult{}, fmt.Errorf("%w: currency code must be 3 letters", apperrors.ErrValidation)
	}
	series, err := s.seriesRepo.FindSeriesByCode(ctx, code)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("failed to resolve series for %s: %w", code, err)
	}
	return s.ImportSeries(ctx, *series)
}

// ImportAllEnabled imports every enabled series sequentially. A failing series
// does not abort the rest; the first failure is returned alongside the results
// that completed so the caller can classify it.
func (s *RateImportService) ImportAllEnabled(ctx context.Context) ([]domain.ImportResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	enabled, err := s.seriesRepo.ListEnabledSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled series: %w", err)
	}
	if len(enabled) == 0 {
		logger.Info("No enabled series to import")
		return []domain.ImportResult{}, nil
	}

	results := make([]domain.ImportResult, 0, len(enabled))
	var firstErr error
	for _, series := range enabled {
		result, err := s.ImportSeries(ctx, series)
		if err != nil {
			logger.Error("Series import failed",
				slog.String("currency", series.CurrencyCode),
				slog.String("provider_series_id", series.ProviderSeriesID),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = fmt.Errorf("import of %s failed: %w", series.CurrencyCode, err)
			}
			continue
		}
		results = append(results, result)
	}

	logger.Info("Batch import finished",
		slog.Int("series_total", len(enabled)),
		slog.Int("series_succeeded", len(results)))
	return results, firstErr
}

// ImportSeries fetches observations newer than the most recent stored date and
// reconciles them into the store inside one transaction.
func (s *RateImportService) ImportSeries(ctx context.Context, series domain.CurrencySeries) (domain.ImportResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("currency", series.CurrencyCode),
		slog.String("provider_series_id", series.ProviderSeriesID),
	)

	result := domain.ImportResult{
		CurrencyCode:     series.CurrencyCode,
		ProviderSeriesID: series.ProviderSeriesID,
	}

	mostRecent, err := s.rateRepo.FindMostRecentDate(ctx, series.SeriesID)
	if err != nil {
		return result, fmt.Errorf("failed to determine most recent stored date: %w", err)
	}

	// Repeated runs are naturally incremental: request one day past what we
	// already hold, or the full history on the very first import.
	var since *time.Time
	if mostRecent != nil {
		d := utils.DayUTC(*mostRecent).AddDate(0, 0, 1)
		since = &d
	}

	observations, err := s.provider.FetchObservations(ctx, series.ProviderSeriesID, since)
	if err != nil {
		return result, err
	}
	if len(observations) == 0 {
		logger.Info("Provider returned no new observations")
		result.CompletedAt = time.Now()
		return result, nil
	}

	rows := s.buildRows(series, observations)
	earliest := rows[0].DateEffective
	latest := rows[len(rows)-1].DateEffective
	result.EarliestDate = &earliest
	result.LatestDate = &latest

	tx, err := s.rateRepo.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer func() {
		_ = s.rateRepo.Rollback(ctx, tx)
	}()

	if mostRecent == nil {
		// First import for this series: the store is provably empty for it,
		// so skip per-row lookups and bulk-insert the whole batch.
		if err := s.rateRepo.SaveAllExchangeRatesTx(ctx, tx, rows); err != nil {
			return result, fmt.Errorf("failed to bulk insert first import: %w", err)
		}
		result.NewCount = len(rows)
	} else if err := s.reconcileRows(ctx, tx, logger, rows, &result); err != nil {
		return result, err
	}

	if err := s.rateRepo.Commit(ctx, tx); err != nil {
		return result, err
	}

	result.CompletedAt = time.Now()
	logger.Info("Series import completed",
		slog.Int("new", result.NewCount),
		slog.Int("updated", result.UpdatedCount),
		slog.Int("skipped", result.SkippedCount))
	return result, nil
}

// buildRows denormalizes the target currency onto each observation and sorts
// by date so batch bounds and insert order are deterministic.
func (s *RateImportService) buildRows(series domain.CurrencySeries, observations map[time.Time]decimal.Decimal) []domain.ExchangeRate {
	now := time.Now()
	rows := make([]domain.ExchangeRate, 0, len(observations))
	for date, value := range observations {
		rows = append(rows, domain.ExchangeRate{
			ExchangeRateID:   uuid.NewString(),
			SeriesID:         series.SeriesID,
			FromCurrencyCode: s.baseCurrency,
			ToCurrencyCode:   series.CurrencyCode,
			Rate:             value,
			DateEffective:    utils.DayUTC(date),
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     importActor,
				LastUpdatedAt: now,
				LastUpdatedBy: importActor,
			},
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].DateEffective.Before(rows[j].DateEffective)
	})
	return rows
}

// reconcileRows merges the fetched batch row by row: insert misses, overwrite
// changed values, skip equal ones.
func (s *RateImportService) reconcileRows(ctx context.Context, tx pgx.Tx, logger *slog.Logger, rows []domain.ExchangeRate, result *domain.ImportResult) error {
	for _, row := range rows {
		existing, err := s.rateRepo.FindRateForDateTx(ctx, tx, row.FromCurrencyCode, row.ToCurrencyCode, row.DateEffective)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("failed to look up stored rate for %s: %w", row.DateEffective.Format(dto.DateLayout), err)
			}
			if err := s.rateRepo.SaveExchangeRateTx(ctx, tx, row); err != nil {
				return fmt.Errorf("failed to insert rate for %s: %w", row.DateEffective.Format(dto.DateLayout), err)
			}
			result.NewCount++
			continue
		}

		if existing.Rate.Equal(row.Rate) {
			result.SkippedCount++
			continue
		}

		// Published rates are expected to never change. The provider revising
		// history is anomalous but not fatal; take the new value and flag it.
		logger.Warn("Stored rate differs from provider value, overwriting",
			slog.String("date", row.DateEffective.Format(dto.DateLayout)),
			slog.String("stored", existing.Rate.String()),
			slog.String("fetched", row.Rate.String()))
		if err := s.rateRepo.UpdateExchangeRateValueTx(ctx, tx, existing.ExchangeRateID, row.Rate, time.Now(), importActor); err != nil {
			return fmt.Errorf("failed to update revised rate for %s: %w", row.DateEffective.Format(dto.DateLayout), err)
		}
		result.UpdatedCount++
	}
	return nil
}
