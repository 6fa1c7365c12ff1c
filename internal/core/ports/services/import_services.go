package services

import (
	"context"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
)

// RateImportSvc reconciles provider observations into the rate store.
// It does not swallow errors; retry policy belongs to the scheduler.
type RateImportSvc interface {
	// ImportSeries fetches observations for one series from one day after the
	// most recent stored date (or the full history) and merges them, returning
	// new/updated/skipped counts.
	ImportSeries(ctx context.Context, series domain.CurrencySeries) (domain.ImportResult, error)

	// ImportByCurrencyCode resolves the series for a currency code and imports it.
	ImportByCurrencyCode(ctx context.Context, currencyCode string) (domain.ImportResult, error)

	// ImportAllEnabled imports every enabled series sequentially. One series'
	// failure does not abort the rest; the first failure is returned alongside
	// the results that did complete.
	ImportAllEnabled(ctx context.Context) ([]domain.ImportResult, error)
}

// ImportSchedulerSvc exposes the scheduled coordinator's manual trigger.
type ImportSchedulerSvc interface {
	// TriggerRun starts an import cycle identical to a timer-driven one. It
	// returns immediately; outcome is observable via metrics and logs.
	TriggerRun(ctx context.Context)
}
