package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperrors"
	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	portsrepo "github.com/budgetanalyzer/currency-service/internal/core/ports/repositories"
	"github.com/budgetanalyzer/currency-service/internal/models"
	"github.com/budgetanalyzer/currency-service/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSeriesRepository implements the series repository ports using pgxpool.
type PgxSeriesRepository struct {
	BaseRepository
}

// newPgxSeriesRepository creates a new repository for currency series data.
func newPgxSeriesRepository(pool *pgxpool.Pool) portsrepo.SeriesRepositoryWithTx {
	return &PgxSeriesRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.SeriesRepositoryWithTx = (*PgxSeriesRepository)(nil)

const seriesColumns = `series_id, currency_code, provider_series_id, enabled,
		created_at, created_by, last_updated_at, last_updated_by`

// SaveSeries inserts a new series. The unique constraint on currency_code maps
// to apperrors.ErrDuplicate.
func (r *PgxSeriesRepository) SaveSeries(ctx context.Context, series domain.CurrencySeries) error {
	modelSeries := mapping.ToModelCurrencySeries(series)
	modelSeries.CurrencyCode = strings.ToUpper(modelSeries.CurrencyCode)

	query := `
		INSERT INTO currency_series (
			series_id, currency_code, provider_series_id, enabled,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.Pool.Exec(ctx, query,
		modelSeries.SeriesID, modelSeries.CurrencyCode, modelSeries.ProviderSeriesID, modelSeries.Enabled,
		modelSeries.CreatedAt, modelSeries.CreatedBy, modelSeries.LastUpdatedAt, modelSeries.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: series for currency %s", apperrors.ErrDuplicate, modelSeries.CurrencyCode)
		}
		return fmt.Errorf("failed to insert series for %s: %w", modelSeries.CurrencyCode, err)
	}
	return nil
}

// FindSeriesByCode retrieves a series by its 3-letter currency code.
func (r *PgxSeriesRepository) FindSeriesByCode(ctx context.Context, currencyCode string) (*domain.CurrencySeries, error) {
	query := `
		SELECT ` + seriesColumns + `
		FROM currency_series
		WHERE currency_code = $1;
	`
	var modelSeries models.CurrencySeries
	err := r.Pool.QueryRow(ctx, query, strings.ToUpper(currencyCode)).Scan(
		&modelSeries.SeriesID,
		&modelSeries.CurrencyCode,
		&modelSeries.ProviderSeriesID,
		&modelSeries.Enabled,
		&modelSeries.CreatedAt,
		&modelSeries.CreatedBy,
		&modelSeries.LastUpdatedAt,
		&modelSeries.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("currency series " + currencyCode + " not found")
		}
		return nil, fmt.Errorf("failed to find series by code %s: %w", currencyCode, err)
	}

	domainSeries := mapping.ToDomainCurrencySeries(modelSeries)
	return &domainSeries, nil
}

// ListSeries retrieves all configured series ordered by currency code.
func (r *PgxSeriesRepository) ListSeries(ctx context.Context) ([]domain.CurrencySeries, error) {
	return r.listSeries(ctx, false)
}

// ListEnabledSeries retrieves the series eligible for scheduled imports.
func (r *PgxSeriesRepository) ListEnabledSeries(ctx context.Context) ([]domain.CurrencySeries, error) {
	return r.listSeries(ctx, true)
}

func (r *PgxSeriesRepository) listSeries(ctx context.Context, enabledOnly bool) ([]domain.CurrencySeries, error) {
	query := `
		SELECT ` + seriesColumns + `
		FROM currency_series
	`
	if enabledOnly {
		query += " WHERE enabled = TRUE"
	}
	query += " ORDER BY currency_code;"

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	modelSeries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CurrencySeries, error) {
		var series models.CurrencySeries
		err := row.Scan(
			&series.SeriesID,
			&series.CurrencyCode,
			&series.ProviderSeriesID,
			&series.Enabled,
			&series.CreatedAt,
			&series.CreatedBy,
			&series.LastUpdatedAt,
			&series.LastUpdatedBy,
		)
		return series, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan series: %w", err)
	}

	return mapping.ToDomainCurrencySeriesSlice(modelSeries), nil
}

// SetSeriesEnabled flips the enabled flag and returns the updated series.
// Currency code and provider series id never change after creation.
func (r *PgxSeriesRepository) SetSeriesEnabled(ctx context.Context, currencyCode string, enabled bool, updatedBy string) (*domain.CurrencySeries, error) {
	query := `
		UPDATE currency_series
		SET enabled = $1, last_updated_at = $2, last_updated_by = $3
		WHERE currency_code = $4
		RETURNING ` + seriesColumns + `;
	`
	var modelSeries models.CurrencySeries
	err := r.Pool.QueryRow(ctx, query, enabled, time.Now(), updatedBy, strings.ToUpper(currencyCode)).Scan(
		&modelSeries.SeriesID,
		&modelSeries.CurrencyCode,
		&modelSeries.ProviderSeriesID,
		&modelSeries.Enabled,
		&modelSeries.CreatedAt,
		&modelSeries.CreatedBy,
		&modelSeries.LastUpdatedAt,
		&modelSeries.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("currency series " + currencyCode + " not found")
		}
		return nil, fmt.Errorf("failed to toggle series %s: %w", currencyCode, err)
	}

	domainSeries := mapping.ToDomainCurrencySeries(modelSeries)
	return &domainSeries, nil
}
