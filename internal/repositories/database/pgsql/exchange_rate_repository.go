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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxExchangeRateRepository implements the rate repository ports using pgxpool.
// Write methods take the caller's transaction so one reconciliation run commits
// as a unit.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// newPgxExchangeRateRepository creates a new repository for rate observations.
func newPgxExchangeRateRepository(pool *pgxpool.Pool) portsrepo.ExchangeRateRepositoryWithTx {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ExchangeRateRepositoryWithTx = (*PgxExchangeRateRepository)(nil)

const rateColumns = `exchange_rate_id, series_id, from_currency_code, to_currency_code, rate,
		date_effective, created_at, created_by, last_updated_at, last_updated_by`

func scanRate(row pgx.Row) (models.ExchangeRate, error) {
	var modelRate models.ExchangeRate
	err := row.Scan(
		&modelRate.ExchangeRateID,
		&modelRate.SeriesID,
		&modelRate.FromCurrencyCode,
		&modelRate.ToCurrencyCode,
		&modelRate.Rate,
		&modelRate.DateEffective,
		&modelRate.CreatedAt,
		&modelRate.CreatedBy,
		&modelRate.LastUpdatedAt,
		&modelRate.LastUpdatedBy,
	)
	return modelRate, err
}

// FindEarliestDate returns the oldest stored date for a currency, nil when the
// currency has no rows.
func (r *PgxExchangeRateRepository) FindEarliestDate(ctx context.Context, currencyCode string) (*time.Time, error) {
	query := `SELECT MIN(date_effective) FROM exchange_rates WHERE to_currency_code = $1;`

	var earliest *time.Time
	err := r.Pool.QueryRow(ctx, query, strings.ToUpper(currencyCode)).Scan(&earliest)
	if err != nil {
		return nil, fmt.Errorf("failed to find earliest date for %s: %w", currencyCode, err)
	}
	return earliest, nil
}

// FindMostRecentDate returns the newest stored date for a series, nil when the
// series has no rows yet.
func (r *PgxExchangeRateRepository) FindMostRecentDate(ctx context.Context, seriesID string) (*time.Time, error) {
	query := `SELECT MAX(date_effective) FROM exchange_rates WHERE series_id = $1;`

	var mostRecent *time.Time
	err := r.Pool.QueryRow(ctx, query, seriesID).Scan(&mostRecent)
	if err != nil {
		return nil, fmt.Errorf("failed to find most recent date for series %s: %w", seriesID, err)
	}
	return mostRecent, nil
}

// FindRange retrieves observations for a currency within [start, end] ordered
// by date ascending. Nil bounds are unbounded.
func (r *PgxExchangeRateRepository) FindRange(ctx context.Context, currencyCode string, start, end *time.Time) ([]domain.ExchangeRate, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE to_currency_code = $1
		  AND ($2::date IS NULL OR date_effective >= $2)
		  AND ($3::date IS NULL OR date_effective <= $3)
		ORDER BY date_effective ASC;
	`
	rows, err := r.Pool.Query(ctx, query, strings.ToUpper(currencyCode), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate range for %s: %w", currencyCode, err)
	}
	defer rows.Close()

	modelRates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ExchangeRate, error) {
		return scanRate(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rate range for %s: %w", currencyCode, err)
	}

	return mapping.ToDomainExchangeRateSlice(modelRates), nil
}

// FindMostRecentBefore retrieves the newest observation strictly before date.
func (r *PgxExchangeRateRepository) FindMostRecentBefore(ctx context.Context, currencyCode string, date time.Time) (*domain.ExchangeRate, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE to_currency_code = $1 AND date_effective < $2
		ORDER BY date_effective DESC
		LIMIT 1;
	`
	modelRate, err := scanRate(r.Pool.QueryRow(ctx, query, strings.ToUpper(currencyCode), date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no rate stored before " + date.Format("2006-01-02") + " for " + currencyCode)
		}
		return nil, fmt.Errorf("failed to find rate before %s for %s: %w", date.Format("2006-01-02"), currencyCode, err)
	}

	domainRate := mapping.ToDomainExchangeRate(modelRate)
	return &domainRate, nil
}

// FindRateForDateTx looks up the observation for a currency pair on an exact date.
func (r *PgxExchangeRateRepository) FindRateForDateTx(ctx context.Context, tx pgx.Tx, fromCurrencyCode, toCurrencyCode string, date time.Time) (*domain.ExchangeRate, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND date_effective = $3;
	`
	modelRate, err := scanRate(tx.QueryRow(ctx, query, strings.ToUpper(fromCurrencyCode), strings.ToUpper(toCurrencyCode), date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no rate stored on " + date.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to find rate on %s: %w", date.Format("2006-01-02"), err)
	}

	domainRate := mapping.ToDomainExchangeRate(modelRate)
	return &domainRate, nil
}

const insertRateQuery = `
	INSERT INTO exchange_rates (
		exchange_rate_id, series_id, from_currency_code, to_currency_code, rate,
		date_effective, created_at, created_by, last_updated_at, last_updated_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// SaveExchangeRateTx inserts a single observation inside the caller's transaction.
func (r *PgxExchangeRateRepository) SaveExchangeRateTx(ctx context.Context, tx pgx.Tx, rate domain.ExchangeRate) error {
	modelRate := mapping.ToModelExchangeRate(rate)
	_, err := tx.Exec(ctx, insertRateQuery,
		modelRate.ExchangeRateID, modelRate.SeriesID, modelRate.FromCurrencyCode, modelRate.ToCurrencyCode,
		modelRate.Rate, modelRate.DateEffective, modelRate.CreatedAt, modelRate.CreatedBy,
		modelRate.LastUpdatedAt, modelRate.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate for %s on %s: %w",
			modelRate.ToCurrencyCode, modelRate.DateEffective.Format("2006-01-02"), err)
	}
	return nil
}

// SaveAllExchangeRatesTx bulk-inserts observations as one batch round trip.
func (r *PgxExchangeRateRepository) SaveAllExchangeRatesTx(ctx context.Context, tx pgx.Tx, rates []domain.ExchangeRate) error {
	if len(rates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rate := range rates {
		modelRate := mapping.ToModelExchangeRate(rate)
		batch.Queue(insertRateQuery,
			modelRate.ExchangeRateID, modelRate.SeriesID, modelRate.FromCurrencyCode, modelRate.ToCurrencyCode,
			modelRate.Rate, modelRate.DateEffective, modelRate.CreatedAt, modelRate.CreatedBy,
			modelRate.LastUpdatedAt, modelRate.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to bulk insert %d rates: %w", len(rates), err)
	}
	return nil
}

// UpdateExchangeRateValueTx overwrites the value of an existing observation.
func (r *PgxExchangeRateRepository) UpdateExchangeRateValueTx(ctx context.Context, tx pgx.Tx, exchangeRateID string, value decimal.Decimal, updatedAt time.Time, updatedBy string) error {
	query := `
		UPDATE exchange_rates
		SET rate = $1, last_updated_at = $2, last_updated_by = $3
		WHERE exchange_rate_id = $4;
	`
	tag, err := tx.Exec(ctx, query, value, updatedAt, updatedBy, exchangeRateID)
	if err != nil {
		return fmt.Errorf("failed to update rate %s: %w", exchangeRateID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("exchange rate " + exchangeRateID + " not found")
	}
	return nil
}
