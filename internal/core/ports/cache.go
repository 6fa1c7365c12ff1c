package ports

import (
	"context"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
)

// RateCache is the shared external cache for gap-filled query results.
// Keys identify a (currency, start, end) window. Eviction is wholesale only:
// the import scheduler drops every cached window after a successful batch
// rather than invalidating per key.
type RateCache interface {
	// GetRates returns the cached records for key and whether the key was present.
	GetRates(ctx context.Context, key string) ([]domain.RateRecord, bool, error)

	// PutRates stores the records under key with the cache's configured TTL.
	PutRates(ctx context.Context, key string, records []domain.RateRecord) error

	// EvictAll removes every cached rate window.
	EvictAll(ctx context.Context) error
}
