package mapping

import (
	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	"github.com/budgetanalyzer/currency-service/internal/models"
)

// ToModelCurrencySeries converts a domain CurrencySeries to a model CurrencySeries
func ToModelCurrencySeries(d domain.CurrencySeries) models.CurrencySeries {
	return models.CurrencySeries{
		SeriesID:         d.SeriesID,
		CurrencyCode:     d.CurrencyCode,
		ProviderSeriesID: d.ProviderSeriesID,
		Enabled:          d.Enabled,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCurrencySeries converts a model CurrencySeries to a domain CurrencySeries
func ToDomainCurrencySeries(m models.CurrencySeries) domain.CurrencySeries {
	return domain.CurrencySeries{
		SeriesID:         m.SeriesID,
		CurrencyCode:     m.CurrencyCode,
		ProviderSeriesID: m.ProviderSeriesID,
		Enabled:          m.Enabled,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCurrencySeriesSlice converts model series rows to domain values.
func ToDomainCurrencySeriesSlice(ms []models.CurrencySeries) []domain.CurrencySeries {
	ds := make([]domain.CurrencySeries, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCurrencySeries(m)
	}
	return ds
}
