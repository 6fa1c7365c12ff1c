package repositories

// RepositoryProvider bundles the concrete repositories handed to the service layer.
type RepositoryProvider struct {
	SeriesRepo       SeriesRepositoryWithTx
	ExchangeRateRepo ExchangeRateRepositoryWithTx
}
