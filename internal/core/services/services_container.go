package services

import (
	"log/slog"

	"github.com/budgetanalyzer/currency-service/internal/core/ports"
	portsrepo "github.com/budgetanalyzer/currency-service/internal/core/ports/repositories"
	portssvc "github.com/budgetanalyzer/currency-service/internal/core/ports/services"
	"github.com/budgetanalyzer/currency-service/internal/platform/metrics"
)

// ContainerDeps bundles the external collaborators the service layer needs.
type ContainerDeps struct {
	Provider      ports.RateProvider
	Cache         ports.RateCache
	Locker        ports.DistributedLock
	Events        ports.SeriesEventPublisher
	ImportMetrics *metrics.ImportMetrics
	BaseCurrency  string
	SchedulerCfg  ImportSchedulerConfig
	Logger        *slog.Logger
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, deps ContainerDeps) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Series = NewSeriesService(repos.SeriesRepo, deps.Provider, deps.Events)
	container.RateQuery = NewRateQueryService(repos.ExchangeRateRepo, deps.Cache)
	container.RateImport = NewRateImportService(repos.SeriesRepo, repos.ExchangeRateRepo, deps.Provider, deps.BaseCurrency)
	container.Scheduler = NewImportScheduler(
		container.RateImport,
		deps.Locker,
		deps.Cache,
		deps.ImportMetrics,
		deps.SchedulerCfg,
		deps.Logger,
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.SeriesSvcFacade    = (*SeriesService)(nil)
	_ portssvc.RateQuerySvc       = (*RateQueryService)(nil)
	_ portssvc.RateImportSvc      = (*RateImportService)(nil)
	_ portssvc.ImportSchedulerSvc = (*ImportScheduler)(nil)
)
