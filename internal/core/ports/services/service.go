package services

// ServiceContainer holds all the services handed to the HTTP layer.
type ServiceContainer struct {
	Series     SeriesSvcFacade
	RateQuery  RateQuerySvc
	RateImport RateImportSvc
	Scheduler  ImportSchedulerSvc
}
