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
	"github.com/google/uuid"
)

// SeriesService provides administrative operations on tracked currency series.
type SeriesService struct {
	seriesRepo portsrepo.SeriesRepositoryFacade
	provider   ports.RateProvider
	events     ports.SeriesEventPublisher
}

// NewSeriesService creates a new SeriesService.
func NewSeriesService(seriesRepo portsrepo.SeriesRepositoryFacade, provider ports.RateProvider, events ports.SeriesEventPublisher) *SeriesService {
	return &SeriesService{
		seriesRepo: seriesRepo,
		provider:   provider,
		events:     events,
	}
}

var _ portssvc.SeriesSvcFacade = (*SeriesService)(nil)

// CreateSeries registers a new tracked currency. The code must be a valid ISO
// 4217 shape, unused, and the provider must recognize the series id.
func (s *SeriesService) CreateSeries(ctx context.Context, req dto.CreateSeriesRequest, creatorUserID string) (*domain.CurrencySeries, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	code := strings.ToUpper(req.CurrencyCode)
	if !isCurrencyCode(code) {
		return nil, fmt.Errorf("%w: currency code must be 3 uppercase letters", apperrors.ErrValidation)
	}

	if _, err := s.seriesRepo.FindSeriesByCode(ctx, code); err == nil {
		return nil, fmt.Errorf("%w: currency %s is already tracked", apperrors.ErrDuplicate, code)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing series: %w", err)
	}

	exists, err := s.provider.ValidateSeriesExists(ctx, req.ProviderSeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate provider series %s: %w", req.ProviderSeriesID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: provider does not know series id %s", apperrors.ErrValidation, req.ProviderSeriesID)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	now := time.Now()
	series := domain.CurrencySeries{
		SeriesID:         uuid.NewString(),
		CurrencyCode:     code,
		ProviderSeriesID: req.ProviderSeriesID,
		Enabled:          enabled,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.seriesRepo.SaveSeries(ctx, series); err != nil {
		return nil, fmt.Errorf("failed to save series for %s: %w", code, err)
	}

	logger.Info("Currency series created",
		slog.String("currency", code),
		slog.String("provider_series_id", series.ProviderSeriesID),
		slog.Bool("enabled", series.Enabled))

	s.publishEvent(ctx, logger, ports.SeriesEventCreated, series)
	return &series, nil
}

// GetSeriesByCode retrieves a series by its currency code.
func (s *SeriesService) GetSeriesByCode(ctx context.Context, currencyCode string) (*domain.CurrencySeries, error) {
	code := strings.ToUpper(currencyCode)
	series, err := s.seriesRepo.FindSeriesByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get series for %s: %w", code, err)
	}
	return series, nil
}

// ListSeries retrieves all configured series.
func (s *SeriesService) ListSeries(ctx context.Context) ([]domain.CurrencySeries, error) {
	series, err := s.seriesRepo.ListSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	if series == nil {
		return []domain.CurrencySeries{}, nil
	}
	return series, nil
}

// SetSeriesEnabled toggles whether the series participates in scheduled
// imports. Code and provider series id stay immutable.
func (s *SeriesService) SetSeriesEnabled(ctx context.Context, currencyCode string, enabled bool, updaterUserID string) (*domain.CurrencySeries, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	code := strings.ToUpper(currencyCode)
	series, err := s.seriesRepo.SetSeriesEnabled(ctx, code, enabled, updaterUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle series %s: %w", code, err)
	}

	logger.Info("Currency series toggled",
		slog.String("currency", code),
		slog.Bool("enabled", enabled))

	s.publishEvent(ctx, logger, ports.SeriesEventToggled, *series)
	return series, nil
}

// publishEvent emits a lifecycle event. Best effort: bus trouble is logged,
// never surfaced to the admin caller.
func (s *SeriesService) publishEvent(ctx context.Context, logger *slog.Logger, eventType string, series domain.CurrencySeries) {
	event := ports.SeriesEvent{
		EventType:        eventType,
		SeriesID:         series.SeriesID,
		CurrencyCode:     series.CurrencyCode,
		ProviderSeriesID: series.ProviderSeriesID,
		Enabled:          series.Enabled,
		OccurredAt:       time.Now(),
	}
	if err := s.events.PublishSeriesEvent(ctx, event); err != nil {
		logger.Warn("Failed to publish series event",
			slog.String("event_type", eventType),
			slog.String("currency", series.CurrencyCode),
			slog.String("error", err.Error()))
	}
}

// isCurrencyCode checks the ISO 4217 shape (3 ASCII uppercase letters).
func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
