package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperrors"
	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	"github.com/budgetanalyzer/currency-service/internal/core/ports"
	portssvc "github.com/budgetanalyzer/currency-service/internal/core/ports/services"
	"github.com/budgetanalyzer/currency-service/internal/middleware"
	"github.com/budgetanalyzer/currency-service/internal/platform/metrics"
)

// ImportSchedulerConfig tunes the coordinator's locking and retry behavior.
type ImportSchedulerConfig struct {
	LockName     string
	LockMaxHold  time.Duration // ceiling: a crashed holder cannot block longer than this
	LockMinHold  time.Duration // floor: prevents immediate re-acquisition thrash
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// ImportScheduler coordinates scheduled imports across a fleet of identical
// instances: it serializes execution through a distributed lock, retries
// failures with bounded exponential backoff, and evicts the rate cache after
// any successful batch. Failures never propagate to the timer that fired the
// run; every outcome is reported through metrics and logs instead.
type ImportScheduler struct {
	importer portssvc.RateImportSvc
	locker   ports.DistributedLock
	cache    ports.RateCache
	metrics  *metrics.ImportMetrics
	cfg      ImportSchedulerConfig
	logger   *slog.Logger

	// deferTask queues fn to run once after delay without blocking the caller.
	// Swapped out in tests; defaults to time.AfterFunc.
	deferTask func(delay time.Duration, fn func())
}

// attemptState is the retry bookkeeping passed between attempt invocations.
// Each attempt derives its next action purely from (state, outcome); the
// scheduler keeps no mutable per-run fields.
type attemptState struct {
	Attempt int
}

func (s attemptState) next() attemptState {
	return attemptState{Attempt: s.Attempt + 1}
}

// NewImportScheduler creates a new ImportScheduler.
func NewImportScheduler(
	importer portssvc.RateImportSvc,
	locker ports.DistributedLock,
	cache ports.RateCache,
	m *metrics.ImportMetrics,
	cfg ImportSchedulerConfig,
	logger *slog.Logger,
) *ImportScheduler {
	return &ImportScheduler{
		importer: importer,
		locker:   locker,
		cache:    cache,
		metrics:  m,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "import_scheduler")),
		deferTask: func(delay time.Duration, fn func()) {
			time.AfterFunc(delay, fn)
		},
	}
}

var _ portssvc.ImportSchedulerSvc = (*ImportScheduler)(nil)

// TriggerRun starts an import cycle. The cron timer and the manual HTTP
// trigger both enter here, at attempt 1, with identical behavior.
func (s *ImportScheduler) TriggerRun(ctx context.Context) {
	s.runAttempt(ctx, attemptState{Attempt: 1})
}

func (s *ImportScheduler) runAttempt(ctx context.Context, state attemptState) {
	logger := s.logger.With(slog.Int("attempt", state.Attempt))
	ctx = middleware.ContextWithLogger(ctx, logger)

	lease, err := s.locker.TryAcquire(ctx, s.cfg.LockName, s.cfg.LockMaxHold, s.cfg.LockMinHold)
	if err != nil {
		logger.Error("Import lock acquisition errored, skipping cycle", slog.String("error", err.Error()))
		return
	}
	if lease == nil {
		logger.Debug("Import lock held by another instance, skipping cycle")
		return
	}
	defer func() {
		if err := lease.Release(ctx); err != nil {
			logger.Warn("Failed to release import lock", slog.String("error", err.Error()))
		}
	}()

	start := time.Now()
	results, err := s.runBatch(ctx)
	elapsed := time.Since(start)

	if err == nil {
		s.metrics.ObserveAttempt("success", state.Attempt, "none", elapsed.Seconds())
		// Wholesale eviction trades temporary over-eviction across unrelated
		// currencies for a race-free consistency guarantee.
		if evictErr := s.cache.EvictAll(ctx); evictErr != nil {
			logger.Warn("Failed to evict rate cache after import", slog.String("error", evictErr.Error()))
		}
		logger.Info("Scheduled import succeeded",
			slog.Int("series_imported", len(results)),
			slog.Duration("duration", elapsed))
		return
	}

	kind := apperrors.KindOf(err)
	s.metrics.ObserveAttempt("failure", state.Attempt, kind, elapsed.Seconds())
	logger.Error("Scheduled import failed",
		slog.String("error_kind", kind),
		slog.String("error", err.Error()),
		slog.Duration("duration", elapsed))

	if state.Attempt >= s.cfg.MaxAttempts {
		s.metrics.RunsExhausted.Inc()
		logger.Error("Import attempts exhausted, waiting for next scheduled cycle",
			slog.Int("max_attempts", s.cfg.MaxAttempts))
		return
	}

	next := state.next()
	delay := s.backoffDelay(state.Attempt)
	s.metrics.ObserveRetryScheduled(next.Attempt)
	logger.Info("Import retry scheduled",
		slog.Int("next_attempt", next.Attempt),
		slog.Duration("delay", delay))
	// The retry re-enters the full lock-and-run cycle on the deferred task
	// facility; the caller's goroutine is never blocked on the delay.
	s.deferTask(delay, func() {
		s.runAttempt(context.Background(), next)
	})
}

// runBatch executes one batch import, converting panics into attempt failures
// so nothing escapes the scheduler.
func (s *ImportScheduler) runBatch(ctx context.Context) (results []domain.ImportResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import batch panicked: %v", r)
		}
	}()
	return s.importer.ImportAllEnabled(ctx)
}

// backoffDelay computes initialDelay * multiplier^(attempt-1). No jitter.
func (s *ImportScheduler) backoffDelay(attempt int) time.Duration {
	return time.Duration(float64(s.cfg.InitialDelay) * math.Pow(s.cfg.Multiplier, float64(attempt-1)))
}
