package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	"github.com/budgetanalyzer/currency-service/internal/core/ports"
	"github.com/budgetanalyzer/currency-service/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

// stubImporter returns one queued outcome per call, in order.
type stubImporter struct {
	outcomes []error
	calls    int
	panics   bool
}

func (s *stubImporter) ImportSeries(ctx context.Context, series domain.CurrencySeries) (domain.ImportResult, error) {
	return domain.ImportResult{}, nil
}

func (s *stubImporter) ImportByCurrencyCode(ctx context.Context, currencyCode string) (domain.ImportResult, error) {
	return domain.ImportResult{}, nil
}

func (s *stubImporter) ImportAllEnabled(ctx context.Context) ([]domain.ImportResult, error) {
	idx := s.calls
	s.calls++
	if s.panics {
		panic("importer exploded")
	}
	if idx < len(s.outcomes) && s.outcomes[idx] != nil {
		return nil, s.outcomes[idx]
	}
	return []domain.ImportResult{{CurrencyCode: "EUR"}}, nil
}

// stubLease counts releases.
type stubLease struct {
	releases int
}

func (l *stubLease) Release(ctx context.Context) error {
	l.releases++
	return nil
}

// stubLock hands out leases unless held elsewhere or erroring.
type stubLock struct {
	heldElsewhere bool
	acquireErr    error
	acquisitions  int
	lease         *stubLease
}

func (l *stubLock) TryAcquire(ctx context.Context, name string, maxHold, minHold time.Duration) (ports.LockLease, error) {
	l.acquisitions++
	if l.acquireErr != nil {
		return nil, l.acquireErr
	}
	if l.heldElsewhere {
		return nil, nil
	}
	return l.lease, nil
}

// stubRateCache records evictions.
type stubRateCache struct {
	evictions int
	evictErr  error
}

func (c *stubRateCache) GetRates(ctx context.Context, key string) ([]domain.RateRecord, bool, error) {
	return nil, false, nil
}

func (c *stubRateCache) PutRates(ctx context.Context, key string, records []domain.RateRecord) error {
	return nil
}

func (c *stubRateCache) EvictAll(ctx context.Context) error {
	c.evictions++
	return c.evictErr
}

// deferredTask captures a queued retry so the test can run it synchronously.
type deferredTask struct {
	delay time.Duration
	fn    func()
}

type ImportSchedulerTestSuite struct {
	suite.Suite
	importer *stubImporter
	lock     *stubLock
	cache    *stubRateCache
	metrics  *metrics.ImportMetrics
	deferred []deferredTask
	sched    *ImportScheduler
}

func (suite *ImportSchedulerTestSuite) SetupTest() {
	suite.importer = &stubImporter{}
	suite.lock = &stubLock{lease: &stubLease{}}
	suite.cache = &stubRateCache{}
	suite.metrics = metrics.NewImportMetrics(prometheus.NewRegistry())
	suite.deferred = nil

	cfg := ImportSchedulerConfig{
		LockName:     "currency-import",
		LockMaxHold:  15 * time.Minute,
		LockMinHold:  30 * time.Second,
		MaxAttempts:  3,
		InitialDelay: time.Minute,
		Multiplier:   2.0,
	}
	suite.sched = NewImportScheduler(suite.importer, suite.lock, suite.cache, suite.metrics, cfg, slog.Default())
	suite.sched.deferTask = func(delay time.Duration, fn func()) {
		suite.deferred = append(suite.deferred, deferredTask{delay: delay, fn: fn})
	}
}

// drainDeferred runs queued retries until none remain, returning the delays
// in scheduling order.
func (suite *ImportSchedulerTestSuite) drainDeferred() []time.Duration {
	var delays []time.Duration
	for len(suite.deferred) > 0 {
		task := suite.deferred[0]
		suite.deferred = suite.deferred[1:]
		delays = append(delays, task.delay)
		task.fn()
	}
	return delays
}

func (suite *ImportSchedulerTestSuite) TestTriggerRun_SuccessEvictsCacheAndReleasesLock() {
	suite.sched.TriggerRun(context.Background())

	suite.Equal(1, suite.importer.calls)
	suite.Equal(1, suite.cache.evictions)
	suite.Equal(1, suite.lock.lease.releases)
	suite.Empty(suite.deferred)
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.AttemptsTotal.WithLabelValues("success", "1", "none")))
	suite.Equal(0.0, testutil.ToFloat64(suite.metrics.RunsExhausted))
}

func (suite *ImportSchedulerTestSuite) TestTriggerRun_RetriesWithExponentialBackoffUntilExhausted() {
	suite.importer.outcomes = []error{
		errors.New("attempt 1 failed"),
		errors.New("attempt 2 failed"),
		errors.New("attempt 3 failed"),
	}

	suite.sched.TriggerRun(context.Background())
	delays := suite.drainDeferred()

	// Three attempts in total, never a fourth.
	suite.Equal(3, suite.importer.calls)
	suite.Equal(3, suite.lock.acquisitions)
	suite.Equal([]time.Duration{time.Minute, 2 * time.Minute}, delays)
	suite.Equal(0, suite.cache.evictions)
	suite.Equal(3, suite.lock.lease.releases)

	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.RetriesScheduled.WithLabelValues("2")))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.RetriesScheduled.WithLabelValues("3")))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.RunsExhausted))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.AttemptsTotal.WithLabelValues("failure", "3", "internal")))
}

func (suite *ImportSchedulerTestSuite) TestTriggerRun_RecoversOnRetry() {
	suite.importer.outcomes = []error{errors.New("transient failure"), nil}

	suite.sched.TriggerRun(context.Background())
	suite.drainDeferred()

	suite.Equal(2, suite.importer.calls)
	suite.Equal(1, suite.cache.evictions)
	suite.Equal(0.0, testutil.ToFloat64(suite.metrics.RunsExhausted))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.AttemptsTotal.WithLabelValues("success", "2", "none")))
}

func (suite *ImportSchedulerTestSuite) TestTriggerRun_SkipsWhenLockHeldElsewhere() {
	suite.lock.heldElsewhere = true

	suite.sched.TriggerRun(context.Background())

	suite.Equal(0, suite.importer.calls)
	suite.Equal(0, suite.cache.evictions)
	suite.Empty(suite.deferred)
}

func (suite *ImportSchedulerTestSuite) TestTriggerRun_SkipsWhenLockStoreErrors() {
	suite.lock.acquireErr = errors.New("redis unreachable")

	suite.sched.TriggerRun(context.Background())

	suite.Equal(0, suite.importer.calls)
	suite.Empty(suite.deferred)
}

func (suite *ImportSchedulerTestSuite) TestTriggerRun_PanicCountsAsFailedAttempt() {
	suite.importer.panics = true

	suite.sched.TriggerRun(context.Background())
	suite.drainDeferred()

	suite.Equal(3, suite.importer.calls)
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.RunsExhausted))
	suite.Equal(3, suite.lock.lease.releases)
}

func (suite *ImportSchedulerTestSuite) TestBackoffDelayGrowsGeometrically() {
	suite.Equal(time.Minute, suite.sched.backoffDelay(1))
	suite.Equal(2*time.Minute, suite.sched.backoffDelay(2))
	suite.Equal(4*time.Minute, suite.sched.backoffDelay(3))
}

func TestImportSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(ImportSchedulerTestSuite))
}
