package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperrors"
	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	portssvc "github.com/budgetanalyzer/currency-service/internal/core/ports/services"
	"github.com/budgetanalyzer/currency-service/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock SeriesRepository ---
type MockSeriesRepository struct {
	mock.Mock
}

func (m *MockSeriesRepository) FindSeriesByCode(ctx context.Context, currencyCode string) (*domain.CurrencySeries, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CurrencySeries), args.Error(1)
}

func (m *MockSeriesRepository) ListSeries(ctx context.Context) ([]domain.CurrencySeries, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CurrencySeries), args.Error(1)
}

func (m *MockSeriesRepository) ListEnabledSeries(ctx context.Context) ([]domain.CurrencySeries, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CurrencySeries), args.Error(1)
}

func (m *MockSeriesRepository) SaveSeries(ctx context.Context, series domain.CurrencySeries) error {
	args := m.Called(ctx, series)
	return args.Error(0)
}

func (m *MockSeriesRepository) SetSeriesEnabled(ctx context.Context, currencyCode string, enabled bool, updatedBy string) (*domain.CurrencySeries, error) {
	args := m.Called(ctx, currencyCode, enabled, updatedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CurrencySeries), args.Error(1)
}

// --- Mock RateProvider ---
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) ValidateSeriesExists(ctx context.Context, providerSeriesID string) (bool, error) {
	args := m.Called(ctx, providerSeriesID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateProvider) FetchObservations(ctx context.Context, providerSeriesID string, since *time.Time) (map[time.Time]decimal.Decimal, error) {
	args := m.Called(ctx, providerSeriesID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[time.Time]decimal.Decimal), args.Error(1)
}

func testSeries(currency string) domain.CurrencySeries {
	return domain.CurrencySeries{
		SeriesID:         "series-" + currency,
		CurrencyCode:     currency,
		ProviderSeriesID: "DEX" + currency,
		Enabled:          true,
	}
}

// --- Test Suite ---
type RateImportServiceTestSuite struct {
	suite.Suite
	mockSeriesRepo *MockSeriesRepository
	mockRateRepo   *MockExchangeRateRepository
	mockProvider   *MockRateProvider
	service        portssvc.RateImportSvc
}

func (suite *RateImportServiceTestSuite) SetupTest() {
	suite.mockSeriesRepo = new(MockSeriesRepository)
	suite.mockRateRepo = new(MockExchangeRateRepository)
	suite.mockProvider = new(MockRateProvider)
	suite.service = services.NewRateImportService(suite.mockSeriesRepo, suite.mockRateRepo, suite.mockProvider, "USD")
}

// --- Test Cases ---

func (suite *RateImportServiceTestSuite) TestImportSeries_FirstImportBulkInserts() {
	ctx := context.Background()
	series := testSeries("EUR")

	observations := map[time.Time]decimal.Decimal{
		day(2024, time.January, 1): decimal.RequireFromString("0.91"),
		day(2024, time.January, 2): decimal.RequireFromString("0.92"),
	}

	suite.mockRateRepo.On("FindMostRecentDate", ctx, series.SeriesID).Return(nil, nil).Once()
	suite.mockProvider.On("FetchObservations", ctx, series.ProviderSeriesID, (*time.Time)(nil)).Return(observations, nil).Once()
	suite.mockRateRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRateRepo.On("SaveAllExchangeRatesTx", ctx, mock.Anything, mock.MatchedBy(func(rows []domain.ExchangeRate) bool {
		if len(rows) != 2 {
			return false
		}
		// buildRows sorts ascending and denormalizes the currency pair.
		return rows[0].DateEffective.Before(rows[1].DateEffective) &&
			rows[0].FromCurrencyCode == "USD" &&
			rows[0].ToCurrencyCode == "EUR" &&
			rows[0].SeriesID == series.SeriesID
	})).Return(nil).Once()
	suite.mockRateRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockRateRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()

	result, err := suite.service.ImportSeries(ctx, series)

	suite.Require().NoError(err)
	suite.Equal(2, result.NewCount)
	suite.Equal(0, result.UpdatedCount)
	suite.Equal(0, result.SkippedCount)
	suite.Require().NotNil(result.EarliestDate)
	suite.Require().NotNil(result.LatestDate)
	suite.Equal(day(2024, time.January, 1), *result.EarliestDate)
	suite.Equal(day(2024, time.January, 2), *result.LatestDate)
	suite.False(result.CompletedAt.IsZero())

	suite.mockRateRepo.AssertExpectations(suite.T())
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *RateImportServiceTestSuite) TestImportSeries_IncrementalFetchStartsAfterMostRecent() {
	ctx := context.Background()
	series := testSeries("EUR")
	mostRecent := day(2024, time.February, 10)
	expectedSince := day(2024, time.February, 11)

	suite.mockRateRepo.On("FindMostRecentDate", ctx, series.SeriesID).Return(&mostRecent, nil).Once()
	suite.mockProvider.On("FetchObservations", ctx, series.ProviderSeriesID, &expectedSince).
		Return(map[time.Time]decimal.Decimal{}, nil).Once()

	result, err := suite.service.ImportSeries(ctx, series)

	suite.Require().NoError(err)
	suite.Equal(0, result.Total())
	suite.False(result.CompletedAt.IsZero())
	suite.mockProvider.AssertExpectations(suite.T())
	suite.mockRateRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *RateImportServiceTestSuite) TestImportSeries_ReconcilesNewUpdatedAndSkipped() {
	ctx := context.Background()
	series := testSeries("EUR")
	mostRecent := day(2024, time.March, 1)

	dNew := day(2024, time.March, 4)
	dSame := day(2024, time.March, 2)
	dChanged := day(2024, time.March, 3)

	observations := map[time.Time]decimal.Decimal{
		dSame:    decimal.RequireFromString("0.91"),
		dChanged: decimal.RequireFromString("0.95"),
		dNew:     decimal.RequireFromString("0.96"),
	}

	stored := observation("EUR", dSame, "0.91")
	revised := observation("EUR", dChanged, "0.92")

	suite.mockRateRepo.On("FindMostRecentDate", ctx, series.SeriesID).Return(&mostRecent, nil).Once()
	suite.mockProvider.On("FetchObservations", ctx, series.ProviderSeriesID, mock.Anything).Return(observations, nil).Once()
	suite.mockRateRepo.On("Begin", ctx).Return(nil, nil).Once()

	suite.mockRateRepo.On("FindRateForDateTx", ctx, mock.Anything, "USD", "EUR", dSame).Return(&stored, nil).Once()
	suite.mockRateRepo.On("FindRateForDateTx", ctx, mock.Anything, "USD", "EUR", dChanged).Return(&revised, nil).Once()
	suite.mockRateRepo.On("FindRateForDateTx", ctx, mock.Anything, "USD", "EUR", dNew).
		Return(nil, apperrors.ErrNotFound).Once()

	suite.mockRateRepo.On("SaveExchangeRateTx", ctx, mock.Anything, mock.MatchedBy(func(r domain.ExchangeRate) bool {
		return r.DateEffective.Equal(dNew)
	})).Return(nil).Once()
	suite.mockRateRepo.On("UpdateExchangeRateValueTx", ctx, mock.Anything, revised.ExchangeRateID,
		decimal.RequireFromString("0.95"), mock.Anything, mock.Anything).Return(nil).Once()

	suite.mockRateRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockRateRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()

	result, err := suite.service.ImportSeries(ctx, series)

	suite.Require().NoError(err)
	suite.Equal(1, result.NewCount)
	suite.Equal(1, result.UpdatedCount)
	suite.Equal(1, result.SkippedCount)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateImportServiceTestSuite) TestImportSeries_ProviderFailurePropagates() {
	ctx := context.Background()
	series := testSeries("EUR")
	provErr := apperrors.NewProviderError(apperrors.ProviderKindTransport, "observations", errors.New("dial timeout"))

	suite.mockRateRepo.On("FindMostRecentDate", ctx, series.SeriesID).Return(nil, nil).Once()
	suite.mockProvider.On("FetchObservations", ctx, series.ProviderSeriesID, (*time.Time)(nil)).
		Return(nil, provErr).Once()

	_, err := suite.service.ImportSeries(ctx, series)

	suite.Require().Error(err)
	var pe *apperrors.ProviderError
	suite.ErrorAs(err, &pe)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *RateImportServiceTestSuite) TestImportByCurrencyCode_UnknownCurrency() {
	ctx := context.Background()

	suite.mockSeriesRepo.On("FindSeriesByCode", ctx, "XXX").
		Return(nil, apperrors.NewNotFoundError("series not found")).Once()

	_, err := suite.service.ImportByCurrencyCode(ctx, "xxx")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *RateImportServiceTestSuite) TestImportAllEnabled_ContinuesPastFailingSeries() {
	ctx := context.Background()
	failing := testSeries("EUR")
	healthy := testSeries("GBP")

	suite.mockSeriesRepo.On("ListEnabledSeries", ctx).Return([]domain.CurrencySeries{failing, healthy}, nil).Once()

	suite.mockRateRepo.On("FindMostRecentDate", ctx, failing.SeriesID).
		Return(nil, errors.New("connection reset")).Once()

	suite.mockRateRepo.On("FindMostRecentDate", ctx, healthy.SeriesID).Return(nil, nil).Once()
	suite.mockProvider.On("FetchObservations", ctx, healthy.ProviderSeriesID, (*time.Time)(nil)).
		Return(map[time.Time]decimal.Decimal{}, nil).Once()

	results, err := suite.service.ImportAllEnabled(ctx)

	suite.Require().Error(err)
	suite.Require().Len(results, 1)
	suite.Equal("GBP", results[0].CurrencyCode)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateImportServiceTestSuite) TestImportAllEnabled_NoEnabledSeries() {
	ctx := context.Background()

	suite.mockSeriesRepo.On("ListEnabledSeries", ctx).Return([]domain.CurrencySeries{}, nil).Once()

	results, err := suite.service.ImportAllEnabled(ctx)

	suite.Require().NoError(err)
	suite.Empty(results)
}

func TestRateImportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RateImportServiceTestSuite))
}
