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
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExchangeRateRepository ---
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) FindEarliestDate(ctx context.Context, currencyCode string) (*time.Time, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockExchangeRateRepository) FindMostRecentDate(ctx context.Context, seriesID string) (*time.Time, error) {
	args := m.Called(ctx, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockExchangeRateRepository) FindRange(ctx context.Context, currencyCode string, start, end *time.Time) ([]domain.ExchangeRate, error) {
	args := m.Called(ctx, currencyCode, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) FindMostRecentBefore(ctx context.Context, currencyCode string, date time.Time) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, currencyCode, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) FindRateForDateTx(ctx context.Context, tx pgx.Tx, fromCurrencyCode, toCurrencyCode string, date time.Time) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, tx, fromCurrencyCode, toCurrencyCode, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) SaveExchangeRateTx(ctx context.Context, tx pgx.Tx, rate domain.ExchangeRate) error {
	args := m.Called(ctx, tx, rate)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) SaveAllExchangeRatesTx(ctx context.Context, tx pgx.Tx, rates []domain.ExchangeRate) error {
	args := m.Called(ctx, tx, rates)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) UpdateExchangeRateValueTx(ctx context.Context, tx pgx.Tx, exchangeRateID string, value decimal.Decimal, updatedAt time.Time, updatedBy string) error {
	args := m.Called(ctx, tx, exchangeRateID, value, updatedAt, updatedBy)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockExchangeRateRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock RateCache ---
type MockRateCache struct {
	mock.Mock
}

func (m *MockRateCache) GetRates(ctx context.Context, key string) ([]domain.RateRecord, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.RateRecord), args.Bool(1), args.Error(2)
}

func (m *MockRateCache) PutRates(ctx context.Context, key string, records []domain.RateRecord) error {
	args := m.Called(ctx, key, records)
	return args.Error(0)
}

func (m *MockRateCache) EvictAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func observation(currency string, date time.Time, rate string) domain.ExchangeRate {
	return domain.ExchangeRate{
		ExchangeRateID:   "rate-" + date.Format("2006-01-02"),
		SeriesID:         "series-" + currency,
		FromCurrencyCode: "USD",
		ToCurrencyCode:   currency,
		Rate:             decimal.RequireFromString(rate),
		DateEffective:    date,
	}
}

// --- Test Suite ---
type RateQueryServiceTestSuite struct {
	suite.Suite
	mockRepo  *MockExchangeRateRepository
	mockCache *MockRateCache
	service   portssvc.RateQuerySvc
}

func (suite *RateQueryServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockExchangeRateRepository)
	suite.mockCache = new(MockRateCache)
	suite.service = services.NewRateQueryService(suite.mockRepo, suite.mockCache)
}

// --- Test Cases ---

func (suite *RateQueryServiceTestSuite) TestGetRates_FillsGapsBetweenObservations() {
	ctx := context.Background()
	start := day(2024, time.January, 1)
	end := day(2024, time.January, 7)
	earliest := day(2023, time.June, 1)

	suite.mockCache.On("GetRates", ctx, mock.Anything).Return(nil, false, nil).Once()
	suite.mockRepo.On("FindEarliestDate", ctx, "EUR").Return(&earliest, nil).Once()
	suite.mockRepo.On("FindRange", ctx, "EUR", &start, &end).Return([]domain.ExchangeRate{
		observation("EUR", day(2024, time.January, 1), "0.91"),
		observation("EUR", day(2024, time.January, 5), "0.93"),
	}, nil).Once()
	suite.mockCache.On("PutRates", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	records, err := suite.service.GetRates(ctx, "EUR", &start, &end)

	suite.Require().NoError(err)
	suite.Require().Len(records, 7)

	suite.Equal(day(2024, time.January, 1), records[0].Date)
	suite.True(records[0].Rate.Equal(decimal.RequireFromString("0.91")))
	suite.False(records[0].Inferred)

	// Jan 2 through Jan 4 carry the Jan 1 value forward.
	for i := 1; i <= 3; i++ {
		suite.True(records[i].Rate.Equal(decimal.RequireFromString("0.91")))
		suite.True(records[i].Inferred)
	}

	suite.True(records[4].Rate.Equal(decimal.RequireFromString("0.93")))
	suite.False(records[4].Inferred)

	// Jan 6 and Jan 7 carry the Jan 5 value forward.
	for i := 5; i <= 6; i++ {
		suite.True(records[i].Rate.Equal(decimal.RequireFromString("0.93")))
		suite.True(records[i].Inferred)
	}

	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetRates_SeedsCursorFromObservationBeforeWindow() {
	ctx := context.Background()
	start := day(2024, time.March, 10)
	end := day(2024, time.March, 12)
	earliest := day(2023, time.June, 1)
	prev := observation("EUR", day(2024, time.March, 8), "0.88")

	suite.mockCache.On("GetRates", ctx, mock.Anything).Return(nil, false, nil).Once()
	suite.mockRepo.On("FindEarliestDate", ctx, "EUR").Return(&earliest, nil).Once()
	suite.mockRepo.On("FindRange", ctx, "EUR", &start, &end).Return([]domain.ExchangeRate{
		observation("EUR", day(2024, time.March, 12), "0.90"),
	}, nil).Once()
	suite.mockRepo.On("FindMostRecentBefore", ctx, "EUR", start).Return(&prev, nil).Once()
	suite.mockCache.On("PutRates", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	records, err := suite.service.GetRates(ctx, "EUR", &start, &end)

	suite.Require().NoError(err)
	suite.Require().Len(records, 3)
	suite.True(records[0].Rate.Equal(decimal.RequireFromString("0.88")))
	suite.True(records[0].Inferred)
	suite.True(records[1].Inferred)
	suite.True(records[2].Rate.Equal(decimal.RequireFromString("0.90")))
	suite.False(records[2].Inferred)

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetRates_ReturnsCachedResultWithoutStoreAccess() {
	ctx := context.Background()
	cached := []domain.RateRecord{
		{Date: day(2024, time.January, 1), Rate: decimal.RequireFromString("0.91")},
	}

	suite.mockCache.On("GetRates", ctx, "EUR:null:null").Return(cached, true, nil).Once()

	records, err := suite.service.GetRates(ctx, "EUR", nil, nil)

	suite.Require().NoError(err)
	suite.Equal(cached, records)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindEarliestDate", mock.Anything, mock.Anything)
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetRates_InvalidCurrencyCode() {
	ctx := context.Background()

	_, err := suite.service.GetRates(ctx, "EURO", nil, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RateQueryServiceTestSuite) TestGetRates_StartAfterEnd() {
	ctx := context.Background()
	start := day(2024, time.February, 2)
	end := day(2024, time.February, 1)

	_, err := suite.service.GetRates(ctx, "EUR", &start, &end)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RateQueryServiceTestSuite) TestGetRates_NoDataForCurrency() {
	ctx := context.Background()

	suite.mockCache.On("GetRates", ctx, mock.Anything).Return(nil, false, nil).Once()
	suite.mockRepo.On("FindEarliestDate", ctx, "CHF").Return(nil, nil).Once()

	_, err := suite.service.GetRates(ctx, "CHF", nil, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNoDataAvailable)
}

func (suite *RateQueryServiceTestSuite) TestGetRates_StartBeforeEarliestStored() {
	ctx := context.Background()
	start := day(2020, time.January, 1)
	earliest := day(2023, time.June, 1)

	suite.mockCache.On("GetRates", ctx, mock.Anything).Return(nil, false, nil).Once()
	suite.mockRepo.On("FindEarliestDate", ctx, "EUR").Return(&earliest, nil).Once()

	_, err := suite.service.GetRates(ctx, "EUR", &start, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDateOutOfRange)
}

func (suite *RateQueryServiceTestSuite) TestGetRates_EmptyWindowIsValid() {
	ctx := context.Background()
	start := day(2024, time.July, 1)
	end := day(2024, time.July, 31)
	earliest := day(2023, time.June, 1)

	suite.mockCache.On("GetRates", ctx, mock.Anything).Return(nil, false, nil).Once()
	suite.mockRepo.On("FindEarliestDate", ctx, "EUR").Return(&earliest, nil).Once()
	suite.mockRepo.On("FindRange", ctx, "EUR", &start, &end).Return([]domain.ExchangeRate{}, nil).Once()
	suite.mockCache.On("PutRates", ctx, mock.Anything, []domain.RateRecord{}).Return(nil).Once()

	records, err := suite.service.GetRates(ctx, "EUR", &start, &end)

	suite.Require().NoError(err)
	suite.Empty(records)
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetRates_CacheReadFailureFallsBackToStore() {
	ctx := context.Background()
	earliest := day(2024, time.January, 1)

	suite.mockCache.On("GetRates", ctx, mock.Anything).Return(nil, false, errors.New("redis down")).Once()
	suite.mockRepo.On("FindEarliestDate", ctx, "EUR").Return(&earliest, nil).Once()
	suite.mockRepo.On("FindRange", ctx, "EUR", (*time.Time)(nil), (*time.Time)(nil)).Return([]domain.ExchangeRate{
		observation("EUR", day(2024, time.January, 1), "0.91"),
	}, nil).Once()
	suite.mockCache.On("PutRates", ctx, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	records, err := suite.service.GetRates(ctx, "EUR", nil, nil)

	suite.Require().NoError(err)
	suite.Require().Len(records, 1)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetRates_LowercaseCodeIsNormalized() {
	ctx := context.Background()
	cached := []domain.RateRecord{}

	suite.mockCache.On("GetRates", ctx, "EUR:null:null").Return(cached, true, nil).Once()

	_, err := suite.service.GetRates(ctx, "eur", nil, nil)

	suite.Require().NoError(err)
	suite.mockCache.AssertExpectations(suite.T())
}

func TestRateQueryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RateQueryServiceTestSuite))
}
