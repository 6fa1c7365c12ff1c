package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/apperrors"
	portssvc "github.com/budgetanalyzer/currency-service/internal/core/ports/services"
	"github.com/budgetanalyzer/currency-service/internal/dto"
	"github.com/budgetanalyzer/currency-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// rateHandler handles HTTP requests for historical rate queries.
type rateHandler struct {
	rateQueryService portssvc.RateQuerySvc
}

// newRateHandler creates a new rateHandler.
func newRateHandler(rqs portssvc.RateQuerySvc) *rateHandler {
	return &rateHandler{
		rateQueryService: rqs,
	}
}

// RegisterRateRoutes registers routes related to historical rates.
func RegisterRateRoutes(rg *gin.RouterGroup, rateQueryService portssvc.RateQuerySvc) {
	h := newRateHandler(rateQueryService)

	rates := rg.Group("/rates")
	{
		rates.GET("/:currencyCode", h.getRates)
	}
}

// getRates godoc
// @Summary Get historical rates for a currency
// @Description Returns one rate per calendar day over the requested window, carrying the last known rate forward through days without an observation
// @Tags rates
// @Produce  json
// @Param   currencyCode path  string true  "Currency Code (3 letters)" MinLength(3) MaxLength(3)
// @Param   startDate    query string false "Window start (YYYY-MM-DD), unbounded when omitted"
// @Param   endDate      query string false "Window end (YYYY-MM-DD), unbounded when omitted"
// @Success 200 {object} dto.RatesResponse
// @Failure 400 {object} map[string]string "Invalid currency code, date format or window"
// @Failure 404 {object} map[string]string "No data available for currency"
// @Failure 500 {object} map[string]string "Failed to retrieve rates"
// @Router /rates/{currencyCode} [get]
func (h *rateHandler) getRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	currencyCode := c.Param("currencyCode")

	startDate, ok := parseDateQuery(c, "startDate")
	if !ok {
		return
	}
	endDate, ok := parseDateQuery(c, "endDate")
	if !ok {
		return
	}

	logger = logger.With(slog.String("currency_code", currencyCode))
	logger.Info("Received request to get historical rates")

	records, err := h.rateQueryService.GetRates(c.Request.Context(), currencyCode, startDate, endDate)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error getting rates", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrDateOutOfRange):
			logger.Warn("Requested window precedes stored data", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNoDataAvailable):
			logger.Warn("No data available for currency", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to get rates from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rates"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToRatesResponse(currencyCode, startDate, endDate, records))
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter. It writes the
// 400 response itself and returns ok=false when the value is malformed.
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format, expected YYYY-MM-DD"})
		return nil, false
	}
	return &parsed, true
}
