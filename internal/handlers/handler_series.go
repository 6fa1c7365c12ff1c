package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/budgetanalyzer/currency-service/internal/apperrors"
	portssvc "github.com/budgetanalyzer/currency-service/internal/core/ports/services"
	"github.com/budgetanalyzer/currency-service/internal/dto"
	"github.com/budgetanalyzer/currency-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// apiActor is recorded in audit fields for changes made through the admin API.
const apiActor = "api-admin"

// seriesHandler handles HTTP requests for currency series administration.
type seriesHandler struct {
	seriesService portssvc.SeriesSvcFacade
}

// newSeriesHandler creates a new seriesHandler.
func newSeriesHandler(ss portssvc.SeriesSvcFacade) *seriesHandler {
	return &seriesHandler{
		seriesService: ss,
	}
}

// registerSeriesRoutes registers routes related to currency series.
func registerSeriesRoutes(rg *gin.RouterGroup, seriesService portssvc.SeriesSvcFacade) {
	h := newSeriesHandler(seriesService)

	series := rg.Group("/series")
	{
		series.POST("", h.createSeries)
		series.GET("", h.listSeries)
		series.GET("/:currencyCode", h.getSeries)
		series.PATCH("/:currencyCode/enabled", h.setSeriesEnabled)
	}
}

// createSeries godoc
// @Summary Register a new tracked currency
// @Description Adds a currency series after validating the code and confirming the provider knows the series id
// @Tags series
// @Accept  json
// @Produce  json
// @Param   series body dto.CreateSeriesRequest true "Series details"
// @Success 201 {object} dto.SeriesResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Currency already tracked"
// @Failure 500 {object} map[string]string "Failed to create series"
// @Router /series [post]
func (h *seriesHandler) createSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateSeries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to create series",
		slog.String("currency_code", req.CurrencyCode),
		slog.String("provider_series_id", req.ProviderSeriesID),
	)

	created, err := h.seriesService.CreateSeries(c.Request.Context(), req, apiActor)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating series", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrDuplicate):
			logger.Warn("Currency already tracked", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create series in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create series"})
		}
		return
	}

	logger.Info("Series created successfully", slog.String("series_id", created.SeriesID))
	c.JSON(http.StatusCreated, dto.ToSeriesResponse(created))
}

// listSeries godoc
// @Summary List tracked currencies
// @Description Retrieves all configured currency series
// @Tags series
// @Produce  json
// @Success 200 {array} dto.SeriesResponse
// @Failure 500 {object} map[string]string "Failed to list series"
// @Router /series [get]
func (h *seriesHandler) listSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	series, err := h.seriesService.ListSeries(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list series", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list series"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListSeriesResponse(series))
}

// getSeries godoc
// @Summary Get a tracked currency
// @Description Retrieves the series configured for a currency code
// @Tags series
// @Produce  json
// @Param   currencyCode path string true "Currency Code (3 letters)" MinLength(3) MaxLength(3)
// @Success 200 {object} dto.SeriesResponse
// @Failure 404 {object} map[string]string "Series not found"
// @Failure 500 {object} map[string]string "Failed to retrieve series"
// @Router /series/{currencyCode} [get]
func (h *seriesHandler) getSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	currencyCode := c.Param("currencyCode")

	series, err := h.seriesService.GetSeriesByCode(c.Request.Context(), currencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Series not found"})
		} else {
			logger.Error("Failed to get series", slog.String("currency_code", currencyCode), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve series"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSeriesResponse(series))
}

// setSeriesEnabled godoc
// @Summary Enable or disable scheduled imports for a currency
// @Description Toggles whether the series participates in scheduled imports
// @Tags series
// @Accept  json
// @Produce  json
// @Param   currencyCode path string true "Currency Code (3 letters)" MinLength(3) MaxLength(3)
// @Param   enabled body dto.UpdateSeriesEnabledRequest true "Desired state"
// @Success 200 {object} dto.SeriesResponse
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 404 {object} map[string]string "Series not found"
// @Failure 500 {object} map[string]string "Failed to update series"
// @Router /series/{currencyCode}/enabled [patch]
func (h *seriesHandler) setSeriesEnabled(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	currencyCode := c.Param("currencyCode")

	var req dto.UpdateSeriesEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SetSeriesEnabled", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	updated, err := h.seriesService.SetSeriesEnabled(c.Request.Context(), currencyCode, *req.Enabled, apiActor)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Series not found"})
		} else {
			logger.Error("Failed to update series", slog.String("currency_code", currencyCode), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update series"})
		}
		return
	}

	logger.Info("Series enabled state updated",
		slog.String("currency_code", currencyCode),
		slog.Bool("enabled", updated.Enabled),
	)
	c.JSON(http.StatusOK, dto.ToSeriesResponse(updated))
}
