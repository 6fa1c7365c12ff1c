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

// importHandler handles HTTP requests that trigger rate imports.
type importHandler struct {
	importService    portssvc.RateImportSvc
	schedulerService portssvc.ImportSchedulerSvc
}

// newImportHandler creates a new importHandler.
func newImportHandler(is portssvc.RateImportSvc, ss portssvc.ImportSchedulerSvc) *importHandler {
	return &importHandler{
		importService:    is,
		schedulerService: ss,
	}
}

// registerImportRoutes registers routes related to rate imports.
func registerImportRoutes(rg *gin.RouterGroup, importService portssvc.RateImportSvc, schedulerService portssvc.ImportSchedulerSvc) {
	h := newImportHandler(importService, schedulerService)

	imports := rg.Group("/imports")
	{
		imports.POST("", h.triggerScheduledRun)
		imports.POST("/:currencyCode", h.importCurrency)
	}
}

// triggerScheduledRun godoc
// @Summary Trigger a full import cycle
// @Description Starts an import cycle for all enabled currencies, identical to a timer-driven run. Returns immediately; outcome is observable via metrics and logs.
// @Tags imports
// @Produce  json
// @Success 202 {object} map[string]string
// @Router /imports [post]
func (h *importHandler) triggerScheduledRun(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("Received manual trigger for scheduled import run")

	h.schedulerService.TriggerRun(c.Request.Context())

	c.JSON(http.StatusAccepted, gin.H{"status": "import run triggered"})
}

// importCurrency godoc
// @Summary Import rates for one currency
// @Description Fetches and reconciles upstream observations for a single currency synchronously
// @Tags imports
// @Produce  json
// @Param   currencyCode path string true "Currency Code (3 letters)" MinLength(3) MaxLength(3)
// @Success 200 {object} dto.ImportResultResponse
// @Failure 404 {object} map[string]string "Series not found"
// @Failure 502 {object} map[string]string "Upstream provider failure"
// @Failure 500 {object} map[string]string "Failed to import rates"
// @Router /imports/{currencyCode} [post]
func (h *importHandler) importCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	currencyCode := c.Param("currencyCode")

	logger = logger.With(slog.String("currency_code", currencyCode))
	logger.Info("Received request to import currency")

	result, err := h.importService.ImportByCurrencyCode(c.Request.Context(), currencyCode)
	if err != nil {
		var provErr *apperrors.ProviderError
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Series not found"})
		case errors.As(err, &provErr):
			logger.Error("Upstream provider failure during import", slog.String("error", err.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream provider failure"})
		default:
			logger.Error("Failed to import rates", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import rates"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToImportResultResponse(result))
}
