package handlers

import (
	"fmt"
	"net/http"
	"time"

	"fuel-tracker/internal/api/middleware"
	"fuel-tracker/internal/services"
	"fuel-tracker/pkg/logger"
	"fuel-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	reportService    *services.ReportService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService, reportService *services.ReportService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		reportService:    reportService,
	}
}

// GetAnalytics combines fuel and maintenance statistics for the scope
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	analytics, err := h.analyticsService.Combined(c.Request.Context(), middleware.UserID(c), c.Query("vehicleId"))
	if err != nil {
		serviceError(c, "Failed to retrieve analytics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Analytics retrieved successfully", analytics)
}

// GetPDFReport renders the yearly report as a PDF download
func (h *AnalyticsHandler) GetPDFReport(c *gin.Context) {
	year, ok := intQuery(c, "year", time.Now().UTC().Year())
	if !ok {
		return
	}

	body, filename, err := h.reportService.PDF(c.Request.Context(), middleware.UserID(c), c.Query("vehicleId"), year)
	if err != nil {
		serviceError(c, "Failed to generate report", err)
		return
	}

	middleware.RequestLog(c, logger.ComponentReport).
		WithField("bytes", len(body)).
		Info("PDF report generated")

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}
