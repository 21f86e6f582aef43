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
	"github.com/go-playground/validator/v10"
)

const maxHistoryLimit = 100

type FuelHandler struct {
	fuelService     *services.FuelService
	settingsService *services.SettingsService
	validator       *validator.Validate
}

func NewFuelHandler(fuelService *services.FuelService, settingsService *services.SettingsService) *FuelHandler {
	return &FuelHandler{
		fuelService:     fuelService,
		settingsService: settingsService,
		validator:       validator.New(),
	}
}

// GetEntries returns every fuel entry of the scope with its statistics
func (h *FuelHandler) GetEntries(c *gin.Context) {
	result, err := h.fuelService.List(c.Request.Context(), middleware.UserID(c), c.Query("vehicleId"))
	if err != nil {
		serviceError(c, "Failed to retrieve fuel entries", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fuel entries retrieved successfully", result)
}

// GetFullEntries returns FULL entries with their partials folded in
func (h *FuelHandler) GetFullEntries(c *gin.Context) {
	entries, err := h.fuelService.FullEntries(c.Request.Context(), middleware.UserID(c), c.Query("vehicleId"))
	if err != nil {
		serviceError(c, "Failed to retrieve fuel entries", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Full entries retrieved successfully", entries)
}

func (h *FuelHandler) GetStats(c *gin.Context) {
	stats, err := h.fuelService.Stats(c.Request.Context(), middleware.UserID(c), c.Query("vehicleId"))
	if err != nil {
		serviceError(c, "Failed to retrieve fuel statistics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fuel statistics retrieved successfully", stats)
}

// GetMonthly returns monthly buckets for a year, optionally narrowed to one month
func (h *FuelHandler) GetMonthly(c *gin.Context) {
	year, ok := intQuery(c, "year", 0)
	if !ok {
		return
	}
	month, ok := intQuery(c, "month", 0)
	if !ok {
		return
	}

	result, err := h.fuelService.Monthly(c.Request.Context(), middleware.UserID(c), c.Query("vehicleId"), year, time.Month(month))
	if err != nil {
		serviceError(c, "Failed to retrieve monthly data", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Monthly data retrieved successfully", result)
}

// GetHistory pages through FULL entries newest first. The page size defaults
// to the user's entriesPerPage setting.
func (h *FuelHandler) GetHistory(c *gin.Context) {
	userID := middleware.UserID(c)

	page, ok := intQuery(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	if limit <= 0 {
		limit = h.settingsService.EntriesPerPage(c.Request.Context(), userID)
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	pagination := utils.NewPagination(page, limit, 0)
	entries, total, err := h.fuelService.History(c.Request.Context(), userID, c.Query("vehicleId"), pagination.Offset(), pagination.Limit)
	if err != nil {
		serviceError(c, "Failed to retrieve fuel history", err)
		return
	}

	utils.PaginatedResponse(c, http.StatusOK, "Fuel history retrieved successfully", entries,
		utils.NewPagination(pagination.Page, pagination.Limit, total))
}

func (h *FuelHandler) CreateEntry(c *gin.Context) {
	var req services.FuelEntryRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	entry, err := h.fuelService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		serviceError(c, "Failed to create fuel entry", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Fuel entry created successfully", entry)
}

func (h *FuelHandler) UpdateEntry(c *gin.Context) {
	var req services.FuelEntryRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	entry, err := h.fuelService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &req)
	if err != nil {
		serviceError(c, "Failed to update fuel entry", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fuel entry updated successfully", entry)
}

// DeleteEntry removes an entry; a FULL entry takes its partials with it
func (h *FuelHandler) DeleteEntry(c *gin.Context) {
	deleted, err := h.fuelService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		serviceError(c, "Failed to delete fuel entry", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fuel entry deleted successfully", gin.H{"deleted": deleted})
}

// Export streams the scope as a JSON attachment for ledgerctl
func (h *FuelHandler) Export(c *gin.Context) {
	vehicleID := c.Query("vehicleId")
	export, err := h.fuelService.Export(c.Request.Context(), middleware.UserID(c), vehicleID)
	if err != nil {
		serviceError(c, "Failed to export fuel data", err)
		return
	}

	middleware.RequestLog(c, logger.ComponentFuel).
		WithField("entries", len(export.Fuel)).
		Info("Fuel data exported")

	name := "fuel-export.json"
	if vehicleID != "" {
		name = fmt.Sprintf("fuel-export-%s.json", vehicleID)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.JSON(http.StatusOK, export)
}
