package handlers

import (
	"net/http"

	"fuel-tracker/internal/api/middleware"
	"fuel-tracker/internal/services"
	"fuel-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type MaintenanceHandler struct {
	maintenanceService *services.MaintenanceService
	validator          *validator.Validate
}

func NewMaintenanceHandler(maintenanceService *services.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		validator:          validator.New(),
	}
}

// GetCosts returns the scope's maintenance costs with their statistics
func (h *MaintenanceHandler) GetCosts(c *gin.Context) {
	result, err := h.maintenanceService.List(c.Request.Context(), middleware.UserID(c), c.Query("vehicleId"))
	if err != nil {
		serviceError(c, "Failed to retrieve maintenance costs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance costs retrieved successfully", result)
}

func (h *MaintenanceHandler) GetStats(c *gin.Context) {
	stats, err := h.maintenanceService.Stats(c.Request.Context(), middleware.UserID(c), c.Query("vehicleId"))
	if err != nil {
		serviceError(c, "Failed to retrieve maintenance statistics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance statistics retrieved successfully", stats)
}

func (h *MaintenanceHandler) GetCategories(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", h.maintenanceService.Categories())
}

func (h *MaintenanceHandler) CreateCost(c *gin.Context) {
	var req services.MaintenanceCostRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	cost, err := h.maintenanceService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		serviceError(c, "Failed to create maintenance cost", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Maintenance cost created successfully", cost)
}

func (h *MaintenanceHandler) UpdateCost(c *gin.Context) {
	var req services.MaintenanceCostRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	cost, err := h.maintenanceService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &req)
	if err != nil {
		serviceError(c, "Failed to update maintenance cost", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance cost updated successfully", cost)
}

func (h *MaintenanceHandler) DeleteCost(c *gin.Context) {
	if err := h.maintenanceService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		serviceError(c, "Failed to delete maintenance cost", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance cost deleted successfully", nil)
}
