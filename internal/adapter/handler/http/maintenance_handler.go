package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/sm8ta/webike_garage_service/internal/core/services"
)

type MaintenanceHandler struct {
	maintenanceService *services.MaintenanceService
	logger             ports.LoggerPort
	metrics            ports.MetricsPort
}

type MaintenanceRequest struct {
	MaintenanceType string   `json:"maintenance_type" binding:"required" example:"cleaning"`
	Description     string   `json:"description,omitempty" example:"Degreased drivetrain"`
	PerformedAt     *string  `json:"performed_at,omitempty" example:"2024-05-01"`
	Cost            *float64 `json:"cost,omitempty" example:"12.5"`
}

type MaintenanceListResponse struct {
	Records []*domain.MaintenanceRecord `json:"records"`
	Count   int                         `json:"count"`
}

func NewMaintenanceHandler(maintenanceService *services.MaintenanceService, logger ports.LoggerPort, metrics ports.MetricsPort) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		logger:             logger,
		metrics:            metrics,
	}
}

// Record serves POST /bikes/{id}/maintenance and POST /parts/{id}/maintenance.
//
// @Summary Record maintenance
// @Tags maintenance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Bike or part ID"
// @Param request body MaintenanceRequest true "Maintenance record"
// @Success 201 {object} domain.MaintenanceRecord
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id}/maintenance [post]
// @Router /parts/{id}/maintenance [post]
func (h *MaintenanceHandler) Record(subject domain.SubjectType) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			h.metrics.RecordMetrics(c, start)
		}()

		userID, ok := requester(c, h.logger)
		if !ok {
			return
		}
		subjectID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		var req MaintenanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
			return
		}
		performedAt, err := parseDate(req.PerformedAt)
		if err != nil {
			handleError(c, h.logger, err)
			return
		}

		record, err := h.maintenanceService.Record(c.Request.Context(), subject, subjectID, userID, domain.MaintenanceInput{
			MaintenanceType: domain.MaintenanceType(req.MaintenanceType),
			Description:     req.Description,
			PerformedAt:     performedAt,
			Cost:            req.Cost,
		})
		if err != nil {
			handleError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusCreated, record)
	}
}

// History serves GET /bikes/{id}/maintenance and GET /parts/{id}/maintenance.
//
// @Summary Maintenance history, newest first
// @Tags maintenance
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike or part ID"
// @Success 200 {object} MaintenanceListResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id}/maintenance [get]
// @Router /parts/{id}/maintenance [get]
func (h *MaintenanceHandler) History(subject domain.SubjectType) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			h.metrics.RecordMetrics(c, start)
		}()

		userID, ok := requester(c, h.logger)
		if !ok {
			return
		}
		subjectID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		records, err := h.maintenanceService.History(c.Request.Context(), subject, subjectID, userID)
		if err != nil {
			handleError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, MaintenanceListResponse{Records: records, Count: len(records)})
	}
}
