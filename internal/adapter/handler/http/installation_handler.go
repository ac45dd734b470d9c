package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/sm8ta/webike_garage_service/internal/core/services"
)

type InstallationHandler struct {
	installService *services.InstallationService
	logger         ports.LoggerPort
	metrics        ports.MetricsPort
}

type InstallRequest struct {
	BikeID string `json:"bike_id" binding:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
}

type InstallationListResponse struct {
	Installations []*domain.Installation `json:"installations"`
	Count         int                    `json:"count"`
}

type PartBikeResponse struct {
	Installed bool          `json:"installed"`
	Bike      *BikeResponse `json:"bike,omitempty"`
}

func NewInstallationHandler(installService *services.InstallationService, logger ports.LoggerPort, metrics ports.MetricsPort) *InstallationHandler {
	return &InstallationHandler{
		installService: installService,
		logger:         logger,
		metrics:        metrics,
	}
}

func bindBikeID(c *gin.Context) (uuid.UUID, bool) {
	var req InstallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.BikeID)
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid bike_id")
		return uuid.Nil, false
	}
	return id, true
}

// @Summary Install a part on a bike
// @Description Any open installation of the part is closed in the same transaction.
// @Tags installations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Part ID"
// @Param request body InstallRequest true "Target bike"
// @Success 201 {object} domain.Installation
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /parts/{id}/install [post]
func (h *InstallationHandler) Install(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID, ok := requester(c, h.logger)
	if !ok {
		return
	}
	partID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	bikeID, ok := bindBikeID(c)
	if !ok {
		return
	}

	inst, err := h.installService.Install(c.Request.Context(), partID, bikeID, userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

// @Summary Remove a part from a bike
// @Tags installations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Part ID"
// @Param request body InstallRequest true "Bike the part is mounted on"
// @Success 200 {object} domain.Installation
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "Part is not installed on this bike"
// @Router /parts/{id}/remove [post]
func (h *InstallationHandler) Remove(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID, ok := requester(c, h.logger)
	if !ok {
		return
	}
	partID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	bikeID, ok := bindBikeID(c)
	if !ok {
		return
	}

	inst, err := h.installService.Remove(c.Request.Context(), partID, bikeID, userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

// @Summary Installation history of a part
// @Tags installations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Part ID"
// @Success 200 {object} InstallationListResponse
// @Failure 404 {object} errorResponse
// @Router /parts/{id}/installations [get]
func (h *InstallationHandler) History(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID, ok := requester(c, h.logger)
	if !ok {
		return
	}
	partID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	history, err := h.installService.History(c.Request.Context(), partID, userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, InstallationListResponse{Installations: history, Count: len(history)})
}

// @Summary Bike a part is mounted on
// @Tags installations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Part ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} PartBikeResponse
// @Failure 404 {object} errorResponse
// @Router /parts/{id}/bike [get]
func (h *InstallationHandler) PartBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID, ok := requester(c, h.logger)
	if !ok {
		return
	}
	partID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	unit, ok := queryUnit(c)
	if !ok {
		return
	}

	bike, err := h.installService.ActiveBikeFor(c.Request.Context(), partID, userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	resp := PartBikeResponse{Installed: bike != nil}
	if bike != nil {
		b := newBikeResponse(bike, unit)
		resp.Bike = &b
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Parts mounted on a bike
// @Tags installations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} PartListResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id}/parts [get]
func (h *InstallationHandler) BikeParts(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID, ok := requester(c, h.logger)
	if !ok {
		return
	}
	bikeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	unit, ok := queryUnit(c)
	if !ok {
		return
	}

	parts, err := h.installService.ActivePartsFor(c.Request.Context(), bikeID, userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PartListResponse{Parts: newPartResponses(parts, unit), Count: len(parts)})
}
