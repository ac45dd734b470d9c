package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/sm8ta/webike_garage_service/internal/core/services"
)

type ActiveBikeHandler struct {
	activeService *services.ActiveBikeService
	logger        ports.LoggerPort
	metrics       ports.MetricsPort
}

func NewActiveBikeHandler(activeService *services.ActiveBikeService, logger ports.LoggerPort, metrics ports.MetricsPort) *ActiveBikeHandler {
	return &ActiveBikeHandler{
		activeService: activeService,
		logger:        logger,
		metrics:       metrics,
	}
}

// @Summary Make a bike the active bike
// @Tags active-bike
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} BikeResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id}/active [put]
func (h *ActiveBikeHandler) SetActive(c *gin.Context) {
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

	bike, err := h.activeService.SetActive(c.Request.Context(), userID, bikeID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newBikeResponse(bike, unit))
}

// @Summary Clear the active bike
// @Tags active-bike
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "Bike is not the active bike"
// @Router /bikes/{id}/active [delete]
func (h *ActiveBikeHandler) Deactivate(c *gin.Context) {
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

	if err := h.activeService.Deactivate(c.Request.Context(), userID, bikeID); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Active bike cleared"})
}

// @Summary Get the active bike
// @Description Returns active=false when no bike is selected.
// @Tags active-bike
// @Security BearerAuth
// @Produce json
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} ActiveBikeResponse
// @Router /active-bike [get]
func (h *ActiveBikeHandler) GetActive(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID, ok := requester(c, h.logger)
	if !ok {
		return
	}
	unit, ok := queryUnit(c)
	if !ok {
		return
	}

	active, err := h.activeService.GetActive(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if active == nil {
		c.JSON(http.StatusOK, ActiveBikeResponse{Active: false})
		return
	}
	bike := newBikeResponse(active.Bike, unit)
	c.JSON(http.StatusOK, ActiveBikeResponse{
		Active: true,
		Bike:   &bike,
		Parts:  newPartResponses(active.Parts, unit),
	})
}
