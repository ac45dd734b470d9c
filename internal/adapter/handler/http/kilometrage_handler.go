package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/sm8ta/webike_garage_service/internal/core/services"
)

type KilometrageHandler struct {
	kmService *services.KilometrageService
	logger    ports.LoggerPort
	metrics   ports.MetricsPort
}

type DistanceRequest struct {
	Distance *float64 `json:"distance" example:"42.2"`
}

type KilometrageHistoryResponse struct {
	Entries []KilometrageEntryResponse `json:"entries"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
}

func NewKilometrageHandler(kmService *services.KilometrageService, logger ports.LoggerPort, metrics ports.MetricsPort) *KilometrageHandler {
	return &KilometrageHandler{
		kmService: kmService,
		logger:    logger,
		metrics:   metrics,
	}
}

// A zero distance passes binding so the ledger reports it as an invalid distance.
func bindDistance(c *gin.Context) (float64, bool) {
	var req DistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Distance == nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return 0, false
	}
	return *req.Distance, true
}

// @Summary Log distance on a bike
// @Description Adds the distance to the bike and to every part mounted on it.
// @Tags kilometrage
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Bike ID"
// @Param unit query string false "Unit of the distance and of the response (km or mi)"
// @Param request body DistanceRequest true "Distance travelled"
// @Success 201 {object} DistanceLogResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id}/kilometrage [post]
func (h *KilometrageHandler) LogDistance(c *gin.Context) {
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
	distance, ok := bindDistance(c)
	if !ok {
		return
	}

	res, err := h.kmService.LogDistance(c.Request.Context(), bikeID, userID, distance, unit)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newDistanceLogResponse(res, unit))
}

// @Summary Record a trip on the active bike
// @Tags kilometrage
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param unit query string false "Unit of the distance and of the response (km or mi)"
// @Param request body DistanceRequest true "Trip distance"
// @Success 201 {object} DistanceLogResponse
// @Failure 400 {object} errorResponse "Invalid distance or no active bike"
// @Router /trips [post]
func (h *KilometrageHandler) LogTrip(c *gin.Context) {
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
	distance, ok := bindDistance(c)
	if !ok {
		return
	}

	res, err := h.kmService.LogTrip(c.Request.Context(), userID, distance, unit)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newDistanceLogResponse(res, unit))
}

// @Summary Kilometrage log of a bike
// @Tags kilometrage
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Entries to skip"
// @Success 200 {object} KilometrageHistoryResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id}/kilometrage [get]
func (h *KilometrageHandler) History(c *gin.Context) {
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
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid limit")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid offset")
		return
	}

	entries, err := h.kmService.GetHistory(c.Request.Context(), bikeID, userID, limit, offset)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	resp := KilometrageHistoryResponse{
		Entries: make([]KilometrageEntryResponse, len(entries)),
		Limit:   effectiveLimit(limit),
		Offset:  offset,
	}
	for i, e := range entries {
		resp.Entries[i] = newEntryResponse(e, unit)
	}
	c.JSON(http.StatusOK, resp)
}

func effectiveLimit(limit int) int {
	switch {
	case limit <= 0:
		return services.DefaultHistoryLimit
	case limit > services.MaxHistoryLimit:
		return services.MaxHistoryLimit
	}
	return limit
}
