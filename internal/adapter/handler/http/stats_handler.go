package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/sm8ta/webike_garage_service/internal/core/services"
)

type StatsHandler struct {
	statsService *services.StatsService
	logger       ports.LoggerPort
	metrics      ports.MetricsPort
}

func NewStatsHandler(statsService *services.StatsService, logger ports.LoggerPort, metrics ports.MetricsPort) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		logger:       logger,
		metrics:      metrics,
	}
}

// @Summary Bike statistics
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} domain.BikeStats
// @Failure 404 {object} errorResponse
// @Router /bikes/{id}/stats [get]
func (h *StatsHandler) BikeStats(c *gin.Context) {
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

	stats, err := h.statsService.BikeStats(c.Request.Context(), bikeID, userID, unit)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Part statistics
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Param id path string true "Part ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} PartStatsResponse
// @Failure 404 {object} errorResponse
// @Router /parts/{id}/stats [get]
func (h *StatsHandler) PartStats(c *gin.Context) {
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

	stats, err := h.statsService.PartStats(c.Request.Context(), partID, userID, unit)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	resp := PartStatsResponse{
		PartID:                   stats.PartID,
		Unit:                     stats.Unit,
		TotalKilometrage:         stats.TotalKilometrage,
		ReplacementThreshold:     stats.ReplacementThreshold,
		DaysOwned:                stats.DaysOwned,
		DaysSinceLastMaintenance: stats.DaysSinceLastMaintenance,
		InstallationCount:        stats.InstallationCount,
		NeedsReplacement:         stats.NeedsReplacement,
	}
	if stats.CurrentBike != nil {
		b := newBikeResponse(stats.CurrentBike, unit)
		resp.CurrentBike = &b
	}
	c.JSON(http.StatusOK, resp)
}
