package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/sm8ta/webike_garage_service/internal/core/services"
)

type BikeHandler struct {
	bikeService *services.BikeService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

type BikeRequest struct {
	Name             string  `json:"name" binding:"required" example:"Commuter"`
	Type             string  `json:"type" binding:"required" example:"city"`
	Brand            string  `json:"brand,omitempty" example:"Surly"`
	Model            string  `json:"model,omitempty" example:"Cross-Check"`
	PurchaseDate     *string `json:"purchase_date,omitempty" example:"2023-04-01"`
	StartingDistance float64 `json:"starting_distance,omitempty" example:"0"`
}

type UpdateBike struct {
	Name         *string `json:"name,omitempty" example:"Commuter"`
	Type         *string `json:"type,omitempty" example:"gravel"`
	Brand        *string `json:"brand,omitempty" example:"Surly"`
	Model        *string `json:"model,omitempty" example:"Straggler"`
	PurchaseDate *string `json:"purchase_date,omitempty" example:"2023-04-01"`
}

func NewBikeHandler(bikeService *services.BikeService, logger ports.LoggerPort, metrics ports.MetricsPort) *BikeHandler {
	return &BikeHandler{
		bikeService: bikeService,
		logger:      logger,
		metrics:     metrics,
	}
}

// @Summary Create a bike
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param unit query string false "Distance unit (km or mi)"
// @Param request body BikeRequest true "Bike attributes"
// @Success 201 {object} BikeResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /bikes [post]
func (h *BikeHandler) CreateBike(c *gin.Context) {
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

	var req BikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in create bike", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	bike, err := h.bikeService.CreateBike(c.Request.Context(), userID, domain.BikeInput{
		Name:             req.Name,
		Type:             domain.BikeType(req.Type),
		Brand:            req.Brand,
		Model:            req.Model,
		PurchaseDate:     purchaseDate,
		StartingDistance: req.StartingDistance,
		Unit:             unit,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newBikeResponse(bike, unit))
}

// @Summary Get a bike
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} BikeResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id} [get]
func (h *BikeHandler) GetBike(c *gin.Context) {
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

	bike, err := h.bikeService.GetBike(c.Request.Context(), bikeID, userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newBikeResponse(bike, unit))
}

// @Summary List my bikes
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} BikeListResponse
// @Router /bikes/my [get]
func (h *BikeHandler) GetMyBikes(c *gin.Context) {
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

	bikes, err := h.bikeService.ListBikes(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, BikeListResponse{
		Bikes: newBikeResponses(bikes, unit),
		Count: len(bikes),
	})
}

// @Summary Update a bike
// @Description Only supplied fields change. Kilometrage cannot be patched.
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Bike ID"
// @Param request body UpdateBike true "Fields to change"
// @Success 200 {object} BikeResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id} [put]
func (h *BikeHandler) UpdateBike(c *gin.Context) {
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

	var req UpdateBike
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	patch := domain.BikePatch{
		Name:         req.Name,
		Brand:        req.Brand,
		Model:        req.Model,
		PurchaseDate: purchaseDate,
	}
	if req.Type != nil {
		t := domain.BikeType(*req.Type)
		patch.Type = &t
	}

	bike, err := h.bikeService.UpdateBike(c.Request.Context(), bikeID, userID, patch)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newBikeResponse(bike, unit))
}

// @Summary Delete a bike
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id} [delete]
func (h *BikeHandler) DeleteBike(c *gin.Context) {
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

	if err := h.bikeService.DeleteBike(c.Request.Context(), bikeID, userID); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Bike deleted successfully"})
}
