package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/sm8ta/webike_garage_service/internal/core/services"
)

type PartHandler struct {
	partService *services.PartService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

type PartRequest struct {
	Name                 string   `json:"name" binding:"required" example:"Chain A"`
	Type                 string   `json:"type" binding:"required" example:"chain"`
	Brand                string   `json:"brand,omitempty" example:"Shimano"`
	Model                string   `json:"model,omitempty" example:"CN-HG701"`
	PurchaseDate         *string  `json:"purchase_date,omitempty" example:"2024-01-15"`
	StartingDistance     float64  `json:"starting_distance,omitempty" example:"0"`
	ReplacementThreshold *float64 `json:"replacement_threshold,omitempty" example:"3000"`
}

type UpdatePart struct {
	Name                 *string  `json:"name,omitempty" example:"Chain B"`
	Type                 *string  `json:"type,omitempty" example:"chain"`
	Brand                *string  `json:"brand,omitempty" example:"SRAM"`
	Model                *string  `json:"model,omitempty" example:"PC-1170"`
	PurchaseDate         *string  `json:"purchase_date,omitempty" example:"2024-01-15"`
	ReplacementThreshold *float64 `json:"replacement_threshold,omitempty" example:"2500"`
}

func NewPartHandler(partService *services.PartService, logger ports.LoggerPort, metrics ports.MetricsPort) *PartHandler {
	return &PartHandler{
		partService: partService,
		logger:      logger,
		metrics:     metrics,
	}
}

// @Summary Create a part
// @Tags parts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param unit query string false "Distance unit (km or mi)"
// @Param request body PartRequest true "Part attributes"
// @Success 201 {object} PartResponse
// @Failure 400 {object} errorResponse
// @Router /parts [post]
func (h *PartHandler) CreatePart(c *gin.Context) {
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

	var req PartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in create part", map[string]interface{}{
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

	part, err := h.partService.CreatePart(c.Request.Context(), userID, domain.PartInput{
		Name:                 req.Name,
		Type:                 domain.PartType(req.Type),
		Brand:                req.Brand,
		Model:                req.Model,
		PurchaseDate:         purchaseDate,
		StartingDistance:     req.StartingDistance,
		ReplacementThreshold: req.ReplacementThreshold,
		Unit:                 unit,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newPartResponse(part, unit))
}

// @Summary Get a part
// @Tags parts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Part ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} PartResponse
// @Failure 404 {object} errorResponse
// @Router /parts/{id} [get]
func (h *PartHandler) GetPart(c *gin.Context) {
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

	part, err := h.partService.GetPart(c.Request.Context(), partID, userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newPartResponse(part, unit))
}

// @Summary List my parts
// @Tags parts
// @Security BearerAuth
// @Produce json
// @Param unit query string false "Distance unit (km or mi)"
// @Success 200 {object} PartListResponse
// @Router /parts/my [get]
func (h *PartHandler) GetMyParts(c *gin.Context) {
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

	parts, err := h.partService.ListParts(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PartListResponse{
		Parts: newPartResponses(parts, unit),
		Count: len(parts),
	})
}

// @Summary Update a part
// @Tags parts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Part ID"
// @Param unit query string false "Unit of replacement_threshold (km or mi)"
// @Param request body UpdatePart true "Fields to change"
// @Success 200 {object} PartResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /parts/{id} [put]
func (h *PartHandler) UpdatePart(c *gin.Context) {
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

	var req UpdatePart
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	patch := domain.PartPatch{
		Name:                 req.Name,
		Brand:                req.Brand,
		Model:                req.Model,
		PurchaseDate:         purchaseDate,
		ReplacementThreshold: req.ReplacementThreshold,
		Unit:                 unit,
	}
	if req.Type != nil {
		t := domain.PartType(*req.Type)
		patch.Type = &t
	}

	part, err := h.partService.UpdatePart(c.Request.Context(), partID, userID, patch)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newPartResponse(part, unit))
}

// @Summary Delete a part
// @Tags parts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Part ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse
// @Router /parts/{id} [delete]
func (h *PartHandler) DeletePart(c *gin.Context) {
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

	if err := h.partService.DeletePart(c.Request.Context(), partID, userID); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Part deleted successfully"})
}
