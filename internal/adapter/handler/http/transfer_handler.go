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

type TransferHandler struct {
	transferService *services.TransferService
	logger          ports.LoggerPort
	metrics         ports.MetricsPort
}

type TransferRequest struct {
	NewOwnerID string `json:"new_owner_id" binding:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
}

type OwnershipHistoryResponse struct {
	Records []*domain.OwnershipHistoryRecord `json:"records"`
	Count   int                              `json:"count"`
}

func NewTransferHandler(transferService *services.TransferService, logger ports.LoggerPort, metrics ports.MetricsPort) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
		metrics:         metrics,
	}
}

func bindNewOwner(c *gin.Context) (uuid.UUID, bool) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.NewOwnerID)
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid new_owner_id")
		return uuid.Nil, false
	}
	return id, true
}

// @Summary Transfer a bike
// @Description The bike and every part mounted on it move to the new owner.
// @Tags transfers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Bike ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Param request body TransferRequest true "Recipient"
// @Success 200 {object} BikeTransferResponse
// @Failure 400 {object} errorResponse "Self-transfer"
// @Failure 404 {object} errorResponse
// @Failure 422 {object} errorResponse "Unknown recipient"
// @Router /bikes/{id}/transfer [post]
func (h *TransferHandler) TransferBike(c *gin.Context) {
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
	newOwner, ok := bindNewOwner(c)
	if !ok {
		return
	}

	res, err := h.transferService.TransferBike(c.Request.Context(), bikeID, userID, newOwner)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, BikeTransferResponse{
		Bike:    newBikeResponse(res.Bike, unit),
		Parts:   newPartResponses(res.Parts, unit),
		Records: res.Records,
	})
}

// @Summary Transfer a part
// @Description A mounted part is removed from its bike first.
// @Tags transfers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Part ID"
// @Param unit query string false "Distance unit (km or mi)"
// @Param request body TransferRequest true "Recipient"
// @Success 200 {object} PartTransferResponse
// @Failure 400 {object} errorResponse "Self-transfer"
// @Failure 404 {object} errorResponse
// @Failure 422 {object} errorResponse "Unknown recipient"
// @Router /parts/{id}/transfer [post]
func (h *TransferHandler) TransferPart(c *gin.Context) {
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
	newOwner, ok := bindNewOwner(c)
	if !ok {
		return
	}

	res, err := h.transferService.TransferPart(c.Request.Context(), partID, userID, newOwner)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PartTransferResponse{
		Part:        newPartResponse(res.Part, unit),
		Record:      res.Record,
		Uninstalled: res.Uninstalled,
	})
}

// History serves GET /bikes/{id}/ownership and GET /parts/{id}/ownership.
//
// @Summary Ownership history, newest first
// @Tags transfers
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike or part ID"
// @Success 200 {object} OwnershipHistoryResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id}/ownership [get]
// @Router /parts/{id}/ownership [get]
func (h *TransferHandler) History(entity domain.SubjectType) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			h.metrics.RecordMetrics(c, start)
		}()

		userID, ok := requester(c, h.logger)
		if !ok {
			return
		}
		entityID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		records, err := h.transferService.History(c.Request.Context(), entity, entityID, userID)
		if err != nil {
			handleError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, OwnershipHistoryResponse{Records: records, Count: len(records)})
	}
}
