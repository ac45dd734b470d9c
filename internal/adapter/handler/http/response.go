package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

type errorResponse struct {
	Error string `json:"error" example:"not found"`
}

type messageResponse struct {
	Message string `json:"message" example:"Bike deleted successfully"`
}

func newErrorResponse(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}

// statusFor maps an engine error onto a status code and a client message.
// Foreign and missing entities share one response.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidTransfer):
		return http.StatusBadRequest, domain.ErrInvalidTransfer.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrConflictNotActive):
		return http.StatusConflict, domain.ErrConflictNotActive.Error()
	case errors.Is(err, domain.ErrNotInstalled):
		return http.StatusConflict, domain.ErrNotInstalled.Error()
	case errors.Is(err, domain.ErrStoreConflict):
		return http.StatusConflict, "concurrent update, try again"
	case errors.Is(err, domain.ErrUnknownUser):
		return http.StatusUnprocessableEntity, domain.ErrUnknownUser.Error()
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func handleError(c *gin.Context, logger ports.LoggerPort, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", map[string]interface{}{
			"error":  err.Error(),
			"path":   c.FullPath(),
			"status": status,
		})
	}
	newErrorResponse(c, status, message)
}

// requester returns the authenticated user id or writes 401.
func requester(c *gin.Context, logger ports.LoggerPort) (uuid.UUID, bool) {
	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		logger.Warn("Unauthorized access attempt", map[string]interface{}{
			"ip":   c.ClientIP(),
			"path": c.FullPath(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return payload.UserID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryUnit reads the unit query parameter, km when absent.
func queryUnit(c *gin.Context) (domain.Unit, bool) {
	unit, err := domain.ParseUnit(c.Query("unit"))
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return "", false
	}
	return unit, true
}

// parseDate accepts an ISO 8601 calendar date or an RFC 3339 timestamp.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, *s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(errors.New("malformed date " + *s))
}
