// Package users resolves transfer recipients against the user service.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-openapi/runtime"
	httptransport "github.com/go-openapi/runtime/client"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	user_client "github.com/sm8ta/webike_user_microservice_nikita/pkg/client"
	"github.com/sm8ta/webike_user_microservice_nikita/pkg/client/users"
	"github.com/sony/gobreaker"
)

var (
	ErrDirectoryUnavailable = fmt.Errorf("user directory: %w", domain.ErrUpstreamUnavailable)
	// ErrDirectoryRejected is a 4xx answer other than 404: the recipient
	// cannot be resolved with this request, and the service itself is up.
	ErrDirectoryRejected = fmt.Errorf("user directory refused the lookup: %w", domain.ErrUnknownUser)
)

type Directory struct {
	client  *user_client.UserMicroservice
	breaker *gobreaker.CircuitBreaker
	logger  ports.LoggerPort
}

// NewDirectory talks to the user service at address (host:port).
func NewDirectory(address string, logger ports.LoggerPort) *Directory {
	transport := httptransport.New(address, "", []string{"http"})
	return &Directory{
		client: user_client.New(transport, strfmt.Default),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "user-service",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || isRejected(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed", map[string]interface{}{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			},
		}),
		logger: logger,
	}
}

// Exists forwards the caller's bearer token when one is in ctx. A 404 is a
// definite "no" and other 4xx answers are ErrDirectoryRejected; only
// transport failures, 5xx and 429 count against the breaker.
func (d *Directory) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	params := users.NewGetUsersIDParams()
	params.ID = userID.String()
	params.Context = ctx

	var authInfo runtime.ClientAuthInfoWriter
	if payload, ok := domain.TokenFromContext(ctx); ok && payload.Raw != "" {
		authInfo = httptransport.BearerToken(payload.Raw)
	}

	found, err := d.breaker.Execute(func() (interface{}, error) {
		resp, err := d.client.Users.GetUsersID(params, authInfo)
		if err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, err
		}
		return resp != nil && resp.Payload != nil, nil
	})
	if isRejected(err) {
		d.logger.Warn("User lookup rejected", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return false, fmt.Errorf("%w: %v", ErrDirectoryRejected, err)
	}
	if err != nil {
		d.logger.Error("Failed to look up user", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return false, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	return found.(bool), nil
}

func isNotFound(err error) bool {
	var coded interface{ IsCode(int) bool }
	return errors.As(err, &coded) && coded.IsCode(http.StatusNotFound)
}

// isRejected reports a 4xx answer that says nothing about the service's
// health. Throttling is not one of them.
func isRejected(err error) bool {
	var answer interface {
		IsClientError() bool
		IsCode(int) bool
	}
	if !errors.As(err, &answer) {
		return false
	}
	return answer.IsClientError() && !answer.IsCode(http.StatusTooManyRequests)
}
