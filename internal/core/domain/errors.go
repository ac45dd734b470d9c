package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")

	ErrInvalidDistance = fmt.Errorf("%w: distance must be a positive finite value within the allowed range", ErrValidation)
	ErrInvalidEnum     = fmt.Errorf("%w: invalid enum value", ErrValidation)
	ErrInvalidUnit     = fmt.Errorf("%w: unit must be km or mi", ErrValidation)
	ErrNoActiveBike    = fmt.Errorf("%w: no active bike selected", ErrValidation)

	ErrNotFound = errors.New("not found")
	// ErrNotOwner is returned by guarded lookups. It matches ErrNotFound so the
	// caller-visible layer cannot tell a foreign entity from a missing one.
	ErrNotOwner = fmt.Errorf("%w: requester does not own the entity", ErrNotFound)

	ErrConflictNotActive = errors.New("bike is not the active bike")
	ErrNotInstalled      = errors.New("part is not installed on this bike")
	ErrInvalidTransfer   = errors.New("cannot transfer to the current owner")
	ErrUnknownUser       = errors.New("unknown user")

	// ErrStoreConflict marks a transaction that lost a serialization race.
	// It is the only error the services retry.
	ErrStoreConflict    = errors.New("store conflict")
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUpstreamUnavailable is returned when the user directory cannot answer.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// NewValidationError wraps a validator failure so it matches ErrValidation.
func NewValidationError(err error) error {
	return fmt.Errorf("%w: %s", ErrValidation, err.Error())
}
