package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

const cacheTTL = 15 * time.Minute

var (
	errNegativeOffset = errors.New("offset must not be negative")
	errFutureDate     = errors.New("performed_at must not be in the future")
)

// RetryPolicy bounds the internal retry of domain.ErrStoreConflict.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

// Deps are shared by every lifecycle service.
type Deps struct {
	Store    ports.Store
	Logger   ports.LoggerPort
	Validate *validator.Validate
	Cache    ports.CachePort
	Metrics  ports.EngineMetricsPort
	Retry    RetryPolicy
	Now      func() time.Time
}

type engine struct {
	store    ports.Store
	logger   ports.LoggerPort
	validate *validator.Validate
	cache    ports.CachePort
	metrics  ports.EngineMetricsPort
	retry    RetryPolicy
	now      func() time.Time
}

func newEngine(d Deps) engine {
	e := engine{
		store:    d.Store,
		logger:   d.Logger,
		validate: d.Validate,
		cache:    d.Cache,
		metrics:  d.Metrics,
		retry:    d.Retry,
		now:      d.Now,
	}
	if e.validate == nil {
		e.validate = validator.New()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.retry.MaxTries == 0 {
		e.retry = DefaultRetryPolicy()
	}
	return e
}

func (e *engine) clock() time.Time {
	return e.now().UTC()
}

// mutate runs fn in a serializable transaction and retries lost
// serialization races with exponential backoff. fn may run more than once and
// must only publish results through variables it fully overwrites.
func (e *engine) mutate(ctx context.Context, op string, fn func(ctx context.Context, tx ports.Tx) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retry.InitialInterval
	b.MaxInterval = e.retry.MaxInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := e.store.WithinTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, domain.ErrStoreConflict) {
			e.logger.Warn("Transaction conflict, retrying", map[string]interface{}{
				"op":      op,
				"attempt": attempt,
				"error":   err.Error(),
			})
			if e.metrics != nil {
				e.metrics.TxRetried(op)
			}
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(e.retry.MaxTries),
	)
	return err
}

func (e *engine) view(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return e.store.ReadOnly(ctx, fn)
}

func (e *engine) invalidate(keys ...string) {
	if e.cache == nil || len(keys) == 0 {
		return
	}
	if err := e.cache.Delete(keys...); err != nil {
		e.logger.Warn("Failed to invalidate cache", map[string]interface{}{
			"error": err.Error(),
			"keys":  keys,
		})
	}
}

func (e *engine) validateStruct(v interface{}) error {
	if err := e.validate.Struct(v); err != nil {
		return domain.NewValidationError(err)
	}
	return nil
}

func ErrInvalidPartType(t domain.PartType) error {
	return fmt.Errorf("%w: part type %q", domain.ErrInvalidEnum, t)
}

func ErrInvalidMaintenanceType(t domain.MaintenanceType) error {
	return fmt.Errorf("%w: maintenance type %q", domain.ErrInvalidEnum, t)
}

func ErrInvalidSubjectType(t domain.SubjectType) error {
	return fmt.Errorf("%w: subject type %q", domain.ErrInvalidEnum, t)
}
