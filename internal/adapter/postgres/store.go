package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const openInstallationConstraint = "part_installations_one_open"

// Store runs every unit of work as a SERIALIZABLE transaction.
type Store struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("webike_garage/postgres"),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return s.run(ctx, false, fn)
}

func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, readOnly bool, fn func(ctx context.Context, tx ports.Tx) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "postgres.tx",
		trace.WithAttributes(attribute.Bool("tx.read_only", readOnly)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.Bool("tx.conflict", errors.Is(err, domain.ErrStoreConflict)))
		}
		span.End()
	}()

	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
		ReadOnly:  readOnly,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}
	defer sqlTx.Rollback()

	if err := fn(ctx, &tx{q: sqlTx, readOnly: readOnly}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type tx struct {
	q        querier
	readOnly bool
}

func (t *tx) Bikes() ports.BikeRepository                 { return &BikeRepository{q: t.q, lock: t.lockClause()} }
func (t *tx) Parts() ports.PartRepository                 { return &PartRepository{q: t.q, lock: t.lockClause()} }
func (t *tx) Installations() ports.InstallationRepository { return &InstallationRepository{q: t.q, lock: t.lockClause()} }
func (t *tx) ActiveBikes() ports.ActiveBikeRepository     { return &ActiveBikeRepository{q: t.q} }
func (t *tx) Kilometrage() ports.KilometrageRepository    { return &KilometrageRepository{q: t.q} }
func (t *tx) Maintenance() ports.MaintenanceRepository    { return &MaintenanceRepository{q: t.q} }
func (t *tx) Ownership() ports.OwnershipRepository        { return &OwnershipRepository{q: t.q} }

// Row locks are not allowed in read-only transactions.
func (t *tx) lockClause() string {
	if t.readOnly {
		return ""
	}
	return " FOR UPDATE"
}

// classify maps driver errors onto the domain taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", domain.ErrStoreConflict, pqErr.Message)
		case "23505":
			if pqErr.Constraint == openInstallationConstraint {
				return fmt.Errorf("%w: %s", domain.ErrStoreConflict, pqErr.Message)
			}
			return fmt.Errorf("%w: duplicate value: %s", domain.ErrValidation, pqErr.Message)
		case "23502":
			return fmt.Errorf("%w: required field is missing", domain.ErrValidation)
		case "23503":
			return fmt.Errorf("%w: referenced entity does not exist", domain.ErrNotFound)
		case "23514":
			return fmt.Errorf("%w: %s", domain.ErrValidation, pqErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
