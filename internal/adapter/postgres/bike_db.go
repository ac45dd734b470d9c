package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

const bikeColumns = `id, owner_id, name, type, brand, model, purchase_date, total_kilometrage, created_at, updated_at`

type BikeRepository struct {
	q    querier
	lock string
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBike(row rowScanner) (*domain.Bike, error) {
	bike := &domain.Bike{}
	var purchaseDate sql.NullTime
	err := row.Scan(
		&bike.ID,
		&bike.OwnerID,
		&bike.Name,
		&bike.Type,
		&bike.Brand,
		&bike.Model,
		&purchaseDate,
		&bike.TotalKilometrage,
		&bike.CreatedAt,
		&bike.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if purchaseDate.Valid {
		d := purchaseDate.Time
		bike.PurchaseDate = &d
	}
	return bike, nil
}

func (r *BikeRepository) CreateBike(ctx context.Context, bike *domain.Bike) error {
	query := `INSERT INTO bikes (id, owner_id, name, type, brand, model, purchase_date, total_kilometrage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.q.ExecContext(ctx, query,
		bike.ID,
		bike.OwnerID,
		bike.Name,
		bike.Type,
		bike.Brand,
		bike.Model,
		nullTime(bike.PurchaseDate),
		bike.TotalKilometrage,
		bike.CreatedAt,
		bike.UpdatedAt,
	)
	return classify(err)
}

func (r *BikeRepository) GetBikeForOwner(ctx context.Context, bikeID, ownerID uuid.UUID) (*domain.Bike, error) {
	query := `SELECT ` + bikeColumns + `
		FROM bikes WHERE id = $1 AND owner_id = $2` + r.lock

	bike, err := scanBike(r.q.QueryRowContext(ctx, query, bikeID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotOwner
	}
	if err != nil {
		return nil, classify(err)
	}
	return bike, nil
}

func (r *BikeRepository) BikeVersion(ctx context.Context, bikeID uuid.UUID) (domain.RowVersion, error) {
	var v domain.RowVersion
	err := r.q.QueryRowContext(ctx, `SELECT owner_id, updated_at FROM bikes WHERE id = $1`, bikeID).
		Scan(&v.OwnerID, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return v, domain.ErrNotOwner
	}
	if err != nil {
		return v, classify(err)
	}
	return v, nil
}

func (r *BikeRepository) GetBikesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Bike, error) {
	query := `SELECT ` + bikeColumns + `
		FROM bikes WHERE owner_id = $1
		ORDER BY created_at, id`

	rows, err := r.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	bikes := make([]*domain.Bike, 0)
	for rows.Next() {
		bike, err := scanBike(rows)
		if err != nil {
			return nil, classify(err)
		}
		bikes = append(bikes, bike)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(err)
	}
	return bikes, nil
}

func (r *BikeRepository) UpdateBike(ctx context.Context, bike *domain.Bike) error {
	query := `UPDATE bikes
		SET
			name = $1,
			type = $2,
			brand = $3,
			model = $4,
			purchase_date = $5,
			updated_at = $6
		WHERE id = $7`

	result, err := r.q.ExecContext(ctx, query,
		bike.Name,
		bike.Type,
		bike.Brand,
		bike.Model,
		nullTime(bike.PurchaseDate),
		bike.UpdatedAt,
		bike.ID,
	)
	if err != nil {
		return classify(err)
	}
	return expectRow(result)
}

func (r *BikeRepository) AddKilometrage(ctx context.Context, bikeID uuid.UUID, km float64, at time.Time) (*domain.Bike, error) {
	query := `UPDATE bikes
		SET total_kilometrage = total_kilometrage + $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + bikeColumns

	bike, err := scanBike(r.q.QueryRowContext(ctx, query, km, at, bikeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return bike, nil
}

func (r *BikeRepository) SetBikeOwner(ctx context.Context, bikeID, ownerID uuid.UUID, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE bikes SET owner_id = $1, updated_at = $2 WHERE id = $3`,
		ownerID, at, bikeID,
	)
	if err != nil {
		return classify(err)
	}
	return expectRow(result)
}

func (r *BikeRepository) DeleteBike(ctx context.Context, bikeID uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM bikes WHERE id = $1`, bikeID)
	if err != nil {
		return classify(err)
	}
	return expectRow(result)
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
