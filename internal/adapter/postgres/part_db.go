package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

const partColumns = `id, owner_id, name, type, brand, model, purchase_date, total_kilometrage, replacement_threshold_km, created_at, updated_at`

type PartRepository struct {
	q    querier
	lock string
}

func scanPart(row rowScanner) (*domain.Part, error) {
	part := &domain.Part{}
	var (
		purchaseDate sql.NullTime
		threshold    sql.NullFloat64
	)
	err := row.Scan(
		&part.ID,
		&part.OwnerID,
		&part.Name,
		&part.Type,
		&part.Brand,
		&part.Model,
		&purchaseDate,
		&part.TotalKilometrage,
		&threshold,
		&part.CreatedAt,
		&part.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if purchaseDate.Valid {
		d := purchaseDate.Time
		part.PurchaseDate = &d
	}
	part.ReplacementThresholdKm = floatPtr(threshold)
	return part, nil
}

func scanParts(rows *sql.Rows) ([]*domain.Part, error) {
	defer rows.Close()

	parts := make([]*domain.Part, 0)
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, classify(err)
		}
		parts = append(parts, part)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return parts, nil
}

func (r *PartRepository) CreatePart(ctx context.Context, part *domain.Part) error {
	query := `INSERT INTO parts (id, owner_id, name, type, brand, model, purchase_date, total_kilometrage, replacement_threshold_km, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.q.ExecContext(ctx, query,
		part.ID,
		part.OwnerID,
		part.Name,
		part.Type,
		part.Brand,
		part.Model,
		nullTime(part.PurchaseDate),
		part.TotalKilometrage,
		nullFloat(part.ReplacementThresholdKm),
		part.CreatedAt,
		part.UpdatedAt,
	)
	return classify(err)
}

func (r *PartRepository) GetPartForOwner(ctx context.Context, partID, ownerID uuid.UUID) (*domain.Part, error) {
	query := `SELECT ` + partColumns + `
		FROM parts WHERE id = $1 AND owner_id = $2` + r.lock

	part, err := scanPart(r.q.QueryRowContext(ctx, query, partID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotOwner
	}
	if err != nil {
		return nil, classify(err)
	}
	return part, nil
}

func (r *PartRepository) PartVersion(ctx context.Context, partID uuid.UUID) (domain.RowVersion, error) {
	var v domain.RowVersion
	err := r.q.QueryRowContext(ctx, `SELECT owner_id, updated_at FROM parts WHERE id = $1`, partID).
		Scan(&v.OwnerID, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return v, domain.ErrNotOwner
	}
	if err != nil {
		return v, classify(err)
	}
	return v, nil
}

func (r *PartRepository) GetPartsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Part, error) {
	query := `SELECT ` + partColumns + `
		FROM parts WHERE owner_id = $1
		ORDER BY created_at, id`

	rows, err := r.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, classify(err)
	}
	return scanParts(rows)
}

func (r *PartRepository) UpdatePart(ctx context.Context, part *domain.Part) error {
	query := `UPDATE parts
		SET
			name = $1,
			type = $2,
			brand = $3,
			model = $4,
			purchase_date = $5,
			replacement_threshold_km = $6,
			updated_at = $7
		WHERE id = $8`

	result, err := r.q.ExecContext(ctx, query,
		part.Name,
		part.Type,
		part.Brand,
		part.Model,
		nullTime(part.PurchaseDate),
		nullFloat(part.ReplacementThresholdKm),
		part.UpdatedAt,
		part.ID,
	)
	if err != nil {
		return classify(err)
	}
	return expectRow(result)
}

func (r *PartRepository) AddKilometrage(ctx context.Context, partIDs []uuid.UUID, km float64, at time.Time) ([]*domain.Part, error) {
	if len(partIDs) == 0 {
		return []*domain.Part{}, nil
	}
	query := `UPDATE parts
		SET total_kilometrage = total_kilometrage + $1, updated_at = $2
		WHERE id = ANY($3::uuid[])
		RETURNING ` + partColumns

	rows, err := r.q.QueryContext(ctx, query, km, at, pq.Array(uuidStrings(partIDs)))
	if err != nil {
		return nil, classify(err)
	}
	parts, err := scanParts(rows)
	if err != nil {
		return nil, err
	}
	if len(parts) != len(partIDs) {
		return nil, domain.ErrNotFound
	}
	return orderParts(parts, partIDs), nil
}

func (r *PartRepository) SetPartsOwner(ctx context.Context, partIDs []uuid.UUID, ownerID uuid.UUID, at time.Time) error {
	if len(partIDs) == 0 {
		return nil
	}
	result, err := r.q.ExecContext(ctx,
		`UPDATE parts SET owner_id = $1, updated_at = $2 WHERE id = ANY($3::uuid[])`,
		ownerID, at, pq.Array(uuidStrings(partIDs)),
	)
	if err != nil {
		return classify(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if int(n) != len(partIDs) {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PartRepository) DeletePart(ctx context.Context, partID uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM parts WHERE id = $1`, partID)
	if err != nil {
		return classify(err)
	}
	return expectRow(result)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// orderParts returns parts in the order of ids; RETURNING gives no ordering.
func orderParts(parts []*domain.Part, ids []uuid.UUID) []*domain.Part {
	byID := make(map[uuid.UUID]*domain.Part, len(parts))
	for _, p := range parts {
		byID[p.ID] = p
	}
	out := make([]*domain.Part, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
