package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

type InstallationRepository struct {
	q    querier
	lock string
}

func scanInstallation(row rowScanner) (*domain.Installation, error) {
	inst := &domain.Installation{}
	var removedAt sql.NullTime
	if err := row.Scan(&inst.ID, &inst.PartID, &inst.BikeID, &inst.InstalledAt, &removedAt); err != nil {
		return nil, err
	}
	if removedAt.Valid {
		t := removedAt.Time
		inst.RemovedAt = &t
	}
	return inst, nil
}

func (r *InstallationRepository) OpenInstallation(ctx context.Context, partID uuid.UUID) (*domain.Installation, error) {
	query := `SELECT id, part_id, bike_id, installed_at, removed_at
		FROM part_installations
		WHERE part_id = $1 AND removed_at IS NULL` + r.lock

	inst, err := scanInstallation(r.q.QueryRowContext(ctx, query, partID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return inst, nil
}

func (r *InstallationRepository) CreateInstallation(ctx context.Context, inst *domain.Installation) error {
	query := `INSERT INTO part_installations (id, part_id, bike_id, installed_at, removed_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.q.ExecContext(ctx, query,
		inst.ID,
		inst.PartID,
		inst.BikeID,
		inst.InstalledAt,
		nullTime(inst.RemovedAt),
	)
	return classify(err)
}

func (r *InstallationRepository) CloseInstallation(ctx context.Context, installationID uuid.UUID, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE part_installations SET removed_at = $1 WHERE id = $2 AND removed_at IS NULL`,
		at, installationID,
	)
	if err != nil {
		return classify(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return domain.ErrNotInstalled
	}
	return nil
}

func (r *InstallationRepository) ActivePartsForBike(ctx context.Context, bikeID uuid.UUID) ([]*domain.Part, error) {
	query := `SELECT p.id, p.owner_id, p.name, p.type, p.brand, p.model, p.purchase_date,
			p.total_kilometrage, p.replacement_threshold_km, p.created_at, p.updated_at
		FROM part_installations i
		JOIN parts p ON p.id = i.part_id
		WHERE i.bike_id = $1 AND i.removed_at IS NULL
		ORDER BY i.seq`

	rows, err := r.q.QueryContext(ctx, query, bikeID)
	if err != nil {
		return nil, classify(err)
	}
	return scanParts(rows)
}

func (r *InstallationRepository) InstallationsForPart(ctx context.Context, partID uuid.UUID) ([]*domain.Installation, error) {
	query := `SELECT id, part_id, bike_id, installed_at, removed_at
		FROM part_installations
		WHERE part_id = $1
		ORDER BY installed_at DESC, seq DESC`

	rows, err := r.q.QueryContext(ctx, query, partID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]*domain.Installation, 0)
	for rows.Next() {
		inst, err := scanInstallation(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

type ActiveBikeRepository struct {
	q querier
}

func (r *ActiveBikeRepository) GetActiveBikeID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	var bikeID uuid.NullUUID
	err := r.q.QueryRowContext(ctx,
		`SELECT active_bike_id FROM active_bikes WHERE user_id = $1`,
		userID,
	).Scan(&bikeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	if !bikeID.Valid {
		return nil, nil
	}
	id := bikeID.UUID
	return &id, nil
}

func (r *ActiveBikeRepository) SetActiveBikeID(ctx context.Context, userID uuid.UUID, bikeID *uuid.UUID, at time.Time) error {
	var value uuid.NullUUID
	if bikeID != nil {
		value = uuid.NullUUID{UUID: *bikeID, Valid: true}
	}
	query := `INSERT INTO active_bikes (user_id, active_bike_id, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET active_bike_id = EXCLUDED.active_bike_id, updated_at = EXCLUDED.updated_at`

	_, err := r.q.ExecContext(ctx, query, userID, value, at)
	return classify(err)
}
