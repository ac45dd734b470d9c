package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

// Insert-only ledgers: kilometrage, maintenance, ownership history.

type KilometrageRepository struct {
	q querier
}

func (r *KilometrageRepository) AppendEntry(ctx context.Context, entry *domain.KilometrageLogEntry) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO kilometrage_log (id, bike_id, distance_km, source, logged_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.BikeID, entry.DistanceKm, entry.Source, entry.LoggedAt,
	)
	return classify(err)
}

func (r *KilometrageRepository) EntriesForBike(ctx context.Context, bikeID uuid.UUID, limit, offset int) ([]*domain.KilometrageLogEntry, error) {
	query := `SELECT id, bike_id, distance_km, source, logged_at
		FROM kilometrage_log
		WHERE bike_id = $1
		ORDER BY logged_at DESC, seq DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.q.QueryContext(ctx, query, bikeID, limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	entries := make([]*domain.KilometrageLogEntry, 0)
	for rows.Next() {
		e := &domain.KilometrageLogEntry{}
		if err := rows.Scan(&e.ID, &e.BikeID, &e.DistanceKm, &e.Source, &e.LoggedAt); err != nil {
			return nil, classify(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

func (r *KilometrageRepository) SumSince(ctx context.Context, bikeID uuid.UUID, since time.Time) (float64, error) {
	var sum float64
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(distance_km), 0) FROM kilometrage_log WHERE bike_id = $1 AND logged_at > $2`,
		bikeID, since,
	).Scan(&sum)
	if err != nil {
		return 0, classify(err)
	}
	return sum, nil
}

type MaintenanceRepository struct {
	q querier
}

func (r *MaintenanceRepository) AppendRecord(ctx context.Context, record *domain.MaintenanceRecord) error {
	query := `INSERT INTO maintenance_records (id, subject_type, subject_id, maintenance_type, description, performed_at, cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.ExecContext(ctx, query,
		record.ID,
		record.SubjectType,
		record.SubjectID,
		record.MaintenanceType,
		record.Description,
		record.PerformedAt,
		nullFloat(record.Cost),
		record.CreatedAt,
	)
	return classify(err)
}

func (r *MaintenanceRepository) RecordsForSubject(ctx context.Context, subjectType domain.SubjectType, subjectID uuid.UUID) ([]*domain.MaintenanceRecord, error) {
	query := `SELECT id, subject_type, subject_id, maintenance_type, description, performed_at, cost, created_at
		FROM maintenance_records
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY performed_at DESC, seq DESC`

	rows, err := r.q.QueryContext(ctx, query, subjectType, subjectID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	records := make([]*domain.MaintenanceRecord, 0)
	for rows.Next() {
		rec := &domain.MaintenanceRecord{}
		var cost sql.NullFloat64
		err := rows.Scan(
			&rec.ID,
			&rec.SubjectType,
			&rec.SubjectID,
			&rec.MaintenanceType,
			&rec.Description,
			&rec.PerformedAt,
			&cost,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, classify(err)
		}
		rec.Cost = floatPtr(cost)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return records, nil
}

type OwnershipRepository struct {
	q querier
}

func (r *OwnershipRepository) AppendTransfer(ctx context.Context, record *domain.OwnershipHistoryRecord) error {
	query := `INSERT INTO ownership_history (id, entity_type, entity_id, previous_owner_id, new_owner_id, transferred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.ExecContext(ctx, query,
		record.ID,
		record.EntityType,
		record.EntityID,
		record.PreviousOwnerID,
		record.NewOwnerID,
		record.TransferredAt,
	)
	return classify(err)
}

func (r *OwnershipRepository) TransfersForEntity(ctx context.Context, entityType domain.SubjectType, entityID uuid.UUID) ([]*domain.OwnershipHistoryRecord, error) {
	query := `SELECT id, entity_type, entity_id, previous_owner_id, new_owner_id, transferred_at
		FROM ownership_history
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY transferred_at DESC, seq DESC`

	rows, err := r.q.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	records := make([]*domain.OwnershipHistoryRecord, 0)
	for rows.Next() {
		rec := &domain.OwnershipHistoryRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.EntityType,
			&rec.EntityID,
			&rec.PreviousOwnerID,
			&rec.NewOwnerID,
			&rec.TransferredAt,
		)
		if err != nil {
			return nil, classify(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return records, nil
}
