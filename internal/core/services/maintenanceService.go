package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

type MaintenanceService struct {
	engine
}

func NewMaintenanceService(d Deps) *MaintenanceService {
	return &MaintenanceService{engine: newEngine(d)}
}

func (s *MaintenanceService) Record(ctx context.Context, subjectType domain.SubjectType, subjectID, requesterID uuid.UUID, in domain.MaintenanceInput) (*domain.MaintenanceRecord, error) {
	if !subjectType.Valid() {
		return nil, ErrInvalidSubjectType(subjectType)
	}
	if !in.MaintenanceType.Valid() {
		return nil, ErrInvalidMaintenanceType(in.MaintenanceType)
	}

	now := s.clock()
	performedAt := now
	if in.PerformedAt != nil {
		if in.PerformedAt.After(now) {
			return nil, domain.NewValidationError(errFutureDate)
		}
		performedAt = in.PerformedAt.UTC()
	}
	record := &domain.MaintenanceRecord{
		ID:              uuid.New(),
		SubjectType:     subjectType,
		SubjectID:       subjectID,
		MaintenanceType: in.MaintenanceType,
		Description:     in.Description,
		PerformedAt:     performedAt,
		Cost:            in.Cost,
		CreatedAt:       now,
	}
	if err := s.validateStruct(record); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, "maintenance.record", func(ctx context.Context, tx ports.Tx) error {
		if err := guardSubject(ctx, tx, subjectType, subjectID, requesterID); err != nil {
			return err
		}
		return tx.Maintenance().AppendRecord(ctx, record)
	})
	if err != nil {
		s.logger.Error("Failed to record maintenance", map[string]interface{}{
			"error":        err.Error(),
			"subject_type": subjectType,
			"subject_id":   subjectID,
		})
		return nil, err
	}

	s.logger.Info("Maintenance recorded successfully", map[string]interface{}{
		"record_id":        record.ID,
		"subject_type":     subjectType,
		"subject_id":       subjectID,
		"maintenance_type": record.MaintenanceType,
	})
	return record, nil
}

// History lists the subject's records by performed_at, newest first.
func (s *MaintenanceService) History(ctx context.Context, subjectType domain.SubjectType, subjectID, requesterID uuid.UUID) ([]*domain.MaintenanceRecord, error) {
	if !subjectType.Valid() {
		return nil, ErrInvalidSubjectType(subjectType)
	}

	var records []*domain.MaintenanceRecord
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := guardSubject(ctx, tx, subjectType, subjectID, requesterID); err != nil {
			return err
		}
		var err error
		records, err = tx.Maintenance().RecordsForSubject(ctx, subjectType, subjectID)
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to get maintenance history", map[string]interface{}{
			"error":        err.Error(),
			"subject_type": subjectType,
			"subject_id":   subjectID,
		})
		return nil, err
	}
	return records, nil
}

func guardSubject(ctx context.Context, tx ports.Tx, subjectType domain.SubjectType, subjectID, requesterID uuid.UUID) error {
	var err error
	switch subjectType {
	case domain.SubjectBike:
		_, err = tx.Bikes().GetBikeForOwner(ctx, subjectID, requesterID)
	case domain.SubjectPart:
		_, err = tx.Parts().GetPartForOwner(ctx, subjectID, requesterID)
	default:
		err = ErrInvalidSubjectType(subjectType)
	}
	return err
}
