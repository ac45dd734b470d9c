package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

type TransferService struct {
	engine
	users ports.UserDirectory
}

func NewTransferService(d Deps, users ports.UserDirectory) *TransferService {
	return &TransferService{engine: newEngine(d), users: users}
}

// checkRecipient runs outside the transaction: the directory is a remote call.
func (s *TransferService) checkRecipient(ctx context.Context, requesterID, newOwnerID uuid.UUID) error {
	if newOwnerID == requesterID {
		return domain.ErrInvalidTransfer
	}
	if newOwnerID == uuid.Nil {
		return domain.ErrUnknownUser
	}
	exists, err := s.users.Exists(ctx, newOwnerID)
	if err != nil {
		return fmt.Errorf("lookup user %s: %w", newOwnerID, err)
	}
	if !exists {
		return domain.ErrUnknownUser
	}
	return nil
}

// TransferBike moves the bike and every part mounted on it to newOwnerID.
// Installations stay open; one history record is written per entity.
func (s *TransferService) TransferBike(ctx context.Context, bikeID, requesterID, newOwnerID uuid.UUID) (*domain.BikeTransfer, error) {
	if err := s.checkRecipient(ctx, requesterID, newOwnerID); err != nil {
		s.logger.Warn("Bike transfer rejected", map[string]interface{}{
			"error":        err.Error(),
			"bike_id":      bikeID,
			"new_owner_id": newOwnerID,
		})
		return nil, err
	}

	var result *domain.BikeTransfer
	err := s.mutate(ctx, "transfer.bike", func(ctx context.Context, tx ports.Tx) error {
		bike, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID)
		if err != nil {
			return err
		}
		parts, err := tx.Installations().ActivePartsForBike(ctx, bikeID)
		if err != nil {
			return err
		}

		now := s.clock()
		if err := tx.Bikes().SetBikeOwner(ctx, bikeID, newOwnerID, now); err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(parts))
		for i, p := range parts {
			ids[i] = p.ID
		}
		if len(ids) > 0 {
			if err := tx.Parts().SetPartsOwner(ctx, ids, newOwnerID, now); err != nil {
				return err
			}
		}

		active, err := tx.ActiveBikes().GetActiveBikeID(ctx, requesterID)
		if err != nil {
			return err
		}
		if active != nil && *active == bikeID {
			if err := tx.ActiveBikes().SetActiveBikeID(ctx, requesterID, nil, now); err != nil {
				return err
			}
		}

		records := make([]*domain.OwnershipHistoryRecord, 0, len(parts)+1)
		records = append(records, newTransferRecord(domain.SubjectBike, bikeID, requesterID, newOwnerID, now))
		for _, id := range ids {
			records = append(records, newTransferRecord(domain.SubjectPart, id, requesterID, newOwnerID, now))
		}
		for _, r := range records {
			if err := tx.Ownership().AppendTransfer(ctx, r); err != nil {
				return err
			}
		}

		bike.OwnerID = newOwnerID
		bike.UpdatedAt = now
		for _, p := range parts {
			p.OwnerID = newOwnerID
			p.UpdatedAt = now
		}
		result = &domain.BikeTransfer{Bike: bike, Parts: parts, Records: records}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to transfer bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	s.invalidate(append(partKeys(result.Parts), bikeKey(bikeID))...)
	if s.metrics != nil {
		s.metrics.OwnershipTransferred(string(domain.SubjectBike), len(result.Records))
	}
	s.logger.Info("Bike transferred successfully", map[string]interface{}{
		"bike_id":           bikeID,
		"previous_owner_id": requesterID,
		"new_owner_id":      newOwnerID,
		"parts_moved":       len(result.Parts),
	})
	return result, nil
}

// TransferPart unmounts the part if needed and reassigns it.
func (s *TransferService) TransferPart(ctx context.Context, partID, requesterID, newOwnerID uuid.UUID) (*domain.PartTransfer, error) {
	if err := s.checkRecipient(ctx, requesterID, newOwnerID); err != nil {
		s.logger.Warn("Part transfer rejected", map[string]interface{}{
			"error":        err.Error(),
			"part_id":      partID,
			"new_owner_id": newOwnerID,
		})
		return nil, err
	}

	var result *domain.PartTransfer
	err := s.mutate(ctx, "transfer.part", func(ctx context.Context, tx ports.Tx) error {
		part, err := tx.Parts().GetPartForOwner(ctx, partID, requesterID)
		if err != nil {
			return err
		}

		now := s.clock()
		open, err := tx.Installations().OpenInstallation(ctx, partID)
		if err != nil {
			return err
		}
		if open != nil {
			if err := tx.Installations().CloseInstallation(ctx, open.ID, now); err != nil {
				return err
			}
			open.RemovedAt = &now
		}

		if err := tx.Parts().SetPartsOwner(ctx, []uuid.UUID{partID}, newOwnerID, now); err != nil {
			return err
		}
		record := newTransferRecord(domain.SubjectPart, partID, requesterID, newOwnerID, now)
		if err := tx.Ownership().AppendTransfer(ctx, record); err != nil {
			return err
		}

		part.OwnerID = newOwnerID
		part.UpdatedAt = now
		result = &domain.PartTransfer{Part: part, Record: record, Uninstalled: open}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to transfer part", map[string]interface{}{
			"error":   err.Error(),
			"part_id": partID,
		})
		return nil, err
	}

	s.invalidate(partKey(partID))
	if s.metrics != nil {
		s.metrics.OwnershipTransferred(string(domain.SubjectPart), 1)
	}
	s.logger.Info("Part transferred successfully", map[string]interface{}{
		"part_id":           partID,
		"previous_owner_id": requesterID,
		"new_owner_id":      newOwnerID,
		"uninstalled":       result.Uninstalled != nil,
	})
	return result, nil
}

// History returns the audit trail of an entity the requester owns now.
func (s *TransferService) History(ctx context.Context, entityType domain.SubjectType, entityID, requesterID uuid.UUID) ([]*domain.OwnershipHistoryRecord, error) {
	if !entityType.Valid() {
		return nil, ErrInvalidSubjectType(entityType)
	}

	var records []*domain.OwnershipHistoryRecord
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := guardSubject(ctx, tx, entityType, entityID, requesterID); err != nil {
			return err
		}
		var err error
		records, err = tx.Ownership().TransfersForEntity(ctx, entityType, entityID)
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to get ownership history", map[string]interface{}{
			"error":       err.Error(),
			"entity_type": entityType,
			"entity_id":   entityID,
		})
		return nil, err
	}
	return records, nil
}

func newTransferRecord(entityType domain.SubjectType, entityID, from, to uuid.UUID, at time.Time) *domain.OwnershipHistoryRecord {
	return &domain.OwnershipHistoryRecord{
		ID:              uuid.New(),
		EntityType:      entityType,
		EntityID:        entityID,
		PreviousOwnerID: from,
		NewOwnerID:      to,
		TransferredAt:   at,
	}
}
