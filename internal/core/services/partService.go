package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

type PartService struct {
	engine
}

func NewPartService(d Deps) *PartService {
	return &PartService{engine: newEngine(d)}
}

func (s *PartService) CreatePart(ctx context.Context, ownerID uuid.UUID, in domain.PartInput) (*domain.Part, error) {
	now := s.clock()
	part := &domain.Part{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Name:             in.Name,
		Type:             in.Type,
		Brand:            in.Brand,
		Model:            in.Model,
		PurchaseDate:     in.PurchaseDate,
		TotalKilometrage: in.Unit.ToKm(in.StartingDistance),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.ReplacementThreshold != nil {
		km := in.Unit.ToKm(*in.ReplacementThreshold)
		part.ReplacementThresholdKm = &km
	}
	if err := s.validatePart(part); err != nil {
		s.logger.Error("Part validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	err := s.mutate(ctx, "part.create", func(ctx context.Context, tx ports.Tx) error {
		return tx.Parts().CreatePart(ctx, part)
	})
	if err != nil {
		s.logger.Error("Failed to create part", map[string]interface{}{
			"error":   err.Error(),
			"user_id": ownerID,
		})
		return nil, err
	}

	s.logger.Info("Part created successfully", map[string]interface{}{
		"part_id": part.ID,
		"user_id": ownerID,
		"type":    part.Type,
	})
	return part, nil
}

// validatePart reports an unknown part type as ErrInvalidEnum.
func (s *PartService) validatePart(part *domain.Part) error {
	if part.Type != "" && !part.Type.Valid() {
		return ErrInvalidPartType(part.Type)
	}
	return s.validateStruct(part)
}

// GetPart trusts a cached part only after checking it against the stored
// owner and updated_at.
func (s *PartService) GetPart(ctx context.Context, partID, requesterID uuid.UUID) (*domain.Part, error) {
	cacheKey := partKey(partID)
	cached := s.cachedPart(cacheKey)

	var (
		part  *domain.Part
		fresh bool
	)
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		part, fresh = nil, false
		if cached != nil {
			v, err := tx.Parts().PartVersion(ctx, partID)
			if err != nil {
				s.invalidate(cacheKey)
				return err
			}
			if v.Matches(cached.OwnerID, cached.UpdatedAt) {
				if v.OwnerID != requesterID {
					return domain.ErrNotOwner
				}
				part = cached.Clone()
				return nil
			}
			s.invalidate(cacheKey)
		}
		var err error
		part, err = tx.Parts().GetPartForOwner(ctx, partID, requesterID)
		fresh = err == nil
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to get part", map[string]interface{}{
			"error":   err.Error(),
			"part_id": partID,
		})
		return nil, err
	}

	if fresh && s.cache != nil {
		if data, err := json.Marshal(part); err == nil {
			if err := s.cache.Set(cacheKey, data, cacheTTL); err != nil {
				s.logger.Warn("Failed to cache part", map[string]interface{}{
					"error":   err.Error(),
					"part_id": partID,
				})
			}
		}
	}
	return part, nil
}

func (s *PartService) cachedPart(key string) *domain.Part {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(key)
	if err != nil {
		return nil
	}
	var part domain.Part
	if err := json.Unmarshal(data, &part); err != nil {
		return nil
	}
	return &part
}

func (s *PartService) ListParts(ctx context.Context, ownerID uuid.UUID) ([]*domain.Part, error) {
	var parts []*domain.Part
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		parts, err = tx.Parts().GetPartsByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to get parts", map[string]interface{}{
			"error":   err.Error(),
			"user_id": ownerID,
		})
		return nil, err
	}
	return parts, nil
}

func (s *PartService) UpdatePart(ctx context.Context, partID, requesterID uuid.UUID, patch domain.PartPatch) (*domain.Part, error) {
	var updated *domain.Part
	err := s.mutate(ctx, "part.update", func(ctx context.Context, tx ports.Tx) error {
		part, err := tx.Parts().GetPartForOwner(ctx, partID, requesterID)
		if err != nil {
			return err
		}
		part.Apply(patch)
		part.UpdatedAt = s.clock()
		if err := s.validatePart(part); err != nil {
			return err
		}
		if err := tx.Parts().UpdatePart(ctx, part); err != nil {
			return err
		}
		updated = part
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update part", map[string]interface{}{
			"error":   err.Error(),
			"part_id": partID,
		})
		return nil, err
	}

	s.invalidate(partKey(partID))
	s.logger.Info("Part updated successfully", map[string]interface{}{
		"part_id": partID,
	})
	return updated, nil
}

func (s *PartService) DeletePart(ctx context.Context, partID, requesterID uuid.UUID) error {
	err := s.mutate(ctx, "part.delete", func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Parts().GetPartForOwner(ctx, partID, requesterID); err != nil {
			return err
		}
		return tx.Parts().DeletePart(ctx, partID)
	})
	if err != nil {
		s.logger.Error("Failed to delete part", map[string]interface{}{
			"error":   err.Error(),
			"part_id": partID,
		})
		return err
	}

	s.invalidate(partKey(partID))
	s.logger.Info("Part deleted successfully", map[string]interface{}{
		"part_id": partID,
	})
	return nil
}
