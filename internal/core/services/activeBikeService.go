package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

type ActiveBikeService struct {
	engine
}

func NewActiveBikeService(d Deps) *ActiveBikeService {
	return &ActiveBikeService{engine: newEngine(d)}
}

// SetActive overwrites the user's selection; the previous one is discarded.
func (s *ActiveBikeService) SetActive(ctx context.Context, userID, bikeID uuid.UUID) (*domain.Bike, error) {
	var bike *domain.Bike
	err := s.mutate(ctx, "active.set", func(ctx context.Context, tx ports.Tx) error {
		b, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, userID)
		if err != nil {
			return err
		}
		if err := tx.ActiveBikes().SetActiveBikeID(ctx, userID, &bikeID, s.clock()); err != nil {
			return err
		}
		bike = b
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to set active bike", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
			"bike_id": bikeID,
		})
		return nil, err
	}

	s.logger.Info("Active bike set", map[string]interface{}{
		"user_id": userID,
		"bike_id": bikeID,
	})
	return bike, nil
}

func (s *ActiveBikeService) Deactivate(ctx context.Context, userID, bikeID uuid.UUID) error {
	err := s.mutate(ctx, "active.deactivate", func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, userID); err != nil {
			return err
		}
		current, err := tx.ActiveBikes().GetActiveBikeID(ctx, userID)
		if err != nil {
			return err
		}
		if current == nil || *current != bikeID {
			return domain.ErrConflictNotActive
		}
		return tx.ActiveBikes().SetActiveBikeID(ctx, userID, nil, s.clock())
	})
	if err != nil {
		s.logger.Warn("Failed to deactivate bike", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
			"bike_id": bikeID,
		})
		return err
	}

	s.logger.Info("Active bike cleared", map[string]interface{}{
		"user_id": userID,
		"bike_id": bikeID,
	})
	return nil
}

// GetActive returns nil, nil when no bike is selected.
func (s *ActiveBikeService) GetActive(ctx context.Context, userID uuid.UUID) (*domain.ActiveBike, error) {
	var active *domain.ActiveBike
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		active = nil
		bikeID, err := tx.ActiveBikes().GetActiveBikeID(ctx, userID)
		if err != nil || bikeID == nil {
			return err
		}
		bike, err := tx.Bikes().GetBikeForOwner(ctx, *bikeID, userID)
		if err != nil {
			return err
		}
		parts, err := tx.Installations().ActivePartsForBike(ctx, *bikeID)
		if err != nil {
			return err
		}
		active = &domain.ActiveBike{Bike: bike, Parts: parts}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to get active bike", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}
	return active, nil
}
