package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

func bikeKey(id uuid.UUID) string { return fmt.Sprintf("bike:%s", id) }
func partKey(id uuid.UUID) string { return fmt.Sprintf("part:%s", id) }

func partKeys(parts []*domain.Part) []string {
	keys := make([]string, len(parts))
	for i, p := range parts {
		keys[i] = partKey(p.ID)
	}
	return keys
}

type BikeService struct {
	engine
}

func NewBikeService(d Deps) *BikeService {
	return &BikeService{engine: newEngine(d)}
}

func (s *BikeService) CreateBike(ctx context.Context, ownerID uuid.UUID, in domain.BikeInput) (*domain.Bike, error) {
	now := s.clock()
	bike := &domain.Bike{
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
	if err := s.validateStruct(bike); err != nil {
		s.logger.Error("Bike validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	err := s.mutate(ctx, "bike.create", func(ctx context.Context, tx ports.Tx) error {
		return tx.Bikes().CreateBike(ctx, bike)
	})
	if err != nil {
		s.logger.Error("Failed to create bike", map[string]interface{}{
			"error":   err.Error(),
			"user_id": ownerID,
		})
		return nil, err
	}

	s.logger.Info("Bike created successfully", map[string]interface{}{
		"bike_id": bike.ID,
		"user_id": ownerID,
	})
	return bike, nil
}

// GetBike serves from cache when the cached copy still matches the stored
// row's owner and updated_at; otherwise it reads through the guarded lookup.
// A foreign bike is reported exactly like a missing one.
func (s *BikeService) GetBike(ctx context.Context, bikeID, requesterID uuid.UUID) (*domain.Bike, error) {
	cacheKey := bikeKey(bikeID)
	cached := s.cachedBike(cacheKey)

	var (
		bike  *domain.Bike
		fresh bool
	)
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		bike, fresh = nil, false
		if cached != nil {
			v, err := tx.Bikes().BikeVersion(ctx, bikeID)
			if err != nil {
				s.invalidate(cacheKey)
				return err
			}
			if v.Matches(cached.OwnerID, cached.UpdatedAt) {
				if v.OwnerID != requesterID {
					return domain.ErrNotOwner
				}
				bike = cached.Clone()
				return nil
			}
			s.invalidate(cacheKey)
		}
		var err error
		bike, err = tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID)
		fresh = err == nil
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	if fresh && s.cache != nil {
		bikeData, err := json.Marshal(bike)
		if err == nil {
			if err := s.cache.Set(cacheKey, bikeData, cacheTTL); err != nil {
				s.logger.Warn("Failed to cache bike", map[string]interface{}{
					"error":   err.Error(),
					"bike_id": bikeID,
				})
			}
		}
	}
	return bike, nil
}

func (s *BikeService) cachedBike(key string) *domain.Bike {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(key)
	if err != nil {
		return nil
	}
	var bike domain.Bike
	if err := json.Unmarshal(data, &bike); err != nil {
		return nil
	}
	return &bike
}

func (s *BikeService) ListBikes(ctx context.Context, ownerID uuid.UUID) ([]*domain.Bike, error) {
	var bikes []*domain.Bike
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		bikes, err = tx.Bikes().GetBikesByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to get bikes", map[string]interface{}{
			"error":   err.Error(),
			"user_id": ownerID,
		})
		return nil, err
	}

	s.logger.Debug("Retrieved bikes for user", map[string]interface{}{
		"user_id":     ownerID,
		"bikes_count": len(bikes),
	})
	return bikes, nil
}

func (s *BikeService) UpdateBike(ctx context.Context, bikeID, requesterID uuid.UUID, patch domain.BikePatch) (*domain.Bike, error) {
	var updated *domain.Bike
	err := s.mutate(ctx, "bike.update", func(ctx context.Context, tx ports.Tx) error {
		bike, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID)
		if err != nil {
			return err
		}
		bike.Apply(patch)
		bike.UpdatedAt = s.clock()
		if err := s.validateStruct(bike); err != nil {
			return err
		}
		if err := tx.Bikes().UpdateBike(ctx, bike); err != nil {
			return err
		}
		updated = bike
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	s.invalidate(bikeKey(bikeID))
	s.logger.Info("Bike updated successfully", map[string]interface{}{
		"bike_id": bikeID,
	})
	return updated, nil
}

// DeleteBike removes the bike; its installation rows go with it and any
// active-bike selection pointing at it is cleared.
func (s *BikeService) DeleteBike(ctx context.Context, bikeID, requesterID uuid.UUID) error {
	err := s.mutate(ctx, "bike.delete", func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID); err != nil {
			return err
		}
		return tx.Bikes().DeleteBike(ctx, bikeID)
	})
	if err != nil {
		s.logger.Error("Failed to delete bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return err
	}

	s.invalidate(bikeKey(bikeID))
	s.logger.Info("Bike deleted successfully", map[string]interface{}{
		"bike_id": bikeID,
	})
	return nil
}
