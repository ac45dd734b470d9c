package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

type KilometrageService struct {
	engine
}

func NewKilometrageService(d Deps) *KilometrageService {
	return &KilometrageService{engine: newEngine(d)}
}

// LogDistance appends a log entry and adds the distance to the bike and to
// every part mounted on it, all in one transaction.
func (s *KilometrageService) LogDistance(ctx context.Context, bikeID, requesterID uuid.UUID, distance float64, unit domain.Unit) (*domain.DistanceResult, error) {
	km, err := domain.DistanceKm(distance, unit)
	if err != nil {
		return nil, err
	}

	var result *domain.DistanceResult
	err = s.mutate(ctx, "kilometrage.log", func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID); err != nil {
			return err
		}
		var err error
		result, err = s.logDistance(ctx, tx, bikeID, km, domain.SourceManual)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to log distance", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	s.published(result)
	return result, nil
}

// LogTrip credits a recorded trip to the user's active bike.
func (s *KilometrageService) LogTrip(ctx context.Context, userID uuid.UUID, distance float64, unit domain.Unit) (*domain.DistanceResult, error) {
	km, err := domain.DistanceKm(distance, unit)
	if err != nil {
		return nil, err
	}

	var result *domain.DistanceResult
	err = s.mutate(ctx, "kilometrage.trip", func(ctx context.Context, tx ports.Tx) error {
		bikeID, err := tx.ActiveBikes().GetActiveBikeID(ctx, userID)
		if err != nil {
			return err
		}
		if bikeID == nil {
			return domain.ErrNoActiveBike
		}
		if _, err := tx.Bikes().GetBikeForOwner(ctx, *bikeID, userID); err != nil {
			return err
		}
		result, err = s.logDistance(ctx, tx, *bikeID, km, domain.SourceTrip)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to log trip", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}

	s.published(result)
	return result, nil
}

func (s *KilometrageService) logDistance(ctx context.Context, tx ports.Tx, bikeID uuid.UUID, km float64, source domain.DistanceSource) (*domain.DistanceResult, error) {
	now := s.clock()
	entry := &domain.KilometrageLogEntry{
		ID:         uuid.New(),
		BikeID:     bikeID,
		DistanceKm: km,
		Source:     source,
		LoggedAt:   now,
	}
	if err := tx.Kilometrage().AppendEntry(ctx, entry); err != nil {
		return nil, err
	}

	bike, err := tx.Bikes().AddKilometrage(ctx, bikeID, km, now)
	if err != nil {
		return nil, err
	}
	if !domain.ValidTotalKm(bike.TotalKilometrage) {
		return nil, domain.ErrInvalidDistance
	}

	mounted, err := tx.Installations().ActivePartsForBike(ctx, bikeID)
	if err != nil {
		return nil, err
	}
	parts := []*domain.Part{}
	if len(mounted) > 0 {
		ids := make([]uuid.UUID, len(mounted))
		for i, p := range mounted {
			ids[i] = p.ID
		}
		parts, err = tx.Parts().AddKilometrage(ctx, ids, km, now)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			if !domain.ValidTotalKm(p.TotalKilometrage) {
				return nil, domain.ErrInvalidDistance
			}
		}
	}

	return &domain.DistanceResult{Entry: entry, Bike: bike, Parts: parts}, nil
}

func (s *KilometrageService) published(result *domain.DistanceResult) {
	s.invalidate(append(partKeys(result.Parts), bikeKey(result.Bike.ID))...)
	if s.metrics != nil {
		s.metrics.DistanceLogged(result.Entry.DistanceKm, len(result.Parts))
	}
	s.logger.Info("Distance logged successfully", map[string]interface{}{
		"bike_id":       result.Bike.ID,
		"distance_km":   result.Entry.DistanceKm,
		"source":        result.Entry.Source,
		"parts_updated": len(result.Parts),
	})
}

// GetHistory pages the bike's log newest first. A non-positive limit means
// DefaultHistoryLimit; larger limits are capped at MaxHistoryLimit.
func (s *KilometrageService) GetHistory(ctx context.Context, bikeID, requesterID uuid.UUID, limit, offset int) ([]*domain.KilometrageLogEntry, error) {
	if offset < 0 {
		return nil, domain.NewValidationError(errNegativeOffset)
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	var entries []*domain.KilometrageLogEntry
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID); err != nil {
			return err
		}
		var err error
		entries, err = tx.Kilometrage().EntriesForBike(ctx, bikeID, limit, offset)
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to get kilometrage history", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}
	return entries, nil
}
