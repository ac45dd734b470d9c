package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

type StatsService struct {
	engine
}

func NewStatsService(d Deps) *StatsService {
	return &StatsService{engine: newEngine(d)}
}

func (s *StatsService) BikeStats(ctx context.Context, bikeID, requesterID uuid.UUID, unit domain.Unit) (*domain.BikeStats, error) {
	var stats *domain.BikeStats
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		bike, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID)
		if err != nil {
			return err
		}
		now := s.clock()

		records, err := tx.Maintenance().RecordsForSubject(ctx, domain.SubjectBike, bikeID)
		if err != nil {
			return err
		}
		sinceKm := bike.TotalKilometrage
		var daysSince *int
		if len(records) > 0 {
			last := records[0].PerformedAt
			sinceKm, err = tx.Kilometrage().SumSince(ctx, bikeID, last)
			if err != nil {
				return err
			}
			d := domain.DaysBetween(last, now)
			daysSince = &d
		}

		ownedSince, err := ownedSince(ctx, tx, domain.SubjectBike, bikeID, bike.OwnerID, bike.PurchaseDate, bike.CreatedAt)
		if err != nil {
			return err
		}
		parts, err := tx.Installations().ActivePartsForBike(ctx, bikeID)
		if err != nil {
			return err
		}

		stats = &domain.BikeStats{
			BikeID:                      bikeID,
			Unit:                        unit,
			TotalKilometrage:            unit.FromKm(bike.TotalKilometrage),
			KilometrageSinceMaintenance: unit.FromKm(sinceKm),
			DaysOwned:                   domain.DaysBetween(ownedSince, now),
			DaysSinceLastMaintenance:    daysSince,
			InstalledPartsCount:         len(parts),
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to compute bike stats", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}
	return stats, nil
}

func (s *StatsService) PartStats(ctx context.Context, partID, requesterID uuid.UUID, unit domain.Unit) (*domain.PartStats, error) {
	var stats *domain.PartStats
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		part, err := tx.Parts().GetPartForOwner(ctx, partID, requesterID)
		if err != nil {
			return err
		}
		now := s.clock()

		records, err := tx.Maintenance().RecordsForSubject(ctx, domain.SubjectPart, partID)
		if err != nil {
			return err
		}
		var daysSince *int
		if len(records) > 0 {
			d := domain.DaysBetween(records[0].PerformedAt, now)
			daysSince = &d
		}

		ownedSince, err := ownedSince(ctx, tx, domain.SubjectPart, partID, part.OwnerID, part.PurchaseDate, part.CreatedAt)
		if err != nil {
			return err
		}
		bike, err := currentBike(ctx, tx, partID, requesterID)
		if err != nil {
			return err
		}
		history, err := tx.Installations().InstallationsForPart(ctx, partID)
		if err != nil {
			return err
		}

		stats = &domain.PartStats{
			PartID:                   partID,
			Unit:                     unit,
			TotalKilometrage:         unit.FromKm(part.TotalKilometrage),
			ReplacementThreshold:     unit.FromKmPtr(part.ReplacementThresholdKm),
			DaysOwned:                domain.DaysBetween(ownedSince, now),
			DaysSinceLastMaintenance: daysSince,
			CurrentBike:              bike,
			InstallationCount:        len(history),
			NeedsReplacement:         part.NeedsReplacement(),
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to compute part stats", map[string]interface{}{
			"error":   err.Error(),
			"part_id": partID,
		})
		return nil, err
	}
	return stats, nil
}

// ownedSince is the latest transfer to the current owner, else the purchase
// date, else the creation time.
func ownedSince(ctx context.Context, tx ports.Tx, entityType domain.SubjectType, id, ownerID uuid.UUID, purchased *time.Time, created time.Time) (time.Time, error) {
	transfers, err := tx.Ownership().TransfersForEntity(ctx, entityType, id)
	if err != nil {
		return time.Time{}, err
	}
	if len(transfers) > 0 && transfers[0].NewOwnerID == ownerID {
		return transfers[0].TransferredAt, nil
	}
	if purchased != nil {
		return *purchased, nil
	}
	return created, nil
}
