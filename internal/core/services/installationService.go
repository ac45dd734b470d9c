package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

type InstallationService struct {
	engine
}

func NewInstallationService(d Deps) *InstallationService {
	return &InstallationService{engine: newEngine(d)}
}

// Install mounts the part on the bike. Any open installation of the part,
// on this bike or another one, is closed in the same transaction.
func (s *InstallationService) Install(ctx context.Context, partID, bikeID, requesterID uuid.UUID) (*domain.Installation, error) {
	var installed *domain.Installation
	err := s.mutate(ctx, "installation.install", func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID); err != nil {
			return err
		}
		if _, err := tx.Parts().GetPartForOwner(ctx, partID, requesterID); err != nil {
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
		}

		inst := &domain.Installation{
			ID:          uuid.New(),
			PartID:      partID,
			BikeID:      bikeID,
			InstalledAt: now,
		}
		if err := tx.Installations().CreateInstallation(ctx, inst); err != nil {
			return err
		}
		installed = inst
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to install part", map[string]interface{}{
			"error":   err.Error(),
			"part_id": partID,
			"bike_id": bikeID,
		})
		return nil, err
	}

	s.logger.Info("Part installed successfully", map[string]interface{}{
		"part_id":         partID,
		"bike_id":         bikeID,
		"installation_id": installed.ID,
	})
	return installed, nil
}

// Remove closes the open installation of the exact (part, bike) pair.
func (s *InstallationService) Remove(ctx context.Context, partID, bikeID, requesterID uuid.UUID) (*domain.Installation, error) {
	var removed *domain.Installation
	err := s.mutate(ctx, "installation.remove", func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID); err != nil {
			return err
		}
		if _, err := tx.Parts().GetPartForOwner(ctx, partID, requesterID); err != nil {
			return err
		}

		open, err := tx.Installations().OpenInstallation(ctx, partID)
		if err != nil {
			return err
		}
		if open == nil || open.BikeID != bikeID {
			return domain.ErrNotInstalled
		}

		now := s.clock()
		if err := tx.Installations().CloseInstallation(ctx, open.ID, now); err != nil {
			return err
		}
		open.RemovedAt = &now
		removed = open
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to remove part", map[string]interface{}{
			"error":   err.Error(),
			"part_id": partID,
			"bike_id": bikeID,
		})
		return nil, err
	}

	s.logger.Info("Part removed successfully", map[string]interface{}{
		"part_id": partID,
		"bike_id": bikeID,
	})
	return removed, nil
}

func (s *InstallationService) ActivePartsFor(ctx context.Context, bikeID, requesterID uuid.UUID) ([]*domain.Part, error) {
	var parts []*domain.Part
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Bikes().GetBikeForOwner(ctx, bikeID, requesterID); err != nil {
			return err
		}
		var err error
		parts, err = tx.Installations().ActivePartsForBike(ctx, bikeID)
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to get installed parts", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}
	return parts, nil
}

// ActiveBikeFor returns nil when the part is not mounted.
func (s *InstallationService) ActiveBikeFor(ctx context.Context, partID, requesterID uuid.UUID) (*domain.Bike, error) {
	var bike *domain.Bike
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Parts().GetPartForOwner(ctx, partID, requesterID); err != nil {
			return err
		}
		var err error
		bike, err = currentBike(ctx, tx, partID, requesterID)
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to get part bike", map[string]interface{}{
			"error":   err.Error(),
			"part_id": partID,
		})
		return nil, err
	}
	return bike, nil
}

func (s *InstallationService) History(ctx context.Context, partID, requesterID uuid.UUID) ([]*domain.Installation, error) {
	var history []*domain.Installation
	err := s.view(ctx, func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.Parts().GetPartForOwner(ctx, partID, requesterID); err != nil {
			return err
		}
		var err error
		history, err = tx.Installations().InstallationsForPart(ctx, partID)
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to get installation history", map[string]interface{}{
			"error":   err.Error(),
			"part_id": partID,
		})
		return nil, err
	}
	return history, nil
}

// currentBike resolves the bike of the part's open installation. Installed
// parts always share the bike's owner.
func currentBike(ctx context.Context, tx ports.Tx, partID, ownerID uuid.UUID) (*domain.Bike, error) {
	open, err := tx.Installations().OpenInstallation(ctx, partID)
	if err != nil || open == nil {
		return nil, err
	}
	return tx.Bikes().GetBikeForOwner(ctx, open.BikeID, ownerID)
}
