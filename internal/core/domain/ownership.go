package domain

import (
	"time"

	"github.com/google/uuid"
)

// OwnershipHistoryRecord is the append-only audit entry written by a transfer.
type OwnershipHistoryRecord struct {
	ID              uuid.UUID   `json:"id"`
	EntityType      SubjectType `json:"entity_type"`
	EntityID        uuid.UUID   `json:"entity_id"`
	PreviousOwnerID uuid.UUID   `json:"previous_owner_id"`
	NewOwnerID      uuid.UUID   `json:"new_owner_id"`
	TransferredAt   time.Time   `json:"transferred_at"`
}

type BikeTransfer struct {
	Bike    *Bike                     `json:"bike"`
	Parts   []*Part                   `json:"parts"`
	Records []*OwnershipHistoryRecord `json:"records"`
}

type PartTransfer struct {
	Part        *Part                   `json:"part"`
	Record      *OwnershipHistoryRecord `json:"record"`
	Uninstalled *Installation           `json:"uninstalled,omitempty"`
}
