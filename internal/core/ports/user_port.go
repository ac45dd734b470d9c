package ports

import (
	"context"

	"github.com/google/uuid"
)

// UserDirectory answers whether a user id resolves to an account.
type UserDirectory interface {
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}
