package domain

import (
	"context"

	"github.com/google/uuid"
)

type UserRole string

const (
	Admin   UserRole = "admin"
	AppUser UserRole = "appuser"
)

type TokenPayload struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Role   UserRole
	Raw    string
}

type tokenKey struct{}

// ContextWithToken stores the verified token so outbound calls can forward it.
func ContextWithToken(ctx context.Context, payload *TokenPayload) context.Context {
	return context.WithValue(ctx, tokenKey{}, payload)
}

func TokenFromContext(ctx context.Context) (*TokenPayload, bool) {
	payload, ok := ctx.Value(tokenKey{}).(*TokenPayload)
	return payload, ok && payload != nil
}
