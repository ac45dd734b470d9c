package ports

import "github.com/sm8ta/webike_garage_service/internal/core/domain"

type TokenService interface {
	VerifyToken(token string) (*domain.TokenPayload, error)
}
