package http

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

// ErrBadToken covers every reason a bearer token is refused.
var ErrBadToken = errors.New("bearer token refused")

// JWTTokenService checks tokens minted by the user service with the shared
// secret. It never issues tokens itself.
type JWTTokenService struct {
	secretKey []byte
	logger    ports.LoggerPort
}

func NewJWTTokenService(secretKey string, logger ports.LoggerPort) *JWTTokenService {
	return &JWTTokenService{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

// VerifyToken accepts HS256/384/512 tokens carrying id, user_id and a known
// role. The raw token is kept so it can be forwarded to the user service.
func (j *JWTTokenService) VerifyToken(token string) (*domain.TokenPayload, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, j.refuse("signature or expiry check failed", err)
	}

	tokenID, err := uuidClaim(claims, "id")
	if err != nil {
		return nil, j.refuse("token id unusable", err)
	}
	userID, err := uuidClaim(claims, "user_id")
	if err != nil {
		return nil, j.refuse("garage owner unusable", err)
	}

	role := domain.UserRole(fmt.Sprint(claims["role"]))
	switch role {
	case domain.Admin, domain.AppUser:
	default:
		return nil, j.refuse("role not allowed in the garage", fmt.Errorf("role %q", role))
	}

	return &domain.TokenPayload{
		ID:     tokenID,
		UserID: userID,
		Role:   role,
		Raw:    token,
	}, nil
}

func (j *JWTTokenService) refuse(reason string, cause error) error {
	j.logger.Warn("Bearer token refused", map[string]interface{}{
		"reason": reason,
		"error":  cause.Error(),
	})
	return fmt.Errorf("%w: %s: %v", ErrBadToken, reason, cause)
}

func uuidClaim(claims jwt.MapClaims, name string) (uuid.UUID, error) {
	raw, ok := claims[name].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("claim %q missing or not a string", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("claim %q: %w", name, err)
	}
	return id, nil
}
