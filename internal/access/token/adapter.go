package token

import (
	"laurel/pkg/platform/middleware/auth"
)

// Adapter exposes the token service through the middleware's validator
// contract.
type Adapter struct {
	service *Service
}

func NewAdapter(service *Service) *Adapter {
	return &Adapter{service: service}
}

func (a *Adapter) ValidateToken(tokenString string) (*auth.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.TokenClaims{
		UserID: claims.UserID,
		JTI:    claims.ID,
	}, nil
}
