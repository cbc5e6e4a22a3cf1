package jwttoken

import (
	authmw "medichain/pkg/platform/middleware/auth"
)

// MiddlewareAdapter exposes the token service through the middleware's
// validator interface.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{
		UserID:    claims.UserID,
		AccountID: claims.AccountID,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}, nil
}
