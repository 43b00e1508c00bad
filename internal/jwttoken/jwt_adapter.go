package jwttoken

import (
	"simkah/internal/platform/middleware"
	id "simkah/pkg/domain"
	dErrors "simkah/pkg/domain-errors"
)

// JWTServiceAdapter narrows JWTService to the validator interface the auth
// middleware consumes, parsing the string claims into domain types once.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	actorID, err := id.ParseActorID(claims.ActorID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid actor id claim")
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid role claim")
	}
	return &middleware.JWTClaims{ActorID: actorID, Role: role}, nil
}
