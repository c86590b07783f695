package service

import (
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
)

// Authorize returns the claims unchanged when their role is one of allowed.
// Missing claims are an authentication failure, a role outside allowed is Forbidden.
func Authorize(claims *entity.Claims, allowed ...entity.Role) (*entity.Claims, error) {
	if claims == nil {
		return nil, domainerrors.ErrAuthenticationFailed
	}
	if !claims.Role.IsValid() || !entity.Roles(allowed).Contains(claims.Role) {
		return nil, domainerrors.ErrForbidden
	}

	return claims, nil
}
