package service

import (
	"time"

	"erp/internal/domain/entity"
)

// TokenService defines the interface for generating and validating JWTs.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// IssueToken creates a signed access token for the user.
	IssueToken(user *entity.User) (token string, expiresAt time.Time, err error)

	// ValidateToken verifies the signature and expiry of a token and decodes its claims.
	ValidateToken(tokenString string) (*entity.Claims, error)

	// AccessTokenTTL returns the configured lifetime of access tokens.
	AccessTokenTTL() time.Duration
}
