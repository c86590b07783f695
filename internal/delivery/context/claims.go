package context

import (
	"context"

	"github.com/labstack/echo/v4"

	"erp/internal/domain/entity"
)

// KeyClaims is the key for storing the verified token claims.
const KeyClaims ContextKey = "claims"

// SetClaims stores the caller's claims on both echo.Context and the request context.
func SetClaims(c echo.Context, claims *entity.Claims) {
	c.Set(string(KeyClaims), claims)
	c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
}

// GetClaims returns the caller's claims, or nil for anonymous requests.
func GetClaims(c echo.Context) *entity.Claims {
	if claims, ok := c.Get(string(KeyClaims)).(*entity.Claims); ok {
		return claims
	}

	return nil
}

// WithClaims returns a new context carrying the claims.
func WithClaims(ctx context.Context, claims *entity.Claims) context.Context {
	return context.WithValue(ctx, KeyClaims, claims)
}

// ClaimsFromContext extracts the claims from a standard context.Context.
func ClaimsFromContext(ctx context.Context) *entity.Claims {
	if claims, ok := ctx.Value(KeyClaims).(*entity.Claims); ok {
		return claims
	}

	return nil
}
