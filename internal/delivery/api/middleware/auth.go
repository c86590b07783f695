package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "erp/internal/delivery/context"
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/domain/service"
	"erp/internal/usecase"
)

const bearerPrefix = "bearer "

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	UserUC usecase.UserUsecase
}

// AuthMiddleware turns bearer tokens into claims and guards role-restricted routes.
type AuthMiddleware struct {
	userUC usecase.UserUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{userUC: params.UserUC}
}

// Authenticate rejects requests without a valid bearer token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c)
		if !ok {
			return errors.Wrap(domainerrors.ErrAuthenticationFailed, "missing bearer token")
		}

		claims, err := m.userUC.ValidateToken(c.Request().Context(), token)
		if err != nil {
			return errors.Wrap(domainerrors.ErrAuthenticationFailed, err.Error())
		}

		deliverycontext.SetClaims(c, claims)

		return next(c)
	}
}

// OptionalAuthenticate attaches claims when a bearer token is present. An invalid
// token is still rejected so a caller never silently loses its identity.
func (m *AuthMiddleware) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	authenticated := m.Authenticate(next)

	return func(c echo.Context) error {
		if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
			return next(c)
		}

		return authenticated(c)
	}
}

// RequireRole only lets callers with one of roles through. It must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := service.Authorize(deliverycontext.GetClaims(c), roles...); err != nil {
				return errors.WithStack(err)
			}

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])

	return token, token != ""
}
