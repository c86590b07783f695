// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"erp/internal/delivery/api/response"
	deliverycontext "erp/internal/delivery/context"
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/usecase"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	UserUC usecase.UserUsecase
	Logger *slog.Logger
}

// AuthHandler serves registration, login and account linking.
type AuthHandler struct {
	userUC usecase.UserUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		userUC: params.UserUC,
		logger: params.Logger,
	}
}

// Register creates a user. An admin token is required to create another admin.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.userUC.Register(c.Request().Context(), deliverycontext.GetClaims(c), req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, &RegisterResponse{
		User:     newUserResponse(output.User),
		Customer: newCustomerResponse(output.Customer),
	})
}

// RegisterWithCustomer creates a customer account together with its customer record.
func (h *AuthHandler) RegisterWithCustomer(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Role != "" && req.Role != entity.RoleCustomer.String() {
		return domainerrors.ErrValidationFailed.WithDetails("role must be customer")
	}

	output, err := h.userUC.RegisterWithCustomer(c.Request().Context(), req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, &RegisterResponse{
		User:     newUserResponse(output.User),
		Customer: newCustomerResponse(output.Customer),
	})
}

// Token exchanges form-encoded credentials for a bearer token.
func (h *AuthHandler) Token(c echo.Context) error {
	var req TokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.userUC.Login(c.Request().Context(), &usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	return c.JSON(http.StatusOK, &TokenResponse{
		AccessToken: output.AccessToken,
		TokenType:   output.TokenType,
		ExpiresIn:   int64(output.ExpiresIn.Seconds()),
	})
}

// Me returns the caller's token claims.
func (h *AuthHandler) Me(c echo.Context) error {
	claims := deliverycontext.GetClaims(c)
	if claims == nil {
		return errors.WithStack(domainerrors.ErrAuthenticationFailed)
	}

	return response.Success(c, http.StatusOK, &ClaimsResponse{
		UserID:     claims.UserID,
		Username:   claims.Username,
		Role:       claims.Role.String(),
		CustomerID: claims.CustomerID,
		ExpiresAt:  claims.ExpiresAt,
	})
}

// LinkCustomer binds a user to an existing customer record.
func (h *AuthHandler) LinkCustomer(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req LinkCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userUC.LinkCustomer(c.Request().Context(), userID, req.CustomerID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newUserResponse(user))
}

func (r *RegisterRequest) toInput() *usecase.RegisterInput {
	return &usecase.RegisterInput{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Password:  r.Password,
		Role:      entity.Role(r.Role),
	}
}
