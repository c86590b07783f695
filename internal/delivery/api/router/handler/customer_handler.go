package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"erp/internal/delivery/api/response"
	deliverycontext "erp/internal/delivery/context"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/usecase"
)

// customerFields are the keys a customer update body may carry.
var customerFields = map[string]struct{}{
	"name":      {},
	"email":     {},
	"phone":     {},
	"is_active": {},
}

// CustomerHandlerParams holds dependencies for CustomerHandler, injected by Fx.
type CustomerHandlerParams struct {
	fx.In

	CustomerUC usecase.CustomerUsecase
	Logger     *slog.Logger
}

// CustomerHandler serves the customer directory and the caller's own record.
type CustomerHandler struct {
	customerUC usecase.CustomerUsecase
	logger     *slog.Logger
}

// NewCustomerHandler is the constructor for CustomerHandler.
func NewCustomerHandler(params CustomerHandlerParams) *CustomerHandler {
	return &CustomerHandler{
		customerUC: params.CustomerUC,
		logger:     params.Logger,
	}
}

func (h *CustomerHandler) List(c echo.Context) error {
	customers, err := h.customerUC.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCustomerResponses(customers))
}

func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	customer, err := h.customerUC.Get(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCustomerResponse(customer))
}

func (h *CustomerHandler) Create(c echo.Context) error {
	var req CreateCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.customerUC.Create(c.Request().Context(), &usecase.CreateCustomerInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newCustomerResponse(customer))
}

func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	input, err := h.bindUpdate(c)
	if err != nil {
		return err
	}
	if len(input.UnknownFields) > 0 {
		return domainerrors.ErrValidationFailed.WithDetails("unknown fields in request")
	}

	customer, err := h.customerUC.Update(c.Request().Context(), id, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCustomerResponse(customer))
}

// Delete removes a customer; ?confirm=true is mandatory.
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	confirm, err := confirmed(c)
	if err != nil {
		return err
	}

	if err := h.customerUC.Delete(c.Request().Context(), id, confirm); err != nil {
		return errors.WithStack(err)
	}

	return response.NoContent(c)
}

// Blacklist deactivates a customer.
func (h *CustomerHandler) Blacklist(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	customer, err := h.customerUC.Deactivate(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCustomerResponse(customer))
}

func (h *CustomerHandler) GetMe(c echo.Context) error {
	customer, err := h.customerUC.GetSelf(c.Request().Context(), deliverycontext.GetClaims(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCustomerResponse(customer))
}

// UpdateMe changes name and phone of the caller's customer record.
func (h *CustomerHandler) UpdateMe(c echo.Context) error {
	input, err := h.bindUpdate(c)
	if err != nil {
		return err
	}

	customer, err := h.customerUC.UpdateSelf(c.Request().Context(), deliverycontext.GetClaims(c), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCustomerResponse(customer))
}

// bindUpdate decodes a partial update and reports keys that match no customer field.
func (h *CustomerHandler) bindUpdate(c echo.Context) (*usecase.UpdateCustomerInput, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, errors.Wrap(err, "read request body")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("request body must be a JSON object")
	}

	var unknown []string
	present := make([]string, 0, len(raw))
	for key := range raw {
		present = append(present, key)
		if _, ok := customerFields[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	sort.Strings(present)

	var req UpdateCustomerRequest
	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(&req); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	return &usecase.UpdateCustomerInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		IsActive:      req.IsActive,
		UnknownFields: unknown,
		PresentFields: present,
	}, nil
}
