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

// ProductHandlerParams holds dependencies for ProductHandler, injected by Fx.
type ProductHandlerParams struct {
	fx.In

	ProductUC usecase.ProductUsecase
	Logger    *slog.Logger
}

// ProductHandler serves the product catalog.
type ProductHandler struct {
	productUC usecase.ProductUsecase
	logger    *slog.Logger
}

// NewProductHandler is the constructor for ProductHandler.
func NewProductHandler(params ProductHandlerParams) *ProductHandler {
	return &ProductHandler{
		productUC: params.ProductUC,
		logger:    params.Logger,
	}
}

// List supports search, min_price, max_price, category and include_inactive query parameters.
func (h *ProductHandler) List(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return err
	}

	products, err := h.productUC.List(c.Request().Context(), deliverycontext.GetClaims(c), filter)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProductResponses(products))
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.productUC.Get(c.Request().Context(), deliverycontext.GetClaims(c), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProductResponse(product))
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.productUC.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newProductResponse(product))
}

// Update replaces every writable field; it serves both PUT and PATCH.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.productUC.Update(c.Request().Context(), id, req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProductResponse(product))
}

// Delete removes a product; ?confirm=true is mandatory.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	confirm, err := confirmed(c)
	if err != nil {
		return err
	}

	if err := h.productUC.Delete(c.Request().Context(), id, confirm); err != nil {
		return errors.WithStack(err)
	}

	return response.NoContent(c)
}

func (r *ProductRequest) toInput() *usecase.ProductInput {
	input := &usecase.ProductInput{
		Name:     r.Name,
		Price:    r.Price,
		Category: r.Category,
		IsActive: true,
	}
	if r.Stock != nil {
		input.Stock = *r.Stock
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}

	return input
}

func productFilter(c echo.Context) (entity.ProductFilter, error) {
	var (
		filter             entity.ProductFilter
		minPrice, maxPrice float64
	)

	err := echo.QueryParamsBinder(c).
		String("search", &filter.Search).
		String("category", &filter.Category).
		Bool("include_inactive", &filter.IncludeInactive).
		Float64("min_price", &minPrice).
		Float64("max_price", &maxPrice).
		BindError()
	if err != nil {
		return filter, domainerrors.ErrValidationFailed.WithDetails("invalid product filter")
	}

	if c.QueryParam("min_price") != "" {
		filter.MinPrice = &minPrice
	}
	if c.QueryParam("max_price") != "" {
		filter.MaxPrice = &maxPrice
	}

	return filter, nil
}
