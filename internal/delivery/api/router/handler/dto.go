package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
)

// --- Requests ---

// RegisterRequest is the body of POST /auth/ and POST /auth/register_with_customer.
type RegisterRequest struct {
	Username  string `json:"username" validate:"omitempty,min=3,max=100"`
	Email     string `json:"email" validate:"required,email,max=100"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Phone     string `json:"phone" validate:"omitempty,min=5,max=20"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      string `json:"role" validate:"omitempty,oneof=admin customer"`
}

// TokenRequest is the form-encoded body of POST /auth/token.
type TokenRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// TokenResponse is the OAuth2 password-grant token document.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// LinkCustomerRequest is the body of PATCH /auth/users/:id/customer.
type LinkCustomerRequest struct {
	CustomerID uint `json:"customer_id" validate:"required"`
}

// CreateCustomerRequest is the body of POST /customers.
type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=100"`
	Phone string `json:"phone" validate:"omitempty,min=5,max=20"`
}

// UpdateCustomerRequest is a partial customer update; absent fields stay unchanged.
type UpdateCustomerRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,min=5,max=20"`
	IsActive *bool   `json:"is_active"`
}

// ProductRequest is the body of POST, PUT and PATCH on products. Every field is replaced.
type ProductRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Price    float64 `json:"price" validate:"gt=0"`
	Stock    *int    `json:"stock" validate:"required,min=0,max=99999"`
	Category string  `json:"category" validate:"max=50"`
	IsActive *bool   `json:"is_active"`
}

// OrderItemRequest asks for quantity units of one product.
type OrderItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1,max=9999"`
}

// CreateOrderRequest is the body of POST /orders. CustomerID is only honoured for admins.
type CreateOrderRequest struct {
	CustomerID *uint              `json:"customer_id"`
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrderRequest is the body of PATCH /orders/:id. Omitted items leave the order as is.
type UpdateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"omitempty,dive"`
}

func toItemRequests(items []OrderItemRequest) []entity.ItemRequest {
	if items == nil {
		return nil
	}

	result := make([]entity.ItemRequest, 0, len(items))
	for _, item := range items {
		result = append(result, entity.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	return result
}

// --- Responses ---

// UserResponse never carries the password hash.
type UserResponse struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
	CustomerID *uint  `json:"customer_id"`
}

// RegisterResponse returns the new user and its customer when one was linked or created.
type RegisterResponse struct {
	User     *UserResponse     `json:"user"`
	Customer *CustomerResponse `json:"customer,omitempty"`
}

// ClaimsResponse describes the caller as seen by the token.
type ClaimsResponse struct {
	UserID     uint      `json:"user_id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	CustomerID *uint     `json:"customer_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type CustomerResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
}

type ProductResponse struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Category string  `json:"category"`
	IsActive bool    `json:"is_active"`
}

type OrderItemResponse struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type OrderResponse struct {
	ID            uint                 `json:"id"`
	CustomerID    uint                 `json:"customer_id"`
	OrderDate     time.Time            `json:"order_date"`
	TotalAmount   float64              `json:"total_amount"`
	PaymentStatus string               `json:"payment_status"`
	Items         []*OrderItemResponse `json:"items"`
}

func newUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone,
		Role:       u.Role.String(),
		IsActive:   u.IsActive,
		CustomerID: u.CustomerID,
	}
}

func newCustomerResponse(c *entity.Customer) *CustomerResponse {
	if c == nil {
		return nil
	}

	return &CustomerResponse{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, IsActive: c.IsActive}
}

func newCustomerResponses(customers []*entity.Customer) []*CustomerResponse {
	result := make([]*CustomerResponse, 0, len(customers))
	for _, c := range customers {
		result = append(result, newCustomerResponse(c))
	}

	return result
}

func newProductResponse(p *entity.Product) *ProductResponse {
	return &ProductResponse{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock, Category: p.Category, IsActive: p.IsActive}
}

func newProductResponses(products []*entity.Product) []*ProductResponse {
	result := make([]*ProductResponse, 0, len(products))
	for _, p := range products {
		result = append(result, newProductResponse(p))
	}

	return result
}

func newOrderResponse(o *entity.Order) *OrderResponse {
	items := make([]*OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, &OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return &OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		OrderDate:     o.OrderDate,
		TotalAmount:   o.TotalAmount,
		PaymentStatus: o.PaymentStatus.String(),
		Items:         items,
	}
}

func newOrderResponses(orders []*entity.Order) []*OrderResponse {
	result := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, newOrderResponse(o))
	}

	return result
}

// --- Binding helpers ---

// bindAndValidate binds the request into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}

	return c.Validate(req)
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		return 0, domainerrors.ErrValidationFailed.WithDetails(name + " must be a positive integer")
	}

	return uint(id), nil
}

func confirmed(c echo.Context) (bool, error) {
	var confirm bool
	if err := echo.QueryParamsBinder(c).Bool("confirm", &confirm).BindError(); err != nil {
		return false, domainerrors.ErrValidationFailed.WithDetails("confirm must be true or false")
	}

	return confirm, nil
}
