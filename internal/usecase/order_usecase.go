package usecase

import (
	"context"

	"erp/internal/domain/entity"
)

// CreateOrderInput defines the data required to place an order.
type CreateOrderInput struct {
	// CustomerID selects the customer when an admin orders on its behalf. Ignored for customers.
	CustomerID *uint
	Items      []entity.ItemRequest
}

// UpdateOrderInput replaces the order's items when Items is non-nil. A non-nil empty
// slice removes every item.
type UpdateOrderInput struct {
	Items []entity.ItemRequest
}

// OrderUsecase defines the order workflow.
type OrderUsecase interface {
	Create(ctx context.Context, claims *entity.Claims, input *CreateOrderInput) (*entity.Order, error)
	List(ctx context.Context, claims *entity.Claims) ([]*entity.Order, error)
	Get(ctx context.Context, claims *entity.Claims, id uint) (*entity.Order, error)

	// MarkPaid moves a pending order to paid.
	MarkPaid(ctx context.Context, id uint) (*entity.Order, error)

	// Cancel restocks every item and moves a pending order to cancelled.
	Cancel(ctx context.Context, claims *entity.Claims, id uint) (*entity.Order, error)

	// Update replaces the items of a pending order.
	Update(ctx context.Context, id uint, input *UpdateOrderInput) (*entity.Order, error)
}
