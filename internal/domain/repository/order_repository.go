package repository

import (
	"context"
	"errors"

	"erp/internal/domain/entity"
)

var (
	// ErrOrderNotFound is returned when an order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrStatusConflict is returned when a conditional status update found the order in another state.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// OrderRepository persists orders together with their items.
type OrderRepository interface {
	// Create inserts the order and its items, filling in generated IDs.
	Create(ctx context.Context, order *entity.Order) error

	// FindByID loads the order with its items.
	FindByID(ctx context.Context, id uint) (*entity.Order, error)

	// FindByIDForUpdate loads the order with its items and locks the order row.
	FindByIDForUpdate(ctx context.Context, id uint) (*entity.Order, error)

	// List returns orders with items; a nil customerID returns every order.
	List(ctx context.Context, customerID *uint) ([]*entity.Order, error)

	// UpdateStatus moves the order from one status to another. It returns
	// ErrStatusConflict when the order is no longer in the from status.
	UpdateStatus(ctx context.Context, id uint, from, to entity.PaymentStatus) error

	// ReplaceItems deletes the order's items, inserts order.Items and stores order.TotalAmount.
	ReplaceItems(ctx context.Context, order *entity.Order) error

	// CountByCustomer returns how many orders a customer owns.
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)

	Stream(ctx context.Context, fn func(*entity.Order) error) error
}
