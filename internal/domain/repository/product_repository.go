package repository

import (
	"context"
	"errors"

	"erp/internal/domain/entity"
)

var (
	// ErrProductNotFound is returned when a product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a conditional stock decrement matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository persists products and owns the stock counters.
type ProductRepository interface {
	List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)

	FindByID(ctx context.Context, id uint) (*entity.Product, error)

	// FindByIDForUpdate reads the product and holds a row lock until the surrounding
	// transaction ends. Outside a transaction it behaves like FindByID.
	FindByIDForUpdate(ctx context.Context, id uint) (*entity.Product, error)

	Create(ctx context.Context, product *entity.Product) error

	Update(ctx context.Context, product *entity.Product) error

	Delete(ctx context.Context, id uint) error

	// DecrementStock takes quantity units from an active product only if at least that
	// many remain. It returns ErrInsufficientStock when no row qualified.
	DecrementStock(ctx context.Context, id uint, quantity int) error

	// IncrementStock returns quantity units to stock.
	IncrementStock(ctx context.Context, id uint, quantity int) error

	// IsReferenced reports whether any order item points at the product.
	IsReferenced(ctx context.Context, id uint) (bool, error)

	Stream(ctx context.Context, fn func(*entity.Product) error) error
}
