package usecase

import (
	"context"

	"erp/internal/domain/entity"
)

// ProductInput carries every writable product field. Updates replace all of them.
type ProductInput struct {
	Name     string
	Price    float64
	Stock    int
	Category string
	IsActive bool
}

// ProductUsecase defines catalog operations.
type ProductUsecase interface {
	// List returns products matching filter. Inactive products are only visible to admins who ask for them.
	List(ctx context.Context, claims *entity.Claims, filter entity.ProductFilter) ([]*entity.Product, error)

	// Get returns a product; inactive products are hidden from non-admins.
	Get(ctx context.Context, claims *entity.Claims, id uint) (*entity.Product, error)

	Create(ctx context.Context, input *ProductInput) (*entity.Product, error)
	Update(ctx context.Context, id uint, input *ProductInput) (*entity.Product, error)

	// Delete removes a product. confirm must be true.
	Delete(ctx context.Context, id uint, confirm bool) error
}
