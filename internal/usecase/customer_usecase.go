package usecase

import (
	"context"

	"erp/internal/domain/entity"
)

// CreateCustomerInput defines the data required to create a customer.
type CreateCustomerInput struct {
	Name  string
	Email string
	Phone string
}

// UpdateCustomerInput is a partial update; nil fields are left unchanged.
// UnknownFields lists request keys that map to no field at all. PresentFields lists every
// key the request carried, including those sent as null.
type UpdateCustomerInput struct {
	Name          *string
	Email         *string
	Phone         *string
	IsActive      *bool
	UnknownFields []string
	PresentFields []string
}

// CustomerUsecase defines customer directory operations.
type CustomerUsecase interface {
	List(ctx context.Context, search string) ([]*entity.Customer, error)
	Get(ctx context.Context, id uint) (*entity.Customer, error)
	Create(ctx context.Context, input *CreateCustomerInput) (*entity.Customer, error)
	Update(ctx context.Context, id uint, input *UpdateCustomerInput) (*entity.Customer, error)

	// Delete removes a customer. confirm must be true.
	Delete(ctx context.Context, id uint, confirm bool) error

	// Deactivate blacklists a customer so it can no longer order.
	Deactivate(ctx context.Context, id uint) (*entity.Customer, error)

	// GetSelf returns the customer linked to the caller.
	GetSelf(ctx context.Context, claims *entity.Claims) (*entity.Customer, error)

	// UpdateSelf lets the caller change the name and phone of its own customer record.
	UpdateSelf(ctx context.Context, claims *entity.Claims, input *UpdateCustomerInput) (*entity.Customer, error)
}
