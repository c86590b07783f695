package repository

import (
	"context"
	"errors"

	"erp/internal/domain/entity"
)

// ErrCustomerNotFound is returned when a customer does not exist.
var ErrCustomerNotFound = errors.New("customer not found")

// CustomerRepository persists customers.
type CustomerRepository interface {
	// List returns customers whose name contains search (case-insensitive); an empty search returns all.
	List(ctx context.Context, search string) ([]*entity.Customer, error)

	FindByID(ctx context.Context, id uint) (*entity.Customer, error)

	FindByEmail(ctx context.Context, email string) (*entity.Customer, error)

	Create(ctx context.Context, customer *entity.Customer) error

	// Update saves every column of the customer.
	Update(ctx context.Context, customer *entity.Customer) error

	Delete(ctx context.Context, id uint) error

	// Stream walks every customer in retrieval order without loading the table into memory.
	Stream(ctx context.Context, fn func(*entity.Customer) error) error
}
