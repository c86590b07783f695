// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"erp/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	Username  string // Defaults to Email when empty.
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Password  string
	Role      entity.Role // Defaults to RoleCustomer when empty.
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Username string
	Password string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user and, when one was created or reused, its customer.
type RegisterOutput struct {
	User     *entity.User
	Customer *entity.Customer
}

// LoginOutput returns the generated access token after a successful login.
type LoginOutput struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	ExpiresIn   time.Duration
	User        *entity.User
}

// UserUsecase defines the interface for registration and authentication.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	// Register creates a user. caller is nil for anonymous requests; creating an
	// admin requires an admin caller.
	Register(ctx context.Context, caller *entity.Claims, input *RegisterInput) (*RegisterOutput, error)

	// RegisterWithCustomer creates a customer-role user together with its customer record.
	RegisterWithCustomer(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)

	// Login verifies credentials and issues an access token.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// Authenticate verifies credentials without issuing a token.
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)

	// ValidateToken decodes a bearer token into claims.
	ValidateToken(ctx context.Context, token string) (*entity.Claims, error)

	// LinkCustomer binds an existing user to an existing customer.
	LinkCustomer(ctx context.Context, userID, customerID uint) (*entity.User, error)

	// EnsureBootstrapAdmin creates the configured administrator if it does not exist yet.
	EnsureBootstrapAdmin(ctx context.Context) error
}
