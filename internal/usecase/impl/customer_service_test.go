package impl_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/usecase"
)

func TestCustomerService_CreateAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createCustomer(t, "Alice Liddell", "alice@example.com")
	f.createCustomer(t, "Bob Stone", "bob@example.com")

	_, err := f.customers.Create(ctx, &usecase.CreateCustomerInput{Name: "Alias", Email: "alice@example.com", Phone: "0912345678"})
	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateEmail))

	found, err := f.customers.List(ctx, "LIDD")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alice@example.com", found[0].Email)

	all, err := f.customers.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCustomerService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createCustomer(t, "Alice", "alice@example.com")
	f.createCustomer(t, "Bob", "bob@example.com")

	updated, err := f.customers.Update(ctx, alice.ID, &usecase.UpdateCustomerInput{
		Name:     ptr("Alice L."),
		IsActive: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", updated.Name)
	assert.False(t, updated.IsActive)

	stored, err := f.customers.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "alice@example.com", stored.Email)

	_, err = f.customers.Update(ctx, alice.ID, &usecase.UpdateCustomerInput{Email: ptr("bob@example.com")})
	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateEmail))

	_, err = f.customers.Update(ctx, 404, &usecase.UpdateCustomerInput{Name: ptr("Nobody")})
	assert.True(t, errors.Is(err, domainerrors.ErrCustomerNotFound))
}

func TestCustomerService_DeleteRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.createCustomer(t, "Alice", "alice@example.com")

	err := f.customers.Delete(ctx, customer.ID, false)
	assert.True(t, errors.Is(err, domainerrors.ErrConfirmationRequired))

	_, err = f.customers.Get(ctx, customer.ID)
	require.NoError(t, err, "unconfirmed delete leaves the record")

	require.NoError(t, f.customers.Delete(ctx, customer.ID, true))

	_, err = f.customers.Get(ctx, customer.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrCustomerNotFound))

	err = f.customers.Delete(ctx, customer.ID, true)
	assert.True(t, errors.Is(err, domainerrors.ErrCustomerNotFound))
}

func TestCustomerService_DeleteWithOrdersIsRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.createCustomer(t, "Alice", "alice@example.com")
	product := f.createProduct(t, "Widget", 1, 5)

	_, err := f.orders.Create(ctx, adminClaims, &usecase.CreateOrderInput{
		CustomerID: &customer.ID,
		Items:      []entity.ItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	err = f.customers.Delete(ctx, customer.ID, true)
	assert.True(t, errors.Is(err, domainerrors.ErrResourceInUse))

	deactivated, err := f.customers.Deactivate(ctx, customer.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	_, err = f.orders.Create(ctx, adminClaims, &usecase.CreateOrderInput{
		CustomerID: &customer.ID,
		Items:      []entity.ItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	assert.True(t, errors.Is(err, domainerrors.ErrCustomerDeactivated))
	assert.Equal(t, 4, f.stockOf(t, product.ID))
}

func TestCustomerService_DeleteUnlinksUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claims, customer := f.registerShopper(t, "alice@example.com")

	require.NoError(t, f.customers.Delete(ctx, customer.ID, true))

	_, err := f.customers.GetSelf(ctx, claims)
	assert.True(t, errors.Is(err, domainerrors.ErrNoLinkedCustomer))
}

func TestCustomerService_SelfService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claims, customer := f.registerShopper(t, "alice@example.com")

	self, err := f.customers.GetSelf(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, self.ID)

	updated, err := f.customers.UpdateSelf(ctx, claims, &usecase.UpdateCustomerInput{
		Name:  ptr("Alice Cooper"),
		Phone: ptr("0987654321"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name)
	assert.Equal(t, "0987654321", updated.Phone)
}

func TestCustomerService_UpdateSelfRejectsRestrictedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claims, customer := f.registerShopper(t, "alice@example.com")

	tests := []struct {
		name  string
		input *usecase.UpdateCustomerInput
	}{
		{name: "email", input: &usecase.UpdateCustomerInput{Name: ptr("Changed"), Email: ptr("evil@example.com")}},
		{name: "is_active", input: &usecase.UpdateCustomerInput{Name: ptr("Changed"), IsActive: ptr(false)}},
		{name: "unknown key", input: &usecase.UpdateCustomerInput{Name: ptr("Changed"), UnknownFields: []string{"credit_limit"}}},
		{name: "null email", input: &usecase.UpdateCustomerInput{Name: ptr("Changed"), PresentFields: []string{"email", "name"}}},
		{name: "null is_active", input: &usecase.UpdateCustomerInput{Name: ptr("Changed"), PresentFields: []string{"is_active", "name"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.customers.UpdateSelf(ctx, claims, tt.input)
			assert.True(t, errors.Is(err, domainerrors.ErrFieldNotAllowed))

			stored, err := f.customers.Get(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, customer.Name, stored.Name)
			assert.Equal(t, customer.Email, stored.Email)
			assert.True(t, stored.IsActive)
		})
	}
}

func TestCustomerService_UpdateSelfAcceptsNameAndPhoneKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claims, customer := f.registerShopper(t, "alice@example.com")

	updated, err := f.customers.UpdateSelf(ctx, claims, &usecase.UpdateCustomerInput{
		Name:          ptr("Alice"),
		PresentFields: []string{"name", "phone"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, customer.Phone, updated.Phone)
}

func TestCustomerService_UpdateSelfWhenBlacklisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claims, customer := f.registerShopper(t, "alice@example.com")

	_, err := f.customers.Deactivate(ctx, customer.ID)
	require.NoError(t, err)

	_, err = f.customers.UpdateSelf(ctx, claims, &usecase.UpdateCustomerInput{Name: ptr("Still Alice")})
	assert.True(t, errors.Is(err, domainerrors.ErrAccountDeactivated))
}

func TestCustomerService_SelfWithoutLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	output, err := f.users.Register(ctx, nil, &usecase.RegisterInput{Email: "loner@example.com", Password: "password123"})
	require.NoError(t, err)
	claims := claimsFor(output.User)

	_, err = f.customers.GetSelf(ctx, claims)
	assert.True(t, errors.Is(err, domainerrors.ErrNoLinkedCustomer))

	_, err = f.customers.UpdateSelf(ctx, claims, &usecase.UpdateCustomerInput{Name: ptr("Loner")})
	assert.True(t, errors.Is(err, domainerrors.ErrNoLinkedCustomer))
}
