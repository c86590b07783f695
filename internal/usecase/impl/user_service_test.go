package impl_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erp/config"
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	servicemocks "erp/internal/mocks/service"
	"erp/internal/testutil"
	"erp/internal/usecase"
)

func TestUserService_RegisterAndLogin(t *testing.T) {
	hasher := servicemocks.NewMockPasswordHasher(t)
	tokenService := servicemocks.NewMockTokenService(t)
	f := newFixtureWith(t, testutil.SQLiteConfig(t), hasher, tokenService)
	ctx := context.Background()

	expiresAt := time.Now().Add(20 * time.Minute)
	hasher.EXPECT().Hash("password123").Return("hashed-password", nil).Once()
	hasher.EXPECT().Check("password123", "hashed-password").Return(true).Once()
	tokenService.EXPECT().IssueToken(mock.MatchedBy(func(u *entity.User) bool {
		return u.Username == "dave"
	})).Return("signed-token", expiresAt, nil).Once()
	tokenService.EXPECT().AccessTokenTTL().Return(20 * time.Minute).Once()

	output, err := f.users.Register(ctx, nil, &usecase.RegisterInput{
		Username: "dave",
		Email:    "dave@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotZero(t, output.User.ID)
	assert.Equal(t, entity.RoleCustomer, output.User.Role)
	assert.Equal(t, "hashed-password", output.User.HashedPassword)

	login, err := f.users.Login(ctx, &usecase.LoginInput{Username: "dave", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "signed-token", login.AccessToken)
	assert.Equal(t, "bearer", login.TokenType)
	assert.Equal(t, expiresAt, login.ExpiresAt)
	assert.Equal(t, 20*time.Minute, login.ExpiresIn)
}

func TestUserService_LoginFailuresLookAlike(t *testing.T) {
	hasher := servicemocks.NewMockPasswordHasher(t)
	tokenService := servicemocks.NewMockTokenService(t)
	f := newFixtureWith(t, testutil.SQLiteConfig(t), hasher, tokenService)
	ctx := context.Background()

	hasher.EXPECT().Hash("password123").Return("hashed-password", nil).Once()
	_, err := f.users.Register(ctx, nil, &usecase.RegisterInput{Username: "erin", Email: "erin@example.com", Password: "password123"})
	require.NoError(t, err)

	hasher.EXPECT().Check("wrong", "hashed-password").Return(false).Once()
	_, err = f.users.Login(ctx, &usecase.LoginInput{Username: "erin", Password: "wrong"})
	wrongPassword := err
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))

	// Unknown users still pay for a hash comparison.
	hasher.EXPECT().Hash(mock.Anything).Return("dummy-hash", nil).Once()
	hasher.EXPECT().Check("password123", "dummy-hash").Return(false).Once()
	_, err = f.users.Login(ctx, &usecase.LoginInput{Username: "nobody", Password: "password123"})
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))

	var first, second domainerrors.AppError
	require.True(t, errors.As(wrongPassword, &first))
	require.True(t, errors.As(err, &second))
	assert.Equal(t, first.ErrorCode(), second.ErrorCode())
	assert.Equal(t, first.Message(), second.Message())
}

func TestUserService_RegisterRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, nil, &usecase.RegisterInput{Email: "a@example.com", Password: "password123", Role: entity.RoleAdmin})
	assert.True(t, errors.Is(err, domainerrors.ErrForbidden), "anonymous caller cannot create an admin")

	customerCaller := &entity.Claims{UserID: 9, Role: entity.RoleCustomer}
	_, err = f.users.Register(ctx, customerCaller, &usecase.RegisterInput{Email: "a@example.com", Password: "password123", Role: entity.RoleAdmin})
	assert.True(t, errors.Is(err, domainerrors.ErrForbidden))

	admin, err := f.users.Register(ctx, adminClaims, &usecase.RegisterInput{Email: "a@example.com", Password: "password123", Role: entity.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, admin.User.Role)
	assert.Nil(t, admin.User.CustomerID)

	_, err = f.users.Register(ctx, nil, &usecase.RegisterInput{Email: "a@example.com", Password: "password123"})
	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateEmail))

	_, err = f.users.Register(ctx, nil, &usecase.RegisterInput{Username: "a@example.com", Email: "other@example.com", Password: "password123"})
	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateResource))

	_, err = f.users.Register(ctx, nil, &usecase.RegisterInput{Email: "b@example.com", Password: "password123", Role: "owner"})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	_, err = f.users.Register(ctx, nil, &usecase.RegisterInput{Email: "b@example.com"})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestUserService_RegisterLinksCustomerByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.createCustomer(t, "Frank", "frank@example.com")

	output, err := f.users.Register(ctx, nil, &usecase.RegisterInput{Email: "frank@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotNil(t, output.Customer)
	require.NotNil(t, output.User.CustomerID)
	assert.Equal(t, customer.ID, *output.User.CustomerID)

	second, err := f.users.Register(ctx, nil, &usecase.RegisterInput{
		Username: "frank2",
		Email:    "frank2@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Nil(t, second.User.CustomerID)

	// A customer already held by a user is never re-linked.
	_, err = f.users.LinkCustomer(ctx, second.User.ID, customer.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrCustomerAlreadyLinked))
}

func TestUserService_RegisterWithoutEmailLinking(t *testing.T) {
	cfg := testutil.SQLiteConfig(t)
	cfg.Auth.LinkCustomerByEmail = false
	f := newFixtureWith(t, cfg, servicemocksHasher(t), nil)
	ctx := context.Background()
	f.createCustomer(t, "Grace", "grace@example.com")

	output, err := f.users.Register(ctx, nil, &usecase.RegisterInput{Email: "grace@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Nil(t, output.User.CustomerID)
	assert.Nil(t, output.Customer)
}

func TestUserService_RegisterWithCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	claims, customer := f.registerShopper(t, "heidi@example.com")
	require.NotNil(t, claims.CustomerID)
	assert.Equal(t, customer.ID, *claims.CustomerID)
	assert.Equal(t, "Test Shopper", customer.Name)
	assert.True(t, customer.IsActive)

	existing := f.createCustomer(t, "Ivan", "ivan@example.com")
	_, reused := f.registerShopper(t, "ivan@example.com")
	assert.Equal(t, existing.ID, reused.ID)

	_, err := f.users.RegisterWithCustomer(ctx, &usecase.RegisterInput{
		Username: "ivan-again",
		Email:    "ivan@example.com",
		Password: "password123",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateEmail))
}

func TestUserService_LinkCustomerNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.createCustomer(t, "Judy", "judy@example.com")

	_, err := f.users.LinkCustomer(ctx, 404, customer.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))

	output, err := f.users.Register(ctx, nil, &usecase.RegisterInput{Email: "judy.login@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = f.users.LinkCustomer(ctx, output.User.ID, 404)
	assert.True(t, errors.Is(err, domainerrors.ErrCustomerNotFound))
}

func TestUserService_ValidateToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claims, _ := f.registerShopper(t, "ken@example.com")

	login, err := f.users.Login(ctx, &usecase.LoginInput{Username: "ken@example.com", Password: "password123"})
	require.NoError(t, err)

	decoded, err := f.users.ValidateToken(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, decoded.UserID)
	assert.Equal(t, entity.RoleCustomer, decoded.Role)
	assert.Equal(t, claims.CustomerID, decoded.CustomerID)

	_, err = f.users.ValidateToken(ctx, login.AccessToken+"x")
	assert.True(t, errors.Is(err, domainerrors.ErrAuthenticationFailed))
}

func TestUserService_EnsureBootstrapAdmin(t *testing.T) {
	cfg := testutil.SQLiteConfig(t)
	cfg.Auth.BootstrapAdmin = &config.BootstrapAdminConfig{Username: "root", Email: "root@example.com", Password: "changeme"}
	f := newFixtureWith(t, cfg, servicemocksHasher(t), nil)
	ctx := context.Background()

	require.NoError(t, f.users.EnsureBootstrapAdmin(ctx))
	require.NoError(t, f.users.EnsureBootstrapAdmin(ctx), "second start finds the existing admin")

	user, err := f.users.Authenticate(ctx, "root", "changeme")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, user.Role)
}

func servicemocksHasher(t *testing.T) *servicemocks.MockPasswordHasher {
	t.Helper()

	hasher := servicemocks.NewMockPasswordHasher(t)
	hasher.EXPECT().Hash(mock.Anything).RunAndReturn(func(password string) (string, error) {
		return "hashed:" + password, nil
	}).Maybe()
	hasher.EXPECT().Check(mock.Anything, mock.Anything).RunAndReturn(func(password, hash string) bool {
		return hash == "hashed:"+password
	}).Maybe()

	return hasher
}
