package impl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"erp/config"
	"erp/internal/domain/entity"
	"erp/internal/domain/service"
	"erp/internal/infra/auth"
	"erp/internal/infra/persistence/database"
	"erp/internal/testutil"
	"erp/internal/usecase"
	"erp/internal/usecase/impl"
)

var adminClaims = &entity.Claims{UserID: 1, Username: "root", Role: entity.RoleAdmin}

type fixture struct {
	cfg       *config.Config
	db        *gorm.DB
	users     usecase.UserUsecase
	customers usecase.CustomerUsecase
	products  usecase.ProductUsecase
	orders    usecase.OrderUsecase
	exports   usecase.ExportUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testutil.SQLiteConfig(t)
	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	return newFixtureWith(t, cfg, auth.NewBcryptHasher(cfg), tokenService)
}

func newFixtureWith(t *testing.T, cfg *config.Config, hasher service.PasswordHasher, tokenService service.TokenService) *fixture {
	t.Helper()

	db := testutil.OpenSQLite(t, cfg)
	logger := testutil.DiscardLogger()

	txManager := database.NewTransactionManager(db)
	userRepo := database.NewUserRepository(db)
	customerRepo := database.NewCustomerRepository(db)
	productRepo := database.NewProductRepository(db)
	orderRepo := database.NewOrderRepository(db)

	return &fixture{
		cfg: cfg,
		db:  db,
		users: impl.NewUserService(impl.UserServiceParams{
			TxManager:    txManager,
			UserRepo:     userRepo,
			CustomerRepo: customerRepo,
			Hasher:       hasher,
			TokenService: tokenService,
			Config:       cfg,
			Logger:       logger,
		}),
		customers: impl.NewCustomerService(impl.CustomerServiceParams{
			TxManager:    txManager,
			CustomerRepo: customerRepo,
			UserRepo:     userRepo,
			Logger:       logger,
		}),
		products: impl.NewProductService(impl.ProductServiceParams{
			TxManager:   txManager,
			ProductRepo: productRepo,
			Logger:      logger,
		}),
		orders: impl.NewOrderService(impl.OrderServiceParams{
			TxManager: txManager,
			OrderRepo: orderRepo,
			UserRepo:  userRepo,
			Logger:    logger,
		}),
		exports: impl.NewExportService(impl.ExportServiceParams{
			CustomerRepo: customerRepo,
			OrderRepo:    orderRepo,
			ProductRepo:  productRepo,
			Logger:       logger,
		}),
	}
}

func (f *fixture) createProduct(t *testing.T, name string, price float64, stock int) *entity.Product {
	t.Helper()

	product, err := f.products.Create(context.Background(), &usecase.ProductInput{
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: "general",
		IsActive: true,
	})
	require.NoError(t, err)

	return product
}

func (f *fixture) createCustomer(t *testing.T, name, email string) *entity.Customer {
	t.Helper()

	customer, err := f.customers.Create(context.Background(), &usecase.CreateCustomerInput{
		Name:  name,
		Email: email,
		Phone: "0912345678",
	})
	require.NoError(t, err)

	return customer
}

// registerShopper creates a customer-role user with its own customer record and returns
// claims as they would be decoded from the user's token.
func (f *fixture) registerShopper(t *testing.T, email string) (*entity.Claims, *entity.Customer) {
	t.Helper()

	output, err := f.users.RegisterWithCustomer(context.Background(), &usecase.RegisterInput{
		Email:     email,
		FirstName: "Test",
		LastName:  "Shopper",
		Phone:     "0912345678",
		Password:  "password123",
	})
	require.NoError(t, err)

	return claimsFor(output.User), output.Customer
}

func claimsFor(user *entity.User) *entity.Claims {
	return &entity.Claims{
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		CustomerID: user.CustomerID,
	}
}

func (f *fixture) stockOf(t *testing.T, productID uint) int {
	t.Helper()

	product, err := f.products.Get(context.Background(), adminClaims, productID)
	require.NoError(t, err)

	return product.Stock
}

func ptr[T any](v T) *T {
	return &v
}
