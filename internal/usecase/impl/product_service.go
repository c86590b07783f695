package impl

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "erp/internal/delivery/context"
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/domain/repository"
	"erp/internal/usecase"
)

const maxProductNameLength = 100

// productService implements the ProductUsecase interface.
type productService struct {
	txManager   repository.TransactionManager
	productRepo repository.ProductRepository
	logger      *slog.Logger
}

// ProductServiceParams holds dependencies for ProductService, injected by Fx.
type ProductServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	ProductRepo repository.ProductRepository
	Logger      *slog.Logger
}

// NewProductService is the constructor for productService.
func NewProductService(params ProductServiceParams) usecase.ProductUsecase {
	return &productService{
		txManager:   params.TxManager,
		productRepo: params.ProductRepo,
		logger:      params.Logger,
	}
}

func (srv *productService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// List hides inactive products unless an admin explicitly includes them.
func (srv *productService) List(ctx context.Context, claims *entity.Claims, filter entity.ProductFilter) ([]*entity.Product, error) {
	if !claims.IsAdmin() {
		filter.IncludeInactive = false
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, domainerrors.ErrValidationFailed.WithDetails("min_price must not exceed max_price")
	}

	products, err := srv.productRepo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list products")
	}

	return products, nil
}

func (srv *productService) Get(ctx context.Context, claims *entity.Claims, id uint) (*entity.Product, error) {
	product, err := findProduct(ctx, srv.productRepo, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !claims.IsAdmin() {
		return nil, errors.WithStack(domainerrors.ErrProductNotFound)
	}

	return product, nil
}

func (srv *productService) Create(ctx context.Context, input *usecase.ProductInput) (*entity.Product, error) {
	product, err := productFromInput(input)
	if err != nil {
		return nil, err
	}

	if err := srv.productRepo.Create(ctx, product); err != nil {
		return nil, errors.Wrap(err, "failed to create product")
	}

	srv.log(ctx).Info("Product created", slog.Any("productID", product.ID))

	return product, nil
}

// Update replaces every writable field of the product.
func (srv *productService) Update(ctx context.Context, id uint, input *usecase.ProductInput) (*entity.Product, error) {
	product, err := productFromInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := findProduct(ctx, srv.productRepo, id)
	if err != nil {
		return nil, err
	}

	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	if err := srv.productRepo.Update(ctx, product); err != nil {
		return nil, mapProductError(err, "failed to update product")
	}

	return product, nil
}

// Delete removes a product that no order item references.
func (srv *productService) Delete(ctx context.Context, id uint, confirm bool) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		productRepo := repoFactory.ProductRepo()

		if _, err := findProduct(ctx, productRepo, id); err != nil {
			return err
		}
		if !confirm {
			return errors.WithStack(domainerrors.ErrConfirmationRequired)
		}

		referenced, err := productRepo.IsReferenced(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to check product references")
		}
		if referenced {
			return errors.WithStack(domainerrors.ErrResourceInUse.WithDetails("product appears in orders; deactivate it instead"))
		}

		return mapProductError(productRepo.Delete(ctx, id), "failed to delete product")
	})
	if err != nil {
		return errors.Wrap(err, "failed to execute delete product transaction")
	}

	srv.log(ctx).Info("Product deleted", slog.Any("productID", id))

	return nil
}

func productFromInput(input *usecase.ProductInput) (*entity.Product, error) {
	name := strings.TrimSpace(input.Name)

	switch {
	case name == "" || utf8.RuneCountInString(name) > maxProductNameLength:
		return nil, domainerrors.ErrValidationFailed.WithDetails("name must be 1 to 100 characters")
	case input.Price <= 0:
		return nil, domainerrors.ErrValidationFailed.WithDetails("price must be greater than 0")
	case input.Stock < entity.MinStock || input.Stock > entity.MaxStock:
		return nil, domainerrors.ErrValidationFailed.WithDetails("stock must be between 0 and 99999")
	}

	return &entity.Product{
		Name:     name,
		Price:    input.Price,
		Stock:    input.Stock,
		Category: strings.TrimSpace(input.Category),
		IsActive: input.IsActive,
	}, nil
}

func findProduct(ctx context.Context, productRepo repository.ProductRepository, id uint) (*entity.Product, error) {
	product, err := productRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, errors.WithStack(domainerrors.ErrProductNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find product")
	}

	return product, nil
}

func mapProductError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrProductNotFound) {
		return errors.WithStack(domainerrors.ErrProductNotFound)
	}

	return errors.Wrap(err, message)
}
