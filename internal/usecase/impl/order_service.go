package impl

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "erp/internal/delivery/context"
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/domain/repository"
	"erp/internal/usecase"
)

const maxItemQuantity = 9999

// orderService implements the OrderUsecase interface.
type orderService struct {
	txManager repository.TransactionManager
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	logger    *slog.Logger
	now       func() time.Time
}

// OrderServiceParams holds dependencies for OrderService, injected by Fx.
type OrderServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	OrderRepo repository.OrderRepository
	UserRepo  repository.UserRepository
	Logger    *slog.Logger
}

// NewOrderService is the constructor for orderService.
func NewOrderService(params OrderServiceParams) usecase.OrderUsecase {
	return &orderService{
		txManager: params.TxManager,
		orderRepo: params.OrderRepo,
		userRepo:  params.UserRepo,
		logger:    params.Logger,
		now:       time.Now,
	}
}

func (srv *orderService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Create places a pending order. Stock for every item is taken in the same transaction
// that inserts the order, so either everything is applied or nothing is.
func (srv *orderService) Create(ctx context.Context, claims *entity.Claims, input *usecase.CreateOrderInput) (*entity.Order, error) {
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	customerID, err := srv.resolveCustomer(ctx, claims, input.CustomerID)
	if err != nil {
		return nil, err
	}

	order := &entity.Order{
		CustomerID:    customerID,
		OrderDate:     srv.now().UTC(),
		PaymentStatus: entity.PaymentStatusPending,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		customer, err := findCustomer(ctx, repoFactory.CustomerRepo(), customerID)
		if err != nil {
			return err
		}
		if !customer.IsActive {
			return errors.WithStack(domainerrors.ErrCustomerDeactivated)
		}

		items, err := reserveItems(ctx, repoFactory.ProductRepo(), input.Items)
		if err != nil {
			return err
		}

		order.Items = items
		order.TotalAmount = order.ComputeTotal()

		return errors.Wrap(repoFactory.OrderRepo().Create(ctx, order), "failed to persist order")
	})
	if err != nil {
		srv.log(ctx).Warn("Order creation failed", slog.Any("customerID", customerID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute create order transaction")
	}

	srv.log(ctx).Info("Order created",
		slog.Any("orderID", order.ID), slog.Any("customerID", customerID), slog.Float64("total", order.TotalAmount))

	return order, nil
}

// List returns every order for admins and the caller's own orders otherwise.
func (srv *orderService) List(ctx context.Context, claims *entity.Claims) ([]*entity.Order, error) {
	var filter *uint
	if !claims.IsAdmin() {
		customerID, err := linkedCustomerID(ctx, srv.userRepo, claims)
		if err != nil {
			return nil, err
		}
		filter = &customerID
	}

	orders, err := srv.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	return orders, nil
}

// Get returns one order; customers may only read their own.
func (srv *orderService) Get(ctx context.Context, claims *entity.Claims, id uint) (*entity.Order, error) {
	order, err := findOrder(ctx, srv.orderRepo, id)
	if err != nil {
		return nil, err
	}

	if err := srv.ensureOwner(ctx, claims, order); err != nil {
		return nil, err
	}

	return order, nil
}

// MarkPaid moves a pending order to paid. Stock stays decremented.
func (srv *orderService) MarkPaid(ctx context.Context, id uint) (*entity.Order, error) {
	var order *entity.Order
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		orderRepo := repoFactory.OrderRepo()

		current, err := lockOrder(ctx, orderRepo, id)
		if err != nil {
			return err
		}
		if err := applyStatus(ctx, orderRepo, current, entity.PaymentStatusPaid); err != nil {
			return err
		}
		order = current

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute mark paid transaction")
	}

	srv.log(ctx).Info("Order paid", slog.Any("orderID", id))

	return order, nil
}

// Cancel returns every item to stock and moves a pending order to cancelled.
func (srv *orderService) Cancel(ctx context.Context, claims *entity.Claims, id uint) (*entity.Order, error) {
	var owner *uint
	if !claims.IsAdmin() {
		// Zero never matches an order, so an unlinked caller is refused below.
		customerID, err := linkedCustomerID(ctx, srv.userRepo, claims)
		if err != nil && !errors.Is(err, domainerrors.ErrNoLinkedCustomer) {
			return nil, err
		}
		owner = &customerID
	}

	var order *entity.Order
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		orderRepo := repoFactory.OrderRepo()

		current, err := lockOrder(ctx, orderRepo, id)
		if err != nil {
			return err
		}
		if owner != nil && current.CustomerID != *owner {
			return errors.Wrap(domainerrors.ErrForbidden, "order belongs to another customer")
		}
		if !current.PaymentStatus.CanTransitionTo(entity.PaymentStatusCancelled) {
			return invalidTransition(current.PaymentStatus, entity.PaymentStatusCancelled)
		}

		if err := restockItems(ctx, repoFactory.ProductRepo(), current.Items); err != nil {
			return err
		}

		if err := applyStatus(ctx, orderRepo, current, entity.PaymentStatusCancelled); err != nil {
			return err
		}
		order = current

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute cancel order transaction")
	}

	srv.log(ctx).Info("Order cancelled", slog.Any("orderID", id))

	return order, nil
}

// Update replaces the items of a pending order: old items are restocked, new items
// reserved and the total recomputed, all in one transaction. An empty list empties the
// order and leaves its total at zero.
func (srv *orderService) Update(ctx context.Context, id uint, input *usecase.UpdateOrderInput) (*entity.Order, error) {
	if input.Items == nil {
		return findOrder(ctx, srv.orderRepo, id)
	}
	if len(input.Items) > 0 {
		if err := validateItems(input.Items); err != nil {
			return nil, err
		}
	}

	var order *entity.Order
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		orderRepo := repoFactory.OrderRepo()
		productRepo := repoFactory.ProductRepo()

		current, err := lockOrder(ctx, orderRepo, id)
		if err != nil {
			return err
		}
		if current.PaymentStatus != entity.PaymentStatusPending {
			return errors.Wrapf(domainerrors.ErrInvalidTransition, "items of a %s order cannot change", current.PaymentStatus)
		}

		if err := restockItems(ctx, productRepo, current.Items); err != nil {
			return err
		}

		items, err := reserveItems(ctx, productRepo, input.Items)
		if err != nil {
			return err
		}

		current.Items = items
		current.TotalAmount = current.ComputeTotal()
		if err := orderRepo.ReplaceItems(ctx, current); err != nil {
			return mapOrderError(err, "failed to replace order items")
		}

		order = current

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute update order transaction")
	}

	srv.log(ctx).Info("Order items replaced", slog.Any("orderID", id), slog.Float64("total", order.TotalAmount))

	return order, nil
}

// resolveCustomer picks the customer an order is placed for: the supplied id for admins,
// the caller's own link for everyone else.
func (srv *orderService) resolveCustomer(ctx context.Context, claims *entity.Claims, requested *uint) (uint, error) {
	if claims.IsAdmin() {
		if requested == nil || *requested == 0 {
			return 0, domainerrors.ErrValidationFailed.WithDetails("customer_id is required when ordering as admin")
		}

		return *requested, nil
	}

	return linkedCustomerID(ctx, srv.userRepo, claims)
}

func (srv *orderService) ensureOwner(ctx context.Context, claims *entity.Claims, order *entity.Order) error {
	if claims.IsAdmin() {
		return nil
	}

	customerID, err := linkedCustomerID(ctx, srv.userRepo, claims)
	if errors.Is(err, domainerrors.ErrNoLinkedCustomer) {
		return errors.Wrap(domainerrors.ErrForbidden, "caller has no customer")
	}
	if err != nil {
		return err
	}
	if order.CustomerID != customerID {
		return errors.Wrap(domainerrors.ErrForbidden, "order belongs to another customer")
	}

	return nil
}

// reserveItems takes stock for each request and returns the items in request order with the
// current product price captured. Rows are locked in ascending product id order so two
// concurrent orders over the same products cannot deadlock.
func reserveItems(ctx context.Context, productRepo repository.ProductRepository, requests []entity.ItemRequest) ([]*entity.OrderItem, error) {
	order := make([]int, len(requests))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return requests[order[a]].ProductID < requests[order[b]].ProductID
	})

	items := make([]*entity.OrderItem, len(requests))
	for _, idx := range order {
		req := requests[idx]

		product, err := productRepo.FindByIDForUpdate(ctx, req.ProductID)
		if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
			return nil, errors.Wrap(err, "failed to lock product")
		}
		if err != nil || !product.CanFulfil(req.Quantity) {
			return nil, productUnavailable(req.ProductID)
		}

		if err := productRepo.DecrementStock(ctx, req.ProductID, req.Quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, productUnavailable(req.ProductID)
			}
			return nil, errors.Wrap(err, "failed to decrement stock")
		}

		items[idx] = &entity.OrderItem{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
		}
	}

	return items, nil
}

// restockItems returns each item's quantity to its product. Products deleted since the
// order was placed are skipped.
func restockItems(ctx context.Context, productRepo repository.ProductRepository, items []*entity.OrderItem) error {
	sorted := append([]*entity.OrderItem(nil), items...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].ProductID < sorted[b].ProductID
	})

	for _, item := range sorted {
		err := productRepo.IncrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
			return errors.Wrap(err, "failed to restock product")
		}
	}

	return nil
}

// applyStatus moves a locked order to the next status, guarded by the status it was read with.
func applyStatus(ctx context.Context, orderRepo repository.OrderRepository, current *entity.Order, to entity.PaymentStatus) error {
	if !current.PaymentStatus.CanTransitionTo(to) {
		return invalidTransition(current.PaymentStatus, to)
	}

	if err := orderRepo.UpdateStatus(ctx, current.ID, current.PaymentStatus, to); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return errors.Wrap(domainerrors.ErrInvalidTransition, "order status changed concurrently")
		}
		return mapOrderError(err, "failed to update order status")
	}

	current.PaymentStatus = to

	return nil
}

func validateItems(items []entity.ItemRequest) error {
	if len(items) == 0 {
		return domainerrors.ErrValidationFailed.WithDetails("at least one item is required")
	}
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity < 1 || item.Quantity > maxItemQuantity {
			return domainerrors.ErrValidationFailed.WithDetails("each item needs a product_id and a quantity between 1 and 9999")
		}
	}

	return nil
}

func productUnavailable(productID uint) error {
	return errors.WithStack(domainerrors.ErrProductUnavailable.WithDetails(
		fmt.Sprintf("product %d does not exist, is inactive or lacks stock", productID)))
}

func invalidTransition(from, to entity.PaymentStatus) error {
	return errors.WithStack(domainerrors.ErrInvalidTransition.WithDetails(
		fmt.Sprintf("cannot move order from %s to %s", from, to)))
}

func lockOrder(ctx context.Context, orderRepo repository.OrderRepository, id uint) (*entity.Order, error) {
	order, err := orderRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapOrderError(err, "failed to lock order")
	}

	return order, nil
}

func findOrder(ctx context.Context, orderRepo repository.OrderRepository, id uint) (*entity.Order, error) {
	order, err := orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapOrderError(err, "failed to find order")
	}

	return order, nil
}

func mapOrderError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrOrderNotFound) {
		return errors.WithStack(domainerrors.ErrOrderNotFound)
	}

	return errors.Wrap(err, message)
}
