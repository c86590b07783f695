package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/domain/repository"
	"erp/internal/infra/persistence/model"
)

// orderRepository implements the repository.OrderRepository interface.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository is the constructor for orderRepository.
func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id")
	})
}

// Create inserts the order and, through the association, its items.
func (repo *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	orderM := fromOrderDomain(order)

	if err := repo.db.WithContext(ctx).Create(orderM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create order")
	}

	order.ID = orderM.ID
	for i, itemM := range orderM.Items {
		order.Items[i].ID = itemM.ID
		order.Items[i].OrderID = itemM.OrderID
	}

	return nil
}

// FindByID loads an order with its items.
func (repo *orderRepository) FindByID(ctx context.Context, id uint) (*entity.Order, error) {
	return repo.find(repo.db.WithContext(ctx), id)
}

// FindByIDForUpdate loads an order with its items and locks the order row.
func (repo *orderRepository) FindByIDForUpdate(ctx context.Context, id uint) (*entity.Order, error) {
	return repo.find(repo.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (repo *orderRepository) find(db *gorm.DB, id uint) (*entity.Order, error) {
	var orderM model.OrderModel

	if err := preloadItems(db).Where("id = ?", id).First(&orderM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOrderNotFound
		}

		return nil, errors.Wrap(err, "failed to find order by ID")
	}

	return toOrderDomain(&orderM), nil
}

// List returns orders with their items, restricted to one customer when customerID is set.
func (repo *orderRepository) List(ctx context.Context, customerID *uint) ([]*entity.Order, error) {
	var orderModels []*model.OrderModel

	query := preloadItems(repo.db.WithContext(ctx)).Order("id")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	if err := query.Find(&orderModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	orders := make([]*entity.Order, 0, len(orderModels))
	for _, orderM := range orderModels {
		orders = append(orders, toOrderDomain(orderM))
	}

	return orders, nil
}

// UpdateStatus changes the status only while the order is still in from.
func (repo *orderRepository) UpdateStatus(ctx context.Context, id uint, from, to entity.PaymentStatus) error {
	result := repo.db.WithContext(ctx).
		Model(&model.OrderModel{}).
		Where("id = ? AND payment_status = ?", id, from.String()).
		Update("payment_status", to.String())

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update order status")
	}

	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to check order existence")
	}
	if count == 0 {
		return repository.ErrOrderNotFound
	}

	return repository.ErrStatusConflict
}

// ReplaceItems deletes every item of the order, inserts order.Items and stores the new total.
func (repo *orderRepository) ReplaceItems(ctx context.Context, order *entity.Order) error {
	db := repo.db.WithContext(ctx)

	if err := db.Where("order_id = ?", order.ID).Delete(&model.OrderItemModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete order items")
	}

	if len(order.Items) > 0 {
		itemModels := make([]*model.OrderItemModel, 0, len(order.Items))
		for _, item := range order.Items {
			item.OrderID = order.ID
			itemModels = append(itemModels, fromOrderItemDomain(item))
		}

		if err := db.Create(&itemModels).Error; err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "failed to insert order items")
		}

		for i, itemM := range itemModels {
			order.Items[i].ID = itemM.ID
		}
	}

	result := db.Model(&model.OrderModel{}).
		Where("id = ?", order.ID).
		Update("total_amount", order.TotalAmount)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update order total")
	}
	if result.RowsAffected == 0 {
		return repository.ErrOrderNotFound
	}

	return nil
}

// CountByCustomer returns how many orders belong to the customer.
func (repo *orderRepository) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.OrderModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count orders")
	}

	return count, nil
}

// Stream walks every order ordered by ID using a row cursor. Items are not loaded.
func (repo *orderRepository) Stream(ctx context.Context, fn func(*entity.Order) error) error {
	return streamRows(repo.db.WithContext(ctx).Model(&model.OrderModel{}).Order("id"),
		func(orderM *model.OrderModel) error {
			return fn(toOrderDomain(orderM))
		})
}

// --- Mapper Functions ---

// toOrderDomain converts a GORM OrderModel to a domain Order entity.
func toOrderDomain(data *model.OrderModel) *entity.Order {
	if data == nil {
		return nil
	}

	items := make([]*entity.OrderItem, 0, len(data.Items))
	for _, itemM := range data.Items {
		items = append(items, toOrderItemDomain(itemM))
	}

	return &entity.Order{
		ID:            data.ID,
		CustomerID:    data.CustomerID,
		OrderDate:     data.OrderDate,
		TotalAmount:   data.TotalAmount,
		PaymentStatus: entity.PaymentStatus(data.PaymentStatus),
		Items:         items,
	}
}

// fromOrderDomain converts a domain Order entity to a GORM OrderModel.
func fromOrderDomain(data *entity.Order) *model.OrderModel {
	if data == nil {
		return nil
	}

	items := make([]*model.OrderItemModel, 0, len(data.Items))
	for _, item := range data.Items {
		items = append(items, fromOrderItemDomain(item))
	}

	return &model.OrderModel{
		ID:            data.ID,
		CustomerID:    data.CustomerID,
		OrderDate:     data.OrderDate,
		TotalAmount:   data.TotalAmount,
		PaymentStatus: data.PaymentStatus.String(),
		Items:         items,
	}
}

func toOrderItemDomain(data *model.OrderItemModel) *entity.OrderItem {
	return &entity.OrderItem{
		ID:        data.ID,
		OrderID:   data.OrderID,
		ProductID: data.ProductID,
		Quantity:  data.Quantity,
		UnitPrice: data.UnitPrice,
	}
}

func fromOrderItemDomain(data *entity.OrderItem) *model.OrderItemModel {
	return &model.OrderItemModel{
		ID:        data.ID,
		OrderID:   data.OrderID,
		ProductID: data.ProductID,
		Quantity:  data.Quantity,
		UnitPrice: data.UnitPrice,
	}
}
