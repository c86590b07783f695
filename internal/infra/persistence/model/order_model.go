package model

import "time"

// OrderModel mirrors the 'orders' table.
type OrderModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	CustomerID    uint      `gorm:"not null;index"`
	OrderDate     time.Time `gorm:"not null"`
	TotalAmount   float64   `gorm:"not null"`
	PaymentStatus string    `gorm:"type:varchar(20);not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []*OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel mirrors the 'order_items' table. UnitPrice is the product price when the item was placed.
type OrderItemModel struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	OrderID   uint    `gorm:"not null;index"`
	ProductID uint    `gorm:"not null;index"`
	Quantity  int     `gorm:"not null;check:chk_order_items_quantity,quantity > 0"`
	UnitPrice float64 `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (OrderItemModel) TableName() string {
	return "order_items"
}

// All lists every persistence model in migration order.
func All() []any {
	return []any{
		&CustomerModel{},
		&UserModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
	}
}
