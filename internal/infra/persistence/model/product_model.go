package model

import "time"

// ProductModel mirrors the 'products' table. Stock never goes negative.
type ProductModel struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"type:varchar(100);not null;index"`
	Price     float64 `gorm:"not null;check:chk_products_price,price > 0"`
	Stock     int     `gorm:"not null;check:chk_products_stock,stock >= 0"`
	Category  string  `gorm:"type:varchar(100);index"`
	IsActive  bool    `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ProductModel) TableName() string {
	return "products"
}
