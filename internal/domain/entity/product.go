package entity

import "time"

// Stock bounds for a product.
const (
	MinStock = 0
	MaxStock = 99999
)

// Product is a sellable item. Stock is the on-hand quantity decremented by orders
// and restored when an order is cancelled.
type Product struct {
	ID        uint
	Name      string
	Price     float64
	Stock     int
	Category  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanFulfil reports whether quantity units can be taken from stock.
// Ordering exactly the remaining stock is allowed.
func (p *Product) CanFulfil(quantity int) bool {
	return p != nil && p.IsActive && quantity > 0 && p.Stock >= quantity
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Search          string
	MinPrice        *float64
	MaxPrice        *float64
	Category        string
	IncludeInactive bool
}
