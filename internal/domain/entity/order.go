package entity

import "time"

// PaymentStatus is the state of an order.
//
//	pending -> paid
//	pending -> cancelled
//
// paid and cancelled are terminal.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// String returns the string representation of the PaymentStatus.
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is permitted.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && next.IsTerminal()
}

// Order belongs to exactly one customer and carries a snapshot of its items' prices.
type Order struct {
	ID            uint
	CustomerID    uint
	OrderDate     time.Time
	TotalAmount   float64
	PaymentStatus PaymentStatus
	Items         []*OrderItem
}

// OrderItem is one line of an order. UnitPrice is captured when the item is placed
// so later product price changes do not alter historical totals.
type OrderItem struct {
	ID        uint
	OrderID   uint
	ProductID uint
	Quantity  int
	UnitPrice float64
}

// Subtotal returns UnitPrice multiplied by Quantity.
func (i *OrderItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// ComputeTotal sums the item subtotals.
func (o *Order) ComputeTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Subtotal()
	}

	return total
}

// ItemRequest asks for quantity units of a product.
type ItemRequest struct {
	ProductID uint
	Quantity  int
}
