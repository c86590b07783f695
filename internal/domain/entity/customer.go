package entity

import "time"

// Customer is a buyer. Customers are deactivated ("blacklisted") rather than removed
// when they must no longer place orders.
type Customer struct {
	ID        uint
	Name      string
	Email     string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
