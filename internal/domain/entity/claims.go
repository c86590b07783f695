package entity

import "time"

// Claims is the verified identity carried by an access token.
type Claims struct {
	TokenID    string    // Unique token id (jti).
	UserID     uint      // Subject.
	Username   string    // Login name at issuance.
	Role       Role      // Role at issuance.
	CustomerID *uint     // Linked customer at issuance, nil if none.
	ExpiresAt  time.Time // Absolute expiry.
}

// IsAdmin reports whether the token was issued to an administrator.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role.IsAdmin()
}

// OwnsCustomer reports whether the token is linked to the given customer.
func (c *Claims) OwnsCustomer(customerID uint) bool {
	return c != nil && c.CustomerID != nil && *c.CustomerID == customerID
}
