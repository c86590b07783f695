// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleAdmin manages customers, products, orders and exports.
	RoleAdmin Role = "admin"
	// RoleCustomer places and manages its own orders.
	RoleCustomer Role = "customer"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCustomer:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role is RoleAdmin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// ParseRole converts a raw string into a Role, reporting whether it is one of the known values.
func ParseRole(s string) (Role, bool) {
	role := Role(s)

	return role, role.IsValid()
}
