// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "time"

// User is an account that can log in. It is the credential record of the system;
// the commercial identity lives in the optionally linked Customer.
type User struct {
	ID             uint      // Primary key.
	Username       string    // Unique login name. Defaults to the email on registration.
	Email          string    // Unique contact email.
	FirstName      string    // Given name.
	LastName       string    // Family name.
	Phone          string    // Optional phone number.
	HashedPassword string    // bcrypt hash of the password.
	Role           Role      // Immutable after creation.
	IsActive       bool      // Inactive users cannot log in.
	CustomerID     *uint     // Linked customer, nil when the account is not bound to one.
	CreatedAt      time.Time // Timestamp of when this account was created.
	UpdatedAt      time.Time // Timestamp of the last modification.
}

// FullName joins first and last name the way customer records are named on registration.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// HasCustomer reports whether the account is linked to a customer record.
func (u *User) HasCustomer() bool {
	return u.CustomerID != nil
}
