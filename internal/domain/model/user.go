package model

import "time"

// Role describes the access level of a registered account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleSeller:
		return true
	}
	return false
}

// CanManageCatalog reports whether the role may create or edit products.
func (r Role) CanManageCatalog() bool {
	return r == RoleSeller || r == RoleAdmin
}

// User represents a registered marketplace account.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
