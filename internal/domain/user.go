package domain

import "time"

// Role enumerates caller roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// IsStaff reports whether the role may act on tickets it does not own.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin
}

// User is the identity the engine reads; account management lives elsewhere.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}
