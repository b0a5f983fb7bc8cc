package domain

import "time"

// Role enumerates caller roles. The set is closed; unknown strings are
// rejected at the boundary rather than treated as implicit users.
type Role string

const (
	RoleUser    Role = "USER"
	RoleSupport Role = "SUPPORT"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSupport, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may operate on tickets it does not own.
func (r Role) IsStaff() bool {
	return r == RoleSupport || r == RoleAdmin
}

// Profile links an identity-provider subject to an email and role.
type Profile struct {
	ID        string
	Email     string
	Role      Role
	ClientID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
