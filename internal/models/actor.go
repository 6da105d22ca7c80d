package models

import "github.com/google/uuid"

// Role is the capability tag carried by an authenticated principal.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleManager:
		return true
	}
	return false
}

// Actor is the authenticated principal attached to every request by the auth
// middleware. BusinessName is set only for staff roles and names the business
// the employee or manager belongs to. The queue state machine trusts this
// value and nothing else about the caller.
type Actor struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	BusinessName string    `json:"business_name,omitempty"`
}
