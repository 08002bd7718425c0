// Package user defines platform and tenant users and their roles.
package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Role represents the authorization level of a user.
type Role string

const (
	RoleOwner    Role = "OWNER"
	RoleAdmin    Role = "ADMIN"
	RoleStaff    Role = "STAFF"
	RoleCustomer Role = "CUSTOMER"
)

// ValidRoles is the set of all valid user roles.
var ValidRoles = map[Role]bool{
	RoleOwner:    true,
	RoleAdmin:    true,
	RoleStaff:    true,
	RoleCustomer: true,
}

// Scope says which side of the platform a session belongs to.
type Scope string

const (
	ScopeTenant   Scope = "tenant"
	ScopePlatform Scope = "platform"
)

// User is either a platform owner (no tenant) or a member of exactly one tenant.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId,omitempty"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsOwner reports whether u is a platform owner.
func (u *User) IsOwner() bool { return u.Role == RoleOwner }

// CheckTenancy enforces that owners carry no tenant and everyone else carries one.
func CheckTenancy(role Role, tenantID string) error {
	if role == RoleOwner && tenantID != "" {
		return errors.New("owner users cannot belong to a tenant")
	}
	if role != RoleOwner && tenantID == "" {
		return errors.New("non-owner users must belong to a tenant")
	}
	return nil
}

// CreateRequest is the input for registering a new user.
type CreateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8"` //nolint:gosec // request field, not a hardcoded secret
	Role     Role   `json:"role" validate:"required"`
	TenantID string `json:"-"`
}

// Validate checks field presence and the owner/tenant invariant.
func (r *CreateRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !ValidRoles[r.Role] {
		return errors.New("invalid role: must be OWNER, ADMIN, STAFF or CUSTOMER")
	}
	return CheckTenancy(r.Role, r.TenantID)
}

// LoginRequest is the input for password authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"` //nolint:gosec // request field, not a hardcoded secret
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	AccessToken string `json:"accessToken"` //nolint:gosec // response field, not a hardcoded secret
	ExpiresIn   int    `json:"expiresIn"`
	User        User   `json:"user"`
}

// Claims is the verified content of a session token.
type Claims struct {
	UserID    string
	Email     string
	Role      Role
	TenantID  string
	Scope     Scope
	ExpiresAt time.Time
}
