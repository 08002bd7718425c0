// Package tenant defines the tenant domain model for multi-tenancy.
package tenant

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain"
)

// Status is the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusDraft     Status = "DRAFT"
	StatusArchived  Status = "ARCHIVED"
)

// ValidStatuses is the set of all valid tenant statuses.
var ValidStatuses = map[Status]bool{
	StatusActive:    true,
	StatusSuspended: true,
	StatusDraft:     true,
	StatusArchived:  true,
}

// Check maps a status to the resolution outcome for an incoming request.
func (s Status) Check() error {
	switch s {
	case StatusActive:
		return nil
	case StatusSuspended:
		return domain.ErrTenantSuspended
	default:
		return domain.ErrTenantUnavailable
	}
}

// VerificationStatus tracks whether a domain's DNS has been verified.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
)

// Tenant represents an isolated shop on the platform.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    Status    `json:"status"`
	Domains   []Domain  `json:"domains,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Domain is a hostname that routes to a tenant. Stored normalized.
type Domain struct {
	ID                 string             `json:"id"`
	TenantID           string             `json:"tenantId"`
	Domain             string             `json:"domain"`
	IsPrimary          bool               `json:"isPrimary"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	VerifiedAt         *time.Time         `json:"verifiedAt,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// Summary is a tenant row with platform-wide counters for the owner console.
type Summary struct {
	Tenant
	PrimaryDomain string `json:"primaryDomain,omitempty"`
	UserCount     int    `json:"userCount"`
	ProductCount  int    `json:"productCount"`
	OrderCount    int    `json:"orderCount"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name   string `json:"name" validate:"required,max=200"`
	Slug   string `json:"slug" validate:"required,max=100"`
	Domain string `json:"domain" validate:"required"`
	// Verified marks the primary domain as verified at creation time.
	Verified bool    `json:"verified"`
	Config   *Config `json:"config,omitempty"`
}

// Validate checks the request and normalizes the domain in place.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !slugPattern.MatchString(r.Slug) {
		return fmt.Errorf("%w: slug must be lowercase letters, digits and dashes", domain.ErrValidation)
	}
	r.Domain = NormalizeHost(r.Domain)
	if r.Domain == "" {
		return fmt.Errorf("%w: domain is required", domain.ErrValidation)
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on a tenant.
type UpdateRequest struct {
	Name   string `json:"name,omitempty" validate:"omitempty,max=200"`
	Status Status `json:"status,omitempty"`
}

// Validate checks the status transition target.
func (r *UpdateRequest) Validate() error {
	if r.Status != "" && !ValidStatuses[r.Status] {
		return errors.New("invalid status: must be ACTIVE, SUSPENDED, DRAFT or ARCHIVED")
	}
	return nil
}

// AddDomainRequest attaches a hostname to a tenant.
type AddDomainRequest struct {
	Domain    string `json:"domain" validate:"required"`
	IsPrimary bool   `json:"isPrimary"`
}

// Context is the request-scoped view of the tenant a Host resolved to.
type Context struct {
	TenantID string   `json:"tenantId"`
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Status   Status   `json:"status"`
	Domain   string   `json:"domain"`
	Config   Config   `json:"config"`
	Features Features `json:"features"`
}
