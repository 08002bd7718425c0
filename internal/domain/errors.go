// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist, or exists
// outside the caller's tenant.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness violation or a state conflict.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates invalid input.
var ErrValidation = errors.New("validation failed")

// ErrBadRequest indicates a malformed request that is not a field-level validation failure.
var ErrBadRequest = errors.New("bad request")

// ErrBadReference indicates a foreign key points at a missing row.
var ErrBadReference = errors.New("invalid reference")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller is authenticated but not allowed.
var ErrForbidden = errors.New("forbidden")

// ErrTenantRequired is returned by scoped repositories called without a tenant ID.
var ErrTenantRequired = errors.New("tenant id is required")

// Tenant resolution outcomes.
var (
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrTenantSuspended   = errors.New("tenant suspended")
	ErrTenantUnavailable = errors.New("tenant unavailable")
)

// ErrRateLimited indicates the client exceeded its request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrUnavailable indicates a backing service is temporarily out of reach.
var ErrUnavailable = errors.New("service unavailable")
