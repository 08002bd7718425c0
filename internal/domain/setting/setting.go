// Package setting defines free-form per-tenant key/value settings.
package setting

import (
	"encoding/json"
	"time"
)

// Setting is a JSON value stored under a key, unique per tenant.
type Setting struct {
	TenantID  string          `json:"tenantId"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// UpsertRequest sets the value of a key.
type UpsertRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}
