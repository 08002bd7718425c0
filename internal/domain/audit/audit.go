// Package audit defines the append-only admin action log.
package audit

import (
	"encoding/json"
	"time"
)

// Entry is one recorded admin action.
type Entry struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenantId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entityId,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Actions.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionStatus = "STATUS_CHANGE"
)

// Filter narrows an audit listing.
type Filter struct {
	Entity string
	Limit  int
	Offset int
}
