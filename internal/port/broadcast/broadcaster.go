// Package broadcast defines the port for pushing real-time events to connected clients.
package broadcast

import "context"

// Broadcaster sends events to clients. Delivery is always limited to one tenant.
type Broadcaster interface {
	BroadcastToTenant(ctx context.Context, tenantID, eventType string, payload any)
}
