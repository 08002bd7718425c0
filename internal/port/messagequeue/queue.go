// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error
	Close() error
	IsConnected() bool
}

// Subjects.
const (
	SubjectTenantInvalidate = "tenants.invalidate"
	SubjectTicketEvent      = "tickets.events"
)

// TenantInvalidation tells every replica to drop cached resolutions.
// Host empty means all hosts of TenantID.
type TenantInvalidation struct {
	TenantID string `json:"tenantId,omitempty"`
	Host     string `json:"host,omitempty"`
}
