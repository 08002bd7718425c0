// Package nats implements the message queue port using core NATS pub/sub.
// Every replica receives every message, which is what cache invalidation
// and tenant event fan-out need.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Strob0t/ServicePulse/internal/logger"
	"github.com/Strob0t/ServicePulse/internal/port/messagequeue"
)

const headerRequestID = "X-Request-ID"

var _ messagequeue.Queue = (*Queue)(nil)

// Queue implements messagequeue.Queue on a plain NATS connection.
type Queue struct {
	nc *nats.Conn
}

// Connect establishes a connection to NATS with reconnect handling.
func Connect(_ context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.Name("servicepulse"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	slog.Info("nats connected", "url", url)
	return &Queue{nc: nc}, nil
}

// Publish sends a message to the given subject. The request ID from ctx
// travels as a header.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	msg := nats.NewMsg(subject)
	msg.Data = data
	if id := logger.RequestID(ctx); id != "" {
		msg.Header.Set(headerRequestID, id)
	}
	if err := q.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a handler for messages on the given subject.
// Handler errors are logged; core NATS has no redelivery.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	sub, err := q.nc.Subscribe(subject, func(msg *nats.Msg) {
		msgCtx := ctx
		if id := msg.Header.Get(headerRequestID); id != "" {
			msgCtx = logger.WithRequestID(msgCtx, id)
		}
		if err := handler(msgCtx, msg.Subject, msg.Data); err != nil {
			slog.ErrorContext(msgCtx, "message handler failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			slog.Warn("nats unsubscribe failed", "subject", subject, "error", err)
		}
	}, nil
}

// Drain gracefully drains all subscriptions, then closes the connection.
func (q *Queue) Drain() error {
	if err := q.nc.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the underlying connection is up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}
