// Package resilience guards calls to infrastructure that can go away, such
// as object storage, so an outage fails requests fast instead of piling
// them up behind client timeouts.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/metrics"
)

// ErrCircuitOpen is returned while the breaker rejects calls. It wraps
// domain.ErrUnavailable so the HTTP layer answers 503.
var ErrCircuitOpen = fmt.Errorf("%w: circuit open", domain.ErrUnavailable)

// State is the breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker opens after maxFailures consecutive infrastructure failures and
// lets a single probe through once cooldown has elapsed.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a closed breaker. name labels logs and metrics.
func NewBreaker(name string, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	metrics.RecordBreakerState(name, int(Closed))
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do runs fn unless the breaker is open. Caller errors (not found,
// validation, cancellation) count as successes: the dependency answered.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.allow() {
		return ErrCircuitOpen
	}
	err := fn(ctx)
	b.record(ctx, err)
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.setState(HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

func (b *Breaker) record(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if !IsFailure(err) {
		b.failures = 0
		if b.state != Closed {
			slog.InfoContext(ctx, "circuit closed", "breaker", b.name)
			b.setState(Closed)
		}
		return
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.maxFailures {
		if b.state != Open {
			slog.WarnContext(ctx, "circuit opened", "breaker", b.name, "failures", b.failures, "error", err)
		}
		b.openedAt = b.now()
		b.setState(Open)
	}
}

// setState must be called with b.mu held.
func (b *Breaker) setState(s State) {
	b.state = s
	metrics.RecordBreakerState(b.name, int(s))
}

// IsFailure reports whether err says the dependency is unhealthy.
func IsFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrBadRequest):
		return false
	}
	return true
}
