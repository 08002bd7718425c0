package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/ServicePulse/internal/adapter/otel"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/metrics"
	"github.com/Strob0t/ServicePulse/internal/port/cache"
	"github.com/Strob0t/ServicePulse/internal/port/database"
	"github.com/Strob0t/ServicePulse/internal/port/messagequeue"
)

// TenantResolver maps request hosts to tenants. Lookups are cached per
// normalized host; the status policy runs on every call, cached or not.
type TenantResolver struct {
	repo  database.TenantRepository
	cache cache.TenantCache
	queue messagequeue.Queue
	group singleflight.Group

	// Invalidations stamp the host or tenant with the next seq value. A load
	// started before a matching stamp does not write to the cache.
	mu        sync.Mutex
	seq       uint64
	clearedAt uint64
	hostGen   map[string]uint64
	tenantGen map[string]uint64
	loading   map[string]struct{}
	// OnInvalidate, when set, runs for every tenant invalidated on this replica.
	OnInvalidate func(tenantID string)
}

// NewTenantResolver creates a resolver. queue may be nil for a single replica.
func NewTenantResolver(repo database.TenantRepository, c cache.TenantCache, queue messagequeue.Queue) *TenantResolver {
	return &TenantResolver{
		repo:      repo,
		cache:     c,
		queue:     queue,
		hostGen:   map[string]uint64{},
		tenantGen: map[string]uint64{},
		loading:   map[string]struct{}{},
	}
}

// Resolve returns the tenant bound to rawHost. Errors are domain.ErrBadRequest
// for an unusable host, domain.ErrTenantNotFound, domain.ErrTenantSuspended or
// domain.ErrTenantUnavailable. There is no default tenant fallback.
func (r *TenantResolver) Resolve(ctx context.Context, rawHost string) (*tenant.Context, error) {
	host := tenant.NormalizeHost(rawHost)
	if host == "" {
		return nil, fmt.Errorf("%w: invalid host header", domain.ErrBadRequest)
	}

	ctx, span := otel.StartResolveSpan(ctx, host)
	defer span.End()

	source := "cache"
	tc, ok := r.cache.Get(host)
	if !ok {
		source = "db"
		v, err, _ := r.group.Do(host, func() (any, error) {
			start := r.beginLoad(host)
			defer r.endLoad(host)
			// Shared by every waiter, so one caller's cancellation must not fail the rest.
			found, err := r.repo.ResolveHost(context.WithoutCancel(ctx), host)
			if err != nil {
				return nil, err
			}
			if r.stale(host, found.TenantID, start) {
				// Invalidated while loading: the row may predate the change.
				found, err = r.repo.ResolveHost(context.WithoutCancel(ctx), host)
				if err != nil {
					return nil, err
				}
				return found, nil
			}
			r.cache.Set(host, found)
			return found, nil
		})
		if err != nil {
			if errors.Is(err, domain.ErrTenantNotFound) {
				metrics.RecordResolution(source, metrics.OutcomeNotFound)
				return nil, err
			}
			metrics.RecordResolution(source, metrics.OutcomeError)
			return nil, fmt.Errorf("resolve tenant: %w", err)
		}
		tc = v.(*tenant.Context)
	}

	if err := tc.Status.Check(); err != nil {
		metrics.RecordResolution(source, metrics.OutcomeSuspended)
		return nil, fmt.Errorf("tenant %s: %w", tc.Slug, err)
	}
	metrics.RecordResolution(source, metrics.OutcomeResolved)

	// Callers get a copy so request code cannot mutate the cached entry.
	out := *tc
	return &out, nil
}

func (r *TenantResolver) beginLoad(host string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading[host] = struct{}{}
	return r.seq
}

func (r *TenantResolver) endLoad(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.loading, host)
}

// stale reports whether host or tenantID was invalidated after start.
func (r *TenantResolver) stale(host, tenantID string, start uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearedAt > start || r.hostGen[host] > start || r.tenantGen[tenantID] > start
}

// forget stamps the invalidation and detaches in-flight loads from new
// callers, which then start a fresh lookup. An empty host and tenant means
// everything.
func (r *TenantResolver) forget(host, tenantID string) {
	r.mu.Lock()
	r.seq++
	var detach []string
	switch {
	case host != "":
		r.hostGen[host] = r.seq
		detach = []string{host}
	case tenantID != "":
		r.tenantGen[tenantID] = r.seq
	default:
		r.clearedAt = r.seq
	}
	if host == "" {
		// The tenant of an in-flight host is unknown until it loads.
		for h := range r.loading {
			detach = append(detach, h)
		}
	}
	r.mu.Unlock()

	for _, h := range detach {
		r.group.Forget(h)
	}
}

// dropTenant removes a tenant from the local cache and notifies OnInvalidate.
func (r *TenantResolver) dropTenant(tenantID string) {
	r.forget("", tenantID)
	r.cache.InvalidateTenant(tenantID)
	if r.OnInvalidate != nil {
		r.OnInvalidate(tenantID)
	}
}

func (r *TenantResolver) dropHost(host string) {
	r.forget(host, "")
	r.cache.InvalidateHost(host)
}

// InvalidateTenant drops the tenant locally and on every replica listening on NATS.
func (r *TenantResolver) InvalidateTenant(ctx context.Context, tenantID string) {
	r.dropTenant(tenantID)
	r.publish(ctx, messagequeue.TenantInvalidation{TenantID: tenantID})
}

// InvalidateHost drops one host locally and on every replica.
func (r *TenantResolver) InvalidateHost(ctx context.Context, host string) {
	host = tenant.NormalizeHost(host)
	r.dropHost(host)
	r.publish(ctx, messagequeue.TenantInvalidation{Host: host})
}

func (r *TenantResolver) publish(ctx context.Context, inv messagequeue.TenantInvalidation) {
	if r.queue == nil {
		return
	}
	data, err := json.Marshal(inv)
	if err != nil {
		slog.ErrorContext(ctx, "marshal tenant invalidation", "error", err)
		return
	}
	// Local entries are already gone; a failed broadcast only delays other replicas until TTL.
	if err := r.queue.Publish(ctx, messagequeue.SubjectTenantInvalidate, data); err != nil {
		slog.WarnContext(ctx, "publish tenant invalidation failed", "error", err)
	}
}

// Listen applies invalidations published by other replicas.
func (r *TenantResolver) Listen(ctx context.Context) (func(), error) {
	if r.queue == nil {
		return func() {}, nil
	}
	return r.queue.Subscribe(ctx, messagequeue.SubjectTenantInvalidate, r.HandleInvalidation)
}

// HandleInvalidation decodes one invalidation message and applies it to the local cache.
func (r *TenantResolver) HandleInvalidation(ctx context.Context, _ string, data []byte) error {
	var inv messagequeue.TenantInvalidation
	if err := json.Unmarshal(data, &inv); err != nil {
		return fmt.Errorf("decode tenant invalidation: %w", err)
	}
	switch {
	case inv.Host != "":
		r.dropHost(inv.Host)
	case inv.TenantID != "":
		r.dropTenant(inv.TenantID)
	default:
		r.forget("", "")
		r.cache.Clear()
	}
	slog.DebugContext(ctx, "tenant cache invalidated", "tenant_id", inv.TenantID, "host", inv.Host)
	return nil
}
