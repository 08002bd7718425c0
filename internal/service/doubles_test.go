package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Strob0t/ServicePulse/internal/adapter/memstore"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
)

// countingTenants counts host lookups on a memstore. When gate is set, the
// first lookup reads its row and then waits for gate to close.
type countingTenants struct {
	*memstore.Store
	calls atomic.Int32
	gate  chan struct{}
}

func (c *countingTenants) ResolveHost(ctx context.Context, host string) (*tenant.Context, error) {
	tc, err := c.Store.ResolveHost(ctx, host)
	if n := c.calls.Add(1); n == 1 && c.gate != nil {
		<-c.gate
	}
	return tc, err
}

// mapCache is a plain map implementation of cache.TenantCache.
type mapCache struct {
	mu    sync.Mutex
	hosts map[string]*tenant.Context
}

func newMapCache() *mapCache { return &mapCache{hosts: map[string]*tenant.Context{}} }

func (c *mapCache) Get(host string) (*tenant.Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tc, ok := c.hosts[host]
	return tc, ok
}

func (c *mapCache) Set(host string, tc *tenant.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts[host] = tc
}

func (c *mapCache) InvalidateHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.hosts, host)
}

func (c *mapCache) InvalidateTenant(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for h, tc := range c.hosts {
		if tc.TenantID == tenantID {
			delete(c.hosts, h)
		}
	}
}

func (c *mapCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts = map[string]*tenant.Context{}
}

// recordingHub captures broadcasts per tenant.
type recordingHub struct {
	mu     sync.Mutex
	events map[string][]string
}

func newRecordingHub() *recordingHub { return &recordingHub{events: map[string][]string{}} }

func (h *recordingHub) BroadcastToTenant(_ context.Context, tenantID, eventType string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[tenantID] = append(h.events[tenantID], eventType)
}

func (h *recordingHub) count(tenantID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events[tenantID])
}

// nopInvalidator satisfies Invalidator and counts calls.
type nopInvalidator struct {
	tenants, hosts atomic.Int32
}

func (n *nopInvalidator) InvalidateTenant(context.Context, string) { n.tenants.Add(1) }
func (n *nopInvalidator) InvalidateHost(context.Context, string)   { n.hosts.Add(1) }
