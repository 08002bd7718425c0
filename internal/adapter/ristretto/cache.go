// Package ristretto implements the tenant cache port using dgraph-io/ristretto
// as an in-process cache.
package ristretto

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/port/cache"
)

var _ cache.TenantCache = (*TenantCache)(nil)

// TenantCache maps normalized hosts to resolved tenant contexts.
// A side index of hosts per tenant allows invalidating a tenant
// without knowing which hosts point at it.
type TenantCache struct {
	c   *ristretto.Cache[string, *tenant.Context]
	ttl time.Duration

	mu    sync.Mutex
	hosts map[string]map[string]struct{} // tenantID -> hosts
}

// New creates a ristretto-backed tenant cache holding at most maxEntries hosts.
func New(maxEntries int64, ttl time.Duration) (*TenantCache, error) {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	tc := &TenantCache{
		ttl:   ttl,
		hosts: make(map[string]map[string]struct{}),
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *tenant.Context]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	tc.c = c
	return tc, nil
}

// Get returns the cached tenant for host.
func (t *TenantCache) Get(host string) (*tenant.Context, bool) {
	return t.c.Get(host)
}

// Set caches the resolution of host and waits until it is visible to Get.
func (t *TenantCache) Set(host string, tc *tenant.Context) {
	if tc == nil {
		return
	}
	t.mu.Lock()
	set, ok := t.hosts[tc.TenantID]
	if !ok {
		set = make(map[string]struct{})
		t.hosts[tc.TenantID] = set
	}
	set[host] = struct{}{}
	t.mu.Unlock()

	t.c.SetWithTTL(host, tc, 1, t.ttl)
	t.c.Wait()
}

// InvalidateHost drops one host.
func (t *TenantCache) InvalidateHost(host string) {
	if tc, ok := t.c.Get(host); ok && tc != nil {
		t.unindex(tc.TenantID, host)
	}
	t.c.Del(host)
}

// InvalidateTenant drops every host cached for tenantID.
func (t *TenantCache) InvalidateTenant(tenantID string) {
	t.mu.Lock()
	set := t.hosts[tenantID]
	delete(t.hosts, tenantID)
	t.mu.Unlock()

	for host := range set {
		t.c.Del(host)
	}
}

// Clear drops every entry.
func (t *TenantCache) Clear() {
	t.mu.Lock()
	t.hosts = make(map[string]map[string]struct{})
	t.mu.Unlock()
	t.c.Clear()
}

// Close shuts down the cache and releases resources.
func (t *TenantCache) Close() {
	t.c.Close()
}

// unindex removes host from the tenant's index. Index entries for evicted
// or expired hosts linger until the tenant is invalidated; deleting a missing
// key is a no-op.
func (t *TenantCache) unindex(tenantID, host string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.hosts[tenantID]; ok {
		delete(set, host)
		if len(set) == 0 {
			delete(t.hosts, tenantID)
		}
	}
}
