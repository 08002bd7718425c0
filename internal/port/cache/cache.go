// Package cache defines the port interface for the tenant resolution cache.
package cache

import "github.com/Strob0t/ServicePulse/internal/domain/tenant"

// TenantCache maps normalized hosts to resolved tenants.
type TenantCache interface {
	Get(host string) (*tenant.Context, bool)
	Set(host string, tc *tenant.Context)
	// InvalidateHost drops one host.
	InvalidateHost(host string)
	// InvalidateTenant drops every host that resolved to tenantID.
	InvalidateTenant(tenantID string)
	Clear()
}
