package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
	"github.com/Strob0t/ServicePulse/internal/port/database"
)

// TenantStore is what the owner console needs from storage.
type TenantStore interface {
	database.TenantRepository
	database.OwnerRepository
	database.UserRepository
	database.AuditRepository
}

// Invalidator drops cached tenant resolutions on every replica.
type Invalidator interface {
	InvalidateTenant(ctx context.Context, tenantID string)
	InvalidateHost(ctx context.Context, host string)
}

// TenantService implements platform-owner tenant management. It is the
// only service that works across tenants and must only be reached through
// owner-gated routes or the operator CLI.
type TenantService struct {
	store TenantStore
	cache Invalidator
	auth  *AuthService
	audit auditor
}

// NewTenantService creates a new TenantService.
func NewTenantService(store TenantStore, cache Invalidator, auth *AuthService) *TenantService {
	return &TenantService{store: store, cache: cache, auth: auth, audit: auditor{repo: store}}
}

// List returns every tenant with its primary domain and counters.
func (s *TenantService) List(ctx context.Context) ([]tenant.Summary, error) {
	return s.store.ListTenants(ctx)
}

// Get returns a tenant with its domains.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Domains, err = s.store.ListDomains(ctx, id); err != nil {
		return nil, err
	}
	return t, nil
}

// Create provisions a tenant with its primary domain and configuration.
func (s *TenantService) Create(ctx context.Context, actor Actor, req tenant.CreateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg := tenant.DefaultConfig(req.Name)
	if req.Config != nil {
		cfg = *req.Config
		if cfg.ShopName == "" {
			cfg.ShopName = req.Name
		}
	}

	t := &tenant.Tenant{Name: req.Name, Slug: req.Slug, Status: tenant.StatusActive}
	if err := s.store.CreateTenant(ctx, t, req.Domain, req.Verified, cfg); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	s.cache.InvalidateHost(ctx, req.Domain)
	s.audit.record(ctx, t.ID, actor, audit.ActionCreate, "tenant", t.ID, map[string]string{"slug": t.Slug, "domain": req.Domain})
	slog.InfoContext(ctx, "tenant created", "tenant_id", t.ID, "slug", t.Slug, "domain", req.Domain)
	return t, nil
}

// Update changes a tenant's name and/or status.
func (s *TenantService) Update(ctx context.Context, actor Actor, id string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	before := t.Status
	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Status != "" {
		t.Status = req.Status
	}
	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}

	s.cache.InvalidateTenant(ctx, id)
	action := audit.ActionUpdate
	if before != t.Status {
		action = audit.ActionStatus
		slog.InfoContext(ctx, "tenant status changed", "tenant_id", id, "from", before, "to", t.Status)
	}
	s.audit.record(ctx, id, actor, action, "tenant", id, req)
	return t, nil
}

// SetStatus is shorthand for an Update that only changes the status.
func (s *TenantService) SetStatus(ctx context.Context, actor Actor, id string, status tenant.Status) (*tenant.Tenant, error) {
	return s.Update(ctx, actor, id, tenant.UpdateRequest{Status: status})
}

// GetBySlugOrID finds a tenant by id, falling back to its slug. Used by the CLI.
func (s *TenantService) GetBySlugOrID(ctx context.Context, ref string) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, ref)
	if err == nil {
		return t, nil
	}
	return s.store.GetTenantBySlug(ctx, ref)
}

// AddDomain binds a new hostname to a tenant.
func (s *TenantService) AddDomain(ctx context.Context, actor Actor, tenantID string, req tenant.AddDomainRequest) (*tenant.Domain, error) {
	host := tenant.NormalizeHost(req.Domain)
	if host == "" {
		return nil, invalid("domain is required")
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	d := &tenant.Domain{
		TenantID:           tenantID,
		Domain:             host,
		IsPrimary:          req.IsPrimary,
		VerificationStatus: tenant.VerificationPending,
	}
	if err := s.store.AddDomain(ctx, d); err != nil {
		return nil, fmt.Errorf("add domain: %w", err)
	}
	s.cache.InvalidateTenant(ctx, tenantID)
	s.audit.record(ctx, tenantID, actor, audit.ActionCreate, "tenant_domain", d.ID, map[string]any{"domain": host, "primary": d.IsPrimary})
	return d, nil
}

// RemoveDomain unbinds a hostname. The last domain of a tenant cannot be removed.
func (s *TenantService) RemoveDomain(ctx context.Context, actor Actor, tenantID, domainID string) error {
	d, err := s.store.RemoveDomain(ctx, tenantID, domainID)
	if err != nil {
		return err
	}
	s.cache.InvalidateHost(ctx, d.Domain)
	s.cache.InvalidateTenant(ctx, tenantID)
	s.audit.record(ctx, tenantID, actor, audit.ActionDelete, "tenant_domain", domainID, map[string]string{"domain": d.Domain})
	return nil
}

// VerifyDomain marks a domain verified so it starts resolving.
func (s *TenantService) VerifyDomain(ctx context.Context, actor Actor, tenantID, domainID string) (*tenant.Domain, error) {
	d, err := s.store.VerifyDomain(ctx, tenantID, domainID)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateHost(ctx, d.Domain)
	s.audit.record(ctx, tenantID, actor, audit.ActionUpdate, "tenant_domain", domainID, map[string]string{"verificationStatus": string(d.VerificationStatus)})
	return d, nil
}

// GetConfig returns a tenant's configuration.
func (s *TenantService) GetConfig(ctx context.Context, tenantID string) (*tenant.Config, error) {
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.store.GetConfig(ctx, tenantID)
}

// UpdateConfig replaces a tenant's configuration and feature flags.
func (s *TenantService) UpdateConfig(ctx context.Context, actor Actor, tenantID string, cfg tenant.Config) (*tenant.Config, error) {
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	if cfg.ShopName == "" {
		return nil, invalid("shopName is required")
	}
	for _, d := range cfg.ClosedDays {
		if d < 0 || d > 6 {
			return nil, invalid("closedDays must be between 0 and 6")
		}
	}
	cfg.TenantID = tenantID
	if err := s.store.UpsertConfig(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("update config: %w", err)
	}
	s.cache.InvalidateTenant(ctx, tenantID)
	s.audit.record(ctx, tenantID, actor, audit.ActionUpdate, "tenant_config", tenantID, cfg.Features)
	return &cfg, nil
}

// ListUsers returns a tenant's users.
func (s *TenantService) ListUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, tenantID)
}

// CreateUser adds an ADMIN or STAFF user to a tenant. The number of admins
// is capped by the tenant's maxAdminUsers feature flag.
func (s *TenantService) CreateUser(ctx context.Context, actor Actor, tenantID string, req user.CreateRequest) (*user.User, error) {
	if req.Role != user.RoleAdmin && req.Role != user.RoleStaff {
		return nil, invalid("role must be ADMIN or STAFF")
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	if req.Role == user.RoleAdmin {
		cfg, err := s.store.GetConfig(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		n, err := s.store.CountUsersByRole(ctx, tenantID, user.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if limit := cfg.Features.MaxAdminUsers; limit > 0 && n >= limit {
			return nil, fmt.Errorf("%w: tenant already has %d of %d admin users", domain.ErrConflict, n, limit)
		}
	}

	req.TenantID = tenantID
	u, err := s.auth.CreateUser(ctx, &req)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionCreate, "user", u.ID, map[string]string{"email": u.Email, "role": string(u.Role)})
	return u, nil
}

// Stats returns platform-wide counters.
func (s *TenantService) Stats(ctx context.Context) (*database.PlatformStats, error) {
	return s.store.PlatformStats(ctx)
}
