package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/ServicePulse/internal/adapter/otel"
	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/port/database"
)

// SeedStore is what the bootstrap command needs from storage.
type SeedStore interface {
	database.TenantRepository
	database.SeedRepository
}

// SeedOptions controls one bootstrap run.
type SeedOptions struct {
	TenantID string
	Name     string
	Slug     string
	Domain   string
	// ExtraDomains are bound to the default tenant as verified, e.g. localhost.
	ExtraDomains []string

	OwnerEmail    string
	OwnerPassword string
	OwnerName     string

	// SkipBackfill leaves rows without a tenant untouched.
	SkipBackfill bool
}

// SeedOptionsFrom builds options from configuration.
func SeedOptionsFrom(t config.Tenancy, a config.Auth) SeedOptions {
	return SeedOptions{
		TenantID:      t.DefaultTenantID,
		Name:          t.DefaultName,
		Slug:          t.DefaultSlug,
		Domain:        t.DefaultDomain,
		ExtraDomains:  []string{"localhost"},
		OwnerEmail:    a.OwnerEmail,
		OwnerPassword: a.OwnerPassword,
		OwnerName:     a.OwnerName,
	}
}

// SeedReport summarizes what a bootstrap run changed.
type SeedReport struct {
	TenantCreated bool
	DomainsAdded  []string
	OwnerCreated  bool
	Backfilled    []database.BackfillCount
}

// Total returns the number of rows assigned to the default tenant.
func (r *SeedReport) Total() int64 {
	var n int64
	for _, c := range r.Backfilled {
		n += c.Rows
	}
	return n
}

// SeedService bootstraps the platform: the default tenant, its domains,
// the platform owner and the tenant backfill of legacy rows. Every step
// is idempotent, so running it twice changes nothing the second time.
type SeedService struct {
	store SeedStore
	auth  *AuthService
	cache Invalidator
}

// NewSeedService creates a SeedService. cache may be nil when no resolver runs in-process.
func NewSeedService(store SeedStore, auth *AuthService, cache Invalidator) *SeedService {
	return &SeedService{store: store, auth: auth, cache: cache}
}

// Run executes the bootstrap.
func (s *SeedService) Run(ctx context.Context, opts SeedOptions) (*SeedReport, error) {
	if opts.TenantID == "" || opts.Domain == "" {
		return nil, invalid("default tenant id and domain are required")
	}
	rep := &SeedReport{}

	created, err := s.ensureTenant(ctx, opts)
	if err != nil {
		return nil, err
	}
	rep.TenantCreated = created
	if created {
		rep.DomainsAdded = append(rep.DomainsAdded, tenant.NormalizeHost(opts.Domain))
	}

	for _, host := range opts.ExtraDomains {
		added, err := s.ensureDomain(ctx, opts.TenantID, host)
		if err != nil {
			return nil, err
		}
		if added {
			rep.DomainsAdded = append(rep.DomainsAdded, tenant.NormalizeHost(host))
		}
	}

	if opts.OwnerEmail != "" {
		if opts.OwnerPassword == "" {
			return nil, invalid("owner password is required to seed %s", opts.OwnerEmail)
		}
		_, ownerCreated, err := s.auth.EnsureOwner(ctx, opts.OwnerEmail, opts.OwnerPassword, opts.OwnerName)
		if err != nil {
			return nil, fmt.Errorf("ensure owner: %w", err)
		}
		rep.OwnerCreated = ownerCreated
	}

	if !opts.SkipBackfill {
		counts, err := s.Backfill(ctx, opts.TenantID)
		if err != nil {
			return nil, err
		}
		rep.Backfilled = counts
	}

	if s.cache != nil && (rep.TenantCreated || len(rep.DomainsAdded) > 0) {
		s.cache.InvalidateTenant(ctx, opts.TenantID)
	}
	slog.InfoContext(ctx, "seed complete",
		"tenant_id", opts.TenantID,
		"tenant_created", rep.TenantCreated,
		"domains_added", len(rep.DomainsAdded),
		"owner_created", rep.OwnerCreated,
		"backfilled_rows", rep.Total(),
	)
	return rep, nil
}

// Backfill assigns rows without a tenant to tenantID.
func (s *SeedService) Backfill(ctx context.Context, tenantID string) ([]database.BackfillCount, error) {
	ctx, span := otel.StartBackfillSpan(ctx, tenantID)
	defer span.End()

	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("backfill target: %w", err)
	}
	counts, err := s.store.BackfillTenant(ctx, tenantID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("backfill: %w", err)
	}
	for _, c := range counts {
		if c.Rows > 0 {
			slog.InfoContext(ctx, "backfilled table", "table", c.Table, "rows", c.Rows)
		}
	}
	return counts, nil
}

func (s *SeedService) ensureTenant(ctx context.Context, opts SeedOptions) (bool, error) {
	_, err := s.store.GetTenant(ctx, opts.TenantID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("lookup default tenant: %w", err)
	}

	t := &tenant.Tenant{ID: opts.TenantID, Name: opts.Name, Slug: opts.Slug, Status: tenant.StatusActive}
	host := tenant.NormalizeHost(opts.Domain)
	if err := s.store.CreateTenant(ctx, t, host, true, tenant.DefaultConfig(opts.Name)); err != nil {
		return false, fmt.Errorf("create default tenant: %w", err)
	}
	slog.InfoContext(ctx, "default tenant created", "tenant_id", t.ID, "domain", host)
	return true, nil
}

func (s *SeedService) ensureDomain(ctx context.Context, tenantID, raw string) (bool, error) {
	host := tenant.NormalizeHost(raw)
	if host == "" {
		return false, nil
	}
	d, err := s.store.GetDomain(ctx, host)
	switch {
	case err == nil && d.TenantID != tenantID:
		return false, fmt.Errorf("%w: domain %s belongs to another tenant", domain.ErrConflict, host)
	case err == nil:
		return false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, fmt.Errorf("lookup domain %s: %w", host, err)
	}

	now := time.Now().UTC()
	d = &tenant.Domain{
		TenantID:           tenantID,
		Domain:             host,
		VerificationStatus: tenant.VerificationVerified,
		VerifiedAt:         &now,
	}
	if err := s.store.AddDomain(ctx, d); err != nil {
		return false, fmt.Errorf("add domain %s: %w", host, err)
	}
	return true, nil
}
