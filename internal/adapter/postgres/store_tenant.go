package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
)

const tenantColumns = `id, name, slug, status, created_at, updated_at`

const domainColumns = `id, tenant_id, domain, is_primary, verification_status, verified_at, created_at`

const configColumns = `tenant_id, shop_name, logo_url, primary_color, email, phone, whatsapp_number,
	locale, currency, currency_symbol, timezone, closed_days, time_slots, company_name, vat_number,
	invoice_prefix, google_analytics_id, cookiebot_id, seo_title, seo_description, features, updated_at`

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanDomain(row scannable) (tenant.Domain, error) {
	var d tenant.Domain
	err := row.Scan(&d.ID, &d.TenantID, &d.Domain, &d.IsPrimary, &d.VerificationStatus, &d.VerifiedAt, &d.CreatedAt)
	return d, err
}

func scanConfig(row scannable) (*tenant.Config, error) {
	var c tenant.Config
	var closed []int32
	var features []byte
	err := row.Scan(&c.TenantID, &c.ShopName, &c.LogoURL, &c.PrimaryColor, &c.Email, &c.Phone, &c.WhatsAppNumber,
		&c.Locale, &c.Currency, &c.CurrencySymbol, &c.Timezone, &closed, &c.TimeSlots, &c.CompanyName, &c.VATNumber,
		&c.InvoicePrefix, &c.GoogleAnalyticsID, &c.CookiebotID, &c.SEOTitle, &c.SEODescription, &features, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ClosedDays = make([]int, len(closed))
	for i, d := range closed {
		c.ClosedDays[i] = int(d)
	}
	c.Features = tenant.DefaultFeatures()
	if len(features) > 0 {
		if err := json.Unmarshal(features, &c.Features); err != nil {
			return nil, fmt.Errorf("decode features: %w", err)
		}
	}
	return &c, nil
}

// --- Resolution ---

// ResolveHost looks up the tenant owning an already-normalized, verified host.
// Pending domains do not resolve.
func (s *Store) ResolveHost(ctx context.Context, host string) (*tenant.Context, error) {
	var tc tenant.Context
	err := s.pool.QueryRow(ctx,
		`SELECT t.id, t.slug, t.name, t.status, d.domain
		 FROM tenant_domains d JOIN tenants t ON t.id = d.tenant_id
		 WHERE d.domain = $1 AND d.verification_status = 'VERIFIED'`, host,
	).Scan(&tc.TenantID, &tc.Slug, &tc.Name, &tc.Status, &tc.Domain)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("resolve host %q: %w", host, domain.ErrTenantNotFound)
		}
		return nil, fmt.Errorf("resolve host %q: %w", host, err)
	}

	cfg, err := s.GetConfig(ctx, tc.TenantID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		tc.Config = tenant.DefaultConfig(tc.Name)
		tc.Config.TenantID = tc.TenantID
	case err != nil:
		return nil, err
	default:
		tc.Config = *cfg
	}
	tc.Features = tc.Config.Features
	return &tc, nil
}

// --- Tenant CRUD ---

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, t.name, t.slug, t.status, t.created_at, t.updated_at,
		        coalesce((SELECT d.domain FROM tenant_domains d WHERE d.tenant_id = t.id
		                  ORDER BY d.is_primary DESC, d.created_at LIMIT 1), ''),
		        (SELECT count(*) FROM users u WHERE u.tenant_id = t.id),
		        (SELECT count(*) FROM products p WHERE p.tenant_id = t.id),
		        (SELECT count(*) FROM orders o WHERE o.tenant_id = t.id)
		 FROM tenants t ORDER BY t.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return collect(rows, func(r scannable) (tenant.Summary, error) {
		var sum tenant.Summary
		err := r.Scan(&sum.ID, &sum.Name, &sum.Slug, &sum.Status, &sum.CreatedAt, &sum.UpdatedAt,
			&sum.PrimaryDomain, &sum.UserCount, &sum.ProductCount, &sum.OrderCount)
		if err != nil {
			return sum, fmt.Errorf("scan tenant summary: %w", err)
		}
		return sum, nil
	})
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	if t.Domains, err = s.ListDomains(ctx, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant by slug %s", slug)
	}
	return &t, nil
}

// CreateTenant inserts the tenant, its primary domain and its config in one transaction.
// t.ID may be preset for deterministic seeds.
func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant, primary string, verified bool, cfg tenant.Config) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = tenant.StatusActive
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO tenants (id, name, slug, status) VALUES ($1, $2, $3, $4)
			 RETURNING created_at, updated_at`,
			t.ID, t.Name, t.Slug, t.Status,
		).Scan(&t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return writeErr(err, "create tenant %s", t.Slug)
		}

		d := tenant.Domain{ID: newID(), TenantID: t.ID, Domain: primary, IsPrimary: true, VerificationStatus: tenant.VerificationPending}
		if verified {
			now := time.Now().UTC()
			d.VerificationStatus = tenant.VerificationVerified
			d.VerifiedAt = &now
		}
		if err := insertDomain(ctx, tx, &d); err != nil {
			return err
		}
		t.Domains = []tenant.Domain{d}

		cfg.TenantID = t.ID
		return upsertConfig(ctx, tx, &cfg)
	})
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE tenants SET name = $2, status = $3, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		t.ID, t.Name, t.Status,
	).Scan(&t.UpdatedAt)
	if err != nil {
		return notFoundWrap(err, "update tenant %s", t.ID)
	}
	return nil
}

// --- Domains ---

func (s *Store) GetDomain(ctx context.Context, host string) (*tenant.Domain, error) {
	d, err := scanDomain(s.pool.QueryRow(ctx,
		`SELECT `+domainColumns+` FROM tenant_domains WHERE domain = $1`, host))
	if err != nil {
		return nil, notFoundWrap(err, "get domain %s", host)
	}
	return &d, nil
}

func (s *Store) ListDomains(ctx context.Context, tenantID string) ([]tenant.Domain, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+domainColumns+` FROM tenant_domains WHERE tenant_id = $1
		 ORDER BY is_primary DESC, created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return collect(rows, scanDomain)
}

// AddDomain inserts d. A primary domain demotes the tenant's current primary.
func (s *Store) AddDomain(ctx context.Context, d *tenant.Domain) error {
	if d.ID == "" {
		d.ID = newID()
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if d.IsPrimary {
			if _, err := tx.Exec(ctx,
				`UPDATE tenant_domains SET is_primary = false WHERE tenant_id = $1 AND is_primary`, d.TenantID); err != nil {
				return fmt.Errorf("demote primary domain: %w", err)
			}
		}
		return insertDomain(ctx, tx, d)
	})
}

// RemoveDomain deletes one domain of a tenant. The last domain cannot be
// removed; removing the primary promotes the oldest remaining domain.
func (s *Store) RemoveDomain(ctx context.Context, tenantID, domainID string) (*tenant.Domain, error) {
	var removed tenant.Domain
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var n int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM tenant_domains WHERE tenant_id = $1`, tenantID).Scan(&n); err != nil {
			return fmt.Errorf("count domains: %w", err)
		}

		d, err := scanDomain(tx.QueryRow(ctx,
			`DELETE FROM tenant_domains WHERE id = $1 AND tenant_id = $2 RETURNING `+domainColumns,
			domainID, tenantID))
		if err != nil {
			return notFoundWrap(err, "remove domain %s", domainID)
		}
		if n <= 1 {
			return fmt.Errorf("remove domain %s: cannot remove the last domain: %w", d.Domain, domain.ErrConflict)
		}
		removed = d

		if d.IsPrimary {
			_, err = tx.Exec(ctx,
				`UPDATE tenant_domains SET is_primary = true
				 WHERE id = (SELECT id FROM tenant_domains WHERE tenant_id = $1 ORDER BY created_at LIMIT 1)`,
				tenantID)
			if err != nil {
				return fmt.Errorf("promote primary domain: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

func (s *Store) VerifyDomain(ctx context.Context, tenantID, domainID string) (*tenant.Domain, error) {
	d, err := scanDomain(s.pool.QueryRow(ctx,
		`UPDATE tenant_domains SET verification_status = 'VERIFIED', verified_at = coalesce(verified_at, now())
		 WHERE id = $1 AND tenant_id = $2 RETURNING `+domainColumns,
		domainID, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "verify domain %s", domainID)
	}
	return &d, nil
}

func insertDomain(ctx context.Context, tx pgx.Tx, d *tenant.Domain) error {
	if d.VerificationStatus == "" {
		d.VerificationStatus = tenant.VerificationPending
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO tenant_domains (id, tenant_id, domain, is_primary, verification_status, verified_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		d.ID, d.TenantID, d.Domain, d.IsPrimary, d.VerificationStatus, nullTime(d.VerifiedAt),
	).Scan(&d.CreatedAt)
	if err != nil {
		return writeErr(err, "insert domain %s", d.Domain)
	}
	return nil
}

// --- Config ---

func (s *Store) GetConfig(ctx context.Context, tenantID string) (*tenant.Config, error) {
	cfg, err := scanConfig(s.pool.QueryRow(ctx,
		`SELECT `+configColumns+` FROM tenant_configs WHERE tenant_id = $1`, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant config %s", tenantID)
	}
	return cfg, nil
}

func (s *Store) UpsertConfig(ctx context.Context, cfg *tenant.Config) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return upsertConfig(ctx, tx, cfg)
	})
}

func upsertConfig(ctx context.Context, tx pgx.Tx, c *tenant.Config) error {
	features, err := json.Marshal(c.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	closed := make([]int32, len(c.ClosedDays))
	for i, d := range c.ClosedDays {
		closed[i] = int32(d) //nolint:gosec // weekday 0-6
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO tenant_configs (`+configColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, now())
		 ON CONFLICT (tenant_id) DO UPDATE SET
		   shop_name = EXCLUDED.shop_name, logo_url = EXCLUDED.logo_url, primary_color = EXCLUDED.primary_color,
		   email = EXCLUDED.email, phone = EXCLUDED.phone, whatsapp_number = EXCLUDED.whatsapp_number,
		   locale = EXCLUDED.locale, currency = EXCLUDED.currency, currency_symbol = EXCLUDED.currency_symbol,
		   timezone = EXCLUDED.timezone, closed_days = EXCLUDED.closed_days, time_slots = EXCLUDED.time_slots,
		   company_name = EXCLUDED.company_name, vat_number = EXCLUDED.vat_number,
		   invoice_prefix = EXCLUDED.invoice_prefix, google_analytics_id = EXCLUDED.google_analytics_id,
		   cookiebot_id = EXCLUDED.cookiebot_id, seo_title = EXCLUDED.seo_title,
		   seo_description = EXCLUDED.seo_description, features = EXCLUDED.features, updated_at = now()
		 RETURNING updated_at`,
		c.TenantID, c.ShopName, c.LogoURL, c.PrimaryColor, c.Email, c.Phone, c.WhatsAppNumber,
		c.Locale, c.Currency, c.CurrencySymbol, c.Timezone, closed, pgTextArray(c.TimeSlots), c.CompanyName, c.VATNumber,
		c.InvoicePrefix, c.GoogleAnalyticsID, c.CookiebotID, c.SEOTitle, c.SEODescription, features,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert tenant config %s", c.TenantID)
	}
	return nil
}
