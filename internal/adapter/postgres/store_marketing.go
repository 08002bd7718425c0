package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain/marketing"
)

// --- Banners ---

const bannerColumns = `id, tenant_id, title, message, link_url, link_text, bg_color, text_color, position,
	priority, starts_at, expires_at, is_active, created_at, updated_at`

func scanBanner(row scannable) (marketing.Banner, error) {
	var b marketing.Banner
	err := row.Scan(&b.ID, &b.TenantID, &b.Title, &b.Message, &b.LinkURL, &b.LinkText, &b.BgColor, &b.TextColor, &b.Position,
		&b.Priority, &b.StartsAt, &b.ExpiresAt, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (s *Store) ListBanners(ctx context.Context, tenantID string) ([]marketing.Banner, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+bannerColumns+` FROM promotional_banners WHERE tenant_id = $1
		 ORDER BY priority DESC, created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	return collect(rows, scanBanner)
}

func (s *Store) ListLiveBanners(ctx context.Context, tenantID string, position marketing.BannerPosition, now time.Time) ([]marketing.Banner, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+bannerColumns+` FROM promotional_banners
		 WHERE tenant_id = $1 AND is_active
		   AND ($2 = '' OR position = $2)
		   AND (starts_at IS NULL OR starts_at <= $3)
		   AND (expires_at IS NULL OR expires_at > $3)
		 ORDER BY priority DESC, created_at DESC`, tenantID, string(position), now)
	if err != nil {
		return nil, fmt.Errorf("list live banners: %w", err)
	}
	return collect(rows, scanBanner)
}

func (s *Store) GetBanner(ctx context.Context, tenantID, id string) (*marketing.Banner, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	b, err := scanBanner(s.pool.QueryRow(ctx,
		`SELECT `+bannerColumns+` FROM promotional_banners WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get banner %s", id)
	}
	return &b, nil
}

func (s *Store) CreateBanner(ctx context.Context, tenantID string, b *marketing.Banner) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	b.ID = newID()
	b.TenantID = tenantID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO promotional_banners (id, tenant_id, title, message, link_url, link_text, bg_color, text_color,
		                                  position, priority, starts_at, expires_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING created_at, updated_at`,
		b.ID, tenantID, b.Title, b.Message, b.LinkURL, b.LinkText, b.BgColor, b.TextColor,
		b.Position, b.Priority, nullTime(b.StartsAt), nullTime(b.ExpiresAt), b.IsActive,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return writeErr(err, "create banner")
	}
	return nil
}

func (s *Store) UpdateBanner(ctx context.Context, tenantID string, b *marketing.Banner) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE promotional_banners SET title = $3, message = $4, link_url = $5, link_text = $6, bg_color = $7,
		        text_color = $8, position = $9, priority = $10, starts_at = $11, expires_at = $12,
		        is_active = $13, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2 RETURNING updated_at`,
		b.ID, tenantID, b.Title, b.Message, b.LinkURL, b.LinkText, b.BgColor,
		b.TextColor, b.Position, b.Priority, nullTime(b.StartsAt), nullTime(b.ExpiresAt), b.IsActive,
	).Scan(&b.UpdatedAt)
	if err != nil {
		return notFoundWrap(err, "update banner %s", b.ID)
	}
	return nil
}

func (s *Store) DeleteBanner(ctx context.Context, tenantID, id string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM promotional_banners WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete banner %s", id)
}

// --- Discount codes ---

const discountColumns = `id, tenant_id, code, description, type, value, min_order_cents, max_discount,
	usage_limit, usage_count, starts_at, expires_at, is_active, created_at, updated_at`

func scanDiscount(row scannable) (marketing.Discount, error) {
	var d marketing.Discount
	err := row.Scan(&d.ID, &d.TenantID, &d.Code, &d.Description, &d.Type, &d.Value, &d.MinOrderCents, &d.MaxDiscount,
		&d.UsageLimit, &d.UsageCount, &d.StartsAt, &d.ExpiresAt, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *Store) ListDiscounts(ctx context.Context, tenantID string) ([]marketing.Discount, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+discountColumns+` FROM discount_codes WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	return collect(rows, scanDiscount)
}

func (s *Store) GetDiscount(ctx context.Context, tenantID, id string) (*marketing.Discount, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	d, err := scanDiscount(s.pool.QueryRow(ctx,
		`SELECT `+discountColumns+` FROM discount_codes WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get discount %s", id)
	}
	return &d, nil
}

func (s *Store) GetDiscountByCode(ctx context.Context, tenantID, code string) (*marketing.Discount, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	d, err := scanDiscount(s.pool.QueryRow(ctx,
		`SELECT `+discountColumns+` FROM discount_codes WHERE code = $1 AND tenant_id = $2`,
		marketing.NormalizeCode(code), tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get discount by code")
	}
	return &d, nil
}

func (s *Store) CreateDiscount(ctx context.Context, tenantID string, d *marketing.Discount) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	d.ID = newID()
	d.TenantID = tenantID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO discount_codes (id, tenant_id, code, description, type, value, min_order_cents, max_discount,
		                             usage_limit, starts_at, expires_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING created_at, updated_at`,
		d.ID, tenantID, d.Code, d.Description, d.Type, d.Value, d.MinOrderCents, d.MaxDiscount,
		d.UsageLimit, nullTime(d.StartsAt), nullTime(d.ExpiresAt), d.IsActive,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return writeErr(err, "create discount %s", d.Code)
	}
	return nil
}

func (s *Store) UpdateDiscount(ctx context.Context, tenantID string, d *marketing.Discount) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE discount_codes SET code = $3, description = $4, type = $5, value = $6, min_order_cents = $7,
		        max_discount = $8, usage_limit = $9, starts_at = $10, expires_at = $11, is_active = $12,
		        updated_at = now()
		 WHERE id = $1 AND tenant_id = $2 RETURNING updated_at`,
		d.ID, tenantID, d.Code, d.Description, d.Type, d.Value, d.MinOrderCents,
		d.MaxDiscount, d.UsageLimit, nullTime(d.StartsAt), nullTime(d.ExpiresAt), d.IsActive,
	).Scan(&d.UpdatedAt)
	if err != nil {
		return notFoundWrap(err, "update discount %s", d.ID)
	}
	return nil
}

func (s *Store) DeleteDiscount(ctx context.Context, tenantID, id string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM discount_codes WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete discount %s", id)
}
