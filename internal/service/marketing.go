package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/domain/marketing"
	"github.com/Strob0t/ServicePulse/internal/port/database"
)

// MarketingStore is what banner and discount management needs from storage.
type MarketingStore interface {
	database.BannerRepository
	database.DiscountRepository
	database.AuditRepository
}

// BannerService manages promotional banners.
type BannerService struct {
	store MarketingStore
	audit auditor
	now   func() time.Time
}

// NewBannerService creates a new BannerService.
func NewBannerService(store MarketingStore) *BannerService {
	return &BannerService{store: store, audit: auditor{repo: store}, now: time.Now}
}

// List returns every banner of the tenant, highest priority first.
func (s *BannerService) List(ctx context.Context, tenantID string) ([]marketing.Banner, error) {
	return s.store.ListBanners(ctx, tenantID)
}

// Active returns the banners live right now, optionally for one position.
func (s *BannerService) Active(ctx context.Context, tenantID string, position marketing.BannerPosition) ([]marketing.Banner, error) {
	return s.store.ListLiveBanners(ctx, tenantID, position, s.now())
}

// Get returns one banner.
func (s *BannerService) Get(ctx context.Context, tenantID, id string) (*marketing.Banner, error) {
	return s.store.GetBanner(ctx, tenantID, id)
}

// Create adds a banner with default colors and position.
func (s *BannerService) Create(ctx context.Context, tenantID string, actor Actor, req marketing.BannerRequest) (*marketing.Banner, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := checkWindow(req.StartsAt, req.ExpiresAt); err != nil {
		return nil, err
	}
	b := &marketing.Banner{}
	req.ToBanner(b)
	if err := s.store.CreateBanner(ctx, tenantID, b); err != nil {
		return nil, fmt.Errorf("create banner: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionCreate, "banner", b.ID, map[string]string{"title": b.Title})
	return b, nil
}

// Update replaces a banner of this tenant.
func (s *BannerService) Update(ctx context.Context, tenantID string, actor Actor, id string, req marketing.BannerRequest) (*marketing.Banner, error) {
	b, err := s.store.GetBanner(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := checkWindow(req.StartsAt, req.ExpiresAt); err != nil {
		return nil, err
	}
	req.ToBanner(b)
	if err := s.store.UpdateBanner(ctx, tenantID, b); err != nil {
		return nil, fmt.Errorf("update banner: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionUpdate, "banner", b.ID, nil)
	return b, nil
}

// Delete removes a banner of this tenant.
func (s *BannerService) Delete(ctx context.Context, tenantID string, actor Actor, id string) error {
	if _, err := s.store.GetBanner(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.store.DeleteBanner(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionDelete, "banner", id, nil)
	return nil
}

// DiscountService manages discount codes and checks them against carts.
type DiscountService struct {
	store MarketingStore
	audit auditor
	now   func() time.Time
}

// NewDiscountService creates a new DiscountService.
func NewDiscountService(store MarketingStore) *DiscountService {
	return &DiscountService{store: store, audit: auditor{repo: store}, now: time.Now}
}

// List returns every discount code of the tenant.
func (s *DiscountService) List(ctx context.Context, tenantID string) ([]marketing.Discount, error) {
	return s.store.ListDiscounts(ctx, tenantID)
}

// Get returns one discount code.
func (s *DiscountService) Get(ctx context.Context, tenantID, id string) (*marketing.Discount, error) {
	return s.store.GetDiscount(ctx, tenantID, id)
}

// Create adds a discount code. Codes are unique per tenant, case-insensitive.
func (s *DiscountService) Create(ctx context.Context, tenantID string, actor Actor, req marketing.DiscountRequest) (*marketing.Discount, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := checkWindow(req.StartsAt, req.ExpiresAt); err != nil {
		return nil, err
	}
	d := &marketing.Discount{}
	if err := req.ToDiscount(d); err != nil {
		return nil, invalid("%v", err)
	}
	if err := s.store.CreateDiscount(ctx, tenantID, d); err != nil {
		return nil, fmt.Errorf("create discount: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionCreate, "discount", d.ID, map[string]string{"code": d.Code})
	return d, nil
}

// Update replaces a discount code of this tenant. The usage count is kept.
func (s *DiscountService) Update(ctx context.Context, tenantID string, actor Actor, id string, req marketing.DiscountRequest) (*marketing.Discount, error) {
	d, err := s.store.GetDiscount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := checkWindow(req.StartsAt, req.ExpiresAt); err != nil {
		return nil, err
	}
	if err := req.ToDiscount(d); err != nil {
		return nil, invalid("%v", err)
	}
	if err := s.store.UpdateDiscount(ctx, tenantID, d); err != nil {
		return nil, fmt.Errorf("update discount: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionUpdate, "discount", d.ID, map[string]string{"code": d.Code})
	return d, nil
}

// Delete removes a discount code of this tenant.
func (s *DiscountService) Delete(ctx context.Context, tenantID string, actor Actor, id string) error {
	if _, err := s.store.GetDiscount(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.store.DeleteDiscount(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionDelete, "discount", id, nil)
	return nil
}

// Validate checks a code against a cart subtotal. An unusable code is a
// normal result with Valid=false, not an error.
func (s *DiscountService) Validate(ctx context.Context, tenantID string, req marketing.ValidateRequest) (*marketing.ValidateResult, error) {
	code := marketing.NormalizeCode(req.Code)
	if code == "" {
		return nil, invalid("code is required")
	}
	d, err := s.store.GetDiscountByCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &marketing.ValidateResult{Message: "Kortingscode niet gevonden"}, nil
		}
		return nil, err
	}
	res := d.Evaluate(req.SubtotalCents, s.now())
	return &res, nil
}

func checkWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return invalid("expiresAt must be after startsAt")
	}
	return nil
}
