// Package marketing defines promotional banners and discount codes.
package marketing

import (
	"fmt"
	"strings"
	"time"
)

// BannerPosition is where a banner renders on the storefront.
type BannerPosition string

const (
	PositionTop     BannerPosition = "TOP"
	PositionHero    BannerPosition = "HERO"
	PositionPopup   BannerPosition = "POPUP"
	PositionFooter  BannerPosition = "FOOTER"
	PositionProduct BannerPosition = "PRODUCT"
)

// Banner is a time-windowed storefront announcement.
type Banner struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenantId"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	LinkURL   string         `json:"linkUrl,omitempty"`
	LinkText  string         `json:"linkText,omitempty"`
	BgColor   string         `json:"bgColor"`
	TextColor string         `json:"textColor"`
	Position  BannerPosition `json:"position"`
	Priority  int            `json:"priority"`
	StartsAt  *time.Time     `json:"startsAt,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
	IsActive  bool           `json:"isActive"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// LiveAt reports whether the banner should be shown at t.
func (b *Banner) LiveAt(t time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.StartsAt != nil && t.Before(*b.StartsAt) {
		return false
	}
	if b.ExpiresAt != nil && !t.Before(*b.ExpiresAt) {
		return false
	}
	return true
}

// BannerRequest is the create/update payload for banners.
type BannerRequest struct {
	Title     string         `json:"title" validate:"required,max=200"`
	Message   string         `json:"message" validate:"required,max=1000"`
	LinkURL   string         `json:"linkUrl,omitempty"`
	LinkText  string         `json:"linkText,omitempty" validate:"max=100"`
	BgColor   string         `json:"bgColor,omitempty" validate:"omitempty,hexcolor"`
	TextColor string         `json:"textColor,omitempty" validate:"omitempty,hexcolor"`
	Position  BannerPosition `json:"position,omitempty" validate:"omitempty,oneof=TOP HERO POPUP FOOTER PRODUCT"`
	Priority  int            `json:"priority"`
	StartsAt  *time.Time     `json:"startsAt,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
	IsActive  *bool          `json:"isActive,omitempty"`
}

// ToBanner fills defaults and copies the request into b.
func (r *BannerRequest) ToBanner(b *Banner) {
	b.Title = r.Title
	b.Message = r.Message
	b.LinkURL = r.LinkURL
	b.LinkText = r.LinkText
	b.BgColor = orDefault(r.BgColor, "#7c3aed")
	b.TextColor = orDefault(r.TextColor, "#ffffff")
	b.Position = BannerPosition(orDefault(string(r.Position), string(PositionTop)))
	b.Priority = r.Priority
	b.StartsAt = r.StartsAt
	b.ExpiresAt = r.ExpiresAt
	b.IsActive = r.IsActive == nil || *r.IsActive
}

// DiscountType selects how Value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED_AMOUNT"
)

// Discount is a redeemable code. Amounts are in cents; percentage values are whole percents.
type Discount struct {
	ID            string       `json:"id"`
	TenantID      string       `json:"tenantId"`
	Code          string       `json:"code"`
	Description   string       `json:"description,omitempty"`
	Type          DiscountType `json:"type"`
	Value         int64        `json:"value"`
	MinOrderCents int64        `json:"minOrderCents,omitempty"`
	MaxDiscount   int64        `json:"maxDiscountCents,omitempty"`
	UsageLimit    int          `json:"usageLimit,omitempty"`
	UsageCount    int          `json:"usageCount"`
	StartsAt      *time.Time   `json:"startsAt,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
	IsActive      bool         `json:"isActive"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// DiscountRequest is the create/update payload for discount codes.
type DiscountRequest struct {
	Code          string       `json:"code" validate:"required,min=3,max=50"`
	Description   string       `json:"description,omitempty"`
	Type          DiscountType `json:"type" validate:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	Value         int64        `json:"value" validate:"gt=0"`
	MinOrderCents int64        `json:"minOrderCents,omitempty" validate:"gte=0"`
	MaxDiscount   int64        `json:"maxDiscountCents,omitempty" validate:"gte=0"`
	UsageLimit    int          `json:"usageLimit,omitempty" validate:"gte=0"`
	StartsAt      *time.Time   `json:"startsAt,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
	IsActive      *bool        `json:"isActive,omitempty"`
}

// ToDiscount copies the request into d with the code normalized.
func (r *DiscountRequest) ToDiscount(d *Discount) error {
	if r.Type == DiscountPercentage && r.Value > 100 {
		return fmt.Errorf("percentage discount cannot exceed 100")
	}
	d.Code = NormalizeCode(r.Code)
	d.Description = r.Description
	d.Type = r.Type
	d.Value = r.Value
	d.MinOrderCents = r.MinOrderCents
	d.MaxDiscount = r.MaxDiscount
	d.UsageLimit = r.UsageLimit
	d.StartsAt = r.StartsAt
	d.ExpiresAt = r.ExpiresAt
	d.IsActive = r.IsActive == nil || *r.IsActive
	return nil
}

// ValidateRequest asks whether a code applies to a cart.
type ValidateRequest struct {
	Code          string `json:"code" validate:"required"`
	SubtotalCents int64  `json:"subtotalCents" validate:"gte=0"`
}

// ValidateResult is the outcome of checking a code against a cart.
type ValidateResult struct {
	Valid         bool         `json:"valid"`
	DiscountID    string       `json:"discountId,omitempty"`
	Code          string       `json:"code,omitempty"`
	Type          DiscountType `json:"type,omitempty"`
	DiscountCents int64        `json:"discountCents"`
	Message       string       `json:"message"`
}

// NormalizeCode uppercases and trims a discount code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate checks d against a cart subtotal at time now.
func (d *Discount) Evaluate(subtotal int64, now time.Time) ValidateResult {
	switch {
	case !d.IsActive:
		return ValidateResult{Message: "Deze kortingscode is niet actief"}
	case d.StartsAt != nil && now.Before(*d.StartsAt):
		return ValidateResult{Message: "Deze kortingscode is nog niet geldig"}
	case d.ExpiresAt != nil && now.After(*d.ExpiresAt):
		return ValidateResult{Message: "Deze kortingscode is verlopen"}
	case d.UsageLimit > 0 && d.UsageCount >= d.UsageLimit:
		return ValidateResult{Message: "Deze kortingscode is niet meer beschikbaar"}
	case d.MinOrderCents > 0 && subtotal < d.MinOrderCents:
		return ValidateResult{Message: fmt.Sprintf("Minimale bestelling van €%s vereist", euros(d.MinOrderCents))}
	}

	var amount int64
	var msg string
	if d.Type == DiscountPercentage {
		amount = (subtotal*d.Value + 50) / 100
		if d.MaxDiscount > 0 && amount > d.MaxDiscount {
			amount = d.MaxDiscount
		}
		msg = fmt.Sprintf("%d%% korting toegepast!", d.Value)
	} else {
		amount = min(d.Value, subtotal)
		msg = fmt.Sprintf("€%s korting toegepast!", euros(d.Value))
	}
	return ValidateResult{
		Valid:         true,
		DiscountID:    d.ID,
		Code:          d.Code,
		Type:          d.Type,
		DiscountCents: amount,
		Message:       msg,
	}
}

func euros(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
