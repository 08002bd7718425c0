// Package catalog defines shop categories and products.
package catalog

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Category groups products in a shop.
type Category struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	SortOrder   int       `json:"sortOrder"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateCategoryRequest is the input for a new category.
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,max=200"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

// UpdateCategoryRequest holds optional category changes.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Apply merges the request into c.
func (r *UpdateCategoryRequest) Apply(c *Category) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Slug != nil {
		c.Slug = Slugify(*r.Slug)
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.ImageURL != nil {
		c.ImageURL = *r.ImageURL
	}
	if r.SortOrder != nil {
		c.SortOrder = *r.SortOrder
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
}

// Product is a sellable item. Prices are in cents.
type Product struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	CategoryID   string    `json:"categoryId,omitempty"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	SKU          string    `json:"sku,omitempty"`
	PriceCents   int64     `json:"priceCents"`
	CompareCents int64     `json:"compareAtCents,omitempty"`
	Stock        int       `json:"stock"`
	Images       []string  `json:"images"`
	IsActive     bool      `json:"isActive"`
	IsFeatured   bool      `json:"isFeatured"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateProductRequest is the input for a new product.
type CreateProductRequest struct {
	CategoryID   string   `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	Name         string   `json:"name" validate:"required,max=200"`
	Slug         string   `json:"slug,omitempty" validate:"omitempty,max=200"`
	Description  string   `json:"description,omitempty"`
	SKU          string   `json:"sku,omitempty" validate:"omitempty,max=64"`
	PriceCents   int64    `json:"priceCents" validate:"gte=0"`
	CompareCents int64    `json:"compareAtCents,omitempty" validate:"gte=0"`
	Stock        int      `json:"stock" validate:"gte=0"`
	Images       []string `json:"images,omitempty" validate:"max=20,dive,url"`
	IsActive     *bool    `json:"isActive,omitempty"`
	IsFeatured   bool     `json:"isFeatured"`
}

// UpdateProductRequest holds optional product changes.
type UpdateProductRequest struct {
	CategoryID   *string  `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	Name         *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug         *string  `json:"slug,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string  `json:"description,omitempty"`
	SKU          *string  `json:"sku,omitempty" validate:"omitempty,max=64"`
	PriceCents   *int64   `json:"priceCents,omitempty" validate:"omitempty,gte=0"`
	CompareCents *int64   `json:"compareAtCents,omitempty" validate:"omitempty,gte=0"`
	Stock        *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Images       []string `json:"images,omitempty" validate:"omitempty,max=20,dive,url"`
	IsActive     *bool    `json:"isActive,omitempty"`
	IsFeatured   *bool    `json:"isFeatured,omitempty"`
}

// Apply merges the request into p.
func (r *UpdateProductRequest) Apply(p *Product) {
	if r.CategoryID != nil {
		p.CategoryID = *r.CategoryID
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Slug != nil {
		p.Slug = Slugify(*r.Slug)
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.SKU != nil {
		p.SKU = *r.SKU
	}
	if r.PriceCents != nil {
		p.PriceCents = *r.PriceCents
	}
	if r.CompareCents != nil {
		p.CompareCents = *r.CompareCents
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.Images != nil {
		p.Images = r.Images
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	if r.IsFeatured != nil {
		p.IsFeatured = *r.IsFeatured
	}
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID string
	ActiveOnly bool
	Featured   bool
	Search     string
	Limit      int
	Offset     int
}

var (
	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)
	uuidRe  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Slugify turns a display name into a URL slug.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// IsID reports whether an id-or-slug path value is a UUID.
func IsID(s string) bool {
	return uuidRe.MatchString(s)
}

// EnsureSlug fills slug from name when empty and rejects names with no usable characters.
func EnsureSlug(slug, name string) (string, error) {
	if slug == "" {
		slug = name
	}
	slug = Slugify(slug)
	if slug == "" {
		return "", errors.New("slug must contain letters or digits")
	}
	return slug, nil
}
