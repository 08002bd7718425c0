package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/domain/catalog"
	"github.com/Strob0t/ServicePulse/internal/port/database"
)

// CatalogStore is what the catalog services need from storage.
type CatalogStore interface {
	database.CategoryRepository
	database.ProductRepository
	database.AuditRepository
}

// CategoryService manages a tenant's categories.
type CategoryService struct {
	store CatalogStore
	audit auditor
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(store CatalogStore) *CategoryService {
	return &CategoryService{store: store, audit: auditor{repo: store}}
}

// List returns the tenant's categories, optionally only active ones.
func (s *CategoryService) List(ctx context.Context, tenantID string, activeOnly bool) ([]catalog.Category, error) {
	return s.store.ListCategories(ctx, tenantID, activeOnly)
}

// Get finds a category by id or slug within the tenant.
func (s *CategoryService) Get(ctx context.Context, tenantID, idOrSlug string) (*catalog.Category, error) {
	if catalog.IsID(idOrSlug) {
		return s.store.GetCategory(ctx, tenantID, idOrSlug)
	}
	return s.store.GetCategoryBySlug(ctx, tenantID, idOrSlug)
}

// Create adds a category. The slug is derived from the name when absent.
func (s *CategoryService) Create(ctx context.Context, tenantID string, actor Actor, req catalog.CreateCategoryRequest) (*catalog.Category, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	slug, err := catalog.EnsureSlug(req.Slug, req.Name)
	if err != nil {
		return nil, invalid("%v", err)
	}
	c := &catalog.Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.store.CreateCategory(ctx, tenantID, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionCreate, "category", c.ID, map[string]string{"slug": c.Slug})
	return c, nil
}

// Update applies changes to a category of this tenant. Ids of other
// tenants are reported as not found.
func (s *CategoryService) Update(ctx context.Context, tenantID string, actor Actor, id string, req catalog.UpdateCategoryRequest) (*catalog.Category, error) {
	c, err := s.store.GetCategory(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	req.Apply(c)
	if c.Slug == "" {
		return nil, invalid("slug must contain letters or digits")
	}
	if err := s.store.UpdateCategory(ctx, tenantID, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionUpdate, "category", c.ID, req)
	return c, nil
}

// Delete removes a category of this tenant.
func (s *CategoryService) Delete(ctx context.Context, tenantID string, actor Actor, id string) error {
	if _, err := s.store.GetCategory(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionDelete, "category", id, nil)
	return nil
}

// ProductService manages a tenant's products.
type ProductService struct {
	store CatalogStore
	audit auditor
}

// NewProductService creates a new ProductService.
func NewProductService(store CatalogStore) *ProductService {
	return &ProductService{store: store, audit: auditor{repo: store}}
}

// List returns products matching f.
func (s *ProductService) List(ctx context.Context, tenantID string, f catalog.ProductFilter) ([]catalog.Product, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.ListProducts(ctx, tenantID, f)
}

// Get finds a product by id or slug within the tenant.
func (s *ProductService) Get(ctx context.Context, tenantID, idOrSlug string) (*catalog.Product, error) {
	if catalog.IsID(idOrSlug) {
		return s.store.GetProduct(ctx, tenantID, idOrSlug)
	}
	return s.store.GetProductBySlug(ctx, tenantID, idOrSlug)
}

// Create adds a product. A category, when given, must belong to the same tenant.
func (s *ProductService) Create(ctx context.Context, tenantID string, actor Actor, req catalog.CreateProductRequest) (*catalog.Product, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	slug, err := catalog.EnsureSlug(req.Slug, req.Name)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if err := s.checkCategory(ctx, tenantID, req.CategoryID); err != nil {
		return nil, err
	}
	p := &catalog.Product{
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Slug:         slug,
		Description:  req.Description,
		SKU:          req.SKU,
		PriceCents:   req.PriceCents,
		CompareCents: req.CompareCents,
		Stock:        req.Stock,
		Images:       req.Images,
		IsActive:     req.IsActive == nil || *req.IsActive,
		IsFeatured:   req.IsFeatured,
	}
	if err := checkProduct(p); err != nil {
		return nil, err
	}
	if err := s.store.CreateProduct(ctx, tenantID, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionCreate, "product", p.ID, map[string]string{"slug": p.Slug})
	return p, nil
}

// Update applies changes to a product of this tenant.
func (s *ProductService) Update(ctx context.Context, tenantID string, actor Actor, id string, req catalog.UpdateProductRequest) (*catalog.Product, error) {
	p, err := s.store.GetProduct(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	req.Apply(p)
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, tenantID, p.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := checkProduct(p); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProduct(ctx, tenantID, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionUpdate, "product", p.ID, req)
	return p, nil
}

// Delete removes a product of this tenant.
func (s *ProductService) Delete(ctx context.Context, tenantID string, actor Actor, id string) error {
	if _, err := s.store.GetProduct(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionDelete, "product", id, nil)
	return nil
}

func (s *ProductService) checkCategory(ctx context.Context, tenantID, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	if _, err := s.store.GetCategory(ctx, tenantID, categoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: category %s does not exist", domain.ErrBadReference, categoryID)
		}
		return err
	}
	return nil
}

func checkProduct(p *catalog.Product) error {
	switch {
	case p.Slug == "":
		return invalid("slug must contain letters or digits")
	case p.PriceCents < 0:
		return invalid("price must not be negative")
	case p.Stock < 0:
		return invalid("stock must not be negative")
	}
	return nil
}
