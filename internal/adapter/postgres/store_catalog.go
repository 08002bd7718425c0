package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Strob0t/ServicePulse/internal/domain/catalog"
)

// --- Categories ---

const categoryColumns = `id, tenant_id, name, slug, description, image_url, sort_order, is_active, created_at, updated_at`

func scanCategory(row scannable) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, tenantID string, activeOnly bool) ([]catalog.Category, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE tenant_id = $1 AND (NOT $2 OR is_active)
		 ORDER BY sort_order, name`, tenantID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return collect(rows, scanCategory)
}

func (s *Store) GetCategory(ctx context.Context, tenantID, id string) (*catalog.Category, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	c, err := scanCategory(s.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get category %s", id)
	}
	return &c, nil
}

func (s *Store) GetCategoryBySlug(ctx context.Context, tenantID, slug string) (*catalog.Category, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	c, err := scanCategory(s.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1 AND tenant_id = $2`, slug, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get category by slug %s", slug)
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, tenantID string, c *catalog.Category) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	c.ID = newID()
	c.TenantID = tenantID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (id, tenant_id, name, slug, description, image_url, sort_order, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`,
		c.ID, tenantID, c.Name, c.Slug, c.Description, c.ImageURL, c.SortOrder, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return writeErr(err, "create category %s", c.Slug)
	}
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, tenantID string, c *catalog.Category) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE categories SET name = $3, slug = $4, description = $5, image_url = $6,
		        sort_order = $7, is_active = $8, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2 RETURNING updated_at`,
		c.ID, tenantID, c.Name, c.Slug, c.Description, c.ImageURL, c.SortOrder, c.IsActive,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return notFoundWrap(err, "update category %s", c.ID)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, tenantID, id string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete category %s", id)
}

// --- Products ---

const productColumns = `id, tenant_id, coalesce(category_id, ''), name, slug, description, sku, price_cents,
	compare_cents, stock, images, is_active, is_featured, created_at, updated_at`

func scanProduct(row scannable) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.TenantID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.SKU, &p.PriceCents,
		&p.CompareCents, &p.Stock, &p.Images, &p.IsActive, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	p.Images = orEmpty(p.Images)
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, tenantID string, f catalog.ProductFilter) ([]catalog.Product, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.ActiveOnly {
		where = append(where, "is_active")
	}
	if f.Featured {
		where = append(where, "is_featured")
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, max(f.Offset, 0))

	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+strings.Join(where, " AND ")+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collect(rows, scanProduct)
}

func (s *Store) GetProduct(ctx context.Context, tenantID, id string) (*catalog.Product, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	p, err := scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get product %s", id)
	}
	return &p, nil
}

func (s *Store) GetProductBySlug(ctx context.Context, tenantID, slug string) (*catalog.Product, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	p, err := scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1 AND tenant_id = $2`, slug, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get product by slug %s", slug)
	}
	return &p, nil
}

// CreateProduct inserts p. A category from another tenant is reported as a bad reference.
func (s *Store) CreateProduct(ctx context.Context, tenantID string, p *catalog.Product) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	p.ID = newID()
	p.TenantID = tenantID
	p.Images = pgTextArray(p.Images)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO products (id, tenant_id, category_id, name, slug, description, sku, price_cents,
		                       compare_cents, stock, images, is_active, is_featured)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		 WHERE $3::text IS NULL OR EXISTS (SELECT 1 FROM categories WHERE id = $3 AND tenant_id = $2)
		 RETURNING created_at, updated_at`,
		p.ID, tenantID, nullIfEmpty(p.CategoryID), p.Name, p.Slug, p.Description, p.SKU, p.PriceCents,
		p.CompareCents, p.Stock, p.Images, p.IsActive, p.IsFeatured,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return badCategoryWrap(err, "create product %s", p.Slug)
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, tenantID string, p *catalog.Product) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE products SET category_id = $3, name = $4, slug = $5, description = $6, sku = $7,
		        price_cents = $8, compare_cents = $9, stock = $10, images = $11, is_active = $12,
		        is_featured = $13, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		   AND ($3::text IS NULL OR EXISTS (SELECT 1 FROM categories WHERE id = $3 AND tenant_id = $2))
		 RETURNING updated_at`,
		p.ID, tenantID, nullIfEmpty(p.CategoryID), p.Name, p.Slug, p.Description, p.SKU,
		p.PriceCents, p.CompareCents, p.Stock, pgTextArray(p.Images), p.IsActive, p.IsFeatured,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return notFoundWrap(err, "update product %s", p.ID)
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, tenantID, id string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete product %s", id)
}
