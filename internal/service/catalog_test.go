package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/ServicePulse/internal/adapter/memstore"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/catalog"
)

func strPtr(s string) *string { return &s }

func TestCategoryService_CrossTenantIsNotFound(t *testing.T) {
	store := memstore.New()
	svc := NewCategoryService(store)
	ctx := context.Background()
	actor := Actor{UserID: "admin-a"}

	c, err := svc.Create(ctx, "tenant-a", actor, catalog.CreateCategoryRequest{Name: "Screen Repair"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Slug != "screen-repair" {
		t.Errorf("slug = %q, want screen-repair", c.Slug)
	}

	if _, err := svc.Get(ctx, "tenant-b", c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get from tenant-b err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Update(ctx, "tenant-b", actor, c.ID, catalog.UpdateCategoryRequest{Name: strPtr("Hijacked")}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update from tenant-b err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "tenant-b", actor, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete from tenant-b err = %v, want ErrNotFound", err)
	}

	got, err := svc.Get(ctx, "tenant-a", "screen-repair")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.Name != "Screen Repair" {
		t.Errorf("name = %q, category changed by another tenant", got.Name)
	}
}

func TestCategoryService_SameSlugPerTenant(t *testing.T) {
	store := memstore.New()
	svc := NewCategoryService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "tenant-a", Actor{}, catalog.CreateCategoryRequest{Name: "Phones"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "tenant-b", Actor{}, catalog.CreateCategoryRequest{Name: "Phones"}); err != nil {
		t.Errorf("same slug in another tenant: %v", err)
	}
	if _, err := svc.Create(ctx, "tenant-a", Actor{}, catalog.CreateCategoryRequest{Name: "phones"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate slug err = %v, want ErrConflict", err)
	}
}

func TestCategoryService_RequiresTenant(t *testing.T) {
	svc := NewCategoryService(memstore.New())
	if _, err := svc.Create(context.Background(), "", Actor{}, catalog.CreateCategoryRequest{Name: "X"}); !errors.Is(err, domain.ErrTenantRequired) {
		t.Errorf("err = %v, want ErrTenantRequired", err)
	}
}

func TestProductService_CategoryOfOtherTenantRejected(t *testing.T) {
	store := memstore.New()
	cats := NewCategoryService(store)
	products := NewProductService(store)
	ctx := context.Background()

	c, err := cats.Create(ctx, "tenant-b", Actor{}, catalog.CreateCategoryRequest{Name: "Cases"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = products.Create(ctx, "tenant-a", Actor{}, catalog.CreateProductRequest{Name: "Case", CategoryID: c.ID, PriceCents: 1999})
	if !errors.Is(err, domain.ErrBadReference) {
		t.Errorf("err = %v, want ErrBadReference", err)
	}
}

func TestProductService_CreateAndAudit(t *testing.T) {
	store := memstore.New()
	svc := NewProductService(store)
	ctx := context.Background()

	p, err := svc.Create(ctx, "tenant-a", Actor{UserID: "admin-a"}, catalog.CreateProductRequest{Name: "iPhone 13 Screen", PriceCents: 12900, Stock: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Slug != "iphone-13-screen" || !p.IsActive {
		t.Errorf("product = %+v", p)
	}

	entries, _ := store.ListAudit(ctx, "tenant-a", auditFilter("product"))
	if len(entries) != 1 || entries[0].EntityID != p.ID {
		t.Errorf("audit entries = %+v", entries)
	}
	other, _ := store.ListAudit(ctx, "tenant-b", auditFilter(""))
	if len(other) != 0 {
		t.Errorf("tenant-b sees %d audit entries", len(other))
	}

	neg := int64(-1)
	if _, err := svc.Update(ctx, "tenant-a", Actor{}, p.ID, catalog.UpdateProductRequest{PriceCents: &neg}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("negative price err = %v, want ErrValidation", err)
	}
}
