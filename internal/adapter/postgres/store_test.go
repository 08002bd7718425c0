package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/ServicePulse/internal/adapter/postgres"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/catalog"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
)

// setupStore creates a pgxpool connection, runs all migrations, and returns a
// ready-to-use Store. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewStore(pool)
}

// createTestTenant creates a tenant with a random slug and domain.
func createTestTenant(t *testing.T, store *postgres.Store) (id, host string) {
	t.Helper()
	slug := "test-" + uuid.NewString()[:8]
	host = slug + ".example.test"
	tn := &tenant.Tenant{Name: "Test " + slug, Slug: slug}
	if err := store.CreateTenant(context.Background(), tn, host, true, tenant.DefaultConfig(tn.Name)); err != nil {
		t.Fatalf("create test tenant: %v", err)
	}
	return tn.ID, host
}

func TestStore_ResolveHost(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	id, host := createTestTenant(t, store)

	tc, err := store.ResolveHost(ctx, host)
	if err != nil {
		t.Fatalf("ResolveHost: %v", err)
	}
	if tc.TenantID != id {
		t.Fatalf("tenant = %s, want %s", tc.TenantID, id)
	}
	if tc.Config.Currency != "EUR" || !tc.Features.Ecommerce {
		t.Fatalf("unexpected config: %+v", tc.Config)
	}

	if _, err := store.ResolveHost(ctx, "nobody-"+uuid.NewString()+".test"); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestStore_CategoryTenantIsolation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	tenantA, _ := createTestTenant(t, store)
	tenantB, _ := createTestTenant(t, store)

	c := &catalog.Category{Name: "Phones", Slug: "phones", IsActive: true}
	if err := store.CreateCategory(ctx, tenantA, c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	if _, err := store.GetCategory(ctx, tenantB, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cross-tenant get: expected ErrNotFound, got %v", err)
	}

	hijack := *c
	hijack.Name = "Hijacked"
	if err := store.UpdateCategory(ctx, tenantB, &hijack); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cross-tenant update: expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteCategory(ctx, tenantB, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cross-tenant delete: expected ErrNotFound, got %v", err)
	}

	got, err := store.GetCategory(ctx, tenantA, c.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Name != "Phones" {
		t.Fatalf("category was modified: %q", got.Name)
	}

	// Same slug is allowed in another tenant.
	if err := store.CreateCategory(ctx, tenantB, &catalog.Category{Name: "Phones", Slug: "phones"}); err != nil {
		t.Fatalf("same slug in other tenant: %v", err)
	}
	if err := store.CreateCategory(ctx, tenantA, &catalog.Category{Name: "Phones", Slug: "phones"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate slug: expected ErrConflict, got %v", err)
	}
}

func TestStore_ProductRejectsForeignCategory(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	tenantA, _ := createTestTenant(t, store)
	tenantB, _ := createTestTenant(t, store)

	c := &catalog.Category{Name: "Tablets", Slug: "tablets"}
	if err := store.CreateCategory(ctx, tenantA, c); err != nil {
		t.Fatal(err)
	}
	p := &catalog.Product{CategoryID: c.ID, Name: "iPad", Slug: "ipad", PriceCents: 19900}
	if err := store.CreateProduct(ctx, tenantB, p); !errors.Is(err, domain.ErrBadReference) {
		t.Fatalf("expected ErrBadReference, got %v", err)
	}
}

func TestStore_ScopedCallsRequireTenant(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	if _, err := store.ListCategories(ctx, "", false); !errors.Is(err, domain.ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
	if _, err := store.BackfillTenant(ctx, ""); !errors.Is(err, domain.ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
}

func TestStore_Domains(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	id, host := createTestTenant(t, store)

	doms, err := store.ListDomains(ctx, id)
	if err != nil || len(doms) != 1 {
		t.Fatalf("ListDomains: %v %v", doms, err)
	}
	if _, err := store.RemoveDomain(ctx, id, doms[0].ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("removing last domain: expected ErrConflict, got %v", err)
	}

	second := &tenant.Domain{TenantID: id, Domain: "alt-" + host, IsPrimary: true}
	if err := store.AddDomain(ctx, second); err != nil {
		t.Fatalf("AddDomain: %v", err)
	}
	if err := store.AddDomain(ctx, &tenant.Domain{TenantID: id, Domain: host}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate domain: expected ErrConflict, got %v", err)
	}

	doms, _ = store.ListDomains(ctx, id)
	if !doms[0].IsPrimary || doms[0].Domain != second.Domain {
		t.Fatalf("primary not moved: %+v", doms)
	}
	if _, err := store.RemoveDomain(ctx, id, second.ID); err != nil {
		t.Fatalf("RemoveDomain: %v", err)
	}
	doms, _ = store.ListDomains(ctx, id)
	if len(doms) != 1 || !doms[0].IsPrimary {
		t.Fatalf("remaining domain not promoted: %+v", doms)
	}
}

func TestStore_OwnerHasNoTenant(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	id, _ := createTestTenant(t, store)

	bad := &user.User{TenantID: id, Email: uuid.NewString() + "@x.test", Name: "X", PasswordHash: "h", Role: user.RoleOwner}
	if err := store.CreateUser(ctx, bad); err == nil {
		t.Fatal("expected owner with tenant to be rejected")
	}

	admin := &user.User{TenantID: id, Email: uuid.NewString() + "@x.test", Name: "A", PasswordHash: "h", Role: user.RoleAdmin, Enabled: true}
	if err := store.CreateUser(ctx, admin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := store.GetOwnerByEmail(ctx, admin.Email); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("admin found as owner: %v", err)
	}
}

func TestStore_BackfillIsIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	id, _ := createTestTenant(t, store)

	if _, err := store.BackfillTenant(ctx, id); err != nil {
		t.Fatalf("first backfill: %v", err)
	}
	counts, err := store.BackfillTenant(ctx, id)
	if err != nil {
		t.Fatalf("second backfill: %v", err)
	}
	for _, c := range counts {
		if c.Rows != 0 {
			t.Errorf("second backfill touched %d rows in %s", c.Rows, c.Table)
		}
	}
}
