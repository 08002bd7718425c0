package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/ServicePulse/internal/adapter/memstore"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
)

func newTestTenantService() (*TenantService, *memstore.Store, *TenantResolver) {
	store := memstore.New()
	r := NewTenantResolver(store, newMapCache(), nil)
	return NewTenantService(store, r, newTestAuthService(store)), store, r
}

func TestTenantService_CreateAndResolve(t *testing.T) {
	svc, _, r := newTestTenantService()
	ctx := context.Background()

	tn, err := svc.Create(ctx, Actor{UserID: "owner"}, tenant.CreateRequest{
		Name: "Fix It", Slug: "fix-it", Domain: "WWW.FixIt.be", Verified: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tc, err := r.Resolve(ctx, "fixit.be")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.TenantID != tn.ID || tc.Config.ShopName != "Fix It" {
		t.Errorf("resolved = %+v", tc)
	}

	_, err = svc.Create(ctx, Actor{}, tenant.CreateRequest{Name: "Dup", Slug: "dup", Domain: "fixit.be"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate domain err = %v, want ErrConflict", err)
	}
	_, err = svc.Create(ctx, Actor{}, tenant.CreateRequest{Name: "Bad", Slug: "Bad Slug", Domain: "bad.be"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad slug err = %v, want ErrValidation", err)
	}
}

func TestTenantService_SuspendTakesEffectImmediately(t *testing.T) {
	svc, store, r := newTestTenantService()
	ctx := context.Background()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")

	if _, err := r.Resolve(ctx, "shop-a.be"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetStatus(ctx, Actor{UserID: "owner"}, "tenant-a", tenant.StatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, err := r.Resolve(ctx, "shop-a.be"); !errors.Is(err, domain.ErrTenantSuspended) {
		t.Errorf("err = %v, want ErrTenantSuspended", err)
	}

	entries, _ := store.ListAudit(ctx, "tenant-a", auditFilter("tenant"))
	if len(entries) != 1 || entries[0].Action != "STATUS_CHANGE" {
		t.Errorf("audit = %+v", entries)
	}

	if _, err := svc.SetStatus(ctx, Actor{}, "tenant-a", tenant.StatusActive); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(ctx, "shop-a.be"); err != nil {
		t.Errorf("resolve after reactivation: %v", err)
	}
}

func TestTenantService_DomainLifecycle(t *testing.T) {
	svc, store, r := newTestTenantService()
	ctx := context.Background()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")

	d, err := svc.AddDomain(ctx, Actor{}, "tenant-a", tenant.AddDomainRequest{Domain: "Shop-A.com"})
	if err != nil {
		t.Fatalf("add domain: %v", err)
	}
	if d.Domain != "shop-a.com" || d.VerificationStatus != tenant.VerificationPending {
		t.Errorf("domain = %+v", d)
	}
	if _, err := r.Resolve(ctx, "shop-a.com"); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("pending domain err = %v, want ErrTenantNotFound", err)
	}
	if _, err := svc.VerifyDomain(ctx, Actor{}, "tenant-a", d.ID); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := r.Resolve(ctx, "shop-a.com"); err != nil {
		t.Errorf("verified domain: %v", err)
	}

	if _, err := svc.AddDomain(ctx, Actor{}, "tenant-a", tenant.AddDomainRequest{Domain: "shop-a.com"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate domain err = %v, want ErrConflict", err)
	}

	if err := svc.RemoveDomain(ctx, Actor{}, "tenant-a", d.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := r.Resolve(ctx, "shop-a.com"); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("removed domain err = %v, want ErrTenantNotFound", err)
	}

	domains, _ := store.ListDomains(ctx, "tenant-a")
	if err := svc.RemoveDomain(ctx, Actor{}, "tenant-a", domains[0].ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("remove last domain err = %v, want ErrConflict", err)
	}
}

func TestTenantService_CreateUserLimits(t *testing.T) {
	svc, store, _ := newTestTenantService()
	ctx := context.Background()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")

	req := func(email string, role user.Role) user.CreateRequest {
		return user.CreateRequest{Email: email, Name: "N", Password: "Password123", Role: role}
	}
	if _, err := svc.CreateUser(ctx, Actor{}, "tenant-a", req("owner2@x.be", user.RoleOwner)); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("owner role err = %v, want ErrValidation", err)
	}
	u, err := svc.CreateUser(ctx, Actor{}, "tenant-a", req("admin@x.be", user.RoleAdmin))
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if u.TenantID != "tenant-a" {
		t.Errorf("tenant = %q", u.TenantID)
	}
	// Default features allow a single admin.
	if _, err := svc.CreateUser(ctx, Actor{}, "tenant-a", req("admin2@x.be", user.RoleAdmin)); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second admin err = %v, want ErrConflict", err)
	}
	if _, err := svc.CreateUser(ctx, Actor{}, "tenant-a", req("staff@x.be", user.RoleStaff)); err != nil {
		t.Errorf("staff: %v", err)
	}
	if _, err := svc.CreateUser(ctx, Actor{}, "missing", req("a@x.be", user.RoleStaff)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing tenant err = %v, want ErrNotFound", err)
	}
}

func TestTenantService_UpdateConfigValidates(t *testing.T) {
	svc, store, _ := newTestTenantService()
	ctx := context.Background()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")

	cfg := tenant.DefaultConfig("Shop A")
	cfg.ClosedDays = []int{7}
	if _, err := svc.UpdateConfig(ctx, Actor{}, "tenant-a", cfg); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	cfg.ClosedDays = []int{0, 6}
	cfg.Features.MaxAdminUsers = 3
	got, err := svc.UpdateConfig(ctx, Actor{}, "tenant-a", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Features.MaxAdminUsers != 3 {
		t.Errorf("features = %+v", got.Features)
	}
}
