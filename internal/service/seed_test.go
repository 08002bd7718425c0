package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/ServicePulse/internal/adapter/memstore"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
)

func testSeedOptions() SeedOptions {
	return SeedOptions{
		TenantID:      "default-tenant",
		Name:          "Smartphone Service",
		Slug:          "smartphoneservice",
		Domain:        "smartphoneservice.be",
		ExtraDomains:  []string{"localhost"},
		OwnerEmail:    "owner@servicepulse.com",
		OwnerPassword: "Password123",
		OwnerName:     "Owner",
	}
}

func TestSeedService_Idempotent(t *testing.T) {
	store := memstore.New()
	store.SetLegacyRows("products", 12)
	store.SetLegacyRows("tickets", 3)
	inv := &nopInvalidator{}
	svc := NewSeedService(store, newTestAuthService(store), inv)
	ctx := context.Background()

	rep, err := svc.Run(ctx, testSeedOptions())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !rep.TenantCreated || !rep.OwnerCreated || len(rep.DomainsAdded) != 2 {
		t.Errorf("first report = %+v", rep)
	}
	if rep.Total() != 15 {
		t.Errorf("backfilled = %d, want 15", rep.Total())
	}

	rep, err = svc.Run(ctx, testSeedOptions())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rep.TenantCreated || rep.OwnerCreated || len(rep.DomainsAdded) != 0 || rep.Total() != 0 {
		t.Errorf("second report = %+v, want no changes", rep)
	}
	if n := inv.tenants.Load(); n != 1 {
		t.Errorf("invalidations = %d, want 1", n)
	}

	r := NewTenantResolver(store, newMapCache(), nil)
	for _, host := range []string{"smartphoneservice.be", "localhost:3000"} {
		tc, err := r.Resolve(ctx, host)
		if err != nil {
			t.Fatalf("resolve %s: %v", host, err)
		}
		if tc.TenantID != "default-tenant" || tc.Status != tenant.StatusActive {
			t.Errorf("resolve %s = %+v", host, tc)
		}
	}
}

func TestSeedService_DomainOwnedElsewhere(t *testing.T) {
	store := memstore.New()
	store.AddTenant("other", "other", "localhost")
	svc := NewSeedService(store, newTestAuthService(store), nil)

	_, err := svc.Run(context.Background(), testSeedOptions())
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestSeedService_BackfillUnknownTenant(t *testing.T) {
	store := memstore.New()
	svc := NewSeedService(store, newTestAuthService(store), nil)
	if _, err := svc.Backfill(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
