package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/ServicePulse/internal/adapter/memstore"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/domain/marketing"
)

func auditFilter(entity string) audit.Filter { return audit.Filter{Entity: entity, Limit: 50} }

func TestDiscountService_Validate(t *testing.T) {
	store := memstore.New()
	svc := NewDiscountService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, "tenant-a", Actor{}, marketing.DiscountRequest{
		Code: "zomer10", Type: marketing.DiscountPercentage, Value: 10, MinOrderCents: 5000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name      string
		tenant    string
		code      string
		subtotal  int64
		wantValid bool
		wantCents int64
	}{
		{"case insensitive", "tenant-a", " Zomer10 ", 10000, true, 1000},
		{"below minimum", "tenant-a", "ZOMER10", 4000, false, 0},
		{"unknown code", "tenant-a", "WINTER", 10000, false, 0},
		{"other tenant", "tenant-b", "ZOMER10", 10000, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Validate(ctx, tt.tenant, marketing.ValidateRequest{Code: tt.code, SubtotalCents: tt.subtotal})
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if res.Valid != tt.wantValid || res.DiscountCents != tt.wantCents {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestDiscountService_PercentageCap(t *testing.T) {
	svc := NewDiscountService(memstore.New())
	_, err := svc.Create(context.Background(), "tenant-a", Actor{}, marketing.DiscountRequest{
		Code: "HALF", Type: marketing.DiscountPercentage, Value: 150,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestBannerService_WindowAndActive(t *testing.T) {
	store := memstore.New()
	svc := NewBannerService(store)
	ctx := context.Background()
	now := time.Now()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	_, err := svc.Create(ctx, "tenant-a", Actor{}, marketing.BannerRequest{Title: "t", Message: "m", StartsAt: &future, ExpiresAt: &past})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("inverted window err = %v, want ErrValidation", err)
	}

	if _, err := svc.Create(ctx, "tenant-a", Actor{}, marketing.BannerRequest{Title: "live", Message: "m", StartsAt: &past}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "tenant-a", Actor{}, marketing.BannerRequest{Title: "later", Message: "m", StartsAt: &future}); err != nil {
		t.Fatal(err)
	}

	live, err := svc.Active(ctx, "tenant-a", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 1 || live[0].Title != "live" {
		t.Errorf("active banners = %+v", live)
	}
	other, _ := svc.Active(ctx, "tenant-b", "")
	if len(other) != 0 {
		t.Errorf("tenant-b sees %d banners", len(other))
	}
}
