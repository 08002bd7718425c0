package tenant

import (
	"errors"
	"testing"

	"github.com/Strob0t/ServicePulse/internal/domain"
)

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"shop-a.be", "shop-a.be"},
		{"Shop-A.BE", "shop-a.be"},
		{"shop-a.be:3000", "shop-a.be"},
		{"www.shop-a.be", "shop-a.be"},
		{"WWW.Shop-A.be.", "shop-a.be"},
		{"  www.shop-a.be:443  ", "shop-a.be"},
		{"www.www.shop-a.be", "shop-a.be"},
		{"localhost:3000", "localhost"},
		{"[::1]:8080", "::1"},
		{"::1", "::1"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeHost(tt.in)
			if got != tt.want {
				t.Fatalf("NormalizeHost(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := NormalizeHost(got); again != got {
				t.Fatalf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestFirstHost(t *testing.T) {
	if got := FirstHost("a.be, proxy.internal"); got != "a.be" {
		t.Fatalf("got %q", got)
	}
	if got := FirstHost(" b.be "); got != "b.be" {
		t.Fatalf("got %q", got)
	}
}

func TestStatusCheck(t *testing.T) {
	tests := []struct {
		status Status
		want   error
	}{
		{StatusActive, nil},
		{StatusSuspended, domain.ErrTenantSuspended},
		{StatusDraft, domain.ErrTenantUnavailable},
		{StatusArchived, domain.ErrTenantUnavailable},
	}
	for _, tt := range tests {
		if err := tt.status.Check(); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestCreateRequest_Validate(t *testing.T) {
	req := CreateRequest{Name: "Shop A", Slug: "shop-a", Domain: "WWW.Shop-A.be:443"}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Domain != "shop-a.be" {
		t.Fatalf("domain not normalized: %q", req.Domain)
	}

	bad := CreateRequest{Name: "Shop", Slug: "Shop A", Domain: "x.be"}
	if err := bad.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPublicConfig(t *testing.T) {
	tc := Context{TenantID: "t1", Slug: "a", Name: "Shop A", Config: DefaultConfig(""), Features: DefaultFeatures()}
	p := tc.Public()
	if p.Branding.ShopName != "Shop A" {
		t.Errorf("shop name fallback = %q", p.Branding.ShopName)
	}
	if p.Locale.Currency != "EUR" || p.Branding.PrimaryColor != "#7c3aed" {
		t.Errorf("unexpected defaults: %+v", p)
	}
}
