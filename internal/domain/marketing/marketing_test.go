package marketing

import (
	"testing"
	"time"
)

func TestDiscount_Evaluate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		d         Discount
		subtotal  int64
		wantValid bool
		wantCents int64
		wantMsg   string
	}{
		{name: "percentage", d: Discount{IsActive: true, Type: DiscountPercentage, Value: 10}, subtotal: 5000, wantValid: true, wantCents: 500, wantMsg: "10% korting toegepast!"},
		{name: "percentage capped", d: Discount{IsActive: true, Type: DiscountPercentage, Value: 50, MaxDiscount: 1000}, subtotal: 5000, wantValid: true, wantCents: 1000},
		{name: "fixed capped at subtotal", d: Discount{IsActive: true, Type: DiscountFixed, Value: 2500}, subtotal: 1000, wantValid: true, wantCents: 1000, wantMsg: "€25.00 korting toegepast!"},
		{name: "inactive", d: Discount{Type: DiscountFixed, Value: 100}, subtotal: 1000, wantMsg: "Deze kortingscode is niet actief"},
		{name: "not started", d: Discount{IsActive: true, StartsAt: &future, Type: DiscountFixed, Value: 100}, subtotal: 1000, wantMsg: "Deze kortingscode is nog niet geldig"},
		{name: "expired", d: Discount{IsActive: true, ExpiresAt: &past, Type: DiscountFixed, Value: 100}, subtotal: 1000, wantMsg: "Deze kortingscode is verlopen"},
		{name: "used up", d: Discount{IsActive: true, UsageLimit: 2, UsageCount: 2, Type: DiscountFixed, Value: 100}, subtotal: 1000, wantMsg: "Deze kortingscode is niet meer beschikbaar"},
		{name: "min order", d: Discount{IsActive: true, MinOrderCents: 5000, Type: DiscountFixed, Value: 100}, subtotal: 1000, wantMsg: "Minimale bestelling van €50.00 vereist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.d.Evaluate(tt.subtotal, now)
			if got.Valid != tt.wantValid {
				t.Fatalf("valid = %v, want %v (%s)", got.Valid, tt.wantValid, got.Message)
			}
			if got.DiscountCents != tt.wantCents {
				t.Errorf("cents = %d, want %d", got.DiscountCents, tt.wantCents)
			}
			if tt.wantMsg != "" && got.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}

func TestBanner_LiveAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if !(&Banner{IsActive: true}).LiveAt(now) {
		t.Error("open window should be live")
	}
	if (&Banner{IsActive: true, StartsAt: &future}).LiveAt(now) {
		t.Error("future start should not be live")
	}
	if (&Banner{IsActive: true, ExpiresAt: &past}).LiveAt(now) {
		t.Error("expired should not be live")
	}
	if (&Banner{IsActive: false}).LiveAt(now) {
		t.Error("inactive should not be live")
	}
}

func TestDiscountRequest_ToDiscount(t *testing.T) {
	var d Discount
	req := DiscountRequest{Code: " summer10 ", Type: DiscountPercentage, Value: 10}
	if err := req.ToDiscount(&d); err != nil {
		t.Fatal(err)
	}
	if d.Code != "SUMMER10" || !d.IsActive {
		t.Fatalf("unexpected discount: %+v", d)
	}
	if err := (&DiscountRequest{Code: "X", Type: DiscountPercentage, Value: 150}).ToDiscount(&d); err == nil {
		t.Fatal("expected error for >100%")
	}
}
