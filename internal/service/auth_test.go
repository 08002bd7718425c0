package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/ServicePulse/internal/adapter/memstore"
	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
)

func newTestAuthService(store *memstore.Store) *AuthService {
	cfg := config.Auth{
		JWTSecret:       "test-secret-key-must-be-long-enough",
		Issuer:          "servicepulse-test",
		AccessTokenTTL:  15 * time.Minute,
		OwnerTokenTTL:   time.Hour,
		ExchangeCodeTTL: time.Minute,
		BcryptCost:      4, // low cost for fast tests
	}
	return NewAuthService(store, store, &cfg)
}

func mustCreateUser(t *testing.T, svc *AuthService, tenantID, email string, role user.Role) *user.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), &user.CreateRequest{
		Email:    email,
		Name:     "Test User",
		Password: "Password123",
		Role:     role,
		TenantID: tenantID,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestAuthService_LoginIsTenantScoped(t *testing.T) {
	store := memstore.New()
	svc := newTestAuthService(store)
	ctx := context.Background()
	mustCreateUser(t, svc, "tenant-a", "Admin@Shop.be", user.RoleAdmin)

	resp, err := svc.Login(ctx, "tenant-a", user.LoginRequest{Email: "admin@shop.be", Password: "Password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("access token is empty")
	}
	if resp.User.TenantID != "tenant-a" {
		t.Errorf("tenant = %q, want tenant-a", resp.User.TenantID)
	}

	// Same credentials on another tenant's host.
	_, err = svc.Login(ctx, "tenant-b", user.LoginRequest{Email: "admin@shop.be", Password: "Password123"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("cross-tenant login err = %v, want ErrUnauthorized", err)
	}
}

func TestAuthService_InvalidLogin(t *testing.T) {
	store := memstore.New()
	svc := newTestAuthService(store)
	mustCreateUser(t, svc, "tenant-a", "staff@shop.be", user.RoleStaff)

	_, err := svc.Login(context.Background(), "tenant-a", user.LoginRequest{Email: "staff@shop.be", Password: "wrong-password"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestAuthService_TokenScopes(t *testing.T) {
	store := memstore.New()
	svc := newTestAuthService(store)
	ctx := context.Background()

	admin := mustCreateUser(t, svc, "tenant-a", "admin@shop.be", user.RoleAdmin)
	owner, created, err := svc.EnsureOwner(ctx, "owner@platform.be", "Password123", "Owner")
	if err != nil || !created {
		t.Fatalf("ensure owner: created=%v err=%v", created, err)
	}

	tenantTok, _, err := svc.IssueToken(admin)
	if err != nil {
		t.Fatalf("issue tenant token: %v", err)
	}
	ownerTok, ttl, err := svc.IssueToken(owner)
	if err != nil {
		t.Fatalf("issue owner token: %v", err)
	}
	if ttl != time.Hour {
		t.Errorf("owner ttl = %v, want 1h", ttl)
	}

	c, err := svc.ValidateToken(tenantTok, user.ScopeTenant)
	if err != nil {
		t.Fatalf("validate tenant token: %v", err)
	}
	if c.TenantID != "tenant-a" || c.Role != user.RoleAdmin {
		t.Errorf("claims = %+v", c)
	}
	if _, err := svc.ValidateToken(tenantTok, user.ScopePlatform); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("tenant token on owner scope err = %v, want ErrUnauthorized", err)
	}

	c, err = svc.ValidateToken(ownerTok, user.ScopePlatform)
	if err != nil {
		t.Fatalf("validate owner token: %v", err)
	}
	if c.TenantID != "" || c.Role != user.RoleOwner {
		t.Errorf("owner claims = %+v", c)
	}
	if _, err := svc.ValidateToken(ownerTok, user.ScopeTenant); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("owner token on tenant scope err = %v, want ErrUnauthorized", err)
	}
}

func TestAuthService_InvalidToken(t *testing.T) {
	svc := newTestAuthService(memstore.New())
	if _, err := svc.ValidateToken("not.a.token", user.ScopeTenant); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}

	other := newTestAuthService(memstore.New())
	other.secret = []byte("another-secret-key-that-is-long-enough")
	u := &user.User{ID: "u1", TenantID: "tenant-a", Role: user.RoleStaff, Email: "s@shop.be"}
	tok, _, err := other.IssueToken(u)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(tok, user.ScopeTenant); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("foreign signature err = %v, want ErrUnauthorized", err)
	}
}

func TestAuthService_CreateUserTenancy(t *testing.T) {
	svc := newTestAuthService(memstore.New())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, &user.CreateRequest{Email: "o@x.be", Name: "O", Password: "Password123", Role: user.RoleOwner, TenantID: "tenant-a"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("owner with tenant err = %v, want ErrValidation", err)
	}
	_, err = svc.CreateUser(ctx, &user.CreateRequest{Email: "a@x.be", Name: "A", Password: "Password123", Role: user.RoleAdmin})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("admin without tenant err = %v, want ErrValidation", err)
	}
}

func TestAuthService_EnsureOwnerIdempotent(t *testing.T) {
	svc := newTestAuthService(memstore.New())
	ctx := context.Background()

	if _, created, err := svc.EnsureOwner(ctx, "owner@platform.be", "Password123", "Owner"); err != nil || !created {
		t.Fatalf("first run: created=%v err=%v", created, err)
	}
	if _, created, err := svc.EnsureOwner(ctx, "owner@platform.be", "Password123", "Owner"); err != nil || created {
		t.Fatalf("second run: created=%v err=%v", created, err)
	}

	resp, err := svc.OwnerLogin(ctx, user.LoginRequest{Email: "owner@platform.be", Password: "Password123"})
	if err != nil {
		t.Fatalf("owner login: %v", err)
	}
	if resp.User.Role != user.RoleOwner {
		t.Errorf("role = %q", resp.User.Role)
	}
}

func TestAuthService_ExchangeCode(t *testing.T) {
	store := memstore.New()
	svc := newTestAuthService(store)
	ctx := context.Background()
	admin := mustCreateUser(t, svc, "tenant-a", "admin@shop.be", user.RoleAdmin)
	claims := &user.Claims{UserID: admin.ID, Role: admin.Role, TenantID: "tenant-a", Scope: user.ScopeTenant}

	code, _, err := svc.CreateExchangeCode(ctx, claims)
	if err != nil {
		t.Fatalf("create code: %v", err)
	}
	if _, err := svc.Exchange(ctx, "tenant-a", code); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if _, err := svc.Exchange(ctx, "tenant-a", code); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("reused code err = %v, want ErrUnauthorized", err)
	}

	code, _, err = svc.CreateExchangeCode(ctx, claims)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Exchange(ctx, "tenant-b", code); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("cross-tenant exchange err = %v, want ErrUnauthorized", err)
	}

	code, _, err = svc.CreateExchangeCode(ctx, claims)
	if err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.Exchange(ctx, "tenant-a", code); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expired code err = %v, want ErrUnauthorized", err)
	}
}

func TestAuthService_ExchangeCodeOwnerForbidden(t *testing.T) {
	svc := newTestAuthService(memstore.New())
	_, _, err := svc.CreateExchangeCode(context.Background(), &user.Claims{UserID: "o", Role: user.RoleOwner, Scope: user.ScopePlatform})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}
