package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
	"github.com/Strob0t/ServicePulse/internal/port/database"
)

// Token audiences. A tenant token never verifies as an owner token and vice versa.
const (
	AudienceTenant   = "servicepulse"
	AudiencePlatform = "servicepulse-owner"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)

// sessionClaims is the JWT payload.
type sessionClaims struct {
	Email    string     `json:"email"`
	Role     user.Role  `json:"role"`
	TenantID string     `json:"tid,omitempty"`
	Scope    user.Scope `json:"scope"`
	jwt.RegisteredClaims
}

// AuthService handles password login, session tokens and one-time exchange codes.
type AuthService struct {
	users  database.UserRepository
	codes  database.ExchangeCodeRepository
	cfg    *config.Auth
	secret []byte
	now    func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(users database.UserRepository, codes database.ExchangeCodeRepository, cfg *config.Auth) *AuthService {
	return &AuthService{
		users:  users,
		codes:  codes,
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
	}
}

// HashPassword returns the bcrypt hash of pw at the configured cost.
func (s *AuthService) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CreateUser registers a user after enforcing the owner/tenant invariant.
func (s *AuthService) CreateUser(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:           uuid.NewString(),
		TenantID:     req.TenantID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Enabled:      true,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// EnsureOwner creates the platform owner unless one already exists.
func (s *AuthService) EnsureOwner(ctx context.Context, email, password, name string) (*user.User, bool, error) {
	exists, err := s.users.AnyOwner(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("check owner: %w", err)
	}
	if exists {
		return nil, false, nil
	}
	u, err := s.CreateUser(ctx, &user.CreateRequest{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     user.RoleOwner,
	})
	if err != nil {
		return nil, false, err
	}
	slog.InfoContext(ctx, "platform owner created", "email", u.Email)
	return u, true, nil
}

// Login authenticates a tenant user. The email is looked up inside tenantID only.
func (s *AuthService) Login(ctx context.Context, tenantID string, req user.LoginRequest) (*user.LoginResponse, error) {
	u, err := s.users.GetUserByEmail(ctx, tenantID, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.checkPassword(u, req.Password); err != nil {
		return nil, err
	}
	return s.respond(u)
}

// OwnerLogin authenticates the platform owner. No tenant is involved.
func (s *AuthService) OwnerLogin(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	u, err := s.users.GetOwnerByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}
	if err := s.checkPassword(u, req.Password); err != nil {
		return nil, err
	}
	return s.respond(u)
}

func (s *AuthService) checkPassword(u *user.User, password string) error {
	if !u.Enabled {
		return fmt.Errorf("%w: account is disabled", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return errInvalidCredentials
	}
	return nil
}

func (s *AuthService) respond(u *user.User) (*user.LoginResponse, error) {
	token, ttl, err := s.IssueToken(u)
	if err != nil {
		return nil, err
	}
	return &user.LoginResponse{AccessToken: token, ExpiresIn: int(ttl.Seconds()), User: *u}, nil
}

// IssueToken signs a session token for u. Owners get a platform-scoped
// token, everyone else a token bound to their tenant.
func (s *AuthService) IssueToken(u *user.User) (string, time.Duration, error) {
	if err := user.CheckTenancy(u.Role, u.TenantID); err != nil {
		return "", 0, fmt.Errorf("issue token: %w", err)
	}

	scope, aud, ttl := user.ScopeTenant, AudienceTenant, s.cfg.AccessTokenTTL
	if u.IsOwner() {
		scope, aud, ttl = user.ScopePlatform, AudiencePlatform, s.cfg.OwnerTokenTTL
	}

	now := s.now()
	claims := sessionClaims{
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.TenantID,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{aud},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, ttl, nil
}

// ValidateToken verifies signature, expiry, issuer and that the token was
// issued for the given scope.
func (s *AuthService) ValidateToken(tokenStr string, scope user.Scope) (*user.Claims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	aud := AudienceTenant
	if scope == user.ScopePlatform {
		aud = AudiencePlatform
	}
	if claims.Scope != scope || !claims.VerifyAudience(aud, true) {
		return nil, fmt.Errorf("%w: session not valid for this area", domain.ErrUnauthorized)
	}
	if !claims.VerifyIssuer(s.cfg.Issuer, true) {
		return nil, fmt.Errorf("%w: invalid token issuer", domain.ErrUnauthorized)
	}
	if err := user.CheckTenancy(claims.Role, claims.TenantID); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	out := &user.Claims{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Role:     claims.Role,
		TenantID: claims.TenantID,
		Scope:    claims.Scope,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Me returns the user behind verified claims.
func (s *AuthService) Me(ctx context.Context, c *user.Claims) (*user.User, error) {
	if c.Scope == user.ScopePlatform {
		return s.users.GetOwner(ctx, c.UserID)
	}
	return s.users.GetUser(ctx, c.TenantID, c.UserID)
}

// CreateExchangeCode issues a single-use code for a tenant session. Only
// the SHA-256 of the code is stored.
func (s *AuthService) CreateExchangeCode(ctx context.Context, c *user.Claims) (string, time.Time, error) {
	if c.Scope != user.ScopeTenant || c.TenantID == "" {
		return "", time.Time{}, fmt.Errorf("%w: exchange codes are tenant sessions only", domain.ErrForbidden)
	}
	code, err := randomToken(32)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate exchange code: %w", err)
	}
	expires := s.now().Add(s.cfg.ExchangeCodeTTL)
	if err := s.codes.CreateExchangeCode(ctx, hashSHA256(code), c.UserID, c.TenantID, expires); err != nil {
		return "", time.Time{}, fmt.Errorf("store exchange code: %w", err)
	}
	return code, expires, nil
}

// Exchange consumes a code issued on tenantID and returns a fresh session.
func (s *AuthService) Exchange(ctx context.Context, tenantID, code string) (*user.LoginResponse, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", domain.ErrValidation)
	}
	userID, codeTenant, expires, err := s.codes.ConsumeExchangeCode(ctx, hashSHA256(code))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid or used code", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("consume exchange code: %w", err)
	}
	if s.now().After(expires) {
		return nil, fmt.Errorf("%w: code expired", domain.ErrUnauthorized)
	}
	if codeTenant != tenantID {
		return nil, fmt.Errorf("%w: session not valid for this tenant", domain.ErrUnauthorized)
	}

	u, err := s.users.GetUser(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !u.Enabled {
		return nil, fmt.Errorf("%w: account is disabled", domain.ErrUnauthorized)
	}
	return s.respond(u)
}

// StartCodeCleanup periodically purges expired exchange codes until ctx is cancelled.
func (s *AuthService) StartCodeCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.codes.DeleteExpiredExchangeCodes(ctx)
				if err != nil {
					slog.Warn("failed to purge exchange codes", "error", err)
				} else if n > 0 {
					slog.Info("purged expired exchange codes", "count", n)
				}
			}
		}
	}()
}

// --- Helpers ---

func hashSHA256(data string) string {
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
