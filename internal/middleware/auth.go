package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
)

// TokenValidator verifies session tokens for one scope.
type TokenValidator interface {
	ValidateToken(token string, scope user.Scope) (*user.Claims, error)
}

type claimsCtxKey struct{}

// ErrWrongTenant rejects a tenant session presented on another tenant's host.
var ErrWrongTenant = fmt.Errorf("%w: Session not valid for this tenant", domain.ErrUnauthorized)

// Auth authenticates requests with a session of the given scope, read from
// "Authorization: Bearer" or the scope's cookie. Tenant sessions must match
// the tenant resolved for the request.
func Auth(v TokenValidator, scope user.Scope, cookie string, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerOrCookie(r, cookie)
			if token == "" {
				writeErr(w, r, fmt.Errorf("%w: authorization required", domain.ErrUnauthorized))
				return
			}

			claims, err := v.ValidateToken(token, scope)
			if err != nil {
				writeErr(w, r, err)
				return
			}

			if scope == user.ScopeTenant {
				tid := TenantIDFromContext(r.Context())
				if tid == "" || claims.TenantID != tid {
					writeErr(w, r, ErrWrongTenant)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerOrCookie extracts a session token, preferring the Authorization header.
func BearerOrCookie(r *http.Request, cookie string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie == "" {
		return ""
	}
	if c, err := r.Cookie(cookie); err == nil {
		return c.Value
	}
	return ""
}

// ClaimsFromContext returns the authenticated session, or nil.
func ClaimsFromContext(ctx context.Context) *user.Claims {
	c, _ := ctx.Value(claimsCtxKey{}).(*user.Claims)
	return c
}

// WithClaims stores an authenticated session in ctx.
func WithClaims(ctx context.Context, c *user.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, c)
}
