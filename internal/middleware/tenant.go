package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/logger"
)

// TenantResolver maps a Host header to a tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, host string) (*tenant.Context, error)
}

type tenantCtxKey struct{}

// PlatformPaths never resolve a tenant. Entries ending in "/" match as prefixes.
var PlatformPaths = []string{
	"/api/owner/",
	"/api/auth/owner-login",
	"/api/auth/logout",
	"/health",
	"/metrics",
}

// Tenant resolves the tenant of every request from X-Forwarded-Host, set
// by the edge proxy, or the Host header. Unresolvable requests are
// rejected; there is no default tenant.
func Tenant(resolver TenantResolver, writeErr ErrorWriter, skip ...string) func(http.Handler) http.Handler {
	if len(skip) == 0 {
		skip = PlatformPaths
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped(r.URL.Path, skip) {
				next.ServeHTTP(w, r)
				return
			}

			tc, err := resolver.Resolve(r.Context(), RequestHost(r))
			if err != nil {
				writeErr(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey{}, tc)
			ctx = logger.WithTenantID(ctx, tc.TenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestHost returns the host the client originally asked for.
func RequestHost(r *http.Request) string {
	if fwd := tenant.FirstHost(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		return fwd
	}
	return r.Host
}

func skipped(path string, skip []string) bool {
	for _, p := range skip {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) || path == strings.TrimSuffix(p, "/") {
				return true
			}
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// TenantFromContext returns the resolved tenant, or nil on platform routes.
func TenantFromContext(ctx context.Context) *tenant.Context {
	tc, _ := ctx.Value(tenantCtxKey{}).(*tenant.Context)
	return tc
}

// TenantIDFromContext returns the resolved tenant ID, or "" on platform routes.
func TenantIDFromContext(ctx context.Context) string {
	if tc := TenantFromContext(ctx); tc != nil {
		return tc.TenantID
	}
	return ""
}

// WithTenant stores tc in ctx. Used by tests and the CLI.
func WithTenant(ctx context.Context, tc *tenant.Context) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tc)
}
