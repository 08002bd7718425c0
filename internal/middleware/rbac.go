package middleware

import (
	"fmt"
	"net/http"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/access"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
)

// RequireAction restricts a route to roles allowed to perform action.
func RequireAction(action access.Action, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := ClaimsFromContext(r.Context())
			if c == nil {
				writeErr(w, r, fmt.Errorf("%w: authorization required", domain.ErrUnauthorized))
				return
			}
			if !access.CanAccess(c.Role, action) {
				writeErr(w, r, fmt.Errorf("%w: role %s may not %s", domain.ErrForbidden, c.Role, action))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner restricts a route to platform-scoped owner sessions.
func RequireOwner(writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := ClaimsFromContext(r.Context())
			if c == nil {
				writeErr(w, r, fmt.Errorf("%w: authorization required", domain.ErrUnauthorized))
				return
			}
			if c.Scope != user.ScopePlatform || c.Role != user.RoleOwner {
				writeErr(w, r, fmt.Errorf("%w: platform owner only", domain.ErrForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
