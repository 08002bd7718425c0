package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/middleware"
	"github.com/Strob0t/ServicePulse/internal/service"
)

// TicketSocket serves the tenant-scoped ticket event stream.
type TicketSocket interface {
	ServeTenant(w http.ResponseWriter, r *http.Request, tenantID string, expires time.Time)
}

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handlers holds the services every HTTP handler depends on.
type Handlers struct {
	Auth       *service.AuthService
	Tenants    *service.TenantService
	Seed       *service.SeedService
	Categories *service.CategoryService
	Products   *service.ProductService
	Banners    *service.BannerService
	Discounts  *service.DiscountService
	Settings   *service.SettingService
	Audit      *service.AuditService
	Tickets    *service.TicketService
	Uploads    *service.UploadService
	Hub        TicketSocket

	// Session carries cookie names, lifetimes and the Secure flag.
	Session config.Auth
	// Ready maps dependency names to readiness probes for /health/ready.
	Ready map[string]ReadinessCheck
	// Errors renders the error envelope. NewRouter fills in a development
	// writer when nil.
	Errors middleware.ErrorWriter
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.Errors(w, r, err)
}

// Health is the liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady runs every readiness probe and reports 503 if any fails.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.Ready))
	for name, check := range h.Ready {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeData(w, status, map[string]any{"status": overall, "checks": checks})
}

// PublicConfig returns the storefront view of the resolved tenant's configuration.
func (h *Handlers) PublicConfig(w http.ResponseWriter, r *http.Request) {
	tc := middleware.TenantFromContext(r.Context())
	if tc == nil {
		h.writeError(w, r, &StatusError{Status: http.StatusBadRequest, Message: "Invalid Host header"})
		return
	}
	writeData(w, http.StatusOK, tc.Public())
}
