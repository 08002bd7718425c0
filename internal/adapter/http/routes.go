package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/ServicePulse/internal/adapter/otel"
	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/domain/access"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
	"github.com/Strob0t/ServicePulse/internal/metrics"
	"github.com/Strob0t/ServicePulse/internal/middleware"
)

// RouterOptions configures the middleware chain around the routes.
type RouterOptions struct {
	Resolver       middleware.TenantResolver
	Rate           config.Rate
	CORSOrigin     string
	ServiceName    string
	RequestTimeout time.Duration
}

// NewRouter builds the complete API handler: global middleware, probes and
// every route of MountRoutes.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	if h.Errors == nil {
		h.Errors = NewErrorWriter(false)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover(h.Errors))
	r.Use(otel.HTTPMiddleware(opts.ServiceName))
	r.Use(SecurityHeaders)
	r.Use(CORS(opts.CORSOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, &StatusError{Status: http.StatusNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, &StatusError{Status: http.StatusMethodNotAllowed, Message: "Methode niet toegestaan"})
	})

	r.Get("/health", h.Health)
	r.Get("/health/ready", h.HealthReady)
	r.Handle("/metrics", metrics.Handler())

	MountRoutes(r, h, opts)
	return r
}

// MountRoutes registers all /api routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, opts RouterOptions) {
	limiter := middleware.NewRateLimiter(opts.Rate, h.Errors)
	tenantSession := middleware.Auth(h.Auth, user.ScopeTenant, h.Session.TenantCookie, h.Errors)
	ownerSession := middleware.Auth(h.Auth, user.ScopePlatform, h.Session.OwnerCookie, h.Errors)
	can := func(a access.Action) func(http.Handler) http.Handler {
		return middleware.RequireAction(a, h.Errors)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Use(middleware.Tenant(opts.Resolver, h.Errors, middleware.PlatformPaths...))

		// Long-lived; outside the request timeout.
		r.With(tenantSession, can(access.TicketsManage)).Get("/tickets/ws", h.TicketEvents)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(opts.RequestTimeout))

			// Sessions
			r.Post("/auth/login", h.Login)
			r.Post("/auth/owner-login", h.OwnerLogin)
			r.Post("/auth/logout", h.Logout)
			r.Post("/auth/exchange", h.Exchange)
			r.With(tenantSession).Get("/auth/me", h.Me)
			r.With(tenantSession).Post("/auth/exchange-code", h.CreateExchangeCode)

			mountStorefront(r, h)

			r.Group(func(r chi.Router) {
				r.Use(tenantSession)
				mountAdmin(r, h, can)
			})

			r.Group(func(r chi.Router) {
				r.Use(ownerSession)
				r.Use(middleware.RequireOwner(h.Errors))
				mountOwner(r, h)
			})
		})
	})
}

// mountStorefront registers anonymous routes of the resolved tenant.
func mountStorefront(r chi.Router, h *Handlers) {
	r.Get("/tenant/config", h.PublicConfig)

	r.Get("/categories", h.ListCategories(true))
	r.Get("/categories/{id}", handleGet(h.Errors, h.Categories.Get))
	r.Get("/products", h.ListProducts(true))
	r.Get("/products/{id}", handleGet(h.Errors, h.Products.Get))

	r.Get("/banners/active", h.ActiveBanners)
	r.Post("/discounts/validate", h.ValidateDiscount)

	r.Post("/tickets", h.CreateTicket)
	r.Get("/tickets/session/{sessionId}", h.SessionTickets)
	r.Post("/tickets/{id}/messages", h.CustomerMessage)

	r.Post("/upload", h.UploadPublic)
}

// mountAdmin registers tenant routes that need a tenant session.
func mountAdmin(r chi.Router, h *Handlers, can func(access.Action) func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(can(access.CatalogWrite))
		r.Get("/categories/all", h.ListCategories(false))
		r.Post("/categories", handleCreate(h.Errors, h.Categories.Create))
		r.Put("/categories/{id}", handleUpdate(h.Errors, h.Categories.Update))
		r.Patch("/categories/{id}", handleUpdate(h.Errors, h.Categories.Update))
		r.Delete("/categories/{id}", handleDelete(h.Errors, h.Categories.Delete))

		r.Get("/products/all", h.ListProducts(false))
		r.Post("/products", handleCreate(h.Errors, h.Products.Create))
		r.Put("/products/{id}", handleUpdate(h.Errors, h.Products.Update))
		r.Patch("/products/{id}", handleUpdate(h.Errors, h.Products.Update))
		r.Delete("/products/{id}", handleDelete(h.Errors, h.Products.Delete))
	})

	r.Group(func(r chi.Router) {
		r.Use(can(access.MarketingWrite))
		r.Get("/banners", handleList(h.Errors, h.Banners.List))
		r.Get("/banners/{id}", handleGet(h.Errors, h.Banners.Get))
		r.Post("/banners", handleCreate(h.Errors, h.Banners.Create))
		r.Put("/banners/{id}", handleUpdate(h.Errors, h.Banners.Update))
		r.Patch("/banners/{id}", handleUpdate(h.Errors, h.Banners.Update))
		r.Delete("/banners/{id}", handleDelete(h.Errors, h.Banners.Delete))

		r.Get("/discounts", handleList(h.Errors, h.Discounts.List))
		r.Get("/discounts/{id}", handleGet(h.Errors, h.Discounts.Get))
		r.Post("/discounts", handleCreate(h.Errors, h.Discounts.Create))
		r.Put("/discounts/{id}", handleUpdate(h.Errors, h.Discounts.Update))
		r.Patch("/discounts/{id}", handleUpdate(h.Errors, h.Discounts.Update))
		r.Delete("/discounts/{id}", handleDelete(h.Errors, h.Discounts.Delete))
	})

	r.Group(func(r chi.Router) {
		r.Use(can(access.SettingsWrite))
		r.Get("/settings", handleList(h.Errors, h.Settings.List))
		r.Get("/settings/{key}", h.GetSetting)
		r.Put("/settings/{key}", h.UpsertSetting)
		r.Delete("/settings/{key}", h.DeleteSetting)
		r.Put("/tenant/config", h.UpdateShopConfig)
	})

	r.Group(func(r chi.Router) {
		r.Use(can(access.TicketsManage))
		r.Get("/tickets", h.ListTickets)
		r.Get("/tickets/{id}", h.GetTicket)
		r.Patch("/tickets/{id}", h.UpdateTicket)
		r.Post("/tickets/{id}/reply", h.StaffReply)
	})

	r.Group(func(r chi.Router) {
		r.Use(can(access.UploadsWrite))
		r.Post("/upload/image", h.UploadImage)
		r.Post("/upload/images", h.UploadImages)
		r.Get("/upload/assets", h.ListAssets)
		r.Get("/upload/url/*", h.PresignUpload)
		r.Delete("/upload/*", h.DeleteUpload)
	})

	r.With(can(access.AuditRead)).Get("/audit-logs", h.ListAuditLogs)
}

// mountOwner registers the platform console. No tenant is resolved here.
func mountOwner(r chi.Router, h *Handlers) {
	r.Get("/owner/me", h.Me)
	r.Get("/owner/stats", h.PlatformStats)

	r.Get("/owner/tenants", h.ListTenants)
	r.Post("/owner/tenants", h.CreateTenant)
	r.Get("/owner/tenants/{id}", h.GetTenant)
	r.Patch("/owner/tenants/{id}", h.UpdateTenant)
	r.Post("/owner/tenants/{id}/activate", h.SetTenantStatus(tenant.StatusActive))
	r.Post("/owner/tenants/{id}/suspend", h.SetTenantStatus(tenant.StatusSuspended))
	r.Post("/owner/tenants/{id}/archive", h.SetTenantStatus(tenant.StatusArchived))
	r.Post("/owner/tenants/{id}/backfill", h.BackfillTenant)

	r.Post("/owner/tenants/{id}/domains", h.AddDomain)
	r.Post("/owner/tenants/{id}/domains/{domainId}/verify", h.VerifyDomain)
	r.Delete("/owner/tenants/{id}/domains/{domainId}", h.RemoveDomain)

	r.Get("/owner/tenants/{id}/config", h.GetTenantConfig)
	r.Put("/owner/tenants/{id}/config", h.UpdateTenantConfig)
	r.Patch("/owner/tenants/{id}/config", h.UpdateTenantConfig)

	r.Get("/owner/tenants/{id}/users", h.ListTenantUsers)
	r.Post("/owner/tenants/{id}/users", h.CreateTenantUser)
}
