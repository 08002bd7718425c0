package edgeproxy

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	cfhttp "github.com/Strob0t/ServicePulse/internal/adapter/http"
	"github.com/Strob0t/ServicePulse/internal/adapter/otel"
	"github.com/Strob0t/ServicePulse/internal/metrics"
	"github.com/Strob0t/ServicePulse/internal/middleware"
)

// NewHandler mounts p under /api/* with request IDs, access logging and
// tracing. Everything else besides the probes is 404.
func NewHandler(p *Proxy, serviceName string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover(p.errors))
	r.Use(otel.HTTPMiddleware(serviceName))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		p.errors(w, r, &cfhttp.StatusError{Status: http.StatusNotFound})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"success":true,"data":{"status":"ok"}}`))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/api", p)
	r.Handle("/api/*", p)
	return r
}
