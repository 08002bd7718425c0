package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/metrics"
)

// RateLimiter limits requests per client over a fixed period.
type RateLimiter struct {
	limiter    *limiter.Limiter
	trustProxy bool
	writeErr   ErrorWriter
}

// NewRateLimiter creates an in-memory rate limiter from configuration.
func NewRateLimiter(cfg config.Rate, writeErr ErrorWriter) *RateLimiter {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "servicepulse",
		CleanUpInterval: time.Minute,
	})
	rate := limiter.Rate{Period: cfg.Period, Limit: cfg.Limit}
	return &RateLimiter{limiter: limiter.New(store, rate), trustProxy: cfg.TrustProxy, writeErr: writeErr}
}

// Handler returns HTTP middleware that enforces the limit per client IP.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lc, err := rl.limiter.Get(r.Context(), rl.clientIP(r))
		if err != nil {
			// The memory store does not fail; never block traffic if it does.
			slog.WarnContext(r.Context(), "rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))

		if lc.Reached {
			retry := max(lc.Reset-time.Now().Unix(), 1)
			h.Set("Retry-After", strconv.FormatInt(retry, 10))
			metrics.RecordRateLimited()
			rl.writeErr(w, r, fmt.Errorf("%w: retry in %ds", domain.ErrRateLimited, retry))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP keys the limit. X-Forwarded-For is only trusted when the API
// sits behind the edge proxy, and then only its last hop.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
