package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cfhttp "github.com/Strob0t/ServicePulse/internal/adapter/http"
	"github.com/Strob0t/ServicePulse/internal/adapter/otel"
	"github.com/Strob0t/ServicePulse/internal/adapter/ristretto"
	"github.com/Strob0t/ServicePulse/internal/adapter/ws"
	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/port/database"
	"github.com/Strob0t/ServicePulse/internal/service"
)

const codeCleanupInterval = 5 * time.Minute

func newServeCmd(c *cli) *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), c.cfg, inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "use an in-process store seeded with the default tenant")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, inMemory bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		cfg.Auth.JWTSecret = secret
		slog.Warn("jwt secret not configured, generated an ephemeral one; sessions end on restart")
	}

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"env", cfg.Server.Env,
		"log_level", cfg.Logging.Level,
		"in_memory", inMemory,
	)

	shutdownTracer, err := otel.InitTracer(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	// --- Infrastructure ---

	newAuth := func(store database.Store) *service.AuthService {
		return service.NewAuthService(store, store, &cfg.Auth)
	}
	var b *backend
	if inMemory {
		b, err = memoryBackend(ctx, cfg, newAuth)
	} else {
		b, err = openBackend(ctx, cfg)
	}
	if err != nil {
		return err
	}
	defer b.Close()

	cache, err := ristretto.New(cfg.Tenancy.CacheMaxEntries, cfg.Tenancy.CacheTTL)
	if err != nil {
		return fmt.Errorf("tenant cache: %w", err)
	}
	defer cache.Close()

	// --- Services ---

	store := b.store
	hub := ws.NewHub(originPatterns(cfg.Server.CORSOrigin)...)
	defer hub.Close()

	resolver := service.NewTenantResolver(store, cache, b.queue)
	resolver.OnInvalidate = hub.CloseTenant
	cancelInvalidations, err := resolver.Listen(ctx)
	if err != nil {
		return fmt.Errorf("tenant invalidation subscriber: %w", err)
	}
	defer cancelInvalidations()

	auth := newAuth(store)
	auth.StartCodeCleanup(ctx, codeCleanupInterval)

	tickets := service.NewTicketService(store, hub, b.queue)
	cancelTickets, err := tickets.Listen(ctx)
	if err != nil {
		return fmt.Errorf("ticket event subscriber: %w", err)
	}
	defer cancelTickets()

	handlers := &cfhttp.Handlers{
		Auth:       auth,
		Tenants:    service.NewTenantService(store, resolver, auth),
		Seed:       service.NewSeedService(store, auth, resolver),
		Categories: service.NewCategoryService(store),
		Products:   service.NewProductService(store),
		Banners:    service.NewBannerService(store),
		Discounts:  service.NewDiscountService(store),
		Settings:   service.NewSettingService(store, resolver),
		Audit:      service.NewAuditService(store),
		Tickets:    tickets,
		Uploads:    service.NewUploadService(b.objects, cfg.Storage.PresignTTL),
		Hub:        hub,
		Session:    cfg.Auth,
		Ready:      b.ready,
		Errors:     cfhttp.NewErrorWriter(cfg.Server.IsProduction()),
	}

	// --- HTTP ---

	router := cfhttp.NewRouter(handlers, cfhttp.RouterOptions{
		Resolver:       resolver,
		Rate:           cfg.Rate,
		CORSOrigin:     cfg.Server.CORSOrigin,
		ServiceName:    cfg.OTEL.ServiceName,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return listenAndShutdown(ctx, srv, cfg.Server.ShutdownTimeout)
}

// listenAndShutdown serves until ctx is done, then drains in-flight requests.
func listenAndShutdown(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// originPatterns admits the CORS origin for cross-origin socket handshakes.
// Shop hosts reached through the edge proxy are same-host.
func originPatterns(origin string) []string {
	if origin == "" || origin == "*" {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
