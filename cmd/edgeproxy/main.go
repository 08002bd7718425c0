// Command edgeproxy relays browser API calls to the backend while keeping
// the shop hostname, so one backend serves every tenant.
package main

import (
	"context"
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

	"github.com/Strob0t/ServicePulse/internal/adapter/otel"
	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/edgeproxy"
	"github.com/Strob0t/ServicePulse/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// options are the command line overrides of the proxy section.
type options struct {
	configFile string
	listen     string
	backend    string
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "edgeproxy",
		Short:         "Host-preserving relay of /api calls to the backend",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&o.configFile, "config", config.DefaultConfigFile, "YAML configuration file")
	cmd.Flags().StringVar(&o.listen, "listen", "", "listen address (overrides proxy.listen)")
	cmd.Flags().StringVar(&o.backend, "backend", "", "backend base URL (overrides proxy.backend_url)")
	return cmd
}

func (o *options) load() (*config.Config, error) {
	cfg, err := config.LoadWith(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if o.listen != "" {
		cfg.Proxy.Listen = o.listen
	}
	if o.backend != "" {
		cfg.Proxy.BackendURL = o.backend
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	cfg.Logging.Service = "edgeproxy"
	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := url.Parse(cfg.Proxy.BackendURL)
	if err != nil {
		return fmt.Errorf("proxy.backend_url: %w", err)
	}

	otelCfg := cfg.OTEL
	otelCfg.ServiceName = "edgeproxy"
	shutdownTracer, err := otel.InitTracer(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	p, err := edgeproxy.New(edgeproxy.Options{
		Backend:    backend,
		Timeout:    cfg.Proxy.Timeout,
		Production: cfg.Server.IsProduction(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Proxy.Listen,
		Handler:           edgeproxy.NewHandler(p, otelCfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting edge proxy", "addr", srv.Addr, "backend", backend.String())
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
	slog.Info("shutting down edge proxy")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
