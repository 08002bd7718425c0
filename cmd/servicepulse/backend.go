package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cfhttp "github.com/Strob0t/ServicePulse/internal/adapter/http"
	"github.com/Strob0t/ServicePulse/internal/adapter/memstore"
	"github.com/Strob0t/ServicePulse/internal/adapter/minio"
	cfnats "github.com/Strob0t/ServicePulse/internal/adapter/nats"
	"github.com/Strob0t/ServicePulse/internal/adapter/postgres"
	"github.com/Strob0t/ServicePulse/internal/adapter/ristretto"
	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/port/database"
	"github.com/Strob0t/ServicePulse/internal/port/messagequeue"
	"github.com/Strob0t/ServicePulse/internal/port/objectstore"
	"github.com/Strob0t/ServicePulse/internal/service"
)

// backend bundles the infrastructure one process talks to.
type backend struct {
	store   database.Store
	objects objectstore.Store
	queue   messagequeue.Queue
	ready   map[string]cfhttp.ReadinessCheck
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openDatabase connects to PostgreSQL without touching the schema.
func openDatabase(ctx context.Context, cfg *config.Config) (*postgres.Store, func(), error) {
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	return postgres.NewStore(pool), pool.Close, nil
}

// openBackend wires PostgreSQL, MinIO and the optional NATS connection.
// Migrations run first so a fresh database is usable immediately.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{ready: map[string]cfhttp.ReadinessCheck{}}

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	store, closeDB, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, closeDB)
	b.store = store
	b.ready["postgres"] = store.Ping
	slog.Info("postgres connected")

	objects, err := minio.New(cfg.Storage)
	if err != nil {
		b.Close()
		return nil, err
	}
	if err := objects.EnsureBucket(ctx, cfg.Storage.Region); err != nil {
		b.Close()
		return nil, fmt.Errorf("bucket %s: %w", cfg.Storage.Bucket, err)
	}
	b.objects = objects
	b.ready["storage"] = objects.Ping
	slog.Info("object storage ready", "bucket", cfg.Storage.Bucket)

	if cfg.NATS.URL != "" {
		q, err := cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("nats: %w", err)
		}
		b.queue = q
		b.closers = append(b.closers, func() { _ = q.Drain() })
		b.ready["nats"] = func(context.Context) error {
			if !q.IsConnected() {
				return fmt.Errorf("nats disconnected")
			}
			return nil
		}
		slog.Info("nats connected")
	} else {
		slog.Warn("nats url empty, cache invalidation stays local to this replica")
	}
	return b, nil
}

// newCLIResolver builds a resolver whose invalidations reach running servers
// over NATS. Without NATS their cached entries expire after the cache TTL.
func newCLIResolver(ctx context.Context, cfg *config.Config, repo database.TenantRepository) (*service.TenantResolver, func(), error) {
	cache, err := ristretto.New(16, time.Minute)
	if err != nil {
		return nil, nil, err
	}
	if cfg.NATS.URL == "" {
		return service.NewTenantResolver(repo, cache, nil), cache.Close, nil
	}
	q, err := cfnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		cache.Close()
		return nil, nil, fmt.Errorf("nats: %w", err)
	}
	closeAll := func() {
		_ = q.Drain()
		cache.Close()
	}
	return service.NewTenantResolver(repo, cache, q), closeAll, nil
}

// memoryBackend runs everything in process and seeds the default tenant, for
// demos and frontend development without infrastructure.
func memoryBackend(ctx context.Context, cfg *config.Config, auth func(database.Store) *service.AuthService) (*backend, error) {
	store := memstore.New()
	publicURL := strings.TrimRight(cfg.Storage.PublicURL, "/") + "/" + cfg.Storage.Bucket
	b := &backend{
		store:   store,
		objects: memstore.NewObjects(publicURL),
		ready:   map[string]cfhttp.ReadinessCheck{},
	}

	opts := service.SeedOptionsFrom(cfg.Tenancy, cfg.Auth)
	if opts.OwnerPassword == "" {
		opts.OwnerEmail = ""
	}
	rep, err := service.NewSeedService(store, auth(store), nil).Run(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("seed in-memory store: %w", err)
	}
	slog.Warn("running on the in-memory store, data is lost on exit",
		"tenant", opts.TenantID,
		"domains", rep.DomainsAdded,
		"owner_created", rep.OwnerCreated,
	)
	return b, nil
}
