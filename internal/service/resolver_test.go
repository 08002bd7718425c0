package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/ServicePulse/internal/adapter/memstore"
	"github.com/Strob0t/ServicePulse/internal/adapter/ristretto"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/port/messagequeue"
)

// loopQueue delivers published messages synchronously to every subscriber,
// like core NATS fan-out within one process.
type loopQueue struct {
	mu   sync.Mutex
	subs map[string][]messagequeue.Handler
}

func newLoopQueue() *loopQueue { return &loopQueue{subs: map[string][]messagequeue.Handler{}} }

func (q *loopQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	hs := append([]messagequeue.Handler(nil), q.subs[subject]...)
	q.mu.Unlock()
	for _, h := range hs {
		if err := h(ctx, subject, data); err != nil {
			return err
		}
	}
	return nil
}

func (q *loopQueue) Subscribe(_ context.Context, subject string, h messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subs[subject] = append(q.subs[subject], h)
	return func() {}, nil
}

func (q *loopQueue) Drain() error      { return nil }
func (q *loopQueue) Close() error      { return nil }
func (q *loopQueue) IsConnected() bool { return true }

func TestResolver_ResolvesAndCaches(t *testing.T) {
	store := &countingTenants{Store: memstore.New()}
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	r := NewTenantResolver(store, newMapCache(), nil)
	ctx := context.Background()

	for _, host := range []string{"shop-a.be", "WWW.Shop-A.be:443", "shop-a.be."} {
		tc, err := r.Resolve(ctx, host)
		if err != nil {
			t.Fatalf("resolve %q: %v", host, err)
		}
		if tc.TenantID != "tenant-a" {
			t.Errorf("resolve %q tenant = %q", host, tc.TenantID)
		}
	}
	if n := store.calls.Load(); n != 1 {
		t.Errorf("db lookups = %d, want 1", n)
	}
}

func TestResolver_NotFoundNoFallback(t *testing.T) {
	store := memstore.New()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	r := NewTenantResolver(store, newMapCache(), nil)

	_, err := r.Resolve(context.Background(), "unknown.be")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("err = %v, want ErrTenantNotFound", err)
	}
	_, err = r.Resolve(context.Background(), "")
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Errorf("empty host err = %v, want ErrBadRequest", err)
	}
}

func TestResolver_PendingDomainDoesNotResolve(t *testing.T) {
	store := memstore.New()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	if err := store.AddDomain(context.Background(), &tenant.Domain{TenantID: "tenant-a", Domain: "new-a.be"}); err != nil {
		t.Fatal(err)
	}
	r := NewTenantResolver(store, newMapCache(), nil)
	if _, err := r.Resolve(context.Background(), "new-a.be"); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("err = %v, want ErrTenantNotFound", err)
	}
}

func TestResolver_StatusCheckedOnCacheHit(t *testing.T) {
	store := memstore.New()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	c := newMapCache()
	r := NewTenantResolver(store, c, nil)
	ctx := context.Background()

	if _, err := r.Resolve(ctx, "shop-a.be"); err != nil {
		t.Fatal(err)
	}
	// Simulate a stale cache entry that already carries the new status.
	tc, _ := c.Get("shop-a.be")
	suspended := *tc
	suspended.Status = tenant.StatusSuspended
	c.Set("shop-a.be", &suspended)

	if _, err := r.Resolve(ctx, "shop-a.be"); !errors.Is(err, domain.ErrTenantSuspended) {
		t.Errorf("err = %v, want ErrTenantSuspended", err)
	}

	suspended.Status = tenant.StatusArchived
	c.Set("shop-a.be", &suspended)
	if _, err := r.Resolve(ctx, "shop-a.be"); !errors.Is(err, domain.ErrTenantUnavailable) {
		t.Errorf("err = %v, want ErrTenantUnavailable", err)
	}
}

func TestResolver_InvalidateTenantAfterSuspend(t *testing.T) {
	store := memstore.New()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	r := NewTenantResolver(store, newMapCache(), nil)
	ctx := context.Background()

	if _, err := r.Resolve(ctx, "shop-a.be"); err != nil {
		t.Fatal(err)
	}
	store.SetStatus("tenant-a", tenant.StatusSuspended)
	r.InvalidateTenant(ctx, "tenant-a")

	if _, err := r.Resolve(ctx, "shop-a.be"); !errors.Is(err, domain.ErrTenantSuspended) {
		t.Errorf("err = %v, want ErrTenantSuspended", err)
	}
}

func TestResolver_ConcurrentMissesCollapse(t *testing.T) {
	store := &countingTenants{Store: memstore.New(), gate: make(chan struct{})}
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	r := NewTenantResolver(store, newMapCache(), nil)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), "shop-a.be")
			errs <- err
		}()
	}
	// Wait until the first lookup is in flight, then release it.
	for store.calls.Load() == 0 {
		runtime.Gosched()
	}
	close(store.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("resolve: %v", err)
		}
	}
	// Goroutines scheduled after the flight may start their own, but
	// the concurrent ones must share it.
	if got := store.calls.Load(); got >= n {
		t.Errorf("db lookups = %d, want fewer than %d", got, n)
	}
}

func TestResolver_SuspendDuringLoadIsNotCached(t *testing.T) {
	store := &countingTenants{Store: memstore.New(), gate: make(chan struct{})}
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	c, err := ristretto.New(100, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	r := NewTenantResolver(store, c, nil)
	svc := NewTenantService(store.Store, r, newTestAuthService(store.Store))
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx, "shop-a.be")
		first <- err
	}()
	// The first lookup has read the tenant as active and is parked.
	for store.calls.Load() == 0 {
		runtime.Gosched()
	}

	if _, err := svc.SetStatus(ctx, Actor{UserID: "owner"}, "tenant-a", tenant.StatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	close(store.gate)

	if err := <-first; !errors.Is(err, domain.ErrTenantSuspended) {
		t.Errorf("in-flight resolve err = %v, want ErrTenantSuspended", err)
	}
	if _, err := r.Resolve(ctx, "shop-a.be"); !errors.Is(err, domain.ErrTenantSuspended) {
		t.Errorf("resolve after suspend err = %v, want ErrTenantSuspended", err)
	}
}

func TestResolver_InvalidationNotifiesListener(t *testing.T) {
	store := memstore.New()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	r := NewTenantResolver(store, newMapCache(), nil)
	var got []string
	r.OnInvalidate = func(id string) { got = append(got, id) }

	r.InvalidateTenant(context.Background(), "tenant-a")
	if err := r.HandleInvalidation(context.Background(), messagequeue.SubjectTenantInvalidate, []byte(`{"tenantId":"tenant-a"}`)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "tenant-a" {
		t.Errorf("notified = %v, want tenant-a twice", got)
	}
}

func TestResolver_InvalidationFansOutToReplicas(t *testing.T) {
	store := memstore.New()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	q := newLoopQueue()
	ctx := context.Background()

	cacheA, cacheB := newMapCache(), newMapCache()
	a := NewTenantResolver(store, cacheA, q)
	b := NewTenantResolver(store, cacheB, q)
	if _, err := b.Listen(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Resolve(ctx, "shop-a.be"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Resolve(ctx, "shop-a.be"); err != nil {
		t.Fatal(err)
	}

	a.InvalidateTenant(ctx, "tenant-a")
	if _, ok := cacheB.Get("shop-a.be"); ok {
		t.Error("replica b still caches shop-a.be after tenant invalidation")
	}

	if _, err := b.Resolve(ctx, "shop-a.be"); err != nil {
		t.Fatal(err)
	}
	a.InvalidateHost(ctx, "WWW.shop-a.be")
	if _, ok := cacheB.Get("shop-a.be"); ok {
		t.Error("replica b still caches shop-a.be after host invalidation")
	}
}

func TestResolver_ReturnsCopy(t *testing.T) {
	store := memstore.New()
	store.AddTenant("tenant-a", "shop-a", "shop-a.be")
	r := NewTenantResolver(store, newMapCache(), nil)
	ctx := context.Background()

	tc, err := r.Resolve(ctx, "shop-a.be")
	if err != nil {
		t.Fatal(err)
	}
	tc.TenantID = "mutated"
	again, err := r.Resolve(ctx, "shop-a.be")
	if err != nil {
		t.Fatal(err)
	}
	if again.TenantID != "tenant-a" {
		t.Errorf("cached entry mutated: %q", again.TenantID)
	}
}
