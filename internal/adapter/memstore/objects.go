package memstore

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/upload"
	"github.com/Strob0t/ServicePulse/internal/port/objectstore"
)

var _ objectstore.Store = (*Objects)(nil)

type object struct {
	tenant, contentType string
	data                []byte
	stored              time.Time
}

// Objects is an in-memory objectstore.Store. Public URLs are baseURL/key.
type Objects struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]object
}

// NewObjects creates an empty object store.
func NewObjects(baseURL string) *Objects {
	return &Objects{baseURL: strings.TrimSuffix(baseURL, "/"), objects: map[string]object{}}
}

func (m *Objects) Put(_ context.Context, tenantID, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = object{tenant: tenantID, contentType: contentType, data: data, stored: time.Now()}
	return nil
}

func (m *Objects) TenantOf(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return o.tenant, nil
}

func (m *Objects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Objects) List(_ context.Context, tenantID, prefix string, limit int) ([]upload.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []upload.Object
	for k, o := range m.objects {
		if o.tenant == tenantID && strings.HasPrefix(k, prefix) {
			out = append(out, upload.Object{
				Key:          k,
				URL:          m.PublicURL(k),
				Size:         int64(len(o.data)),
				ContentType:  o.contentType,
				LastModified: o.stored,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Objects) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return m.PublicURL(key) + "?expires=" + ttl.String(), nil
}

func (m *Objects) PublicURL(key string) string { return m.baseURL + "/" + key }
