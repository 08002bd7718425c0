// Package objectstore defines the port for S3-compatible blob storage.
package objectstore

import (
	"context"
	"io"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain/upload"
)

// Store persists uploaded files. Objects are tagged with the tenant that
// stored them; List and Stat only expose that tag, they do not filter by
// key, because keys follow the shared {folder}/{uuid}.{ext} layout.
type Store interface {
	Put(ctx context.Context, tenantID, key string, r io.Reader, size int64, contentType string) error
	// TenantOf returns the tenant tag of key, or domain.ErrNotFound.
	TenantOf(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// List returns at most limit objects of tenantID under prefix, most recent first.
	List(ctx context.Context, tenantID, prefix string, limit int) ([]upload.Object, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}
