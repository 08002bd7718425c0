// Package minio implements the object store port on an S3-compatible
// MinIO bucket.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/upload"
	"github.com/Strob0t/ServicePulse/internal/port/objectstore"
	"github.com/Strob0t/ServicePulse/internal/resilience"
)

// metaTenant is stored as x-amz-meta-tenant on every object.
const metaTenant = "Tenant"

// Breaker settings for bucket calls.
const (
	breakerFailures = 5
	breakerCooldown = 30 * time.Second
)

var _ objectstore.Store = (*Store)(nil)

// Store wraps a minio client bound to one bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	breaker   *resilience.Breaker
}

// New connects to the configured endpoint. It does not touch the bucket.
func New(cfg config.Storage) (*Store, error) {
	endpoint := cfg.Endpoint
	if cfg.Port > 0 && !strings.Contains(endpoint, ":") {
		endpoint += ":" + strconv.Itoa(cfg.Port)
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		breaker:   resilience.NewBreaker("storage", breakerFailures, breakerCooldown),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context, region string) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio bucket exists %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("minio make bucket %s: %w", s.bucket, err)
	}
	slog.Info("minio bucket created", "bucket", s.bucket)
	return nil
}

// Put uploads one object tagged with tenantID.
func (s *Store) Put(ctx context.Context, tenantID, key string, r io.Reader, size int64, contentType string) error {
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: map[string]string{metaTenant: tenantID},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", key, err)
	}
	return nil
}

// TenantOf returns the tenant tag of key.
func (s *Store) TenantOf(ctx context.Context, key string) (string, error) {
	var tag string
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
		if err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				return fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
			}
			return fmt.Errorf("minio stat %s: %w", key, err)
		}
		tag = tenantTag(info.UserMetadata)
		return nil
	})
	return tag, err
}

// Delete removes one object. Removing a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	})
	if err != nil {
		return fmt.Errorf("minio remove %s: %w", key, err)
	}
	return nil
}

// List returns tenantID's objects under prefix, newest first.
func (s *Store) List(ctx context.Context, tenantID, prefix string, limit int) ([]upload.Object, error) {
	var objs []upload.Object
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:       prefix,
			Recursive:    true,
			WithMetadata: true,
		}) {
			if info.Err != nil {
				return fmt.Errorf("minio list %s: %w", prefix, info.Err)
			}
			if tenantTag(info.UserMetadata) != tenantID {
				continue
			}
			objs = append(objs, upload.Object{
				Key:          info.Key,
				URL:          s.PublicURL(info.Key),
				Size:         info.Size,
				ContentType:  info.ContentType,
				LastModified: info.LastModified,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(objs, func(i, j int) bool {
		return objs[i].LastModified.After(objs[j].LastModified)
	})
	if limit > 0 && len(objs) > limit {
		objs = objs[:limit]
	}
	return objs, nil
}

// PresignGet returns a time-limited download URL.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("minio presign %s: %w", key, err)
	}
	return u.String(), nil
}

// PublicURL returns {publicURL}/{bucket}/{key}.
func (s *Store) PublicURL(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + strings.TrimLeft(key, "/")
}

// Ping checks the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("bucket " + s.bucket + " missing")
	}
	return nil
}

// tenantTag reads the tenant metadata regardless of header casing and prefix.
func tenantTag(meta map[string]string) string {
	for k, v := range meta {
		k = strings.ToLower(k)
		if k == "tenant" || k == "x-amz-meta-tenant" {
			return v
		}
	}
	return ""
}
