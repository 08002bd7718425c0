package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/Strob0t/ServicePulse/internal/adapter/otel"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/upload"
	"github.com/Strob0t/ServicePulse/internal/metrics"
	"github.com/Strob0t/ServicePulse/internal/port/objectstore"
)

// File is one incoming upload.
type File struct {
	Name         string
	DeclaredType string
	Size         int64
	Body         io.Reader
}

// UploadService stores files in object storage under a MIME policy.
type UploadService struct {
	store      objectstore.Store
	presignTTL time.Duration
}

// NewUploadService creates an UploadService.
func NewUploadService(store objectstore.Store, presignTTL time.Duration) *UploadService {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &UploadService{store: store, presignTTL: presignTTL}
}

// Upload stores one file for tenantID. The content type is sniffed from
// the bytes; a declared type that disagrees with the content is rejected.
func (s *UploadService) Upload(ctx context.Context, tenantID string, policy upload.Policy, f File) (*upload.Result, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	ctx, span := otel.StartUploadSpan(ctx, tenantID, policy.Folder, f.DeclaredType, f.Size)
	defer span.End()

	res, err := s.put(ctx, tenantID, policy, f)
	metrics.RecordUpload(policy.Folder, err == nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	slog.InfoContext(ctx, "file uploaded", "key", res.Key, "mime", res.MimeType, "size", res.Size)
	return res, nil
}

func (s *UploadService) put(ctx context.Context, tenantID string, policy upload.Policy, f File) (*upload.Result, error) {
	if f.Size > upload.MaxFileSize {
		return nil, invalid("file %q exceeds the %d MB limit", f.Name, upload.MaxFileSize>>20)
	}
	// Read at most one byte past the limit so oversized bodies with a lying
	// Content-Length are still caught.
	data, err := io.ReadAll(io.LimitReader(f.Body, upload.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %w", domain.ErrBadRequest, err)
	}
	if len(data) == 0 {
		return nil, invalid("file %q is empty", f.Name)
	}
	if len(data) > upload.MaxFileSize {
		return nil, invalid("file %q exceeds the %d MB limit", f.Name, upload.MaxFileSize>>20)
	}

	mime, err := detect(data, f.DeclaredType)
	if err != nil {
		return nil, err
	}
	if !policy.Allows(mime) {
		return nil, invalid("file type %s is not allowed", mime)
	}

	key := fmt.Sprintf("%s/%s.%s", policy.Folder, uuid.NewString(), policy.Ext(mime))
	if err := s.store.Put(ctx, tenantID, key, bytes.NewReader(data), int64(len(data)), mime); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	return &upload.Result{
		Key:          key,
		URL:          s.store.PublicURL(key),
		OriginalName: path.Base(f.Name),
		MimeType:     mime,
		Size:         int64(len(data)),
	}, nil
}

// UploadMany stores up to upload.MaxBatch files and stops at the first failure.
func (s *UploadService) UploadMany(ctx context.Context, tenantID string, policy upload.Policy, files []File) ([]upload.Result, error) {
	if len(files) == 0 {
		return nil, invalid("no files provided")
	}
	if len(files) > upload.MaxBatch {
		return nil, invalid("at most %d files per request", upload.MaxBatch)
	}
	out := make([]upload.Result, 0, len(files))
	for _, f := range files {
		r, err := s.Upload(ctx, tenantID, policy, f)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// Delete removes key if it belongs to tenantID. Objects of other tenants
// are reported as missing.
func (s *UploadService) Delete(ctx context.Context, tenantID, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	owner, err := s.store.TenantOf(ctx, key)
	if err != nil {
		return err
	}
	if owner != tenantID {
		return fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	slog.InfoContext(ctx, "file deleted", "key", key)
	return nil
}

// List returns the tenant's objects in folder.
func (s *UploadService) List(ctx context.Context, tenantID, folder string, limit int) ([]upload.Object, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	prefix := ""
	if folder != "" {
		prefix = strings.Trim(folder, "/") + "/"
	}
	return s.store.List(ctx, tenantID, prefix, limit)
}

// PresignedURL returns a temporary download link for a tenant's object.
func (s *UploadService) PresignedURL(ctx context.Context, tenantID, key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	owner, err := s.store.TenantOf(ctx, key)
	if err != nil {
		return "", err
	}
	if owner != tenantID {
		return "", fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
	}
	return s.store.PresignGet(ctx, key, s.presignTTL)
}

// detect sniffs the content type. Text formats are only trusted when the
// client declared the same base type, since sniffing plain text is weak.
func detect(data []byte, declared string) (string, error) {
	m := mimetype.Detect(data)
	sniffed := m.String()
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared == "" || declared == "application/octet-stream" {
		return sniffed, nil
	}
	if declared == sniffed {
		return sniffed, nil
	}
	// Office formats sniff as zip containers or via their parent type.
	for p := m; p != nil; p = p.Parent() {
		if p.Is(declared) {
			return declared, nil
		}
	}
	if m.Is("application/zip") && strings.HasPrefix(declared, "application/vnd.openxmlformats") {
		return declared, nil
	}
	return "", invalid("file content (%s) does not match declared type %s", sniffed, declared)
}

func checkKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return invalid("invalid object key")
	}
	return nil
}
