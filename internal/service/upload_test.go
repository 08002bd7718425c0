package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/ServicePulse/internal/adapter/memstore"
	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/upload"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")
	svgBytes = []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
	exeBytes = []byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff\x00\x00")
)

func file(name, mime string, data []byte) File {
	return File{Name: name, DeclaredType: mime, Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func TestUploadService_Policies(t *testing.T) {
	svc := NewUploadService(memstore.NewObjects("http://files/bucket"), time.Minute)
	ctx := context.Background()

	tests := []struct {
		name    string
		policy  upload.Policy
		file    File
		wantErr bool
		wantExt string
	}{
		{"png on image endpoint", upload.ImagePolicy, file("a.png", "image/png", pngBytes), false, ".png"},
		{"svg on public endpoint", upload.PublicPolicy, file("logo.svg", "image/svg+xml", svgBytes), false, ".svg"},
		{"svg on image endpoint", upload.ImagePolicy, file("logo.svg", "image/svg+xml", svgBytes), true, ""},
		{"renamed exe", upload.PublicPolicy, file("cat.png", "image/png", exeBytes), true, ""},
		{"declared type mismatch", upload.ImagePolicy, file("a.jpg", "image/jpeg", pngBytes), true, ""},
		{"empty", upload.PublicPolicy, file("e.txt", "text/plain", nil), true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Upload(ctx, "tenant-a", tt.policy, tt.file)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("err = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("upload: %v", err)
			}
			if !strings.HasPrefix(res.Key, tt.policy.Folder+"/") || !strings.HasSuffix(res.Key, tt.wantExt) {
				t.Errorf("key = %q", res.Key)
			}
			if res.URL != "http://files/bucket/"+res.Key {
				t.Errorf("url = %q", res.URL)
			}
		})
	}
}

func TestUploadService_SizeLimit(t *testing.T) {
	svc := NewUploadService(memstore.NewObjects("http://files/bucket"), time.Minute)
	big := make([]byte, upload.MaxFileSize+1)
	copy(big, pngBytes)
	// Declared size lies; the body is still capped.
	f := File{Name: "big.png", DeclaredType: "image/png", Size: 10, Body: bytes.NewReader(big)}
	if _, err := svc.Upload(context.Background(), "tenant-a", upload.ImagePolicy, f); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestUploadService_BatchLimit(t *testing.T) {
	svc := NewUploadService(memstore.NewObjects("http://files/bucket"), time.Minute)
	files := make([]File, upload.MaxBatch+1)
	for i := range files {
		files[i] = file("a.png", "image/png", pngBytes)
	}
	if _, err := svc.UploadMany(context.Background(), "tenant-a", upload.ImagePolicy, files); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	res, err := svc.UploadMany(context.Background(), "tenant-a", upload.ImagePolicy, files[:3])
	if err != nil || len(res) != 3 {
		t.Errorf("batch of 3: len=%d err=%v", len(res), err)
	}
}

func TestUploadService_DeleteAndListAreTenantScoped(t *testing.T) {
	objs := memstore.NewObjects("http://files/bucket")
	svc := NewUploadService(objs, time.Minute)
	ctx := context.Background()

	res, err := svc.Upload(ctx, "tenant-a", upload.ImagePolicy, file("a.png", "image/png", pngBytes))
	if err != nil {
		t.Fatal(err)
	}

	if list, _ := svc.List(ctx, "tenant-b", upload.FolderProducts, 10); len(list) != 0 {
		t.Errorf("tenant-b lists %d objects", len(list))
	}
	if _, err := svc.PresignedURL(ctx, "tenant-b", res.Key); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("presign err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "tenant-b", res.Key); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-tenant delete err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "tenant-a", "../etc/passwd"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("traversal key err = %v, want ErrValidation", err)
	}

	list, err := svc.List(ctx, "tenant-a", upload.FolderProducts, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: len=%d err=%v", len(list), err)
	}
	if err := svc.Delete(ctx, "tenant-a", res.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := objs.TenantOf(ctx, res.Key); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("object still present: %v", err)
	}
}
