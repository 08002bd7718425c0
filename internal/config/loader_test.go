package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "3001" {
		t.Errorf("expected port 3001, got %s", cfg.Server.Port)
	}
	if cfg.Tenancy.CacheTTL != 5*time.Minute {
		t.Errorf("expected cache ttl 5m, got %v", cfg.Tenancy.CacheTTL)
	}
	if cfg.Storage.Bucket != "products" || cfg.Storage.PublicURL != "http://localhost:9002" {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Auth.TenantCookie == cfg.Auth.OwnerCookie {
		t.Error("tenant and owner cookies must differ")
	}
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
postgres:
  max_conns: 20
tenancy:
  cache_ttl: 30s
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Tenancy.CacheTTL != 30*time.Second {
		t.Errorf("expected cache ttl 30s, got %v", cfg.Tenancy.CacheTTL)
	}
	// Unchanged fields keep defaults
	if cfg.Storage.Bucket != "products" {
		t.Errorf("expected default bucket, got %s", cfg.Storage.Bucket)
	}
}

func TestLoadYAMLMissingFile(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}

func TestLoadFrom_EnvWins(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte("server:\n  port: \"9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "7070")
	t.Setenv("MINIO_BUCKET_PRODUCTS", "shop-assets")
	t.Setenv("TENANT_CACHE_TTL", "1m")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("env should override yaml, got port %s", cfg.Server.Port)
	}
	if cfg.Storage.Bucket != "shop-assets" {
		t.Errorf("bucket = %s", cfg.Storage.Bucket)
	}
	if cfg.Tenancy.CacheTTL != time.Minute {
		t.Errorf("cache ttl = %v", cfg.Tenancy.CacheTTL)
	}
}

func TestValidate_ProductionNeedsSecret(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Env = "production"
	cfg.Auth.JWTSecret = "short"
	err := validate(&cfg)
	if err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Fatalf("expected jwt_secret error, got %v", err)
	}

	cfg.Auth.JWTSecret = strings.Repeat("x", 32)
	if err := validate(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SERVICEPULSE_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SERVICEPULSE_TEST_DOTENV") })

	if err := loadDotEnv(envPath); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("SERVICEPULSE_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("dotenv value = %q", got)
	}
	if err := loadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing .env should not error: %v", err)
	}
}
