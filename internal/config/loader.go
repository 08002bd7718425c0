package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "servicepulse.yaml"

// DefaultEnvFile is the dotenv file loaded into the process environment.
const DefaultEnvFile = ".env"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// Missing YAML and .env files are not an error.
func Load() (*Config, error) {
	return LoadWith(DefaultConfigFile)
}

// LoadWith loads .env and then the YAML file at yamlPath.
func LoadWith(yamlPath string) (*Config, error) {
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, err
	}
	return LoadFrom(yamlPath)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv populates unset environment variables from path.
// Variables already present in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config dotenv %s: %w", path, err)
	}
	return nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator supplied
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Env, "SERVICEPULSE_ENV")
	setString(&cfg.Server.CORSOrigin, "CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "SERVICEPULSE_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "SERVICEPULSE_SHUTDOWN_TIMEOUT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SERVICEPULSE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SERVICEPULSE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SERVICEPULSE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SERVICEPULSE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SERVICEPULSE_PG_HEALTH_CHECK")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setDuration(&cfg.Auth.AccessTokenTTL, "JWT_EXPIRES_IN")
	setDuration(&cfg.Auth.OwnerTokenTTL, "OWNER_JWT_EXPIRES_IN")
	setDuration(&cfg.Auth.ExchangeCodeTTL, "AUTH_EXCHANGE_CODE_TTL")
	setInt(&cfg.Auth.BcryptCost, "BCRYPT_COST")
	setString(&cfg.Auth.TenantCookie, "AUTH_COOKIE_NAME")
	setString(&cfg.Auth.OwnerCookie, "OWNER_COOKIE_NAME")
	setBool(&cfg.Auth.SecureCookies, "AUTH_SECURE_COOKIES")
	setString(&cfg.Auth.OwnerEmail, "OWNER_EMAIL")
	setString(&cfg.Auth.OwnerPassword, "OWNER_PASSWORD")
	setString(&cfg.Auth.OwnerName, "OWNER_NAME")

	setDuration(&cfg.Tenancy.CacheTTL, "TENANT_CACHE_TTL")
	setInt64(&cfg.Tenancy.CacheMaxEntries, "TENANT_CACHE_MAX_ENTRIES")
	setString(&cfg.Tenancy.DefaultTenantID, "DEFAULT_TENANT_ID")
	setString(&cfg.Tenancy.DefaultDomain, "DEFAULT_TENANT_DOMAIN")
	setString(&cfg.Tenancy.DefaultName, "DEFAULT_TENANT_NAME")
	setString(&cfg.Tenancy.DefaultSlug, "DEFAULT_TENANT_SLUG")

	setString(&cfg.Storage.Endpoint, "MINIO_ENDPOINT")
	setInt(&cfg.Storage.Port, "MINIO_PORT")
	setBool(&cfg.Storage.UseSSL, "MINIO_USE_SSL")
	setString(&cfg.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Storage.Bucket, "MINIO_BUCKET_PRODUCTS")
	setString(&cfg.Storage.Region, "MINIO_REGION")
	setString(&cfg.Storage.PublicURL, "MINIO_PUBLIC_URL")
	setDuration(&cfg.Storage.PresignTTL, "MINIO_PRESIGN_TTL")

	setString(&cfg.NATS.URL, "NATS_URL")

	setInt64(&cfg.Rate.Limit, "RATE_LIMIT")
	setDuration(&cfg.Rate.Period, "RATE_PERIOD")
	setBool(&cfg.Rate.TrustProxy, "RATE_TRUST_PROXY")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Service, "LOG_SERVICE")
	setBool(&cfg.Logging.Async, "LOG_ASYNC")
	setString(&cfg.Logging.File, "LOG_FILE")

	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "OTEL_EXPORTER_OTLP_INSECURE")

	setString(&cfg.Proxy.Listen, "PROXY_LISTEN")
	setString(&cfg.Proxy.BackendURL, "BACKEND_URL")
	setDuration(&cfg.Proxy.Timeout, "PROXY_TIMEOUT")
}

// validate checks required fields and value ranges.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.Env != "development" && cfg.Server.Env != "production" && cfg.Server.Env != "test" {
		return fmt.Errorf("server.env must be development, production or test, got %q", cfg.Server.Env)
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Server.IsProduction() && len(cfg.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 characters in production")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return errors.New("auth.bcrypt_cost must be between 4 and 31")
	}
	if cfg.Auth.TenantCookie == cfg.Auth.OwnerCookie {
		return errors.New("auth.tenant_cookie and auth.owner_cookie must differ")
	}
	if cfg.Tenancy.CacheTTL <= 0 {
		return errors.New("tenancy.cache_ttl must be > 0")
	}
	if cfg.Storage.Bucket == "" {
		return errors.New("storage.bucket is required")
	}
	if cfg.Rate.Limit < 1 || cfg.Rate.Period <= 0 {
		return errors.New("rate.limit must be >= 1 and rate.period > 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
