package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/domain/setting"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/port/database"
)

var settingKey = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,100}$`)

// SettingsStore is what tenant settings need from storage.
type SettingsStore interface {
	database.SettingRepository
	database.AuditRepository
	GetConfig(ctx context.Context, tenantID string) (*tenant.Config, error)
	UpsertConfig(ctx context.Context, cfg *tenant.Config) error
}

// SettingService manages a tenant's key/value settings and shop configuration.
type SettingService struct {
	store SettingsStore
	cache Invalidator
	audit auditor
}

// NewSettingService creates a new SettingService.
func NewSettingService(store SettingsStore, cache Invalidator) *SettingService {
	return &SettingService{store: store, cache: cache, audit: auditor{repo: store}}
}

// List returns every setting of the tenant.
func (s *SettingService) List(ctx context.Context, tenantID string) ([]setting.Setting, error) {
	return s.store.ListSettings(ctx, tenantID)
}

// Get returns one setting.
func (s *SettingService) Get(ctx context.Context, tenantID, key string) (*setting.Setting, error) {
	return s.store.GetSetting(ctx, tenantID, key)
}

// Upsert stores value under key. value must be valid JSON.
func (s *SettingService) Upsert(ctx context.Context, tenantID string, actor Actor, key string, value json.RawMessage) (*setting.Setting, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if !settingKey.MatchString(key) {
		return nil, invalid("invalid setting key %q", key)
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, invalid("value must be valid JSON")
	}
	st := &setting.Setting{Key: key, Value: value}
	if err := s.store.UpsertSetting(ctx, tenantID, st); err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionUpdate, "setting", key, nil)
	return st, nil
}

// Delete removes a setting of this tenant.
func (s *SettingService) Delete(ctx context.Context, tenantID string, actor Actor, key string) error {
	if _, err := s.store.GetSetting(ctx, tenantID, key); err != nil {
		return err
	}
	if err := s.store.DeleteSetting(ctx, tenantID, key); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionDelete, "setting", key, nil)
	return nil
}

// UpdateShopConfig lets a tenant admin change branding, contact and locale
// fields. Feature flags are platform-controlled and kept as stored.
func (s *SettingService) UpdateShopConfig(ctx context.Context, tenantID string, actor Actor, cfg tenant.Config) (*tenant.Config, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	current, err := s.store.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg.ShopName == "" {
		return nil, invalid("shopName is required")
	}
	cfg.TenantID = tenantID
	cfg.Features = current.Features
	if err := s.store.UpsertConfig(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("update shop config: %w", err)
	}
	s.cache.InvalidateTenant(ctx, tenantID)
	s.audit.record(ctx, tenantID, actor, audit.ActionUpdate, "tenant_config", tenantID, nil)
	return &cfg, nil
}

// AuditService lists a tenant's audit log.
type AuditService struct {
	repo database.AuditRepository
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo database.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns the tenant's entries, newest first.
func (s *AuditService) List(ctx context.Context, tenantID string, f audit.Filter) ([]audit.Entry, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.ListAudit(ctx, tenantID, f)
}
