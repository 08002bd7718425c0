package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/ServicePulse/internal/domain/setting"
)

func scanSetting(row scannable) (setting.Setting, error) {
	var st setting.Setting
	err := row.Scan(&st.TenantID, &st.Key, &st.Value, &st.UpdatedAt)
	return st, err
}

func (s *Store) ListSettings(ctx context.Context, tenantID string) ([]setting.Setting, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT tenant_id, key, value, updated_at FROM settings WHERE tenant_id = $1 ORDER BY key`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return collect(rows, scanSetting)
}

func (s *Store) GetSetting(ctx context.Context, tenantID, key string) (*setting.Setting, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	st, err := scanSetting(s.pool.QueryRow(ctx,
		`SELECT tenant_id, key, value, updated_at FROM settings WHERE tenant_id = $1 AND key = $2`, tenantID, key))
	if err != nil {
		return nil, notFoundWrap(err, "get setting %s", key)
	}
	return &st, nil
}

func (s *Store) UpsertSetting(ctx context.Context, tenantID string, st *setting.Setting) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	st.TenantID = tenantID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO settings (id, tenant_id, key, value) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (tenant_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		 RETURNING updated_at`,
		newID(), tenantID, st.Key, []byte(st.Value),
	).Scan(&st.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert setting %s", st.Key)
	}
	return nil
}

func (s *Store) DeleteSetting(ctx context.Context, tenantID, key string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM settings WHERE tenant_id = $1 AND key = $2`, tenantID, key)
	return execExpectOne(tag, err, "delete setting %s", key)
}
