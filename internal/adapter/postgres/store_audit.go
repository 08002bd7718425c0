package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/ServicePulse/internal/domain/audit"
)

// AppendAudit records e. Platform-level entries have no tenant.
func (s *Store) AppendAudit(ctx context.Context, e *audit.Entry) error {
	e.ID = newID()
	var details any
	if len(e.Details) > 0 {
		details = []byte(e.Details)
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO audit_logs (id, tenant_id, user_id, action, entity, entity_id, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		e.ID, nullIfEmpty(e.TenantID), e.UserID, e.Action, e.Entity, e.EntityID, details,
	).Scan(&e.CreatedAt)
	if err != nil {
		return writeErr(err, "append audit")
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, tenantID string, f audit.Filter) ([]audit.Entry, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, coalesce(tenant_id, ''), user_id, action, entity, entity_id, details, created_at
		 FROM audit_logs WHERE tenant_id = $1 AND ($2 = '' OR entity = $2)
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		tenantID, f.Entity, limit, max(f.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	return collect(rows, func(r scannable) (audit.Entry, error) {
		var e audit.Entry
		var details []byte
		err := r.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Action, &e.Entity, &e.EntityID, &details, &e.CreatedAt)
		e.Details = details
		return e, err
	})
}
