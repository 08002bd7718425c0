package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/port/database"
)

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func requireTenant(tenantID string) error {
	if tenantID == "" {
		return domain.ErrTenantRequired
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

// Actor identifies who performed a mutation, for the audit log.
type Actor struct {
	UserID string
}

// auditor appends audit entries. Failures are logged, never returned:
// the mutation already committed.
type auditor struct {
	repo database.AuditRepository
}

func (a auditor) record(ctx context.Context, tenantID string, actor Actor, action, entity, entityID string, details any) {
	if a.repo == nil {
		return
	}
	e := &audit.Entry{
		TenantID: tenantID,
		UserID:   actor.UserID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			e.Details = raw
		}
	}
	if err := a.repo.AppendAudit(ctx, e); err != nil {
		slog.WarnContext(ctx, "audit append failed", "entity", entity, "entity_id", entityID, "error", err)
	}
}
