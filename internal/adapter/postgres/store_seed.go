package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/ServicePulse/internal/port/database"
)

// backfillTables lists every tenant-scoped table with its extra predicate.
// Owners stay platform-level, so users excludes them.
var backfillTables = []struct {
	table string
	extra string
}{
	{"users", "role <> 'OWNER'"},
	{"categories", ""},
	{"products", ""},
	{"orders", ""},
	{"appointments", ""},
	{"tickets", ""},
	{"ticket_messages", ""},
	{"repair_tickets", ""},
	{"invoices", ""},
	{"settings", ""},
	{"promotional_banners", ""},
	{"discount_codes", ""},
	{"shipping_zones", ""},
	{"audit_logs", ""},
	{"feedback_ratings", ""},
	{"email_unsubscribes", ""},
	{"repair_device_services", ""},
}

// BackfillTenant assigns every row without a tenant to tenantID in one transaction.
func (s *Store) BackfillTenant(ctx context.Context, tenantID string) ([]database.BackfillCount, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	counts := make([]database.BackfillCount, 0, len(backfillTables))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, bt := range backfillTables {
			q := `UPDATE ` + bt.table + ` SET tenant_id = $1 WHERE tenant_id IS NULL`
			if bt.extra != "" {
				q += ` AND ` + bt.extra
			}
			tag, err := tx.Exec(ctx, q, tenantID)
			if err != nil {
				return fmt.Errorf("backfill %s: %w", bt.table, err)
			}
			counts = append(counts, database.BackfillCount{Table: bt.table, Rows: tag.RowsAffected()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
