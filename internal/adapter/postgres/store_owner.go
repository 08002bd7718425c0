package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/port/database"
)

// PlatformStats aggregates across every tenant. Owner-gated callers only.
func (s *Store) PlatformStats(ctx context.Context) (*database.PlatformStats, error) {
	st := &database.PlatformStats{TenantsByStatus: map[tenant.Status]int{}}

	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM tenants GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("tenant stats: %w", err)
	}
	for rows.Next() {
		var status tenant.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan tenant stats: %w", err)
		}
		st.TenantsByStatus[status] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenant stats: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT (SELECT count(*) FROM users WHERE tenant_id IS NOT NULL),
		        (SELECT count(*) FROM products),
		        (SELECT count(*) FROM orders),
		        (SELECT count(*) FROM tickets)`,
	).Scan(&st.Users, &st.Products, &st.Orders, &st.Tickets)
	if err != nil {
		return nil, fmt.Errorf("platform counters: %w", err)
	}
	return st, nil
}
