package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain/user"
)

const userColumns = `id, coalesce(tenant_id, ''), email, name, password_hash, role, enabled, created_at, updated_at`

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) GetUser(ctx context.Context, tenantID, id string) (*user.User, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, tenantID, email string) (*user.User, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND lower(email) = lower($2)`, tenantID, email))
	if err != nil {
		return nil, notFoundWrap(err, "get user by email")
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collect(rows, scanUser)
}

// CreateUser inserts u. Owners are stored with a NULL tenant.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if err := user.CheckTenancy(u.Role, u.TenantID); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = newID()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, tenant_id, email, name, password_hash, role, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`,
		u.ID, nullIfEmpty(u.TenantID), u.Email, u.Name, u.PasswordHash, u.Role, u.Enabled,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return writeErr(err, "create user %s", u.Email)
	}
	return nil
}

func (s *Store) CountUsersByRole(ctx context.Context, tenantID string, role user.Role) (int, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE tenant_id = $1 AND role = $2`, tenantID, role).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// --- Platform owners ---

func (s *Store) GetOwner(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND tenant_id IS NULL AND role = 'OWNER'`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get owner %s", id)
	}
	return &u, nil
}

func (s *Store) GetOwnerByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE tenant_id IS NULL AND role = 'OWNER' AND lower(email) = lower($1)`, email))
	if err != nil {
		return nil, notFoundWrap(err, "get owner by email")
	}
	return &u, nil
}

func (s *Store) AnyOwner(ctx context.Context) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role = 'OWNER')`).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check owner: %w", err)
	}
	return ok, nil
}

// --- Exchange codes ---

func (s *Store) CreateExchangeCode(ctx context.Context, codeHash, userID, tenantID string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO auth_exchange_codes (code_hash, user_id, tenant_id, expires_at) VALUES ($1, $2, $3, $4)`,
		codeHash, userID, nullIfEmpty(tenantID), expiresAt)
	if err != nil {
		return writeErr(err, "create exchange code")
	}
	return nil
}

func (s *Store) ConsumeExchangeCode(ctx context.Context, codeHash string) (userID, tenantID string, expiresAt time.Time, err error) {
	err = s.pool.QueryRow(ctx,
		`DELETE FROM auth_exchange_codes WHERE code_hash = $1
		 RETURNING user_id, coalesce(tenant_id, ''), expires_at`, codeHash,
	).Scan(&userID, &tenantID, &expiresAt)
	if err != nil {
		return "", "", time.Time{}, notFoundWrap(err, "consume exchange code")
	}
	return userID, tenantID, expiresAt, nil
}

func (s *Store) DeleteExpiredExchangeCodes(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM auth_exchange_codes WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired exchange codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
