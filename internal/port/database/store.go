// Package database defines the repository ports. Every tenant-scoped
// method takes the tenant ID as its first argument after ctx and must
// return domain.ErrNotFound for rows that belong to another tenant.
package database

import (
	"context"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/domain/catalog"
	"github.com/Strob0t/ServicePulse/internal/domain/marketing"
	"github.com/Strob0t/ServicePulse/internal/domain/setting"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/domain/ticket"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
)

// TenantRepository manages tenants, their domains and configuration.
// It is platform-level: only the resolver and owner-gated code use it.
type TenantRepository interface {
	ResolveHost(ctx context.Context, host string) (*tenant.Context, error)

	ListTenants(ctx context.Context) ([]tenant.Summary, error)
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
	CreateTenant(ctx context.Context, t *tenant.Tenant, primary string, verified bool, cfg tenant.Config) error
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error

	GetDomain(ctx context.Context, domain string) (*tenant.Domain, error)
	ListDomains(ctx context.Context, tenantID string) ([]tenant.Domain, error)
	AddDomain(ctx context.Context, d *tenant.Domain) error
	RemoveDomain(ctx context.Context, tenantID, domainID string) (*tenant.Domain, error)
	VerifyDomain(ctx context.Context, tenantID, domainID string) (*tenant.Domain, error)

	GetConfig(ctx context.Context, tenantID string) (*tenant.Config, error)
	UpsertConfig(ctx context.Context, cfg *tenant.Config) error
}

// OwnerRepository serves cross-tenant aggregates for the platform owner.
type OwnerRepository interface {
	PlatformStats(ctx context.Context) (*PlatformStats, error)
}

// PlatformStats are platform-wide counters.
type PlatformStats struct {
	TenantsByStatus map[tenant.Status]int `json:"tenantsByStatus"`
	Users           int                   `json:"users"`
	Products        int                   `json:"products"`
	Orders          int                   `json:"orders"`
	Tickets         int                   `json:"tickets"`
}

// UserRepository stores users. Owner lookups are separate from tenant lookups.
type UserRepository interface {
	GetUser(ctx context.Context, tenantID, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, tenantID, email string) (*user.User, error)
	ListUsers(ctx context.Context, tenantID string) ([]user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	CountUsersByRole(ctx context.Context, tenantID string, role user.Role) (int, error)

	GetOwner(ctx context.Context, id string) (*user.User, error)
	GetOwnerByEmail(ctx context.Context, email string) (*user.User, error)
	AnyOwner(ctx context.Context) (bool, error)
}

// ExchangeCodeRepository stores one-time login exchange codes.
type ExchangeCodeRepository interface {
	CreateExchangeCode(ctx context.Context, codeHash, userID, tenantID string, expiresAt time.Time) error
	// ConsumeExchangeCode deletes and returns the code in one step so it can be used once.
	ConsumeExchangeCode(ctx context.Context, codeHash string) (userID, tenantID string, expiresAt time.Time, err error)
	DeleteExpiredExchangeCodes(ctx context.Context) (int64, error)
}

// CategoryRepository stores categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context, tenantID string, activeOnly bool) ([]catalog.Category, error)
	GetCategory(ctx context.Context, tenantID, id string) (*catalog.Category, error)
	GetCategoryBySlug(ctx context.Context, tenantID, slug string) (*catalog.Category, error)
	CreateCategory(ctx context.Context, tenantID string, c *catalog.Category) error
	UpdateCategory(ctx context.Context, tenantID string, c *catalog.Category) error
	DeleteCategory(ctx context.Context, tenantID, id string) error
}

// ProductRepository stores products.
type ProductRepository interface {
	ListProducts(ctx context.Context, tenantID string, f catalog.ProductFilter) ([]catalog.Product, error)
	GetProduct(ctx context.Context, tenantID, id string) (*catalog.Product, error)
	GetProductBySlug(ctx context.Context, tenantID, slug string) (*catalog.Product, error)
	CreateProduct(ctx context.Context, tenantID string, p *catalog.Product) error
	UpdateProduct(ctx context.Context, tenantID string, p *catalog.Product) error
	DeleteProduct(ctx context.Context, tenantID, id string) error
}

// BannerRepository stores promotional banners.
type BannerRepository interface {
	ListBanners(ctx context.Context, tenantID string) ([]marketing.Banner, error)
	ListLiveBanners(ctx context.Context, tenantID string, position marketing.BannerPosition, now time.Time) ([]marketing.Banner, error)
	GetBanner(ctx context.Context, tenantID, id string) (*marketing.Banner, error)
	CreateBanner(ctx context.Context, tenantID string, b *marketing.Banner) error
	UpdateBanner(ctx context.Context, tenantID string, b *marketing.Banner) error
	DeleteBanner(ctx context.Context, tenantID, id string) error
}

// DiscountRepository stores discount codes.
type DiscountRepository interface {
	ListDiscounts(ctx context.Context, tenantID string) ([]marketing.Discount, error)
	GetDiscount(ctx context.Context, tenantID, id string) (*marketing.Discount, error)
	GetDiscountByCode(ctx context.Context, tenantID, code string) (*marketing.Discount, error)
	CreateDiscount(ctx context.Context, tenantID string, d *marketing.Discount) error
	UpdateDiscount(ctx context.Context, tenantID string, d *marketing.Discount) error
	DeleteDiscount(ctx context.Context, tenantID, id string) error
}

// SettingRepository stores key/value settings.
type SettingRepository interface {
	ListSettings(ctx context.Context, tenantID string) ([]setting.Setting, error)
	GetSetting(ctx context.Context, tenantID, key string) (*setting.Setting, error)
	UpsertSetting(ctx context.Context, tenantID string, s *setting.Setting) error
	DeleteSetting(ctx context.Context, tenantID, key string) error
}

// TicketRepository stores tickets and their messages.
type TicketRepository interface {
	ListTickets(ctx context.Context, tenantID string, status ticket.Status) ([]ticket.Ticket, error)
	ListTicketsBySession(ctx context.Context, tenantID, sessionID string) ([]ticket.Ticket, error)
	GetTicket(ctx context.Context, tenantID, id string) (*ticket.Ticket, error)
	CountTicketsInYear(ctx context.Context, tenantID string, year int) (int, error)
	CreateTicket(ctx context.Context, tenantID string, t *ticket.Ticket) error
	AddTicketMessage(ctx context.Context, tenantID string, m *ticket.Message) error
	UpdateTicketStatus(ctx context.Context, tenantID, id string, status ticket.Status) error
}

// AuditRepository appends and lists audit entries.
type AuditRepository interface {
	AppendAudit(ctx context.Context, e *audit.Entry) error
	ListAudit(ctx context.Context, tenantID string, f audit.Filter) ([]audit.Entry, error)
}

// SeedRepository performs idempotent platform bootstrap writes.
type SeedRepository interface {
	// BackfillTenant assigns rows with a NULL tenant to tenantID and
	// returns the number of updated rows per table.
	BackfillTenant(ctx context.Context, tenantID string) ([]BackfillCount, error)
}

// BackfillCount is the number of rows a backfill touched in one table.
type BackfillCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Store aggregates every repository implemented by the Postgres adapter.
type Store interface {
	TenantRepository
	OwnerRepository
	UserRepository
	ExchangeCodeRepository
	CategoryRepository
	ProductRepository
	BannerRepository
	DiscountRepository
	SettingRepository
	TicketRepository
	AuditRepository
	SeedRepository
}
