// Package memstore is an in-memory database.Store. It applies the same tenant
// predicates as the Postgres adapter and backs handler tests and the
// serve --in-memory development mode.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/domain/catalog"
	"github.com/Strob0t/ServicePulse/internal/domain/marketing"
	"github.com/Strob0t/ServicePulse/internal/domain/setting"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/domain/ticket"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
	"github.com/Strob0t/ServicePulse/internal/port/database"
)

var _ database.Store = (*Store)(nil)

// Store keeps every table in maps guarded by one mutex. Rows of another
// tenant are not found.
type Store struct {
	mu sync.Mutex

	tenants    map[string]*tenant.Tenant
	domains    map[string]*tenant.Domain // by domain id
	configs    map[string]tenant.Config
	users      map[string]*user.User
	codes      map[string]memCode
	categories map[string]*catalog.Category
	products   map[string]*catalog.Product
	banners    map[string]*marketing.Banner
	discounts  map[string]*marketing.Discount
	settings   map[string]*setting.Setting // tenant|key
	tickets    map[string]*ticket.Ticket
	audits     []audit.Entry
	legacy     map[string]int64 // table -> rows without a tenant
}

type memCode struct {
	userID, tenantID string
	expires          time.Time
}

func New() *Store {
	return &Store{
		tenants:    map[string]*tenant.Tenant{},
		domains:    map[string]*tenant.Domain{},
		configs:    map[string]tenant.Config{},
		users:      map[string]*user.User{},
		codes:      map[string]memCode{},
		categories: map[string]*catalog.Category{},
		products:   map[string]*catalog.Product{},
		banners:    map[string]*marketing.Banner{},
		discounts:  map[string]*marketing.Discount{},
		settings:   map[string]*setting.Setting{},
		tickets:    map[string]*ticket.Ticket{},
		legacy:     map[string]int64{},
	}
}

// AddTenant creates an active tenant with a verified domain. It panics when
// the slug or host is already taken.
func (m *Store) AddTenant(id, slug, host string) {
	t := &tenant.Tenant{ID: id, Name: slug, Slug: slug}
	if err := m.CreateTenant(context.Background(), t, host, true, tenant.DefaultConfig(slug)); err != nil {
		panic(err)
	}
}

// SetStatus overwrites a tenant's lifecycle status.
func (m *Store) SetStatus(id string, s tenant.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[id].Status = s
}

// SetLegacyRows records rows of table that have no tenant yet.
func (m *Store) SetLegacyRows(table string, rows int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacy[table] = rows
}

// --- Tenants ---

func (m *Store) ResolveHost(_ context.Context, host string) (*tenant.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.domains {
		if d.Domain != host || d.VerificationStatus != tenant.VerificationVerified {
			continue
		}
		t := m.tenants[d.TenantID]
		cfg := m.configs[t.ID]
		return &tenant.Context{
			TenantID: t.ID, Slug: t.Slug, Name: t.Name, Status: t.Status,
			Domain: host, Config: cfg, Features: cfg.Features,
		}, nil
	}
	return nil, domain.ErrTenantNotFound
}

func (m *Store) ListTenants(_ context.Context) ([]tenant.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tenant.Summary, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, tenant.Summary{Tenant: *t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *Store) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Store) GetTenantBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Store) CreateTenant(_ context.Context, t *tenant.Tenant, primary string, verified bool, cfg tenant.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = tenant.StatusActive
	}
	for _, o := range m.tenants {
		if o.Slug == t.Slug || o.ID == t.ID {
			return domain.ErrConflict
		}
	}
	for _, d := range m.domains {
		if d.Domain == primary {
			return domain.ErrConflict
		}
	}
	d := &tenant.Domain{ID: uuid.NewString(), TenantID: t.ID, Domain: primary, IsPrimary: true, VerificationStatus: tenant.VerificationPending}
	if verified {
		d.VerificationStatus = tenant.VerificationVerified
	}
	cp := *t
	m.tenants[t.ID] = &cp
	m.domains[d.ID] = d
	cfg.TenantID = t.ID
	m.configs[t.ID] = cfg
	return nil
}

func (m *Store) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	m.tenants[t.ID] = &cp
	return nil
}

func (m *Store) GetDomain(_ context.Context, host string) (*tenant.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.domains {
		if d.Domain == host {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Store) ListDomains(_ context.Context, tenantID string) ([]tenant.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tenant.Domain
	for _, d := range m.domains {
		if d.TenantID == tenantID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *Store) AddDomain(_ context.Context, d *tenant.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.domains {
		if o.Domain == d.Domain {
			return domain.ErrConflict
		}
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.VerificationStatus == "" {
		d.VerificationStatus = tenant.VerificationPending
	}
	if d.IsPrimary {
		for _, o := range m.domains {
			if o.TenantID == d.TenantID {
				o.IsPrimary = false
			}
		}
	}
	cp := *d
	m.domains[d.ID] = &cp
	return nil
}

func (m *Store) RemoveDomain(_ context.Context, tenantID, domainID string) (*tenant.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.domains[domainID]
	if !ok || d.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	n := 0
	for _, o := range m.domains {
		if o.TenantID == tenantID {
			n++
		}
	}
	if n <= 1 {
		return nil, domain.ErrConflict
	}
	delete(m.domains, domainID)
	return d, nil
}

func (m *Store) VerifyDomain(_ context.Context, tenantID, domainID string) (*tenant.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.domains[domainID]
	if !ok || d.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	d.VerificationStatus = tenant.VerificationVerified
	d.VerifiedAt = &now
	cp := *d
	return &cp, nil
}

func (m *Store) GetConfig(_ context.Context, tenantID string) (*tenant.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[tenantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cfg, nil
}

func (m *Store) UpsertConfig(_ context.Context, cfg *tenant.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.TenantID] = *cfg
	return nil
}

func (m *Store) PlatformStats(_ context.Context) (*database.PlatformStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &database.PlatformStats{TenantsByStatus: map[tenant.Status]int{}}
	for _, t := range m.tenants {
		st.TenantsByStatus[t.Status]++
	}
	st.Users = len(m.users)
	st.Products = len(m.products)
	st.Tickets = len(m.tickets)
	return st, nil
}

// --- Users ---

func (m *Store) GetUser(_ context.Context, tenantID, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || tenantID == "" || u.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Store) GetUserByEmail(_ context.Context, tenantID, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TenantID == tenantID && tenantID != "" && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Store) ListUsers(_ context.Context, tenantID string) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []user.User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *Store) CreateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.users {
		if o.Email == u.Email && o.TenantID == u.TenantID {
			return domain.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Store) CountUsersByRole(_ context.Context, tenantID string, role user.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if u.TenantID == tenantID && u.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *Store) GetOwner(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.Role != user.RoleOwner {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Store) GetOwnerByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Role == user.RoleOwner && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Store) AnyOwner(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Role == user.RoleOwner {
			return true, nil
		}
	}
	return false, nil
}

// --- Exchange codes ---

func (m *Store) CreateExchangeCode(_ context.Context, codeHash, userID, tenantID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[codeHash] = memCode{userID: userID, tenantID: tenantID, expires: expiresAt}
	return nil
}

func (m *Store) ConsumeExchangeCode(_ context.Context, codeHash string) (string, string, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[codeHash]
	if !ok {
		return "", "", time.Time{}, domain.ErrNotFound
	}
	delete(m.codes, codeHash)
	return c.userID, c.tenantID, c.expires, nil
}

func (m *Store) DeleteExpiredExchangeCodes(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, c := range m.codes {
		if time.Now().After(c.expires) {
			delete(m.codes, k)
			n++
		}
	}
	return n, nil
}

// --- Catalog ---

func (m *Store) ListCategories(_ context.Context, tenantID string, activeOnly bool) ([]catalog.Category, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.Category
	for _, c := range m.categories {
		if c.TenantID == tenantID && (!activeOnly || c.IsActive) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *Store) GetCategory(_ context.Context, tenantID, id string) (*catalog.Category, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Store) GetCategoryBySlug(_ context.Context, tenantID, slug string) (*catalog.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.TenantID == tenantID && c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Store) CreateCategory(_ context.Context, tenantID string, c *catalog.Category) error {
	if tenantID == "" {
		return domain.ErrTenantRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.categories {
		if o.TenantID == tenantID && o.Slug == c.Slug {
			return domain.ErrConflict
		}
	}
	c.ID = uuid.NewString()
	c.TenantID = tenantID
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *Store) UpdateCategory(_ context.Context, tenantID string, c *catalog.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.categories[c.ID]
	if !ok || o.TenantID != tenantID {
		return domain.ErrNotFound
	}
	cp := *c
	cp.TenantID = tenantID
	m.categories[c.ID] = &cp
	return nil
}

func (m *Store) DeleteCategory(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.categories[id]
	if !ok || o.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *Store) ListProducts(_ context.Context, tenantID string, f catalog.ProductFilter) ([]catalog.Product, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.Product
	for _, p := range m.products {
		if p.TenantID != tenantID || (f.ActiveOnly && !p.IsActive) || (f.CategoryID != "" && p.CategoryID != f.CategoryID) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *Store) GetProduct(_ context.Context, tenantID, id string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Store) GetProductBySlug(_ context.Context, tenantID, slug string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.TenantID == tenantID && p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Store) CreateProduct(_ context.Context, tenantID string, p *catalog.Product) error {
	if tenantID == "" {
		return domain.ErrTenantRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.products {
		if o.TenantID == tenantID && o.Slug == p.Slug {
			return domain.ErrConflict
		}
	}
	p.ID = uuid.NewString()
	p.TenantID = tenantID
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *Store) UpdateProduct(_ context.Context, tenantID string, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.products[p.ID]
	if !ok || o.TenantID != tenantID {
		return domain.ErrNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *Store) DeleteProduct(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.products[id]
	if !ok || o.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// --- Marketing ---

func (m *Store) ListBanners(_ context.Context, tenantID string) ([]marketing.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []marketing.Banner
	for _, b := range m.banners {
		if b.TenantID == tenantID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *Store) ListLiveBanners(ctx context.Context, tenantID string, position marketing.BannerPosition, now time.Time) ([]marketing.Banner, error) {
	all, _ := m.ListBanners(ctx, tenantID)
	var out []marketing.Banner
	for i := range all {
		if all[i].LiveAt(now) && (position == "" || all[i].Position == position) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (m *Store) GetBanner(_ context.Context, tenantID, id string) (*marketing.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.banners[id]
	if !ok || b.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *Store) CreateBanner(_ context.Context, tenantID string, b *marketing.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.NewString()
	b.TenantID = tenantID
	cp := *b
	m.banners[b.ID] = &cp
	return nil
}

func (m *Store) UpdateBanner(_ context.Context, tenantID string, b *marketing.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.banners[b.ID]
	if !ok || o.TenantID != tenantID {
		return domain.ErrNotFound
	}
	cp := *b
	m.banners[b.ID] = &cp
	return nil
}

func (m *Store) DeleteBanner(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.banners[id]
	if !ok || o.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(m.banners, id)
	return nil
}

func (m *Store) ListDiscounts(_ context.Context, tenantID string) ([]marketing.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []marketing.Discount
	for _, d := range m.discounts {
		if d.TenantID == tenantID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *Store) GetDiscount(_ context.Context, tenantID, id string) (*marketing.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.discounts[id]
	if !ok || d.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *Store) GetDiscountByCode(_ context.Context, tenantID, code string) (*marketing.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.discounts {
		if d.TenantID == tenantID && strings.EqualFold(d.Code, code) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Store) CreateDiscount(_ context.Context, tenantID string, d *marketing.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.discounts {
		if o.TenantID == tenantID && o.Code == d.Code {
			return domain.ErrConflict
		}
	}
	d.ID = uuid.NewString()
	d.TenantID = tenantID
	cp := *d
	m.discounts[d.ID] = &cp
	return nil
}

func (m *Store) UpdateDiscount(_ context.Context, tenantID string, d *marketing.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.discounts[d.ID]
	if !ok || o.TenantID != tenantID {
		return domain.ErrNotFound
	}
	cp := *d
	m.discounts[d.ID] = &cp
	return nil
}

func (m *Store) DeleteDiscount(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.discounts[id]
	if !ok || o.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(m.discounts, id)
	return nil
}

// --- Settings ---

func (m *Store) ListSettings(_ context.Context, tenantID string) ([]setting.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []setting.Setting
	for _, s := range m.settings {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *Store) GetSetting(_ context.Context, tenantID, key string) (*setting.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[tenantID+"|"+key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Store) UpsertSetting(_ context.Context, tenantID string, s *setting.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.TenantID = tenantID
	s.UpdatedAt = time.Now()
	cp := *s
	m.settings[tenantID+"|"+s.Key] = &cp
	return nil
}

func (m *Store) DeleteSetting(_ context.Context, tenantID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.settings[tenantID+"|"+key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.settings, tenantID+"|"+key)
	return nil
}

// --- Tickets ---

func (m *Store) ListTickets(_ context.Context, tenantID string, status ticket.Status) ([]ticket.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ticket.Ticket
	for _, t := range m.tickets {
		if t.TenantID == tenantID && (status == "" || t.Status == status) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *Store) ListTicketsBySession(_ context.Context, tenantID, sessionID string) ([]ticket.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ticket.Ticket
	for _, t := range m.tickets {
		if t.TenantID == tenantID && t.SessionID == sessionID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *Store) GetTicket(_ context.Context, tenantID, id string) (*ticket.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok || t.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *t
	cp.Messages = append([]ticket.Message(nil), t.Messages...)
	return &cp, nil
}

func (m *Store) CountTicketsInYear(_ context.Context, tenantID string, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickets {
		if t.TenantID == tenantID && t.CreatedAt.Year() == year {
			n++
		}
	}
	return n, nil
}

func (m *Store) CreateTicket(_ context.Context, tenantID string, t *ticket.Ticket) error {
	if tenantID == "" {
		return domain.ErrTenantRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.NewString()
	t.TenantID = tenantID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	for i := range t.Messages {
		t.Messages[i].ID = uuid.NewString()
		t.Messages[i].TicketID = t.ID
	}
	cp := *t
	cp.Messages = append([]ticket.Message(nil), t.Messages...)
	m.tickets[t.ID] = &cp
	return nil
}

func (m *Store) AddTicketMessage(_ context.Context, tenantID string, msg *ticket.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[msg.TicketID]
	if !ok || t.TenantID != tenantID {
		return domain.ErrNotFound
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now()
	t.Messages = append(t.Messages, *msg)
	t.UpdatedAt = msg.CreatedAt
	return nil
}

func (m *Store) UpdateTicketStatus(_ context.Context, tenantID, id string, status ticket.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok || t.TenantID != tenantID {
		return domain.ErrNotFound
	}
	t.Status = status
	return nil
}

// --- Audit ---

func (m *Store) AppendAudit(_ context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	m.audits = append(m.audits, *e)
	return nil
}

func (m *Store) ListAudit(_ context.Context, tenantID string, f audit.Filter) ([]audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Entry
	for i := len(m.audits) - 1; i >= 0; i-- {
		e := m.audits[i]
		if e.TenantID == tenantID && (f.Entity == "" || e.Entity == f.Entity) {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- Seed ---

func (m *Store) BackfillTenant(_ context.Context, tenantID string) ([]database.BackfillCount, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tables := make([]string, 0, len(m.legacy))
	for t := range m.legacy {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	out := make([]database.BackfillCount, 0, len(tables))
	for _, t := range tables {
		out = append(out, database.BackfillCount{Table: t, Rows: m.legacy[t]})
		m.legacy[t] = 0
	}
	return out, nil
}
