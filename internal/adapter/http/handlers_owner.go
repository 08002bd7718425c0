package http

import (
	"net/http"

	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/domain/user"
)

// Owner console handlers. Every route here sits behind a platform session
// and operates across tenants; the tenant is always named in the URL.

// ListTenants handles GET /api/owner/tenants.
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	items, err := h.Tenants.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []tenant.Summary{}
	}
	writeData(w, http.StatusOK, items)
}

// GetTenant handles GET /api/owner/tenants/{id}.
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tenants.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

// CreateTenant handles POST /api/owner/tenants.
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[tenant.CreateRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.Tenants.Create(r.Context(), actor(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, t, "Winkel aangemaakt")
}

// UpdateTenant handles PATCH /api/owner/tenants/{id}.
func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[tenant.UpdateRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.Tenants.Update(r.Context(), actor(r), urlParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

// SetTenantStatus returns a handler for the activate/suspend/archive shortcuts.
func (h *Handlers) SetTenantStatus(status tenant.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.Tenants.SetStatus(r.Context(), actor(r), urlParam(r, "id"), status)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, t)
	}
}

// AddDomain handles POST /api/owner/tenants/{id}/domains.
func (h *Handlers) AddDomain(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[tenant.AddDomainRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.Tenants.AddDomain(r.Context(), actor(r), urlParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, d)
}

// VerifyDomain handles POST /api/owner/tenants/{id}/domains/{domainId}/verify.
func (h *Handlers) VerifyDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.Tenants.VerifyDomain(r.Context(), actor(r), urlParam(r, "id"), urlParam(r, "domainId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

// RemoveDomain handles DELETE /api/owner/tenants/{id}/domains/{domainId}.
func (h *Handlers) RemoveDomain(w http.ResponseWriter, r *http.Request) {
	if err := h.Tenants.RemoveDomain(r.Context(), actor(r), urlParam(r, "id"), urlParam(r, "domainId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Domein verwijderd")
}

// GetTenantConfig handles GET /api/owner/tenants/{id}/config.
func (h *Handlers) GetTenantConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Tenants.GetConfig(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cfg)
}

// UpdateTenantConfig handles PUT/PATCH /api/owner/tenants/{id}/config.
func (h *Handlers) UpdateTenantConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := readJSON[tenant.Config](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.Tenants.UpdateConfig(r.Context(), actor(r), urlParam(r, "id"), cfg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// ListTenantUsers handles GET /api/owner/tenants/{id}/users.
func (h *Handlers) ListTenantUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Tenants.ListUsers(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeData(w, http.StatusOK, users)
}

// CreateTenantUser handles POST /api/owner/tenants/{id}/users.
func (h *Handlers) CreateTenantUser(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[user.CreateRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.Tenants.CreateUser(r.Context(), actor(r), urlParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, u)
}

// BackfillTenant handles POST /api/owner/tenants/{id}/backfill.
func (h *Handlers) BackfillTenant(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Seed.Backfill(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, counts)
}

// PlatformStats handles GET /api/owner/stats.
func (h *Handlers) PlatformStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Tenants.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}
