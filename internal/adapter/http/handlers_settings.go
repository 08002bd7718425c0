package http

import (
	"net/http"

	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/domain/setting"
	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
)

// GetSetting handles GET /api/settings/{key}.
func (h *Handlers) GetSetting(w http.ResponseWriter, r *http.Request) {
	st, err := h.Settings.Get(r.Context(), tenantID(r), urlParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

// UpsertSetting handles PUT /api/settings/{key}.
func (h *Handlers) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[setting.UpsertRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	st, err := h.Settings.Upsert(r.Context(), tenantID(r), actor(r), urlParam(r, "key"), req.Value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

// DeleteSetting handles DELETE /api/settings/{key}.
func (h *Handlers) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.Settings.Delete(r.Context(), tenantID(r), actor(r), urlParam(r, "key")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Verwijderd")
}

// UpdateShopConfig handles PUT /api/tenant/config. Feature flags in the
// body are ignored; only the owner console changes them.
func (h *Handlers) UpdateShopConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := readJSON[tenant.Config](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.Settings.UpdateShopConfig(r.Context(), tenantID(r), actor(r), cfg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// ListAuditLogs handles GET /api/audit-logs?entity=&limit=&offset=.
func (h *Handlers) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, err := h.Audit.List(r.Context(), tenantID(r), audit.Filter{
		Entity: r.URL.Query().Get("entity"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeData(w, http.StatusOK, entries)
}
