package http

import (
	"net/http"

	"github.com/Strob0t/ServicePulse/internal/domain/marketing"
)

// ActiveBanners handles GET /api/banners/active?position=.
func (h *Handlers) ActiveBanners(w http.ResponseWriter, r *http.Request) {
	items, err := h.Banners.Active(r.Context(), tenantID(r), marketing.BannerPosition(r.URL.Query().Get("position")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []marketing.Banner{}
	}
	writeData(w, http.StatusOK, items)
}

// ValidateDiscount handles POST /api/discounts/validate. An unusable code
// is a 200 with valid=false.
func (h *Handlers) ValidateDiscount(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[marketing.ValidateRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Discounts.Validate(r.Context(), tenantID(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}
