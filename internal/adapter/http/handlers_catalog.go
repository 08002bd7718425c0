package http

import (
	"net/http"

	"github.com/Strob0t/ServicePulse/internal/domain/catalog"
)

// ListCategories handles GET /api/categories. Storefront callers only see
// active categories; /api/categories/all is the admin listing.
func (h *Handlers) ListCategories(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.Categories.List(r.Context(), tenantID(r), activeOnly)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if items == nil {
			items = []catalog.Category{}
		}
		writeData(w, http.StatusOK, items)
	}
}

// ListProducts handles GET /api/products with category, featured, search
// and paging filters.
func (h *Handlers) ListProducts(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		q := r.URL.Query()
		f := catalog.ProductFilter{
			CategoryID: q.Get("categoryId"),
			ActiveOnly: activeOnly,
			Featured:   queryBool(r, "featured"),
			Search:     q.Get("search"),
			Limit:      limit,
			Offset:     offset,
		}
		items, err := h.Products.List(r.Context(), tenantID(r), f)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if items == nil {
			items = []catalog.Product{}
		}
		writeData(w, http.StatusOK, items)
	}
}
