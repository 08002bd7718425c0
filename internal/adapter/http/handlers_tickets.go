package http

import (
	"net/http"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain/ticket"
	"github.com/Strob0t/ServicePulse/internal/middleware"
)

// CreateTicket handles POST /api/tickets from the storefront.
func (h *Handlers) CreateTicket(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[ticket.CreateRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shop := ""
	if tc := middleware.TenantFromContext(r.Context()); tc != nil {
		shop = tc.Config.ShopName
		if shop == "" {
			shop = tc.Name
		}
	}
	t, err := h.Tickets.Create(r.Context(), tenantID(r), shop, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, t, "Ticket aangemaakt")
}

// SessionTickets handles GET /api/tickets/session/{sessionId}.
func (h *Handlers) SessionTickets(w http.ResponseWriter, r *http.Request) {
	items, err := h.Tickets.ListBySession(r.Context(), tenantID(r), urlParam(r, "sessionId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []ticket.Ticket{}
	}
	writeData(w, http.StatusOK, items)
}

// CustomerMessage handles POST /api/tickets/{id}/messages. The body's
// sessionId must match the ticket.
func (h *Handlers) CustomerMessage(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[ticket.MessageRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.Tickets.AddCustomerMessage(r.Context(), tenantID(r), urlParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, m)
}

// StaffReply handles POST /api/tickets/{id}/reply.
func (h *Handlers) StaffReply(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[ticket.MessageRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.Tickets.AddStaffMessage(r.Context(), tenantID(r), actor(r), "staff", urlParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, m)
}

// ListTickets handles GET /api/tickets?status=.
func (h *Handlers) ListTickets(w http.ResponseWriter, r *http.Request) {
	items, err := h.Tickets.List(r.Context(), tenantID(r), ticket.Status(r.URL.Query().Get("status")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []ticket.Ticket{}
	}
	writeData(w, http.StatusOK, items)
}

// GetTicket handles GET /api/tickets/{id}.
func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tickets.Get(r.Context(), tenantID(r), urlParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

// UpdateTicket handles PATCH /api/tickets/{id}.
func (h *Handlers) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[ticket.UpdateRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.Tickets.UpdateStatus(r.Context(), tenantID(r), actor(r), urlParam(r, "id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

// TicketEvents handles GET /api/tickets/ws. The connection is bound to the
// resolved tenant, only receives that tenant's events and is closed when the
// session expires.
func (h *Handlers) TicketEvents(w http.ResponseWriter, r *http.Request) {
	var expires time.Time
	if c := middleware.ClaimsFromContext(r.Context()); c != nil {
		expires = c.ExpiresAt
	}
	h.Hub.ServeTenant(w, r, tenantID(r), expires)
}
