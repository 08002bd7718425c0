package http

import (
	"net/http"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain/user"
	"github.com/Strob0t/ServicePulse/internal/middleware"
)

type exchangeRequest struct {
	Code string `json:"code" validate:"required"`
}

type exchangeCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles POST /api/auth/login. The email is looked up in the
// resolved tenant only.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[user.LoginRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.Auth.Login(r.Context(), tenantID(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, h.Session.TenantCookie, resp)
	writeMessage(w, http.StatusOK, resp, "Succesvol ingelogd")
}

// OwnerLogin handles POST /api/auth/owner-login.
func (h *Handlers) OwnerLogin(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[user.LoginRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.Auth.OwnerLogin(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, h.Session.OwnerCookie, resp)
	writeMessage(w, http.StatusOK, resp, "Succesvol ingelogd")
}

// Logout handles POST /api/auth/logout and clears both session cookies.
func (h *Handlers) Logout(w http.ResponseWriter, _ *http.Request) {
	h.clearCookie(w, h.Session.TenantCookie)
	h.clearCookie(w, h.Session.OwnerCookie)
	writeMessage(w, http.StatusOK, nil, "Uitgelogd")
}

// Me handles GET /api/auth/me and GET /api/owner/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Me(r.Context(), middleware.ClaimsFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

// CreateExchangeCode handles POST /api/auth/exchange-code.
func (h *Handlers) CreateExchangeCode(w http.ResponseWriter, r *http.Request) {
	code, expires, err := h.Auth.CreateExchangeCode(r.Context(), middleware.ClaimsFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, exchangeCodeResponse{Code: code, ExpiresAt: expires})
}

// Exchange handles POST /api/auth/exchange. A valid code yields a session
// cookie on the tenant the code was issued for.
func (h *Handlers) Exchange(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[exchangeRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.Auth.Exchange(r.Context(), tenantID(r), req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, h.Session.TenantCookie, resp)
	writeData(w, http.StatusOK, resp)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, name string, resp *user.LoginResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    resp.AccessToken,
		Path:     "/",
		MaxAge:   resp.ExpiresIn,
		HttpOnly: true,
		Secure:   h.Session.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Session.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
