package edgeproxy_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/Strob0t/ServicePulse/internal/edgeproxy"
)

type seenRequest struct {
	host    string
	method  string
	uri     string
	body    string
	headers http.Header
}

// upstream records the last request the backend received.
type upstream struct {
	mu   sync.Mutex
	last seenRequest
}

func (u *upstream) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = seenRequest{
		host:    r.Host,
		method:  r.Method,
		uri:     r.URL.RequestURI(),
		body:    string(body),
		headers: r.Header.Clone(),
	}
}

func (u *upstream) seen() seenRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last
}

func newProxy(t *testing.T, backend http.HandlerFunc) (http.Handler, *upstream) {
	t.Helper()
	rec := &upstream{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		backend(w, r)
	}))
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	p, err := edgeproxy.New(edgeproxy.Options{Backend: u})
	if err != nil {
		t.Fatalf("new proxy: %v", err)
	}
	return edgeproxy.NewHandler(p, "edgeproxy-test"), rec
}

func TestProxy_HeaderAllowList(t *testing.T) {
	h, up := newProxy(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/tickets?draft=1", strings.NewReader(`{"subject":"x"}`))
	req.Host = "shop-a.be"
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("Cookie", "auth_token=abc")
	req.Header.Set("X-Internal-Secret", "leak")
	req.Header.Set("X-Forwarded-For", "6.6.6.6")
	req.RemoteAddr = "203.0.113.7:5555"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	rec := up.seen()
	if rec.host != "shop-a.be" {
		t.Errorf("upstream Host = %q, want shop-a.be", rec.host)
	}
	if got := rec.headers.Get("X-Forwarded-Host"); got != "shop-a.be" {
		t.Errorf("X-Forwarded-Host = %q", got)
	}
	if rec.method != http.MethodPost || rec.uri != "/api/tickets?draft=1" || rec.body != `{"subject":"x"}` {
		t.Errorf("upstream request = %s %s %q", rec.method, rec.uri, rec.body)
	}
	if rec.headers.Get("Authorization") != "Bearer tok" || rec.headers.Get("Cookie") != "auth_token=abc" {
		t.Errorf("auth headers not forwarded: %v", rec.headers)
	}
	if rec.headers.Get("Content-Type") != "application/json" || rec.headers.Get("Accept") != "application/json" {
		t.Errorf("defaults missing: %v", rec.headers)
	}
	if rec.headers.Get("X-Internal-Secret") != "" {
		t.Error("unlisted header forwarded")
	}
	if got := rec.headers.Get("X-Forwarded-For"); got != "203.0.113.7" {
		t.Errorf("X-Forwarded-For = %q, want only the client address", got)
	}
}

func TestProxy_RedirectIsPassedThrough(t *testing.T) {
	h, _ := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://login.example/elsewhere", http.StatusTemporaryRedirect)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/sso", nil)
	req.Host = "shop-a.be"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://login.example/elsewhere" {
		t.Errorf("Location = %q", loc)
	}
}

func TestProxy_SuspendedTenantRedirects(t *testing.T) {
	bodies := map[string]string{
		"envelope":  `{"success":false,"error":{"code":"TENANT_SUSPENDED","message":"Dit account is opgeschort"}}`,
		"top level": `{"code":"TENANT_SUSPENDED"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			h, _ := newProxy(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(body))
			})
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			req.Host = "shop-a.be"
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != http.StatusFound || w.Header().Get("Location") != edgeproxy.SuspendedPath {
				t.Fatalf("status = %d location = %q", w.Code, w.Header().Get("Location"))
			}
		})
	}
}

func TestProxy_OtherForbiddenIsRelayed(t *testing.T) {
	const body = `{"success":false,"error":{"code":"FORBIDDEN"}}`
	h, _ := newProxy(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(body))
	})
	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Host = "shop-a.be"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden || w.Body.String() != body {
		t.Fatalf("status = %d body = %q", w.Code, w.Body.String())
	}
}

func TestProxy_ResponseHeaders(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nrest")
	h, _ := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "a"})
		http.SetCookie(w, &http.Cookie{Name: "owner_session", Value: "", MaxAge: -1})
		w.Header().Set("X-Backend-Version", "1")
		if r.URL.Path == "/api/invoice.png" {
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Disposition", `attachment; filename="invoice.png"`)
			_, _ = w.Write(png)
			return
		}
		w.Header().Set("Content-Disposition", "inline")
		// No Content-Type and no sniffing; the proxy supplies the default.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/invoice.png", nil)
	req.Host = "shop-a.be"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Body.Bytes(); string(got) != string(png) {
		t.Errorf("binary body altered: %q", got)
	}
	if w.Header().Get("Content-Disposition") != `attachment; filename="invoice.png"` {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if w.Header().Get("Content-Length") != "12" {
		t.Errorf("Content-Length = %q", w.Header().Get("Content-Length"))
	}
	if n := len(w.Result().Header.Values("Set-Cookie")); n != 2 {
		t.Errorf("Set-Cookie count = %d, want 2", n)
	}
	if w.Header().Get("X-Backend-Version") != "" {
		t.Error("unlisted response header relayed")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Host = "shop-a.be"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("default Content-Type = %q", ct)
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Error("Content-Disposition relayed on a text response")
	}
}

func TestProxy_BackendDownIs502(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(srv.URL)
	srv.Close()

	p, err := edgeproxy.New(edgeproxy.Options{Backend: u})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Host = "shop-a.be"
	w := httptest.NewRecorder()
	edgeproxy.NewHandler(p, "edgeproxy-test").ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestProxy_OnlyAPIIsRelayed(t *testing.T) {
	h, up := newProxy(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if up.seen().method != "" {
		t.Error("non-api request reached the backend")
	}
}

func TestNew_RequiresAbsoluteBackend(t *testing.T) {
	if _, err := edgeproxy.New(edgeproxy.Options{Backend: &url.URL{Path: "/api"}}); err == nil {
		t.Error("expected error for relative backend URL")
	}
}

func TestOriginalHost(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	r.Host = ""
	r.Header.Set("X-Forwarded-Host", "shop-b.be, proxy.internal")
	if got := edgeproxy.OriginalHost(r); got != "shop-b.be" {
		t.Errorf("OriginalHost = %q", got)
	}
}
