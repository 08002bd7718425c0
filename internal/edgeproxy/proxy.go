// Package edgeproxy relays browser API calls to the backend. It keeps the
// Host the browser used, because that host selects the tenant.
package edgeproxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	cfhttp "github.com/Strob0t/ServicePulse/internal/adapter/http"
	"github.com/Strob0t/ServicePulse/internal/adapter/otel"
	"github.com/Strob0t/ServicePulse/internal/metrics"
	"github.com/Strob0t/ServicePulse/internal/middleware"
)

// SuspendedPath is where browsers of a suspended shop are sent.
const SuspendedPath = "/suspended"

// Proxy outcomes reported to metrics.
const (
	OutcomeForwarded     = "forwarded"
	OutcomeSuspended     = "suspended"
	OutcomeUpstreamError = "upstream_error"
)

// maxSniff bounds how much of a 403 body is read to look for TENANT_SUSPENDED.
const maxSniff = 64 << 10

// Options configures a Proxy.
type Options struct {
	// Backend is the API origin, e.g. http://backend:3001.
	Backend *url.URL
	// Timeout bounds the wait for upstream response headers.
	Timeout time.Duration
	// Transport overrides the upstream round tripper.
	Transport http.RoundTripper
	// Production masks upstream error details in the 502 envelope.
	Production bool
}

// Proxy forwards /api requests with a fixed header allow-list. It never
// follows upstream redirects and never retries.
type Proxy struct {
	rp     *httputil.ReverseProxy
	errors middleware.ErrorWriter
}

// New creates a Proxy for opts.Backend.
func New(opts Options) (*Proxy, error) {
	if opts.Backend == nil || opts.Backend.Scheme == "" || opts.Backend.Host == "" {
		return nil, errors.New("edgeproxy: backend URL must be absolute")
	}

	rt := opts.Transport
	if rt == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if opts.Timeout > 0 {
			t.ResponseHeaderTimeout = opts.Timeout
		}
		rt = t
	}

	p := &Proxy{errors: cfhttp.NewErrorWriter(opts.Production)}
	p.rp = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			rewrite(pr, opts.Backend)
		},
		Transport:      otel.Transport(rt),
		ModifyResponse: modifyResponse,
		ErrorHandler:   p.upstreamError,
		// Streams ticket event bodies without buffering.
		FlushInterval: -1,
	}
	return p, nil
}

// ServeHTTP relays one request.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

// OriginalHost returns the host the browser asked for: the incoming Host,
// falling back to the first X-Forwarded-Host value.
func OriginalHost(r *http.Request) string {
	if r.Host != "" {
		return r.Host
	}
	fwd := r.Header.Get("X-Forwarded-Host")
	if i := strings.IndexByte(fwd, ','); i >= 0 {
		fwd = fwd[:i]
	}
	return strings.TrimSpace(fwd)
}

// upgradeHeaders carry the WebSocket handshake of /api/tickets/ws.
var upgradeHeaders = []string{
	"Origin",
	"Sec-WebSocket-Key",
	"Sec-WebSocket-Version",
	"Sec-WebSocket-Protocol",
	"Sec-WebSocket-Extensions",
}

// rewrite builds the upstream request. Only the allow-listed headers survive.
func rewrite(pr *httputil.ProxyRequest, backend *url.URL) {
	in := pr.In.Header
	host := OriginalHost(pr.In)

	pr.SetURL(backend)

	out := make(http.Header)
	out.Set("Content-Type", valueOr(in.Get("Content-Type"), "application/json"))
	out.Set("Accept", valueOr(in.Get("Accept"), "application/json"))
	if v := in.Get("Authorization"); v != "" {
		out.Set("Authorization", v)
	}
	if cookies := in.Values("Cookie"); len(cookies) > 0 {
		out.Set("Cookie", strings.Join(cookies, "; "))
	}
	if host != "" {
		pr.Out.Host = host
		out.Set("X-Forwarded-Host", host)
	}
	if up := in.Get("Upgrade"); up != "" {
		out.Set("Connection", "Upgrade")
		out.Set("Upgrade", up)
		for _, k := range upgradeHeaders {
			if v := in.Get(k); v != "" {
				out.Set(k, v)
			}
		}
	}
	// Replaces any client supplied chain so the backend can trust the last hop.
	if ip, _, err := net.SplitHostPort(pr.In.RemoteAddr); err == nil {
		out.Set("X-Forwarded-For", ip)
	}
	pr.Out.Header = out
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// modifyResponse turns a suspended-tenant 403 into a redirect and trims
// response headers to what the browser needs.
func modifyResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusSwitchingProtocols {
		metrics.RecordProxy(OutcomeForwarded)
		return nil
	}
	if resp.StatusCode == http.StatusForbidden {
		suspended, err := sniffSuspended(resp)
		if err != nil {
			return err
		}
		if suspended {
			_ = resp.Body.Close()
			resp.StatusCode = http.StatusFound
			resp.Status = fmt.Sprintf("%d %s", http.StatusFound, http.StatusText(http.StatusFound))
			resp.Header = http.Header{"Location": {SuspendedPath}}
			resp.Body = http.NoBody
			resp.ContentLength = 0
			metrics.RecordProxy(OutcomeSuspended)
			return nil
		}
	}

	resp.Header = relayHeaders(resp.StatusCode, resp.Header)
	metrics.RecordProxy(OutcomeForwarded)
	return nil
}

// sniffSuspended reads the start of the body and restores it for relaying.
func sniffSuspended(resp *http.Response) (bool, error) {
	head, err := io.ReadAll(io.LimitReader(resp.Body, maxSniff))
	if err != nil {
		return false, fmt.Errorf("read upstream 403 body: %w", err)
	}
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), resp.Body), resp.Body}

	var body struct {
		Code  string `json:"code"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(head, &body) != nil {
		return false, nil
	}
	const code = cfhttp.CodeTenantSuspended
	return body.Code == code || (body.Error != nil && body.Error.Code == code), nil
}

// IsBinary reports whether a response of contentType is relayed as raw bytes.
func IsBinary(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/pdf") ||
		strings.Contains(ct, "application/octet-stream") ||
		strings.Contains(ct, "image/")
}

func relayHeaders(status int, up http.Header) http.Header {
	h := make(http.Header)
	ct := valueOr(up.Get("Content-Type"), "application/json")
	h.Set("Content-Type", ct)
	for _, c := range up.Values("Set-Cookie") {
		h.Add("Set-Cookie", c)
	}
	if status >= 300 && status < 400 {
		if loc := up.Get("Location"); loc != "" {
			h.Set("Location", loc)
		}
	}
	if IsBinary(ct) {
		if v := up.Get("Content-Length"); v != "" {
			h.Set("Content-Length", v)
		}
		if v := up.Get("Content-Disposition"); v != "" {
			h.Set("Content-Disposition", v)
		}
	}
	return h
}

func (p *Proxy) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	metrics.RecordProxy(OutcomeUpstreamError)
	slog.WarnContext(r.Context(), "backend unreachable",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	p.errors(w, r, &cfhttp.StatusError{
		Status:  http.StatusBadGateway,
		Message: "upstream: " + err.Error(),
	})
}
