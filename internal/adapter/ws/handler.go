// Package ws implements the WebSocket adapter for real-time ticket events.
// Every connection is bound to the tenant it was opened against and only
// receives that tenant's events.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/ServicePulse/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

const writeTimeout = 5 * time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection.
type conn struct {
	ws       *websocket.Conn
	tenantID string
	cancel   context.CancelFunc
}

// Hub manages all active WebSocket connections grouped by tenant.
type Hub struct {
	mu      sync.RWMutex
	tenants map[string]map[*conn]struct{}
	origins []string
}

// NewHub creates a new WebSocket hub. originPatterns restricts the Origin
// header accepted during the handshake; empty allows same-host only.
func NewHub(originPatterns ...string) *Hub {
	return &Hub{
		tenants: make(map[string]map[*conn]struct{}),
		origins: originPatterns,
	}
}

// ServeTenant upgrades the request and registers the connection under
// tenantID. A non-zero expires closes the connection when the session ends.
func (h *Hub) ServeTenant(w http.ResponseWriter, r *http.Request, tenantID string, expires time.Time) {
	if tenantID == "" {
		http.Error(w, "tenant required", http.StatusBadRequest)
		return
	}
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "websocket accept failed", "error", err)
		return
	}

	// The request context ends when the handler returns; the read loop outlives it.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	c := &conn{ws: ws, tenantID: tenantID, cancel: cancel}
	if !expires.IsZero() {
		t := time.AfterFunc(time.Until(expires), func() {
			_ = ws.Close(websocket.StatusPolicyViolation, "session expired")
			h.remove(c)
		})
		context.AfterFunc(ctx, func() { t.Stop() })
	}

	h.mu.Lock()
	set, ok := h.tenants[tenantID]
	if !ok {
		set = make(map[*conn]struct{})
		h.tenants[tenantID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	slog.InfoContext(ctx, "websocket connected", "remote", r.RemoteAddr, "tenant_id", tenantID)

	// Read loop (to detect disconnects and consume pings)
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// BroadcastToTenant wraps payload in a Message of eventType for tenantID's
// clients. An empty tenant ID reaches nobody.
func (h *Hub) BroadcastToTenant(ctx context.Context, tenantID, eventType string, payload any) {
	if tenantID == "" {
		slog.WarnContext(ctx, "ticket event without tenant dropped", "type", eventType)
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal ticket event", "type", eventType, "error", err)
		return
	}
	h.Broadcast(ctx, tenantID, Message{Type: eventType, Payload: raw})
}

// Broadcast sends a message to every client of one tenant.
func (h *Hub) Broadcast(ctx context.Context, tenantID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.tenants[tenantID]))
	for c := range h.tenants[tenantID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.ws.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("websocket write failed", "tenant_id", tenantID, "error", err)
			h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections across all tenants.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.tenants {
		n += len(set)
	}
	return n
}

// TenantConnectionCount returns the number of active connections of one tenant.
func (h *Hub) TenantConnectionCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*conn
	for _, set := range h.tenants {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.Unlock()
	for _, c := range all {
		_ = c.ws.Close(websocket.StatusGoingAway, "server shutdown")
		h.remove(c)
	}
}

// CloseTenant disconnects every client of one tenant. Clients reconnect
// through tenant resolution, which rejects a suspended tenant.
func (h *Hub) CloseTenant(tenantID string) {
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.tenants[tenantID]))
	for c := range h.tenants[tenantID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		_ = c.ws.Close(websocket.StatusTryAgainLater, "tenant changed")
		h.remove(c)
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.tenants[c.tenantID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		c.cancel()
		delete(set, c)
		if len(set) == 0 {
			delete(h.tenants, c.tenantID)
		}
		slog.Info("websocket disconnected", "tenant_id", c.tenantID)
	}
}
