package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStatusClass(t *testing.T) {
	tests := map[int]string{200: "2xx", 302: "3xx", 404: "4xx", 429: "4xx", 502: "5xx"}
	for code, want := range tests {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %s, want %s", code, got, want)
		}
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordResolution("db", OutcomeResolved)
	RecordHTTP(http.MethodGet, 200, 10*time.Millisecond)
	RecordProxy("forwarded")
	RecordBreakerState("storage", 1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	body := rec.Body.String()
	for _, name := range []string{
		"servicepulse_tenant_resolutions_total",
		"servicepulse_http_requests_total",
		"edgeproxy_requests_total",
		`servicepulse_breaker_state{name="storage"} 1`,
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
