package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/ServicePulse/internal/logger"
)

const headerRequestID = "X-Request-ID"

// maxRequestIDLen bounds client supplied IDs before they reach the logs.
const maxRequestIDLen = 128

// RequestID reuses a well-formed incoming X-Request-ID, such as one set by a
// load balancer, or mints a UUID. The ID is echoed on the response and
// attached to every log line of the request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// validRequestID accepts visible ASCII only, so a client cannot forge log lines.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '!' || id[i] > '~' {
			return false
		}
	}
	return true
}
