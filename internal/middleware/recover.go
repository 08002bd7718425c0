package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// ErrPanic marks an error produced by a recovered panic.
var ErrPanic = errors.New("panic")

// Recover turns a panic in a handler into an INTERNAL_ERROR response.
func Recover(writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.ErrorContext(r.Context(), "panic recovered",
					"panic", fmt.Sprint(rec),
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				writeErr(w, r, fmt.Errorf("%w: %v", ErrPanic, rec))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
