// Package middleware provides the HTTP middleware chain of the API:
// request IDs, tenant resolution, sessions, permissions and rate limits.
package middleware

import "net/http"

// ErrorWriter renders err as the API error envelope. Middleware never
// formats errors itself so every rejection has the same shape.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)
