package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/middleware"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation detail", fmt.Errorf("%w: price must be positive", domain.ErrValidation), 400, CodeValidation, messages[CodeValidation]},
		{"wrapped not found hides context", fmt.Errorf("get product p1: %w", domain.ErrNotFound), 404, CodeNotFound, messages[CodeNotFound]},
		{"no rows", fmt.Errorf("query: %w", pgx.ErrNoRows), 404, CodeNotFound, messages[CodeNotFound]},
		{"tenant not found", domain.ErrTenantNotFound, 404, CodeTenantNotFound, "Winkel niet gevonden"},
		{"tenant suspended", fmt.Errorf("tenant a: %w", domain.ErrTenantSuspended), 403, CodeTenantSuspended, "Dit account is opgeschort"},
		{"tenant archived", domain.ErrTenantUnavailable, 503, CodeTenantUnavailable, messages[CodeTenantUnavailable]},
		{"tenant required", domain.ErrTenantRequired, 400, CodeBadRequest, messages[CodeBadRequest]},
		{"wrong tenant session", middleware.ErrWrongTenant, 401, CodeUnauthorized, messages[CodeUnauthorized]},
		{"storage down", fmt.Errorf("put: %w", domain.ErrUnavailable), 503, CodeInternal, unavailableMessage},
		{"rate limited", fmt.Errorf("%w: retry in 3s", domain.ErrRateLimited), 429, CodeRateLimited, messages[CodeRateLimited]},
		{"unique violation", &pgconn.PgError{Code: "23505"}, 409, CodeConflict, messages[CodeConflict]},
		{"foreign key", &pgconn.PgError{Code: "23503"}, 400, CodeBadRequest, messages[CodeBadRequest]},
		{"explicit status", &StatusError{Status: http.StatusMethodNotAllowed}, 405, CodeBadRequest, messages[CodeBadRequest]},
		{"field errors", fieldErrors{"name": "is required"}, 400, CodeValidation, messages[CodeValidation]},
		{"too large", &http.MaxBytesError{Limit: 10}, 413, CodeBadRequest, "Verzoek is te groot"},
		{"unknown", errors.New("boom"), 500, CodeInternal, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.status != tt.wantStatus || got.code != tt.wantCode || got.message != tt.wantMsg {
				t.Errorf("classify = %d %s %q, want %d %s %q", got.status, got.code, got.message, tt.wantStatus, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestClassify_DetailGoesToDetails(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason string
	}{
		{"validation", fmt.Errorf("%w: price must be positive", domain.ErrValidation), "price must be positive"},
		{"wrong tenant", middleware.ErrWrongTenant, "Session not valid for this tenant"},
		{"explicit status", &StatusError{Status: http.StatusBadRequest, Message: "Invalid Host header"}, "Invalid Host header"},
		{"wrapped context", fmt.Errorf("get product p1: %w", domain.ErrNotFound), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.message != messages[got.code] {
				t.Errorf("message = %q, want fixed %q", got.message, messages[got.code])
			}
			if tt.wantReason == "" {
				if got.details != nil {
					t.Errorf("details = %v, want none", got.details)
				}
				return
			}
			d, _ := got.details.(map[string]string)
			if d["reason"] != tt.wantReason {
				t.Errorf("details = %v, want reason %q", got.details, tt.wantReason)
			}
		})
	}
}

func TestErrorWriterMasksInternalErrorsInProduction(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		err        error
		wantMsg    string
	}{
		{"development shows cause", false, errors.New("dial tcp: refused"), "dial tcp: refused"},
		{"production masks cause", true, errors.New("dial tcp: refused"), messages[CodeInternal]},
		{"production panic", true, fmt.Errorf("%w: nil map", middleware.ErrPanic), panicMessage},
		{"production keeps client errors", true, fmt.Errorf("%w: name is required", domain.ErrValidation), "name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/products?limit=5", nil)
			NewErrorWriter(tt.production)(w, r, tt.err)

			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Success {
				t.Error("success = true")
			}
			if body.Error.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Error.Message, tt.wantMsg)
			}
			if body.Path != "/api/products?limit=5" || body.Timestamp == "" {
				t.Errorf("path = %q timestamp = %q", body.Path, body.Timestamp)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("content-type = %q", ct)
			}
		})
	}
}
