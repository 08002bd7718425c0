package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/middleware"
)

// Error codes of the envelope.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
	CodeBadRequest        = "BAD_REQUEST"
	CodeTenantNotFound    = "TENANT_NOT_FOUND"
	CodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	CodeTenantSuspended   = "TENANT_SUSPENDED"
	CodeTenantUnavailable = "TENANT_UNAVAILABLE"
)

var messages = map[string]string{
	CodeValidation:        "Validatiefout in de ingevoerde gegevens",
	CodeNotFound:          "De gevraagde bron is niet gevonden",
	CodeUnauthorized:      "U bent niet geautoriseerd om deze actie uit te voeren",
	CodeForbidden:         "U heeft geen toegang tot deze bron",
	CodeConflict:          "Er is een conflict met bestaande gegevens",
	CodeInternal:          "Er is een interne serverfout opgetreden",
	CodeBadRequest:        "Ongeldig verzoek",
	CodeTenantNotFound:    "Winkel niet gevonden",
	CodeRateLimited:       "Te veel verzoeken, probeer later opnieuw",
	CodeTenantSuspended:   "Dit account is opgeschort",
	CodeTenantUnavailable: "Deze winkel is tijdelijk niet beschikbaar",
}

const (
	panicMessage       = "Er is een onverwachte fout opgetreden"
	unavailableMessage = "Dienst tijdelijk niet beschikbaar, probeer later opnieuw"
)

// Postgres SQLSTATE codes surfaced to clients.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

// StatusError carries an explicit HTTP status. Its code is derived from the status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// fieldErrors reports request DTO validation failures per JSON field.
type fieldErrors map[string]string

func (f fieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+" "+v)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (f fieldErrors) Unwrap() error { return domain.ErrValidation }

// apiError is an error resolved to its wire form.
type apiError struct {
	status   int
	code     string
	message  string
	details  any
	internal bool
}

// NewErrorWriter returns the ErrorWriter every handler and middleware uses.
// In production the message of internal errors is replaced by the generic one.
func NewErrorWriter(production bool) middleware.ErrorWriter {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		e := classify(err)
		if e.internal {
			slog.ErrorContext(r.Context(), "request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			if production {
				e.message = messages[CodeInternal]
				if errors.Is(err, middleware.ErrPanic) {
					e.message = panicMessage
				}
			}
		}
		writeJSON(w, e.status, errorBody{
			Success:   false,
			Error:     errorDetail{Code: e.code, Message: e.message, Details: e.details},
			Timestamp: timestamp(),
			Path:      r.URL.RequestURI(),
		})
	}
}

// classify maps domain sentinels, Postgres errors and explicit statuses to the envelope.
func classify(err error) apiError {
	var fe fieldErrors
	if errors.As(err, &fe) {
		return apiError{status: http.StatusBadRequest, code: CodeValidation, message: messages[CodeValidation], details: map[string]string(fe)}
	}

	var se *StatusError
	if errors.As(err, &se) {
		code := codeForStatus(se.Status)
		if se.Status >= http.StatusInternalServerError {
			msg := se.Message
			if msg == "" {
				msg = messages[code]
			}
			return apiError{status: se.Status, code: code, message: msg, internal: true}
		}
		return apiError{status: se.Status, code: code, message: messages[code], details: reason(se.Message)}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apiError{status: http.StatusRequestEntityTooLarge, code: CodeBadRequest, message: "Verzoek is te groot"}
	}

	switch {
	case errors.Is(err, middleware.ErrPanic):
		return apiError{status: http.StatusInternalServerError, code: CodeInternal, message: panicMessage, internal: true}
	case errors.Is(err, domain.ErrValidation):
		return sentinel(err, domain.ErrValidation, http.StatusBadRequest, CodeValidation)
	case errors.Is(err, domain.ErrBadReference):
		return sentinel(err, domain.ErrBadReference, http.StatusBadRequest, CodeBadRequest)
	case errors.Is(err, domain.ErrBadRequest):
		return sentinel(err, domain.ErrBadRequest, http.StatusBadRequest, CodeBadRequest)
	case errors.Is(err, domain.ErrTenantRequired):
		return apiError{status: http.StatusBadRequest, code: CodeBadRequest, message: messages[CodeBadRequest]}
	case errors.Is(err, domain.ErrTenantNotFound):
		return apiError{status: http.StatusNotFound, code: CodeTenantNotFound, message: messages[CodeTenantNotFound]}
	case errors.Is(err, domain.ErrTenantSuspended):
		return apiError{status: http.StatusForbidden, code: CodeTenantSuspended, message: messages[CodeTenantSuspended]}
	case errors.Is(err, domain.ErrTenantUnavailable):
		return apiError{status: http.StatusServiceUnavailable, code: CodeTenantUnavailable, message: messages[CodeTenantUnavailable]}
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return sentinel(err, domain.ErrNotFound, http.StatusNotFound, CodeNotFound)
	case errors.Is(err, domain.ErrConflict):
		return sentinel(err, domain.ErrConflict, http.StatusConflict, CodeConflict)
	case errors.Is(err, domain.ErrUnauthorized):
		return sentinel(err, domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		return sentinel(err, domain.ErrForbidden, http.StatusForbidden, CodeForbidden)
	case errors.Is(err, domain.ErrUnavailable):
		return apiError{status: http.StatusServiceUnavailable, code: CodeInternal, message: unavailableMessage}
	case errors.Is(err, domain.ErrRateLimited):
		return apiError{status: http.StatusTooManyRequests, code: CodeRateLimited, message: messages[CodeRateLimited]}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apiError{status: http.StatusConflict, code: CodeConflict, message: messages[CodeConflict]}
		case pgForeignKeyViolation, pgInvalidTextRepr:
			return apiError{status: http.StatusBadRequest, code: CodeBadRequest, message: messages[CodeBadRequest]}
		}
	}

	return apiError{status: http.StatusInternalServerError, code: CodeInternal, message: err.Error(), internal: true}
}

// sentinel answers with the fixed message of code. When the error was built
// as fmt.Errorf("%w: detail", target), the detail goes to details.reason.
// Other wrappings carry internal context and are not exposed.
func sentinel(err, target error, status int, code string) apiError {
	detail, _ := strings.CutPrefix(err.Error(), target.Error()+": ")
	if detail == err.Error() {
		detail = ""
	}
	return apiError{status: status, code: code, message: messages[code], details: reason(detail)}
}

func reason(detail string) any {
	if detail == "" {
		return nil
	}
	return map[string]string{"reason": detail}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusTooManyRequests:
		return CodeRateLimited
	default:
		if status < http.StatusInternalServerError && status >= http.StatusBadRequest {
			return CodeBadRequest
		}
		return CodeInternal
	}
}
