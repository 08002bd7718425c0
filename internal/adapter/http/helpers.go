package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/middleware"
	"github.com/Strob0t/ServicePulse/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// readJSON decodes and validates a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return v, err
		case errors.Is(err, io.EOF):
			return v, fmt.Errorf("%w: request body is empty", domain.ErrBadRequest)
		default:
			return v, fmt.Errorf("%w: invalid JSON body", domain.ErrBadRequest)
		}
	}
	if err := validateStruct(v); err != nil {
		return v, err
	}
	return v, nil
}

// validateStruct runs struct tag validation and reports failures per JSON field.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Non-struct payloads carry no tags.
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return err
	}
	fields := make(fieldErrors, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), typeName(v)+".")
		fields[field] = describe(fe)
	}
	return fields
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid id"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "hexcolor":
		return "must be a hex color"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// tenantID returns the tenant the request was resolved to.
func tenantID(r *http.Request) string {
	return middleware.TenantIDFromContext(r.Context())
}

// actor identifies the authenticated user for the audit log.
func actor(r *http.Request) service.Actor {
	if c := middleware.ClaimsFromContext(r.Context()); c != nil {
		return service.Actor{UserID: c.UserID}
	}
	return service.Actor{}
}

// queryInt parses a non-negative integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrBadRequest, name)
	}
	return n, nil
}

// queryBool reports whether a query flag is set to a truthy value.
func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
