package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/ServicePulse/internal/middleware"
	"github.com/Strob0t/ServicePulse/internal/service"
)

// The factories below always pass the resolved tenant of the request, never
// a tenant taken from the body or the path.

// handleList creates a handler that lists resources of the request's tenant.
func handleList[T any](writeErr middleware.ErrorWriter, listFn func(ctx context.Context, tenantID string) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := listFn(r.Context(), tenantID(r))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeData(w, http.StatusOK, items)
	}
}

// handleGet creates a handler that retrieves a single resource by URL param "id".
func handleGet[T any](writeErr middleware.ErrorWriter, getFn func(ctx context.Context, tenantID, id string) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := getFn(r.Context(), tenantID(r), urlParam(r, "id"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusOK, item)
	}
}

// handleCreate creates a handler that decodes a JSON body and creates a resource.
func handleCreate[Req any, Res any](writeErr middleware.ErrorWriter, createFn func(ctx context.Context, tenantID string, a service.Actor, req Req) (*Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readJSON[Req](w, r)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		res, err := createFn(r.Context(), tenantID(r), actor(r), req)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, res)
	}
}

// handleUpdate creates a handler that decodes a JSON body and updates a resource by URL param "id".
func handleUpdate[Req any, Res any](writeErr middleware.ErrorWriter, updateFn func(ctx context.Context, tenantID string, a service.Actor, id string, req Req) (*Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readJSON[Req](w, r)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		res, err := updateFn(r.Context(), tenantID(r), actor(r), urlParam(r, "id"), req)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeData(w, http.StatusOK, res)
	}
}

// handleDelete creates a handler that deletes a resource by URL param "id".
func handleDelete(writeErr middleware.ErrorWriter, deleteFn func(ctx context.Context, tenantID string, a service.Actor, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deleteFn(r.Context(), tenantID(r), actor(r), urlParam(r, "id")); err != nil {
			writeErr(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, nil, "Verwijderd")
	}
}
