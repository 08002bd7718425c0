package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/upload"
	"github.com/Strob0t/ServicePulse/internal/service"
)

const (
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
)

// UploadPublic handles POST /api/upload (field "file"), the anonymous
// storefront upload used for ticket attachments.
func (h *Handlers) UploadPublic(w http.ResponseWriter, r *http.Request) {
	h.uploadOne(w, r, upload.PublicPolicy)
}

// UploadImage handles POST /api/upload/image (field "file").
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.uploadOne(w, r, upload.ImagePolicy)
}

// UploadImages handles POST /api/upload/images (field "files", at most upload.MaxBatch).
func (h *Handlers) UploadImages(w http.ResponseWriter, r *http.Request) {
	form, err := parseMultipart(w, r, upload.MaxBatch*upload.MaxFileSize+multipartOverhead)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["files"]
	files := make([]service.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: open upload: %w", domain.ErrBadRequest, err))
			return
		}
		defer func() { _ = f.Close() }()
		files = append(files, toFile(fh, f))
	}

	res, err := h.Uploads.UploadMany(r.Context(), tenantID(r), upload.ImagePolicy, files)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, res, fmt.Sprintf("%d bestanden geüpload", len(res)))
}

func (h *Handlers) uploadOne(w http.ResponseWriter, r *http.Request, policy upload.Policy) {
	form, err := parseMultipart(w, r, upload.MaxFileSize+multipartOverhead)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["file"]
	if len(headers) == 0 {
		h.writeError(w, r, fmt.Errorf("%w: no file provided", domain.ErrValidation))
		return
	}
	f, err := headers[0].Open()
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: open upload: %w", domain.ErrBadRequest, err))
		return
	}
	defer func() { _ = f.Close() }()

	res, err := h.Uploads.Upload(r.Context(), tenantID(r), policy, toFile(headers[0], f))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, res, "Bestand geüpload")
}

// DeleteUpload handles DELETE /api/upload/{key...}.
func (h *Handlers) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	key, err := wildcardKey(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Uploads.Delete(r.Context(), tenantID(r), key); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Bestand verwijderd")
}

// PresignUpload handles GET /api/upload/url/{key...}.
func (h *Handlers) PresignUpload(w http.ResponseWriter, r *http.Request) {
	key, err := wildcardKey(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.Uploads.PresignedURL(r.Context(), tenantID(r), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"key": key, "url": u})
}

// ListAssets handles GET /api/upload/assets?folder=&limit=. Newest first.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.Uploads.List(r.Context(), tenantID(r), r.URL.Query().Get("folder"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []upload.Object{}
	}
	writeData(w, http.StatusOK, items)
}

func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: expected multipart/form-data", domain.ErrBadRequest)
	}
	return r.MultipartForm, nil
}

func toFile(fh *multipart.FileHeader, f multipart.File) service.File {
	return service.File{
		Name:         fh.Filename,
		DeclaredType: fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Body:         f,
	}
}

func wildcardKey(r *http.Request) (string, error) {
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || key == "" {
		return "", fmt.Errorf("%w: invalid object key", domain.ErrValidation)
	}
	return key, nil
}
