package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mayoristas-py/directory-admin/internal/http/response"
	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/storage"
)

const multipartMemory = 6 << 20

type StorageHandler struct {
	objects storage.ObjectStorage
}

func NewStorageHandler(objects storage.ObjectStorage) *StorageHandler {
	return &StorageHandler{objects: objects}
}

func (h *StorageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	if !storage.ValidFolder(folder) {
		writeError(w, r, fmt.Errorf("%w: unknown folder %q", storage.ErrInvalidFile, folder))
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, fmt.Errorf("%w: file too large", storage.ErrInvalidFile))
			return
		}
		writeError(w, r, fmt.Errorf("%w: expected a multipart form: %v", storage.ErrInvalidFile, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: form field \"file\" is required", storage.ErrInvalidFile))
		return
	}
	defer file.Close()

	url, err := h.objects.Upload(r.Context(), storage.Upload{Filename: header.Filename, Body: file}, folder)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "storage.upload", "folder", folder, "url", url)
	response.JSON(w, r, http.StatusOK, map[string]string{"url": url})
}

func (h *StorageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, r, fmt.Errorf("%w: url query parameter is required", storage.ErrInvalidFile))
		return
	}
	if err := h.objects.Delete(r.Context(), url); err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "storage.delete", "url", url)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true, "url": url})
}
