package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/http/response"
	"github.com/mayoristas-py/directory-admin/internal/service"
	"github.com/mayoristas-py/directory-admin/internal/storage"
)

var errBadPathID = errors.New("id must be an integer")

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is required", service.ErrInvalidInput)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", service.ErrInvalidInput)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body too large", service.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", service.ErrInvalidInput, err)
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", service.ErrInvalidInput, errBadPathID)
	}
	return v, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, name)
	}
	return v, nil
}

// writeError maps service and storage errors onto the response envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrShopNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrZoneNotFound),
		errors.Is(err, service.ErrDeviceNotFound),
		errors.Is(err, service.ErrFeatureNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrDuplicateID),
		errors.Is(err, service.ErrInvalidReference),
		errors.Is(err, service.ErrInUse),
		errors.Is(err, service.ErrDeviceExists),
		errors.Is(err, domain.ErrInvalidTimeOfDay),
		errors.Is(err, storage.ErrInvalidFile):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
	case errors.Is(err, storage.ErrStorage):
		slog.ErrorContext(r.Context(), "object storage failure", "path", r.URL.Path, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "STORAGE_ERROR", err.Error(), nil)
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
