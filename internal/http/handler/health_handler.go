package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/http/response"
	"github.com/mayoristas-py/directory-admin/internal/repository"
)

const readinessTimeout = 2 * time.Second

type HealthHandler struct {
	store repository.DocumentStore
}

func NewHealthHandler(store repository.DocumentStore) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the document can be read.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	var modified domain.Timestamp
	err := h.store.View(ctx, func(doc *domain.Document) error {
		modified = doc.LastModified
		return nil
	})
	if err != nil {
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "document store is not ready", map[string]string{"error": err.Error()})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "last_modified": modified})
}
