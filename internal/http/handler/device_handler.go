package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mayoristas-py/directory-admin/internal/http/middleware"
	"github.com/mayoristas-py/directory-admin/internal/http/response"
	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/service"
)

type DeviceHandler struct {
	registry *service.Registry
}

func NewDeviceHandler(registry *service.Registry) *DeviceHandler {
	return &DeviceHandler{registry: registry}
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	devices, err := h.registry.ListDevices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, devices)
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.registry.GetDevice(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, d)
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.DeviceInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.CreatedBy == nil {
		if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
			subject := claims.Subject
			in.CreatedBy = &subject
		}
	}
	d, err := h.registry.CreateDevice(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "device.create", "device_uuid", d.UUID)
	response.JSON(w, r, http.StatusCreated, d)
}

func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")
	var patch service.DevicePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.registry.UpdateDevice(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "device.update", "device_uuid", id)
	response.JSON(w, r, http.StatusOK, d)
}

func (h *DeviceHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")
	active, err := h.registry.ToggleDevice(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "device.toggle", "device_uuid", id, "is_active", active)
	response.JSON(w, r, http.StatusOK, map[string]any{"uuid": id, "is_active": active})
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")
	purged, err := h.registry.DeleteDevice(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "device.delete", "device_uuid", id, "purged_features", purged)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true, "uuid": id, "purged_features": purged})
}
