package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mayoristas-py/directory-admin/internal/http/response"
	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/service"
)

type FeatureHandler struct {
	registry *service.Registry
}

func NewFeatureHandler(registry *service.Registry) *FeatureHandler {
	return &FeatureHandler{registry: registry}
}

// List returns the feature table. ?include_devices=true resolves each
// allow-list against the device registry.
func (h *FeatureHandler) List(w http.ResponseWriter, r *http.Request) {
	withDevices, _ := strconv.ParseBool(r.URL.Query().Get("include_devices"))
	features, err := h.registry.ListFeatures(r.Context(), withDevices)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, features)
}

func (h *FeatureHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.registry.GetFeature(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, f)
}

func (h *FeatureHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	enabled, err := h.registry.ToggleFeature(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "feature.toggle", "feature_id", id, "is_enabled", enabled)
	response.JSON(w, r, http.StatusOK, map[string]any{"feature_id": id, "is_enabled": enabled})
}

type featureAuthRequest struct {
	RequiresDeviceAuth bool      `json:"requires_device_auth"`
	AuthorizedDevices  *[]string `json:"authorized_devices"`
}

func (h *FeatureHandler) SetAuth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in featureAuthRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.registry.SetFeatureAuth(r.Context(), id, in.RequiresDeviceAuth, in.AuthorizedDevices)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "feature.auth", "feature_id", id, "requires_device_auth", f.RequiresDeviceAuth, "devices", len(f.AuthorizedDevices))
	response.JSON(w, r, http.StatusOK, f)
}

func (h *FeatureHandler) GrantDevice(w http.ResponseWriter, r *http.Request) {
	id, deviceID := chi.URLParam(r, "id"), chi.URLParam(r, "deviceID")
	f, err := h.registry.GrantDevice(r.Context(), id, deviceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "feature.grant", "feature_id", id, "device_uuid", deviceID)
	response.JSON(w, r, http.StatusOK, f)
}

func (h *FeatureHandler) RevokeDevice(w http.ResponseWriter, r *http.Request) {
	id, deviceID := chi.URLParam(r, "id"), chi.URLParam(r, "deviceID")
	f, err := h.registry.RevokeDevice(r.Context(), id, deviceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "feature.revoke", "feature_id", id, "device_uuid", deviceID)
	response.JSON(w, r, http.StatusOK, f)
}
