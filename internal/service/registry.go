package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/repository"
)

type DeviceInput struct {
	UUID       string            `json:"uuid"`
	DeviceName string            `json:"device_name"`
	ExpiresAt  *domain.Timestamp `json:"expires_at"`
	IsActive   *bool             `json:"is_active"`
	Notes      *string           `json:"notes"`
	CreatedBy  *string           `json:"created_by"`
	IPAddress  *string           `json:"ip_address"`
}

type DevicePatch struct {
	DeviceName  *string           `json:"device_name"`
	ExpiresAt   *domain.Timestamp `json:"expires_at"`
	ClearExpiry bool              `json:"clear_expiry"`
	Notes       *string           `json:"notes"`
}

// AuthorizedDevice is an allow-list entry resolved against the registry.
// Missing marks a UUID with no registration behind it.
type AuthorizedDevice struct {
	UUID       string            `json:"uuid"`
	DeviceName string            `json:"device_name,omitempty"`
	IsActive   bool              `json:"is_active"`
	ExpiresAt  *domain.Timestamp `json:"expires_at,omitempty"`
	Missing    bool              `json:"missing,omitempty"`
}

type FeatureView struct {
	domain.FeatureAccess
	Devices []AuthorizedDevice `json:"devices,omitempty"`
}

// Registry is the single capability surface for device registrations and
// feature flags. Every mutation goes through one DocumentStore.Update.
type Registry struct {
	store    repository.DocumentStore
	negCache NegativeLookupCacheStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewRegistry(store repository.DocumentStore, negCache NegativeLookupCacheStore, logger *slog.Logger) *Registry {
	if negCache == nil {
		negCache = NewNoopNegativeLookupCacheStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, negCache: negCache, logger: logger, now: time.Now}
}

func (r *Registry) CreateDevice(ctx context.Context, in DeviceInput) (*domain.DeviceRegistration, error) {
	in.DeviceName = strings.TrimSpace(in.DeviceName)
	if in.DeviceName == "" {
		return nil, fmt.Errorf("%w: device_name is required", ErrInvalidInput)
	}
	id := strings.TrimSpace(in.UUID)
	if id == "" {
		id = uuid.NewString()
	}
	dev := domain.DeviceRegistration{
		UUID:       id,
		DeviceName: in.DeviceName,
		ExpiresAt:  in.ExpiresAt,
		CreatedAt:  domain.NewTimestamp(r.now()),
		IsActive:   in.IsActive == nil || *in.IsActive,
		CreatedBy:  in.CreatedBy,
		Notes:      in.Notes,
		IPAddress:  in.IPAddress,
	}
	err := r.store.Update(ctx, func(doc *domain.Document) error {
		if doc.DeviceIndex(id) >= 0 {
			return fmt.Errorf("%w: %s", ErrDeviceExists, id)
		}
		doc.DeviceRegistrations = append(doc.DeviceRegistrations, dev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.negCache.InvalidateNamespace(ctx, UnknownDeviceNamespace); err != nil {
		r.logger.Warn("unknown device cache invalidation failed", "error", err)
	}
	observability.RecordAdminMutation(ctx, "device", "create")
	return &dev, nil
}

func (r *Registry) GetDevice(ctx context.Context, id string) (*domain.DeviceRegistration, error) {
	var out domain.DeviceRegistration
	err := r.store.View(ctx, func(doc *domain.Document) error {
		d := doc.Device(id)
		if d == nil {
			return ErrDeviceNotFound
		}
		out = *d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Registry) ListDevices(ctx context.Context) ([]domain.DeviceRegistration, error) {
	var out []domain.DeviceRegistration
	err := r.store.View(ctx, func(doc *domain.Document) error {
		out = slices.Clone(doc.DeviceRegistrations)
		return nil
	})
	if out == nil {
		out = []domain.DeviceRegistration{}
	}
	return out, err
}

func (r *Registry) UpdateDevice(ctx context.Context, id string, patch DevicePatch) (*domain.DeviceRegistration, error) {
	if patch.DeviceName != nil && strings.TrimSpace(*patch.DeviceName) == "" {
		return nil, fmt.Errorf("%w: device_name must not be empty", ErrInvalidInput)
	}
	var out domain.DeviceRegistration
	err := r.store.Update(ctx, func(doc *domain.Document) error {
		d := doc.Device(id)
		if d == nil {
			return ErrDeviceNotFound
		}
		if patch.DeviceName != nil {
			d.DeviceName = strings.TrimSpace(*patch.DeviceName)
		}
		switch {
		case patch.ClearExpiry:
			d.ExpiresAt = nil
		case patch.ExpiresAt != nil:
			d.ExpiresAt = patch.ExpiresAt
		}
		if patch.Notes != nil {
			d.Notes = patch.Notes
		}
		out = *d
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "device", "update")
	return &out, nil
}

// ToggleDevice flips is_active and returns the new state.
func (r *Registry) ToggleDevice(ctx context.Context, id string) (bool, error) {
	var active bool
	err := r.store.Update(ctx, func(doc *domain.Document) error {
		d := doc.Device(id)
		if d == nil {
			return ErrDeviceNotFound
		}
		d.IsActive = !d.IsActive
		active = d.IsActive
		return nil
	})
	if err != nil {
		return false, err
	}
	observability.RecordAdminMutation(ctx, "device", "toggle")
	return active, nil
}

// DeleteDevice removes the registration and strips its UUID from every
// feature allow-list. It returns the IDs of the features that were changed.
func (r *Registry) DeleteDevice(ctx context.Context, id string) ([]string, error) {
	var purged []string
	err := r.store.Update(ctx, func(doc *domain.Document) error {
		i := doc.DeviceIndex(id)
		if i < 0 {
			return ErrDeviceNotFound
		}
		doc.DeviceRegistrations = slices.Delete(doc.DeviceRegistrations, i, i+1)
		for j := range doc.FeatureAccess {
			if doc.FeatureAccess[j].RevokeDevice(id) {
				purged = append(purged, doc.FeatureAccess[j].FeatureID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "device", "delete")
	return purged, nil
}

// TouchDevice records a successful validation.
func (r *Registry) TouchDevice(ctx context.Context, id string, at time.Time) error {
	return r.store.Update(ctx, func(doc *domain.Document) error {
		d := doc.Device(id)
		if d == nil {
			return ErrDeviceNotFound
		}
		d.LastUsed = domain.TimestampPtr(at)
		return nil
	})
}

func (r *Registry) ListFeatures(ctx context.Context, withDevices bool) ([]FeatureView, error) {
	var out []FeatureView
	err := r.store.View(ctx, func(doc *domain.Document) error {
		out = make([]FeatureView, 0, len(doc.FeatureAccess))
		for _, f := range doc.FeatureAccess {
			view := FeatureView{FeatureAccess: f}
			view.AuthorizedDevices = slices.Clone(f.AuthorizedDevices)
			if withDevices {
				view.Devices = resolveDevices(doc, f.AuthorizedDevices)
			}
			out = append(out, view)
		}
		return nil
	})
	return out, err
}

func resolveDevices(doc *domain.Document, ids []string) []AuthorizedDevice {
	out := make([]AuthorizedDevice, 0, len(ids))
	for _, id := range ids {
		d := doc.Device(id)
		if d == nil {
			out = append(out, AuthorizedDevice{UUID: id, Missing: true})
			continue
		}
		out = append(out, AuthorizedDevice{
			UUID:       d.UUID,
			DeviceName: d.DeviceName,
			IsActive:   d.IsActive,
			ExpiresAt:  d.ExpiresAt,
		})
	}
	return out
}

func (r *Registry) GetFeature(ctx context.Context, featureID string) (*domain.FeatureAccess, error) {
	var out domain.FeatureAccess
	err := r.store.View(ctx, func(doc *domain.Document) error {
		f := doc.Feature(featureID)
		if f == nil {
			return ErrFeatureNotFound
		}
		out = *f
		out.AuthorizedDevices = slices.Clone(f.AuthorizedDevices)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Registry) ToggleFeature(ctx context.Context, featureID string) (bool, error) {
	var enabled bool
	err := r.store.Update(ctx, func(doc *domain.Document) error {
		f := doc.Feature(featureID)
		if f == nil {
			return ErrFeatureNotFound
		}
		f.IsEnabled = !f.IsEnabled
		enabled = f.IsEnabled
		return nil
	})
	if err != nil {
		return false, err
	}
	observability.RecordAdminMutation(ctx, "feature", "toggle")
	return enabled, nil
}

// SetFeatureAuth updates requires_device_auth. Turning it off clears the
// allow-list; turning it on with devices replaces the list.
func (r *Registry) SetFeatureAuth(ctx context.Context, featureID string, requires bool, devices *[]string) (*domain.FeatureAccess, error) {
	var out domain.FeatureAccess
	err := r.store.Update(ctx, func(doc *domain.Document) error {
		f := doc.Feature(featureID)
		if f == nil {
			return ErrFeatureNotFound
		}
		f.RequiresDeviceAuth = requires
		switch {
		case !requires:
			f.AuthorizedDevices = []string{}
		case devices != nil:
			next := make([]string, 0, len(*devices))
			for _, id := range *devices {
				id = strings.TrimSpace(id)
				if doc.Device(id) == nil {
					return fmt.Errorf("%w: device %q is not registered", ErrInvalidInput, id)
				}
				if !slices.Contains(next, id) {
					next = append(next, id)
				}
			}
			f.AuthorizedDevices = next
		}
		out = *f
		out.AuthorizedDevices = slices.Clone(f.AuthorizedDevices)
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "feature", "set_auth")
	return &out, nil
}

func (r *Registry) GrantDevice(ctx context.Context, featureID, deviceID string) (*domain.FeatureAccess, error) {
	return r.changeAllowList(ctx, featureID, deviceID, true)
}

// RevokeDevice does not require the device to exist so dangling entries can
// still be removed.
func (r *Registry) RevokeDevice(ctx context.Context, featureID, deviceID string) (*domain.FeatureAccess, error) {
	return r.changeAllowList(ctx, featureID, deviceID, false)
}

func (r *Registry) changeAllowList(ctx context.Context, featureID, deviceID string, grant bool) (*domain.FeatureAccess, error) {
	var out domain.FeatureAccess
	err := r.store.Update(ctx, func(doc *domain.Document) error {
		f := doc.Feature(featureID)
		if f == nil {
			return ErrFeatureNotFound
		}
		var changed bool
		if grant {
			if doc.Device(deviceID) == nil {
				return ErrDeviceNotFound
			}
			changed = f.GrantDevice(deviceID)
		} else {
			changed = f.RevokeDevice(deviceID)
		}
		out = *f
		out.AuthorizedDevices = slices.Clone(f.AuthorizedDevices)
		if !changed {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return &out, nil
	}
	if err != nil {
		return nil, err
	}
	action := "revoke"
	if grant {
		action = "grant"
	}
	observability.RecordAdminMutation(ctx, "feature", action)
	return &out, nil
}

// SeedFeatures inserts any missing seed feature. Existing features are
// never modified. It returns how many were added.
func (r *Registry) SeedFeatures(ctx context.Context) (int, error) {
	added := 0
	err := r.store.Update(ctx, func(doc *domain.Document) error {
		for _, f := range domain.DefaultFeatures() {
			if doc.FeatureIndex(f.FeatureID) >= 0 {
				continue
			}
			doc.FeatureAccess = append(doc.FeatureAccess, f)
			added++
		}
		if added == 0 {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return added, nil
}
