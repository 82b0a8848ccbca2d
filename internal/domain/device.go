package domain

import (
	"encoding/json"
	"time"
)

// DeviceRegistration is a browser or device allowed to reach feature-gated
// endpoints. Records are only ever removed by an admin.
type DeviceRegistration struct {
	UUID       string     `json:"uuid"`
	DeviceName string     `json:"device_name"`
	ExpiresAt  *Timestamp `json:"expires_at"`
	CreatedAt  Timestamp  `json:"created_at"`
	LastUsed   *Timestamp `json:"last_used"`
	IsActive   bool       `json:"is_active"`
	CreatedBy  *string    `json:"created_by"`
	Notes      *string    `json:"notes"`
	IPAddress  *string    `json:"ip_address"`
}

// ExpiredAt reports whether the registration has an expiry at or before now.
func (d DeviceRegistration) ExpiredAt(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt.Time)
}

// UnmarshalJSON defaults is_active to true when the field is absent.
func (d *DeviceRegistration) UnmarshalJSON(data []byte) error {
	type plain DeviceRegistration
	aux := struct {
		*plain
		IsActive *bool `json:"is_active"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.IsActive = aux.IsActive == nil || *aux.IsActive
	if d.ExpiresAt != nil && d.ExpiresAt.IsZero() {
		d.ExpiresAt = nil
	}
	if d.LastUsed != nil && d.LastUsed.IsZero() {
		d.LastUsed = nil
	}
	return nil
}
