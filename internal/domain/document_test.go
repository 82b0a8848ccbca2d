package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDocumentUnmarshalNormalizesMissingCollections(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`{"shops":[{"id":1,"name":"A"}]}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Zones == nil || doc.DeviceRegistrations == nil || doc.FeatureAccess == nil {
		t.Fatal("expected empty slices instead of nil")
	}
	if doc.Shops[0].Categories == nil {
		t.Fatal("expected shop categories to be normalized")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), `"zones":null`) {
		t.Fatalf("nil collection leaked into json: %s", raw)
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := NewDocument()
	doc.FeatureAccess = DefaultFeatures()
	doc.DeviceRegistrations = append(doc.DeviceRegistrations, DeviceRegistration{
		UUID: "dev-1", DeviceName: "Laptop", IsActive: true, CreatedAt: NewTimestamp(time.Now()),
	})
	clone, err := doc.Clone()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	clone.Feature(FeatureShopManagement).GrantDevice("dev-1")
	clone.Device("dev-1").IsActive = false

	if doc.Feature(FeatureShopManagement).HasDevice("dev-1") {
		t.Fatal("mutating the clone changed the original allow-list")
	}
	if !doc.Device("dev-1").IsActive {
		t.Fatal("mutating the clone changed the original device")
	}
}

func TestDeviceRegistrationDefaultsActiveAndExpiry(t *testing.T) {
	var dev DeviceRegistration
	if err := json.Unmarshal([]byte(`{"uuid":"d","device_name":"n","created_at":"2024-01-01T00:00:00","expires_at":null}`), &dev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !dev.IsActive {
		t.Fatal("is_active should default to true")
	}
	if dev.ExpiredAt(time.Now()) {
		t.Fatal("device without expiry never expires")
	}
	dev.ExpiresAt = TimestampPtr(time.Now().Add(-time.Minute))
	if !dev.ExpiredAt(time.Now()) {
		t.Fatal("device with past expiry must be expired")
	}
}

func TestFeatureGrantRevokeIdempotent(t *testing.T) {
	f := FeatureAccess{FeatureID: "x", AuthorizedDevices: []string{"a"}}
	if !f.GrantDevice("b") || f.GrantDevice("b") {
		t.Fatal("grant must report change exactly once")
	}
	if !f.RevokeDevice("b") || f.RevokeDevice("b") {
		t.Fatal("revoke must report change exactly once")
	}
	if len(f.AuthorizedDevices) != 1 || f.AuthorizedDevices[0] != "a" {
		t.Fatalf("allow-list not restored: %v", f.AuthorizedDevices)
	}
}
