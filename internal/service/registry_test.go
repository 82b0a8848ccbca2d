package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mayoristas-py/directory-admin/internal/domain"
)

func TestRegistryCreateDevice(t *testing.T) {
	store := newStoreForTest(t)
	reg := NewRegistry(store, nil, nil)
	reg.now = func() time.Time { return testNow }
	ctx := context.Background()

	dev, err := reg.CreateDevice(ctx, DeviceInput{DeviceName: "Caja 1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := uuid.Parse(dev.UUID); err != nil {
		t.Fatalf("expected generated uuid, got %q", dev.UUID)
	}
	if !dev.IsActive || !dev.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected defaults: %+v", dev)
	}

	if _, err := reg.CreateDevice(ctx, DeviceInput{UUID: dev.UUID, DeviceName: "dup"}); !errors.Is(err, ErrDeviceExists) {
		t.Fatalf("expected ErrDeviceExists, got %v", err)
	}
	if _, err := reg.CreateDevice(ctx, DeviceInput{UUID: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing name, got %v", err)
	}

	devices, _ := reg.ListDevices(ctx)
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
}

func TestRegistryUpdateAndToggleDevice(t *testing.T) {
	store := newStoreForTest(t)
	seedDocument(t, store, func(doc *domain.Document) {
		d := device("dev-1", true)
		d.ExpiresAt = domain.TimestampPtr(testNow.Add(time.Hour))
		doc.DeviceRegistrations = append(doc.DeviceRegistrations, d)
	})
	reg := NewRegistry(store, nil, nil)
	ctx := context.Background()

	name, notes := "Mostrador", "planta baja"
	got, err := reg.UpdateDevice(ctx, "dev-1", DevicePatch{DeviceName: &name, Notes: &notes, ClearExpiry: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.DeviceName != name || got.ExpiresAt != nil || got.Notes == nil || *got.Notes != notes {
		t.Fatalf("unexpected device after update: %+v", got)
	}

	active, err := reg.ToggleDevice(ctx, "dev-1")
	if err != nil || active {
		t.Fatalf("expected inactive after toggle, got active=%v err=%v", active, err)
	}
	active, _ = reg.ToggleDevice(ctx, "dev-1")
	if !active {
		t.Fatal("expected active after second toggle")
	}

	if _, err := reg.ToggleDevice(ctx, "missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestRegistryDeleteDevicePurgesAllowLists(t *testing.T) {
	store := newStoreForTest(t)
	seedDocument(t, store, func(doc *domain.Document) {
		doc.DeviceRegistrations = append(doc.DeviceRegistrations, device("dev-1", true), device("dev-2", true))
		doc.FeatureAccess = append(doc.FeatureAccess,
			feature(domain.FeatureBannerManagement, true, true, "dev-1", "dev-2"),
			feature(domain.FeatureShopManagement, true, true, "dev-2"),
		)
	})
	reg := NewRegistry(store, nil, nil)
	ctx := context.Background()

	purged, err := reg.DeleteDevice(ctx, "dev-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !slices.Equal(purged, []string{domain.FeatureBannerManagement}) {
		t.Fatalf("unexpected purged features: %v", purged)
	}
	f, _ := reg.GetFeature(ctx, domain.FeatureBannerManagement)
	if !slices.Equal(f.AuthorizedDevices, []string{"dev-2"}) {
		t.Fatalf("dangling uuid left in allow-list: %v", f.AuthorizedDevices)
	}
	if _, err := reg.GetDevice(ctx, "dev-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected device gone, got %v", err)
	}
}

func TestRegistryGrantRevokeIsIdempotent(t *testing.T) {
	store := newStoreForTest(t)
	seedDocument(t, store, func(doc *domain.Document) {
		doc.DeviceRegistrations = append(doc.DeviceRegistrations, device("dev-1", true), device("dev-9", true))
		doc.FeatureAccess = append(doc.FeatureAccess, feature(domain.FeatureZoneManagement, true, true, "dev-9"))
	})
	reg := NewRegistry(store, nil, nil)
	ctx := context.Background()

	before, _ := reg.GetFeature(ctx, domain.FeatureZoneManagement)
	for i := 0; i < 2; i++ {
		f, err := reg.GrantDevice(ctx, domain.FeatureZoneManagement, "dev-1")
		if err != nil {
			t.Fatalf("grant %d: %v", i, err)
		}
		if !slices.Equal(f.AuthorizedDevices, []string{"dev-9", "dev-1"}) {
			t.Fatalf("unexpected allow-list after grant %d: %v", i, f.AuthorizedDevices)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := reg.RevokeDevice(ctx, domain.FeatureZoneManagement, "dev-1"); err != nil {
			t.Fatalf("revoke %d: %v", i, err)
		}
	}
	after, _ := reg.GetFeature(ctx, domain.FeatureZoneManagement)
	if !slices.Equal(before.AuthorizedDevices, after.AuthorizedDevices) {
		t.Fatalf("grant+revoke changed the list: before=%v after=%v", before.AuthorizedDevices, after.AuthorizedDevices)
	}

	if _, err := reg.GrantDevice(ctx, domain.FeatureZoneManagement, "ghost"); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	if _, err := reg.GrantDevice(ctx, "nope", "dev-1"); !errors.Is(err, ErrFeatureNotFound) {
		t.Fatalf("expected ErrFeatureNotFound, got %v", err)
	}
}

func TestRegistrySetFeatureAuth(t *testing.T) {
	store := newStoreForTest(t)
	seedDocument(t, store, func(doc *domain.Document) {
		doc.DeviceRegistrations = append(doc.DeviceRegistrations, device("dev-1", true), device("dev-2", true))
		doc.FeatureAccess = append(doc.FeatureAccess, feature(domain.FeatureBrandingManagement, true, true, "dev-1"))
	})
	reg := NewRegistry(store, nil, nil)
	ctx := context.Background()

	devices := []string{"dev-2", "dev-2", "dev-1"}
	f, err := reg.SetFeatureAuth(ctx, domain.FeatureBrandingManagement, true, &devices)
	if err != nil {
		t.Fatalf("set auth: %v", err)
	}
	if !slices.Equal(f.AuthorizedDevices, []string{"dev-2", "dev-1"}) {
		t.Fatalf("expected deduplicated replacement, got %v", f.AuthorizedDevices)
	}

	bad := []string{"dev-1", "ghost"}
	if _, err := reg.SetFeatureAuth(ctx, domain.FeatureBrandingManagement, true, &bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	f, _ = reg.GetFeature(ctx, domain.FeatureBrandingManagement)
	if len(f.AuthorizedDevices) != 2 {
		t.Fatalf("failed update must not change the list, got %v", f.AuthorizedDevices)
	}

	f, err = reg.SetFeatureAuth(ctx, domain.FeatureBrandingManagement, false, nil)
	if err != nil {
		t.Fatalf("disable auth: %v", err)
	}
	if f.RequiresDeviceAuth || len(f.AuthorizedDevices) != 0 {
		t.Fatalf("expected cleared list when auth is off, got %+v", f)
	}
}

func TestRegistryToggleFeatureAndList(t *testing.T) {
	store := newStoreForTest(t)
	seedDocument(t, store, func(doc *domain.Document) {
		doc.DeviceRegistrations = append(doc.DeviceRegistrations, device("dev-1", true))
		doc.FeatureAccess = append(doc.FeatureAccess, feature(domain.FeatureDashboard, true, true, "dev-1", "gone"))
	})
	reg := NewRegistry(store, nil, nil)
	ctx := context.Background()

	enabled, err := reg.ToggleFeature(ctx, domain.FeatureDashboard)
	if err != nil || enabled {
		t.Fatalf("expected disabled, got enabled=%v err=%v", enabled, err)
	}

	views, err := reg.ListFeatures(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || len(views[0].Devices) != 2 {
		t.Fatalf("unexpected views: %+v", views)
	}
	if views[0].Devices[0].DeviceName != "device dev-1" || views[0].Devices[0].Missing {
		t.Fatalf("unexpected resolved device: %+v", views[0].Devices[0])
	}
	if !views[0].Devices[1].Missing {
		t.Fatal("expected dangling uuid to be reported as missing")
	}

	plain, _ := reg.ListFeatures(ctx, false)
	if plain[0].Devices != nil {
		t.Fatal("devices must only be resolved on request")
	}
}

func TestRegistrySeedFeaturesKeepsExisting(t *testing.T) {
	store := newStoreForTest(t)
	seedDocument(t, store, func(doc *domain.Document) {
		doc.FeatureAccess = append(doc.FeatureAccess, feature(domain.FeatureDashboard, false, true))
	})
	reg := NewRegistry(store, nil, nil)
	ctx := context.Background()

	added, err := reg.SeedFeatures(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if added != len(domain.DefaultFeatures())-1 {
		t.Fatalf("expected %d added, got %d", len(domain.DefaultFeatures())-1, added)
	}
	dash, _ := reg.GetFeature(ctx, domain.FeatureDashboard)
	if dash.IsEnabled || !dash.RequiresDeviceAuth {
		t.Fatalf("existing feature was modified: %+v", dash)
	}
	shop, _ := reg.GetFeature(ctx, domain.FeatureShopManagement)
	if !shop.IsEnabled || shop.RequiresDeviceAuth {
		t.Fatalf("unexpected seed defaults: %+v", shop)
	}

	snap, _ := store.Snapshot(ctx)
	modified := snap.LastModified
	added, err = reg.SeedFeatures(ctx)
	if err != nil || added != 0 {
		t.Fatalf("second seed: added=%d err=%v", added, err)
	}
	snap, _ = store.Snapshot(ctx)
	if !snap.LastModified.Equal(modified.Time) {
		t.Fatal("no-op seeding must not rewrite the document")
	}
}

func TestRegistryCreateDeviceResetsUnknownDeviceCache(t *testing.T) {
	store := newStoreForTest(t)
	cache := NewInMemoryNegativeLookupCacheStore()
	ctx := context.Background()
	if err := cache.Set(ctx, UnknownDeviceNamespace, "dev-new", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	reg := NewRegistry(store, cache, nil)

	if _, err := reg.CreateDevice(ctx, DeviceInput{UUID: "dev-new", DeviceName: "Nuevo"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if hit, _ := cache.Get(ctx, UnknownDeviceNamespace, "dev-new"); hit {
		t.Fatal("expected cache reset after registration")
	}
}

func TestRegistrySeedFeaturesDoesNotLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := NewRegistry(newStoreForTest(t), nil, logger)

	added, err := reg.SeedFeatures(context.Background())
	if err != nil || added == 0 {
		t.Fatalf("seed: added=%d err=%v", added, err)
	}
	if buf.Len() != 0 {
		t.Fatalf("seeding logged on its own, caller owns the message: %q", buf.String())
	}
}
