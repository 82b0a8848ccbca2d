package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mayoristas-py/directory-admin/internal/domain"
)

func TestStoreMissingFileYieldsEmptyDocument(t *testing.T) {
	store := newFileStoreForTest(t, filepath.Join(t.TempDir(), "data.json"))

	doc, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(doc.Shops) != 0 || doc.Shops == nil {
		t.Fatalf("expected empty non-nil shops, got %#v", doc.Shops)
	}
	if len(doc.FeatureAccess) != 0 {
		t.Fatalf("expected no features, got %d", len(doc.FeatureAccess))
	}
}

func TestStoreUpdatePersistsAndBumpsLastModified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newFileStoreForTest(t, path, WithClock(func() time.Time { return fixed }))

	err := store.Update(context.Background(), func(doc *domain.Document) error {
		doc.Categories = append(doc.Categories, domain.Category{ID: 1, Name: "Panadería & Café"})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "Panadería & Café") {
		t.Fatalf("expected unescaped non-ascii and html characters, got %s", text)
	}
	if !strings.Contains(text, "\n  \"shops\"") {
		t.Fatalf("expected two-space indentation, got %s", text)
	}

	reopened := newFileStoreForTest(t, path)
	doc, err := reopened.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(doc.Categories) != 1 || doc.Categories[0].Name != "Panadería & Café" {
		t.Fatalf("unexpected categories after reload: %+v", doc.Categories)
	}
	if !doc.LastModified.Equal(fixed) {
		t.Fatalf("expected last_modified %v, got %v", fixed, doc.LastModified.Time)
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".data.json.*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestStoreUpdateErrorLeavesStateUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	store := newFileStoreForTest(t, path)
	ctx := context.Background()

	if err := store.Update(ctx, func(doc *domain.Document) error {
		doc.Zones = append(doc.Zones, domain.Zone{ID: 1, Name: "Centro"})
		return nil
	}); err != nil {
		t.Fatalf("seed update: %v", err)
	}
	before, _ := os.ReadFile(path)

	errRejected := errors.New("rejected")
	err := store.Update(ctx, func(doc *domain.Document) error {
		doc.Zones = append(doc.Zones, domain.Zone{ID: 2, Name: "Norte"})
		doc.Zones[0].Name = "changed"
		return errRejected
	})
	if !errors.Is(err, errRejected) {
		t.Fatalf("expected rejection error, got %v", err)
	}

	doc, _ := store.Snapshot(ctx)
	if len(doc.Zones) != 1 || doc.Zones[0].Name != "Centro" {
		t.Fatalf("in-memory state changed after failed update: %+v", doc.Zones)
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatal("file changed after failed update")
	}
}

func TestStoreWriteFailureKeepsPreviousDocument(t *testing.T) {
	backend := &memoryBackend{}
	store, err := NewStore(context.Background(), backend)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	backend.failWrites = true

	err = store.Update(context.Background(), func(doc *domain.Document) error {
		doc.RecommendedImage = "https://example.com/a.png"
		return nil
	})
	if err == nil {
		t.Fatal("expected write failure")
	}
	doc, _ := store.Snapshot(context.Background())
	if doc.RecommendedImage != "" {
		t.Fatalf("in-memory document advanced despite failed write: %q", doc.RecommendedImage)
	}
}

func TestStoreSnapshotIsIsolated(t *testing.T) {
	store, err := NewStore(context.Background(), &memoryBackend{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	snap, _ := store.Snapshot(context.Background())
	snap.Shops = append(snap.Shops, domain.Shop{ID: 99})

	again, _ := store.Snapshot(context.Background())
	if len(again.Shops) != 0 {
		t.Fatal("mutating a snapshot leaked into the store")
	}
}

func TestStoreConcurrentUpdatesAreSerialized(t *testing.T) {
	store, err := NewStore(context.Background(), &memoryBackend{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Update(context.Background(), func(doc *domain.Document) error {
				doc.Categories = append(doc.Categories, domain.Category{ID: id, Name: fmt.Sprintf("c%d", id)})
				return nil
			})
			if err != nil {
				t.Errorf("update %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	doc, _ := store.Snapshot(context.Background())
	if len(doc.Categories) != workers {
		t.Fatalf("expected %d categories, got %d", workers, len(doc.Categories))
	}
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := NewStore(context.Background(), NewFileBackend(path))
	if !errors.Is(err, ErrDocumentCorrupt) {
		t.Fatalf("expected ErrDocumentCorrupt, got %v", err)
	}
}

func TestStoreLoadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	legacy := `{
  "shops": [{"id": 1, "name": "Don Pepe", "owner": "Pepe", "contact_number": "0981",
    "categories": [2], "city": "Asunción", "zone_id": 3, "categorie_pages": [], "img": "",
    "working_hours": {"Lunes-viernes": "07:30 - 18:00"}}],
  "device_registrations": [{"uuid": "dev-1", "device_name": "PC", "created_at": "2024-05-01T10:20:30.123456"}],
  "last_modified": "2024-05-01T10:20:30.123456"
}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := newFileStoreForTest(t, path)
	doc, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	wh := doc.Shops[0].WorkingHours
	if wh == nil || wh.Lunes == nil || wh.Viernes == nil || wh.Sabado != nil {
		t.Fatalf("legacy working hours not converted: %+v", wh)
	}
	if !doc.DeviceRegistrations[0].IsActive {
		t.Fatal("expected device to default to active")
	}
}

func TestGormBackendRoundTrip(t *testing.T) {
	backend := newGormBackendForTest(t)
	ctx := context.Background()

	raw, err := backend.Read(ctx)
	if err != nil || raw != nil {
		t.Fatalf("expected empty read, got %q err=%v", raw, err)
	}
	store, err := NewStore(ctx, backend)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, name := range []string{"Centro", "Norte"} {
		name := name
		if err := store.Update(ctx, func(doc *domain.Document) error {
			doc.Zones = append(doc.Zones, domain.Zone{ID: len(doc.Zones) + 1, Name: name})
			return nil
		}); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	reopened, err := NewStore(ctx, backend)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	doc, _ := reopened.Snapshot(ctx)
	if len(doc.Zones) != 2 || doc.Zones[1].Name != "Norte" {
		t.Fatalf("unexpected zones: %+v", doc.Zones)
	}

	var rows int64
	if err := backend.db.Model(&documentRecord{}).Count(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single document row, got %d", rows)
	}
}

type memoryBackend struct {
	mu         sync.Mutex
	data       []byte
	failWrites bool
}

func (m *memoryBackend) Name() string { return "memory" }

func (m *memoryBackend) Read(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, nil
}

func (m *memoryBackend) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errors.New("disk full")
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func newFileStoreForTest(t *testing.T, path string, opts ...StoreOption) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), NewFileBackend(path), opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func newGormBackendForTest(t *testing.T) *GormBackend {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	backend, err := NewGormBackend(db)
	if err != nil {
		t.Fatalf("new gorm backend: %v", err)
	}
	return backend
}
