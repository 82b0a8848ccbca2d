package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/repository"
)

var testNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func newStoreForTest(t *testing.T) *repository.Store {
	t.Helper()
	store, err := repository.NewStore(context.Background(), repository.NewFileBackend(filepath.Join(t.TempDir(), "data.json")))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func seedDocument(t *testing.T, store repository.DocumentStore, fn func(doc *domain.Document)) {
	t.Helper()
	err := store.Update(context.Background(), func(doc *domain.Document) error {
		fn(doc)
		return nil
	})
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func device(id string, active bool) domain.DeviceRegistration {
	return domain.DeviceRegistration{
		UUID:       id,
		DeviceName: "device " + id,
		CreatedAt:  domain.NewTimestamp(testNow.Add(-24 * time.Hour)),
		IsActive:   active,
	}
}

func feature(id string, enabled, requiresAuth bool, allowed ...string) domain.FeatureAccess {
	if allowed == nil {
		allowed = []string{}
	}
	return domain.FeatureAccess{
		FeatureID:          id,
		Name:               id,
		IsEnabled:          enabled,
		RequiresDeviceAuth: requiresAuth,
		AuthorizedDevices:  allowed,
	}
}

// failingUpdateStore serves reads from the wrapped store and fails writes.
type failingUpdateStore struct {
	repository.DocumentStore
}

func (failingUpdateStore) Update(context.Context, func(*domain.Document) error) error {
	return errors.New("disk full")
}

func newRedisClientForTest(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}
