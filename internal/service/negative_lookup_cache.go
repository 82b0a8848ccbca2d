package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// UnknownDeviceNamespace holds device UUIDs that were looked up and not
// found. Registering any device resets it.
const UnknownDeviceNamespace = "device.not_found"

type NegativeLookupCacheStore interface {
	Get(ctx context.Context, namespace, key string) (bool, error)
	Set(ctx context.Context, namespace, key string, ttl time.Duration) error
	InvalidateNamespace(ctx context.Context, namespace string) error
}

type NoopNegativeLookupCacheStore struct{}

func NewNoopNegativeLookupCacheStore() *NoopNegativeLookupCacheStore {
	return &NoopNegativeLookupCacheStore{}
}

func (NoopNegativeLookupCacheStore) Get(context.Context, string, string) (bool, error) {
	return false, nil
}

func (NoopNegativeLookupCacheStore) Set(context.Context, string, string, time.Duration) error {
	return nil
}

func (NoopNegativeLookupCacheStore) InvalidateNamespace(context.Context, string) error {
	return nil
}

type negativeEntryKey struct {
	namespace string
	key       string
}

// InMemoryNegativeLookupCacheStore is bounded by maxEntries; when full, the
// expired entries are swept and, failing that, the namespace is dropped.
type InMemoryNegativeLookupCacheStore struct {
	mu         sync.Mutex
	entries    map[negativeEntryKey]time.Time
	maxEntries int
	now        func() time.Time
}

func NewInMemoryNegativeLookupCacheStore() *InMemoryNegativeLookupCacheStore {
	return &InMemoryNegativeLookupCacheStore{
		entries:    make(map[negativeEntryKey]time.Time),
		maxEntries: 10000,
		now:        time.Now,
	}
}

func (s *InMemoryNegativeLookupCacheStore) Get(_ context.Context, namespace, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := negativeEntryKey{namespace: namespace, key: key}
	expiresAt, ok := s.entries[k]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.entries, k)
		return false, nil
	}
	return true, nil
}

func (s *InMemoryNegativeLookupCacheStore) Set(_ context.Context, namespace, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if len(s.entries) >= s.maxEntries {
		s.sweepLocked(now)
	}
	if len(s.entries) >= s.maxEntries {
		s.dropNamespaceLocked(namespace)
	}
	s.entries[negativeEntryKey{namespace: namespace, key: key}] = now.Add(ttl)
	return nil
}

func (s *InMemoryNegativeLookupCacheStore) InvalidateNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropNamespaceLocked(namespace)
	return nil
}

func (s *InMemoryNegativeLookupCacheStore) sweepLocked(now time.Time) {
	for k, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *InMemoryNegativeLookupCacheStore) dropNamespaceLocked(namespace string) {
	for k := range s.entries {
		if k.namespace == namespace {
			delete(s.entries, k)
		}
	}
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", ":", "_").Replace(s)
}

// hashToken keeps caller-controlled values out of Redis key names.
func hashToken(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
