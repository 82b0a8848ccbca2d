package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultNegativeCachePrefix = "directory_admin:negative_lookup"

// RedisNegativeLookupCacheStore tracks every key of a namespace in an index
// set so InvalidateNamespace never has to SCAN.
type RedisNegativeLookupCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisNegativeLookupCacheStore(client redis.UniversalClient, prefix string) *RedisNegativeLookupCacheStore {
	if prefix == "" {
		prefix = defaultNegativeCachePrefix
	}
	return &RedisNegativeLookupCacheStore{client: client, prefix: prefix}
}

func (s *RedisNegativeLookupCacheStore) Get(ctx context.Context, namespace, key string) (bool, error) {
	if s.client == nil {
		return false, nil
	}
	n, err := s.client.Exists(ctx, s.dataKey(namespace, key)).Result()
	if err != nil {
		return false, fmt.Errorf("negative cache get: %w", err)
	}
	return n > 0, nil
}

func (s *RedisNegativeLookupCacheStore) Set(ctx context.Context, namespace, key string, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	dataKey := s.dataKey(namespace, key)
	index := s.indexKey(namespace)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, dataKey, "1", ttl)
		pipe.SAdd(ctx, index, dataKey)
		pipe.Expire(ctx, index, ttl+time.Minute)
		return nil
	})
	if err != nil {
		return fmt.Errorf("negative cache set: %w", err)
	}
	return nil
}

func (s *RedisNegativeLookupCacheStore) InvalidateNamespace(ctx context.Context, namespace string) error {
	if s.client == nil {
		return nil
	}
	index := s.indexKey(namespace)
	keys, err := s.client.SMembers(ctx, index).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("negative cache invalidate: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, index)
		return nil
	})
	if err != nil {
		return fmt.Errorf("negative cache invalidate: %w", err)
	}
	return nil
}

func (s *RedisNegativeLookupCacheStore) dataKey(namespace, key string) string {
	return fmt.Sprintf("%s:data:%s:%s", s.prefix, normalizeToken(namespace), hashToken(key))
}

func (s *RedisNegativeLookupCacheStore) indexKey(namespace string) string {
	return fmt.Sprintf("%s:index:%s", s.prefix, normalizeToken(namespace))
}

// NewNegativeLookupCacheStore uses Redis when an address is configured.
func NewNegativeLookupCacheStore(client redis.UniversalClient) NegativeLookupCacheStore {
	if client == nil {
		return NewInMemoryNegativeLookupCacheStore()
	}
	return NewRedisNegativeLookupCacheStore(client, "")
}
