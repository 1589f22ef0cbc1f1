// Package rediscache keeps offline cache stores in Redis: one hash per store
// plus a set indexing the store names.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aliskhannn/quran-audio-quiz/internal/offline"
)

const defaultPrefix = "offline"

// CacheStore implements offline.CacheStorage on top of Redis.
type CacheStore struct {
	client *redis.Client
	prefix string
}

// NewCacheStore creates a new CacheStore. An empty prefix uses "offline".
func NewCacheStore(client *redis.Client, prefix string) *CacheStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &CacheStore{client: client, prefix: prefix}
}

func (s *CacheStore) indexKey() string {
	return s.prefix + ":stores"
}

func (s *CacheStore) storeKey(name string) string {
	return fmt.Sprintf("%s:store:%s", s.prefix, name)
}

func (s *CacheStore) Open(ctx context.Context, name string) (offline.Cache, error) {
	if err := s.client.SAdd(ctx, s.indexKey(), name).Err(); err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	return &redisCache{store: s, name: name}, nil
}

func (s *CacheStore) Has(ctx context.Context, name string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.indexKey(), name).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache store: %w", err)
	}
	return ok, nil
}

func (s *CacheStore) Delete(ctx context.Context, name string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.SRem(ctx, s.indexKey(), name)
		pipe.Del(ctx, s.storeKey(name))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete cache store: %w", err)
	}
	return removed.Val() > 0, nil
}

func (s *CacheStore) Keys(ctx context.Context) ([]string, error) {
	names, err := s.client.Sort(ctx, s.indexKey(), &redis.Sort{Alpha: true}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cache stores: %w", err)
	}
	return names, nil
}

type redisCache struct {
	store *CacheStore
	name  string
}

func (c *redisCache) Match(ctx context.Context, key offline.RequestKey) (*offline.Response, bool, error) {
	val, err := c.store.client.HGet(ctx, c.store.storeKey(c.name), key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to match cache entry: %w", err)
	}

	var resp offline.Response
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return &resp, true, nil
}

func (c *redisCache) Put(ctx context.Context, key offline.RequestKey, resp *offline.Response) error {
	val, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	_, err = c.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, c.store.indexKey(), c.name)
		pipe.HSet(ctx, c.store.storeKey(c.name), key.String(), val)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}
