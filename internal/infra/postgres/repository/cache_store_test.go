package repository

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/quran-audio-quiz/internal/infra/postgres"
	"github.com/aliskhannn/quran-audio-quiz/internal/offline"
)

func newTestRepository(t *testing.T) *CacheStoreRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewCacheStoreRepository(pool, postgres.NewTransactor(pool))
	require.NoError(t, repo.EnsureSchema(ctx))

	_, err = pool.Exec(ctx, `DELETE FROM offline_cache_stores WHERE name LIKE 'test-%'`)
	require.NoError(t, err)

	return repo
}

func TestCacheStoreRepository_RoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cache, err := repo.Open(ctx, "test-v1")
	require.NoError(t, err)

	key := offline.RequestKey{Method: http.MethodGet, URL: "/index.html"}
	require.NoError(t, cache.Put(ctx, key, &offline.Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"text/html"}},
		Body:   []byte("<html></html>"),
	}))

	got, ok, err := cache.Match(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, "text/html", got.Header.Get("Content-Type"))
	assert.Equal(t, "<html></html>", string(got.Body))

	_, ok, err = cache.Match(ctx, offline.RequestKey{Method: http.MethodGet, URL: "/missing"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheStoreRepository_DeleteCascades(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cache, err := repo.Open(ctx, "test-old")
	require.NoError(t, err)
	key := offline.RequestKey{Method: http.MethodGet, URL: "/"}
	require.NoError(t, cache.Put(ctx, key, &offline.Response{Status: http.StatusOK}))

	deleted, err := repo.Delete(ctx, "test-old")
	require.NoError(t, err)
	assert.True(t, deleted)

	has, err := repo.Has(ctx, "test-old")
	require.NoError(t, err)
	assert.False(t, has)

	deleted, err = repo.Delete(ctx, "test-old")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCacheStoreRepository_PutRecreatesDeletedStore(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cache, err := repo.Open(ctx, "test-recreate")
	require.NoError(t, err)
	_, err = repo.Delete(ctx, "test-recreate")
	require.NoError(t, err)

	key := offline.RequestKey{Method: http.MethodGet, URL: "/app.js"}
	require.NoError(t, cache.Put(ctx, key, &offline.Response{Status: http.StatusOK, Body: []byte("js")}))

	has, err := repo.Has(ctx, "test-recreate")
	require.NoError(t, err)
	assert.True(t, has)
}
