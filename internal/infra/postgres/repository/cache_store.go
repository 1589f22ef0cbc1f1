package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/quran-audio-quiz/internal/infra/postgres"
	"github.com/aliskhannn/quran-audio-quiz/internal/offline"
)

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS offline_cache_stores (
		name       TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS offline_cache_entries (
		store     TEXT NOT NULL REFERENCES offline_cache_stores (name) ON DELETE CASCADE,
		method    TEXT NOT NULL,
		url       TEXT NOT NULL,
		status    INTEGER NOT NULL,
		header    JSONB NOT NULL DEFAULT '{}',
		body      BYTEA NOT NULL,
		stored_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (store, method, url)
	);
`

// CacheStoreRepository keeps offline cache stores in PostgreSQL.
type CacheStoreRepository struct {
	db postgres.DBTX
	tx *postgres.Transactor
}

// NewCacheStoreRepository creates a new CacheStoreRepository.
func NewCacheStoreRepository(db postgres.DBTX, tx *postgres.Transactor) *CacheStoreRepository {
	return &CacheStoreRepository{db: db, tx: tx}
}

// EnsureSchema creates the cache tables if they do not exist yet.
func (r *CacheStoreRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, cacheSchema); err != nil {
		return fmt.Errorf("ensure cache schema: %w", err)
	}
	return nil
}

// Open returns the store called name, creating it if absent.
func (r *CacheStoreRepository) Open(ctx context.Context, name string) (offline.Cache, error) {
	if err := createStore(ctx, r.db, name); err != nil {
		return nil, err
	}
	return &pgCache{repo: r, name: name}, nil
}

// Has reports whether the store exists.
func (r *CacheStoreRepository) Has(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM offline_cache_stores WHERE name = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check cache store: %w", err)
	}

	return exists, nil
}

// Delete removes the store with all of its entries.
func (r *CacheStoreRepository) Delete(ctx context.Context, name string) (bool, error) {
	query := `DELETE FROM offline_cache_stores WHERE name = $1`

	tag, err := r.db.Exec(ctx, query, name)
	if err != nil {
		return false, fmt.Errorf("delete cache store: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Keys lists every store name.
func (r *CacheStoreRepository) Keys(ctx context.Context) ([]string, error) {
	query := `SELECT name FROM offline_cache_stores ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cache stores: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan cache store: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return names, nil
}

func createStore(ctx context.Context, db postgres.DBTX, name string) error {
	query := `INSERT INTO offline_cache_stores (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`

	if _, err := db.Exec(ctx, query, name); err != nil {
		return fmt.Errorf("create cache store: %w", err)
	}
	return nil
}

type pgCache struct {
	repo *CacheStoreRepository
	name string
}

func (c *pgCache) Match(ctx context.Context, key offline.RequestKey) (*offline.Response, bool, error) {
	query := `
		SELECT status, header, body, stored_at
		FROM offline_cache_entries
		WHERE store = $1 AND method = $2 AND url = $3
	`

	var (
		resp   offline.Response
		header []byte
	)
	err := c.repo.db.QueryRow(ctx, query, c.name, key.Method, key.URL).Scan(
		&resp.Status,
		&header,
		&resp.Body,
		&resp.StoredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("match cache entry: %w", err)
	}

	resp.Header = make(http.Header)
	if err := json.Unmarshal(header, &resp.Header); err != nil {
		return nil, false, fmt.Errorf("decode cached header: %w", err)
	}

	return &resp, true, nil
}

// Put upserts the entry; the store row is recreated in the same transaction
// in case it was deleted concurrently.
func (c *pgCache) Put(ctx context.Context, key offline.RequestKey, resp *offline.Response) error {
	header, err := json.Marshal(resp.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	storedAt := resp.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	return c.repo.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := createStore(ctx, tx, c.name); err != nil {
			return err
		}

		query := `
			INSERT INTO offline_cache_entries (store, method, url, status, header, body, stored_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (store, method, url) DO UPDATE
			SET status = EXCLUDED.status,
			    header = EXCLUDED.header,
			    body = EXCLUDED.body,
			    stored_at = EXCLUDED.stored_at
		`

		body := resp.Body
		if body == nil {
			body = []byte{}
		}

		if _, err := tx.Exec(ctx, query, c.name, key.Method, key.URL, resp.Status, string(header), body, storedAt); err != nil {
			return fmt.Errorf("put cache entry: %w", err)
		}
		return nil
	})
}
