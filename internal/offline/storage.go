// Package offline implements the offline cache controller: a cache-first
// interceptor in front of the web shell with an explicit install/activate lifecycle.
package offline

import (
	"context"
	"net/http"
	"time"
)

// RequestKey identifies a cached request.
type RequestKey struct {
	Method string
	URL    string // path and query, relative to the origin
}

// String returns "METHOD url".
func (k RequestKey) String() string {
	return k.Method + " " + k.URL
}

// KeyOf builds the cache key of r.
func KeyOf(r *http.Request) RequestKey {
	return RequestKey{Method: r.Method, URL: r.URL.RequestURI()}
}

// ShellKey is the key of the cached shell page served when everything else fails.
var ShellKey = RequestKey{Method: http.MethodGet, URL: "/index.html"}

// Response is a fully buffered HTTP response.
type Response struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Clone returns a deep copy of r.
func (r *Response) Clone() *Response {
	return &Response{
		Status:   r.Status,
		Header:   r.Header.Clone(),
		Body:     append([]byte(nil), r.Body...),
		StoredAt: r.StoredAt,
	}
}

// Cache is one named cache store.
type Cache interface {
	Match(ctx context.Context, key RequestKey) (*Response, bool, error)
	Put(ctx context.Context, key RequestKey, resp *Response) error
}

// CacheStorage manages the named cache stores.
type CacheStorage interface {
	// Open returns the store called name, creating it if absent.
	Open(ctx context.Context, name string) (Cache, error)
	Has(ctx context.Context, name string) (bool, error)
	// Delete removes the store and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
	// Keys lists every store name.
	Keys(ctx context.Context) ([]string, error)
}
