package offline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/quran-audio-quiz/internal/metrics"
)

var errOffline = errors.New("network down")

// fakeNetwork serves fixed bodies by request URI and can be switched offline.
type fakeNetwork struct {
	mu      sync.Mutex
	offline bool
	pages   map[string]string
	calls   []string
}

func newFakeNetwork(pages map[string]string) *fakeNetwork {
	return &fakeNetwork{pages: pages}
}

func (n *fakeNetwork) setOffline(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offline = v
}

func (n *fakeNetwork) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func (n *fakeNetwork) Do(req *http.Request) (*http.Response, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls = append(n.calls, req.Method+" "+req.URL.RequestURI())
	if n.offline {
		return nil, errOffline
	}

	body, ok := n.pages[req.URL.RequestURI()]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
		body = "not found"
	}

	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}, nil
}

var shellPages = map[string]string{
	"/":                        "root",
	"/index.html":              "<html>shell</html>",
	"/style.css":               "css",
	"/app.js":                  "js",
	"/manifest.json":           "{}",
	"/sw.js":                   "sw",
	"/images/icon-192.png":     "png192",
	"/images/icon-512.png":     "png512",
	"/images/screenshot-1.png": "s1",
	"/images/screenshot-2.png": "s2",
	"/quiz.html":               "quiz",
}

func newTestController(t *testing.T, storage CacheStorage, net Network) *Controller {
	t.Helper()

	c, err := NewController(storage, net, metrics.NewNop(), zap.NewNop(), Options{
		OriginURL: "http://origin.test",
	})
	require.NoError(t, err)
	return c
}

func get(t *testing.T, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func TestController_InstallPrecachesAndActivates(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	c := newTestController(t, storage, newFakeNetwork(shellPages))

	assert.Equal(t, StateParsed, c.State())
	require.NoError(t, c.Install(ctx))
	assert.Equal(t, StateActivated, c.State())
	assert.True(t, c.Controlling())

	cache, err := storage.Open(ctx, CacheName)
	require.NoError(t, err)
	for _, path := range DefaultPrecache {
		_, ok, err := cache.Match(ctx, RequestKey{Method: http.MethodGet, URL: path})
		require.NoError(t, err)
		assert.True(t, ok, path)
	}
}

func TestController_InstallTwiceFails(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t, NewMemoryStorage(), newFakeNetwork(shellPages))

	require.NoError(t, c.Install(ctx))
	assert.ErrorIs(t, c.Install(ctx), ErrInvalidTransition)
}

func TestController_InstallDegradedWhenAssetsMissing(t *testing.T) {
	ctx := context.Background()
	pages := map[string]string{"/index.html": "<html>shell</html>"}
	storage := NewMemoryStorage()
	c := newTestController(t, storage, newFakeNetwork(pages))

	require.NoError(t, c.Install(ctx))
	assert.Equal(t, StateActivated, c.State())

	cache, _ := storage.Open(ctx, CacheName)
	_, ok, _ := cache.Match(ctx, ShellKey)
	assert.True(t, ok)
	_, ok, _ = cache.Match(ctx, RequestKey{Method: http.MethodGet, URL: "/app.js"})
	assert.False(t, ok, "404 responses are not precached")
}

func TestController_ActivationDeletesOnlyStaleStores(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	for _, name := range []string{"quran-quiz-pwa-v25", "quran-quiz-pwa-v26", "other-app"} {
		_, err := storage.Open(ctx, name)
		require.NoError(t, err)
	}

	c := newTestController(t, storage, newFakeNetwork(shellPages))
	require.NoError(t, c.Install(ctx))

	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{CacheName}, keys)
}

func TestController_ServesCachedWhileOffline(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork(shellPages)
	c := newTestController(t, NewMemoryStorage(), net)
	require.NoError(t, c.Install(ctx))

	net.setOffline(true)
	resp := c.Fetch(ctx, get(t, "/app.js"))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "js", string(resp.Body))
}

func TestController_CacheHitSkipsNetwork(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork(shellPages)
	c := newTestController(t, NewMemoryStorage(), net)
	require.NoError(t, c.Install(ctx))

	before := net.callCount()
	resp := c.Fetch(ctx, get(t, "/style.css"))
	assert.Equal(t, "css", string(resp.Body))
	assert.Equal(t, before, net.callCount())
}

func TestController_WritesThroughSuccessfulGet(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork(shellPages)
	storage := NewMemoryStorage()
	c := newTestController(t, storage, net)
	require.NoError(t, c.Install(ctx))

	resp := c.Fetch(ctx, get(t, "/quiz.html"))
	assert.Equal(t, "quiz", string(resp.Body))

	net.setOffline(true)
	resp = c.Fetch(ctx, get(t, "/quiz.html"))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "quiz", string(resp.Body))
}

func TestController_DoesNotCacheErrorsOrNonGet(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork(map[string]string{"/form": "ok"})
	storage := NewMemoryStorage()
	c := newTestController(t, storage, net)
	require.NoError(t, c.Install(ctx))

	resp := c.Fetch(ctx, get(t, "/missing"))
	assert.Equal(t, http.StatusNotFound, resp.Status)

	post := httptest.NewRequest(http.MethodPost, "/form", bytes.NewBufferString("a=1"))
	resp = c.Fetch(ctx, post)
	assert.Equal(t, http.StatusOK, resp.Status)

	cache, _ := storage.Open(ctx, CacheName)
	_, ok, _ := cache.Match(ctx, RequestKey{Method: http.MethodGet, URL: "/missing"})
	assert.False(t, ok)
	_, ok, _ = cache.Match(ctx, RequestKey{Method: http.MethodPost, URL: "/form"})
	assert.False(t, ok)
}

func TestController_FallsBackToShell(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork(shellPages)
	c := newTestController(t, NewMemoryStorage(), net)
	require.NoError(t, c.Install(ctx))

	net.setOffline(true)
	resp := c.Fetch(ctx, get(t, "/never-seen"))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "<html>shell</html>", string(resp.Body))
}

func TestController_SyntheticUnavailableWithoutShell(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork(map[string]string{"/app.js": "js"})
	c := newTestController(t, NewMemoryStorage(), net)
	require.NoError(t, c.Install(ctx))

	net.setOffline(true)
	resp := c.Fetch(ctx, get(t, "/never-seen"))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, FallbackBody, string(resp.Body))
}

func TestController_PassThroughBeforeActivation(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork(shellPages)
	storage := NewMemoryStorage()
	c := newTestController(t, storage, net)

	resp := c.Fetch(ctx, get(t, "/quiz.html"))
	assert.Equal(t, "quiz", string(resp.Body))

	has, err := storage.Has(ctx, CacheName)
	require.NoError(t, err)
	assert.False(t, has, "nothing is cached before install")

	net.setOffline(true)
	resp = c.Fetch(ctx, get(t, "/quiz.html"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
}

type recordingPort struct {
	replies []any
}

func (p *recordingPort) PostMessage(v any) error {
	p.replies = append(p.replies, v)
	return nil
}

func TestController_HandleMessage(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t, NewMemoryStorage(), newFakeNetwork(shellPages))

	port := &recordingPort{}
	require.NoError(t, c.HandleMessage(ctx, Message{Type: MessageGetCacheInfo}, port))
	require.Len(t, port.replies, 1)
	assert.Equal(t, CacheInfo{CacheName: CacheName, Version: Version, App: App}, port.replies[0])

	assert.ErrorIs(t, c.HandleMessage(ctx, Message{Type: MessageGetCacheInfo}, nil), ErrNoReplyPort)
	assert.ErrorIs(t, c.HandleMessage(ctx, Message{Type: "PING"}, port), ErrUnknownMessage)

	// skip waiting is a no-op both before install and after activation
	assert.NoError(t, c.HandleMessage(ctx, Message{Type: MessageSkipWaiting}, nil))
	assert.Equal(t, StateParsed, c.State())
	require.NoError(t, c.Install(ctx))
	assert.NoError(t, c.HandleMessage(ctx, Message{Type: MessageSkipWaiting}, nil))

	c.Retire()
	assert.ErrorIs(t, c.HandleMessage(ctx, Message{Type: MessageSkipWaiting}, nil), ErrInvalidTransition)
}

// gatedNetwork blocks every request until release is closed.
type gatedNetwork struct {
	*fakeNetwork
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (n *gatedNetwork) Do(req *http.Request) (*http.Response, error) {
	n.once.Do(func() { close(n.started) })
	<-n.release
	return n.fakeNetwork.Do(req)
}

func TestController_SkipWaitingDuringInstall(t *testing.T) {
	ctx := context.Background()
	net := &gatedNetwork{
		fakeNetwork: newFakeNetwork(shellPages),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c := newTestController(t, NewMemoryStorage(), net)

	done := make(chan error, 1)
	go func() { done <- c.Install(ctx) }()

	<-net.started
	assert.Equal(t, StateInstalling, c.State())
	assert.NoError(t, c.HandleMessage(ctx, Message{Type: MessageSkipWaiting}, nil))

	close(net.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateActivated, c.State())
}

func TestController_RetireStopsServingFromCache(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork(shellPages)
	c := newTestController(t, NewMemoryStorage(), net)
	require.NoError(t, c.Install(ctx))

	c.Retire()
	assert.Equal(t, StateRedundant, c.State())
	assert.False(t, c.Controlling())

	net.setOffline(true)
	resp := c.Fetch(ctx, get(t, "/app.js"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
}

func TestController_ServeHTTP(t *testing.T) {
	ctx := context.Background()
	net := newFakeNetwork(shellPages)
	c := newTestController(t, NewMemoryStorage(), net)
	require.NoError(t, c.Install(ctx))
	net.setOffline(true)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, get(t, "/app.js"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "js", rec.Body.String())
}

func TestNewController_RejectsBadOrigin(t *testing.T) {
	_, err := NewController(NewMemoryStorage(), http.DefaultClient, metrics.NewNop(), zap.NewNop(), Options{OriginURL: "not a url"})
	assert.Error(t, err)
}
