package offline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/quran-audio-quiz/internal/metrics"
)

// Defaults of the controller. Bump CacheName whenever the shell assets or the fetch logic change.
const (
	CacheName    = "quran-quiz-pwa-v27"
	Version      = "V27"
	App          = "quiz-audio-seconde"
	FallbackBody = "Sorry - file not available offline"
)

// DefaultPrecache is the shell manifest stored at install time.
var DefaultPrecache = []string{
	"/",
	"/index.html",
	"/style.css",
	"/app.js",
	"/manifest.json",
	"/sw.js",
	"/images/icon-192.png",
	"/images/icon-512.png",
	"/images/screenshot-1.png",
	"/images/screenshot-2.png",
}

const precacheConcurrency = 4

// State is a lifecycle state of the controller.
type State string

const (
	StateParsed     State = "parsed"
	StateInstalling State = "installing"
	StateInstalled  State = "installed" // waiting to activate
	StateActivating State = "activating"
	StateActivated  State = "activated"
	StateRedundant  State = "redundant"
)

var (
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrUnknownMessage    = errors.New("unknown message type")
	ErrNoReplyPort       = errors.New("message requires a reply port")
)

// Network performs outgoing requests. *http.Client satisfies it.
type Network interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Controller.
type Options struct {
	CacheName    string
	Version      string
	App          string
	OriginURL    string   // base URL shell requests are forwarded to
	Precache     []string // paths stored at install time
	FallbackBody string   // body of the synthetic 503
}

// Controller intercepts shell requests: cache first, then network with
// write-through, then the cached shell page, then a synthetic 503.
type Controller struct {
	storage CacheStorage
	network Network
	metrics *metrics.Metrics
	logger  *zap.Logger

	cacheName    string
	version      string
	app          string
	origin       *url.URL
	precache     []string
	fallbackBody string

	mu      sync.RWMutex
	state   State
	claimed bool
}

// NewController creates a controller in the parsed state.
func NewController(storage CacheStorage, network Network, m *metrics.Metrics, logger *zap.Logger, opts Options) (*Controller, error) {
	origin, err := url.Parse(opts.OriginURL)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid origin url %q", opts.OriginURL)
	}

	if opts.CacheName == "" {
		opts.CacheName = CacheName
	}
	if opts.Version == "" {
		opts.Version = Version
	}
	if opts.App == "" {
		opts.App = App
	}
	if opts.Precache == nil {
		opts.Precache = DefaultPrecache
	}
	if opts.FallbackBody == "" {
		opts.FallbackBody = FallbackBody
	}

	return &Controller{
		storage:      storage,
		network:      network,
		metrics:      m,
		logger:       logger.With(zap.String("cache", opts.CacheName)),
		cacheName:    opts.CacheName,
		version:      opts.Version,
		app:          opts.App,
		origin:       origin,
		precache:     opts.Precache,
		fallbackBody: opts.FallbackBody,
		state:        StateParsed,
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Controlling reports whether the controller has claimed its clients.
func (c *Controller) Controlling() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.claimed
}

func (c *Controller) transition(from, to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != from {
		return fmt.Errorf("%w: %s → %s (current %s)", ErrInvalidTransition, from, to, c.state)
	}
	c.state = to
	return nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Install opens the current store and precaches the shell manifest.
// Assets that cannot be fetched are logged and skipped. On success the
// controller skips the waiting phase and activates immediately.
func (c *Controller) Install(ctx context.Context) error {
	if err := c.transition(StateParsed, StateInstalling); err != nil {
		return err
	}
	c.logger.Info("installing offline cache", zap.String("version", c.version))

	cache, err := c.storage.Open(ctx, c.cacheName)
	if err != nil {
		c.setState(StateRedundant)
		return fmt.Errorf("open cache %s: %w", c.cacheName, err)
	}

	cached := c.precacheAll(ctx, cache)
	if cached < len(c.precache) {
		c.logger.Warn("some assets were not cached during install, continuing in degraded mode",
			zap.Int("cached", cached),
			zap.Int("total", len(c.precache)),
		)
	}

	if err := c.transition(StateInstalling, StateInstalled); err != nil {
		return err
	}

	return c.SkipWaiting(ctx)
}

// precacheAll stores every manifest asset it can fetch and returns how many were stored.
func (c *Controller) precacheAll(ctx context.Context, cache Cache) int {
	var (
		mu     sync.Mutex
		cached int
		g      errgroup.Group
	)
	g.SetLimit(precacheConcurrency)

	for _, path := range c.precache {
		path := path
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
			if err != nil {
				c.logger.Warn("invalid precache path", zap.String("path", path), zap.Error(err))
				return nil
			}

			resp, err := c.fromNetwork(req)
			if err != nil {
				c.logger.Warn("precache fetch failed", zap.String("path", path), zap.Error(err))
				return nil
			}
			if resp.Status != http.StatusOK {
				c.logger.Warn("precache fetch returned non-OK status",
					zap.String("path", path),
					zap.Int("status", resp.Status),
				)
				return nil
			}

			if err := cache.Put(ctx, KeyOf(req), resp); err != nil {
				c.logger.Warn("precache put failed", zap.String("path", path), zap.Error(err))
				return nil
			}

			mu.Lock()
			cached++
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // workers never fail; errors are logged

	return cached
}

// SkipWaiting activates an installed controller without waiting for old clients.
// Before that point it is a no-op, since Install activates on its own.
func (c *Controller) SkipWaiting(ctx context.Context) error {
	switch c.State() {
	case StateInstalled:
		return c.Activate(ctx)
	case StateParsed, StateInstalling, StateActivating, StateActivated:
		return nil
	default:
		return fmt.Errorf("%w: skip waiting in state %s", ErrInvalidTransition, c.State())
	}
}

// Activate deletes every store other than the current one and claims the clients.
func (c *Controller) Activate(ctx context.Context) error {
	if err := c.transition(StateInstalled, StateActivating); err != nil {
		return err
	}
	c.logger.Info("activating offline cache, cleaning stale stores")

	names, err := c.storage.Keys(ctx)
	if err != nil {
		c.setState(StateInstalled)
		return fmt.Errorf("list caches: %w", err)
	}

	for _, name := range names {
		if name == c.cacheName {
			c.logger.Debug("current cache kept", zap.String("name", name))
			continue
		}

		if _, err := c.storage.Delete(ctx, name); err != nil {
			c.setState(StateInstalled)
			return fmt.Errorf("delete cache %s: %w", name, err)
		}
		c.metrics.CacheEvictions.Inc()
		c.logger.Info("stale cache deleted", zap.String("name", name))
	}

	c.mu.Lock()
	c.state = StateActivated
	c.claimed = true
	c.mu.Unlock()

	c.logger.Info("offline cache activated and controlling clients")

	return nil
}

// Retire marks the controller redundant, e.g. when superseded by a newer version.
func (c *Controller) Retire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateRedundant
	c.claimed = false
}

// Fetch serves r: from the current cache, else from the network (storing
// successful GET responses), else the cached shell page, else a synthetic 503.
// It never returns an error to the caller.
func (c *Controller) Fetch(ctx context.Context, r *http.Request) *Response {
	if !c.Controlling() {
		return c.passThrough(r)
	}

	key := KeyOf(r)

	cache, err := c.storage.Open(ctx, c.cacheName)
	if err != nil {
		c.logger.Error("open cache failed", zap.Error(err))
		return c.passThrough(r)
	}

	cached, ok, err := cache.Match(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", zap.String("key", key.String()), zap.Error(err))
	}
	if ok {
		c.metrics.CacheRequests.WithLabelValues(metrics.CacheHit).Inc()
		c.logger.Debug("served from cache", zap.String("key", key.String()))
		return cached
	}

	fresh, err := c.fromNetwork(r)
	if err == nil {
		c.metrics.CacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
		if r.Method == http.MethodGet && fresh.Status == http.StatusOK {
			if err := cache.Put(ctx, key, fresh.Clone()); err != nil {
				c.logger.Warn("cache write failed", zap.String("key", key.String()), zap.Error(err))
			} else {
				c.logger.Debug("cached", zap.String("key", key.String()))
			}
		}
		return fresh
	}

	c.metrics.CacheRequests.WithLabelValues(metrics.CacheNetworkError).Inc()
	c.logger.Warn("not in cache and network unavailable",
		zap.String("key", key.String()),
		zap.Error(err),
	)

	if shell, ok, err := cache.Match(ctx, ShellKey); err == nil && ok {
		c.metrics.CacheRequests.WithLabelValues(metrics.CacheFallbackShell).Inc()
		return shell
	}

	c.metrics.CacheRequests.WithLabelValues(metrics.CacheFallback503).Inc()
	return c.unavailable()
}

// passThrough forwards r while the controller does not control its clients.
func (c *Controller) passThrough(r *http.Request) *Response {
	resp, err := c.fromNetwork(r)
	if err != nil {
		c.logger.Warn("network unavailable", zap.String("url", r.URL.RequestURI()), zap.Error(err))
		return c.unavailable()
	}
	return resp
}

func (c *Controller) unavailable() *Response {
	h := make(http.Header)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{
		Status: http.StatusServiceUnavailable,
		Header: h,
		Body:   []byte(c.fallbackBody),
	}
}

// fromNetwork forwards r to the origin and buffers the response.
func (c *Controller) fromNetwork(r *http.Request) (*Response, error) {
	target := c.origin.ResolveReference(&url.URL{Path: r.URL.Path, RawQuery: r.URL.RawQuery})
	if base := strings.TrimRight(c.origin.Path, "/"); base != "" {
		target.Path = base + r.URL.Path
	}

	var body io.Reader
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		return nil, err
	}
	out.Header = r.Header.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	out.Header.Del("Accept-Encoding") // let the transport negotiate and decode

	resp, err := c.network.Do(out)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	header := resp.Header.Clone()
	header.Del("Content-Length")

	return &Response{
		Status:   resp.StatusCode,
		Header:   header,
		Body:     data,
		StoredAt: time.Now(),
	}, nil
}

// Message is a structured message sent by a controlled page.
type Message struct {
	Type string `json:"type"`
}

// Message types.
const (
	MessageSkipWaiting  = "SKIP_WAITING"
	MessageGetCacheInfo = "GET_CACHE_INFO"
)

// CacheInfo is the reply to GET_CACHE_INFO.
type CacheInfo struct {
	CacheName string `json:"cacheName"`
	Version   string `json:"version"`
	App       string `json:"app"`
}

// ReplyPort receives replies to messages.
type ReplyPort interface {
	PostMessage(v any) error
}

// Info returns the cache metadata.
func (c *Controller) Info() CacheInfo {
	return CacheInfo{CacheName: c.cacheName, Version: c.version, App: c.app}
}

// HandleMessage processes a page message; GET_CACHE_INFO answers on port.
func (c *Controller) HandleMessage(ctx context.Context, msg Message, port ReplyPort) error {
	switch msg.Type {
	case MessageSkipWaiting:
		c.logger.Info("message received: SKIP_WAITING")
		return c.SkipWaiting(ctx)

	case MessageGetCacheInfo:
		c.logger.Info("cache info requested")
		if port == nil {
			return ErrNoReplyPort
		}
		return port.PostMessage(c.Info())

	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}
