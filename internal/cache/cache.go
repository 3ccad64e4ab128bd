// Package cache is the in-memory result cache. Entries expire after a TTL;
// a dataset mutation changes the key and therefore misses naturally.
package cache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	"sprawlstats/internal"
)

// DefaultTTL is how long a completed result stays valid
const DefaultTTL = 10 * time.Minute

// Key derives the cache key for one analysis request
func Key(configID, datasetID string, datasetUpdatedAt core.Millis, options string) string {
	return core.HashParts(configID, datasetID, strconv.FormatInt(int64(datasetUpdatedAt), 10), options).String()
}

// Options configures a ResultCache
type Options struct {
	TTL             time.Duration
	JanitorInterval time.Duration
	Now             func() time.Time
	Logger          *internal.Logger
}

// Option mutates Options
type Option func(*Options)

// WithTTL sets the entry lifetime
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) { o.TTL = ttl }
}

// WithJanitorInterval sets how often expired entries are purged. Zero
// disables the janitor; expired entries are then dropped lazily on lookup.
func WithJanitorInterval(d time.Duration) Option {
	return func(o *Options) { o.JanitorInterval = d }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Stats is a point-in-time view of cache counters
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

type entry struct {
	result    *analysis.Result
	expiresAt time.Time
}

// ResultCache maps request keys to completed results
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	flight  singleflight.Group
	options Options
	log     *internal.Logger

	hits      int64
	misses    int64
	evictions int64

	lifecycle sync.Mutex
	stop      chan struct{}
	done      chan struct{}
}

// New creates a cache. Call Open to start the janitor.
func New(opts ...Option) *ResultCache {
	options := Options{
		TTL:             DefaultTTL,
		JanitorInterval: time.Minute,
		Now:             time.Now,
		Logger:          internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &ResultCache{
		entries: make(map[string]*entry),
		options: options,
		log:     options.Logger.With("Cache"),
	}
}

// Open starts the background janitor. Calling Open twice is a no-op.
func (c *ResultCache) Open() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stop != nil || c.options.JanitorInterval <= 0 {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.janitor(c.stop, c.done)
	c.log.Debug("janitor started (interval=%s, ttl=%s)", c.options.JanitorInterval, c.options.TTL)
}

// Close stops the janitor and waits for it to exit
func (c *ResultCache) Close() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop, c.done = nil, nil
	c.log.Debug("janitor stopped")
}

func (c *ResultCache) janitor(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.options.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := c.Purge(context.Background()); n > 0 {
				c.log.Debug("purged %d expired entries", n)
			}
		}
	}
}

// Get returns the cached result for key while it has not expired
func (c *ResultCache) Get(ctx context.Context, key string) (*analysis.Result, bool) {
	start := time.Now()
	now := c.options.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && now.Before(e.expiresAt) {
		atomic.AddInt64(&c.hits, 1)
		recordCacheHit(ctx)
		recordCacheGetLatency(ctx, time.Since(start), true)
		return e.result, true
	}
	if ok {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur == e {
			delete(c.entries, key)
			atomic.AddInt64(&c.evictions, 1)
			recordCacheEvictions(ctx, 1)
		}
		c.mu.Unlock()
	}
	atomic.AddInt64(&c.misses, 1)
	recordCacheMiss(ctx)
	recordCacheGetLatency(ctx, time.Since(start), false)
	return nil, false
}

// peek reads a live entry without touching the counters
func (c *ResultCache) peek(key string) (*analysis.Result, bool) {
	now := c.options.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		return e.result, true
	}
	return nil, false
}

// Put stores a completed result. Other statuses are ignored so failures are
// always recomputed.
func (c *ResultCache) Put(ctx context.Context, key string, result *analysis.Result) bool {
	if result == nil || result.Status != analysis.StatusCompleted {
		return false
	}
	c.mu.Lock()
	c.entries[key] = &entry{result: result, expiresAt: c.options.Now().Add(c.options.TTL)}
	c.mu.Unlock()
	return true
}

// GetOrCompute returns the cached result or runs compute once for all
// concurrent callers sharing key. hit reports whether the value came from the
// cache rather than a computation started by this call or a concurrent one.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) *analysis.Result) (result *analysis.Result, hit bool) {
	ctx, span := startCacheSpan(ctx, "GetOrCompute", key)
	defer span.End()

	if r, ok := c.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return r, true
	}

	v, _, shared := c.flight.Do(key, func() (interface{}, error) {
		// a flight for key may have finished between the miss and Do
		if r, ok := c.peek(key); ok {
			return r, nil
		}
		r := compute(ctx)
		c.Put(ctx, key, r)
		return r, nil
	})
	span.SetAttributes(attribute.Bool("cache.hit", false), attribute.Bool("cache.shared", shared))
	return v.(*analysis.Result), false
}

// Purge removes every expired entry and returns how many were removed
func (c *ResultCache) Purge(ctx context.Context) int {
	now := c.options.Now()
	c.mu.Lock()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()

	atomic.AddInt64(&c.evictions, int64(removed))
	recordCacheEvictions(ctx, removed)
	return removed
}

// Clear drops every entry
func (c *ResultCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired or not
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the current counters
func (c *ResultCache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}
