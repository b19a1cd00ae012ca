// Package probecache memoizes metadata probes per file path so repeated
// analyses (and concurrent requests for the same path) don't each pay for
// a fresh ffprobe-equivalent invocation.
package probecache

import (
	"context"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gwlsn/bitrated/internal/logger"
	"github.com/gwlsn/bitrated/internal/mediaprobe"
	"github.com/gwlsn/bitrated/internal/metrics"
)

// DefaultTTL is how long a cached entry is trusted before it's re-probed
// regardless of mtime, per spec.md §4.5, when a caller doesn't override it.
const DefaultTTL = 5 * time.Minute

type entry struct {
	raw      []byte
	parsed   mediaprobe.Metadata
	mtime    time.Time
	cachedAt time.Time
}

// Cache memoizes Prober.Metadata results keyed by file path, invalidating
// on mtime change or age, and deduplicating concurrent misses for the same
// path via singleflight.
type Cache struct {
	prober *mediaprobe.Prober
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]entry

	group singleflight.Group
}

// New returns a Cache backed by prober. A non-positive ttl falls back to
// DefaultTTL.
func New(prober *mediaprobe.Prober, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		prober:  prober,
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Get returns metadata for path, serving a cached value when it's still
// valid (not expired, and the file's mtime hasn't changed since it was
// probed) and otherwise probing synchronously and storing the result.
func (c *Cache) Get(ctx context.Context, path string) (mediaprobe.Metadata, error) {
	currentMtime := statMtime(path)

	if e, ok := c.lookup(path); ok && c.isValid(e, currentMtime) {
		logger.Debug("probe cache hit", "path", path)
		metrics.ProbeCacheHitsTotal.Inc()
		return e.parsed, nil
	}

	logger.Debug("probe cache miss", "path", path)
	metrics.ProbeCacheMissesTotal.Inc()
	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		// Another goroutine may have filled this in while we waited.
		if e, ok := c.lookup(path); ok && c.isValid(e, currentMtime) {
			return e.parsed, nil
		}

		raw, err := c.prober.Metadata(ctx, path)
		if err != nil {
			return mediaprobe.Metadata{}, err
		}
		parsed, err := mediaprobe.ParseMetadata(raw)
		if err != nil {
			return mediaprobe.Metadata{}, err
		}

		c.mu.Lock()
		c.entries[path] = entry{
			raw:      raw,
			parsed:   parsed,
			mtime:    currentMtime,
			cachedAt: nowFunc(),
		}
		c.mu.Unlock()

		return parsed, nil
	})
	if err != nil {
		return mediaprobe.Metadata{}, err
	}
	return v.(mediaprobe.Metadata), nil
}

// Invalidate drops any cached entry for path. Callers do this after
// rewriting a file in place (e.g. stream removal), since the rewritten
// file's probe result is no longer represented by the cache.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[path]; ok {
		delete(c.entries, path)
		logger.Debug("probe cache invalidated", "path", path)
	}
}

// Stats reports the total number of cached entries and how many of them
// are still valid against the current filesystem state.
func (c *Cache) Stats() (total, valid int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total = len(c.entries)
	for path, e := range c.entries {
		if c.isValid(e, statMtime(path)) {
			valid++
		}
	}
	return total, valid
}

func (c *Cache) lookup(path string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e, ok
}

func (c *Cache) isValid(e entry, currentMtime time.Time) bool {
	if nowFunc().Sub(e.cachedAt) > c.ttl {
		return false
	}
	if currentMtime.IsZero() || e.mtime.IsZero() {
		return true
	}
	return e.mtime.Equal(currentMtime)
}

func statMtime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// nowFunc is a seam for tests that need to simulate expiry without
// sleeping for real.
var nowFunc = time.Now
