// Package cache keeps per-scope resolution indexes built lazily from asset
// sources.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"imgres/asset"
	"imgres/metrics"
	"imgres/names"
	"imgres/source"
)

// Fetcher queries all sources of a scope.
type Fetcher interface {
	Fetch(ctx context.Context, scope asset.Scope) []source.Batch
}

// rebuild attempts when invalidated while building
const maxAttempts = 3

// Cache is resolution cache of one scope. It starts empty, is built on first
// access, and is cleared (not rebuilt) on invalidation. Concurrent requests
// share single build.
type Cache struct {
	scope   asset.Scope
	fetcher Fetcher
	names   names.Normalizer
	metrics *metrics.Observer
	log     *zap.Logger

	group singleflight.Group

	mu         sync.Mutex
	index      *Index
	generation uint64
	cancel     context.CancelFunc
}

func New(scope asset.Scope, fetcher Fetcher, n names.Normalizer, m *metrics.Observer, log *zap.Logger) *Cache {
	return &Cache{
		scope:   scope,
		fetcher: fetcher,
		names:   n,
		metrics: m,
		log:     log.Named("cache").With(zap.String("scope", scope.Key())),
	}
}

func (c *Cache) Scope() asset.Scope {
	return c.scope
}

// Peek returns current index without building, nil when there is none.
func (c *Cache) Peek() *Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Index returns current index building it when necessary. Source failures
// only make index less complete, the only errors are context errors.
func (c *Cache) Index(ctx context.Context) (*Index, error) {
	var ix *Index
	for range maxAttempts {
		c.mu.Lock()
		if c.index != nil {
			ix = c.index
			c.mu.Unlock()
			return ix, nil
		}
		gen := c.generation
		c.mu.Unlock()

		ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
			return c.build(gen), nil
		})
		select {
		case res := <-ch:
			ix = res.Val.(*Index)
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		c.mu.Lock()
		stale := c.generation != gen
		c.mu.Unlock()
		if !stale {
			return ix, nil
		}
		c.log.Debug("Cache invalidated while building, retrying")
	}
	return ix, nil
}

func (c *Cache) build(gen uint64) *Index {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return NewIndex(c.scope, c.names, nil)
	}
	c.cancel = cancel
	c.mu.Unlock()

	start := time.Now()
	records := Merge(c.names, c.fetcher.Fetch(ctx, c.scope))
	ix := NewIndex(c.scope, c.names, records)

	c.mu.Lock()
	if c.generation == gen {
		c.index = ix
		c.cancel = nil
	}
	c.mu.Unlock()

	elapsed := time.Since(start)
	c.metrics.CacheBuilt(c.scope.Key(), elapsed, len(records))
	c.log.Debug("Cache built", zap.Int("records", len(records)), zap.Int("resolvable", ix.Len()), zap.Duration("elapsed", elapsed))
	return ix
}

// Invalidate clears the cache, build in progress is abandoned and its result
// never installed.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.index = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.metrics.CacheInvalidated(c.scope.Key())
	c.log.Debug("Cache invalidated")
}

// Records returns merged records, building index when necessary.
func (c *Cache) Records(ctx context.Context) ([]asset.Record, error) {
	ix, err := c.Index(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Records(), nil
}
