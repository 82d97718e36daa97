// Package library ties registry, storage, resolution caches and resolver
// together and exposes operations on asset libraries of scopes.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"imgres/asset"
	"imgres/cache"
	"imgres/compress"
	"imgres/config"
	"imgres/metrics"
	"imgres/names"
	"imgres/registry"
	"imgres/resolve"
	"imgres/source"
	"imgres/storage"
)

// Library is safe for concurrent use. Mutations of registry are serialized.
type Library struct {
	cfg      config.AssetsConfig
	names    names.Normalizer
	store    registry.Store
	backend  storage.Backend
	probe    *source.Probe
	caches   *cache.Manager
	resolver *resolve.Resolver
	metrics  *metrics.Observer
	log      *zap.Logger

	mu sync.Mutex
}

// Open creates registry store and storage backend described by cfg.
func Open(ctx context.Context, cfg *config.AssetsConfig, m *metrics.Observer, log *zap.Logger) (*Library, error) {
	n := names.Normalizer{Transliterate: cfg.Resolver.Transliterate}

	store, err := registry.Open(&cfg.Registry, log)
	if err != nil {
		return nil, fmt.Errorf("unable to open registry: %w", err)
	}
	backend, err := storage.Open(ctx, &cfg.Storage, &cfg.Listing, n, log)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("unable to open storage: %w", err), store.Close())
	}
	l, err := New(cfg, store, backend, m, log)
	if err != nil {
		return nil, multierr.Append(err, closeAll(store, backend))
	}
	return l, nil
}

// New creates library over already opened store and backend. Library takes
// ownership of both.
func New(cfg *config.AssetsConfig, store registry.Store, backend storage.Backend, m *metrics.Observer, log *zap.Logger) (*Library, error) {
	l := &Library{
		cfg:     *cfg,
		names:   names.Normalizer{Transliterate: cfg.Resolver.Transliterate},
		store:   store,
		backend: backend,
		metrics: m,
		log:     log.Named("library"),
	}

	resolver, err := resolve.New(&cfg.Resolver, backend.Layout(), m, log)
	if err != nil {
		return nil, fmt.Errorf("unable to create resolver: %w", err)
	}
	l.resolver = resolver

	if exister, ok := backend.(storage.Exister); ok && cfg.Probe.Enabled {
		probe, err := source.NewProbe(exister, backend.Layout(), l.metadata(), source.ProbeOptions{
			Formats:       cfg.Probe.Formats,
			MaxCandidates: cfg.Probe.MaxCandidates,
			Concurrency:   cfg.Probe.Concurrency,
			Rate:          cfg.Probe.Rate,
			CacheSize:     cfg.Probe.CacheSize,
			Timeout:       cfg.Probe.Timeout,
		}, m, log)
		if err != nil {
			return nil, fmt.Errorf("unable to create probe: %w", err)
		}
		l.probe = probe
	}
	l.caches = cache.NewManager(l.fetcher, l.names, m, log)
	return l, nil
}

func (l *Library) metadata() *source.Metadata {
	return &source.Metadata{Store: l.store, Locator: l.backend.Layout(), Normalizer: l.names}
}

// fetcher builds sources for scope cache.
func (l *Library) fetcher(asset.Scope) cache.Fetcher {
	set := &source.Set{
		Metadata: l.metadata(),
		Listings: []source.Source{&source.Listing{Backend: l.backend, Names: l.names}},
		Metrics:  l.metrics,
		Log:      l.log,
	}
	if l.probe != nil {
		set.Probe = l.probe
	}
	return set
}

// Close releases store and backend.
func (l *Library) Close() error {
	return closeAll(l.store, l.backend)
}

func closeAll(store registry.Store, backend storage.Backend) error {
	err := store.Close()
	if c, ok := backend.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

func (l *Library) Names() names.Normalizer {
	return l.names
}

func (l *Library) Layout() storage.Layout {
	return l.backend.Layout()
}

// ResolveText substitutes placeholders using assets of scopes, earlier
// scopes take priority. Only context errors are returned.
func (l *Library) ResolveText(ctx context.Context, text string, scopes ...asset.Scope) (resolve.Result, error) {
	if !resolve.HasPlaceholders(text) {
		return resolve.Result{Text: text}, nil
	}
	indexes, err := l.caches.Indexes(ctx, scopes...)
	if err != nil {
		return resolve.Result{Text: text}, err
	}
	return l.resolver.Resolve(text, indexes...), nil
}

// Invalidate forces next resolution in scope to rebuild from sources.
func (l *Library) Invalidate(scope asset.Scope) {
	if l.probe != nil {
		l.probe.Forget(scope)
	}
	l.caches.Invalidate(scope)
}

func (l *Library) InvalidateAll() {
	l.caches.InvalidateAll()
}

// Forget drops everything known about scope.
func (l *Library) Forget(scope asset.Scope) {
	if l.probe != nil {
		l.probe.Forget(scope)
	}
	l.caches.Forget(scope)
}

// Index returns resolution index of scope, building it when necessary.
func (l *Library) Index(ctx context.Context, scope asset.Scope) (*cache.Index, error) {
	return l.caches.For(scope).Index(ctx)
}

// Records returns merged asset records of scope.
func (l *Library) Records(ctx context.Context, scope asset.Scope) ([]asset.Record, error) {
	return l.caches.For(scope).Records(ctx)
}

// HasAssets reports whether any of scopes has at least one resolvable asset.
func (l *Library) HasAssets(ctx context.Context, scopes ...asset.Scope) (bool, error) {
	indexes, err := l.caches.Indexes(ctx, scopes...)
	if err != nil {
		return false, err
	}
	for _, ix := range indexes {
		if ix.Len() > 0 {
			return true, nil
		}
	}
	return false, nil
}

// AssetNames returns display names of all records of scopes.
func (l *Library) AssetNames(ctx context.Context, scopes ...asset.Scope) ([]string, error) {
	var out []string
	for _, s := range scopes {
		records, err := l.Records(ctx, s)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			out = append(out, r.DisplayName)
		}
	}
	return out, nil
}

// CompressNames summarizes asset names of scopes into a single line.
func (l *Library) CompressNames(ctx context.Context, scopes ...asset.Scope) (string, error) {
	all, err := l.AssetNames(ctx, scopes...)
	if err != nil {
		return "", err
	}
	return compress.CompressNames(all), nil
}

// Summary is like CompressNames but produces one line per group.
func (l *Library) Summary(ctx context.Context, scopes ...asset.Scope) (string, error) {
	all, err := l.AssetNames(ctx, scopes...)
	if err != nil {
		return "", err
	}
	return compress.Summary(all), nil
}

// currentLocation returns location name resolves to in already built index,
// it never triggers build.
func (l *Library) currentLocation(scope asset.Scope, name string) asset.Location {
	ix := l.caches.For(scope).Peek()
	if ix == nil {
		return asset.Location{}
	}
	if loc, ok := ix.Lookup(name); ok {
		return loc
	}
	if loc, ok := ix.Lookup(l.names.CanonicalKey(name)); ok {
		return loc
	}
	return asset.Location{}
}

var errEmptyName = errors.New("empty asset name")
