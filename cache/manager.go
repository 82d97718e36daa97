package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"imgres/asset"
	"imgres/metrics"
	"imgres/names"
)

// FetcherFactory creates sources for a scope.
type FetcherFactory func(scope asset.Scope) Fetcher

// Manager owns caches of all scopes.
type Manager struct {
	factory FetcherFactory
	names   names.Normalizer
	metrics *metrics.Observer
	log     *zap.Logger

	mu     sync.Mutex
	caches map[string]*Cache
}

func NewManager(factory FetcherFactory, n names.Normalizer, m *metrics.Observer, log *zap.Logger) *Manager {
	return &Manager{
		factory: factory,
		names:   n,
		metrics: m,
		log:     log,
		caches:  make(map[string]*Cache),
	}
}

// For returns cache of the scope creating it when necessary.
func (m *Manager) For(scope asset.Scope) *Cache {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.caches[scope.Key()]
	if !ok {
		c = New(scope, m.factory(scope), m.names, m.metrics, m.log)
		m.caches[scope.Key()] = c
	}
	return c
}

// Indexes returns indexes of scopes in the same order, zero scopes are
// skipped.
func (m *Manager) Indexes(ctx context.Context, scopes ...asset.Scope) ([]*Index, error) {
	out := make([]*Index, 0, len(scopes))
	for _, s := range scopes {
		if s.IsZero() {
			continue
		}
		ix, err := m.For(s).Index(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, ix)
	}
	return out, nil
}

func (m *Manager) Invalidate(scope asset.Scope) {
	m.mu.Lock()
	c, ok := m.caches[scope.Key()]
	m.mu.Unlock()
	if ok {
		c.Invalidate()
	}
}

func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	caches := make([]*Cache, 0, len(m.caches))
	for _, c := range m.caches {
		caches = append(caches, c)
	}
	m.mu.Unlock()
	for _, c := range caches {
		c.Invalidate()
	}
}

// Forget invalidates and drops scope cache, used when scope goes away.
func (m *Manager) Forget(scope asset.Scope) {
	m.mu.Lock()
	c, ok := m.caches[scope.Key()]
	delete(m.caches, scope.Key())
	m.mu.Unlock()
	if ok {
		c.Invalidate()
	}
}
