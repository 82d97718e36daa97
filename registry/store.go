// Package registry persists per-scope asset entries.
package registry

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"imgres/asset"
	"imgres/common"
	"imgres/config"
)

// Store reads and writes ordered asset entries of a scope. Stores do not
// check uniqueness, callers do it before writing.
type Store interface {
	ReadAssets(ctx context.Context, scope asset.Scope) ([]asset.Entry, error)
	WriteAssets(ctx context.Context, scope asset.Scope, entries []asset.Entry) error
	Close() error
}

// Open creates store described by configuration.
func Open(cfg *config.RegistryConfig, log *zap.Logger) (Store, error) {
	switch cfg.Kind {
	case common.RegistryKindYaml:
		return NewYAMLStore(cfg.Path, log)
	case common.RegistryKindSqlite:
		return OpenSQLiteStore(cfg.Path, log)
	case common.RegistryKindMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported registry kind %s", cfg.Kind)
}

func cloneEntries(entries []asset.Entry) []asset.Entry {
	if entries == nil {
		return nil
	}
	out := make([]asset.Entry, len(entries))
	for i, e := range entries {
		e.Tags = slices.Clone(e.Tags)
		out[i] = e
	}
	return out
}
