package source

import (
	"context"
	"fmt"

	"imgres/asset"
	"imgres/common"
	"imgres/names"
	"imgres/registry"
)

// Metadata reads persisted registry, it is authoritative for names and tags.
type Metadata struct {
	Store      registry.Store
	Locator    asset.Locator
	Normalizer names.Normalizer
}

func (m *Metadata) Kind() common.SourceKind {
	return common.SourceKindMetadata
}

func (m *Metadata) List(ctx context.Context, scope asset.Scope) ([]asset.Record, error) {
	entries, err := m.Store.ReadAssets(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("unable to read registry: %w", err)
	}
	records := make([]asset.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record(m.Normalizer, scope, m.Locator))
	}
	return records, nil
}

// Names returns registered names, the ones without location come first.
func (m *Metadata) Names(ctx context.Context, scope asset.Scope) ([]string, error) {
	records, err := m.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, r := range records {
		if r.Location.IsZero() {
			out = append(out, r.DisplayName)
		}
	}
	for _, r := range records {
		if !r.Location.IsZero() {
			out = append(out, r.DisplayName)
		}
	}
	return out, nil
}
